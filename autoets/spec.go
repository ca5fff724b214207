// Package autoets implements the AutoETS model-selection driver: it
// enumerates admissible ETS specifications from a spec string, seeds each
// with a sparse parameter grid, refines the seed with a bounded optimizer
// (L-BFGS with analytical gradients for the hard cases, Nelder-Mead
// otherwise), and returns the AICc-best fit.
package autoets

import (
	"fmt"
	"strings"

	"github.com/anofox/go-forecast/ets"
)

// ParseSpec parses a three-or-four-character ETS spec string such as "ZZZ"
// (fully automatic), "AAdA" (additive error, damped-additive trend,
// additive season), or "ZNA" (automatic error, no trend, additive season).
// 'Z' in any slot means "let AutoETS choose"; trend accepts a trailing 'd'
// to request damping.
func ParseSpec(spec string) (errorChoices []ets.Error, trendChoices []ets.Trend, seasonChoices []ets.Season, err error) {
	if len(spec) < 3 {
		return nil, nil, nil, fmt.Errorf("spec %q: %w", spec, ErrInvalidSpec)
	}

	errorChoices, err = parseErrorLetter(spec[0])
	if err != nil {
		return nil, nil, nil, err
	}

	trendPart := spec[1:2]
	damped := false
	rest := spec[2:]
	if strings.HasPrefix(rest, "d") {
		damped = true
		rest = rest[1:]
	}
	if len(rest) < 1 {
		return nil, nil, nil, fmt.Errorf("spec %q missing season letter: %w", spec, ErrInvalidSpec)
	}
	seasonLetter := rest[0:1]

	trendChoices, err = parseTrendLetter(trendPart, damped)
	if err != nil {
		return nil, nil, nil, err
	}
	seasonChoices, err = parseSeasonLetter(seasonLetter)
	if err != nil {
		return nil, nil, nil, err
	}

	return errorChoices, trendChoices, seasonChoices, nil
}

func parseErrorLetter(b byte) ([]ets.Error, error) {
	switch b {
	case 'A':
		return []ets.Error{ets.ErrorAdditive}, nil
	case 'M':
		return []ets.Error{ets.ErrorMultiplicative}, nil
	case 'Z':
		return []ets.Error{ets.ErrorAdditive, ets.ErrorMultiplicative}, nil
	default:
		return nil, fmt.Errorf("error letter %q: %w", string(b), ErrInvalidSpec)
	}
}

func parseTrendLetter(letter string, damped bool) ([]ets.Trend, error) {
	switch letter {
	case "N":
		return []ets.Trend{ets.TrendNone}, nil
	case "A":
		if damped {
			return []ets.Trend{ets.TrendDampedAdditive}, nil
		}
		return []ets.Trend{ets.TrendAdditive}, nil
	case "M":
		if damped {
			return []ets.Trend{ets.TrendDampedMultiplicative}, nil
		}
		return []ets.Trend{ets.TrendMultiplicative}, nil
	case "Z":
		if damped {
			return []ets.Trend{ets.TrendDampedAdditive, ets.TrendDampedMultiplicative}, nil
		}
		return []ets.Trend{ets.TrendNone, ets.TrendAdditive, ets.TrendMultiplicative, ets.TrendDampedAdditive, ets.TrendDampedMultiplicative}, nil
	default:
		return nil, fmt.Errorf("trend letter %q: %w", letter, ErrInvalidSpec)
	}
}

func parseSeasonLetter(letter string) ([]ets.Season, error) {
	switch letter {
	case "N":
		return []ets.Season{ets.SeasonNone}, nil
	case "A":
		return []ets.Season{ets.SeasonAdditive}, nil
	case "M":
		return []ets.Season{ets.SeasonMultiplicative}, nil
	case "Z":
		return []ets.Season{ets.SeasonNone, ets.SeasonAdditive, ets.SeasonMultiplicative}, nil
	default:
		return nil, fmt.Errorf("season letter %q: %w", letter, ErrInvalidSpec)
	}
}

// Candidates enumerates every admissible (error,trend,season) combination
// implied by a parsed spec, for a given season length m and data
// positivity, dropping combinations the ETS engine rejects structurally
// (additive error with multiplicative season) unless the error family
// itself is also being searched (AutoETS permits A-error+M-season to be
// proposed and then rejected per-candidate, matching the reference driver).
func Candidates(spec string, m int, allPositive bool) ([]ets.Config, error) {
	errorChoices, trendChoices, seasonChoices, err := ParseSpec(spec)
	if err != nil {
		return nil, err
	}

	var out []ets.Config
	for _, e := range errorChoices {
		for _, tr := range trendChoices {
			for _, s := range seasonChoices {
				if s != ets.SeasonNone && m < 2 {
					continue
				}
				if !allPositive && (e == ets.ErrorMultiplicative || s == ets.SeasonMultiplicative || tr.Multiplicative()) {
					continue
				}
				if e == ets.ErrorAdditive && s == ets.SeasonMultiplicative && len(errorChoices) == 1 {
					continue
				}
				out = append(out, ets.Config{Error: e, Trend: tr, Season: s, M: seasonM(s, m)})
			}
		}
	}
	return out, nil
}

func seasonM(s ets.Season, m int) int {
	if s == ets.SeasonNone {
		return 1
	}
	return m
}
