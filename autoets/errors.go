package autoets

import "errors"

var (
	ErrInvalidSpec      = errors.New("autoets: invalid spec string")
	ErrNoValidCandidate = errors.New("autoets: no candidate converged to a valid fit")
	ErrNotFitted        = errors.New("autoets: model has not been fitted")
)
