package ets

// SeasonalBuffer is a rotating buffer of m seasonal states. Slot 0 always
// holds the most recently updated seasonal state; slot m-1 holds the
// oldest. Replaces open-coded rotating-index arithmetic (`i % m`) with a
// small capability type: Active reads the in-use phase, RotateWith pushes a
// new value in and shifts the rest back by one slot.
type SeasonalBuffer struct {
	s []float64
}

// NewSeasonalBuffer builds a buffer from initial per-phase seasonal states,
// given in chronological order (init[0] is the oldest).
func NewSeasonalBuffer(init []float64) *SeasonalBuffer {
	m := len(init)
	s := make([]float64, m)
	for j := 0; j < m; j++ {
		s[m-1-j] = init[j]
	}
	return &SeasonalBuffer{s: s}
}

// Len returns the seasonal period m.
func (b *SeasonalBuffer) Len() int { return len(b.s) }

// Active returns the seasonal state currently governing the next
// observation (slot m-1, the oldest).
func (b *SeasonalBuffer) Active() float64 {
	if len(b.s) == 0 {
		return 0
	}
	return b.s[len(b.s)-1]
}

// At returns the seasonal state i steps ahead of the active slot, wrapping
// modulo m, as used by the h-step-ahead forecast recursion.
func (b *SeasonalBuffer) At(stepsAhead int) float64 {
	m := len(b.s)
	if m == 0 {
		return 0
	}
	j := (m - 1 - (stepsAhead % m) + m) % m
	return b.s[j]
}

// RotateWith pushes a newly computed seasonal state into slot 0 and shifts
// every other slot back by one, discarding the oldest (slot m-1).
func (b *SeasonalBuffer) RotateWith(newVal float64) {
	m := len(b.s)
	if m == 0 {
		return
	}
	for j := m - 1; j > 0; j-- {
		b.s[j] = b.s[j-1]
	}
	b.s[0] = newVal
}

// Snapshot returns a defensive copy of the buffer's current slots in
// storage order (slot 0 first).
func (b *SeasonalBuffer) Snapshot() []float64 {
	out := make([]float64, len(b.s))
	copy(out, b.s)
	return out
}

// FromSnapshot restores a buffer from a slot-order snapshot previously
// produced by Snapshot, e.g. when resuming state from a persisted model.
func FromSnapshot(slots []float64) *SeasonalBuffer {
	out := make([]float64, len(slots))
	copy(out, slots)
	return &SeasonalBuffer{s: out}
}
