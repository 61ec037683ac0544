package filter

import (
	"math"
)

const (
	// DefaultDeadband ignores DS18B20-style half-degree chatter around
	// a stable reading. Any movement of at least this size is "real".
	DefaultDeadband = 0.51

	// DefaultAlpha is the smoothing factor used by the EMA strategy.
	DefaultAlpha = 0.25
)

// TemperatureFilter turns raw, noisy sensor samples into a stable
// control temperature. Implementations keep their own state and must
// never update it from a non-finite sample; ok is false whenever no
// usable value is available for the current tick.
type TemperatureFilter interface {
	// Update feeds one raw sample into the filter and returns the
	// control temperature to use for this tick.
	Update(raw float64) (temp float64, ok bool)

	// Value returns the last control temperature without feeding
	// a new sample.
	Value() (temp float64, ok bool)
}

// DeadbandFilter accepts the first valid sample and afterwards only
// accepts raw values that moved at least deadband away from the last
// accepted value. Smaller movement keeps the previous value.
type DeadbandFilter struct {
	deadband    float64
	accepted    float64
	initialized bool
}

func NewDeadbandFilter(deadband float64) *DeadbandFilter {
	return &DeadbandFilter{
		deadband: deadband,
	}
}

func (f *DeadbandFilter) Update(raw float64) (float64, bool) {
	if !isUsable(raw) {
		return f.accepted, false
	}
	if !f.initialized {
		f.accepted = raw
		f.initialized = true
	} else if math.Abs(raw-f.accepted) >= f.deadband {
		f.accepted = raw
	}
	return f.accepted, true
}

func (f *DeadbandFilter) Value() (float64, bool) {
	return f.accepted, f.initialized
}

// EmaFilter is a single-pole low-pass filter:
// filtered += alpha * (raw - filtered), seeded with the first valid sample.
type EmaFilter struct {
	alpha       float64
	filtered    float64
	initialized bool
}

func NewEmaFilter(alpha float64) *EmaFilter {
	return &EmaFilter{
		alpha: alpha,
	}
}

func (f *EmaFilter) Update(raw float64) (float64, bool) {
	if !isUsable(raw) {
		return f.filtered, false
	}
	if !f.initialized {
		f.filtered = raw
		f.initialized = true
	} else {
		f.filtered += f.alpha * (raw - f.filtered)
	}
	return f.filtered, true
}

func (f *EmaFilter) Value() (float64, bool) {
	return f.filtered, f.initialized
}

func isUsable(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
