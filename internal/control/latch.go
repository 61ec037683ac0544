package control

import (
	"math"
)

// DefaultFailsafeHysteresis is the width of the failsafe release band
// in degrees.
const DefaultFailsafeHysteresis = 1.0

// FailsafeLatch is a hysteresis state machine that overrides the
// computed duty while the temperature is dangerously high. It engages
// at the failsafe temperature and releases only once the temperature
// dropped a full hysteresis band below it; strictly inside the band the
// state never changes.
type FailsafeLatch struct {
	hysteresis float64
	latched    bool
}

func NewFailsafeLatch(hysteresis float64) *FailsafeLatch {
	return &FailsafeLatch{
		hysteresis: hysteresis,
	}
}

// Update advances the latch with the current control temperature and
// returns whether the latch is engaged.
func (l *FailsafeLatch) Update(temp float64, failsafeTemp float64) bool {
	if temp >= failsafeTemp {
		l.latched = true
	} else if temp <= failsafeTemp-l.hysteresis {
		l.latched = false
	}
	return l.latched
}

// Apply floors the given duty to the failsafe pwm while latched.
func (l *FailsafeLatch) Apply(duty float64, failsafePwm float64) float64 {
	if l.latched {
		return math.Max(duty, failsafePwm)
	}
	return duty
}

// Reset forces the latch back to normal. Called whenever the controller
// leaves auto mode, since the failsafe is meaningless without active
// temperature control.
func (l *FailsafeLatch) Reset() {
	l.latched = false
}

func (l *FailsafeLatch) Latched() bool {
	return l.latched
}
