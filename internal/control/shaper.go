package control

import (
	"math"

	"github.com/fanforge/fanforged/internal/util"
)

const (
	// DefaultPwmDeadband is the minimum duty change that gets through to
	// the actuator. The temperature deadband upstream is the primary
	// chatter filter, so this stays at zero.
	DefaultPwmDeadband = 0.0

	// MinDt floors the tick delta time to keep the slew step bounded on
	// clock jumps.
	MinDt = 0.02

	// DefaultDt is assumed for the very first tick, when no previous
	// tick timestamp exists yet.
	DefaultDt = 0.2
)

// OutputShaper turns a target duty into the next actual duty. Two
// independent guards apply: a duty deadband that absorbs residual curve
// evaluation noise, and a slew limiter that bounds the duty change per
// second of wall-clock time.
type OutputShaper struct {
	deadband float64
}

func NewOutputShaper(deadband float64) *OutputShaper {
	return &OutputShaper{
		deadband: deadband,
	}
}

// Shape returns the duty to actually emit, given the target duty, the
// currently emitted duty, the elapsed seconds since the previous tick
// and the configured slew rate in percent per second.
func (s *OutputShaper) Shape(target float64, current float64, dt float64, slewPctPerSec float64) float64 {
	if math.Abs(target-current) < s.deadband {
		target = current
	}

	dt = math.Max(MinDt, dt)
	maxStep := util.Coerce(slewPctPerSec, 0, 100) * dt
	step := util.Coerce(target-current, -maxStep, maxStep)
	return util.Coerce(current+step, 0, 100)
}
