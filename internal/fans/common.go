package fans

import (
	"fmt"
	"math"

	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/fanforge/fanforged/internal/util"
)

const (
	MaxPwmValue = 255
	MinPwmValue = 0
)

var (
	FanMap = map[string]Actuator{}
)

// Actuator accepts a duty in percent of maximum (0 = off/minimum) and
// maps it to whatever the hardware expects. Signal polarity inversion
// happens here, never in the control core.
type Actuator interface {
	GetId() string

	// SetDutyPercent applies the given duty, 0..100
	SetDutyPercent(pct float64) error

	// GetLastLevel returns the hardware level (0..1) last written
	GetLastLevel() float64
}

func NewActuator(config configuration.FanConfig) (Actuator, error) {
	if config.HwMon != nil {
		return &HwMonFan{
			Label:  config.ID,
			Index:  config.HwMon.Index,
			Output: config.HwMon.PwmOutput,
			Config: config,
		}, nil
	}

	if config.File != nil {
		return &FileFan{
			Config: config,
		}, nil
	}

	return nil, fmt.Errorf("no matching fan type for fan: %s", config.ID)
}

// dutyToLevel converts a duty in percent to the hardware level,
// applying polarity inversion if configured.
func dutyToLevel(pct float64, inverted bool) float64 {
	level := util.Coerce(pct, 0, 100) / 100.0
	if inverted {
		level = 1.0 - level
	}
	return util.Coerce(level, 0, 1)
}

// levelToPwmRaw maps a level (0..1) onto the hwmon pwm value range.
func levelToPwmRaw(level float64) int {
	return int(math.Round(level * MaxPwmValue))
}
