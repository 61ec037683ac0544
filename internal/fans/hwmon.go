package fans

import (
	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/fanforge/fanforged/internal/util"
)

type HwMonFan struct {
	Label     string
	Index     int
	Output    string
	Config    configuration.FanConfig
	LastLevel float64
}

func (fan HwMonFan) GetId() string {
	return fan.Config.ID
}

func (fan *HwMonFan) SetDutyPercent(pct float64) error {
	level := dutyToLevel(pct, fan.Config.Inverted)

	// atomic write, a half-written pwm file confuses some drivers
	if err := util.WriteIntToFileAtomic(levelToPwmRaw(level), fan.Output); err != nil {
		return err
	}
	fan.LastLevel = level
	return nil
}

func (fan HwMonFan) GetLastLevel() float64 {
	return fan.LastLevel
}

// GetPwmRaw reads back the currently set raw pwm value.
func (fan HwMonFan) GetPwmRaw() (int, error) {
	return util.ReadIntFromFile(fan.Output)
}
