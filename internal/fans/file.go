package fans

import (
	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/fanforge/fanforged/internal/util"
)

// FileFan writes the raw pwm value (0..255) to a file, which covers
// both plain files for testing and sysfs pwm outputs mounted somewhere
// unusual.
type FileFan struct {
	Config    configuration.FanConfig
	LastLevel float64
}

func (fan FileFan) GetId() string {
	return fan.Config.ID
}

func (fan *FileFan) SetDutyPercent(pct float64) error {
	level := dutyToLevel(pct, fan.Config.Inverted)

	filePath, err := util.ResolveHomeDirPath(fan.Config.File.Path)
	if err != nil {
		return err
	}

	if err := util.WriteIntToFile(levelToPwmRaw(level), filePath); err != nil {
		return err
	}
	fan.LastLevel = level
	return nil
}

func (fan FileFan) GetLastLevel() float64 {
	return fan.LastLevel
}
