package configuration

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

func Validate() error {
	return validateConfig(&CurrentConfig)
}

func validateConfig(config *Configuration) error {
	if err := validateSensor(config); err != nil {
		return err
	}
	if err := validateFan(config); err != nil {
		return err
	}
	if err := validateFilter(config); err != nil {
		return err
	}
	return validateTiming(config)
}

func validateSensor(config *Configuration) error {
	sensorConfig := config.Sensor

	subConfigs := 0
	if sensorConfig.HwMon != nil {
		subConfigs++
	}
	if sensorConfig.File != nil {
		subConfigs++
	}
	if sensorConfig.Cmd != nil {
		subConfigs++
	}
	if subConfigs > 1 {
		return fmt.Errorf("sensor %s: only one sensor type can be used per sensor definition block", sensorConfig.ID)
	}
	if subConfigs <= 0 {
		return fmt.Errorf("sensor %s: sub-configuration for sensor is missing, use one of: hwmon | file | cmd", sensorConfig.ID)
	}

	if sensorConfig.HwMon != nil {
		if sensorConfig.HwMon.Index <= 0 {
			return fmt.Errorf("sensor %s: invalid index, must be >= 1", sensorConfig.ID)
		}
	}
	if sensorConfig.File != nil {
		if len(sensorConfig.File.Path) <= 0 {
			return fmt.Errorf("sensor %s: no file path provided", sensorConfig.ID)
		}
	}
	if sensorConfig.Cmd != nil {
		if len(sensorConfig.Cmd.Exec) <= 0 {
			return fmt.Errorf("sensor %s: sensor executable is missing", sensorConfig.ID)
		}
	}

	return nil
}

func validateFan(config *Configuration) error {
	fanConfig := config.Fan

	subConfigs := 0
	if fanConfig.HwMon != nil {
		subConfigs++
	}
	if fanConfig.File != nil {
		subConfigs++
	}
	if subConfigs > 1 {
		return fmt.Errorf("fan %s: only one fan type can be used per fan definition block", fanConfig.ID)
	}
	if subConfigs <= 0 {
		return fmt.Errorf("fan %s: sub-configuration for fan is missing, use one of: hwmon | file", fanConfig.ID)
	}

	if fanConfig.HwMon != nil {
		if fanConfig.HwMon.Index <= 0 {
			return fmt.Errorf("fan %s: invalid index, must be >= 1", fanConfig.ID)
		}
	}
	if fanConfig.File != nil {
		if len(fanConfig.File.Path) <= 0 {
			return fmt.Errorf("fan %s: no file path provided", fanConfig.ID)
		}
	}

	return nil
}

func validateFilter(config *Configuration) error {
	filterConfig := config.Filter

	supportedTypes := []string{FilterTypeDeadband, FilterTypeEma}
	if !slices.Contains(supportedTypes, filterConfig.Type) {
		return fmt.Errorf("filter: unsupported type '%s', use one of: %s", filterConfig.Type, strings.Join(supportedTypes, " | "))
	}

	if filterConfig.Type == FilterTypeDeadband && filterConfig.Deadband < 0 {
		return fmt.Errorf("filter: deadband must be >= 0")
	}
	if filterConfig.Type == FilterTypeEma {
		if filterConfig.Alpha <= 0 || filterConfig.Alpha >= 1 {
			return fmt.Errorf("filter: alpha must be within (0, 1)")
		}
	}

	return nil
}

func validateTiming(config *Configuration) error {
	if config.TickRate <= 0 {
		return fmt.Errorf("tickRate must be > 0")
	}
	if config.SensorPollingRate <= 0 {
		return fmt.Errorf("sensorPollingRate must be > 0")
	}
	if config.TempRollingWindowSize < 1 {
		return fmt.Errorf("tempRollingWindowSize must be >= 1")
	}
	return nil
}
