package sensors

import (
	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/fanforge/fanforged/internal/util"
)

type FileSensor struct {
	Name      string                     `json:"name"`
	Config    configuration.SensorConfig `json:"configuration"`
	MovingAvg float64                    `json:"movingAvg"`
}

func (sensor FileSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor FileSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor FileSensor) GetValue() (float64, error) {
	filePath, err := util.ResolveHomeDirPath(sensor.Config.File.Path)
	if err != nil {
		return 0, err
	}

	// file sensors use the hwmon milli-degree convention
	integer, err := util.ReadIntFromFile(filePath)
	if err != nil {
		return 0, err
	}
	return float64(integer) / 1000.0, nil
}

func (sensor FileSensor) GetMovingAvg() (avg float64) {
	return sensor.MovingAvg
}

func (sensor *FileSensor) SetMovingAvg(avg float64) {
	sensor.MovingAvg = avg
}
