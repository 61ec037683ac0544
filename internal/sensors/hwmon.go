package sensors

import (
	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/fanforge/fanforged/internal/util"
)

type HwmonSensor struct {
	Name      string                     `json:"name"`
	Label     string                     `json:"label"`
	Index     int                        `json:"index"`
	Input     string                     `json:"input"`
	Config    configuration.SensorConfig `json:"configuration"`
	MovingAvg float64                    `json:"movingAvg"`
}

func (sensor HwmonSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor HwmonSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor HwmonSensor) GetValue() (result float64, err error) {
	// hwmon inputs report milli-degrees
	integer, err := util.ReadIntFromFile(sensor.Input)
	if err != nil {
		return 0, err
	}
	return float64(integer) / 1000.0, nil
}

func (sensor HwmonSensor) GetMovingAvg() (avg float64) {
	return sensor.MovingAvg
}

func (sensor *HwmonSensor) SetMovingAvg(avg float64) {
	sensor.MovingAvg = avg
}
