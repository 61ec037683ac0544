package sensors

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/fanforge/fanforged/internal/util"
)

type CmdSensor struct {
	Name      string                     `json:"name"`
	Config    configuration.SensorConfig `json:"configuration"`
	MovingAvg float64                    `json:"movingAvg"`
}

func (sensor CmdSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor CmdSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor CmdSensor) GetValue() (float64, error) {
	timeout := 2 * time.Second
	exec := sensor.Config.Cmd.Exec
	args := sensor.Config.Cmd.Args
	result, err := util.SafeCmdExecution(exec, args, timeout)
	if err != nil {
		return 0, fmt.Errorf("sensor %s: %s", sensor.GetId(), err.Error())
	}

	temp, err := strconv.ParseFloat(result, 64)
	if err != nil {
		return 0, fmt.Errorf("sensor %s: unable to parse temperature from command output: %s", sensor.GetId(), result)
	}

	return temp, nil
}

func (sensor CmdSensor) GetMovingAvg() (avg float64) {
	return sensor.MovingAvg
}

func (sensor *CmdSensor) SetMovingAvg(avg float64) {
	sensor.MovingAvg = avg
}
