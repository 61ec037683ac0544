package sensors

import (
	"context"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/fanforge/fanforged/internal/ui"
	"github.com/fanforge/fanforged/internal/util"
)

// Monitor polls a sensor at a fixed rate and maintains a rolling window
// of recent readings plus a simple moving average for reporting. The
// control tick itself reads the sensor directly; the monitor only feeds
// the status and statistics surfaces.
type Monitor interface {
	Run(ctx context.Context) error
	Sensor() Sensor
	WindowAvg() float64
	WindowMax() float64
}

type sensorMonitor struct {
	sensor      Sensor
	pollingRate time.Duration
	windowSize  int
	window      *rolling.PointPolicy
}

func NewMonitor(sensor Sensor, pollingRate time.Duration, windowSize int) Monitor {
	return &sensorMonitor{
		sensor:      sensor,
		pollingRate: pollingRate,
		windowSize:  windowSize,
		window:      rolling.NewPointPolicy(rolling.NewWindow(windowSize)),
	}
}

func (m *sensorMonitor) Run(ctx context.Context) error {
	tick := time.Tick(m.pollingRate)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			if err := m.update(); err != nil {
				// a failing sensor must not take the daemon down,
				// the controller handles the fault on its own
				ui.Warning("Error reading sensor %s: %v", m.sensor.GetId(), err)
			}
		}
	}
}

// update reads the current sensor value and appends it to the moving window
func (m *sensorMonitor) update() error {
	value, err := m.sensor.GetValue()
	if err != nil {
		return err
	}

	m.window.Append(value)

	lastAvg := m.sensor.GetMovingAvg()
	newAvg := util.UpdateSimpleMovingAvg(lastAvg, m.windowSize, value)
	m.sensor.SetMovingAvg(newAvg)

	return nil
}

func (m *sensorMonitor) Sensor() Sensor {
	return m.sensor
}

func (m *sensorMonitor) WindowAvg() float64 {
	return m.window.Reduce(rolling.Avg)
}

func (m *sensorMonitor) WindowMax() float64 {
	return m.window.Reduce(rolling.Max)
}
