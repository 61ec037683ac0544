package control

import (
	"math"
	"testing"
	"time"

	"github.com/fanforge/fanforged/internal/curve"
	"github.com/fanforge/fanforged/internal/filter"
	"github.com/stretchr/testify/assert"
)

type MockSensor struct {
	Value     float64
	Available bool
}

func (s *MockSensor) GetValue() (float64, error) {
	if !s.Available {
		return math.NaN(), nil
	}
	return s.Value, nil
}

type MockActuator struct {
	LastDuty  float64
	LastLevel float64
	Inverted  bool
	Calls     int
}

func (a *MockActuator) SetDutyPercent(pct float64) error {
	a.LastDuty = pct
	level := pct / 100.0
	if a.Inverted {
		level = 1.0 - level
	}
	a.LastLevel = level
	a.Calls++
	return nil
}

func (a *MockActuator) GetLastLevel() float64 {
	return a.LastLevel
}

// createTestController builds a controller with a fake clock that
// advances a fixed 200ms per tick.
func createTestController(config Config, sensor *MockSensor, actuator *MockActuator) *Controller {
	store := NewStore(config)
	c := NewController(store, sensor, actuator, filter.NewDeadbandFilter(filter.DefaultDeadband), DefaultTickRate)

	clock := time.Unix(1700000000, 0)
	c.now = func() time.Time {
		clock = clock.Add(200 * time.Millisecond)
		return clock
	}
	return c
}

func TestTickOffModeForcesZero(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	config.Mode = ModeOff
	sensor := &MockSensor{Value: 95, Available: true}
	actuator := &MockActuator{LastDuty: 50}
	c := createTestController(config, sensor, actuator)

	// WHEN
	c.Tick()

	// THEN
	assert.Equal(t, 0.0, actuator.LastDuty)
	assert.False(t, c.Status().FailsafeLatched)
}

func TestTickManualModeAppliesManualPwm(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	config.Mode = ModeManual
	config.ManualPwm = 65
	sensor := &MockSensor{Available: false}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)

	// WHEN
	c.Tick()

	// THEN
	// manual works without any sensor reading and without shaping
	assert.Equal(t, 65.0, actuator.LastDuty)
}

func TestTickAutoModeFollowsCurve(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	config.SlewPctPerSec = 100
	sensor := &MockSensor{Value: 50, Available: true}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)

	// WHEN
	// curve evaluates to 100 at 50 degrees, slew allows 20%/tick
	for i := 0; i < 5; i++ {
		c.Tick()
	}

	// THEN
	assert.Equal(t, 100.0, actuator.LastDuty)
}

func TestTickAutoModeSlewLimitsFirstStep(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	config.SlewPctPerSec = 10
	sensor := &MockSensor{Value: 50, Available: true}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)

	// WHEN
	c.Tick()

	// THEN
	// 10 %/s at 200ms per tick allows exactly 2%
	assert.Equal(t, 2.0, actuator.LastDuty)
}

func TestTickAutoModeZeroTargetStaysZero(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	zeroCurve, err := curve.New([]curve.Point{
		{Temp: 20, Duty: 0},
		{Temp: 50, Duty: 100},
	})
	assert.NoError(t, err)
	config.Curve = zeroCurve
	config.MinPwm = 30
	sensor := &MockSensor{Value: 10, Available: true}
	actuator := &MockActuator{LastDuty: 0}
	c := createTestController(config, sensor, actuator)

	// WHEN
	c.Tick()

	// THEN
	// the zero from the curve must not be floored to min_pwm
	assert.Equal(t, 0.0, actuator.LastDuty)
}

func TestTickAutoModeClampsToPwmWindow(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	config.SlewPctPerSec = 100
	lowCurve, err := curve.New([]curve.Point{
		{Temp: 20, Duty: 5},
		{Temp: 50, Duty: 100},
	})
	assert.NoError(t, err)
	config.Curve = lowCurve
	config.MinPwm = 30
	sensor := &MockSensor{Value: 21, Available: true}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)

	// WHEN
	for i := 0; i < 10; i++ {
		c.Tick()
	}

	// THEN
	// a small nonzero target is floored to min_pwm
	assert.Equal(t, 30.0, actuator.LastDuty)
}

func TestTickAutoModeHoldsOutputWithoutSensor(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	config.SlewPctPerSec = 100
	sensor := &MockSensor{Value: 50, Available: true}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)
	c.Tick()
	dutyBefore := actuator.LastDuty
	callsBefore := actuator.Calls

	// WHEN
	sensor.Available = false
	c.Tick()

	// THEN
	// the tick is a no-op for duty, previous output holds
	assert.Equal(t, dutyBefore, actuator.LastDuty)
	assert.Equal(t, callsBefore, actuator.Calls)
}

func TestTickFailsafeLatchFloorsOutput(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	config.SlewPctPerSec = 100
	config.FailsafeTemp = 40
	config.FailsafePwm = 100
	sensor := &MockSensor{Value: 45, Available: true}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)

	// WHEN
	for i := 0; i < 10; i++ {
		c.Tick()
	}

	// THEN
	assert.Equal(t, 100.0, actuator.LastDuty)
	assert.True(t, c.Status().FailsafeLatched)
}

func TestTickModeSwitchResetsFailsafeLatch(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	sensor := &MockSensor{Value: 85, Available: true}
	actuator := &MockActuator{}
	c := NewController(store, sensor, actuator, filter.NewDeadbandFilter(filter.DefaultDeadband), DefaultTickRate)

	c.Tick()
	assert.True(t, c.Status().FailsafeLatched)

	// WHEN
	offConfig := store.Active()
	offConfig.Mode = ModeOff
	store.Set(offConfig)
	c.Tick()

	// THEN
	assert.False(t, c.Status().FailsafeLatched)

	// switching back to auto starts from a clean latch, even though
	// the temperature is still inside the hysteresis band
	autoConfig := store.Active()
	autoConfig.Mode = ModeAuto
	sensor.Value = 79.5
	store.Set(autoConfig)
	c.Tick()
	assert.False(t, c.Status().FailsafeLatched)
}

func TestStatusReportsNoTemperatureBeforeFirstSample(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	sensor := &MockSensor{Available: false}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)

	// WHEN
	c.Tick()
	status := c.Status()

	// THEN
	assert.Nil(t, status.Temperature)
}

func TestStatusReportsHardwareOutputLevel(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	config.Mode = ModeManual
	config.ManualPwm = 100
	sensor := &MockSensor{Available: false}
	actuator := &MockActuator{Inverted: true}
	c := createTestController(config, sensor, actuator)

	// WHEN
	c.Tick()
	status := c.Status()

	// THEN
	// output_level is the level after polarity mapping, not duty/100
	assert.Equal(t, 100.0, status.Duty)
	assert.Equal(t, 0.0, status.OutputLevel)
}

func TestStatusConcurrentWithTicks(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	sensor := &MockSensor{Value: 42.0, Available: true}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)

	// WHEN
	// the status surfaces poll from their own goroutines while the
	// tick loop runs
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			c.Tick()
		}
	}()
	for i := 0; i < 1000; i++ {
		c.Status()
	}
	<-done

	// THEN
	status := c.Status()
	if assert.NotNil(t, status.Temperature) {
		assert.Equal(t, 42.0, *status.Temperature)
	}
}

func TestStatusReportsControlTemperature(t *testing.T) {
	// GIVEN
	config := DefaultConfig()
	sensor := &MockSensor{Value: 42.0, Available: true}
	actuator := &MockActuator{}
	c := createTestController(config, sensor, actuator)

	// WHEN
	c.Tick()
	status := c.Status()

	// THEN
	if assert.NotNil(t, status.Temperature) {
		assert.Equal(t, 42.0, *status.Temperature)
	}
	assert.Equal(t, ModeAuto, status.Mode)
}
