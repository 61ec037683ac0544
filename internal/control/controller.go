package control

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/fanforge/fanforged/internal/curve"
	"github.com/fanforge/fanforged/internal/filter"
	"github.com/fanforge/fanforged/internal/ui"
	"github.com/fanforge/fanforged/internal/util"
)

// DefaultTickRate is the cadence the daemon drives the controller at.
const DefaultTickRate = 200 * time.Millisecond

// TemperatureSource produces one raw sensor sample per tick, or an
// error when no reading is available.
type TemperatureSource interface {
	GetValue() (float64, error)
}

// Actuator accepts a duty in percent of maximum, 0 meaning off/minimum.
// Polarity mapping to physical hardware happens behind this boundary.
type Actuator interface {
	SetDutyPercent(pct float64) error

	// GetLastLevel returns the hardware level (0..1) last written,
	// after polarity mapping
	GetLastLevel() float64
}

// State is the mutable, process-lifetime controller state. It is only
// ever mutated by the tick, once per tick, never concurrently. It also
// carries snapshots of the conditioned temperature and the hardware
// output level, so readers never touch the filter or the actuator.
type State struct {
	CurrentDuty     float64
	LastTarget      float64
	OutputLevel     float64
	ControlTemp     float64
	TempValid       bool
	FailsafeLatched bool
	LastTick        time.Time
}

// Status is a point-in-time view of the controller for reporting. A nil
// Temperature means no usable control temperature exists yet.
type Status struct {
	Temperature     *float64            `json:"temp_c"`
	Duty            float64             `json:"pwm_pct"`
	TargetDuty      float64             `json:"target_pwm_pct"`
	OutputLevel     float64             `json:"output_level"`
	Mode            Mode                `json:"mode"`
	SmoothingMode   curve.SmoothingMode `json:"smoothing_mode"`
	FailsafeLatched bool                `json:"failsafe_latched"`
	MinPwm          float64             `json:"min_pwm"`
	MaxPwm          float64             `json:"max_pwm"`
	SlewPctPerSec   float64             `json:"slew_pct_per_sec"`
	ManualPwm       float64             `json:"manual_pwm"`
	LastUpdate      time.Time           `json:"last_update"`
}

// Controller composes the conditioner, mode dispatch, failsafe latch
// and output shaper into one control tick. It owns all mutable state;
// the active Config is taken as a single atomic snapshot per tick.
type Controller struct {
	store    *Store
	source   TemperatureSource
	actuator Actuator
	filter   filter.TemperatureFilter
	shaper   *OutputShaper
	latch    *FailsafeLatch
	tickRate time.Duration
	now      func() time.Time

	stateMu sync.RWMutex
	state   State
}

func NewController(
	store *Store,
	source TemperatureSource,
	actuator Actuator,
	temperatureFilter filter.TemperatureFilter,
	tickRate time.Duration,
) *Controller {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	return &Controller{
		store:    store,
		source:   source,
		actuator: actuator,
		filter:   temperatureFilter,
		shaper:   NewOutputShaper(DefaultPwmDeadband),
		latch:    NewFailsafeLatch(DefaultFailsafeHysteresis),
		tickRate: tickRate,
		now:      time.Now,
	}
}

// Run drives the control tick at a fixed cadence until the context is
// cancelled. The tick itself never blocks and depends on nothing but
// the sensor and the actuator.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.tickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Tick()
		}
	}
}

// Tick executes one control cycle: sensor sample, temperature
// conditioning, mode dispatch, clamping, failsafe, output shaping and
// the actuator command. Every code path produces a defined duty.
func (c *Controller) Tick() {
	config := c.store.Active()

	raw, err := c.source.GetValue()
	if err != nil {
		raw = math.NaN()
	}
	controlTemp, tempOk := c.filter.Update(raw)

	var target float64
	autoMode := false

	switch config.Mode {
	case ModeOff:
		// force to 0 immediately
		target = 0
	case ModeManual:
		// direct operator control for validation and tuning
		target = util.Coerce(config.ManualPwm, 0, 100)
	default:
		// auto depends on temperature validity, manual/off must keep
		// operating without a sensor reading
		if !tempOk {
			c.holdTick()
			return
		}
		autoMode = true
		target = util.Coerce(config.Curve.Evaluate(controlTemp, config.SmoothingMode), 0, 100)

		// enforce the practical running window once we're above 0;
		// a genuine zero target stays zero instead of being floored
		if target > 0 {
			target = util.Coerce(target, config.MinPwm, config.MaxPwm)
		} else {
			target = 0
		}
	}

	// failsafe applies only during auto control
	if autoMode {
		c.latch.Update(controlTemp, config.FailsafeTemp)
		target = c.latch.Apply(target, config.FailsafePwm)
	} else {
		c.latch.Reset()
	}
	target = util.Coerce(target, 0, 100)

	now := c.now()
	next := target
	if autoMode {
		next = c.shaper.Shape(target, c.currentDuty(), c.dtSince(now), config.SlewPctPerSec)
	}

	if err := c.actuator.SetDutyPercent(next); err != nil {
		ui.Error("Unable to apply duty %.1f%%: %v", next, err)
	}

	// single state write per tick; filter and actuator state is
	// snapshotted here so Status never reads them concurrently
	temp, tempValid := c.filter.Value()
	c.stateMu.Lock()
	c.state.CurrentDuty = next
	c.state.LastTarget = target
	c.state.OutputLevel = c.actuator.GetLastLevel()
	c.state.ControlTemp = temp
	c.state.TempValid = tempValid
	c.state.FailsafeLatched = c.latch.Latched()
	c.state.LastTick = now
	c.stateMu.Unlock()
}

// holdTick records the tick timestamp without touching the output.
// Used when auto mode has no usable temperature.
func (c *Controller) holdTick() {
	temp, tempValid := c.filter.Value()
	c.stateMu.Lock()
	c.state.ControlTemp = temp
	c.state.TempValid = tempValid
	c.state.LastTick = c.now()
	c.stateMu.Unlock()
}

func (c *Controller) currentDuty() float64 {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state.CurrentDuty
}

// dtSince returns the wall-clock seconds since the previous tick,
// floored to MinDt, or DefaultDt when no previous tick exists.
func (c *Controller) dtSince(now time.Time) float64 {
	c.stateMu.RLock()
	lastTick := c.state.LastTick
	c.stateMu.RUnlock()

	if lastTick.IsZero() || now.Before(lastTick) {
		return DefaultDt
	}
	return math.Max(MinDt, now.Sub(lastTick).Seconds())
}

// Status reports the current controller state and active config, a
// pure read without side effects.
func (c *Controller) Status() Status {
	config := c.store.Active()

	c.stateMu.RLock()
	state := c.state
	c.stateMu.RUnlock()

	status := Status{
		Duty:            state.CurrentDuty,
		TargetDuty:      state.LastTarget,
		OutputLevel:     state.OutputLevel,
		Mode:            config.Mode,
		SmoothingMode:   config.SmoothingMode,
		FailsafeLatched: state.FailsafeLatched,
		MinPwm:          config.MinPwm,
		MaxPwm:          config.MaxPwm,
		SlewPctPerSec:   config.SlewPctPerSec,
		ManualPwm:       config.ManualPwm,
		LastUpdate:      state.LastTick,
	}
	if state.TempValid {
		temp := state.ControlTemp
		status.Temperature = &temp
	}
	return status
}
