package control

import (
	"testing"

	"github.com/fanforge/fanforged/internal/curve"
	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func createValidRequest() Request {
	return Request{
		Mode:          s("auto"),
		SmoothingMode: s("linear"),
		Points: []RequestPoint{
			{T: f(20), P: f(20)},
			{T: f(50), P: f(100)},
		},
		MinPwm:        f(20),
		MaxPwm:        f(100),
		SlewPctPerSec: f(10),
		FailsafeTemp:  f(80),
		FailsafePwm:   f(100),
	}
}

func TestApplyValidRequest(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()

	// WHEN
	config, err := store.Apply(request)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, ModeAuto, config.Mode)
	assert.Equal(t, curve.SmoothingLinear, config.SmoothingMode)
	assert.Equal(t, 2, config.Curve.Len())
	assert.Equal(t, config, store.Active())
}

func TestApplyRejectsMissingFields(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())

	// WHEN
	_, err := store.Apply(Request{})

	// THEN
	assert.Error(t, err)
	errs, ok := err.(ValidationErrors)
	assert.True(t, ok)

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, field := range []string{
		"mode", "smoothing_mode", "points",
		"min_pwm", "max_pwm", "slew_pct_per_sec",
		"failsafe_temp", "failsafe_pwm",
	} {
		assert.True(t, fields[field], "expected error for field %s", field)
	}
}

func TestApplyIsAtomic(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	previous := store.Active()

	request := createValidRequest()
	request.MinPwm = f(80)
	request.MaxPwm = f(40)
	request.Points = []RequestPoint{
		{T: f(20), P: f(80)},
		{T: f(50), P: f(80)},
	}

	// WHEN
	_, err := store.Apply(request)

	// THEN
	assert.Error(t, err)
	assert.Equal(t, previous, store.Active())
}

func TestApplyReportsAllViolations(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()
	request.SlewPctPerSec = f(120)
	request.FailsafeTemp = f(200)

	// WHEN
	_, err := store.Apply(request)

	// THEN
	errs, ok := err.(ValidationErrors)
	assert.True(t, ok)
	assert.Len(t, errs, 2)
}

func TestApplyRejectsInvalidSmoothingMode(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()
	request.SmoothingMode = s("bezier")

	// WHEN
	_, err := store.Apply(request)

	// THEN
	assert.Error(t, err)
}

func TestApplyRejectsNonIncreasingPoints(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()
	request.Points = []RequestPoint{
		{T: f(50), P: f(20)},
		{T: f(20), P: f(100)},
	}

	// WHEN
	_, err := store.Apply(request)

	// THEN
	assert.Error(t, err)
}

func TestApplyRejectsDutyOutsidePwmWindow(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()
	request.MinPwm = f(30)

	// the first point duty (20) is below min_pwm (30)
	// WHEN
	_, err := store.Apply(request)

	// THEN
	assert.Error(t, err)
}

func TestApplyRoundsPointsToIntegralCoordinates(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()
	request.Points = []RequestPoint{
		{T: f(20.4), P: f(20.6)},
		{T: f(49.5), P: f(99.5)},
	}

	// WHEN
	config, err := store.Apply(request)

	// THEN
	assert.NoError(t, err)
	points := config.Curve.Points()
	assert.Equal(t, curve.Point{Temp: 20, Duty: 21}, points[0])
	assert.Equal(t, curve.Point{Temp: 50, Duty: 100}, points[1])
}

func TestApplyRoundingIsIdempotent(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()

	first, err := store.Apply(request)
	assert.NoError(t, err)

	// WHEN
	second, err := store.Apply(request)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, first.Curve.Points(), second.Curve.Points())
}

func TestApplyKeepsManualPwmWhenAbsent(t *testing.T) {
	// GIVEN
	initial := DefaultConfig()
	initial.ManualPwm = 42
	store := NewStore(initial)

	// WHEN
	config, err := store.Apply(createValidRequest())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 42.0, config.ManualPwm)
}

func TestApplyClampsManualPwm(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()
	request.ManualPwm = f(150)

	// WHEN
	config, err := store.Apply(request)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 100.0, config.ManualPwm)
}

func TestNormalizeCurveWindow(t *testing.T) {
	// GIVEN
	cases := []struct {
		min, max         float64
		expMin, expMax   float64
	}{
		{20, 50, 20, 50},
		{50, 20, 20, 50},   // swapped when inverted
		{10, 60, 15, 50},   // clamped to the allowed window
		{30, 30, 30, 31},   // minimum gap of one degree
		{50, 50, 49, 50},   // gap grows downwards at the upper bound
		{20.4, 49.6, 20, 50},
	}

	for _, c := range cases {
		// WHEN
		min, max := normalizeCurveWindow(c.min, c.max)

		// THEN
		assert.Equal(t, c.expMin, min, "min for %v", c)
		assert.Equal(t, c.expMax, max, "max for %v", c)
	}
}

func TestApplyRejectsOutOfRangePointTemperatures(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())
	request := createValidRequest()
	request.Points = []RequestPoint{
		{T: f(-5), P: f(20)},
		{T: f(10000000), P: f(100)},
	}

	// WHEN
	_, err := store.Apply(request)

	// THEN
	// the temperature domain is bounded, a valid config can never
	// produce an effectively unbounded curve preview
	assert.Error(t, err)
	errs, ok := err.(ValidationErrors)
	assert.True(t, ok)
	count := 0
	for _, e := range errs {
		if e.Field == "points" {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestApplySerializesConcurrentRequests(t *testing.T) {
	// GIVEN
	store := NewStore(DefaultConfig())

	manualRequest := createValidRequest()
	manualRequest.Mode = s("manual")
	manualRequest.ManualPwm = f(33)

	slewRequest := createValidRequest()
	slewRequest.SlewPctPerSec = f(55)

	// WHEN
	// two config sources race; manual_pwm is inherited by requests
	// that omit it, so applies must not interleave
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_, err := store.Apply(manualRequest)
			assert.NoError(t, err)
		}
	}()
	for i := 0; i < 500; i++ {
		_, err := store.Apply(slewRequest)
		assert.NoError(t, err)
	}
	<-done

	// THEN
	// every applied config was built from a coherent snapshot
	active := store.Active()
	assert.Equal(t, 33.0, active.ManualPwm)
}
