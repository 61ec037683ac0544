package control

import (
	"fmt"
	"math"
	"strings"

	"github.com/fanforge/fanforged/internal/curve"
	"github.com/fanforge/fanforged/internal/util"
	"golang.org/x/exp/slices"
)

// RequestPoint is a single curve point as delivered by an untrusted
// config source.
type RequestPoint struct {
	T *float64 `json:"t"`
	P *float64 `json:"p"`
}

// Request is the raw, untrusted configuration object matching the wire
// schema. Pointer fields distinguish "absent" from zero values.
type Request struct {
	Mode          *string        `json:"mode"`
	SmoothingMode *string        `json:"smoothing_mode"`
	Points        []RequestPoint `json:"points"`
	MinPwm        *float64       `json:"min_pwm"`
	MaxPwm        *float64       `json:"max_pwm"`
	SlewPctPerSec *float64       `json:"slew_pct_per_sec"`
	FailsafeTemp  *float64       `json:"failsafe_temp"`
	FailsafePwm   *float64       `json:"failsafe_pwm"`
	ManualPwm     *float64       `json:"manual_pwm,omitempty"`
	CurveMin      *float64       `json:"curve_min,omitempty"`
	CurveMax      *float64       `json:"curve_max,omitempty"`
}

// ValidationError describes a single violated field of a config request.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every violation of a request. A rejected
// request reports all of them, not just the first.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// buildConfig turns a raw request into a Config, collecting every
// violation. Optional fields fall back to the previously active config.
// On success, point coordinates are rounded to integral degrees and
// percent; rounding already-integral points is a no-op, so applying the
// same config twice yields an identical curve.
func buildConfig(request Request, previous Config) (Config, ValidationErrors) {
	var errs ValidationErrors
	addError := func(field string, format string, a ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, a...)})
	}

	if request.Mode == nil {
		addError("mode", "is required")
	} else if !slices.Contains([]string{string(ModeAuto), string(ModeManual), string(ModeOff)}, *request.Mode) {
		addError("mode", "must be one of: auto | manual | off")
	}

	if request.SmoothingMode == nil {
		addError("smoothing_mode", "is required")
	} else if !slices.Contains([]string{string(curve.SmoothingLinear), string(curve.SmoothingSmooth)}, *request.SmoothingMode) {
		addError("smoothing_mode", "must be linear or smooth")
	}

	if request.Points == nil {
		addError("points", "is required")
	} else if len(request.Points) < curve.MinPoints {
		addError("points", "must contain at least %d items", curve.MinPoints)
	}

	for _, field := range []struct {
		name  string
		value *float64
	}{
		{"min_pwm", request.MinPwm},
		{"max_pwm", request.MaxPwm},
		{"slew_pct_per_sec", request.SlewPctPerSec},
		{"failsafe_temp", request.FailsafeTemp},
		{"failsafe_pwm", request.FailsafePwm},
	} {
		if field.value == nil {
			addError(field.name, "is required")
		}
	}

	points := make([]curve.Point, 0, len(request.Points))
	prevTemp := math.Inf(-1)
	for i, p := range request.Points {
		if p.T == nil || p.P == nil {
			addError("points", "point %d must include numeric t and p", i)
			continue
		}
		if *p.P < 0 || *p.P > 100 {
			addError("points", "point %d: p must be within 0..100", i)
		}
		// the temperature domain is bounded like failsafe_temp, which
		// also bounds the preview sample count
		if *p.T < 0 || *p.T > 120 {
			addError("points", "point %d: t must be within 0..120", i)
		}
		if *p.T <= prevTemp {
			addError("points", "point temperatures must be strictly increasing")
		}
		prevTemp = *p.T
		points = append(points, curve.Point{Temp: *p.T, Duty: *p.P})
	}

	minPwm := previous.MinPwm
	maxPwm := previous.MaxPwm
	if request.MinPwm != nil {
		minPwm = *request.MinPwm
		if minPwm < 0 || minPwm > 100 {
			addError("min_pwm", "must be within 0..100")
		}
	}
	if request.MaxPwm != nil {
		maxPwm = *request.MaxPwm
		if maxPwm < 0 || maxPwm > 100 {
			addError("max_pwm", "must be within 0..100")
		}
	}
	if request.MinPwm != nil && request.MaxPwm != nil && maxPwm < minPwm {
		addError("max_pwm", "must be >= min_pwm")
	} else {
		for i, p := range points {
			if p.Duty < minPwm || p.Duty > maxPwm {
				addError("points", "point %d: p must be within min_pwm..max_pwm", i)
			}
		}
	}

	if request.SlewPctPerSec != nil && (*request.SlewPctPerSec < 0 || *request.SlewPctPerSec > 100) {
		addError("slew_pct_per_sec", "must be within 0..100")
	}
	if request.FailsafeTemp != nil && (*request.FailsafeTemp < 0 || *request.FailsafeTemp > 120) {
		addError("failsafe_temp", "must be within 0..120")
	}
	if request.FailsafePwm != nil && (*request.FailsafePwm < 0 || *request.FailsafePwm > 100) {
		addError("failsafe_pwm", "must be within 0..100")
	}

	if len(errs) > 0 {
		return Config{}, errs
	}

	// canonical persisted form is integral degrees and percent
	for i := range points {
		points[i].Temp = math.Round(points[i].Temp)
		points[i].Duty = math.Round(points[i].Duty)
	}
	builtCurve, err := curve.New(points)
	if err != nil {
		// strictly increasing floats can collapse onto the same integer
		return Config{}, ValidationErrors{{Field: "points", Message: err.Error()}}
	}

	config := Config{
		Mode:          Mode(*request.Mode),
		SmoothingMode: curve.SmoothingMode(*request.SmoothingMode),
		Curve:         builtCurve,
		MinPwm:        minPwm,
		MaxPwm:        maxPwm,
		SlewPctPerSec: *request.SlewPctPerSec,
		FailsafeTemp:  *request.FailsafeTemp,
		FailsafePwm:   *request.FailsafePwm,
		ManualPwm:     previous.ManualPwm,
		CurveMin:      previous.CurveMin,
		CurveMax:      previous.CurveMax,
	}
	if request.ManualPwm != nil {
		config.ManualPwm = util.Coerce(*request.ManualPwm, 0, 100)
	}
	if request.CurveMin != nil {
		config.CurveMin = *request.CurveMin
	}
	if request.CurveMax != nil {
		config.CurveMax = *request.CurveMax
	}
	config.CurveMin, config.CurveMax = normalizeCurveWindow(config.CurveMin, config.CurveMax)

	return config, nil
}

// normalizeCurveWindow sanitizes the editor display window: integral,
// within [CurveWindowMin, CurveWindowMax], min below max, at least one
// degree wide.
func normalizeCurveWindow(min float64, max float64) (float64, float64) {
	min = util.Coerce(math.Round(min), CurveWindowMin, CurveWindowMax)
	max = util.Coerce(math.Round(max), CurveWindowMin, CurveWindowMax)
	if max < min {
		min, max = max, min
	}
	if max-min < 1 {
		if max+1 <= CurveWindowMax {
			max = min + 1
		} else {
			min = max - 1
		}
	}
	return min, max
}
