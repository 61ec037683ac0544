package control

import (
	"github.com/fanforge/fanforged/internal/curve"
)

// ConfigDocument is the external wire form of a Config, used by the
// REST api and by persistence. Curve points use the compact t/p keys.
type ConfigDocument struct {
	Mode          string        `json:"mode"`
	SmoothingMode string        `json:"smoothing_mode"`
	Points        []curve.Point `json:"points"`
	MinPwm        float64       `json:"min_pwm"`
	MaxPwm        float64       `json:"max_pwm"`
	CurveMin      float64       `json:"curve_min"`
	CurveMax      float64       `json:"curve_max"`
	SlewPctPerSec float64       `json:"slew_pct_per_sec"`
	FailsafeTemp  float64       `json:"failsafe_temp"`
	FailsafePwm   float64       `json:"failsafe_pwm"`
	ManualPwm     float64       `json:"manual_pwm"`
}

// Document renders the config into its wire form.
func (c Config) Document() ConfigDocument {
	return ConfigDocument{
		Mode:          string(c.Mode),
		SmoothingMode: string(c.SmoothingMode),
		Points:        c.Curve.Points(),
		MinPwm:        c.MinPwm,
		MaxPwm:        c.MaxPwm,
		CurveMin:      c.CurveMin,
		CurveMax:      c.CurveMax,
		SlewPctPerSec: c.SlewPctPerSec,
		FailsafeTemp:  c.FailsafeTemp,
		FailsafePwm:   c.FailsafePwm,
		ManualPwm:     c.ManualPwm,
	}
}

// ToRequest converts a document back into an apply request, so that
// restored configs run through the exact same validation as external
// ones.
func (d ConfigDocument) ToRequest() Request {
	points := make([]RequestPoint, 0, len(d.Points))
	for _, p := range d.Points {
		temp := p.Temp
		duty := p.Duty
		points = append(points, RequestPoint{T: &temp, P: &duty})
	}
	return Request{
		Mode:          &d.Mode,
		SmoothingMode: &d.SmoothingMode,
		Points:        points,
		MinPwm:        &d.MinPwm,
		MaxPwm:        &d.MaxPwm,
		SlewPctPerSec: &d.SlewPctPerSec,
		FailsafeTemp:  &d.FailsafeTemp,
		FailsafePwm:   &d.FailsafePwm,
		ManualPwm:     &d.ManualPwm,
		CurveMin:      &d.CurveMin,
		CurveMax:      &d.CurveMax,
	}
}
