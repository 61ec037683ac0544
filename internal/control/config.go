package control

import (
	"sync"
	"sync/atomic"

	"github.com/fanforge/fanforged/internal/curve"
)

type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeManual Mode = "manual"
	ModeOff    Mode = "off"
)

const (
	// CurveWindowMin and CurveWindowMax bound the editor display window
	// that is stored alongside the curve.
	CurveWindowMin = 15.0
	CurveWindowMax = 50.0
)

// Config is the complete control-plane configuration. It is immutable
// once published; a config change builds a new Config and swaps it in
// as a whole, the tick never observes partial updates.
type Config struct {
	Mode          Mode                `json:"mode"`
	SmoothingMode curve.SmoothingMode `json:"smoothing_mode"`
	Curve         curve.Curve         `json:"-"`

	MinPwm        float64 `json:"min_pwm"`
	MaxPwm        float64 `json:"max_pwm"`
	SlewPctPerSec float64 `json:"slew_pct_per_sec"`
	FailsafeTemp  float64 `json:"failsafe_temp"`
	FailsafePwm   float64 `json:"failsafe_pwm"`
	ManualPwm     float64 `json:"manual_pwm"`

	// display window hints for curve editors, not used by the tick
	CurveMin float64 `json:"curve_min"`
	CurveMax float64 `json:"curve_max"`
}

// DefaultConfig returns the configuration the controller falls back to
// when nothing has ever been applied.
func DefaultConfig() Config {
	c, _ := curve.New([]curve.Point{
		{Temp: 20, Duty: 20},
		{Temp: 50, Duty: 100},
	})
	return Config{
		Mode:          ModeAuto,
		SmoothingMode: curve.SmoothingLinear,
		Curve:         c,
		MinPwm:        20,
		MaxPwm:        100,
		SlewPctPerSec: 10,
		FailsafeTemp:  80,
		FailsafePwm:   100,
		ManualPwm:     50,
		CurveMin:      20,
		CurveMax:      50,
	}
}

// Store publishes the active Config to the tick path. The snapshot is
// swapped with a single atomic pointer assignment, so readers never
// block and never see a half-written config. Writers are serialized:
// Apply inherits optional fields from the previous config, so two
// concurrent applies must not build against the same stale snapshot.
type Store struct {
	applyMu sync.Mutex
	active  atomic.Pointer[Config]
}

func NewStore(initial Config) *Store {
	s := &Store{}
	s.active.Store(&initial)
	return s
}

// Active returns the currently active configuration snapshot.
func (s *Store) Active() Config {
	return *s.active.Load()
}

// Set replaces the active configuration wholesale. The given config is
// expected to be validated already (e.g. restored from persistence).
func (s *Store) Set(config Config) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()
	s.active.Store(&config)
}

// Apply validates the given request against the active configuration
// and atomically swaps in the resulting Config. On any violation the
// active configuration stays untouched and all violations are returned.
func (s *Store) Apply(request Request) (Config, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	config, errs := buildConfig(request, s.Active())
	if len(errs) > 0 {
		return Config{}, errs
	}
	s.active.Store(&config)
	return config, nil
}
