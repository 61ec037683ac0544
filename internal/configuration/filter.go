package configuration

const (
	FilterTypeDeadband = "deadband"
	FilterTypeEma      = "ema"
)

// FilterConfig selects and tunes the temperature conditioning strategy.
type FilterConfig struct {
	Type string `json:"type"`

	// Deadband is the minimum temperature movement that is considered
	// real, used by the deadband strategy.
	Deadband float64 `json:"deadband"`

	// Alpha is the smoothing factor of the EMA strategy, in (0, 1).
	Alpha float64 `json:"alpha"`
}
