package configuration

type FanConfig struct {
	ID    string          `json:"id"`
	HwMon *HwMonFanConfig `json:"hwmon,omitempty"`
	File  *FileFanConfig  `json:"file,omitempty"`

	// Inverted flips the emitted hardware level (open-collector
	// pull-down topologies invert the effective signal at the fan).
	Inverted bool `json:"inverted"`
}

type HwMonFanConfig struct {
	Platform string `json:"platform"`
	Index    int    `json:"index"`

	// resolved at startup from platform + index
	PwmOutput string `json:"pwmOutput"`
}

type FileFanConfig struct {
	Path string `json:"path"`
}
