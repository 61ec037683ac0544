package configuration

type SensorConfig struct {
	ID    string             `json:"id"`
	HwMon *HwMonSensorConfig `json:"hwmon,omitempty"`
	File  *FileSensorConfig  `json:"file,omitempty"`
	Cmd   *CmdSensorConfig   `json:"cmd,omitempty"`
}

type HwMonSensorConfig struct {
	Platform string `json:"platform"`
	Index    int    `json:"index"`

	// resolved at startup from platform + index
	TempInput string `json:"tempInput"`
}

type FileSensorConfig struct {
	// Path of a file containing the temperature in milli-degrees,
	// the hwmon convention.
	Path string `json:"path"`
}

type CmdSensorConfig struct {
	Exec string   `json:"exec"`
	Args []string `json:"args"`
}
