package configuration

import (
	"os"
	"time"

	"github.com/fanforge/fanforged/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	TickRate              time.Duration `json:"tickRate"`
	SensorPollingRate     time.Duration `json:"sensorPollingRate"`
	TempRollingWindowSize int           `json:"tempRollingWindowSize"`

	Filter FilterConfig `json:"filter"`
	Sensor SensorConfig `json:"sensor"`
	Fan    FanConfig    `json:"fan"`

	Api        ApiConfig        `json:"api"`
	Statistics StatisticsConfig `json:"statistics"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("fanforged")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/fanforged/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("DbPath", "/etc/fanforged/fanforged.db")

	viper.SetDefault("TickRate", 200*time.Millisecond)
	viper.SetDefault("SensorPollingRate", 200*time.Millisecond)
	viper.SetDefault("TempRollingWindowSize", 50)

	viper.SetDefault("Filter.Type", FilterTypeDeadband)
	viper.SetDefault("Filter.Deadband", 0.51)
	viper.SetDefault("Filter.Alpha", 0.25)

	viper.SetDefault("Api.Enabled", true)
	viper.SetDefault("Api.Host", "localhost")
	viper.SetDefault("Api.Port", 9440)

	viper.SetDefault("Statistics.Enabled", false)
	viper.SetDefault("Statistics.Port", 9441)
}

// DetectConfigFile returns the path of the config file viper ended up
// using. Only populated after the config has been read.
func DetectConfigFile() string {
	return viper.ConfigFileUsed()
}

func ReadConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		// config file is required, so we fail here
		ui.Fatal("Error reading config file, %s", err)
	}

	LoadConfig()
}

func LoadConfig() {
	// load default configuration values
	err := viper.Unmarshal(
		&CurrentConfig,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)),
	)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}
