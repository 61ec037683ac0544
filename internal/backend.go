package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fanforge/fanforged/internal/api"
	"github.com/fanforge/fanforged/internal/configuration"
	"github.com/fanforge/fanforged/internal/control"
	"github.com/fanforge/fanforged/internal/fans"
	"github.com/fanforge/fanforged/internal/filter"
	"github.com/fanforge/fanforged/internal/hwmon"
	"github.com/fanforge/fanforged/internal/persistence"
	"github.com/fanforge/fanforged/internal/sensors"
	"github.com/fanforge/fanforged/internal/statistics"
	"github.com/fanforge/fanforged/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RunDaemon() {
	if configuration.CurrentConfig.Fan.HwMon != nil && getProcessOwner() != "root" {
		ui.Fatal("Controlling hwmon fans requires root permissions, please run fanforged as root")
	}

	pers := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to initialize persistence: %v", err)
	}

	sensor, actuator := InitializeObjects()

	pollingRate := configuration.CurrentConfig.SensorPollingRate
	windowSize := configuration.CurrentConfig.TempRollingWindowSize
	mon := sensors.NewMonitor(sensor, pollingRate, windowSize)
	statistics.Register(statistics.NewSensorCollector([]sensors.Monitor{mon}))

	store := control.NewStore(control.DefaultConfig())
	restoreControlConfig(store, pers)

	controller := control.NewController(
		store,
		sensor,
		actuator,
		buildTemperatureFilter(configuration.CurrentConfig.Filter),
		configuration.CurrentConfig.TickRate,
	)
	statistics.Register(statistics.NewControllerCollector(controller))

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		// === control loop
		g.Add(func() error {
			err := controller.Run(ctx)
			ui.Info("Controller stopped.")
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error running controller: %v", err)
			}
		})
	}
	{
		// === sensor monitoring
		g.Add(func() error {
			err := mon.Run(ctx)
			ui.Info("Sensor monitor for sensor %s stopped.", sensor.GetId())
			return err
		}, func(err error) {
			if err != nil {
				ui.Warning("Error monitoring sensor: %v", err)
			}
		})
	}
	{
		// === REST api
		if configuration.CurrentConfig.Api.Enabled {
			restService := api.CreateRestService(controller, store, pers)

			g.Add(func() error {
				host := configuration.CurrentConfig.Api.Host
				port := configuration.CurrentConfig.Api.Port
				addr := fmt.Sprintf("%s:%d", host, port)
				if err := restService.Start(addr); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start REST api endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := restService.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping REST api: " + err.Error())
				} else {
					ui.Info("REST api stopped.")
				}
			})
		}
	}
	{
		// === Prometheus Exporter
		if configuration.CurrentConfig.Statistics.Enabled {
			port := configuration.CurrentConfig.Statistics.Port
			if port <= 0 || port >= 65535 {
				port = 9441
			}
			addr := fmt.Sprintf(":%d", port)
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			server := &http.Server{Addr: addr, Handler: mux}

			g.Add(func() error {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				if err := server.Shutdown(timeoutCtx); err != nil {
					ui.Warning("Error stopping statistics server: " + err.Error())
				} else {
					ui.Info("Statistics server stopped.")
				}
			})
		}
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received SIGTERM signal, exiting...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// InitializeObjects resolves the configured sensor and fan against the
// detected hwmon chips and registers them together with their
// statistics collectors.
func InitializeObjects() (sensors.Sensor, fans.Actuator) {
	sensorConfig := configuration.CurrentConfig.Sensor
	fanConfig := configuration.CurrentConfig.Fan

	var controllers []*hwmon.HwMonController
	if sensorConfig.HwMon != nil || fanConfig.HwMon != nil {
		controllers = hwmon.GetChips()
	}

	if sensorConfig.HwMon != nil {
		found := false
		for _, c := range controllers {
			matched, err := regexp.MatchString("(?i)"+sensorConfig.HwMon.Platform, c.Platform)
			if err != nil {
				ui.Fatal("Failed to match platform regex of %s (%s) against controller platform %s", sensorConfig.ID, sensorConfig.HwMon.Platform, c.Platform)
			}
			if matched && len(c.Sensors) >= sensorConfig.HwMon.Index {
				found = true
				sensorConfig.HwMon.TempInput = c.Sensors[sensorConfig.HwMon.Index-1].Input
				break
			}
		}
		if !found {
			ui.Fatal("Couldn't find hwmon device with platform '%s' for sensor: %s. Run 'fanforged detect' again and correct any mistake.", sensorConfig.HwMon.Platform, sensorConfig.ID)
		}
	}

	sensor, err := sensors.NewSensor(sensorConfig)
	if err != nil {
		ui.Fatal("Unable to process sensor configuration: %s", sensorConfig.ID)
	}

	currentValue, err := sensor.GetValue()
	if err != nil {
		ui.Warning("Error reading sensor %s: %v", sensorConfig.ID, err)
	}
	sensor.SetMovingAvg(currentValue)

	sensors.SensorMap.Set(sensorConfig.ID, sensor)

	if fanConfig.HwMon != nil {
		found := false
		for _, c := range controllers {
			matched, err := regexp.MatchString("(?i)"+fanConfig.HwMon.Platform, c.Platform)
			if err != nil {
				ui.Fatal("Failed to match platform regex of %s (%s) against controller platform %s", fanConfig.ID, fanConfig.HwMon.Platform, c.Platform)
			}
			if matched {
				found = true
				index := fanConfig.HwMon.Index - 1
				if len(c.Fans) > index {
					fan := c.Fans[index]
					fanConfig.HwMon.PwmOutput = fan.Output
				}
				break
			}
		}
		if !found {
			ui.Fatal("Couldn't find hwmon device with platform '%s' for fan: %s", fanConfig.HwMon.Platform, fanConfig.ID)
		}
	}

	actuator, err := fans.NewActuator(fanConfig)
	if err != nil {
		ui.Fatal("Unable to process fan configuration: %s", fanConfig.ID)
	}

	fans.FanMap[fanConfig.ID] = actuator
	statistics.Register(statistics.NewFanCollector([]fans.Actuator{actuator}))

	return sensor, actuator
}

// restoreControlConfig replays the last persisted control config, if
// any, through the regular validation path.
func restoreControlConfig(store *control.Store, pers persistence.Persistence) {
	doc, err := pers.LoadControlConfig()
	if err != nil {
		ui.Debug("No persisted control config: %v", err)
		return
	}

	if _, err := store.Apply(doc.ToRequest()); err != nil {
		ui.Warning("Persisted control config is invalid, falling back to defaults: %v", err)
		return
	}
	ui.Info("Restored persisted control config.")
}

func buildTemperatureFilter(config configuration.FilterConfig) filter.TemperatureFilter {
	switch config.Type {
	case configuration.FilterTypeEma:
		return filter.NewEmaFilter(config.Alpha)
	default:
		return filter.NewDeadbandFilter(config.Deadband)
	}
}

func getProcessOwner() string {
	stdout, err := exec.Command("ps", "-o", "user=", "-p", strconv.Itoa(os.Getpid())).Output()
	if err != nil {
		ui.Fatal("Error checking process owner: %v", err)
		os.Exit(1)
	}
	return strings.TrimSpace(string(stdout))
}
