package statistics

import (
	"github.com/fanforge/fanforged/internal/control"
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

type ControllerCollector struct {
	controller *control.Controller

	temperature     *prometheus.Desc
	duty            *prometheus.Desc
	targetDuty      *prometheus.Desc
	outputLevel     *prometheus.Desc
	failsafeLatched *prometheus.Desc
}

func NewControllerCollector(controller *control.Controller) *ControllerCollector {
	return &ControllerCollector{
		controller: controller,
		temperature: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "temperature_celsius"),
			"Conditioned control temperature used for the last tick",
			nil, nil,
		),
		duty: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "pwm_pct"),
			"Current shaped output duty in percent",
			nil, nil,
		),
		targetDuty: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "target_pwm_pct"),
			"Unshaped target duty of the last tick in percent",
			nil, nil,
		),
		outputLevel: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "output_level"),
			"Hardware output level, 0..1, after polarity mapping",
			nil, nil,
		),
		failsafeLatched: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "failsafe_latched"),
			"1 while the failsafe latch is engaged, 0 otherwise",
			nil, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.temperature
	ch <- collector.duty
	ch <- collector.targetDuty
	ch <- collector.outputLevel
	ch <- collector.failsafeLatched
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	status := collector.controller.Status()

	if status.Temperature != nil {
		ch <- prometheus.MustNewConstMetric(collector.temperature, prometheus.GaugeValue, *status.Temperature)
	}
	ch <- prometheus.MustNewConstMetric(collector.duty, prometheus.GaugeValue, status.Duty)
	ch <- prometheus.MustNewConstMetric(collector.targetDuty, prometheus.GaugeValue, status.TargetDuty)
	ch <- prometheus.MustNewConstMetric(collector.outputLevel, prometheus.GaugeValue, status.OutputLevel)

	latched := 0.0
	if status.FailsafeLatched {
		latched = 1.0
	}
	ch <- prometheus.MustNewConstMetric(collector.failsafeLatched, prometheus.GaugeValue, latched)
}
