package statistics

import (
	"github.com/fanforge/fanforged/internal/sensors"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemSensor = "sensor"

type SensorCollector struct {
	monitors  []sensors.Monitor
	value     *prometheus.Desc
	windowMax *prometheus.Desc
}

func NewSensorCollector(monitors []sensors.Monitor) *SensorCollector {
	return &SensorCollector{
		monitors: monitors,
		value: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "value"),
			"Average value of the sensor over the rolling window",
			[]string{"id"}, nil,
		),
		windowMax: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "window_max"),
			"Maximum value of the sensor over the rolling window",
			[]string{"id"}, nil,
		),
	}
}

func (collector *SensorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.value
	ch <- collector.windowMax
}

// Collect implements required collect function for all prometheus collectors
func (collector *SensorCollector) Collect(ch chan<- prometheus.Metric) {
	for _, monitor := range collector.monitors {
		sensorId := monitor.Sensor().GetId()
		ch <- prometheus.MustNewConstMetric(collector.value, prometheus.GaugeValue, monitor.WindowAvg(), sensorId)
		ch <- prometheus.MustNewConstMetric(collector.windowMax, prometheus.GaugeValue, monitor.WindowMax(), sensorId)
	}
}
