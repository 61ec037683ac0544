package statistics

import (
	"github.com/fanforge/fanforged/internal/fans"
	"github.com/prometheus/client_golang/prometheus"
)

const fanSubsystem = "fan"

type FanCollector struct {
	fans  []fans.Actuator
	level *prometheus.Desc
}

func NewFanCollector(fans []fans.Actuator) *FanCollector {
	return &FanCollector{
		fans: fans,
		level: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "level"),
			"Hardware level last written to the fan, 0..1",
			[]string{"id"}, nil,
		),
	}
}

func (collector *FanCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.level
}

// Collect implements required collect function for all prometheus collectors
func (collector *FanCollector) Collect(ch chan<- prometheus.Metric) {
	for _, fan := range collector.fans {
		fanId := fan.GetId()
		ch <- prometheus.MustNewConstMetric(collector.level, prometheus.GaugeValue, fan.GetLastLevel(), fanId)
	}
}
