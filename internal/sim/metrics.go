package sim

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 记录投递基底与内容源的计数。
type Metrics struct {
	BackgroundTotal prometheus.Counter
	UnroutedTotal   prometheus.Counter
	OriginTotal     *prometheus.CounterVec
}

// NewMetrics 创建指标并注册到 reg；reg 为 nil 时只创建不注册。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BackgroundTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "icn_sim_background_packets_total",
			Help: "Number of egress packets with no attached host.",
		}),
		UnroutedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "icn_sim_unrouted_packets_total",
			Help: "Number of backhaul packets whose outer destination has no node.",
		}),
		OriginTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icn_sim_origin_requests_total",
				Help: "Number of packets handled by the content origin, by result.",
			},
			[]string{"result"},
		),
	}
}

func (m *Metrics) originServed() prometheus.Counter {
	return m.OriginTotal.WithLabelValues("served")
}

func (m *Metrics) originDropped() prometheus.Counter {
	return m.OriginTotal.WithLabelValues("dropped")
}
