package fw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/icn-epc/icn-epc/internal/face"
)

// Metrics 汇总所有节点的转发指标，节点以 node 标签区分。
type Metrics struct {
	InterestsTotal *prometheus.CounterVec
	DataTotal      *prometheus.CounterVec
	TransmitsTotal *prometheus.CounterVec
	CSEntries      *prometheus.GaugeVec
	PITEntries     *prometheus.GaugeVec
}

// NewMetrics 创建指标并注册到 reg。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		InterestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icn_fw_interests_total",
				Help: "Number of interests processed, by outcome.",
			},
			[]string{"node", "outcome"},
		),
		DataTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icn_fw_data_total",
				Help: "Number of data messages processed, by outcome.",
			},
			[]string{"node", "outcome"},
		),
		TransmitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "icn_fw_transmits_total",
				Help: "Number of packets handed to a transport, by direction and result.",
			},
			[]string{"node", "direction", "result"},
		),
		CSEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "icn_fw_cs_entries",
				Help: "Number of content store entries.",
			},
			[]string{"node"},
		),
		PITEntries: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "icn_fw_pit_entries",
				Help: "Number of pending interest entries.",
			},
			[]string{"node"},
		),
	}
}

// NodeMetrics 是绑定到单个节点的指标视图，nil 值可安全使用。
type NodeMetrics struct {
	node string
	m    *Metrics
}

// ForNode 返回绑定了 node 标签的视图。
func (m *Metrics) ForNode(node string) *NodeMetrics {
	if m == nil {
		return nil
	}
	return &NodeMetrics{node: node, m: m}
}

func (n *NodeMetrics) interest(o Outcome) {
	if n == nil {
		return
	}
	n.m.InterestsTotal.WithLabelValues(n.node, string(o)).Inc()
}

func (n *NodeMetrics) data(o Outcome) {
	if n == nil {
		return
	}
	n.m.DataTotal.WithLabelValues(n.node, string(o)).Inc()
}

func (n *NodeMetrics) transmit(dir face.Direction, err error) {
	if n == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	n.m.TransmitsTotal.WithLabelValues(n.node, dir.String(), result).Inc()
}

func (n *NodeMetrics) tables(s *State) {
	if n == nil {
		return
	}
	n.m.CSEntries.WithLabelValues(n.node).Set(float64(s.CS.Len()))
	n.m.PITEntries.WithLabelValues(n.node).Set(float64(s.PIT.Len()))
}
