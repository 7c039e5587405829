package sim

import (
	"context"
	"fmt"
	"net/netip"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/icn-epc/icn-epc/internal/ccn"
	"github.com/icn-epc/icn-epc/internal/config"
	"github.com/icn-epc/icn-epc/internal/eventloop"
	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/fw"
	"github.com/icn-epc/icn-epc/internal/node"
	"github.com/icn-epc/icn-epc/internal/repo"
	"github.com/icn-epc/icn-epc/internal/role"
)

// Deps 是装配拓扑所需的外部依赖。
type Deps struct {
	Loop       *eventloop.Loop
	Logger     *logrus.Logger
	Metrics    *fw.Metrics
	SimMetrics *Metrics
	Store      repo.Store
}

// Topology 是按配置装配好的一组节点与终端。
type Topology struct {
	Network   *Network
	Anchor    *node.Node
	Edges     []*node.Node
	Origin    *Origin
	Consumers []*Consumer
	Metrics   *Metrics

	byName map[string]*node.Node
}

// Build 按配置创建 anchor、edge、会话绑定、内容源与终端（假定配置已校验）。
func Build(cfg *config.Config, deps Deps) (*Topology, error) {
	if deps.Loop == nil {
		return nil, fmt.Errorf("sim: event loop is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("sim: repo store is required")
	}
	runtimes, err := cfg.Runtimes()
	if err != nil {
		return nil, err
	}

	simMetrics := deps.SimMetrics
	if simMetrics == nil {
		simMetrics = NewMetrics(nil)
	}
	network := NewNetwork(deps.Loop, deps.Logger, simMetrics)
	topo := &Topology{Network: network, Metrics: simMetrics, byName: make(map[string]*node.Node)}
	passthrough := fw.PassthroughTo(cfg.Global.Passthrough()...)

	for _, rt := range runtimes {
		nodeCfg := node.Config{
			Name:        rt.Config.Name,
			Address:     rt.Config.Addr(),
			Strategy:    rt.CacheStrategy,
			Passthrough: passthrough,
			GTPUPort:    uint16(cfg.Global.GTPUPort),
			Logger:      deps.Logger,
			Metrics:     deps.Metrics,
		}
		var n *node.Node
		if rt.Role.Key == role.KeyAnchor {
			n, err = node.NewAnchor(nodeCfg, network.Backhaul(), network.Egress())
			if err == nil {
				network.AttachAnchor(n)
				topo.Anchor = n
			}
		} else {
			n, err = node.NewEdge(nodeCfg, network.Radio(rt.Config.Name), network.Backhaul())
			if err == nil {
				network.AttachEdge(n)
				topo.Edges = append(topo.Edges, n)
			}
		}
		if err != nil {
			return nil, err
		}
		topo.byName[n.Name()] = n
	}

	for _, b := range cfg.Bearers {
		edgeCfg, _ := cfg.EdgeByName(b.Edge)
		edge := topo.byName[b.Edge]
		teid := uint32(b.TEID)
		edge.Bind(b.Flow(), face.TunnelEndpoint{Peer: cfg.Anchor.Addr(), TEID: teid})
		topo.Anchor.Bind(b.Flow(), face.TunnelEndpoint{Peer: edgeCfg.Addr(), TEID: teid})
	}

	provider, err := repo.NewProvider(deps.Store, cfg.Anchor.Name, cfg.Global.PayloadSize)
	if err != nil {
		return nil, err
	}
	topo.Origin = NewOrigin(cfg.Global.Origin(), provider, network.Ingress, deps.Logger, simMetrics)
	network.AttachOrigin(cfg.Global.Origin().Addr(), topo.Origin)

	for _, cc := range cfg.Consumers {
		b := cfg.Bearers[cc.Bearer]
		prefix, err := ccn.ParseName(cc.Prefix)
		if err != nil {
			return nil, err
		}
		c := NewConsumer(ConsumerConfig{
			Flow:     b.Flow(),
			Addr:     netipAddrPort(b, cc.Port),
			Origin:   cfg.Global.Origin(),
			Prefix:   prefix,
			Count:    cc.Count,
			StartSeq: uint64(cc.StartSeq),
			Interval: cc.Interval.DurationValue(),
		}, topo.byName[b.Edge], network.Radio(b.Edge), deps.Logger)
		topo.Consumers = append(topo.Consumers, c)
	}
	return topo, nil
}

// Node 按名称查找节点。
func (t *Topology) Node(name string) (*node.Node, bool) {
	n, ok := t.byName[name]
	return n, ok
}

// Nodes 返回 anchor 在前、edge 按配置顺序的节点列表。
func (t *Topology) Nodes() []*node.Node {
	result := make([]*node.Node, 0, len(t.Edges)+1)
	result = append(result, t.Anchor)
	return append(result, t.Edges...)
}

// StartConsumers 为每个终端启动一个发送 goroutine，返回的函数等待它们全部退出。
func (t *Topology) StartConsumers(ctx context.Context) (wait func()) {
	var wg sync.WaitGroup
	for _, c := range t.Consumers {
		wg.Add(1)
		go func(c *Consumer) {
			defer wg.Done()
			c.Run(ctx)
		}(c)
	}
	return wg.Wait
}

// ConsumerStats 返回所有终端的统计。
func (t *Topology) ConsumerStats() []ConsumerStats {
	result := make([]ConsumerStats, 0, len(t.Consumers))
	for _, c := range t.Consumers {
		result = append(result, c.Stats())
	}
	return result
}

func netipAddrPort(b config.BearerConfig, port int) netip.AddrPort {
	return netip.AddrPortFrom(b.Addr(), uint16(port))
}
