package sim

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/sirupsen/logrus"

	"github.com/icn-epc/icn-epc/internal/eventloop"
	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/fw"
	"github.com/icn-epc/icn-epc/internal/logging"
	"github.com/icn-epc/icn-epc/internal/node"
	"github.com/icn-epc/icn-epc/internal/wire"
)

// ErrNoRoute 表示回传网络上没有目的地址对应的节点。
var ErrNoRoute = errors.New("no route to backhaul address")

// Host 是挂在承载或出口上的终端。
type Host interface {
	Receive(raw []byte)
}

// Network 按外层目的地址在回传网络上路由，按 FlowID 在无线侧投递，按内层目的地址在出口投递。
type Network struct {
	loop   *eventloop.Loop
	logger *logrus.Entry

	backhaul map[netip.Addr]func(raw []byte)
	radios   map[string]*Radio
	egress   map[netip.Addr]Host
	ingress  func(raw []byte)
	metrics  *Metrics
}

// NewNetwork 创建空网络，metrics 为 nil 时使用未注册的指标。
func NewNetwork(loop *eventloop.Loop, logger *logrus.Logger, metrics *Metrics) *Network {
	if logger == nil {
		logger = logging.Discard()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Network{
		loop:     loop,
		logger:   logger.WithField("component", "network"),
		backhaul: make(map[netip.Addr]func(raw []byte)),
		radios:   make(map[string]*Radio),
		egress:   make(map[netip.Addr]Host),
		metrics:  metrics,
	}
}

// AttachAnchor 把 anchor 挂到回传网络与出口：隧道报文进入本地方向，出口回程进入上游方向。
func (n *Network) AttachAnchor(anchor *node.Node) {
	n.backhaul[anchor.Address()] = func(raw []byte) {
		anchor.ReceiveLocal(raw, face.FlowID{})
	}
	n.ingress = func(raw []byte) {
		anchor.ReceiveUpstream(raw)
	}
}

// AttachEdge 把 edge 挂到回传网络：来自 anchor 的隧道报文进入上游方向。
func (n *Network) AttachEdge(edge *node.Node) {
	n.backhaul[edge.Address()] = func(raw []byte) {
		edge.ReceiveUpstream(raw)
	}
}

// AttachOrigin 把主机挂到出口的 addr 上。
func (n *Network) AttachOrigin(addr netip.Addr, host Host) {
	n.egress[addr] = host
}

// Radio 返回 edge 对应的无线侧，首次调用时创建。
func (n *Network) Radio(edge string) *Radio {
	r, ok := n.radios[edge]
	if !ok {
		r = &Radio{network: n, edge: edge, hosts: make(map[face.FlowID]Host)}
		n.radios[edge] = r
	}
	return r
}

// Backhaul 返回节点发送隧道报文使用的链路。
func (n *Network) Backhaul() node.Link {
	return node.LinkFunc(func(raw []byte) error {
		outer, err := wire.Parse(raw)
		if err != nil {
			return fmt.Errorf("backhaul: %w", err)
		}
		deliver, ok := n.backhaul[outer.Header.Dst]
		if !ok {
			n.metrics.UnroutedTotal.Inc()
			return fmt.Errorf("%w: %s", ErrNoRoute, outer.Header.Dst)
		}
		n.loop.Post(func() { deliver(raw) })
		return nil
	})
}

// Egress 返回 anchor 上游方向使用的链路。没有挂主机的目的地址视为背景流量，被计数后丢弃。
func (n *Network) Egress() node.Link {
	return node.LinkFunc(func(raw []byte) error {
		pkt, err := wire.Parse(raw)
		if err != nil {
			return fmt.Errorf("egress: %w", err)
		}
		host, ok := n.egress[pkt.Header.Dst]
		if !ok {
			n.metrics.BackgroundTotal.Inc()
			n.logger.WithFields(logrus.Fields{
				"action": "background_sink",
				"dst":    pkt.Header.Dst.String(),
			}).Debug("egress packet has no host")
			return nil
		}
		n.loop.Post(func() { host.Receive(raw) })
		return nil
	})
}

// Ingress 把出口侧回程报文送回 anchor。
func (n *Network) Ingress(raw []byte) error {
	if n.ingress == nil {
		return errors.New("ingress: no anchor attached")
	}
	deliver := n.ingress
	n.loop.Post(func() { deliver(raw) })
	return nil
}

// Radio 是一个 edge 的无线侧，按 FlowID 把下行报文交给终端。
type Radio struct {
	network *Network
	edge    string
	hosts   map[face.FlowID]Host
}

// Attach 把终端挂到承载上。
func (r *Radio) Attach(flow face.FlowID, host Host) {
	r.hosts[flow] = host
}

// Deliver 实现 node.Radio。
func (r *Radio) Deliver(flow face.FlowID, raw []byte) error {
	host, ok := r.hosts[flow]
	if !ok {
		return fmt.Errorf("%w: no bearer %s on %s", fw.ErrUnknownDestination, flow, r.edge)
	}
	r.network.loop.Post(func() { host.Receive(raw) })
	return nil
}

// Uplink 把终端发出的报文带着承载标签送进 edge。
func (r *Radio) Uplink(edge *node.Node, flow face.FlowID, raw []byte) {
	r.network.loop.Post(func() { edge.ReceiveLocal(raw, flow) })
}
