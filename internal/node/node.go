// Package node 把转发引擎装配成 edge 与 anchor 两种节点。
//
// 节点的所有方法都必须在事件循环内调用（或在循环启动之前），节点自身不加锁。
package node

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/fw"
	"github.com/icn-epc/icn-epc/internal/logging"
	"github.com/icn-epc/icn-epc/internal/role"
	"github.com/icn-epc/icn-epc/internal/table"
	"github.com/icn-epc/icn-epc/internal/wire"
)

// Radio 按承载把下行报文投递给终端。
type Radio interface {
	Deliver(flow face.FlowID, raw []byte) error
}

// Link 发送一份完整报文，回传网络按外层目的地址路由。
type Link interface {
	Send(raw []byte) error
}

// LinkFunc 允许直接使用函数作为 Link。
type LinkFunc func(raw []byte) error

// Send 实现 Link。
func (f LinkFunc) Send(raw []byte) error {
	return f(raw)
}

// Config 是构建节点所需的参数。
type Config struct {
	Name        string
	Address     netip.Addr
	Strategy    role.CacheStrategyProfile
	Passthrough fw.Predicate
	GTPUPort    uint16
	Logger      *logrus.Logger
	Metrics     *fw.Metrics
}

// Node 是一个 edge 或 anchor 实例，独占自己的 CS/PIT/绑定表。
type Node struct {
	name     string
	role     role.Metadata
	instance string
	addr     netip.Addr
	gtpuPort uint16

	state  *fw.State
	engine *fw.Engine
	logger *logrus.Entry

	receiveLocal    func(raw []byte, flow face.FlowID) error
	receiveUpstream func(raw []byte) error
}

func newNode(cfg Config, roleKey string) (*Node, error) {
	if cfg.Name == "" {
		return nil, errors.New("node name is required")
	}
	if !cfg.Address.Is4() {
		return nil, fmt.Errorf("node %s: ipv4 address required, got %s", cfg.Name, cfg.Address)
	}
	meta, ok := role.Resolve(roleKey)
	if !ok {
		return nil, fmt.Errorf("role %s not registered", roleKey)
	}
	policy, err := evictionPolicy(cfg.Strategy)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", cfg.Name, err)
	}
	port := cfg.GTPUPort
	if port == 0 {
		port = wire.GTPUPort
	}
	instance := uuid.NewString()
	return &Node{
		name:     cfg.Name,
		role:     meta,
		instance: instance,
		addr:     cfg.Address,
		gtpuPort: port,
		state:    fw.NewState(policy),
		logger:   logging.ForNode(cfg.Logger, cfg.Name, meta.Key, instance),
	}, nil
}

func (n *Node) attach(cfg Config, local, upstream fw.Transport) error {
	engine, err := fw.NewEngine(n.state, fw.Options{
		Local:       local,
		Upstream:    upstream,
		Passthrough: cfg.Passthrough,
		Logger:      n.logger,
		Metrics:     cfg.Metrics.ForNode(n.name),
	})
	if err != nil {
		return fmt.Errorf("node %s: %w", n.name, err)
	}
	n.engine = engine
	return nil
}

func evictionPolicy(strategy role.CacheStrategyProfile) (table.EvictionPolicy, error) {
	switch strategy.Policy {
	case "", role.CachePolicyUnbounded:
		return nil, nil
	case role.CachePolicyLRU:
		return table.NewLRU(strategy.Capacity)
	default:
		return nil, fmt.Errorf("unsupported cache policy %q", strategy.Policy)
	}
}

// Name 返回节点名称。
func (n *Node) Name() string { return n.name }

// Role 返回角色元数据。
func (n *Node) Role() role.Metadata { return n.role }

// Address 返回节点的回传网络地址。
func (n *Node) Address() netip.Addr { return n.addr }

// Instance 返回本次运行的实例 ID。
func (n *Node) Instance() string { return n.instance }

// State 返回节点独占的转发状态。
func (n *Node) State() *fw.State { return n.state }

// ReceiveLocal 处理本地方向到达的报文。edge 上 flow 是无线承载标签；
// anchor 上报文是 GTP-U 隧道，flow 由 TEID 反查得到，参数被忽略。
// 处理失败只记录日志与指标，不回传给投递方。
func (n *Node) ReceiveLocal(raw []byte, flow face.FlowID) {
	_ = n.receiveLocal(raw, flow)
}

// ReceiveUpstream 处理上游方向到达的报文，失败同样只在节点内部记录。
func (n *Node) ReceiveUpstream(raw []byte) {
	_ = n.receiveUpstream(raw)
}

// Bind 安装或替换一条会话绑定。
func (n *Node) Bind(flow face.FlowID, ep face.TunnelEndpoint) {
	n.state.Bindings.Bind(flow, ep)
	n.logger.WithFields(logrus.Fields{
		"action":   "bind",
		"flow":     flow.String(),
		"endpoint": ep.String(),
	}).Info("session binding installed")
}

// Unbind 删除一条会话绑定，返回是否存在。
func (n *Node) Unbind(flow face.FlowID) bool {
	removed := n.state.Bindings.Unbind(flow)
	n.logger.WithFields(logrus.Fields{
		"action":  "unbind",
		"flow":    flow.String(),
		"removed": removed,
	}).Info("session binding removed")
	return removed
}

// UnbindUE 删除某个 UE 的全部承载绑定，返回删除数量。
func (n *Node) UnbindUE(ue uint16) int {
	removed := n.state.Bindings.UnbindUE(ue)
	n.logger.WithFields(logrus.Fields{
		"action":  "unbind_ue",
		"ue":      ue,
		"removed": removed,
	}).Info("session bindings removed")
	return removed
}

// tunnelTransport 把内层报文封装后发往绑定的隧道端点。
func (n *Node) tunnelTransport(link Link) fw.Transport {
	return fw.TransportFunc(func(raw []byte, dst face.Face) error {
		ep, ok := n.state.Bindings.ResolveEndpoint(dst.Flow)
		if !ok {
			return fmt.Errorf("%w: no tunnel for flow %s", fw.ErrUnknownDestination, dst.Flow)
		}
		out, err := wire.Encapsulate(n.addr, ep, n.gtpuPort, raw)
		if err != nil {
			return err
		}
		return link.Send(out)
	})
}

// decapsulate 剥离隧道头并反查本地流，失败的报文按控制/背景流量处理。
func (n *Node) decapsulate(raw []byte) ([]byte, face.FlowID, error) {
	frame, err := wire.Decapsulate(raw)
	if err != nil {
		if errors.Is(err, wire.ErrNotGPDU) {
			return nil, face.FlowID{}, fmt.Errorf("%w: control message from %s", fw.ErrUnresolvedFace, frame.Source)
		}
		return nil, face.FlowID{}, fmt.Errorf("%w: %w", fw.ErrMalformedMessage, err)
	}
	flow, ok := n.state.Bindings.ResolveFlow(frame.Source)
	if !ok {
		return nil, face.FlowID{}, fmt.Errorf("%w: no flow for %s", fw.ErrUnresolvedFace, frame.Source)
	}
	return frame.Inner, flow, nil
}

func (n *Node) report(kind string, outcome fw.Outcome, err error) error {
	entry := n.logger.WithFields(logrus.Fields{"action": kind, "outcome": string(outcome)})
	switch {
	case err == nil:
	case errors.Is(err, fw.ErrUnresolvedFace):
		entry.WithError(err).Info("drop control or background traffic")
	case errors.Is(err, fw.ErrUnsolicitedData):
		entry.WithError(err).Info("drop unsolicited data")
	default:
		entry.WithError(err).Warn("packet handling failed")
	}
	return err
}
