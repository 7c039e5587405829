package node

import (
	"fmt"

	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/fw"
	"github.com/icn-epc/icn-epc/internal/role"
)

// NewEdge 构建 edge 节点：本地方向是无线承载，上游方向是去往 anchor 的 GTP-U 隧道。
func NewEdge(cfg Config, radio Radio, backhaul Link) (*Node, error) {
	if radio == nil || backhaul == nil {
		return nil, fmt.Errorf("edge %s: radio and backhaul are required", cfg.Name)
	}
	n, err := newNode(cfg, role.KeyEdge)
	if err != nil {
		return nil, err
	}

	local := fw.TransportFunc(func(raw []byte, dst face.Face) error {
		return radio.Deliver(dst.Flow, raw)
	})
	if err := n.attach(cfg, local, n.tunnelTransport(backhaul)); err != nil {
		return nil, err
	}

	n.receiveLocal = n.edgeReceiveLocal
	n.receiveUpstream = n.edgeReceiveUpstream
	return n, nil
}

func (n *Node) edgeReceiveLocal(raw []byte, flow face.FlowID) error {
	// 没有 UE 上下文的承载不进入引擎。
	if _, ok := n.state.Bindings.ResolveEndpoint(flow); !ok {
		return n.report("receive_local", fw.OutcomeDropped,
			fmt.Errorf("%w: flow %s has no session", fw.ErrUnresolvedFace, flow))
	}
	outcome, err := n.engine.OnInterest(raw, flow, face.Local)
	return n.report("receive_local", outcome, err)
}

func (n *Node) edgeReceiveUpstream(raw []byte) error {
	inner, _, err := n.decapsulate(raw)
	if err != nil {
		return n.report("receive_upstream", fw.OutcomeDropped, err)
	}
	outcome, err := n.engine.OnData(inner, face.Upstream)
	return n.report("receive_upstream", outcome, err)
}
