package node

import (
	"fmt"

	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/fw"
	"github.com/icn-epc/icn-epc/internal/role"
)

// NewAnchor 构建 anchor 节点：本地方向是来自各 edge 的 GTP-U 隧道，上游方向是外部出口。
func NewAnchor(cfg Config, backhaul Link, egress Link) (*Node, error) {
	if backhaul == nil || egress == nil {
		return nil, fmt.Errorf("anchor %s: backhaul and egress are required", cfg.Name)
	}
	n, err := newNode(cfg, role.KeyAnchor)
	if err != nil {
		return nil, err
	}

	upstream := fw.TransportFunc(func(raw []byte, _ face.Face) error {
		return egress.Send(raw)
	})
	if err := n.attach(cfg, n.tunnelTransport(backhaul), upstream); err != nil {
		return nil, err
	}

	n.receiveLocal = n.anchorReceiveLocal
	n.receiveUpstream = n.anchorReceiveUpstream
	return n, nil
}

func (n *Node) anchorReceiveLocal(raw []byte, _ face.FlowID) error {
	inner, flow, err := n.decapsulate(raw)
	if err != nil {
		return n.report("receive_local", fw.OutcomeDropped, err)
	}
	outcome, err := n.engine.OnInterest(inner, flow, face.Local)
	return n.report("receive_local", outcome, err)
}

func (n *Node) anchorReceiveUpstream(raw []byte) error {
	outcome, err := n.engine.OnData(raw, face.Upstream)
	return n.report("receive_upstream", outcome, err)
}
