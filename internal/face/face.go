// Package face 定义消息来源/去向的寻址原语：FlowID、方向与 Face 值类型。
package face

import (
	"fmt"
	"net/netip"
)

// Direction 标记 Face 是从哪一侧学习到的，决定回程时使用哪个 Transport。
type Direction uint8

const (
	// Local 对边缘节点是无线承载，对锚点节点是来自各边缘节点的隧道。
	Local Direction = iota
	// Upstream 对边缘节点是去往锚点的隧道，对锚点节点是外部出口。
	Upstream
)

func (d Direction) String() string {
	switch d {
	case Local:
		return "local"
	case Upstream:
		return "upstream"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}

// FlowID 标识一条本地流：UE 标识（RNTI）+ EPS 承载号。
type FlowID struct {
	UE     uint16
	Bearer uint8
}

func (f FlowID) String() string {
	return fmt.Sprintf("%d/%d", f.UE, f.Bearer)
}

// Face 是值类型；PIT 按值保存，不持有也不跟踪底层连接的存活状态。
// 所有字段都相同时两个 Face 才相等。
type Face struct {
	Flow      FlowID
	Addr      netip.Addr
	Port      uint16
	Direction Direction
}

// New 构造本地方向的 Face。
func New(flow FlowID, addr netip.Addr, port uint16) Face {
	return Face{Flow: flow, Addr: addr, Port: port, Direction: Local}
}

func (f Face) String() string {
	return fmt.Sprintf("%s[%s]@%s", f.Direction, f.Flow, netip.AddrPortFrom(f.Addr, f.Port))
}

// TunnelEndpoint 是隧道对端地址 + TEID，用于在回传链路上路由封装后的消息。
type TunnelEndpoint struct {
	Peer netip.Addr
	TEID uint32
}

func (e TunnelEndpoint) String() string {
	return fmt.Sprintf("%s#%d", e.Peer, e.TEID)
}
