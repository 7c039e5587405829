package fw

import (
	"net/netip"

	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/wire"
)

// Transport 把一份完整的内层报文发往指定 Face，发送是 fire-and-forget 的。
type Transport interface {
	Transmit(raw []byte, dst face.Face) error
}

// TransportFunc 允许直接使用函数作为 Transport。
type TransportFunc func(raw []byte, dst face.Face) error

// Transmit 实现 Transport。
func (f TransportFunc) Transmit(raw []byte, dst face.Face) error {
	return f(raw, dst)
}

// Predicate 判断一条报文是否属于不参与缓存的透传流量。
type Predicate func(h wire.HeaderTemplate) bool

// PassthroughTo 返回按目的地址匹配的透传判定。
func PassthroughTo(addrs ...netip.Addr) Predicate {
	set := make(map[netip.Addr]struct{}, len(addrs))
	for _, addr := range addrs {
		set[addr.Unmap()] = struct{}{}
	}
	return func(h wire.HeaderTemplate) bool {
		_, ok := set[h.Dst]
		return ok
	}
}
