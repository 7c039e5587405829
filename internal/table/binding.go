package table

import (
	"sort"

	"github.com/icn-epc/icn-epc/internal/face"
)

// Binding 是一条本地流与隧道端点之间的映射。
type Binding struct {
	Flow     face.FlowID
	Endpoint face.TunnelEndpoint
}

// TunnelBindings 维护 FlowID <-> TunnelEndpoint 的双向映射。
// 只有会话管理方调用 Bind/Unbind，转发引擎只读。
type TunnelBindings struct {
	byFlow     map[face.FlowID]face.TunnelEndpoint
	byEndpoint map[face.TunnelEndpoint]face.FlowID
}

// NewTunnelBindings 构造空绑定表。
func NewTunnelBindings() *TunnelBindings {
	return &TunnelBindings{
		byFlow:     make(map[face.FlowID]face.TunnelEndpoint),
		byEndpoint: make(map[face.TunnelEndpoint]face.FlowID),
	}
}

// Bind 建立映射。流或端点已有旧映射时，旧映射的两个方向都会被替换。
func (b *TunnelBindings) Bind(flow face.FlowID, ep face.TunnelEndpoint) {
	if old, ok := b.byFlow[flow]; ok {
		delete(b.byEndpoint, old)
	}
	if other, ok := b.byEndpoint[ep]; ok {
		delete(b.byFlow, other)
	}
	b.byFlow[flow] = ep
	b.byEndpoint[ep] = flow
}

// Unbind 删除流的映射，返回是否存在。
func (b *TunnelBindings) Unbind(flow face.FlowID) bool {
	ep, ok := b.byFlow[flow]
	if !ok {
		return false
	}
	delete(b.byFlow, flow)
	delete(b.byEndpoint, ep)
	return true
}

// UnbindUE 删除某个 UE 的全部承载映射（UE 上下文释放），返回删除条数。
func (b *TunnelBindings) UnbindUE(ue uint16) int {
	removed := 0
	for flow := range b.byFlow {
		if flow.UE == ue {
			b.Unbind(flow)
			removed++
		}
	}
	return removed
}

// ResolveEndpoint 按本地流查隧道端点。
func (b *TunnelBindings) ResolveEndpoint(flow face.FlowID) (face.TunnelEndpoint, bool) {
	ep, ok := b.byFlow[flow]
	return ep, ok
}

// ResolveFlow 按隧道端点反查本地流。
func (b *TunnelBindings) ResolveFlow(ep face.TunnelEndpoint) (face.FlowID, bool) {
	flow, ok := b.byEndpoint[ep]
	return flow, ok
}

// Len 返回映射条数。
func (b *TunnelBindings) Len() int {
	return len(b.byFlow)
}

// List 返回按 FlowID 排序的映射列表。
func (b *TunnelBindings) List() []Binding {
	out := make([]Binding, 0, len(b.byFlow))
	for flow, ep := range b.byFlow {
		out = append(out, Binding{Flow: flow, Endpoint: ep})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Flow.UE != out[j].Flow.UE {
			return out[i].Flow.UE < out[j].Flow.UE
		}
		return out[i].Flow.Bearer < out[j].Flow.Bearer
	})
	return out
}
