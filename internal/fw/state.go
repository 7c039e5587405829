package fw

import "github.com/icn-epc/icn-epc/internal/table"

// State 聚合单个节点独占的转发状态，不与其他节点共享。
type State struct {
	CS       *table.ContentStore
	PIT      *table.PIT
	Bindings *table.TunnelBindings
}

// NewState 创建空状态，policy 为 nil 时 CS 不做淘汰。
func NewState(policy table.EvictionPolicy) *State {
	return &State{
		CS:       table.NewContentStore(policy),
		PIT:      table.NewPIT(),
		Bindings: table.NewTunnelBindings(),
	}
}
