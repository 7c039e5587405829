package role

import "testing"

func TestBuiltinRolesRegistered(t *testing.T) {
	edge, ok := Resolve("Edge")
	if !ok {
		t.Fatalf("edge 角色应已注册")
	}
	if edge.Local != TransportRadio || edge.Upstream != TransportTunnel {
		t.Fatalf("edge 方向不符: %+v", edge)
	}
	anchor, ok := Resolve(" anchor ")
	if !ok {
		t.Fatalf("anchor 角色应已注册")
	}
	if anchor.Local != TransportTunnel || anchor.Upstream != TransportEgress {
		t.Fatalf("anchor 方向不符: %+v", anchor)
	}
	if anchor.CacheStrategy.Policy != CachePolicyUnbounded {
		t.Fatalf("默认策略应为 unbounded，得到 %s", anchor.CacheStrategy.Policy)
	}
}

func TestRegisterRejectsDuplicate(t *testing.T) {
	r := newRegistry()
	if err := r.register(Metadata{Key: "x"}); err != nil {
		t.Fatalf("首次注册失败: %v", err)
	}
	if err := r.register(Metadata{Key: "X"}); err == nil {
		t.Fatalf("重复注册应失败")
	}
	if err := r.register(Metadata{}); err == nil {
		t.Fatalf("空键应失败")
	}
}

func TestListSorted(t *testing.T) {
	list := List()
	if len(list) < 2 || list[0].Key != KeyAnchor || list[1].Key != KeyEdge {
		t.Fatalf("列表应按键排序: %+v", list)
	}
}
