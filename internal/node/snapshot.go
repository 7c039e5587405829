package node

// Snapshot 是节点状态的只读视图，供状态接口输出。
type Snapshot struct {
	Name     string        `json:"name"`
	Role     string        `json:"role"`
	Instance string        `json:"instance"`
	Address  string        `json:"address"`
	CS       []CSItem      `json:"cs"`
	PIT      []PITItem     `json:"pit"`
	Bindings []BindingItem `json:"bindings"`
}

// CSItem 描述一条缓存内容。
type CSItem struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

// PITItem 描述一条待决请求及其等待的 Face。
type PITItem struct {
	Name  string   `json:"name"`
	Faces []string `json:"faces"`
}

// BindingItem 描述一条会话绑定。
type BindingItem struct {
	UE     uint16 `json:"ue"`
	Bearer uint8  `json:"bearer"`
	Peer   string `json:"peer"`
	TEID   uint32 `json:"teid"`
}

// Snapshot 采集当前状态，必须在事件循环内调用。
func (n *Node) Snapshot() Snapshot {
	snap := Snapshot{
		Name:     n.name,
		Role:     n.role.Key,
		Instance: n.instance,
		Address:  n.addr.String(),
		CS:       []CSItem{},
		PIT:      []PITItem{},
		Bindings: []BindingItem{},
	}
	for _, entry := range n.state.CS.Entries() {
		snap.CS = append(snap.CS, CSItem{Name: entry.Name.String(), Size: len(entry.Payload)})
	}
	for _, entry := range n.state.PIT.Entries() {
		faces := make([]string, 0, len(entry.Faces))
		for _, f := range entry.Faces {
			faces = append(faces, f.String())
		}
		snap.PIT = append(snap.PIT, PITItem{Name: entry.Name.String(), Faces: faces})
	}
	for _, b := range n.state.Bindings.List() {
		snap.Bindings = append(snap.Bindings, BindingItem{
			UE:     b.Flow.UE,
			Bearer: b.Flow.Bearer,
			Peer:   b.Endpoint.Peer.String(),
			TEID:   b.Endpoint.TEID,
		})
	}
	return snap
}
