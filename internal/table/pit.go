package table

import (
	"sort"

	"github.com/icn-epc/icn-epc/internal/ccn"
	"github.com/icn-epc/icn-epc/internal/face"
)

// InsertResult 告诉调用方 InsertFace 之后是否需要向上游转发。
type InsertResult int

const (
	// Created 表示新建了条目，调用方必须向上游转发 Interest。
	Created InsertResult = iota + 1
	// Merged 表示并入已有条目，调用方不得再次转发。
	Merged
)

func (r InsertResult) String() string {
	switch r {
	case Created:
		return "created"
	case Merged:
		return "merged"
	default:
		return "unknown"
	}
}

// PendingEntry 记录某个名称上等待应答的 Face，顺序即扇出顺序，不去重。
type PendingEntry struct {
	Name  ccn.Name
	Faces []face.Face
}

// PIT 是某名称“请求在途”的唯一记录。
type PIT struct {
	entries map[string]*PendingEntry
}

// NewPIT 构造空 PIT。
func NewPIT() *PIT {
	return &PIT{entries: make(map[string]*PendingEntry)}
}

// Lookup 返回条目副本。
func (p *PIT) Lookup(name ccn.Name) (PendingEntry, bool) {
	entry, ok := p.entries[name.Key()]
	if !ok {
		return PendingEntry{}, false
	}
	return copyEntry(entry), true
}

// InsertFace 在同一步内完成“查找-创建/追加”，转发决策只会在创建条目时做出一次，
// 因此每个名称至多只有一个上游 Interest 在途。
func (p *PIT) InsertFace(name ccn.Name, f face.Face) InsertResult {
	key := name.Key()
	if entry, ok := p.entries[key]; ok {
		entry.Faces = append(entry.Faces, f)
		return Merged
	}
	p.entries[key] = &PendingEntry{Name: name, Faces: []face.Face{f}}
	return Created
}

// TakeAndClear 删除条目并返回等待的 Face 列表；不存在时返回 false（非请求的 Data）。
func (p *PIT) TakeAndClear(name ccn.Name) ([]face.Face, bool) {
	key := name.Key()
	entry, ok := p.entries[key]
	if !ok {
		return nil, false
	}
	delete(p.entries, key)
	return entry.Faces, true
}

// Len 返回条目数。
func (p *PIT) Len() int {
	return len(p.entries)
}

// Entries 返回按名称排序的条目副本。
func (p *PIT) Entries() []PendingEntry {
	keys := make([]string, 0, len(p.entries))
	for key := range p.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make([]PendingEntry, len(keys))
	for i, key := range keys {
		out[i] = copyEntry(p.entries[key])
	}
	return out
}

func copyEntry(entry *PendingEntry) PendingEntry {
	return PendingEntry{
		Name:  entry.Name,
		Faces: append([]face.Face(nil), entry.Faces...),
	}
}
