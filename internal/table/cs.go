package table

import (
	"sort"

	"github.com/icn-epc/icn-epc/internal/ccn"
	"github.com/icn-epc/icn-epc/internal/wire"
)

// Entry 是 CS 中某个名称的唯一条目。
type Entry struct {
	Name    ccn.Name
	Payload []byte
	Reply   wire.HeaderTemplate
}

// ContentStore 每个名称至多一个条目，新到达的内容无条件替换旧条目。
// 默认不淘汰、无限增长；容量控制通过注入 EvictionPolicy 实现。
type ContentStore struct {
	entries map[string]Entry
	policy  EvictionPolicy
}

// NewContentStore 构造 CS，policy 为 nil 时使用 Unbounded。
func NewContentStore(policy EvictionPolicy) *ContentStore {
	if policy == nil {
		policy = Unbounded{}
	}
	return &ContentStore{
		entries: make(map[string]Entry),
		policy:  policy,
	}
}

// Lookup 按名称精确查找。
func (cs *ContentStore) Lookup(name ccn.Name) (Entry, bool) {
	key := name.Key()
	entry, ok := cs.entries[key]
	if ok {
		cs.policy.BeforeUse(key)
	}
	return entry, ok
}

// Put 写入条目，同名条目被整体替换（不合并、不保留版本）。
func (cs *ContentStore) Put(entry Entry) {
	key := entry.Name.Key()
	_, existed := cs.entries[key]
	cs.entries[key] = entry
	if existed {
		cs.policy.AfterRefresh(key)
	} else {
		cs.policy.AfterInsert(key)
	}
	for _, victim := range cs.policy.Evict() {
		delete(cs.entries, victim)
	}
}

// Erase 删除条目，返回是否存在。
func (cs *ContentStore) Erase(name ccn.Name) bool {
	key := name.Key()
	if _, ok := cs.entries[key]; !ok {
		return false
	}
	cs.policy.BeforeErase(key)
	delete(cs.entries, key)
	return true
}

// Len 返回条目数。
func (cs *ContentStore) Len() int {
	return len(cs.entries)
}

// Names 返回按规范键排序的名称列表，供状态接口使用。
func (cs *ContentStore) Names() []ccn.Name {
	keys := make([]string, 0, len(cs.entries))
	for key := range cs.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	names := make([]ccn.Name, len(keys))
	for i, key := range keys {
		names[i] = cs.entries[key].Name
	}
	return names
}

// Entries 返回按规范键排序的条目副本，不影响淘汰策略的使用记录。
func (cs *ContentStore) Entries() []Entry {
	names := cs.Names()
	result := make([]Entry, len(names))
	for i, name := range names {
		result[i] = cs.entries[name.Key()]
	}
	return result
}
