package table

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// EvictionPolicy 观察 CS 的插入/刷新/使用/删除事件，并在每次写入后给出需要淘汰的键。
type EvictionPolicy interface {
	// AfterInsert 在新名称写入后调用。
	AfterInsert(key string)
	// AfterRefresh 在已有名称被新内容替换后调用。
	AfterRefresh(key string)
	// BeforeUse 在命中条目被用于应答 Interest 前调用。
	BeforeUse(key string)
	// BeforeErase 在条目被显式删除前调用。
	BeforeErase(key string)
	// Evict 返回需要立即淘汰的键。
	Evict() []string
}

// Unbounded 从不淘汰任何条目。
type Unbounded struct{}

func (Unbounded) AfterInsert(string)  {}
func (Unbounded) AfterRefresh(string) {}
func (Unbounded) BeforeUse(string)    {}
func (Unbounded) BeforeErase(string)  {}
func (Unbounded) Evict() []string     { return nil }

// LRU 按最近使用顺序把 CS 限制在固定容量内。
type LRU struct {
	order   *simplelru.LRU[string, struct{}]
	pending []string
	erasing bool
}

// NewLRU 构造容量为 capacity 的 LRU 策略。
func NewLRU(capacity int) (*LRU, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("lru capacity must be positive, got %d", capacity)
	}
	p := &LRU{}
	order, err := simplelru.NewLRU[string, struct{}](capacity, func(key string, _ struct{}) {
		if !p.erasing {
			p.pending = append(p.pending, key)
		}
	})
	if err != nil {
		return nil, err
	}
	p.order = order
	return p, nil
}

func (p *LRU) AfterInsert(key string) {
	p.order.Add(key, struct{}{})
}

func (p *LRU) AfterRefresh(key string) {
	p.order.Add(key, struct{}{})
}

func (p *LRU) BeforeUse(key string) {
	p.order.Get(key)
}

func (p *LRU) BeforeErase(key string) {
	p.erasing = true
	p.order.Remove(key)
	p.erasing = false
}

func (p *LRU) Evict() []string {
	victims := p.pending
	p.pending = nil
	return victims
}
