package server

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/icn-epc/icn-epc/internal/config"
	"github.com/icn-epc/icn-epc/internal/node"
	"github.com/icn-epc/icn-epc/internal/role"
)

// Executor 把闭包投递到事件循环并等待其完成。
type Executor interface {
	Call(ctx context.Context, fn func()) error
}

// NodeRoute 将节点配置与派生属性（角色、生效的缓存策略）聚合在一起，供路由层直接复用。
type NodeRoute struct {
	// Config 是 config.toml 中声明的节点字段副本。
	Config config.NodeConfig
	// Role 是节点的角色元数据。
	Role role.Metadata
	// CacheStrategy 代表角色默认策略与全局/节点覆盖后的最终结果。
	CacheStrategy role.CacheStrategyProfile
	// Node 是正在运行的节点，只能通过 Executor 访问。
	Node *node.Node
}

// NodeLookup 按名称返回运行中的节点。
type NodeLookup func(name string) (*node.Node, bool)

// NodeRegistry 提供节点名称到 NodeRoute 的查询能力。
type NodeRegistry struct {
	routes  map[string]*NodeRoute
	ordered []*NodeRoute
}

// NewNodeRegistry 根据配置与运行中的节点构建注册表。调用方应在启动阶段创建一次并复用。
func NewNodeRegistry(cfg *config.Config, lookup NodeLookup) (*NodeRegistry, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if lookup == nil {
		return nil, errors.New("node lookup is nil")
	}

	runtimes, err := cfg.Runtimes()
	if err != nil {
		return nil, err
	}

	registry := &NodeRegistry{
		routes: make(map[string]*NodeRoute, len(runtimes)),
	}
	for _, rt := range runtimes {
		key := normalizeName(rt.Config.Name)
		if key == "" {
			return nil, fmt.Errorf("invalid node name %q", rt.Config.Name)
		}
		if _, exists := registry.routes[key]; exists {
			return nil, fmt.Errorf("duplicate node name detected for %s", key)
		}
		n, ok := lookup(rt.Config.Name)
		if !ok {
			return nil, fmt.Errorf("node %s is not running", rt.Config.Name)
		}

		route := &NodeRoute{
			Config:        rt.Config,
			Role:          rt.Role,
			CacheStrategy: rt.CacheStrategy,
			Node:          n,
		}
		registry.routes[key] = route
		registry.ordered = append(registry.ordered, route)
	}
	return registry, nil
}

// Lookup 根据节点名称查找 NodeRoute，名称大小写不敏感。
func (r *NodeRegistry) Lookup(name string) (*NodeRoute, bool) {
	if r == nil {
		return nil, false
	}
	key := normalizeName(name)
	if key == "" {
		return nil, false
	}
	route, ok := r.routes[key]
	return route, ok
}

// List 返回当前注册的 NodeRoute 列表（按配置定义的顺序，anchor 在前）。
func (r *NodeRegistry) List() []NodeRoute {
	if r == nil || len(r.ordered) == 0 {
		return nil
	}

	result := make([]NodeRoute, len(r.ordered))
	for i, route := range r.ordered {
		result[i] = *route
	}
	return result
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
