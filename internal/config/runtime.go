package config

import (
	"fmt"

	"github.com/icn-epc/icn-epc/internal/role"
)

// NodeRuntime 将节点配置与角色元数据合并，方便运行时快速取用策略。
type NodeRuntime struct {
	Config        NodeConfig
	Role          role.Metadata
	CacheStrategy role.CacheStrategyProfile
}

// BuildNodeRuntime 根据节点配置和角色元数据创建运行时描述，按 全局 → 节点 应用缓存覆盖。
func BuildNodeRuntime(global GlobalConfig, cfg NodeConfig, meta role.Metadata) (NodeRuntime, error) {
	strategy, err := role.ResolveStrategy(meta, global.StrategyOverrides(), cfg.StrategyOverrides())
	if err != nil {
		return NodeRuntime{}, fmt.Errorf("%s: %w", nodeField(meta.Key, cfg.Name, "CachePolicy"), err)
	}
	return NodeRuntime{
		Config:        cfg,
		Role:          meta,
		CacheStrategy: strategy,
	}, nil
}

// Runtimes 返回 anchor 在前、edge 随后的节点运行时描述（假定 Validate 已经通过）。
func (c *Config) Runtimes() ([]NodeRuntime, error) {
	result := make([]NodeRuntime, 0, len(c.Edges)+1)

	anchorMeta, ok := role.Resolve(role.KeyAnchor)
	if !ok {
		return nil, fmt.Errorf("role %s not registered", role.KeyAnchor)
	}
	anchor, err := BuildNodeRuntime(c.Global, c.Anchor, anchorMeta)
	if err != nil {
		return nil, err
	}
	result = append(result, anchor)

	edgeMeta, ok := role.Resolve(role.KeyEdge)
	if !ok {
		return nil, fmt.Errorf("role %s not registered", role.KeyEdge)
	}
	for _, e := range c.Edges {
		rt, err := BuildNodeRuntime(c.Global, e, edgeMeta)
		if err != nil {
			return nil, err
		}
		result = append(result, rt)
	}
	return result, nil
}
