package role

import (
	"fmt"
	"strings"
)

// StrategyOptions 描述来自全局或节点配置的覆盖项，零值表示不覆盖。
type StrategyOptions struct {
	Policy   string
	Capacity int
}

// ParseCachePolicy 标准化策略名称。
func ParseCachePolicy(raw string) (CachePolicy, error) {
	switch CachePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return "", nil
	case CachePolicyUnbounded:
		return CachePolicyUnbounded, nil
	case CachePolicyLRU:
		return CachePolicyLRU, nil
	default:
		return "", fmt.Errorf("unsupported cache policy %q", raw)
	}
}

// ResolveStrategy 按 角色默认 → 全局 → 节点 的顺序合并 CS 策略。
func ResolveStrategy(meta Metadata, layers ...StrategyOptions) (CacheStrategyProfile, error) {
	strategy := meta.CacheStrategy
	for _, opts := range layers {
		policy, err := ParseCachePolicy(opts.Policy)
		if err != nil {
			return CacheStrategyProfile{}, err
		}
		if policy != "" {
			strategy.Policy = policy
		}
		if opts.Capacity > 0 {
			strategy.Capacity = opts.Capacity
		}
	}
	strategy = normalizeStrategy(strategy)
	if strategy.Policy == CachePolicyLRU && strategy.Capacity <= 0 {
		return CacheStrategyProfile{}, fmt.Errorf("cache policy lru requires a positive capacity")
	}
	return strategy, nil
}

func normalizeStrategy(profile CacheStrategyProfile) CacheStrategyProfile {
	if profile.Policy == "" {
		profile.Policy = CachePolicyUnbounded
	}
	if profile.Capacity < 0 {
		profile.Capacity = 0
	}
	return profile
}
