package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/icn-epc/icn-epc/internal/ccn"
	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/role"
	"github.com/icn-epc/icn-epc/internal/wire"
)

const (
	maxBearerID = 15
	// maxPrefixLen 限制请求前缀长度，使 Data 的名称与字段头落在 dataEnvelopeReserve 之内。
	maxPrefixLen        = 256
	dataEnvelopeReserve = 512
)

// MaxPayloadSize 是内容源 Data 负载的上限：名称与 msgpack 字段头预留 dataEnvelopeReserve 后，
// 内层报文经 GTP-U 封装仍不超过 IPv4 总长度。
const MaxPayloadSize = wire.MaxTunneledBody - dataEnvelopeReserve

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	if err := c.validateGlobal(); err != nil {
		return err
	}

	seenNames := map[string]struct{}{}
	seenAddrs := map[netip.Addr]string{}
	if err := validateNode("Anchor", c.Anchor, c.Global, seenNames, seenAddrs); err != nil {
		return err
	}
	for _, edge := range c.Edges {
		if err := validateNode("Edge", edge, c.Global, seenNames, seenAddrs); err != nil {
			return err
		}
	}

	if err := c.validateBearers(); err != nil {
		return err
	}
	return c.validateConsumers()
}

func (c *Config) validateGlobal() error {
	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.GTPUPort <= 0 || g.GTPUPort > 65535 {
		return newFieldError("Global.GTPUPort", "必须在 1-65535")
	}
	if g.OriginPort <= 0 || g.OriginPort > 65535 {
		return newFieldError("Global.OriginPort", "必须在 1-65535")
	}
	if g.RepoPath == "" {
		return newFieldError("Global.RepoPath", "不能为空")
	}
	if g.PayloadSize <= 0 || g.PayloadSize > MaxPayloadSize {
		return newFieldError("Global.PayloadSize", fmt.Sprintf("必须在 1-%d", MaxPayloadSize))
	}
	if _, err := parseIPv4(g.OriginAddress); err != nil {
		return fmt.Errorf("Global.OriginAddress: %w", err)
	}
	for _, raw := range g.PassthroughAddrs {
		if _, err := parseIPv4(raw); err != nil {
			return fmt.Errorf("Global.PassthroughAddrs: %w", err)
		}
	}
	if _, err := role.ParseCachePolicy(g.CachePolicy); err != nil {
		return newFieldError("Global.CachePolicy", "仅支持 unbounded/lru")
	}
	if g.CacheCapacity < 0 {
		return newFieldError("Global.CacheCapacity", "不能为负数")
	}
	return nil
}

func validateNode(section string, n NodeConfig, g GlobalConfig, seenNames map[string]struct{}, seenAddrs map[netip.Addr]string) error {
	if n.Name == "" {
		return newFieldError(section+"[].Name", "不能为空")
	}
	if _, exists := seenNames[n.Name]; exists {
		return newFieldError(nodeField(section, n.Name, "Name"), "重复")
	}
	seenNames[n.Name] = struct{}{}

	addr, err := parseIPv4(n.Address)
	if err != nil {
		return fmt.Errorf("%s: %w", nodeField(section, n.Name, "Address"), err)
	}
	if owner, exists := seenAddrs[addr]; exists {
		return newFieldError(nodeField(section, n.Name, "Address"), fmt.Sprintf("与节点 %s 重复", owner))
	}
	seenAddrs[addr] = n.Name

	if _, err := role.ParseCachePolicy(n.CachePolicy); err != nil {
		return newFieldError(nodeField(section, n.Name, "CachePolicy"), "仅支持 unbounded/lru")
	}
	if n.CacheCapacity < 0 {
		return newFieldError(nodeField(section, n.Name, "CacheCapacity"), "不能为负数")
	}

	meta, ok := role.Resolve(section)
	if !ok {
		return newFieldError(nodeField(section, n.Name, "Role"), fmt.Sprintf("未注册角色: %s", strings.ToLower(section)))
	}
	if _, err := role.ResolveStrategy(meta, g.StrategyOverrides(), n.StrategyOverrides()); err != nil {
		return newFieldError(nodeField(section, n.Name, "CacheCapacity"), err.Error())
	}
	return nil
}

func (c *Config) validateBearers() error {
	seenFlows := map[face.FlowID]int{}
	seenTEIDs := map[string]map[int64]int{}
	for idx, b := range c.Bearers {
		if _, ok := c.EdgeByName(b.Edge); !ok {
			return newFieldError(indexField("Bearer", idx, "Edge"), fmt.Sprintf("未知 edge: %q", b.Edge))
		}
		if b.UE <= 0 || b.UE > 0xffff {
			return newFieldError(indexField("Bearer", idx, "UE"), "必须在 1-65535")
		}
		if b.BearerID <= 0 || b.BearerID > maxBearerID {
			return newFieldError(indexField("Bearer", idx, "BearerID"), fmt.Sprintf("必须在 1-%d", maxBearerID))
		}
		if b.TEID <= 0 || b.TEID > 0xffffffff {
			return newFieldError(indexField("Bearer", idx, "TEID"), "必须在 1-4294967295")
		}
		if _, err := parseIPv4(b.UEAddress); err != nil {
			return fmt.Errorf("%s: %w", indexField("Bearer", idx, "UEAddress"), err)
		}

		// anchor 汇聚所有 edge 的承载，FlowID 必须全局唯一。
		if prev, exists := seenFlows[b.Flow()]; exists {
			return newFieldError(indexField("Bearer", idx, "UE/BearerID"), fmt.Sprintf("与 Bearer[#%d] 重复", prev))
		}
		seenFlows[b.Flow()] = idx

		teids, ok := seenTEIDs[b.Edge]
		if !ok {
			teids = map[int64]int{}
			seenTEIDs[b.Edge] = teids
		}
		if prev, exists := teids[b.TEID]; exists {
			return newFieldError(indexField("Bearer", idx, "TEID"), fmt.Sprintf("在 edge %s 上与 Bearer[#%d] 重复", b.Edge, prev))
		}
		teids[b.TEID] = idx
	}
	return nil
}

func (c *Config) validateConsumers() error {
	for idx, cons := range c.Consumers {
		if cons.Bearer < 0 || cons.Bearer >= len(c.Bearers) {
			return newFieldError(indexField("Consumer", idx, "Bearer"), fmt.Sprintf("索引越界，共 %d 条承载", len(c.Bearers)))
		}
		if cons.Port <= 0 || cons.Port > 65535 {
			return newFieldError(indexField("Consumer", idx, "Port"), "必须在 1-65535")
		}
		if _, err := ccn.ParseName(cons.Prefix); err != nil {
			return fmt.Errorf("%s: %w", indexField("Consumer", idx, "Prefix"), err)
		}
		if len(cons.Prefix) > maxPrefixLen {
			return newFieldError(indexField("Consumer", idx, "Prefix"), fmt.Sprintf("长度不能超过 %d", maxPrefixLen))
		}
		if cons.Count < 0 {
			return newFieldError(indexField("Consumer", idx, "Count"), "不能为负数")
		}
		if cons.StartSeq < 0 {
			return newFieldError(indexField("Consumer", idx, "StartSeq"), "不能为负数")
		}
		if cons.Interval.DurationValue() <= 0 {
			return newFieldError(indexField("Consumer", idx, "Interval"), "必须大于 0")
		}
	}
	return nil
}

func parseIPv4(raw string) (netip.Addr, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return netip.Addr{}, errors.New("地址不能为空")
	}
	addr, err := netip.ParseAddr(trimmed)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("非法地址 %q", raw)
	}
	if !addr.Is4() {
		return netip.Addr{}, fmt.Errorf("仅支持 IPv4 地址: %s", raw)
	}
	return addr, nil
}
