package config

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/role"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "100ms"、"5s" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// GlobalConfig 描述全局运行时行为，所有节点共享同一份参数。
type GlobalConfig struct {
	ListenPort       int      `mapstructure:"ListenPort"`
	LogLevel         string   `mapstructure:"LogLevel"`
	LogFilePath      string   `mapstructure:"LogFilePath"`
	LogMaxSize       int      `mapstructure:"LogMaxSize"`
	LogMaxBackups    int      `mapstructure:"LogMaxBackups"`
	LogCompress      bool     `mapstructure:"LogCompress"`
	RepoPath         string   `mapstructure:"RepoPath"`
	PayloadSize      int      `mapstructure:"PayloadSize"`
	PassthroughAddrs []string `mapstructure:"PassthroughAddrs"`
	CachePolicy      string   `mapstructure:"CachePolicy"`
	CacheCapacity    int      `mapstructure:"CacheCapacity"`
	GTPUPort         int      `mapstructure:"GTPUPort"`
	OriginAddress    string   `mapstructure:"OriginAddress"`
	OriginPort       int      `mapstructure:"OriginPort"`
}

// NodeConfig 描述一个 edge 或 anchor 节点。
type NodeConfig struct {
	Name          string `mapstructure:"Name"`
	Address       string `mapstructure:"Address"`
	CachePolicy   string `mapstructure:"CachePolicy"`
	CacheCapacity int    `mapstructure:"CacheCapacity"`
}

// BearerConfig 是启动时安装的静态会话绑定：edge 上的一条承载及其隧道 TEID。
type BearerConfig struct {
	Edge      string `mapstructure:"Edge"`
	UE        int    `mapstructure:"UE"`
	BearerID  int    `mapstructure:"BearerID"`
	UEAddress string `mapstructure:"UEAddress"`
	TEID      int64  `mapstructure:"TEID"`
}

// ConsumerConfig 描述挂在某条承载上的请求负载。
type ConsumerConfig struct {
	Bearer   int      `mapstructure:"Bearer"`
	Port     int      `mapstructure:"Port"`
	Prefix   string   `mapstructure:"Prefix"`
	Count    int      `mapstructure:"Count"`
	StartSeq int      `mapstructure:"StartSeq"`
	Interval Duration `mapstructure:"Interval"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global    GlobalConfig     `mapstructure:",squash"`
	Anchor    NodeConfig       `mapstructure:"Anchor"`
	Edges     []NodeConfig     `mapstructure:"Edge"`
	Bearers   []BearerConfig   `mapstructure:"Bearer"`
	Consumers []ConsumerConfig `mapstructure:"Consumer"`
}

// Flow 返回承载对应的 FlowID（假定 Validate 已经通过）。
func (b BearerConfig) Flow() face.FlowID {
	return face.FlowID{UE: uint16(b.UE), Bearer: uint8(b.BearerID)}
}

// Addr 返回 UE 地址（假定 Validate 已经通过）。
func (b BearerConfig) Addr() netip.Addr {
	addr, _ := netip.ParseAddr(b.UEAddress)
	return addr
}

// Addr 返回节点地址（假定 Validate 已经通过）。
func (n NodeConfig) Addr() netip.Addr {
	addr, _ := netip.ParseAddr(n.Address)
	return addr
}

// StrategyOverrides 将节点层的缓存配置映射为角色策略覆盖项。
func (n NodeConfig) StrategyOverrides() role.StrategyOptions {
	return role.StrategyOptions{Policy: n.CachePolicy, Capacity: n.CacheCapacity}
}

// StrategyOverrides 返回全局层的缓存覆盖项。
func (g GlobalConfig) StrategyOverrides() role.StrategyOptions {
	return role.StrategyOptions{Policy: g.CachePolicy, Capacity: g.CacheCapacity}
}

// Passthrough 返回透传地址集合（假定 Validate 已经通过）。
func (g GlobalConfig) Passthrough() []netip.Addr {
	result := make([]netip.Addr, 0, len(g.PassthroughAddrs))
	for _, raw := range g.PassthroughAddrs {
		if addr, err := netip.ParseAddr(strings.TrimSpace(raw)); err == nil {
			result = append(result, addr)
		}
	}
	return result
}

// Origin 返回内容源的地址与端口（假定 Validate 已经通过）。
func (g GlobalConfig) Origin() netip.AddrPort {
	addr, _ := netip.ParseAddr(g.OriginAddress)
	return netip.AddrPortFrom(addr, uint16(g.OriginPort))
}

// EdgeByName 查找 edge 配置。
func (c *Config) EdgeByName(name string) (NodeConfig, bool) {
	for _, e := range c.Edges {
		if e.Name == name {
			return e, true
		}
	}
	return NodeConfig{}, false
}

// NodeNames 返回 anchor 在前、edge 按配置顺序的节点名，供日志字段使用。
func (c *Config) NodeNames() []string {
	result := make([]string, 0, len(c.Edges)+1)
	result = append(result, c.Anchor.Name)
	for _, e := range c.Edges {
		result = append(result, e.Name)
	}
	return result
}
