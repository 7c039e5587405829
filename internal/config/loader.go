package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	defaultPayloadSize = 1316
	defaultPassthrough = "192.168.1.5"
	defaultGTPUPort    = 2152
	defaultOriginPort  = 9
	defaultInterval    = 100 * time.Millisecond
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	if err := rejectNodeLevelPorts(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyNodeDefaults(&cfg.Anchor)
	for i := range cfg.Edges {
		applyNodeDefaults(&cfg.Edges[i])
	}
	for i := range cfg.Consumers {
		applyConsumerDefaults(&cfg.Consumers[i])
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absRepo, err := filepath.Abs(cfg.Global.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("无法解析内容仓库目录: %w", err)
	}
	cfg.Global.RepoPath = absRepo

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("RepoPath", "./repo")
	v.SetDefault("PayloadSize", defaultPayloadSize)
	v.SetDefault("PassthroughAddrs", []string{defaultPassthrough})
	v.SetDefault("CachePolicy", "")
	v.SetDefault("CacheCapacity", 0)
	v.SetDefault("GTPUPort", defaultGTPUPort)
	v.SetDefault("OriginAddress", "1.0.0.2")
	v.SetDefault("OriginPort", defaultOriginPort)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.PayloadSize == 0 {
		g.PayloadSize = defaultPayloadSize
	}
	if g.GTPUPort == 0 {
		g.GTPUPort = defaultGTPUPort
	}
	if g.OriginPort == 0 {
		g.OriginPort = defaultOriginPort
	}
	g.CachePolicy = strings.ToLower(strings.TrimSpace(g.CachePolicy))
}

func applyNodeDefaults(n *NodeConfig) {
	n.Name = strings.TrimSpace(n.Name)
	n.Address = strings.TrimSpace(n.Address)
	n.CachePolicy = strings.ToLower(strings.TrimSpace(n.CachePolicy))
}

func applyConsumerDefaults(c *ConsumerConfig) {
	if c.Interval.DurationValue() == 0 {
		c.Interval = Duration(defaultInterval)
	}
	if strings.TrimSpace(c.Prefix) == "" {
		c.Prefix = "/video"
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

// rejectNodeLevelPorts 拒绝节点级 GTPUPort，隧道端口只能在全局配置。
func rejectNodeLevelPorts(v *viper.Viper) error {
	if anchor, ok := v.Get("Anchor").(map[string]interface{}); ok {
		if _, exists := lookupKey(anchor, "GTPUPort"); exists {
			rawName, _ := lookupKey(anchor, "Name")
			name, _ := rawName.(string)
			return newFieldError(nodeField("Anchor", name, "GTPUPort"), "不支持节点级配置，请使用全局 GTPUPort")
		}
	}

	edges, ok := v.Get("Edge").([]interface{})
	if !ok {
		return nil
	}
	for idx, entry := range edges {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if _, exists := lookupKey(m, "GTPUPort"); exists {
			name := fmt.Sprintf("#%d", idx)
			if rawName, ok := lookupKey(m, "Name"); ok {
				if s, ok := rawName.(string); ok && s != "" {
					name = s
				}
			}
			return newFieldError(nodeField("Edge", name, "GTPUPort"), "不支持节点级配置，请使用全局 GTPUPort")
		}
	}
	return nil
}

// lookupKey 兼容 viper 对嵌套键大小写的处理。
func lookupKey(m map[string]interface{}, key string) (interface{}, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	v, ok := m[strings.ToLower(key)]
	return v, ok
}
