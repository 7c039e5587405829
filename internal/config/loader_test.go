package config

import (
	"errors"
	"net/netip"
	"path/filepath"
	"testing"
	"time"

	"github.com/icn-epc/icn-epc/internal/face"
)

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Global.ListenPort != 5100 || cfg.Global.PayloadSize != 512 {
		t.Fatalf("全局字段解析错误: %+v", cfg.Global)
	}
	if cfg.Global.GTPUPort != defaultGTPUPort {
		t.Fatalf("GTPUPort 应默认 %d，得到 %d", defaultGTPUPort, cfg.Global.GTPUPort)
	}
	if got := cfg.Global.Passthrough(); len(got) != 1 || got[0] != netip.MustParseAddr(defaultPassthrough) {
		t.Fatalf("PassthroughAddrs 默认值错误: %v", got)
	}
	if !filepath.IsAbs(cfg.Global.RepoPath) {
		t.Fatalf("RepoPath 应转换为绝对路径: %s", cfg.Global.RepoPath)
	}
	if cfg.Anchor.Name != "pgw" || len(cfg.Edges) != 2 || len(cfg.Bearers) != 2 {
		t.Fatalf("节点/承载解析错误: %+v", cfg)
	}
	if flow := cfg.Bearers[1].Flow(); flow != (face.FlowID{UE: 2, Bearer: 1}) {
		t.Fatalf("FlowID 解析错误: %v", flow)
	}
	if got := cfg.Consumers[0].Interval.DurationValue(); got != 50*time.Millisecond {
		t.Fatalf("Interval 解析错误: %v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("不存在的配置文件应返回错误")
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := `
[Anchor]
Name = "pgw"
Address = "10.0.0.1"

[[Edge]]
Name = "enb-1"
Address = "10.0.1.1"

[[Bearer]]
Edge = "enb-1"
UE = 1
BearerID = 1
UEAddress = "7.0.0.2"
TEID = 1

[[Consumer]]
Bearer = 0
Port = 49153
Interval = "boom"
`
	if _, err := Load(writeTempConfig(t, cfg)); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadRejectsNodeLevelTunnelPort(t *testing.T) {
	cfg := `
[Anchor]
Name = "pgw"
Address = "10.0.0.1"

[[Edge]]
Name = "enb-1"
Address = "10.0.1.1"
GTPUPort = 3000
`
	_, err := Load(writeTempConfig(t, cfg))
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("应返回 FieldError，得到 %v", err)
	}
	if fieldErr.Field != "Edge[enb-1].GTPUPort" {
		t.Fatalf("字段路径错误: %s", fieldErr.Field)
	}
}

func TestConsumerDefaultsApplied(t *testing.T) {
	cfg := `
[Anchor]
Name = "pgw"
Address = "10.0.0.1"

[[Edge]]
Name = "enb-1"
Address = "10.0.1.1"

[[Bearer]]
Edge = "enb-1"
UE = 1
BearerID = 1
UEAddress = "7.0.0.2"
TEID = 1

[[Consumer]]
Bearer = 0
Port = 49153
`
	loaded, err := Load(writeTempConfig(t, cfg))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	cons := loaded.Consumers[0]
	if cons.Prefix != "/video" || cons.Interval.DurationValue() != defaultInterval {
		t.Fatalf("Consumer 默认值未生效: %+v", cons)
	}
}
