package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/icn-epc/icn-epc/internal/config"
	"github.com/icn-epc/icn-epc/internal/eventloop"
	"github.com/icn-epc/icn-epc/internal/logging"
	"github.com/icn-epc/icn-epc/internal/repo"
	"github.com/icn-epc/icn-epc/internal/sim"
)

const topologyConfig = `
ListenPort = 5100

[Anchor]
Name = "pgw"
Address = "10.0.0.1"

[[Edge]]
Name = "enb-1"
Address = "10.0.1.1"
CachePolicy = "lru"
CacheCapacity = 16

[[Edge]]
Name = "enb-2"
Address = "10.0.2.1"

[[Bearer]]
Edge = "enb-1"
UE = 1
BearerID = 1
UEAddress = "7.0.0.2"
TEID = 1
`

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "RepoPath = \"" + filepath.Join(dir, "repo") + "\"\n" + topologyConfig
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	return cfg
}

func buildTestRegistry(t *testing.T) (*config.Config, *sim.Topology, *NodeRegistry) {
	t.Helper()
	cfg := loadTestConfig(t)
	store, err := repo.NewStore(cfg.Global.RepoPath)
	if err != nil {
		t.Fatalf("初始化内容仓库失败: %v", err)
	}
	logger := logging.Discard()
	topo, err := sim.Build(cfg, sim.Deps{
		Loop:   eventloop.New(logger),
		Logger: logger,
		Store:  store,
	})
	if err != nil {
		t.Fatalf("构建拓扑失败: %v", err)
	}
	registry, err := NewNodeRegistry(cfg, topo.Node)
	if err != nil {
		t.Fatalf("构建节点注册表失败: %v", err)
	}
	return cfg, topo, registry
}
