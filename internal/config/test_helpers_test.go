package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
ListenPort = 5100
LogLevel = "debug"
RepoPath = "./repo"
PayloadSize = 512

[Anchor]
Name = "pgw"
Address = "10.0.0.1"

[[Edge]]
Name = "enb-1"
Address = "10.0.1.1"
CachePolicy = "lru"
CacheCapacity = 64

[[Edge]]
Name = "enb-2"
Address = "10.0.2.1"

[[Bearer]]
Edge = "enb-1"
UE = 1
BearerID = 1
UEAddress = "7.0.0.2"
TEID = 1

[[Bearer]]
Edge = "enb-2"
UE = 2
BearerID = 1
UEAddress = "7.0.0.3"
TEID = 1

[[Consumer]]
Bearer = 0
Port = 49153
Prefix = "/video"
Count = 3
Interval = "50ms"
`

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}
