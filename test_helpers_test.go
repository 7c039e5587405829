package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validConfig = `
ListenPort = 5100
LogLevel = "info"
RepoPath = "%s"

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
Count = 3
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte(strings.TrimSpace(content)), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	return file
}
