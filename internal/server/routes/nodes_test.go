package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"github.com/icn-epc/icn-epc/internal/config"
	"github.com/icn-epc/icn-epc/internal/eventloop"
	"github.com/icn-epc/icn-epc/internal/logging"
	"github.com/icn-epc/icn-epc/internal/node"
	"github.com/icn-epc/icn-epc/internal/repo"
	"github.com/icn-epc/icn-epc/internal/server"
	"github.com/icn-epc/icn-epc/internal/sim"
)

const routesConfig = `
ListenPort = 5100

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
TEID = 7
`

// inlineExecutor 直接在调用方 goroutine 执行闭包，测试中没有并发事件。
type inlineExecutor struct{}

func (inlineExecutor) Call(_ context.Context, fn func()) error {
	fn()
	return nil
}

// queuedExecutor 模拟超时：闭包留在队列中，由测试稍后执行。
type queuedExecutor struct{ pending []func() }

func (e *queuedExecutor) Call(_ context.Context, fn func()) error {
	e.pending = append(e.pending, fn)
	return context.DeadlineExceeded
}

func (e *queuedExecutor) flush() {
	for _, fn := range e.pending {
		fn()
	}
	e.pending = nil
}

type failingExecutor struct{ err error }

func (e failingExecutor) Call(context.Context, func()) error { return e.err }

func TestStatusListsNodesAndWorkload(t *testing.T) {
	app, _ := newRoutesApp(t, inlineExecutor{}, Options{
		Workload: func() any { return []string{"consumer"} },
	})

	var payload struct {
		Nodes []struct {
			Name       string `json:"name"`
			Role       string `json:"role"`
			Bindings   int    `json:"bindings"`
			CSEntries  int    `json:"cs_entries"`
			PITEntries int    `json:"pit_entries"`
		} `json:"nodes"`
		Workload []string `json:"workload"`
	}
	doJSON(t, app, http.MethodGet, "/-/status", "", fiber.StatusOK, &payload)

	if len(payload.Nodes) != 2 {
		t.Fatalf("应返回 2 个节点，得到 %d", len(payload.Nodes))
	}
	if payload.Nodes[0].Name != "pgw" || payload.Nodes[0].Role != "anchor" {
		t.Fatalf("anchor 应排在首位: %+v", payload.Nodes[0])
	}
	if payload.Nodes[1].Bindings != 1 {
		t.Fatalf("enb-1 应有 1 条静态绑定，得到 %d", payload.Nodes[1].Bindings)
	}
	if len(payload.Workload) != 1 || payload.Workload[0] != "consumer" {
		t.Fatalf("应附带负载统计: %+v", payload.Workload)
	}
}

func TestSnapshotReturnsBindings(t *testing.T) {
	app, _ := newRoutesApp(t, inlineExecutor{}, Options{})

	var snap node.Snapshot
	doJSON(t, app, http.MethodGet, "/-/nodes/ENB-1", "", fiber.StatusOK, &snap)

	if snap.Name != "enb-1" || snap.Role != "edge" {
		t.Fatalf("快照节点信息错误: %+v", snap)
	}
	if len(snap.Bindings) != 1 {
		t.Fatalf("应包含 1 条绑定，得到 %d", len(snap.Bindings))
	}
	b := snap.Bindings[0]
	if b.UE != 1 || b.Bearer != 1 || b.Peer != "10.0.0.1" || b.TEID != 7 {
		t.Fatalf("绑定内容错误: %+v", b)
	}
}

func TestSnapshotUnknownNode(t *testing.T) {
	app, _ := newRoutesApp(t, inlineExecutor{}, Options{})

	body := doRequest(t, app, http.MethodGet, "/-/nodes/missing", "", fiber.StatusNotFound)
	if !strings.Contains(body, "node_not_found") {
		t.Fatalf("应返回 node_not_found，得到 %s", body)
	}
}

func TestBindAndUnbindLifecycle(t *testing.T) {
	app, topo := newRoutesApp(t, inlineExecutor{}, Options{})

	var created node.BindingItem
	doJSON(t, app, http.MethodPost, "/-/nodes/enb-1/bindings",
		`{"ue":3,"bearer":5,"peer":"10.0.0.1","teid":9}`, fiber.StatusCreated, &created)
	if created.UE != 3 || created.Bearer != 5 || created.TEID != 9 {
		t.Fatalf("创建结果错误: %+v", created)
	}

	edge, _ := topo.Node("enb-1")
	if got := edge.State().Bindings.Len(); got != 2 {
		t.Fatalf("应有 2 条绑定，得到 %d", got)
	}

	var removed struct {
		Removed int `json:"removed"`
	}
	doJSON(t, app, http.MethodDelete, "/-/nodes/enb-1/bindings?ue=3&bearer=5", "", fiber.StatusOK, &removed)
	if removed.Removed != 1 {
		t.Fatalf("应删除 1 条绑定，得到 %d", removed.Removed)
	}

	doRequest(t, app, http.MethodDelete, "/-/nodes/enb-1/bindings?ue=3&bearer=5", "", fiber.StatusNotFound)

	doJSON(t, app, http.MethodDelete, "/-/nodes/enb-1/bindings?ue=1", "", fiber.StatusOK, &removed)
	if removed.Removed != 1 {
		t.Fatalf("按 UE 删除应移除 1 条绑定，得到 %d", removed.Removed)
	}
	if got := edge.State().Bindings.Len(); got != 0 {
		t.Fatalf("绑定应全部清空，剩余 %d", got)
	}
}

func TestBindRejectsInvalidInput(t *testing.T) {
	app, _ := newRoutesApp(t, inlineExecutor{}, Options{})

	cases := []struct {
		body string
		code string
	}{
		{`not-json`, "invalid_body"},
		{`{"ue":1,"bearer":1,"peer":"::1","teid":1}`, "invalid_peer"},
		{`{"ue":1,"bearer":1,"peer":"nope","teid":1}`, "invalid_peer"},
		{`{"ue":0,"bearer":1,"peer":"10.0.0.1","teid":1}`, "invalid_binding"},
		{`{"ue":1,"bearer":1,"peer":"10.0.0.1","teid":0}`, "invalid_binding"},
	}
	for _, tc := range cases {
		body := doRequest(t, app, http.MethodPost, "/-/nodes/enb-1/bindings", tc.body, fiber.StatusBadRequest)
		if !strings.Contains(body, tc.code) {
			t.Fatalf("body %s 应返回 %s，得到 %s", tc.body, tc.code, body)
		}
	}

	body := doRequest(t, app, http.MethodDelete, "/-/nodes/enb-1/bindings?ue=x", "", fiber.StatusBadRequest)
	if !strings.Contains(body, "invalid_ue") {
		t.Fatalf("应返回 invalid_ue，得到 %s", body)
	}
	body = doRequest(t, app, http.MethodDelete, "/-/nodes/enb-1/bindings?ue=1&bearer=300", "", fiber.StatusBadRequest)
	if !strings.Contains(body, "invalid_bearer") {
		t.Fatalf("应返回 invalid_bearer，得到 %s", body)
	}
}

func TestRolesEndpoints(t *testing.T) {
	app, _ := newRoutesApp(t, inlineExecutor{}, Options{})

	var list struct {
		Roles []rolePayload `json:"roles"`
	}
	doJSON(t, app, http.MethodGet, "/-/roles", "", fiber.StatusOK, &list)
	if len(list.Roles) != 2 || list.Roles[0].Key != "anchor" || list.Roles[1].Key != "edge" {
		t.Fatalf("角色列表错误: %+v", list.Roles)
	}

	var edge rolePayload
	doJSON(t, app, http.MethodGet, "/-/roles/Edge", "", fiber.StatusOK, &edge)
	if edge.Local != "radio" || edge.Upstream != "gtp-u" {
		t.Fatalf("edge 角色传输描述错误: %+v", edge)
	}

	doRequest(t, app, http.MethodGet, "/-/roles/unknown", "", fiber.StatusNotFound)
}

func TestLoopFailureRendersUnavailable(t *testing.T) {
	app, _ := newRoutesApp(t, failingExecutor{err: context.DeadlineExceeded}, Options{})

	body := doRequest(t, app, http.MethodGet, "/-/status", "", fiber.StatusServiceUnavailable)
	if !strings.Contains(body, "event_loop_timeout") {
		t.Fatalf("应返回 event_loop_timeout，得到 %s", body)
	}
	body = doRequest(t, app, http.MethodGet, "/-/nodes/pgw", "", fiber.StatusServiceUnavailable)
	if !strings.Contains(body, "event_loop_timeout") {
		t.Fatalf("应返回 event_loop_timeout，得到 %s", body)
	}
}

func TestMutationTimeoutReportsPending(t *testing.T) {
	exec := &queuedExecutor{}
	app, topo := newRoutesApp(t, exec, Options{})
	edge, _ := topo.Node("enb-1")

	body := doRequest(t, app, http.MethodPost, "/-/nodes/enb-1/bindings",
		`{"ue":3,"bearer":5,"peer":"10.0.0.1","teid":9}`, fiber.StatusAccepted)
	if !strings.Contains(body, "pending") {
		t.Fatalf("超时的绑定请求应返回 pending，得到 %s", body)
	}
	exec.flush()
	if got := edge.State().Bindings.Len(); got != 2 {
		t.Fatalf("排队的绑定稍后应生效，得到 %d 条", got)
	}

	doRequest(t, app, http.MethodDelete, "/-/nodes/enb-1/bindings?ue=3", "", fiber.StatusAccepted)
	exec.flush()
	if got := edge.State().Bindings.Len(); got != 1 {
		t.Fatalf("排队的删除稍后应生效，剩余 %d 条", got)
	}
}

func TestMutationFailureRendersUnavailable(t *testing.T) {
	app, _ := newRoutesApp(t, failingExecutor{err: context.Canceled}, Options{})

	body := doRequest(t, app, http.MethodPost, "/-/nodes/enb-1/bindings",
		`{"ue":4,"bearer":1,"peer":"10.0.0.1","teid":10}`, fiber.StatusServiceUnavailable)
	if !strings.Contains(body, "event_loop_unavailable") {
		t.Fatalf("循环关闭时应返回 event_loop_unavailable，得到 %s", body)
	}
}

func newRoutesApp(t *testing.T, exec server.Executor, opts Options) (*fiber.App, *sim.Topology) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "RepoPath = \"" + filepath.Join(dir, "repo") + "\"\n" + routesConfig
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	store, err := repo.NewStore(cfg.Global.RepoPath)
	if err != nil {
		t.Fatalf("初始化内容仓库失败: %v", err)
	}

	logger := logging.Discard()
	topo, err := sim.Build(cfg, sim.Deps{Loop: eventloop.New(logger), Logger: logger, Store: store})
	if err != nil {
		t.Fatalf("构建拓扑失败: %v", err)
	}
	registry, err := server.NewNodeRegistry(cfg, topo.Node)
	if err != nil {
		t.Fatalf("构建节点注册表失败: %v", err)
	}

	app := fiber.New()
	RegisterNodeRoutes(app, registry, exec, opts)
	return app, topo
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string, wantStatus int) string {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s 失败: %v", method, target, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s 期望 %d，得到 %d (body=%s)", method, target, wantStatus, resp.StatusCode, string(raw))
	}
	return string(raw)
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string, wantStatus int, out any) {
	t.Helper()
	raw := doRequest(t, app, method, target, body, wantStatus)
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		t.Fatalf("解析响应失败: %v (body=%s)", err, raw)
	}
}
