package server

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/icn-epc/icn-epc/internal/logging"
)

func TestRouterServesMetrics(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/-/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200 status, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("icn_test_probe")) {
		t.Fatalf("metrics 输出应包含注册的指标, got %s", string(body))
	}
	if reqID := resp.Header.Get("X-Request-ID"); reqID == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func TestRouterReturns404WhenRouteUnknown(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/unknown", nil))
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Fatalf("expected 404 status, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte(`"route_not_found"`)) {
		t.Fatalf("expected route_not_found error, got %s", string(body))
	}
}

func TestNewAppValidatesOptions(t *testing.T) {
	_, _, registry := buildTestRegistry(t)
	logger := logging.Discard()

	if _, err := NewApp(AppOptions{Registry: registry, ListenPort: 5000}); err == nil {
		t.Fatalf("缺少 logger 应返回错误")
	}
	if _, err := NewApp(AppOptions{Logger: logger, ListenPort: 5000}); err == nil {
		t.Fatalf("缺少注册表应返回错误")
	}
	if _, err := NewApp(AppOptions{Logger: logger, Registry: registry}); err == nil {
		t.Fatalf("非法端口应返回错误")
	}
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	_, _, registry := buildTestRegistry(t)

	reg := prometheus.NewRegistry()
	probe := prometheus.NewCounter(prometheus.CounterOpts{Name: "icn_test_probe", Help: "probe"})
	reg.MustRegister(probe)
	probe.Inc()

	logger := logging.Discard()
	app, err := NewApp(AppOptions{
		Logger:     logger,
		Registry:   registry,
		Metrics:    promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ListenPort: 5000,
	})
	if err != nil {
		t.Fatalf("failed to create app: %v", err)
	}
	RegisterFallback(app, logger)
	return app
}
