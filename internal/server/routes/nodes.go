package routes

import (
	"context"
	"errors"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/node"
	"github.com/icn-epc/icn-epc/internal/role"
	"github.com/icn-epc/icn-epc/internal/server"
)

const callTimeout = 2 * time.Second

// Options 控制节点路由的可选输出。
type Options struct {
	// Workload 返回额外的负载统计（例如终端收发计数），在事件循环内调用。
	Workload func() any
}

// RegisterNodeRoutes 暴露 /-/status、/-/nodes 与 /-/roles 诊断及控制接口。
func RegisterNodeRoutes(app *fiber.App, registry *server.NodeRegistry, exec server.Executor, opts Options) {
	if app == nil || registry == nil || exec == nil {
		return
	}
	h := &nodeHandlers{registry: registry, exec: exec, opts: opts}

	app.Get("/-/status", h.status)
	app.Get("/-/nodes/:node", h.snapshot)
	app.Post("/-/nodes/:node/bindings", h.bind)
	app.Delete("/-/nodes/:node/bindings", h.unbind)
	app.Get("/-/roles", h.roles)
	app.Get("/-/roles/:key", h.role)
}

type nodeHandlers struct {
	registry *server.NodeRegistry
	exec     server.Executor
	opts     Options
}

type nodeSummary struct {
	Name          string               `json:"name"`
	Role          string               `json:"role"`
	Instance      string               `json:"instance"`
	Address       string               `json:"address"`
	CacheStrategy cacheStrategyPayload `json:"cache_strategy"`
	CSEntries     int                  `json:"cs_entries"`
	PITEntries    int                  `json:"pit_entries"`
	Bindings      int                  `json:"bindings"`
}

type cacheStrategyPayload struct {
	Policy   string `json:"policy"`
	Capacity int    `json:"capacity,omitempty"`
}

type rolePayload struct {
	Key           string               `json:"key"`
	Description   string               `json:"description"`
	Local         string               `json:"local"`
	Upstream      string               `json:"upstream"`
	CacheStrategy cacheStrategyPayload `json:"cache_strategy"`
}

type bindingRequest struct {
	UE     uint16 `json:"ue"`
	Bearer uint8  `json:"bearer"`
	Peer   string `json:"peer"`
	TEID   uint32 `json:"teid"`
}

func (h *nodeHandlers) status(c fiber.Ctx) error {
	routes := h.registry.List()
	nodes := make([]nodeSummary, 0, len(routes))
	var workload any

	err := h.call(func() {
		for _, route := range routes {
			state := route.Node.State()
			nodes = append(nodes, nodeSummary{
				Name:          route.Node.Name(),
				Role:          route.Role.Key,
				Instance:      route.Node.Instance(),
				Address:       route.Node.Address().String(),
				CacheStrategy: encodeStrategy(route.CacheStrategy),
				CSEntries:     state.CS.Len(),
				PITEntries:    state.PIT.Len(),
				Bindings:      state.Bindings.Len(),
			})
		}
		if h.opts.Workload != nil {
			workload = h.opts.Workload()
		}
	})
	if err != nil {
		return renderLoopUnavailable(c, err)
	}

	payload := fiber.Map{"nodes": nodes}
	if workload != nil {
		payload["workload"] = workload
	}
	return c.JSON(payload)
}

func (h *nodeHandlers) snapshot(c fiber.Ctx) error {
	route, ok := h.lookup(c)
	if !ok {
		return renderNodeNotFound(c)
	}
	var snap node.Snapshot
	if err := h.call(func() { snap = route.Node.Snapshot() }); err != nil {
		return renderLoopUnavailable(c, err)
	}
	return c.JSON(snap)
}

// bind 安装或替换一条绑定。事件循环超时时返回 202：变更已入队，稍后仍会生效。
func (h *nodeHandlers) bind(c fiber.Ctx) error {
	route, ok := h.lookup(c)
	if !ok {
		return renderNodeNotFound(c)
	}
	var req bindingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	peer, err := netip.ParseAddr(strings.TrimSpace(req.Peer))
	if err != nil || !peer.Is4() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_peer"})
	}
	if req.UE == 0 || req.Bearer == 0 || req.TEID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_binding"})
	}

	flow := face.FlowID{UE: req.UE, Bearer: req.Bearer}
	ep := face.TunnelEndpoint{Peer: peer, TEID: req.TEID}
	if err := h.call(func() { route.Node.Bind(flow, ep) }); err != nil {
		return renderMutationPending(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(node.BindingItem{
		UE:     flow.UE,
		Bearer: flow.Bearer,
		Peer:   peer.String(),
		TEID:   ep.TEID,
	})
}

// unbind 删除 ?ue=&bearer= 指定的绑定；省略 bearer 时删除该 UE 的全部绑定。
// 与 bind 相同，超时返回 202，此时删除数量未知。
func (h *nodeHandlers) unbind(c fiber.Ctx) error {
	route, ok := h.lookup(c)
	if !ok {
		return renderNodeNotFound(c)
	}
	ue, err := strconv.ParseUint(c.Query("ue"), 10, 16)
	if err != nil || ue == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_ue"})
	}

	rawBearer := c.Query("bearer")
	removed := 0
	if rawBearer == "" {
		err = h.call(func() { removed = route.Node.UnbindUE(uint16(ue)) })
	} else {
		bearer, perr := strconv.ParseUint(rawBearer, 10, 8)
		if perr != nil || bearer == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_bearer"})
		}
		flow := face.FlowID{UE: uint16(ue), Bearer: uint8(bearer)}
		err = h.call(func() {
			if route.Node.Unbind(flow) {
				removed = 1
			}
		})
	}
	if err != nil {
		return renderMutationPending(c, err)
	}
	if removed == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "binding_not_found"})
	}
	return c.JSON(fiber.Map{"removed": removed})
}

func (h *nodeHandlers) roles(c fiber.Ctx) error {
	metas := role.List()
	result := make([]rolePayload, 0, len(metas))
	for _, meta := range metas {
		result = append(result, encodeRole(meta))
	}
	return c.JSON(fiber.Map{"roles": result})
}

func (h *nodeHandlers) role(c fiber.Ctx) error {
	key := strings.ToLower(strings.TrimSpace(c.Params("key")))
	meta, ok := role.Resolve(key)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "role_not_found"})
	}
	return c.JSON(encodeRole(meta))
}

func (h *nodeHandlers) lookup(c fiber.Ctx) (*server.NodeRoute, bool) {
	return h.registry.Lookup(c.Params("node"))
}

func (h *nodeHandlers) call(fn func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return h.exec.Call(ctx, fn)
}

func renderNodeNotFound(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "node_not_found"})
}

// renderMutationPending 用于变更类请求：超时后闭包仍在队列中，不能报告失败。
func renderMutationPending(c fiber.Ctx, err error) error {
	if !errors.Is(err, context.DeadlineExceeded) {
		return renderLoopUnavailable(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "pending"})
}

func renderLoopUnavailable(c fiber.Ctx, err error) error {
	code := "event_loop_unavailable"
	if errors.Is(err, context.DeadlineExceeded) {
		code = "event_loop_timeout"
	}
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": code})
}

func encodeStrategy(profile role.CacheStrategyProfile) cacheStrategyPayload {
	return cacheStrategyPayload{Policy: string(profile.Policy), Capacity: profile.Capacity}
}

func encodeRole(meta role.Metadata) rolePayload {
	return rolePayload{
		Key:           meta.Key,
		Description:   meta.Description,
		Local:         string(meta.Local),
		Upstream:      string(meta.Upstream),
		CacheStrategy: encodeStrategy(meta.CacheStrategy),
	}
}
