package role

// TransportKind 描述某一方向使用的传输方式。
type TransportKind string

const (
	TransportRadio  TransportKind = "radio"
	TransportTunnel TransportKind = "gtp-u"
	TransportEgress TransportKind = "egress"
)

// CachePolicy 是 CS 的淘汰策略名称。
type CachePolicy string

const (
	CachePolicyUnbounded CachePolicy = "unbounded"
	CachePolicyLRU       CachePolicy = "lru"
)

// CacheStrategyProfile 描述角色默认的 CS 策略。
type CacheStrategyProfile struct {
	Policy   CachePolicy
	Capacity int
}

// Metadata 记录一个角色的静态信息，供配置校验和诊断接口使用。
type Metadata struct {
	Key           string
	Description   string
	Local         TransportKind
	Upstream      TransportKind
	CacheStrategy CacheStrategyProfile
}

const (
	KeyEdge   = "edge"
	KeyAnchor = "anchor"
)

func init() {
	MustRegister(Metadata{
		Key:         KeyEdge,
		Description: "radio bearers toward clients, gtp-u tunnel toward the anchor",
		Local:       TransportRadio,
		Upstream:    TransportTunnel,
	})
	MustRegister(Metadata{
		Key:         KeyAnchor,
		Description: "gtp-u tunnels from edge nodes, egress toward the content origin",
		Local:       TransportTunnel,
		Upstream:    TransportEgress,
	})
}
