package sim

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/icn-epc/icn-epc/internal/ccn"
	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/logging"
	"github.com/icn-epc/icn-epc/internal/node"
	"github.com/icn-epc/icn-epc/internal/wire"
)

// ConsumerConfig 描述一个终端上的请求负载。
type ConsumerConfig struct {
	Flow     face.FlowID
	Addr     netip.AddrPort
	Origin   netip.AddrPort
	Prefix   ccn.Name
	Count    int
	StartSeq uint64
	Interval time.Duration
}

// ConsumerStats 是终端的收发统计。
type ConsumerStats struct {
	Edge     string `json:"edge"`
	Flow     string `json:"flow"`
	TX       uint64 `json:"tx"`
	RX       uint64 `json:"rx"`
	RXBytes  uint64 `json:"rx_bytes"`
	Invalid  uint64 `json:"invalid"`
	LastName string `json:"last_name,omitempty"`
}

// Consumer 依次请求 <prefix>/<seq>，并统计收到的 Data。
type Consumer struct {
	cfg    ConsumerConfig
	edge   *node.Node
	radio  *Radio
	logger *logrus.Entry

	mu      sync.Mutex
	nextSeq uint64
	stats   ConsumerStats
}

// NewConsumer 创建终端并把它挂到 edge 的承载上。
func NewConsumer(cfg ConsumerConfig, edge *node.Node, radio *Radio, logger *logrus.Logger) *Consumer {
	if logger == nil {
		logger = logging.Discard()
	}
	c := &Consumer{
		cfg:     cfg,
		edge:    edge,
		radio:   radio,
		nextSeq: cfg.StartSeq,
		stats:   ConsumerStats{Edge: edge.Name(), Flow: cfg.Flow.String()},
		logger: logger.WithFields(logrus.Fields{
			"component": "consumer",
			"edge":      edge.Name(),
			"flow":      cfg.Flow.String(),
		}),
	}
	radio.Attach(cfg.Flow, c)
	return c
}

// SendNext 发出下一个 Interest。
func (c *Consumer) SendNext() error {
	c.mu.Lock()
	seq := c.nextSeq
	c.nextSeq++
	c.mu.Unlock()
	return c.Send(seq)
}

// Send 发出指定序号的 Interest。
func (c *Consumer) Send(seq uint64) error {
	name := c.cfg.Prefix.Append(strconv.FormatUint(seq, 10))
	body, err := ccn.EncodeInterest(ccn.Interest{Name: name, Seq: seq})
	if err != nil {
		return err
	}
	raw, err := wire.Build(wire.HeaderTemplate{
		Src:     c.cfg.Addr.Addr(),
		SrcPort: c.cfg.Addr.Port(),
		Dst:     c.cfg.Origin.Addr(),
		DstPort: c.cfg.Origin.Port(),
	}, body)
	if err != nil {
		return fmt.Errorf("build interest %s: %w", name, err)
	}
	c.radio.Uplink(c.edge, c.cfg.Flow, raw)

	c.mu.Lock()
	c.stats.TX++
	c.mu.Unlock()
	return nil
}

// Receive 实现 Host。
func (c *Consumer) Receive(raw []byte) {
	pkt, err := wire.Parse(raw)
	if err == nil && (pkt.Header.Dst != c.cfg.Addr.Addr() || pkt.Header.DstPort != c.cfg.Addr.Port()) {
		err = fmt.Errorf("misdelivered packet for %s:%d", pkt.Header.Dst, pkt.Header.DstPort)
	}
	var data ccn.Data
	if err == nil {
		data, err = ccn.DecodeData(pkt.Body)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.stats.Invalid++
		c.logger.WithError(err).Warn("discard downlink packet")
		return
	}
	c.stats.RX++
	c.stats.RXBytes += uint64(len(data.Payload))
	c.stats.LastName = data.Name.String()
}

// Stats 返回统计快照。
func (c *Consumer) Stats() ConsumerStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Run 按 Interval 发出 Interest，直到发够 Count 个（0 表示不限）或 ctx 结束。
func (c *Consumer) Run(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	sent := 0
	for c.cfg.Count == 0 || sent < c.cfg.Count {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := c.SendNext(); err != nil {
			c.logger.WithError(err).Warn("send interest failed")
		}
		sent++
	}
}
