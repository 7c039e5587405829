package sim

import (
	"context"
	"net/netip"

	"github.com/sirupsen/logrus"

	"github.com/icn-epc/icn-epc/internal/ccn"
	"github.com/icn-epc/icn-epc/internal/logging"
	"github.com/icn-epc/icn-epc/internal/repo"
	"github.com/icn-epc/icn-epc/internal/wire"
)

// Origin 是出口侧的内容源：对每个 Interest 用仓库内容应答一个 Data。
type Origin struct {
	addr     netip.AddrPort
	provider *repo.Provider
	reply    func(raw []byte) error
	logger   *logrus.Entry
	metrics  *Metrics
}

// NewOrigin 创建内容源，reply 用于把 Data 送回 anchor。
func NewOrigin(addr netip.AddrPort, provider *repo.Provider, reply func(raw []byte) error, logger *logrus.Logger, metrics *Metrics) *Origin {
	if logger == nil {
		logger = logging.Discard()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Origin{
		addr:     addr,
		provider: provider,
		reply:    reply,
		logger:   logger.WithFields(logrus.Fields{"component": "origin", "origin": addr.String()}),
		metrics:  metrics,
	}
}

// Addr 返回内容源地址。
func (o *Origin) Addr() netip.AddrPort { return o.addr }

// Receive 实现 Host。
func (o *Origin) Receive(raw []byte) {
	if err := o.handle(raw); err != nil {
		o.metrics.originDropped().Inc()
		o.logger.WithError(err).WithField("action", "origin_drop").Warn("cannot answer packet")
	}
}

func (o *Origin) handle(raw []byte) error {
	pkt, err := wire.Parse(raw)
	if err != nil {
		return err
	}
	interest, err := ccn.DecodeInterest(pkt.Body)
	if err != nil {
		return err
	}
	payload, err := o.provider.Content(context.Background(), interest.Name)
	if err != nil {
		return err
	}
	body, err := ccn.EncodeData(ccn.Data{Name: interest.Name, Payload: payload})
	if err != nil {
		return err
	}
	out, err := wire.Build(wire.HeaderTemplate{
		Src:     o.addr.Addr(),
		SrcPort: o.addr.Port(),
		Dst:     pkt.Header.Src,
		DstPort: pkt.Header.SrcPort,
		TOS:     pkt.Header.TOS,
	}, body)
	if err != nil {
		return err
	}
	if err := o.reply(out); err != nil {
		return err
	}
	o.metrics.originServed().Inc()
	o.logger.WithFields(logrus.Fields{
		"action": "origin_reply",
		"name":   interest.Name.String(),
		"seq":    interest.Seq,
		"size":   len(payload),
	}).Debug("answered interest")
	return nil
}
