package fw

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/icn-epc/icn-epc/internal/ccn"
	"github.com/icn-epc/icn-epc/internal/face"
	"github.com/icn-epc/icn-epc/internal/logging"
	"github.com/icn-epc/icn-epc/internal/table"
	"github.com/icn-epc/icn-epc/internal/wire"
)

// Outcome 描述一次事件处理的最终决策。
type Outcome string

const (
	OutcomeCacheHit    Outcome = "cache_hit"
	OutcomeAggregated  Outcome = "aggregated"
	OutcomeForwarded   Outcome = "forwarded"
	OutcomePassthrough Outcome = "passthrough"
	OutcomeFannedOut   Outcome = "fanned_out"
	OutcomeDropped     Outcome = "dropped"
)

// Options 注入引擎依赖。Local/Upstream 分别是两个方向的 Transport。
type Options struct {
	Local       Transport
	Upstream    Transport
	Passthrough Predicate
	Logger      *logrus.Entry
	Metrics     *NodeMetrics
}

// Engine 是单个节点上的转发反应器。
type Engine struct {
	state       *State
	local       Transport
	upstream    Transport
	passthrough Predicate
	logger      *logrus.Entry
	metrics     *NodeMetrics
}

// NewEngine 基于 state 构建引擎，两个方向的 Transport 都必须提供。
func NewEngine(state *State, opts Options) (*Engine, error) {
	if state == nil {
		return nil, errors.New("fw: state is required")
	}
	if opts.Local == nil || opts.Upstream == nil {
		return nil, errors.New("fw: both local and upstream transports are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logging.Discard())
	}
	return &Engine{
		state:       state,
		local:       opts.Local,
		upstream:    opts.Upstream,
		passthrough: opts.Passthrough,
		logger:      logger,
		metrics:     opts.Metrics,
	}, nil
}

// State 返回引擎操作的状态。
func (e *Engine) State() *State {
	return e.state
}

// OnInterest 处理从 dir 方向、本地流 flow 到达的 Interest 报文。
// 到达 Face 由报文源地址/端口与 flow 组合得到。
func (e *Engine) OnInterest(raw []byte, flow face.FlowID, dir face.Direction) (Outcome, error) {
	outcome, err := e.onInterest(raw, flow, dir)
	e.metrics.interest(outcome)
	e.metrics.tables(e.state)
	return outcome, err
}

func (e *Engine) onInterest(raw []byte, flow face.FlowID, dir face.Direction) (Outcome, error) {
	pkt, err := wire.Parse(raw)
	if err != nil {
		return OutcomeDropped, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	arrival := pkt.Header.ReturnFace(flow, dir)

	if e.passthrough != nil && e.passthrough(pkt.Header) {
		err := e.send(e.upstream, raw, arrival, face.Upstream)
		e.logger.WithFields(logging.PacketFields("", arrival)).
			WithField("action", "passthrough").
			WithField("dst", pkt.Header.Dst.String()).
			Debug("relay non-cacheable packet")
		if err != nil {
			return OutcomePassthrough, fmt.Errorf("relay passthrough: %w", err)
		}
		return OutcomePassthrough, nil
	}

	interest, err := ccn.DecodeInterest(pkt.Body)
	if err != nil {
		return OutcomeDropped, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	fields := logging.PacketFields(interest.Name.String(), arrival)

	if entry, ok := e.state.CS.Lookup(interest.Name); ok {
		err := e.replyFromCache(entry, arrival)
		e.logger.WithFields(fields).WithField("action", string(OutcomeCacheHit)).Debug("answer interest from content store")
		if err != nil {
			return OutcomeCacheHit, fmt.Errorf("reply from cache: %w", err)
		}
		return OutcomeCacheHit, nil
	}

	switch e.state.PIT.InsertFace(interest.Name, arrival) {
	case table.Merged:
		e.logger.WithFields(fields).WithField("action", string(OutcomeAggregated)).Debug("interest aggregated")
		return OutcomeAggregated, nil
	default:
		e.logger.WithFields(fields).WithField("action", string(OutcomeForwarded)).Debug("forward interest upstream")
		if err := e.send(e.upstream, raw, arrival, face.Upstream); err != nil {
			return OutcomeForwarded, fmt.Errorf("forward interest: %w", err)
		}
		return OutcomeForwarded, nil
	}
}

func (e *Engine) replyFromCache(entry table.Entry, arrival face.Face) error {
	body, err := ccn.EncodeData(ccn.Data{Name: entry.Name, Payload: entry.Payload})
	if err != nil {
		return err
	}
	out, err := wire.Build(entry.Reply.Retemplate(arrival), body)
	if err != nil {
		return err
	}
	return e.send(e.transportFor(arrival.Direction), out, arrival, arrival.Direction)
}

// OnData 处理从 from 方向到达的 Data 报文：按 PIT 顺序扇出后写入 CS。
// 单个 Face 发送失败只跳过该 Face，所有失败合并后返回。
func (e *Engine) OnData(raw []byte, from face.Direction) (Outcome, error) {
	outcome, err := e.onData(raw, from)
	e.metrics.data(outcome)
	e.metrics.tables(e.state)
	return outcome, err
}

func (e *Engine) onData(raw []byte, from face.Direction) (Outcome, error) {
	pkt, err := wire.Parse(raw)
	if err != nil {
		return OutcomeDropped, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	data, err := ccn.DecodeData(pkt.Body)
	if err != nil {
		return OutcomeDropped, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	faces, ok := e.state.PIT.TakeAndClear(data.Name)
	if !ok {
		return OutcomeDropped, fmt.Errorf("%w: %s from %s", ErrUnsolicitedData, data.Name, from)
	}

	var errs error
	for _, f := range faces {
		out, err := wire.Build(pkt.Header.Retemplate(f), pkt.Body)
		if err == nil {
			err = e.send(e.transportFor(f.Direction), out, f, f.Direction)
		}
		if err != nil {
			e.logger.WithFields(logging.PacketFields(data.Name.String(), f)).
				WithError(err).
				Warn("skip face during fan-out")
			errs = multierr.Append(errs, fmt.Errorf("face %s: %w", f, err))
		}
	}

	e.state.CS.Put(table.Entry{Name: data.Name, Payload: data.Payload, Reply: pkt.Header})
	e.logger.WithField("name", data.Name.String()).
		WithField("action", string(OutcomeFannedOut)).
		WithField("faces", len(faces)).
		Debug("data fanned out and cached")
	return OutcomeFannedOut, errs
}

func (e *Engine) transportFor(dir face.Direction) Transport {
	if dir == face.Upstream {
		return e.upstream
	}
	return e.local
}

func (e *Engine) send(t Transport, raw []byte, dst face.Face, dir face.Direction) error {
	err := t.Transmit(raw, dst)
	e.metrics.transmit(dir, err)
	return err
}
