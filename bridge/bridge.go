package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	eext "github.com/easyeda/eext-simulation-with-ngspice"
	"github.com/easyeda/eext-simulation-with-ngspice/errors"
)

// FallbackNetlist is loaded when a request carries no usable netlist,
// so the bridge is exercisable without a real request.
const FallbackNetlist = "* simple rc\nV1 in 0 DC 1\nR1 in out 1k\nC1 out 0 1u\n.tran 1u 10u\n.end"

// SimSession is the per-run engine surface the bridge drives.
type SimSession interface {
	LoadNetlist(ctx context.Context, netlist string) error
	AddProbeNode(ctx context.Context, node string, kind, low, high float64) error
	Run(ctx context.Context) error
	ResultJSON(ctx context.Context) (string, error)
}

// SessionSource hands out a fresh session per simulation request,
// loading and bootstrapping the engine on first use.
type SessionSource interface {
	Session(ctx context.Context) (SimSession, error)
}

// Bridge performs one simulation per incoming request and reports the
// outcome on the host's push-event channel.
type Bridge struct {
	source SessionSource
	sink   eext.EventSink
	logger *zap.Logger
}

// New creates a bridge. A nil logger disables logging. A nil sink is
// tolerated: simulations still run, their outcomes are logged and
// dropped.
func New(source SessionSource, sink eext.EventSink, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{source: source, sink: sink, logger: logger}
}

// push forwards to the sink, or drops the event when the capability is
// absent.
func (b *Bridge) push(eventType, data string) {
	if b.sink == nil {
		b.logger.Warn("push-event capability unavailable; dropping outcome",
			zap.String("event", eventType))
		return
	}
	b.sink.PushEvent(eventType, data)
}

// HandleSimulateNetlist performs one simulation run for the request
// payload. It is the sole recovery point: any failure in the run
// sequence becomes exactly one error push, never a raised error. Safe
// to dispatch fire-and-forget.
func (b *Bridge) HandleSimulateNetlist(ctx context.Context, payload []byte) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()
		return b.run(ctx, payload)
	}()

	if err != nil {
		msg := errors.Message(err)
		b.logger.Warn("simulation failed", zap.String("reason", msg))
		b.push(eext.EventErrorResult, msg)
	}
}

func (b *Bridge) run(ctx context.Context, payload []byte) error {
	sess, err := b.source.Session(ctx)
	if err != nil {
		return err
	}

	netlist := netlistFrom(payload)
	if err := sess.LoadNetlist(ctx, netlist); err != nil {
		return err
	}

	probes := probesFrom(payload)
	for _, p := range probes {
		if err := sess.AddProbeNode(ctx, p.Node, p.Type, p.Low, p.High); err != nil {
			return err
		}
	}

	if err := sess.Run(ctx); err != nil {
		return err
	}

	result, err := sess.ResultJSON(ctx)
	if err != nil {
		return err
	}

	b.logger.Debug("simulation completed",
		zap.Int("netlist_bytes", len(netlist)),
		zap.Int("probes", len(probes)),
		zap.Int("result_bytes", len(result)))

	b.push(eext.EventSimulationResult, result)
	return nil
}
