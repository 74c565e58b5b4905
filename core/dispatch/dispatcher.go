package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jmottier/notihub/core/events"
	"github.com/jmottier/notihub/core/handler"
	"github.com/jmottier/notihub/core/logger"
	"github.com/jmottier/notihub/core/metrics"
	"github.com/jmottier/notihub/core/registry"
	"github.com/jmottier/notihub/internal/eventbus"
)

// Dispatcher resolves a channel type to a handler factory, constructs a fresh
// handler and invokes it. Every failure path is translated into a typed
// Outcome; nothing escapes the dispatch boundary as a raw error.
type Dispatcher struct {
	reg     *registry.Registry[handler.Factory]
	log     logger.Logger
	sink    metrics.MetricsSink
	bus     *eventbus.Bus[events.DispatchEvent]
	timeout time.Duration
}

// NewDispatcher creates a Dispatcher backed by the given registry. The
// logger, metrics sink and event bus may be nil.
func NewDispatcher(reg *registry.Registry[handler.Factory], log logger.Logger, sink metrics.MetricsSink, bus *eventbus.Bus[events.DispatchEvent]) *Dispatcher {
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Dispatcher{reg: reg, log: log, sink: sink, bus: bus}
}

// SetTimeout configures a default deadline applied to dispatch calls whose
// context carries none. Zero disables the default.
func (d *Dispatcher) SetTimeout(t time.Duration) { d.timeout = t }

// Registry exposes the backing registry for registration and introspection.
func (d *Dispatcher) Registry() *registry.Registry[handler.Factory] { return d.reg }

type handlerReturn struct {
	res handler.Result
	err error
}

// Dispatch looks up the factory bound to channel, constructs one handler and
// invokes it with payload. The context deadline is forwarded to the handler.
// If the handler does not honor cancellation, Dispatch still returns a
// timeout outcome once the deadline elapses; the abandoned invocation may
// keep running in the background.
func (d *Dispatcher) Dispatch(ctx context.Context, channel string, payload []byte) Outcome {
	start := time.Now()
	if channel == "" {
		return d.finish(start, channel, "", Failure(handler.NewError(handler.KindInvalidRequest, channel, errors.New("empty channel type"))))
	}

	f, err := d.reg.Lookup(channel)
	if err != nil {
		return d.finish(start, channel, "", failureFrom(channel, err))
	}

	if d.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
	}

	h, err := f.New()
	if err != nil {
		return d.finish(start, channel, "", Failure(handler.NewError(handler.KindConstruction, channel, err)))
	}

	id := uuid.NewString()
	done := make(chan handlerReturn, 1)
	go func() {
		res, err := h.Handle(ctx, payload)
		done <- handlerReturn{res: res, err: err}
	}()

	select {
	case ret := <-done:
		if ret.err != nil {
			if ctx.Err() != nil && errors.Is(ret.err, ctx.Err()) {
				return d.finish(start, channel, id, Failure(handler.NewError(handler.KindTimeout, channel, ret.err)))
			}
			return d.finish(start, channel, id, Failure(handler.NewError(handler.KindHandler, channel, ret.err)))
		}
		res := ret.res
		res.Channel = channel
		if res.MessageID == "" {
			res.MessageID = id
		}
		return d.finish(start, channel, res.MessageID, Success(res))
	case <-ctx.Done():
		return d.finish(start, channel, id, Failure(handler.NewError(handler.KindTimeout, channel, ctx.Err())))
	}
}

// finish records metrics, publishes the dispatch event and logs the outcome.
func (d *Dispatcher) finish(start time.Time, channel, id string, out Outcome) Outcome {
	dur := time.Since(start)
	rec := metrics.DispatchRecord{Channel: channel, OK: out.OK(), Kind: string(out.Kind()), Duration: dur, Time: start}
	if err := d.sink.RecordDispatch(rec); err != nil {
		d.log.Warnf("record dispatch metric: %v", err)
	}
	if d.bus != nil {
		ev := events.DispatchEvent{MessageID: id, Channel: channel, OK: out.OK(), Kind: out.Kind(), Duration: dur, Time: start}
		if out.Err != nil {
			ev.Err = out.Err.Error()
		}
		d.bus.Publish(ev)
	}
	if out.OK() {
		d.log.Debugw("dispatched", map[string]any{"channel": channel, "message_id": out.Result.MessageID, "duration_ms": dur.Milliseconds()})
	} else {
		d.log.Errorf("dispatch %s failed: %v", channel, out.Err)
	}
	return out
}

// failureFrom wraps err into a failure outcome, preserving an existing typed
// error unchanged.
func failureFrom(channel string, err error) Outcome {
	var de *handler.Error
	if errors.As(err, &de) {
		return Failure(de)
	}
	return Failure(handler.NewError(handler.KindHandler, channel, err))
}
