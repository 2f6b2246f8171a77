package inlinecall

import (
	"context"
	"errors"
	"iter"
)

var errPassConsumed = errors.New("inlinecall: stream pass already consumed")

// Interceptor rewrites model output so that embedded directives are replaced by the
// results of the tools they name. It holds no per-pass state: every Stream or Rewrite call
// gets its own scanner, audit log and executed-set, so one Interceptor can serve many
// concurrent passes.
type Interceptor struct {
	registry   *Registry
	dispatcher *Dispatcher
	opts       interceptorOptions
}

// NewInterceptor creates an Interceptor dispatching to the tools in reg.
func NewInterceptor(reg *Registry, opts ...InterceptorOption) *Interceptor {
	d := NewDispatcher(reg, opts...)
	return &Interceptor{registry: reg, dispatcher: d, opts: d.opts}
}

// Registry returns the registry the interceptor dispatches to.
func (ic *Interceptor) Registry() *Registry { return ic.registry }

// Dispatcher returns the dispatcher shared by all passes.
func (ic *Interceptor) Dispatcher() *Dispatcher { return ic.dispatcher }

// StreamPass is one streaming rewrite over a fragment source.
type StreamPass struct {
	ctx     context.Context
	ic      *Interceptor
	src     iter.Seq2[string, error]
	log     auditLog
	started bool
}

// Stream starts a streaming pass over src. Nothing is read from src and no tool runs until
// the pass is iterated.
func (ic *Interceptor) Stream(ctx context.Context, src iter.Seq2[string, error]) *StreamPass {
	return &StreamPass{ctx: ctx, ic: ic, src: src}
}

// All returns the rewritten fragments. Directives are dispatched in the order they close,
// on the consumer's goroutine, only as the consumer pulls. Fragments of a streaming tool
// result are yielded as the tool produces them. Tool failures appear as inline diagnostics;
// the only error yielded is one from src, which ends the pass. A pass can be iterated once.
func (p *StreamPass) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if p.started {
			yield("", errPassConsumed)
			return
		}
		p.started = true
		sc := Scanner{FlushUnterminated: p.ic.opts.flushUnterminated}
		for chunk, err := range p.src {
			if err != nil {
				yield("", err)
				return
			}
			if !p.emit(sc.Feed(chunk), yield) {
				return
			}
		}
		p.emit(sc.Finish(), yield)
	}
}

// Calls returns the audit trail of the pass. Read it after iteration has finished.
func (p *StreamPass) Calls() []CallRecord { return p.log.snapshot() }

func (p *StreamPass) emit(segs []Segment, yield func(string, error) bool) bool {
	for _, seg := range segs {
		if !seg.Directive {
			if !yield(seg.Text, nil) {
				return false
			}
			continue
		}
		if !p.run(seg.Text, yield) {
			return false
		}
	}
	return true
}

func (p *StreamPass) run(body string, yield func(string, error) bool) bool {
	out := p.ic.dispatcher.DispatchBody(p.ctx, ModeStream, body)
	p.log.add(out.Record)
	if out.Stream == nil {
		return out.Text == "" || yield(out.Text, nil)
	}
	stopped, err := drainStream(out.Stream, func(frag string) bool {
		return yield(frag, nil)
	})
	if stopped {
		return false
	}
	if err != nil {
		return yield(diagnostic(streamFailure(out.Record.Tool, err)), nil)
	}
	return true
}
