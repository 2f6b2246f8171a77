// Package inlinecallotel traces inline tool calls with OpenTelemetry.
//
// Middleware wraps every tool in a span; for streaming results the span stays open until
// the stream is drained or the consumer stops. OnCall adds one event per dispatched directive
// to the span already in the pass context, failed ones included.
package inlinecallotel

import (
	"context"
	"iter"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skosovsky/inlinecall"
)

const instrumentationName = "github.com/skosovsky/inlinecall/ext/inlinecallotel"

// Attribute keys set on spans and events.
const (
	AttrToolName  = attribute.Key("inlinecall.tool.name")
	AttrCallID    = attribute.Key("inlinecall.call.id")
	AttrArgsBytes = attribute.Key("inlinecall.args.bytes")
	AttrStreaming = attribute.Key("inlinecall.streaming")
	AttrFragments = attribute.Key("inlinecall.fragments")
	AttrErrorKind = attribute.Key("inlinecall.error.kind")
)

type config struct {
	tp trace.TracerProvider
}

// Option configures the tracing middleware.
type Option func(*config)

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		if tp != nil {
			c.tp = tp
		}
	}
}

// Middleware returns an inlinecall.Middleware that starts a span named "tool <name>"
// around every Invoke.
func Middleware(opts ...Option) inlinecall.Middleware {
	cfg := config{tp: otel.GetTracerProvider()}
	for _, o := range opts {
		o(&cfg)
	}
	tracer := cfg.tp.Tracer(instrumentationName)
	return func(next inlinecall.Tool) inlinecall.Tool {
		return &tracingTool{ToolBase: inlinecall.ToolBase{Next: next}, tracer: tracer}
	}
}

type tracingTool struct {
	inlinecall.ToolBase
	tracer trace.Tracer
}

func (t *tracingTool) Invoke(ctx context.Context, args []byte) (inlinecall.Result, error) {
	name := t.Next.Name()
	ctx, span := t.tracer.Start(ctx, "tool "+name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrToolName.String(name), AttrArgsBytes.Int(len(args))),
	)
	res, err := t.Next.Invoke(ctx, args)
	if err != nil {
		fail(span, err)
		span.End()
		return inlinecall.Result{}, err
	}
	if !res.IsStream() {
		span.SetAttributes(AttrStreaming.Bool(false))
		span.End()
		return res, nil
	}
	span.SetAttributes(AttrStreaming.Bool(true))
	return inlinecall.StreamResult(traceStream(res.Stream, span)), nil
}

// traceStream ends span once seq is exhausted, fails, or the consumer stops.
func traceStream(seq iter.Seq2[string, error], span trace.Span) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		n := 0
		defer func() {
			span.SetAttributes(AttrFragments.Int(n))
			span.End()
		}()
		for frag, err := range seq {
			if err != nil {
				fail(span, err)
			} else {
				n++
			}
			if !yield(frag, err) {
				return
			}
		}
	}
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// OnCall is a hook for inlinecall.WithOnCall. It records the call as an event on the
// span carried by ctx; without a recording span it does nothing.
func OnCall(ctx context.Context, rec inlinecall.CallRecord) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	attrs := []attribute.KeyValue{
		AttrCallID.String(rec.ID),
		AttrToolName.String(rec.Tool),
		AttrStreaming.Bool(rec.Streaming),
	}
	if rec.Failed() {
		attrs = append(attrs, AttrErrorKind.String(inlinecall.KindOf(rec.Err).String()))
	}
	span.AddEvent("function_call", trace.WithAttributes(attrs...), trace.WithTimestamp(rec.Time))
}
