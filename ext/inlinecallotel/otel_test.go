package inlinecallotel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/skosovsky/inlinecall"
	"github.com/skosovsky/inlinecall/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newProvider(t *testing.T) (*sdktrace.TracerProvider, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return tp, recorder
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range attrs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestMiddleware_ValueResult(t *testing.T) {
	tp, recorder := newProvider(t)
	tool := &testutil.MockTool{NameVal: "weather", InvokeFn: func(context.Context, []byte) (inlinecall.Result, error) {
		return inlinecall.ValueResult("sunny"), nil
	}}
	ic := testutil.NewTestInterceptor([]inlinecall.Tool{tool})
	ic.Registry().Use(Middleware(WithTracerProvider(tp)))

	out, err := inlinecall.Collect(ic.Stream(context.Background(),
		inlinecall.Fragments(`<function_call>weather({"city":"Oslo"})</function_call>`)).All())
	require.NoError(t, err)
	assert.Contains(t, out, "sunny")

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "tool weather", spans[0].Name())
	v, ok := attrValue(spans[0].Attributes(), AttrToolName)
	require.True(t, ok)
	assert.Equal(t, "weather", v.AsString())
	v, ok = attrValue(spans[0].Attributes(), AttrStreaming)
	require.True(t, ok)
	assert.False(t, v.AsBool())
}

func TestMiddleware_ErrorSetsStatus(t *testing.T) {
	tp, recorder := newProvider(t)
	tool := &testutil.MockTool{NameVal: "broken", InvokeFn: func(context.Context, []byte) (inlinecall.Result, error) {
		return inlinecall.Result{}, errors.New("backend down")
	}}
	wrapped := Middleware(WithTracerProvider(tp))(tool)
	_, err := wrapped.Invoke(context.Background(), []byte(`{}`))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "backend down", spans[0].Status().Description)
}

func TestMiddleware_StreamSpanEndsAfterDrain(t *testing.T) {
	tp, recorder := newProvider(t)
	tool := &testutil.MockTool{NameVal: "ticker", InvokeFn: func(context.Context, []byte) (inlinecall.Result, error) {
		return inlinecall.StreamResult(inlinecall.Fragments("1", "2", "3")), nil
	}}
	wrapped := Middleware(WithTracerProvider(tp))(tool)
	res, err := wrapped.Invoke(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Empty(t, recorder.Ended(), "span stays open until the stream is drained")

	got, err := inlinecall.Collect(res.Stream)
	require.NoError(t, err)
	assert.Equal(t, "123", got)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	v, ok := attrValue(spans[0].Attributes(), AttrFragments)
	require.True(t, ok)
	assert.Equal(t, int64(3), v.AsInt64())
}

func TestMiddleware_StreamEarlyStopEndsSpan(t *testing.T) {
	tp, recorder := newProvider(t)
	tool := &testutil.MockTool{NameVal: "ticker", InvokeFn: func(context.Context, []byte) (inlinecall.Result, error) {
		return inlinecall.StreamResult(inlinecall.Fragments("1", "2", "3")), nil
	}}
	res, err := Middleware(WithTracerProvider(tp))(tool).Invoke(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	for range res.Stream {
		break
	}
	require.Len(t, recorder.Ended(), 1)
}

func TestOnCall_AddsEventsToPassSpan(t *testing.T) {
	tp, recorder := newProvider(t)
	tool := &testutil.MockTool{NameVal: "ok"}
	ic := testutil.NewTestInterceptor([]inlinecall.Tool{tool}, inlinecall.WithOnCall(OnCall))

	ctx, span := tp.Tracer("test").Start(context.Background(), "pass")
	_, err := inlinecall.Collect(ic.Stream(ctx, inlinecall.Fragments(
		"<function_call>ok({})</function_call><function_call>missing({})</function_call>")).All())
	require.NoError(t, err)
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 2)
	assert.Equal(t, "function_call", events[0].Name)
	_, failed := attrValue(events[0].Attributes, AttrErrorKind)
	assert.False(t, failed)
	kind, failed := attrValue(events[1].Attributes, AttrErrorKind)
	require.True(t, failed)
	assert.Equal(t, "tool_not_found", kind.AsString())
}

func TestOnCall_NoSpanIsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		OnCall(context.Background(), inlinecall.CallRecord{Tool: "x"})
	})
}
