package inlinecall

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterceptorOptions_Defaults(t *testing.T) {
	o := defaultInterceptorOptions()
	require.NotNil(t, o.logger)
	assert.Equal(t, InlineFormat("t", "{}", "r"), o.streamFormat("t", "{}", "r"))
	assert.Equal(t, CompletionFormat("t", "{}", "r"), o.batchFormat("t", "{}", "r"))
	assert.False(t, o.flushUnterminated)
	assert.False(t, o.repairArgs)
	assert.Nil(t, o.onCall)
}

func TestInterceptorOptions_NilValuesKeepDefaults(t *testing.T) {
	o := defaultInterceptorOptions()
	WithLogger(nil)(&o)
	WithResultFormat(nil)(&o)
	require.NotNil(t, o.logger)
	require.NotNil(t, o.streamFormat)
	require.NotNil(t, o.batchFormat)
}

func TestInterceptorOptions_Apply(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	hook := func(context.Context, CallRecord) {}
	o := defaultInterceptorOptions()
	for _, opt := range []InterceptorOption{
		WithLogger(logger),
		WithFlushUnterminated(true),
		WithArgumentRepair(),
		WithOnCall(hook),
		WithResultFormat(func(_, _, r string) string { return r }),
	} {
		opt(&o)
	}
	assert.Same(t, logger, o.logger)
	assert.True(t, o.flushUnterminated)
	assert.True(t, o.repairArgs)
	assert.NotNil(t, o.onCall)
	assert.Equal(t, "r", o.streamFormat("t", "a", "r"))
	assert.Equal(t, "r", o.batchFormat("t", "a", "r"))
}

func TestWithStrict(t *testing.T) {
	type Args struct {
		A string `json:"a,omitempty"`
	}
	tool, err := NewTool("s", "d", func(_ context.Context, _ Args) (string, error) { return "", nil }, WithStrict())
	require.NoError(t, err)
	params := tool.Parameters()
	assert.Equal(t, false, params["additionalProperties"])
	assert.Equal(t, []any{"a"}, params["required"])
}

func TestCompletionFormat(t *testing.T) {
	assert.Equal(t, "\n[Tool returned]: 5\n", CompletionFormat("add", "{}", "5"))
	assert.Equal(t, "[Function Call: add({}), Result: 5]", InlineFormat("add", "{}", "5"))
}
