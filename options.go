package inlinecall

import (
	"context"
	"log/slog"
)

// toolOptions hold optional tool settings.
type toolOptions struct {
	strict bool
}

// ToolOption configures a tool built by NewTool, NewStreamTool or NewDynamicTool.
type ToolOption func(*toolOptions)

// WithStrict sets strict mode for the argument schema: additionalProperties: false for all
// objects, and all properties become required.
func WithStrict() ToolOption {
	return func(o *toolOptions) {
		o.strict = true
	}
}

// InterceptorOption configures an Interceptor.
type InterceptorOption func(*interceptorOptions)

type interceptorOptions struct {
	logger            *slog.Logger
	streamFormat      ResultFormat
	batchFormat       ResultFormat
	flushUnterminated bool
	repairArgs        bool
	onCall            func(context.Context, CallRecord)
}

func defaultInterceptorOptions() interceptorOptions {
	return interceptorOptions{
		logger:       slog.Default(),
		streamFormat: InlineFormat,
		batchFormat:  CompletionFormat,
	}
}

// WithLogger sets the logger used for dispatch events. Nil keeps slog.Default().
func WithLogger(logger *slog.Logger) InterceptorOption {
	return func(o *interceptorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithResultFormat sets the template for plain-value results in both streaming and batch
// passes. By default streams use InlineFormat and batch rewrites use CompletionFormat.
func WithResultFormat(f ResultFormat) InterceptorOption {
	return func(o *interceptorOptions) {
		if f != nil {
			o.streamFormat = f
			o.batchFormat = f
		}
	}
}

// WithFlushUnterminated controls what happens to a directive that was opened but never
// closed when the source ends. The default (false) drops it; true emits it as literal text.
func WithFlushUnterminated(enable bool) InterceptorOption {
	return func(o *interceptorOptions) {
		o.flushUnterminated = enable
	}
}

// WithArgumentRepair makes the dispatcher try to repair malformed argument JSON
// (trailing commas, single quotes, unquoted keys) before reporting a parsing failure.
func WithArgumentRepair() InterceptorOption {
	return func(o *interceptorOptions) {
		o.repairArgs = true
	}
}

// WithOnCall sets a hook called with every CallRecord, right after the call is dispatched.
// For streaming results the hook runs before the stream is drained.
func WithOnCall(fn func(context.Context, CallRecord)) InterceptorOption {
	return func(o *interceptorOptions) {
		o.onCall = fn
	}
}
