package testutil

import (
	"log/slog"

	"github.com/skosovsky/inlinecall"
)

// NewTestRegistry returns a Registry holding tools.
func NewTestRegistry(tools ...inlinecall.Tool) *inlinecall.Registry {
	return inlinecall.NewRegistry(tools...)
}

// NewTestInterceptor returns an Interceptor over tools that logs nowhere. Extra options are
// applied after the quiet logger, so a test can still pass its own.
func NewTestInterceptor(tools []inlinecall.Tool, opts ...inlinecall.InterceptorOption) *inlinecall.Interceptor {
	opts = append([]inlinecall.InterceptorOption{inlinecall.WithLogger(slog.New(slog.DiscardHandler))}, opts...)
	return inlinecall.NewInterceptor(NewTestRegistry(tools...), opts...)
}
