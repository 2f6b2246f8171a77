package agent

import (
	"log/slog"

	"github.com/skosovsky/inlinecall"
)

type options struct {
	tools           []inlinecall.Tool
	middlewares     []inlinecall.Middleware
	interceptorOpts []inlinecall.InterceptorOption
	logger          *slog.Logger
	askOthers       bool
}

// Option configures an Agent.
type Option func(*options)

// WithTools registers tools on the agent.
func WithTools(tools ...inlinecall.Tool) Option {
	return func(o *options) {
		o.tools = append(o.tools, tools...)
	}
}

// WithMiddleware applies middlewares to every tool of the agent, including tools added later.
func WithMiddleware(mw ...inlinecall.Middleware) Option {
	return func(o *options) {
		o.middlewares = append(o.middlewares, mw...)
	}
}

// WithInterceptorOptions passes options to the agent's interceptor.
func WithInterceptorOptions(opts ...inlinecall.InterceptorOption) Option {
	return func(o *options) {
		o.interceptorOpts = append(o.interceptorOpts, opts...)
	}
}

// WithLogger sets the logger for the agent and its interceptor.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAskOthers lets a Team give the agent the ask_team_member tool.
func WithAskOthers() Option {
	return func(o *options) {
		o.askOthers = true
	}
}
