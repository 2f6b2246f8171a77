package inlinecall

import (
	"context"
	"iter"
	"log/slog"
	"time"
)

// Middleware wraps a Tool with cross-cutting behavior (logging, tracing).
type Middleware func(Tool) Tool

// ToolBase delegates the descriptive half of Tool and ArgumentValidator to Next.
// Embed it in middleware wrappers and override Invoke.
type ToolBase struct{ Next Tool }

func (b ToolBase) Name() string               { return b.Next.Name() }
func (b ToolBase) Description() string        { return b.Next.Description() }
func (b ToolBase) Parameters() map[string]any { return b.Next.Parameters() }

// ValidateArgs forwards to Next when it validates arguments; otherwise accepts everything.
func (b ToolBase) ValidateArgs(argsJSON []byte) error {
	if v, ok := b.Next.(ArgumentValidator); ok {
		return v.ValidateArgs(argsJSON)
	}
	return nil
}

// WithLogging returns a middleware that logs start, end, duration, and errors.
// For streaming results "tool end" is logged once the stream has been drained.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggingTool{ToolBase: ToolBase{Next: next}, logger: logger}
	}
}

type loggingTool struct {
	ToolBase
	logger *slog.Logger
}

func (m *loggingTool) Invoke(ctx context.Context, args []byte) (Result, error) {
	name := m.Next.Name()
	m.logger.InfoContext(ctx, "tool start", "tool", name)
	start := time.Now()
	res, err := m.Next.Invoke(ctx, args)
	if err != nil {
		m.logger.ErrorContext(ctx, "tool error", "tool", name, "duration", time.Since(start), "error", err)
		return Result{}, err
	}
	if !res.IsStream() {
		m.logger.InfoContext(ctx, "tool end", "tool", name, "duration", time.Since(start))
		return res, nil
	}
	return StreamResult(observeStream(res.Stream, func(fragments int, err error) {
		if err != nil {
			m.logger.ErrorContext(ctx, "tool error", "tool", name, "duration", time.Since(start), "fragments", fragments, "error", err)
			return
		}
		m.logger.InfoContext(ctx, "tool end", "tool", name, "duration", time.Since(start), "fragments", fragments)
	})), nil
}

// observeStream passes seq through unchanged and calls done exactly once when the stream
// ends, fails, or the consumer stops pulling.
func observeStream(seq iter.Seq2[string, error], done func(fragments int, err error)) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		var (
			n       int
			lastErr error
		)
		defer func() { done(n, lastErr) }()
		for frag, err := range seq {
			if err != nil {
				lastErr = err
			} else {
				n++
			}
			if !yield(frag, err) {
				return
			}
		}
	}
}
