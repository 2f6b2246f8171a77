// Package openaimodel implements agent.Model over any OpenAI-compatible chat-completions
// endpoint, streaming the completion fragment by fragment.
package openaimodel

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"

	"github.com/skosovsky/inlinecall/agent"
)

// DefaultModel is used when WithModel is not given.
const DefaultModel = "gpt-4o-mini"

// DefaultMaxRetries is how often opening a stream is retried after the first attempt.
const DefaultMaxRetries = 3

type options struct {
	apiKey      string
	baseURL     string
	model       string
	temperature *float64
	maxRetries  uint64
	httpClient  *http.Client
	newBackOff  func() backoff.BackOff
	logger      *slog.Logger
}

// Option configures a Model.
type Option func(*options)

// WithAPIKey sets the bearer token.
func WithAPIKey(key string) Option { return func(o *options) { o.apiKey = key } }

// WithBaseURL points the client at an OpenAI-compatible server.
func WithBaseURL(url string) Option { return func(o *options) { o.baseURL = url } }

// WithModel sets the model name.
func WithModel(name string) Option { return func(o *options) { o.model = name } }

// WithTemperature sets the sampling temperature. Unset leaves the server default.
func WithTemperature(t float64) Option { return func(o *options) { o.temperature = &t } }

// WithMaxRetries sets how often opening a stream is retried. Zero disables retries.
func WithMaxRetries(n uint64) Option { return func(o *options) { o.maxRetries = n } }

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option { return func(o *options) { o.httpClient = c } }

// WithBackOff sets the retry schedule; the factory is called once per Stream.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(o *options) {
		if factory != nil {
			o.newBackOff = factory
		}
	}
}

// WithLogger sets the logger for retry events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// Model streams chat completions. It is safe for concurrent use.
type Model struct {
	client openai.Client
	opts   options
}

// New creates a Model. Retries inside the SDK are disabled; Model retries itself until the
// first fragment arrives, so a stream that already produced text is never replayed.
func New(opts ...Option) *Model {
	o := options{
		model:      DefaultModel,
		maxRetries: DefaultMaxRetries,
		newBackOff: defaultBackOff,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if o.apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(o.httpClient))
	}
	return &Model{client: openai.NewClient(reqOpts...), opts: o}
}

// Name returns the configured model name.
func (m *Model) Name() string { return m.opts.model }

type chunkStream = ssestream.Stream[openai.ChatCompletionChunk]

// Stream implements agent.Model. The request is sent when the sequence is first iterated.
func (m *Model) Stream(ctx context.Context, messages []agent.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		params := m.params(messages)
		var (
			stream *chunkStream
			first  string
		)
		attempt := 0
		open := func() error {
			attempt++
			s := m.client.Chat.Completions.NewStreaming(ctx, params)
			if frag, ok := nextContent(s); ok {
				stream, first = s, frag
				return nil
			}
			err := s.Err()
			m.closeStream(ctx, s)
			if err == nil {
				return nil
			}
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		notify := func(err error, wait time.Duration) {
			m.opts.logger.WarnContext(ctx, "model stream failed, retrying",
				"model", m.opts.model, "attempt", attempt, "wait", wait, "error", err)
		}
		b := backoff.WithContext(backoff.WithMaxRetries(m.opts.newBackOff(), m.opts.maxRetries), ctx)
		if err := backoff.RetryNotify(open, b, notify); err != nil {
			yield("", err)
			return
		}
		if stream == nil {
			return
		}
		defer m.closeStream(ctx, stream)
		if !yield(first, nil) {
			return
		}
		for {
			frag, ok := nextContent(stream)
			if !ok {
				break
			}
			if !yield(frag, nil) {
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield("", err)
		}
	}
}

// closeStream closes a model stream, logging a failed close at debug level.
func (m *Model) closeStream(ctx context.Context, s io.Closer) {
	if err := s.Close(); err != nil {
		m.opts.logger.DebugContext(ctx, "close model stream", "model", m.opts.model, "error", err)
	}
}

// nextContent advances to the next chunk with non-empty content.
func nextContent(s *chunkStream) (string, bool) {
	for s.Next() {
		chunk := s.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if c := chunk.Choices[0].Delta.Content; c != "" {
			return c, true
		}
	}
	return "", false
}

// retryable reports whether opening the stream may succeed on another attempt: transport
// failures, rate limits and server errors are, other API errors are not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func (m *Model) params(messages []agent.Message) openai.ChatCompletionNewParams {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case agent.RoleSystem:
			msgs = append(msgs, openai.SystemMessage(msg.Content))
		case agent.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(msg.Content))
		default:
			msgs = append(msgs, openai.UserMessage(msg.Content))
		}
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(m.opts.model),
		Messages: msgs,
	}
	if m.opts.temperature != nil {
		params.Temperature = openai.Float(*m.opts.temperature)
	}
	return params
}

var _ agent.Model = (*Model)(nil)
