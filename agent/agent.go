// Package agent runs a conversational agent whose model output is rewritten by an
// inlinecall.Interceptor: tool directives the model writes are executed and replaced inline.
package agent

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/skosovsky/inlinecall"
)

// Role is the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation sent to the model.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Model streams a completion for a conversation. Implementations must stop producing
// fragments when the consumer stops iterating.
type Model interface {
	Stream(ctx context.Context, messages []Message) iter.Seq2[string, error]
}

// Identity describes who the agent is; it becomes the head of the system prompt.
type Identity struct {
	Name      string
	Backstory string
	Goal      string
}

var (
	ErrNilModel  = errors.New("agent: model must not be nil")
	ErrEmptyName = errors.New("agent: name must not be empty")
)

// Agent keeps an in-memory conversation with a Model and rewrites every response through
// its own tool registry. Methods are safe for concurrent use, but turns of one conversation
// should not overlap: history is appended when a turn ends.
type Agent struct {
	model       Model
	registry    *inlinecall.Registry
	interceptor *inlinecall.Interceptor
	logger      *slog.Logger
	askOthers   bool

	mu         sync.Mutex
	identity   Identity
	teamPrompt string
	history    []Message
	lastCalls  []inlinecall.CallRecord
}

// New creates an Agent. The tools given with WithTools are registered before the first turn.
func New(id Identity, model Model, opts ...Option) (*Agent, error) {
	if model == nil {
		return nil, ErrNilModel
	}
	if id.Name == "" {
		return nil, ErrEmptyName
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	reg := inlinecall.NewRegistry(o.tools...)
	if len(o.middlewares) > 0 {
		reg.Use(o.middlewares...)
	}
	icOpts := append([]inlinecall.InterceptorOption{inlinecall.WithLogger(o.logger)}, o.interceptorOpts...)
	return &Agent{
		model:       model,
		registry:    reg,
		interceptor: inlinecall.NewInterceptor(reg, icOpts...),
		logger:      o.logger,
		askOthers:   o.askOthers,
		identity:    id,
	}, nil
}

// Name returns the agent's current name.
func (a *Agent) Name() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity.Name
}

// Identity returns the agent's current identity.
func (a *Agent) Identity() Identity {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.identity
}

// UpdateIdentity replaces the non-empty fields of id. The system prompt of the next turn
// reflects the change; history is kept.
func (a *Agent) UpdateIdentity(id Identity) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id.Name != "" {
		a.identity.Name = id.Name
	}
	if id.Backstory != "" {
		a.identity.Backstory = id.Backstory
	}
	if id.Goal != "" {
		a.identity.Goal = id.Goal
	}
}

// AllowsAskOthers reports whether a Team gives this agent the ask_team_member tool.
func (a *Agent) AllowsAskOthers() bool { return a.askOthers }

// Registry returns the agent's tool registry.
func (a *Agent) Registry() *inlinecall.Registry { return a.registry }

// AddTool registers t (replacing a tool of the same name).
func (a *Agent) AddTool(t inlinecall.Tool) { a.registry.Register(t) }

// RemoveTool unregisters the named tool; unknown names are ignored.
func (a *Agent) RemoveTool(name string) { a.registry.Unregister(name) }

// Tools returns the names of the agent's tools, sorted.
func (a *Agent) Tools() []string { return a.registry.Names() }

// SystemPrompt returns the identity section followed by the tool section, if any.
func (a *Agent) SystemPrompt() string {
	id := a.Identity()
	var b strings.Builder
	b.WriteString("You are " + id.Name + "\n")
	b.WriteString("Your backstory: " + id.Backstory + "\n")
	b.WriteString("Your goal is: " + id.Goal + "\n")
	if tools := a.registry.SystemPrompt(); tools != "" {
		b.WriteString("\n" + tools)
	}
	return b.String()
}

func (a *Agent) setTeamPrompt(p string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.teamPrompt = p
}

// Messages returns what the next turn sends before the new user message: the system
// prompt, the team prompt when the agent belongs to a team, and the history.
func (a *Agent) Messages() []Message {
	sys := a.SystemPrompt()
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Message, 0, len(a.history)+2)
	out = append(out, Message{Role: RoleSystem, Content: sys})
	if a.teamPrompt != "" {
		out = append(out, Message{Role: RoleSystem, Content: a.teamPrompt})
	}
	return append(out, a.history...)
}

// History returns the user and assistant messages so far.
func (a *Agent) History() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.history)
}

// LastCalls returns the audit trail of the most recent finished turn.
func (a *Agent) LastCalls() []inlinecall.CallRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.lastCalls)
}

// ClearContext drops the history. Identity, tools and team membership stay.
func (a *Agent) ClearContext() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
	a.lastCalls = nil
}

// beginTurn appends the user message and returns the conversation to send.
func (a *Agent) beginTurn(message string) []Message {
	msgs := a.Messages()
	user := Message{Role: RoleUser, Content: message}
	a.mu.Lock()
	a.history = append(a.history, user)
	a.mu.Unlock()
	return append(msgs, user)
}

func (a *Agent) endTurn(reply string, calls []inlinecall.CallRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if reply != "" {
		a.history = append(a.history, Message{Role: RoleAssistant, Content: reply})
	}
	a.lastCalls = calls
}

// Chat sends message and streams the rewritten reply. Nothing happens until the result is
// iterated. The reply produced so far is appended to the history when iteration ends,
// including when the consumer stops early or the model fails.
func (a *Agent) Chat(ctx context.Context, message string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		msgs := a.beginTurn(message)
		pass := a.interceptor.Stream(ctx, a.model.Stream(ctx, msgs))
		var reply strings.Builder
		defer func() { a.endTurn(reply.String(), pass.Calls()) }()
		for frag, err := range pass.All() {
			if err != nil {
				a.logger.WarnContext(ctx, "model stream failed", "agent", a.Name(), "error", err)
				yield("", err)
				return
			}
			reply.WriteString(frag)
			if !yield(frag, nil) {
				return
			}
		}
	}
}

// Complete sends message, waits for the whole model response and returns it with every
// directive replaced. On a model error nothing is appended for the assistant.
func (a *Agent) Complete(ctx context.Context, message string) (string, error) {
	msgs := a.beginTurn(message)
	raw, err := inlinecall.Collect(a.model.Stream(ctx, msgs))
	if err != nil {
		a.logger.WarnContext(ctx, "model stream failed", "agent", a.Name(), "error", err)
		a.endTurn("", nil)
		return "", err
	}
	reply, calls := a.interceptor.Rewrite(ctx, raw)
	a.endTurn(reply, calls)
	return reply, nil
}
