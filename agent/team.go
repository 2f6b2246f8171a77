package agent

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/skosovsky/inlinecall"
)

// AskTeamMemberName is the name of the tool that relays a question to another member.
const AskTeamMemberName = "ask_team_member"

// AgentNotFound is the text the ask_team_member tool returns for an unknown member name.
const AgentNotFound = "Agent not found"

type askArgs struct {
	Name     string `json:"name" jsonschema:"The name of the team member to ask for help"`
	Question string `json:"question" jsonschema:"The question to ask the team member"`
}

// TeamInfo describes a team; it is shown to every member in the team prompt.
type TeamInfo struct {
	Name      string
	Goal      string
	Backstory string
}

// Team groups agents so they can see each other and, when allowed, ask each other questions.
type Team struct {
	info    TeamInfo
	tools   []inlinecall.Tool
	askTool inlinecall.Tool

	mu      sync.RWMutex
	members []*Agent
}

// TeamOption configures a Team.
type TeamOption func(*Team)

// WithTeamTools gives every member the given tools.
func WithTeamTools(tools ...inlinecall.Tool) TeamOption {
	return func(t *Team) {
		t.tools = append(t.tools, tools...)
	}
}

// NewTeam creates a team and adds members in order.
func NewTeam(info TeamInfo, members []*Agent, opts ...TeamOption) (*Team, error) {
	t := &Team{info: info}
	for _, opt := range opts {
		opt(t)
	}
	ask, err := inlinecall.NewStreamTool(AskTeamMemberName, "Ask other members in your team for help", t.ask)
	if err != nil {
		return nil, fmt.Errorf("team %q: %w", info.Name, err)
	}
	t.askTool = ask
	for _, m := range members {
		t.Add(m)
	}
	return t, nil
}

// Info returns the team description.
func (t *Team) Info() TeamInfo { return t.info }

// Add makes a a member: it gets the team tools, ask_team_member when it allows asking
// others, and the team prompt. Every member's team prompt is refreshed so it lists a.
func (t *Team) Add(a *Agent) {
	if a == nil {
		return
	}
	t.mu.Lock()
	if slices.Contains(t.members, a) {
		t.mu.Unlock()
		return
	}
	t.members = append(t.members, a)
	t.mu.Unlock()

	for _, tool := range t.tools {
		a.AddTool(tool)
	}
	if a.AllowsAskOthers() {
		a.AddTool(t.askTool)
	}
	t.refreshPrompts()
}

// Remove takes the named member out of the team and strips the team prompt and tools from
// it. It reports whether the member was found.
func (t *Team) Remove(name string) bool {
	t.mu.Lock()
	i := slices.IndexFunc(t.members, func(m *Agent) bool { return m.Name() == name })
	if i < 0 {
		t.mu.Unlock()
		return false
	}
	a := t.members[i]
	t.members = slices.Delete(t.members, i, i+1)
	t.mu.Unlock()

	a.setTeamPrompt("")
	a.RemoveTool(AskTeamMemberName)
	for _, tool := range t.tools {
		a.RemoveTool(tool.Name())
	}
	t.refreshPrompts()
	return true
}

// Member returns the member with the given name.
func (t *Team) Member(name string) (*Agent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.members {
		if m.Name() == name {
			return m, true
		}
	}
	return nil, false
}

// Members returns the member names in the order they joined.
func (t *Team) Members() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, len(t.members))
	for i, m := range t.members {
		out[i] = m.Name()
	}
	return out
}

// Prompt returns the team section of the members' system messages.
func (t *Team) Prompt() string {
	t.mu.RLock()
	members := slices.Clone(t.members)
	t.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "Your team name: %s\n", t.info.Name)
	fmt.Fprintf(&b, "Your team goal: %s\n", t.info.Goal)
	fmt.Fprintf(&b, "Your team backstory: %s\n", t.info.Backstory)
	fmt.Fprintf(&b, "You can ask other members in your team for help by using the %s function.\n", AskTeamMemberName)
	b.WriteString("Other members in your team:\n")
	for _, m := range members {
		id := m.Identity()
		fmt.Fprintf(&b, "\nMember name: %s\nMember backstory: %s\nMember tools:\n", id.Name, id.Backstory)
		for _, tool := range m.Registry().GetAllTools() {
			fmt.Fprintf(&b, "%s: %s\n", tool.Name(), tool.Description())
		}
	}
	return b.String()
}

func (t *Team) refreshPrompts() {
	prompt := t.Prompt()
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, m := range t.members {
		m.setTeamPrompt(prompt)
	}
}

// ask relays the question to the named member and streams the member's reply back.
func (t *Team) ask(ctx context.Context, args askArgs, yield func(string) error) error {
	member, ok := t.Member(args.Name)
	if !ok {
		return yield(AgentNotFound)
	}
	for frag, err := range member.Chat(ctx, args.Question) {
		if err != nil {
			return err
		}
		if err := yield(frag); err != nil {
			return err
		}
	}
	return nil
}
