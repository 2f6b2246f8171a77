package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/inlinecall"
)

func newMember(t *testing.T, name string, model Model, opts ...Option) *Agent {
	t.Helper()
	a, err := New(Identity{Name: name, Backstory: name + " backstory", Goal: "help"}, model, append(opts, quiet())...)
	require.NoError(t, err)
	return a
}

func TestTeam_AddInjectsPromptAndTools(t *testing.T) {
	lead := newMember(t, "lead", &scriptedModel{}, WithAskOthers())
	expert := newMember(t, "expert", &scriptedModel{}, WithTools(newWeatherTool(t)))
	team, err := NewTeam(TeamInfo{Name: "crew", Goal: "answer", Backstory: "small"}, []*Agent{lead, expert})
	require.NoError(t, err)

	assert.Equal(t, []string{"lead", "expert"}, team.Members())
	assert.Equal(t, []string{AskTeamMemberName}, lead.Tools())
	assert.Equal(t, []string{"weather"}, expert.Tools(), "members without WithAskOthers do not get the tool")

	msgs := lead.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Your team name: crew")
	assert.Contains(t, msgs[1].Content, "Member name: expert")
	assert.Contains(t, msgs[1].Content, "weather: Get weather for a city")
	assert.Contains(t, msgs[1].Content, "Member name: lead", "earlier members see later ones")
}

func TestTeam_TeamTools(t *testing.T) {
	a := newMember(t, "a", &scriptedModel{})
	b := newMember(t, "b", &scriptedModel{})
	team, err := NewTeam(TeamInfo{Name: "t"}, []*Agent{a, b}, WithTeamTools(newWeatherTool(t)))
	require.NoError(t, err)
	assert.Equal(t, []string{"weather"}, a.Tools())
	assert.Equal(t, []string{"weather"}, b.Tools())

	require.True(t, team.Remove("a"))
	assert.Empty(t, a.Tools())
	assert.Len(t, a.Messages(), 1, "team prompt removed")
	assert.NotContains(t, b.Messages()[1].Content, "Member name: a\n")
	assert.False(t, team.Remove("a"))
}

func TestTeam_AddTwiceIsNoop(t *testing.T) {
	a := newMember(t, "a", &scriptedModel{})
	team, err := NewTeam(TeamInfo{Name: "t"}, nil)
	require.NoError(t, err)
	team.Add(a)
	team.Add(a)
	team.Add(nil)
	assert.Equal(t, []string{"a"}, team.Members())
	m, ok := team.Member("a")
	require.True(t, ok)
	assert.Same(t, a, m)
	_, ok = team.Member("zed")
	assert.False(t, ok)
}

func TestTeam_AskTeamMemberRelaysStream(t *testing.T) {
	expertModel := &scriptedModel{replies: [][]string{{"forty", "-two"}}}
	leadModel := &scriptedModel{replies: [][]string{{
		"Expert says: ",
		`<function_call>ask_team_member({"name":"expert","question":"meaning?"})</function_call>`,
		" and ",
		`<function_call>ask_team_member({"name":"ghost","question":"?"})</function_call>`,
	}}}
	lead := newMember(t, "lead", leadModel, WithAskOthers())
	expert := newMember(t, "expert", expertModel)
	_, err := NewTeam(TeamInfo{Name: "crew"}, []*Agent{lead, expert})
	require.NoError(t, err)

	var frags []string
	for frag, err := range lead.Chat(context.Background(), "ask the expert") {
		require.NoError(t, err)
		frags = append(frags, frag)
	}
	assert.Equal(t, []string{"Expert says: ", "forty", "-two", " and ", AgentNotFound}, frags)

	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "meaning?"},
		{Role: RoleAssistant, Content: "forty-two"},
	}, expert.History())

	calls := lead.LastCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, inlinecall.StreamingMarker, calls[0].Result)
}
