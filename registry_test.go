package inlinecall

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndGet(t *testing.T) {
	echo := newEchoTool(t)
	reg := NewRegistry(echo)
	got, ok := reg.GetTool("echo")
	require.True(t, ok)
	assert.Same(t, echo, got)
	_, ok = reg.GetTool("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	first, err := NewTool("dup", "first", func(_ context.Context, _ struct{}) (string, error) { return "1", nil })
	require.NoError(t, err)
	second, err := NewTool("dup", "second", func(_ context.Context, _ struct{}) (string, error) { return "2", nil })
	require.NoError(t, err)
	reg := NewRegistry(first, second)
	assert.Equal(t, 1, reg.Len())
	got, ok := reg.GetTool("dup")
	require.True(t, ok)
	assert.Equal(t, "second", got.Description())
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry(newEchoTool(t))
	reg.Unregister("missing")
	assert.Equal(t, 1, reg.Len())
	reg.Unregister("echo")
	assert.Equal(t, 0, reg.Len())
	_, ok := reg.GetTool("echo")
	assert.False(t, ok)
}

func TestRegistry_SortedListing(t *testing.T) {
	calls := 0
	reg := NewRegistry(newCountingTool(t, "zeta", &calls), newEchoTool(t), newCountingTool(t, "alpha", &calls))
	assert.Equal(t, []string{"alpha", "echo", "zeta"}, reg.Names())
	all := reg.GetAllTools()
	require.Len(t, all, 3)
	assert.Equal(t, "alpha", all[0].Name())
	assert.Equal(t, "zeta", all[2].Name())
}

func TestRegistry_Use_AppliesOnionOrderWithoutDoubleWrap(t *testing.T) {
	var trace []string
	tag := func(label string) Middleware {
		return func(next Tool) Tool {
			return &taggedTool{ToolBase: ToolBase{Next: next}, label: label, trace: &trace}
		}
	}
	reg := NewRegistry(newEchoTool(t))
	reg.Use(tag("outer"), tag("inner"))
	reg.Use(tag("outer"), tag("inner"))

	tool, ok := reg.GetTool("echo")
	require.True(t, ok)
	_, err := tool.Invoke(context.Background(), []byte(`{"text":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, trace)

	trace = nil
	calls := 0
	reg.Register(newCountingTool(t, "late", &calls))
	late, _ := reg.GetTool("late")
	_, err = late.Invoke(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, trace)
}

type taggedTool struct {
	ToolBase
	label string
	trace *[]string
}

func (t *taggedTool) Invoke(ctx context.Context, args []byte) (Result, error) {
	*t.trace = append(*t.trace, t.label)
	return t.Next.Invoke(ctx, args)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	echo := newEchoTool(t)
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			reg.Register(echo)
			_, _ = reg.GetTool("echo")
			_ = reg.SystemPrompt()
		})
	}
	wg.Wait()
	assert.Equal(t, 1, reg.Len())
}

func TestSystemPrompt_EmptyRegistry(t *testing.T) {
	assert.Empty(t, NewRegistry().SystemPrompt())
}

func TestSystemPrompt_ListsToolsAndSyntax(t *testing.T) {
	reg := NewRegistry(newEchoTool(t), newFooBarTool(t))
	prompt := reg.SystemPrompt()
	lines := strings.Split(prompt, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, promptHeader, lines[0])

	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &d))
	assert.Equal(t, "echo", d.Name)
	assert.Equal(t, "Echo the text back", d.Description)
	props, ok := d.ArgSchema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "text")

	require.NoError(t, json.Unmarshal([]byte(lines[2]), &d))
	assert.Equal(t, "foobar", d.Name)

	assert.Contains(t, prompt, "<function_call>tool_name(parameter_JSON)</function_call>")
	assert.Contains(t, prompt, "argSchema")
	assert.Contains(t, prompt, `"argSchema":`)
}

func TestDescriptors(t *testing.T) {
	reg := NewRegistry(newEchoTool(t))
	descs := reg.Descriptors()
	require.Len(t, descs, 1)
	assert.Equal(t, "echo", descs[0].Name)
	assert.Equal(t, "object", descs[0].ArgSchema["type"])
}
