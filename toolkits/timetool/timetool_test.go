package timetool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/inlinecall"
	"github.com/skosovsky/inlinecall/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestTools(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tools, err := Tools(WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	ic := testutil.NewTestInterceptor(tools)

	out, calls := ic.Rewrite(context.Background(),
		`<function_call>current_time({})</function_call>|`+
			`<function_call>time_between({"from":"2026-03-01T10:00:00Z","to":"2026-03-01T12:30:00Z"})</function_call>|`+
			`<function_call>current_time({"timezone":"Mars/Olympus"})</function_call>`)
	assert.Equal(t, "\n[Tool returned]: 2026-03-01T12:00:00Z\n|\n[Tool returned]: 2h30m0s\n|"+
		`[Function Call Error: Parameter parsing failed: unknown time zone "Mars/Olympus"]`, out)
	require.Len(t, calls, 3)
	assert.Equal(t, inlinecall.KindArgumentDecode, inlinecall.KindOf(calls[2].Err))
}
