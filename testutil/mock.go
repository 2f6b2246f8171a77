// Package testutil provides test helpers for inlinecall (e.g. MockTool, CallRecorder).
package testutil

import (
	"context"
	"sync"

	"github.com/skosovsky/inlinecall"
)

// MockTool is a configurable Tool implementation for tests.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	InvokeFn  func(ctx context.Context, args []byte) (inlinecall.Result, error)

	mu    sync.Mutex
	calls [][]byte
}

// Name returns the tool name.
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

// Description returns the tool description.
func (m *MockTool) Description() string {
	return m.DescVal
}

// Parameters returns the parameters schema (or an empty object schema).
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{"type": "object"}
}

// Invoke records the arguments and runs InvokeFn if set, otherwise returns an empty value.
func (m *MockTool) Invoke(ctx context.Context, args []byte) (inlinecall.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]byte(nil), args...))
	m.mu.Unlock()
	if m.InvokeFn != nil {
		return m.InvokeFn(ctx, args)
	}
	return inlinecall.ValueResult(""), nil
}

// Calls returns the argument JSON of every Invoke so far, in order.
func (m *MockTool) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	for i, c := range m.calls {
		out[i] = string(c)
	}
	return out
}

// Ensure MockTool implements Tool.
var _ inlinecall.Tool = (*MockTool)(nil)

// CallRecorder collects CallRecords; pass Hook to inlinecall.WithOnCall.
type CallRecorder struct {
	mu      sync.Mutex
	records []inlinecall.CallRecord
}

// Hook appends r. Safe for concurrent use.
func (c *CallRecorder) Hook(_ context.Context, r inlinecall.CallRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, r)
}

// Records returns a copy of everything recorded so far.
func (c *CallRecorder) Records() []inlinecall.CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]inlinecall.CallRecord(nil), c.records...)
}
