// Package inlinecall intercepts tool calls that a language model writes inline in its text
// output, runs them, and rewrites the output with their results.
//
// # Overview
//
// The model is told (see Registry.SystemPrompt) that it can call a tool by writing
//
//	<function_call>tool_name({"arg": "value"})</function_call>
//
// anywhere in its response. The Interceptor watches the output for these directives and
// replaces each one with the tool's result or, when the call fails, with a bracketed
// diagnostic such as [Function Call Error: Tool 'x' not found]. Directive markup never
// reaches the consumer.
//
// Pipeline: Go function + argument struct → NewTool (reflection + schema) → Tool →
// Registry → Interceptor.Stream / Interceptor.Rewrite → Dispatcher (decode, validate,
// invoke) → rewritten text + []CallRecord.
//
// # Key concepts
//
//   - Chunk invariance: Stream accepts fragments split at arbitrary boundaries, including
//     inside a tag, and produces the same text as a single-fragment pass.
//   - Fault isolation: unknown tools, bad arguments, tool errors and panics become inline
//     diagnostics. A failing tool never aborts the response.
//   - Streaming tools: a tool may return a fragment sequence (NewStreamTool); its fragments
//     are passed through in real time at the position of the directive.
//   - Pass isolation: every Stream or Rewrite call has its own buffer, audit trail and
//     executed-set; one Interceptor serves many concurrent passes.
//
// # Example
//
//	type Args struct {
//	    City string `json:"city" jsonschema:"City name"`
//	}
//	weather, err := inlinecall.NewTool("weather", "Get weather", func(_ context.Context, a Args) (string, error) {
//	    return "22.5C in " + a.City, nil
//	})
//	if err != nil { ... }
//	ic := inlinecall.NewInterceptor(inlinecall.NewRegistry(weather))
//	pass := ic.Stream(ctx, modelFragments)
//	for frag, err := range pass.All() { ... }
//	log.Println(pass.Calls())
package inlinecall
