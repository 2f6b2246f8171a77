package inlinecall

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"

	"github.com/kaptinlin/jsonrepair"
)

// Mode selects the dispatch rules of a pass.
type Mode int

const (
	// ModeStream decodes arguments as plain JSON and formats values with the stream format.
	ModeStream Mode = iota
	// ModeBatch additionally validates arguments against the tool schema before invoking and
	// formats values with the batch format.
	ModeBatch
)

func (m Mode) String() string {
	if m == ModeBatch {
		return "batch"
	}
	return "stream"
}

// ResultFormat renders a successful plain-value result. args is the raw argument text.
type ResultFormat func(tool, args, result string) string

// InlineFormat is the default format for streaming passes.
func InlineFormat(tool, args, result string) string {
	return fmt.Sprintf("[Function Call: %s(%s), Result: %s]", tool, args, result)
}

// CompletionFormat is the default format for batch rewrites.
func CompletionFormat(_, _, result string) string {
	return "\n[Tool returned]: " + result + "\n"
}

// Outcome is the explicit result of one dispatch. On failure Err is a *CallError and Text
// the diagnostic; on success either Text holds the formatted value or Stream is set.
type Outcome struct {
	Record CallRecord
	Text   string
	Stream iter.Seq2[string, error]
	Err    error
}

// Dispatcher resolves tools by name, decodes their arguments and invokes them behind a
// fault boundary. It holds no per-pass state and is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	opts     interceptorOptions
}

// NewDispatcher creates a Dispatcher over reg.
func NewDispatcher(reg *Registry, opts ...InterceptorOption) *Dispatcher {
	o := defaultInterceptorOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher{registry: reg, opts: o}
}

// DispatchBody parses a directive body and dispatches it. A malformed body yields a
// KindMalformedDirective outcome instead of an error.
func (d *Dispatcher) DispatchBody(ctx context.Context, mode Mode, body string) Outcome {
	dir, err := ParseDirective(body)
	if err != nil {
		rec := newCallRecord("", body)
		return d.finish(ctx, rec, &CallError{Kind: KindMalformedDirective, Err: err})
	}
	return d.Dispatch(ctx, mode, dir.Name, dir.Args)
}

// Dispatch runs one tool call. It never panics and never returns an error: every failure
// is captured in the Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, mode Mode, name, rawArgs string) Outcome {
	rec := newCallRecord(name, rawArgs)
	t, ok := d.registry.GetTool(name)
	if !ok {
		return d.finish(ctx, rec, &CallError{Kind: KindToolNotFound, Tool: name})
	}
	args, err := d.decodeArgs(rawArgs)
	if err != nil {
		return d.finish(ctx, rec, &CallError{Kind: KindArgumentDecode, Tool: name, Err: err})
	}
	if v, ok := t.(ArgumentValidator); ok && mode == ModeBatch {
		if err := v.ValidateArgs(args); err != nil {
			return d.finish(ctx, rec, &CallError{Kind: KindArgumentDecode, Tool: name, Err: err})
		}
	}
	res, err := invokeSafely(ctx, t, args)
	if err != nil {
		kind := KindToolExecution
		if IsClientError(err) {
			kind = KindArgumentDecode
		}
		return d.finish(ctx, rec, &CallError{Kind: kind, Tool: name, Err: err})
	}
	if res.IsStream() {
		rec.Result = StreamingMarker
		rec.Streaming = true
		out := d.finish(ctx, rec, nil)
		out.Stream = res.Stream
		return out
	}
	rec.Result = stringify(res.Value)
	out := d.finish(ctx, rec, nil)
	out.Text = d.format(mode)(name, rawArgs, rec.Result)
	return out
}

func (d *Dispatcher) format(mode Mode) ResultFormat {
	if mode == ModeBatch {
		return d.opts.batchFormat
	}
	return d.opts.streamFormat
}

// decodeArgs checks that rawArgs is JSON, optionally repairing it first.
func (d *Dispatcher) decodeArgs(rawArgs string) ([]byte, error) {
	var v any
	err := json.Unmarshal([]byte(rawArgs), &v)
	if err == nil {
		return []byte(rawArgs), nil
	}
	if d.opts.repairArgs {
		if repaired, rerr := jsonrepair.JSONRepair(rawArgs); rerr == nil && json.Valid([]byte(repaired)) {
			return []byte(repaired), nil
		}
	}
	return nil, err
}

// finish fills in the failure side of the record, logs, and notifies the hook.
func (d *Dispatcher) finish(ctx context.Context, rec CallRecord, cerr *CallError) Outcome {
	out := Outcome{}
	if cerr != nil {
		out.Err = cerr
		out.Text = diagnostic(cerr)
		rec.Err = cerr
		rec.Result = out.Text
		d.opts.logger.WarnContext(ctx, "function call failed",
			"call_id", rec.ID, "tool", rec.Tool, "kind", cerr.Kind.String(), "error", cerr)
	} else {
		d.opts.logger.DebugContext(ctx, "function call dispatched",
			"call_id", rec.ID, "tool", rec.Tool, "streaming", rec.Streaming)
	}
	out.Record = rec
	if d.opts.onCall != nil {
		d.opts.onCall(ctx, rec)
	}
	return out
}

// invokeSafely is the fault boundary around a tool body: panics become errors.
func invokeSafely(ctx context.Context, t Tool, args []byte) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{}
			err = &panicError{p: p}
		}
	}()
	return t.Invoke(ctx, args)
}

// drainStream pulls a tool's fragment sequence and hands each fragment to emit. It returns
// stopped=true when emit asked to stop, and the tool's error or recovered panic otherwise.
// Pulling through iter.Pull2 keeps panics raised by emit (the consumer) out of the boundary.
func drainStream(seq iter.Seq2[string, error], emit func(string) bool) (stopped bool, err error) {
	next, stop := iter.Pull2(seq)
	defer func() {
		defer func() { _ = recover() }()
		stop()
	}()
	for {
		frag, ok, err := pullSafely(next)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if !emit(frag) {
			return true, nil
		}
	}
}

// pullSafely advances the pulled sequence, turning an error element or a panic into err.
func pullSafely(next func() (string, error, bool)) (frag string, ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			frag, ok, err = "", false, &panicError{p: p}
		}
	}()
	frag, err, ok = next()
	return frag, ok, err
}

// streamFailure wraps an error raised while draining a tool stream.
func streamFailure(tool string, err error) *CallError {
	return &CallError{Kind: KindToolExecution, Tool: tool, Err: err}
}
