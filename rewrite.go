package inlinecall

import (
	"context"
	"regexp"
	"strings"
)

// directivePattern matches a whole directive non-greedily: the first close tag after each
// open tag. (?s) lets bodies span lines, as they can in a stream.
var directivePattern = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(OpenTag) + `(.*?)` + regexp.QuoteMeta(CloseTag))

// Rewrite is the batch counterpart of Stream: it replaces every directive in a complete
// text and returns the result with the audit trail of the pass. A directive whose literal
// text (delimiters included) already occurred earlier in the same text is not dispatched
// again; it gets the replacement computed for the first occurrence.
func (ic *Interceptor) Rewrite(ctx context.Context, text string) (string, []CallRecord) {
	matches := directivePattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil
	}
	var (
		log      auditLog
		b        strings.Builder
		last     int
		executed = make(map[string]string, len(matches))
	)
	b.Grow(len(text))
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		literal := text[m[0]:m[1]]
		repl, seen := executed[literal]
		if !seen {
			repl = ic.rewriteOne(ctx, text[m[2]:m[3]], &log)
			executed[literal] = repl
		}
		b.WriteString(repl)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String(), log.snapshot()
}

// rewriteOne dispatches one directive body and returns its replacement text. Streaming
// results are drained and spliced in unformatted, the same as a stream pass emits them.
func (ic *Interceptor) rewriteOne(ctx context.Context, body string, log *auditLog) string {
	out := ic.dispatcher.DispatchBody(ctx, ModeBatch, body)
	log.add(out.Record)
	if out.Stream == nil {
		return out.Text
	}
	var b strings.Builder
	_, err := drainStream(out.Stream, func(frag string) bool {
		b.WriteString(frag)
		return true
	})
	if err != nil {
		b.WriteString(diagnostic(streamFailure(out.Record.Tool, err)))
	}
	return b.String()
}
