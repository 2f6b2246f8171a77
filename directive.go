package inlinecall

import (
	"fmt"
	"strings"
)

// Directive is a parsed directive body NAME(ARGS).
type Directive struct {
	Name string
	Args string
}

// ParseDirective splits the text between the delimiters into tool name and argument text.
// The name is everything before the first '(' and the arguments everything between it and the
// final ')', both trimmed. Whitespace around the body is ignored. Parentheses inside the
// arguments are not balanced; JSON is.
func ParseDirective(body string) (Directive, error) {
	body = strings.TrimSpace(body)
	open := strings.IndexByte(body, '(')
	if open < 0 || !strings.HasSuffix(body, ")") {
		return Directive{}, fmt.Errorf("%w: expected tool_name(parameter_JSON)", ErrMalformedDirective)
	}
	return Directive{
		Name: strings.TrimSpace(body[:open]),
		Args: strings.TrimSpace(body[open+1 : len(body)-1]),
	}, nil
}
