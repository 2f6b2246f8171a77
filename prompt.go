package inlinecall

import (
	"encoding/json"
	"strings"
)

const promptHeader = "You can use the following tools to help user:"

// promptInstructions is the fixed call-syntax section appended after the tool list.
const promptInstructions = "You can use the following format to call tools:\n" +
	OpenTag + "tool_name(parameter_JSON)" + CloseTag + "\n" +
	"The parameter_JSON must match the input pattern (argSchema) of the tool.\n" +
	"You can insert these function calls in the middle of your response. " +
	"Results of tools that return a single value are given to you in the next response; " +
	"results of streaming tools appear inline, right where the call was made."

// Descriptors returns the self-description of every tool, sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	tools := r.GetAllTools()
	out := make([]Descriptor, 0, len(tools))
	for _, t := range tools {
		out = append(out, Descriptor{
			Name:        t.Name(),
			Description: t.Description(),
			ArgSchema:   t.Parameters(),
		})
	}
	return out
}

// SystemPrompt returns the tool section of a system prompt: one JSON descriptor per line
// followed by the call-syntax instructions. It is empty when no tools are registered so
// callers can omit the section entirely.
func (r *Registry) SystemPrompt() string {
	descs := r.Descriptors()
	if len(descs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(descs)+2)
	lines = append(lines, promptHeader)
	for _, d := range descs {
		b, err := json.Marshal(d)
		if err != nil {
			// Parameters came from a JSON round-trip; only a hand-written Tool can get here.
			b, _ = json.Marshal(Descriptor{Name: d.Name, Description: d.Description})
		}
		lines = append(lines, string(b))
	}
	lines = append(lines, promptInstructions)
	return strings.Join(lines, "\n")
}
