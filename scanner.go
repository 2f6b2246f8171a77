package inlinecall

import (
	"bytes"
	"strings"
)

// Segment is one unit of scanner output: literal text to pass through, or the body of a
// complete directive (the text between the delimiters) to dispatch.
type Segment struct {
	Text      string
	Directive bool
}

type scanMode int

const (
	modeScanning scanMode = iota
	modeInsideOpenTag
)

// Scanner finds directives in text that arrives in arbitrary chunks. It never emits a
// partially received tag as literal text and never holds back literal text longer than
// needed to rule out a tag. The zero value is ready to use; a Scanner must not be shared
// between streams.
type Scanner struct {
	// FlushUnterminated makes Finish emit an opened but never closed directive as literal
	// text instead of dropping it.
	FlushUnterminated bool

	buf  []byte
	mode scanMode
	// closeFrom is where the next close-tag search starts while inside a directive.
	closeFrom int
}

var (
	openTag  = []byte(OpenTag)
	closeTag = []byte(CloseTag)
)

// Feed appends chunk to the buffer and returns every segment that can be decided now,
// in input order. While a directive is open only the newly arrived text is searched for
// the close tag.
func (s *Scanner) Feed(chunk string) []Segment {
	s.buf = append(s.buf, chunk...)
	var out []Segment
	for {
		start := 0
		if s.mode != modeInsideOpenTag {
			start = bytes.Index(s.buf, openTag)
			if start < 0 {
				// No tag: keep only a suffix that could still grow into one.
				tail := s.buf[max(0, len(s.buf)-len(OpenTag)+1):]
				keep := partialPrefixLen(string(tail), OpenTag)
				out = appendLiteral(out, string(s.buf[:len(s.buf)-keep]))
				s.consume(len(s.buf) - keep)
				return out
			}
			s.closeFrom = start + len(OpenTag)
		}
		bodyStart := start + len(OpenTag)
		end := bytes.Index(s.buf[s.closeFrom:], closeTag)
		if end < 0 {
			out = appendLiteral(out, string(s.buf[:start]))
			s.consume(start)
			s.mode = modeInsideOpenTag
			s.closeFrom = max(len(OpenTag), len(s.buf)-len(CloseTag)+1)
			return out
		}
		end += s.closeFrom
		out = appendLiteral(out, string(s.buf[:start]))
		out = append(out, Segment{Text: string(s.buf[bodyStart:end]), Directive: true})
		s.consume(end + len(CloseTag))
		s.mode = modeScanning
	}
}

// consume drops the first n bytes of the buffer.
func (s *Scanner) consume(n int) {
	if n > 0 {
		s.buf = append(s.buf[:0], s.buf[n:]...)
	}
}

// Finish ends the stream and resets the scanner. A held-back partial tag prefix is
// returned as literal text. An unterminated directive is dropped unless FlushUnterminated
// is set.
func (s *Scanner) Finish() []Segment {
	rest, mode := string(s.buf), s.mode
	s.buf, s.mode, s.closeFrom = nil, modeScanning, 0
	if mode == modeInsideOpenTag && !s.FlushUnterminated {
		return nil
	}
	return appendLiteral(nil, rest)
}

// Pending returns the text currently held back.
func (s *Scanner) Pending() string { return string(s.buf) }

// InsideDirective reports whether the held-back text starts with a complete open tag.
func (s *Scanner) InsideDirective() bool { return s.mode == modeInsideOpenTag }

// partialPrefixLen returns the length of the longest suffix of buf that is a strict
// prefix of tag.
func partialPrefixLen(buf, tag string) int {
	for k := min(len(buf), len(tag)-1); k > 0; k-- {
		if strings.HasSuffix(buf, tag[:k]) {
			return k
		}
	}
	return 0
}

func appendLiteral(out []Segment, text string) []Segment {
	if text == "" {
		return out
	}
	return append(out, Segment{Text: text})
}
