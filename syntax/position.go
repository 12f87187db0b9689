package syntax

import "fmt"

// Position is a location in source text.
type Position struct {
	Line   int `json:"line"`   // 1-based line number
	Column int `json:"column"` // 0-based column (bytes)
	Offset int `json:"offset"` // 0-based byte offset into source
}

// Start is the position of the first byte of a document.
var Start = Position{Line: 1}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position was set.
func (p Position) IsValid() bool { return p.Line > 0 }

// Before reports whether p comes strictly before q.
func (p Position) Before(q Position) bool { return p.Offset < q.Offset }

// Advance returns the position reached after consuming text starting at p.
func (p Position) Advance(text string) Position {
	for i := 0; i < len(text); i++ {
		p.Offset++
		if text[i] == '\n' {
			p.Line++
			p.Column = 0
		} else {
			p.Column++
		}
	}
	return p
}

// Span is a half-open source range [Start, End).
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// SpanOf returns the span covering a and b.
func SpanOf(a, b Span) Span {
	s := a
	if b.Start.Offset < s.Start.Offset {
		s.Start = b.Start
	}
	if b.End.Offset > s.End.Offset {
		s.End = b.End
	}
	return s
}

// Loc returns the span itself so types embedding Span satisfy Located.
func (s Span) Loc() Span { return s }

// Located is implemented by anything with a source span.
type Located interface {
	Loc() Span
}
