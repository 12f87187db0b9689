package ast

import (
	"encoding/json"

	"github.com/martinemde/diagrams/syntax"
)

// Kind names a diagram language.
type Kind string

const (
	KindFlowchart Kind = "flowchart"
	KindSequence  Kind = "sequence"
	KindClass     Kind = "class"
	KindER        Kind = "er"
	KindState     Kind = "state"
	KindGantt     Kind = "gantt"
)

// Kinds lists every diagram kind in a stable order.
var Kinds = []Kind{KindFlowchart, KindSequence, KindClass, KindER, KindState, KindGantt}

// Valid reports whether k is one of the six diagram kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Node is implemented by every syntax-tree node.
type Node interface {
	Loc() syntax.Span
}

// Diagram is one parsed diagram segment.
type Diagram interface {
	Node
	Kind() Kind
	TypeName() string
	diagram()
}

// Program is the root of a parse.
type Program struct {
	Body []Diagram `json:"body"`
	syntax.Span
}

// TypeName is always "Program".
func (*Program) TypeName() string { return "Program" }

func (p *Program) MarshalJSON() ([]byte, error) {
	type plain Program
	return tagged(p.TypeName(), (*plain)(p))
}

// tagged encodes v as a JSON object and prepends a "type" member.
func tagged(typ string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	name, err := json.Marshal(typ)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(b)+len(name)+9)
	out = append(out, `{"type":`...)
	out = append(out, name...)
	if len(b) > 2 {
		out = append(out, ',')
	}
	return append(out, b[1:]...), nil
}
