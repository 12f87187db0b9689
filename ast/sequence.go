package ast

import "github.com/martinemde/diagrams/syntax"

// ArrowStyle is one of the eight sequence message arrows.
type ArrowStyle string

const (
	ArrowSolid       ArrowStyle = "solid"        // ->
	ArrowDotted      ArrowStyle = "dotted"       // -->
	ArrowSolidHead   ArrowStyle = "solid_arrow"  // ->>
	ArrowDottedHead  ArrowStyle = "dotted_arrow" // -->>
	ArrowSolidCross  ArrowStyle = "solid_cross"  // -x
	ArrowDottedCross ArrowStyle = "dotted_cross" // --x
	ArrowSolidOpen   ArrowStyle = "solid_open"   // -)
	ArrowDottedOpen  ArrowStyle = "dotted_open"  // --)
)

// ParticipantKind distinguishes participant boxes from actor figures.
type ParticipantKind string

const (
	ParticipantBox   ParticipantKind = "participant"
	ParticipantActor ParticipantKind = "actor"
)

// NotePlacement is where a note sits relative to its actors.
type NotePlacement string

const (
	NoteLeftOf  NotePlacement = "left_of"
	NoteRightOf NotePlacement = "right_of"
	NoteOver    NotePlacement = "over"
)

// Sequence is a sequence diagram.
type Sequence struct {
	Title      string              `json:"title,omitempty"`
	Autonumber bool                `json:"autonumber,omitempty"`
	Statements []SequenceStatement `json:"statements"`
	syntax.Span
}

func (*Sequence) Kind() Kind       { return KindSequence }
func (*Sequence) TypeName() string { return "SequenceDiagram" }
func (*Sequence) diagram()         {}

func (s *Sequence) MarshalJSON() ([]byte, error) {
	type plain Sequence
	return tagged(s.TypeName(), (*plain)(s))
}

// SequenceStatement is one of *Participant, *Message, *Note, *Loop, *Opt,
// *Break, *Rect, *Alt, *Par or *Critical.
type SequenceStatement interface {
	Node
	TypeName() string
	sequenceStatement()
}

// Participant declares an actor. Label is the alias text after "as".
type Participant struct {
	ID    string          `json:"id"`
	Label string          `json:"label,omitempty"`
	Kind  ParticipantKind `json:"participantType"`
	syntax.Span
}

func (*Participant) TypeName() string   { return "Participant" }
func (*Participant) sequenceStatement() {}

func (p *Participant) MarshalJSON() ([]byte, error) {
	type plain Participant
	return tagged(p.TypeName(), (*plain)(p))
}

// Message is an arrow between two actors.
type Message struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	Arrow      ArrowStyle `json:"arrowType"`
	Text       string     `json:"text,omitempty"`
	Activate   bool       `json:"activate,omitempty"`
	Deactivate bool       `json:"deactivate,omitempty"`
	syntax.Span
}

func (*Message) TypeName() string   { return "Message" }
func (*Message) sequenceStatement() {}

func (m *Message) MarshalJSON() ([]byte, error) {
	type plain Message
	return tagged(m.TypeName(), (*plain)(m))
}

// Note is a note attached to one or more actors.
type Note struct {
	Placement NotePlacement `json:"position"`
	Actors    []string      `json:"actors"`
	Text      string        `json:"text"`
	syntax.Span
}

func (*Note) TypeName() string   { return "Note" }
func (*Note) sequenceStatement() {}

func (n *Note) MarshalJSON() ([]byte, error) {
	type plain Note
	return tagged(n.TypeName(), (*plain)(n))
}

// Loop repeats its statements while Label holds.
type Loop struct {
	Label      string              `json:"label"`
	Statements []SequenceStatement `json:"statements"`
	syntax.Span
}

func (*Loop) TypeName() string   { return "Loop" }
func (*Loop) sequenceStatement() {}

func (l *Loop) MarshalJSON() ([]byte, error) {
	type plain Loop
	return tagged(l.TypeName(), (*plain)(l))
}

// Opt is an optional fragment.
type Opt struct {
	Label      string              `json:"label"`
	Statements []SequenceStatement `json:"statements"`
	syntax.Span
}

func (*Opt) TypeName() string   { return "Opt" }
func (*Opt) sequenceStatement() {}

func (o *Opt) MarshalJSON() ([]byte, error) {
	type plain Opt
	return tagged(o.TypeName(), (*plain)(o))
}

// Break interrupts the enclosing sequence.
type Break struct {
	Label      string              `json:"label"`
	Statements []SequenceStatement `json:"statements"`
	syntax.Span
}

func (*Break) TypeName() string   { return "Break" }
func (*Break) sequenceStatement() {}

func (b *Break) MarshalJSON() ([]byte, error) {
	type plain Break
	return tagged(b.TypeName(), (*plain)(b))
}

// Rect highlights its statements with a background color.
type Rect struct {
	Color      string              `json:"color"`
	Statements []SequenceStatement `json:"statements"`
	syntax.Span
}

func (*Rect) TypeName() string   { return "Rect" }
func (*Rect) sequenceStatement() {}

func (r *Rect) MarshalJSON() ([]byte, error) {
	type plain Rect
	return tagged(r.TypeName(), (*plain)(r))
}

// Branch is a sibling block of an Alt, Par or Critical: an else, and, or
// option clause with its own statement list.
type Branch struct {
	Condition  string              `json:"condition"`
	Statements []SequenceStatement `json:"statements"`
	syntax.Span
}

// Alt is an if/else fragment.
type Alt struct {
	Condition  string              `json:"condition"`
	Statements []SequenceStatement `json:"statements"`
	ElseBlocks []Branch            `json:"elseBlocks"`
	syntax.Span
}

func (*Alt) TypeName() string   { return "Alt" }
func (*Alt) sequenceStatement() {}

func (a *Alt) MarshalJSON() ([]byte, error) {
	type plain Alt
	return tagged(a.TypeName(), (*plain)(a))
}

// Par runs its branches in parallel.
type Par struct {
	Label      string              `json:"label"`
	Statements []SequenceStatement `json:"statements"`
	AndBlocks  []Branch            `json:"andBlocks"`
	syntax.Span
}

func (*Par) TypeName() string   { return "Par" }
func (*Par) sequenceStatement() {}

func (p *Par) MarshalJSON() ([]byte, error) {
	type plain Par
	return tagged(p.TypeName(), (*plain)(p))
}

// Critical is a critical region with optional alternative circumstances.
type Critical struct {
	Label      string              `json:"label"`
	Statements []SequenceStatement `json:"statements"`
	Options    []Branch            `json:"options"`
	syntax.Span
}

func (*Critical) TypeName() string   { return "Critical" }
func (*Critical) sequenceStatement() {}

func (c *Critical) MarshalJSON() ([]byte, error) {
	type plain Critical
	return tagged(c.TypeName(), (*plain)(c))
}

// Participants returns the declared participants of s in order,
// descending into blocks.
func (s *Sequence) Participants() []*Participant {
	var out []*Participant
	walkSequence(s.Statements, func(st SequenceStatement) {
		if p, ok := st.(*Participant); ok {
			out = append(out, p)
		}
	})
	return out
}

// Messages returns every message in s in order, descending into blocks.
func (s *Sequence) Messages() []*Message {
	var out []*Message
	walkSequence(s.Statements, func(st SequenceStatement) {
		if m, ok := st.(*Message); ok {
			out = append(out, m)
		}
	})
	return out
}

func walkSequence(list []SequenceStatement, fn func(SequenceStatement)) {
	for _, st := range list {
		fn(st)
		switch b := st.(type) {
		case *Loop:
			walkSequence(b.Statements, fn)
		case *Opt:
			walkSequence(b.Statements, fn)
		case *Break:
			walkSequence(b.Statements, fn)
		case *Rect:
			walkSequence(b.Statements, fn)
		case *Alt:
			walkSequence(b.Statements, fn)
			for _, br := range b.ElseBlocks {
				walkSequence(br.Statements, fn)
			}
		case *Par:
			walkSequence(b.Statements, fn)
			for _, br := range b.AndBlocks {
				walkSequence(br.Statements, fn)
			}
		case *Critical:
			walkSequence(b.Statements, fn)
			for _, br := range b.Options {
				walkSequence(br.Statements, fn)
			}
		}
	}
}
