package ast

import "github.com/martinemde/diagrams/syntax"

// StateType classifies a state.
type StateType string

const (
	StateNormal StateType = "STATE"
	StateChoice StateType = "CHOICE"
	StateFork   StateType = "FORK"
	StateJoin   StateType = "JOIN"
	StateStart  StateType = "START"
	StateEnd    StateType = "END"
)

// Pseudostate is the literal id used for start and end points.
const Pseudostate = "[*]"

// StateDiagram is a state diagram. Version is "v1" for stateDiagram and
// "v2" for stateDiagram-v2.
type StateDiagram struct {
	Version            string              `json:"version"`
	Direction          string              `json:"direction,omitempty"`
	States             []State             `json:"states"`
	Transitions        []Transition        `json:"transitions"`
	Notes              []StateNote         `json:"notes"`
	ConcurrencyRegions []ConcurrencyRegion `json:"concurrencyRegions,omitempty"`
	syntax.Span
}

func (*StateDiagram) Kind() Kind       { return KindState }
func (*StateDiagram) TypeName() string { return "StateDiagram" }
func (*StateDiagram) diagram()         {}

func (s *StateDiagram) MarshalJSON() ([]byte, error) {
	type plain StateDiagram
	return tagged(s.TypeName(), (*plain)(s))
}

// StateByID returns the first top-level state with the given id and type
// other than a pseudostate, or nil.
func (s *StateDiagram) StateByID(id string) *State {
	return findState(s.States, id)
}

func findState(states []State, id string) *State {
	for i := range states {
		if states[i].ID == id && states[i].Type != StateStart && states[i].Type != StateEnd {
			return &states[i]
		}
	}
	return nil
}

// State is a state or pseudostate. A composite state carries its own
// nested states, transitions and notes.
type State struct {
	ID                 string              `json:"id"`
	Type               StateType           `json:"type"`
	Label              string              `json:"label,omitempty"`
	Description        string              `json:"description,omitempty"`
	CompositeStates    []State             `json:"compositeStates,omitempty"`
	Transitions        []Transition        `json:"transitions,omitempty"`
	Notes              []StateNote         `json:"notes,omitempty"`
	ConcurrencyRegions []ConcurrencyRegion `json:"concurrencyRegions,omitempty"`
	syntax.Span
}

// IsComposite reports whether s has a body.
func (s *State) IsComposite() bool {
	return len(s.CompositeStates) > 0 || len(s.Transitions) > 0
}

// Child returns the nested state with the given id, or nil.
func (s *State) Child(id string) *State {
	return findState(s.CompositeStates, id)
}

// Transition is an edge between two state ids. "[*]" marks a start point
// when it is the source and an end point when it is the target.
type Transition struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
	syntax.Span
}

// StateNote is a note placed beside a state.
type StateNote struct {
	Placement string `json:"position"` // "left of" or "right of"
	StateID   string `json:"stateId"`
	Text      string `json:"text"`
	syntax.Span
}

// ConcurrencyRegion is one "--"-separated region of a composite state.
type ConcurrencyRegion struct {
	States      []State      `json:"states"`
	Transitions []Transition `json:"transitions"`
	syntax.Span
}
