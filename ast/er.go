package ast

import "github.com/martinemde/diagrams/syntax"

// Cardinality is one end of an ER relationship.
type Cardinality string

const (
	ZeroOrOne  Cardinality = "ZERO_OR_ONE"
	ExactlyOne Cardinality = "EXACTLY_ONE"
	ZeroOrMore Cardinality = "ZERO_OR_MORE"
	OneOrMore  Cardinality = "ONE_OR_MORE"
)

// Identification tells whether a relationship is identifying.
type Identification string

const (
	Identifying    Identification = "IDENTIFYING"
	NonIdentifying Identification = "NON_IDENTIFYING"
)

// KeyType is an attribute key role.
type KeyType string

const (
	KeyPrimary KeyType = "PK"
	KeyForeign KeyType = "FK"
	KeyUnique  KeyType = "UK"
)

// ERDiagram is an entity-relationship diagram.
type ERDiagram struct {
	Entities      []Entity       `json:"entities"`
	Relationships []Relationship `json:"relationships"`
	syntax.Span
}

func (*ERDiagram) Kind() Kind       { return KindER }
func (*ERDiagram) TypeName() string { return "ERDiagram" }
func (*ERDiagram) diagram()         {}

func (e *ERDiagram) MarshalJSON() ([]byte, error) {
	type plain ERDiagram
	return tagged(e.TypeName(), (*plain)(e))
}

// EntityByName returns the entity with the given name, or nil.
func (e *ERDiagram) EntityByName(name string) *Entity {
	for i := range e.Entities {
		if e.Entities[i].Name == name {
			return &e.Entities[i]
		}
	}
	return nil
}

// Entity is an ER entity. Entities only referenced by a relationship have
// an empty Attributes list.
type Entity struct {
	Name       string      `json:"name"`
	Alias      string      `json:"alias,omitempty"`
	Attributes []Attribute `json:"attributes"`
	syntax.Span
}

// Attribute is one row of an entity body.
type Attribute struct {
	Type    string    `json:"type"`
	Name    string    `json:"name"`
	Keys    []KeyType `json:"keys,omitempty"`
	Comment string    `json:"comment,omitempty"`
	syntax.Span
}

// Key returns the first key role, or "" when the attribute has none.
func (a Attribute) Key() KeyType {
	if len(a.Keys) == 0 {
		return ""
	}
	return a.Keys[0]
}

// Relationship connects two entities.
type Relationship struct {
	From            string         `json:"from"`
	To              string         `json:"to"`
	FromCardinality Cardinality    `json:"fromCardinality"`
	ToCardinality   Cardinality    `json:"toCardinality"`
	Identification  Identification `json:"identification"`
	Label           string         `json:"label,omitempty"`
	syntax.Span
}
