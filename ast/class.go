package ast

import "github.com/martinemde/diagrams/syntax"

// RelationType classifies a class-diagram relation operator.
type RelationType string

const (
	RelationInheritance RelationType = "INHERITANCE" // <|-- --|>
	RelationComposition RelationType = "COMPOSITION" // *-- --*
	RelationAggregation RelationType = "AGGREGATION" // o-- --o
	RelationAssociation RelationType = "ASSOCIATION" // --> <--
	RelationLink        RelationType = "LINK"        // --
	RelationDependency  RelationType = "DEPENDENCY"  // ..> <..
	RelationRealization RelationType = "REALIZATION" // ..|> <|..
	RelationDashedLink  RelationType = "DASHED_LINK" // ..
)

// MemberKind distinguishes methods from attributes.
type MemberKind string

const (
	MemberAttribute MemberKind = "attribute"
	MemberMethod    MemberKind = "method"
)

// ClassDiagram is a class diagram.
type ClassDiagram struct {
	Direction  string      `json:"direction,omitempty"`
	Classes    []Class     `json:"classes"`
	Relations  []Relation  `json:"relations"`
	Namespaces []Namespace `json:"namespaces"`
	Notes      []ClassNote `json:"notes,omitempty"`
	syntax.Span
}

func (*ClassDiagram) Kind() Kind       { return KindClass }
func (*ClassDiagram) TypeName() string { return "ClassDiagram" }
func (*ClassDiagram) diagram()         {}

func (c *ClassDiagram) MarshalJSON() ([]byte, error) {
	type plain ClassDiagram
	return tagged(c.TypeName(), (*plain)(c))
}

// ClassByName returns the class with the given name, or nil.
func (c *ClassDiagram) ClassByName(name string) *Class {
	for i := range c.Classes {
		if c.Classes[i].Name == name {
			return &c.Classes[i]
		}
	}
	return nil
}

// Class is a class declaration. Classes only referenced by a relation are
// synthesized with no members.
type Class struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Label      string   `json:"label,omitempty"`
	Generics   string   `json:"generics,omitempty"`
	Annotation string   `json:"annotation,omitempty"`
	Members    []Member `json:"members"`
	syntax.Span
}

// Parameter is one method parameter.
type Parameter struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Member is an attribute or method of a class.
type Member struct {
	Kind       MemberKind  `json:"memberType"`
	Name       string      `json:"name"`
	Type       string      `json:"type,omitempty"`
	Visibility string      `json:"visibility,omitempty"`
	Static     bool        `json:"isStatic,omitempty"`
	Abstract   bool        `json:"isAbstract,omitempty"`
	Parameters []Parameter `json:"parameters,omitempty"`
	ReturnType string      `json:"returnType,omitempty"`
	syntax.Span
}

// Relation links two classes.
type Relation struct {
	From            string       `json:"from"`
	To              string       `json:"to"`
	Type            RelationType `json:"relationType"`
	Operator        string       `json:"operator"`
	FromCardinality string       `json:"fromCardinality,omitempty"`
	ToCardinality   string       `json:"toCardinality,omitempty"`
	Label           string       `json:"label,omitempty"`
	syntax.Span
}

// Namespace groups classes by name.
type Namespace struct {
	Name    string   `json:"name"`
	Classes []string `json:"classes"`
	syntax.Span
}

// ClassNote is a free-floating note or one attached to a class.
type ClassNote struct {
	For  string `json:"for,omitempty"`
	Text string `json:"text"`
	syntax.Span
}
