package ast

import "github.com/martinemde/diagrams/syntax"

// Shape is a flowchart node shape.
type Shape string

const (
	ShapeSquare           Shape = "square"
	ShapeRound            Shape = "round"
	ShapeStadium          Shape = "stadium"
	ShapeSubroutine       Shape = "subroutine"
	ShapeCylinder         Shape = "cylinder"
	ShapeCircle           Shape = "circle"
	ShapeDoubleCircle     Shape = "double_circle"
	ShapeAsymmetric       Shape = "asymmetric"
	ShapeRhombus          Shape = "rhombus"
	ShapeHexagon          Shape = "hexagon"
	ShapeParallelogram    Shape = "parallelogram"
	ShapeParallelogramAlt Shape = "parallelogram_alt"
	ShapeTrapezoid        Shape = "trapezoid"
	ShapeTrapezoidAlt     Shape = "trapezoid_alt"
)

// EdgeType is the head of a flowchart link.
type EdgeType string

const (
	EdgeArrow  EdgeType = "arrow_point"
	EdgeOpen   EdgeType = "arrow_open"
	EdgeCircle EdgeType = "arrow_circle"
	EdgeCross  EdgeType = "arrow_cross"
)

// Stroke is the line style of a flowchart link.
type Stroke string

const (
	StrokeNormal    Stroke = "normal"
	StrokeThick     Stroke = "thick"
	StrokeDotted    Stroke = "dotted"
	StrokeInvisible Stroke = "invisible"
)

// Flowchart is a flowchart/graph diagram. Body mixes nodes, edges and
// subgraphs in source order.
type Flowchart struct {
	Direction string               `json:"direction"`
	Body      []FlowchartStatement `json:"body"`
	syntax.Span
}

func (*Flowchart) Kind() Kind       { return KindFlowchart }
func (*Flowchart) TypeName() string { return "FlowchartDiagram" }
func (*Flowchart) diagram()         {}

func (f *Flowchart) MarshalJSON() ([]byte, error) {
	type plain Flowchart
	return tagged(f.TypeName(), (*plain)(f))
}

// FlowchartStatement is a *FlowNode, *Edge or *Subgraph.
type FlowchartStatement interface {
	Node
	TypeName() string
	flowchartStatement()
}

// FlowNode is a flowchart vertex. Implicit nodes were never declared and
// were synthesized from an edge endpoint.
type FlowNode struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Shape    Shape  `json:"shape"`
	Implicit bool   `json:"implicit,omitempty"`
	syntax.Span
}

func (*FlowNode) TypeName() string    { return "Node" }
func (*FlowNode) flowchartStatement() {}

func (n *FlowNode) MarshalJSON() ([]byte, error) {
	type plain FlowNode
	return tagged(n.TypeName(), (*plain)(n))
}

// Edge is a single link between two node ids.
type Edge struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	Type          EdgeType `json:"edgeType"`
	Stroke        Stroke   `json:"stroke"`
	Label         string   `json:"label,omitempty"`
	Bidirectional bool     `json:"bidirectional,omitempty"`
	Length        int      `json:"length"`
	syntax.Span
}

func (*Edge) TypeName() string    { return "Edge" }
func (*Edge) flowchartStatement() {}

func (e *Edge) MarshalJSON() ([]byte, error) {
	type plain Edge
	return tagged(e.TypeName(), (*plain)(e))
}

// Subgraph groups statements under an id and optional title.
type Subgraph struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Direction string               `json:"direction,omitempty"`
	Body      []FlowchartStatement `json:"body"`
	syntax.Span
}

func (*Subgraph) TypeName() string    { return "Subgraph" }
func (*Subgraph) flowchartStatement() {}

func (s *Subgraph) MarshalJSON() ([]byte, error) {
	type plain Subgraph
	return tagged(s.TypeName(), (*plain)(s))
}

// Nodes returns every node in f, descending into subgraphs, in source order.
func (f *Flowchart) Nodes() []*FlowNode {
	var out []*FlowNode
	walkFlowchart(f.Body, func(st FlowchartStatement) {
		if n, ok := st.(*FlowNode); ok {
			out = append(out, n)
		}
	})
	return out
}

// Edges returns every edge in f, descending into subgraphs, in source order.
func (f *Flowchart) Edges() []*Edge {
	var out []*Edge
	walkFlowchart(f.Body, func(st FlowchartStatement) {
		if e, ok := st.(*Edge); ok {
			out = append(out, e)
		}
	})
	return out
}

// NodeByID returns the first node with the given id, or nil.
func (f *Flowchart) NodeByID(id string) *FlowNode {
	for _, n := range f.Nodes() {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func walkFlowchart(body []FlowchartStatement, fn func(FlowchartStatement)) {
	for _, st := range body {
		fn(st)
		if sg, ok := st.(*Subgraph); ok {
			walkFlowchart(sg.Body, fn)
		}
	}
}
