// Package ast defines the syntax tree produced by package parser.
//
// A parse returns a *Program whose Body holds one Diagram per diagram
// segment, in source order. Diagram is a closed sum type: the only
// implementations are *Flowchart, *Sequence, *ClassDiagram, *ERDiagram,
// *StateDiagram and *GanttDiagram. Flowchart bodies and sequence statement
// lists are closed sum types in the same way.
//
// Consumers switch on the concrete type:
//
//	for _, d := range prog.Body {
//	    switch d := d.(type) {
//	    case *ast.Flowchart:
//	        ...
//	    case *ast.Sequence:
//	        ...
//	    }
//	}
//
// Every node embeds syntax.Span. JSON encoding adds a "type" field to each
// sum-type variant carrying the node's TypeName.
package ast
