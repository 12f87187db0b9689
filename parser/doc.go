// Package parser turns diagram source text into an *ast.Program.
//
// Parse detects the diagram kind of every blank-line separated segment of a
// document and hands each segment to its grammar. ParseFlowchart,
// ParseSequence, ParseClass, ParseER, ParseState and ParseGantt bypass
// detection. Every call owns its tokenizer and grammar state; nothing is
// shared between calls.
//
// Errors are *syntax.LexerError or *syntax.ParserError. Positions in both
// are absolute within the text passed to the entry point.
package parser
