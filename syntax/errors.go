package syntax

import "fmt"

// LexerError is a lexical error: an unterminated string or a character no
// tokenizer rule covers.
type LexerError struct {
	Message string
	Pos     Position
}

func (e *LexerError) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Pos.Line, e.Pos.Column)
}

// Line returns the 1-based line of the error.
func (e *LexerError) Line() int { return e.Pos.Line }

// Column returns the 0-based column of the error.
func (e *LexerError) Column() int { return e.Pos.Column }

// ParserError is a syntactic error. Pos is the zero Position when the
// location is unknown; Token and TokenType describe the offending token if
// there was one.
type ParserError struct {
	Message   string
	Pos       Position
	Token     string
	TokenType string
	Cause     error
}

func (e *ParserError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d", e.Message, e.Pos.Line, e.Pos.Column)
	}
	return e.Message
}

func (e *ParserError) Unwrap() error { return e.Cause }

// Line returns the 1-based line of the error, or 0 when unknown.
func (e *ParserError) Line() int { return e.Pos.Line }

// Column returns the 0-based column of the error.
func (e *ParserError) Column() int { return e.Pos.Column }

// Errorf builds a ParserError at pos.
func Errorf(pos Position, format string, args ...any) *ParserError {
	return &ParserError{Message: fmt.Sprintf(format, args...), Pos: pos}
}

// Positioned is implemented by both error types.
type Positioned interface {
	error
	Line() int
	Column() int
}
