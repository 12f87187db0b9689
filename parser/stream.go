package parser

import (
	"fmt"
	"strings"

	"github.com/martinemde/diagrams/lexer"
	"github.com/martinemde/diagrams/syntax"
)

// stream is a cursor over the general tokenizer's output for one segment.
// src is the segment text and base the absolute offset of src[0], so raw
// text between any two tokens can be sliced back out.
type stream struct {
	src    string
	base   int
	toks   []lexer.Token
	i      int
	budget *syntax.Budget
	semis  bool // treat ';' as a statement separator
}

func newStream(src string, start syntax.Position, budget *syntax.Budget) (*stream, error) {
	toks, err := lexer.Tokenize(src, lexer.WithStart(start), lexer.WithBudget(budget))
	if err != nil {
		return nil, err
	}
	return &stream{src: src, base: start.Offset, toks: toks, budget: budget}, nil
}

func (s *stream) peek() lexer.Token { return s.peekN(0) }

func (s *stream) peekN(n int) lexer.Token {
	if s.i+n >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.i+n]
}

func (s *stream) next() lexer.Token {
	tok := s.peek()
	if s.i < len(s.toks)-1 {
		s.i++
	}
	return tok
}

// lastEnd returns the end of the last consumed token that is not a
// separator, or the start of the segment when nothing was consumed.
func (s *stream) lastEnd() syntax.Position {
	for j := s.i - 1; j >= 0; j-- {
		switch s.toks[j].Kind {
		case lexer.Newline, lexer.Semicolon, lexer.EOF:
			continue
		}
		return s.toks[j].End
	}
	return s.toks[0].Start
}

func (s *stream) at(kinds ...lexer.Kind) bool {
	k := s.peek().Kind
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (s *stream) accept(kind lexer.Kind) (lexer.Token, bool) {
	if s.peek().Kind != kind {
		return lexer.Token{}, false
	}
	return s.next(), true
}

func (s *stream) expect(kind lexer.Kind, what string) (lexer.Token, error) {
	tok := s.peek()
	if tok.Kind != kind {
		return lexer.Token{}, s.unexpected(tok, what)
	}
	return s.next(), nil
}

// expectWord accepts an identifier or any keyword used as a name.
func (s *stream) expectWord(what string) (lexer.Token, error) {
	tok := s.peek()
	if !tok.Kind.IsWord() {
		return lexer.Token{}, s.unexpected(tok, what)
	}
	return s.next(), nil
}

func (s *stream) step() error {
	return s.budget.Step(s.peek().Start)
}

func (s *stream) isSeparator(tok lexer.Token) bool {
	return tok.Kind == lexer.Newline || (s.semis && tok.Kind == lexer.Semicolon)
}

// atLineEnd reports whether the next token ends the current statement.
func (s *stream) atLineEnd() bool {
	tok := s.peek()
	return tok.Kind == lexer.EOF || s.isSeparator(tok)
}

func (s *stream) skipSeparators() {
	for s.isSeparator(s.peek()) {
		s.next()
	}
}

// endStatement requires a separator or EOF after a statement.
func (s *stream) endStatement() error {
	if !s.atLineEnd() {
		return s.unexpected(s.peek(), "end of line")
	}
	s.skipSeparators()
	return nil
}

// skipLine discards everything up to and including the next newline.
func (s *stream) skipLine() {
	for !s.at(lexer.Newline, lexer.EOF) {
		s.next()
	}
	s.next()
}

// text returns the raw source between the start of from and the end of to.
func (s *stream) text(from, to lexer.Token) string {
	return s.slice(from.Start.Offset, to.End.Offset)
}

func (s *stream) slice(from, to int) string {
	from, to = from-s.base, to-s.base
	if from < 0 || to > len(s.src) || from >= to {
		return ""
	}
	return s.src[from:to]
}

// restOfLine consumes the tokens up to the next newline and returns their
// raw source text, trimmed, together with the first and last token read.
// ok is false when the line was already empty.
func (s *stream) restOfLine() (text string, first, last lexer.Token, ok bool) {
	if s.at(lexer.Newline, lexer.EOF) {
		return "", s.peek(), s.peek(), false
	}
	first = s.next()
	last = first
	for !s.at(lexer.Newline, lexer.EOF) {
		last = s.next()
	}
	return strings.TrimSpace(s.text(first, last)), first, last, true
}

// until consumes tokens up to, not including, the first token whose value
// ends with closer. It fails at a newline or EOF.
func (s *stream) until(closer string, what string) (lexer.Token, error) {
	for {
		tok := s.peek()
		switch {
		case tok.Kind == lexer.EOF || tok.Kind == lexer.Newline:
			return lexer.Token{}, s.unexpected(tok, what)
		case strings.HasSuffix(tok.Value, closer) && tok.Kind != lexer.String:
			return tok, nil
		}
		s.next()
	}
}

func (s *stream) errorf(tok lexer.Token, format string, args ...any) *syntax.ParserError {
	e := syntax.Errorf(tok.Start, format, args...)
	if tok.Kind != lexer.EOF {
		e.Token = tok.Value
	}
	e.TokenType = tok.Kind.String()
	return e
}

func (s *stream) unexpected(tok lexer.Token, want string) error {
	return s.errorf(tok, "expected %s, got %s", want, describe(tok))
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.EOF:
		return "end of input"
	case lexer.Newline:
		return "end of line"
	}
	return fmt.Sprintf("%s (%q)", tok.Kind, tok.Value)
}

// line is one source line of a segment reassembled from its tokens.
type line struct {
	text string
	toks []lexer.Token
	syntax.Span
}

// lines groups the remaining tokens into non-empty source lines. A string
// token spanning several lines stays inside the line it starts on.
func (s *stream) lines() ([]line, error) {
	var out []line
	for !s.at(lexer.EOF) {
		if err := s.step(); err != nil {
			return nil, err
		}
		if _, ok := s.accept(lexer.Newline); ok {
			continue
		}
		start := s.i
		text, first, last, _ := s.restOfLine()
		out = append(out, line{
			text: text,
			toks: s.toks[start:s.i],
			Span: syntax.Span{Start: first.Start, End: last.End},
		})
	}
	return out, nil
}

func (l line) errorf(format string, args ...any) *syntax.ParserError {
	e := syntax.Errorf(l.Start, format, args...)
	e.Token = l.text
	return e
}

// joinWords rebuilds text from tokens that lost their original spacing:
// a single space separates tokens that were apart in the source or that are
// both words.
func joinWords(toks []lexer.Token) string {
	var b strings.Builder
	for i, tok := range toks {
		if i > 0 {
			prev := toks[i-1]
			gap := tok.Start.Offset > prev.End.Offset
			if gap || (isWordish(prev) && isWordish(tok)) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(tok.Value)
	}
	return b.String()
}

func isWordish(tok lexer.Token) bool {
	return tok.Kind.IsWord() || tok.Kind == lexer.String
}

// unquoteLabel strips the quotes when a label consists of a single string.
func unquoteLabel(s string) string {
	if len(s) >= 2 && (s[0] == '"' && s[len(s)-1] == '"' || s[0] == '\'' && s[len(s)-1] == '\'') {
		inner := s[1 : len(s)-1]
		if !strings.ContainsRune(inner, rune(s[0])) {
			return inner
		}
	}
	return s
}
