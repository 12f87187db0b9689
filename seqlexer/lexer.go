package seqlexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/martinemde/diagrams/syntax"
)

// Option configures a Lexer.
type Option func(*Lexer)

// WithStart makes token positions absolute by starting the cursor at pos.
func WithStart(pos syntax.Position) Option {
	return func(l *Lexer) { l.pos = pos }
}

// WithBudget charges one step of b per emitted token.
func WithBudget(b *syntax.Budget) Option {
	return func(l *Lexer) { l.budget = b }
}

// Lexer tokenizes sequence-diagram source.
//
// Every scan branch consumes at least one byte. Next re-checks this after
// each scan and fails instead of looping, so the token count is bounded by
// the input length.
type Lexer struct {
	src       string
	off       int
	pos       syntax.Position
	budget    *syntax.Budget
	afterText bool // previous token was ':'
	done      bool
}

// New creates a Lexer over src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{src: src, pos: syntax.Start}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tokenize scans all of src and returns the tokens, terminated by EOF.
func Tokenize(src string, opts ...Option) ([]Token, error) {
	l := New(src, opts...)
	tokens := make([]Token, 0, len(src)/3+1)
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.done {
		return Token{Kind: EOF, Span: syntax.Span{Start: l.pos, End: l.pos}}, nil
	}
	l.skipBlanks()
	if err := l.budget.Step(l.pos); err != nil {
		return Token{}, err
	}
	if l.off >= len(l.src) {
		l.done = true
		return Token{Kind: EOF, Span: syntax.Span{Start: l.pos, End: l.pos}}, nil
	}

	before := l.off
	var (
		tok Token
		err error
	)
	if l.afterText && l.src[l.off] != '\n' {
		tok = l.scanText()
	} else {
		tok, err = l.scan()
	}
	if err != nil {
		return Token{}, err
	}
	if l.off <= before {
		return Token{}, &syntax.LexerError{
			Message: fmt.Sprintf("sequence tokenizer made no progress on %q", l.src[before:min(before+8, len(l.src))]),
			Pos:     tok.Start,
		}
	}
	l.afterText = tok.Kind == Colon
	return tok, nil
}

func (l *Lexer) peekAt(n int) byte {
	if l.off+n >= len(l.src) {
		return 0
	}
	return l.src[l.off+n]
}

func (l *Lexer) advance() {
	ch := l.src[l.off]
	l.off++
	l.pos.Offset++
	if ch == '\n' {
		l.pos.Line++
		l.pos.Column = 0
	} else {
		l.pos.Column++
	}
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n && l.off < len(l.src); i++ {
		l.advance()
	}
}

func (l *Lexer) skipBlanks() {
	for l.off < len(l.src) {
		ch := l.src[l.off]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '%' && l.peekAt(1) == '%':
			for l.off < len(l.src) && l.src[l.off] != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) emit(kind Kind, start syntax.Position, startOff int) Token {
	return Token{Kind: kind, Value: l.src[startOff:l.off], Span: syntax.Span{Start: start, End: l.pos}}
}

// scanText captures the remainder of the line as a single Text token.
func (l *Lexer) scanText() Token {
	start, startOff := l.pos, l.off
	for l.off < len(l.src) && l.src[l.off] != '\n' {
		l.advance()
	}
	raw := l.src[startOff:l.off]
	trimmed := strings.TrimRight(raw, " \t\r")
	end := start.Advance(trimmed)
	return Token{Kind: Text, Value: trimmed, Span: syntax.Span{Start: start, End: end}}
}

type arrowPattern struct {
	text string
	kind Kind
}

// arrows is ordered 4-char, then 3-char, then 2-char so that "-->>" is never
// read as "-->" followed by '>'.
var arrows = []arrowPattern{
	{"-->>", DottedArrow},
	{"->>", SolidArrow},
	{"--x", DottedCross},
	{"--)", DottedOpen},
	{"-->", DottedLine},
	{"-x", SolidCross},
	{"-)", SolidOpen},
	{"->", SolidLine},
}

func (l *Lexer) scan() (Token, error) {
	start, startOff := l.pos, l.off
	ch := l.src[l.off]

	switch ch {
	case '\n':
		l.advance()
		return l.emit(Newline, start, startOff), nil
	case '-':
		rest := l.src[l.off:]
		for _, a := range arrows {
			if strings.HasPrefix(rest, a.text) {
				l.advanceN(len(a.text))
				return l.emit(a.kind, start, startOff), nil
			}
		}
		l.advance()
		return l.emit(Minus, start, startOff), nil
	case '"':
		return l.scanString()
	case ':':
		l.advance()
		return l.emit(Colon, start, startOff), nil
	case ',':
		l.advance()
		return l.emit(Comma, start, startOff), nil
	case ';':
		l.advance()
		return l.emit(Semicolon, start, startOff), nil
	case '+':
		l.advance()
		return l.emit(Plus, start, startOff), nil
	case '(':
		l.advance()
		return l.emit(LParen, start, startOff), nil
	case ')':
		l.advance()
		return l.emit(RParen, start, startOff), nil
	}

	if isIdentByte(ch) {
		return l.scanIdentifier(), nil
	}
	if ch >= utf8.RuneSelf {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return l.scanIdentifier(), nil
		}
		if r != utf8.RuneError && unicode.IsPrint(r) {
			l.advanceN(size)
			return l.emit(Punct, start, startOff), nil
		}
		l.advanceN(max(size, 1))
		return Token{}, &syntax.LexerError{Message: fmt.Sprintf("unexpected character %q", r), Pos: start}
	}
	if ch > ' ' && ch < 0x7f {
		l.advance()
		return l.emit(Punct, start, startOff), nil
	}
	l.advance()
	return Token{}, &syntax.LexerError{Message: fmt.Sprintf("unexpected character %q", ch), Pos: start}
}

func (l *Lexer) scanString() (Token, error) {
	start, startOff := l.pos, l.off
	l.advance()
	for {
		if l.off >= len(l.src) {
			return Token{}, &syntax.LexerError{Message: "unterminated string", Pos: l.pos}
		}
		ch := l.src[l.off]
		l.advance()
		if ch == '"' {
			return l.emit(String, start, startOff), nil
		}
	}
}

// scanIdentifier consumes the maximal identifier run before consulting the
// keyword table, so "GraphQL" or "participants" stay identifiers.
func (l *Lexer) scanIdentifier() Token {
	start, startOff := l.pos, l.off
	for l.off < len(l.src) {
		ch := l.src[l.off]
		if ch < utf8.RuneSelf {
			if !isIdentByte(ch) {
				break
			}
			l.advance()
			continue
		}
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		l.advanceN(size)
	}
	tok := l.emit(Identifier, start, startOff)
	if kind, ok := LookupKeyword(tok.Value); ok {
		tok.Kind = kind
	}
	return tok
}

func isIdentByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}
