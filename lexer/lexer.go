package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/martinemde/diagrams/syntax"
)

// Option configures a Lexer.
type Option func(*Lexer)

// WithStart makes token positions absolute by starting the cursor at pos.
// Use it when src is a segment cut out of a larger document.
func WithStart(pos syntax.Position) Option {
	return func(l *Lexer) { l.pos = pos }
}

// WithBudget charges one step of b per emitted token.
func WithBudget(b *syntax.Budget) Option {
	return func(l *Lexer) { l.budget = b }
}

// Lexer tokenizes flowchart, class, ER, state and Gantt source text.
type Lexer struct {
	src    string
	off    int             // byte offset into src
	pos    syntax.Position // absolute position of src[off]
	budget *syntax.Budget
	peeked *Token
	done   bool
}

// New creates a Lexer over src.
func New(src string, opts ...Option) *Lexer {
	l := &Lexer{src: src, pos: syntax.Start}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tokenize scans all of src and returns the tokens, always terminated by EOF.
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

// Peek returns the next token without consuming it.
func (l *Lexer) Peek() (Token, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}
	tok, err := l.Next()
	if err != nil {
		return Token{}, err
	}
	l.peeked = &tok
	return tok, nil
}

// Next returns the next token and advances the lexer. After EOF it keeps
// returning EOF.
func (l *Lexer) Next() (Token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	if l.done {
		return Token{Kind: EOF, Span: syntax.Span{Start: l.pos, End: l.pos}}, nil
	}
	l.skipSpaceAndComments()
	if err := l.budget.Step(l.pos); err != nil {
		return Token{}, err
	}
	if l.atEnd() {
		l.done = true
		return Token{Kind: EOF, Span: syntax.Span{Start: l.pos, End: l.pos}}, nil
	}

	before := l.off
	tok, err := l.scan()
	if err != nil {
		return Token{}, err
	}
	if l.off <= before {
		// every scan branch consumes input; reaching this is a lexer bug
		return Token{}, &syntax.LexerError{
			Message: fmt.Sprintf("tokenizer made no progress on %q", l.src[before:min(before+8, len(l.src))]),
			Pos:     tok.Start,
		}
	}
	return tok, nil
}

func (l *Lexer) atEnd() bool { return l.off >= len(l.src) }

func (l *Lexer) peekAt(n int) byte {
	if l.off+n >= len(l.src) {
		return 0
	}
	return l.src[l.off+n]
}

func (l *Lexer) advance() byte {
	ch := l.src[l.off]
	l.off++
	l.pos.Offset++
	if ch == '\n' {
		l.pos.Line++
		l.pos.Column = 0
	} else {
		l.pos.Column++
	}
	return ch
}

func (l *Lexer) advanceN(n int) {
	for i := 0; i < n && !l.atEnd(); i++ {
		l.advance()
	}
}

// skipSpaceAndComments drops blanks and %% comments. Newlines are tokens
// and are left in place.
func (l *Lexer) skipSpaceAndComments() {
	for !l.atEnd() {
		ch := l.src[l.off]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			l.advance()
		case ch == '%' && l.peekAt(1) == '%':
			for !l.atEnd() && l.src[l.off] != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

func (l *Lexer) emit(kind Kind, start syntax.Position, startOff int) Token {
	return Token{
		Kind:  kind,
		Value: l.src[startOff:l.off],
		Span:  syntax.Span{Start: start, End: l.pos},
	}
}

func (l *Lexer) scan() (Token, error) {
	start, startOff := l.pos, l.off
	ch := l.src[l.off]

	switch ch {
	case '\n':
		l.advance()
		return l.emit(Newline, start, startOff), nil
	case '"':
		return l.scanString(ch)
	case '\'':
		if l.hasClosingQuoteOnLine('\'') {
			return l.scanString(ch)
		}
		l.advance()
		return l.emit(Quote, start, startOff), nil
	case '-':
		return l.scanDashRun(), nil
	case '=':
		return l.scanEqualsRun(), nil
	case '~':
		return l.scanTildeRun(), nil
	case '.':
		return l.scanDotRun(), nil
	case '[', '(', '{':
		return l.scanOpener(), nil
	case ']', ')', '}', '/', '\\':
		return l.scanCloserOrSingle(), nil
	}

	if isIdentByte(ch) || ch >= utf8.RuneSelf {
		return l.scanIdentifier()
	}

	if kind, ok := singles[ch]; ok {
		l.advance()
		return l.emit(kind, start, startOff), nil
	}

	l.advance()
	return Token{}, &syntax.LexerError{
		Message: fmt.Sprintf("unexpected character %q", ch),
		Pos:     start,
	}
}

var singles = map[byte]Kind{
	':': Colon,
	';': Semicolon,
	',': Comma,
	'|': Pipe,
	'&': Amp,
	'*': Star,
	'+': Plus,
	'#': Hash,
	'$': Dollar,
	'%': Percent,
	'<': Lt,
	'>': Gt,
	'?': Question,
	'!': Bang,
	'@': At,
	'^': Caret,
	'`': Backtick,
}

// scanDashRun resolves a run of '-' by its suffix: '>' arrow, 'o' circle
// edge, 'x' cross edge, '.' dotted variant, otherwise a plain line of the
// same length.
func (l *Lexer) scanDashRun() Token {
	start, startOff := l.pos, l.off
	n := 0
	for !l.atEnd() && l.src[l.off] == '-' {
		l.advance()
		n++
	}
	if l.atEnd() {
		return l.emit(Line, start, startOff)
	}
	switch next := l.src[l.off]; {
	case next == '>':
		l.advance()
		return l.emit(Arrow, start, startOff)
	case n >= 2 && (next == 'o' || next == 'x') && !isIdentByte(l.peekAt(1)):
		l.advance()
		if next == 'o' {
			return l.emit(CircleEdge, start, startOff)
		}
		return l.emit(CrossEdge, start, startOff)
	case next == '.':
		for !l.atEnd() && l.src[l.off] == '.' {
			l.advance()
		}
		for !l.atEnd() && l.src[l.off] == '-' {
			l.advance()
		}
		if !l.atEnd() && l.src[l.off] == '>' {
			l.advance()
			return l.emit(DottedArrow, start, startOff)
		}
		return l.emit(DottedLine, start, startOff)
	}
	return l.emit(Line, start, startOff)
}

func (l *Lexer) scanEqualsRun() Token {
	start, startOff := l.pos, l.off
	n := 0
	for !l.atEnd() && l.src[l.off] == '=' {
		l.advance()
		n++
	}
	if n >= 2 && !l.atEnd() && l.src[l.off] == '>' {
		l.advance()
		return l.emit(ThickArrow, start, startOff)
	}
	if n >= 2 {
		return l.emit(ThickLine, start, startOff)
	}
	return l.emit(Equals, start, startOff)
}

func (l *Lexer) scanTildeRun() Token {
	start, startOff := l.pos, l.off
	n := 0
	for l.peekAt(n) == '~' {
		n++
	}
	if n >= 3 {
		l.advanceN(n)
		return l.emit(InvisibleLine, start, startOff)
	}
	l.advance()
	return l.emit(Tilde, start, startOff)
}

// scanDotRun handles '.', the ER/class '..' dotted line and '..>'.
func (l *Lexer) scanDotRun() Token {
	start, startOff := l.pos, l.off
	n := 0
	for !l.atEnd() && l.src[l.off] == '.' {
		l.advance()
		n++
	}
	if n == 1 {
		return l.emit(Dot, start, startOff)
	}
	if !l.atEnd() && l.src[l.off] == '>' {
		l.advance()
		return l.emit(DottedArrow, start, startOff)
	}
	return l.emit(DottedLine, start, startOff)
}

// scanOpener applies multi-character lookahead for the shape openers.
func (l *Lexer) scanOpener() Token {
	start, startOff := l.pos, l.off
	a, b, c := l.peekAt(0), l.peekAt(1), l.peekAt(2)
	kind, width := LBracket, 1
	switch a {
	case '[':
		switch b {
		case '[':
			kind, width = SubroutineStart, 2
		case '(':
			kind, width = CylinderStart, 2
		case '/':
			kind, width = ParallelogramStart, 2
		case '\\':
			kind, width = ParallelogramAltStart, 2
		}
	case '(':
		switch {
		case b == '(' && c == '(':
			kind, width = DoubleCircleStart, 3
		case b == '(':
			kind, width = CircleStart, 2
		case b == '[':
			kind, width = StadiumStart, 2
		default:
			kind = LParen
		}
	case '{':
		if b == '{' {
			kind, width = HexagonStart, 2
		} else {
			kind = LBrace
		}
	}
	l.advanceN(width)
	return l.emit(kind, start, startOff)
}

func (l *Lexer) scanCloserOrSingle() Token {
	start, startOff := l.pos, l.off
	a, b, c := l.peekAt(0), l.peekAt(1), l.peekAt(2)
	kind, width := RBracket, 1
	switch a {
	case ']':
		switch b {
		case ']':
			kind, width = SubroutineEnd, 2
		case ')':
			kind, width = StadiumEnd, 2
		}
	case ')':
		switch {
		case b == ')' && c == ')':
			kind, width = DoubleCircleEnd, 3
		case b == ')':
			kind, width = CircleEnd, 2
		case b == ']':
			kind, width = CylinderEnd, 2
		default:
			kind = RParen
		}
	case '}':
		if b == '}' {
			kind, width = HexagonEnd, 2
		} else {
			kind = RBrace
		}
	case '/':
		if b == ']' {
			kind, width = ParallelogramEnd, 2
		} else {
			kind = Slash
		}
	case '\\':
		if b == ']' {
			kind, width = ParallelogramAltEnd, 2
		} else {
			kind = Backslash
		}
	}
	l.advanceN(width)
	return l.emit(kind, start, startOff)
}

func (l *Lexer) hasClosingQuoteOnLine(q byte) bool {
	for i := l.off + 1; i < len(l.src); i++ {
		switch l.src[i] {
		case q:
			return true
		case '\n':
			return false
		}
	}
	return false
}

// scanString reads a quote-delimited string. Strings may span lines.
func (l *Lexer) scanString(q byte) (Token, error) {
	start, startOff := l.pos, l.off
	l.advance() // opening quote
	for {
		if l.atEnd() {
			return Token{}, &syntax.LexerError{
				Message: "unterminated string",
				Pos:     l.pos,
			}
		}
		if l.advance() == q {
			return l.emit(String, start, startOff), nil
		}
	}
}

// scanIdentifier extracts the maximal identifier run, then checks the
// keyword table.
func (l *Lexer) scanIdentifier() (Token, error) {
	start, startOff := l.pos, l.off
	for !l.atEnd() {
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
	if l.off == startOff {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		l.advanceN(max(size, 1))
		return Token{}, &syntax.LexerError{
			Message: fmt.Sprintf("unexpected character %q", r),
			Pos:     start,
		}
	}
	tok := l.emit(Identifier, start, startOff)
	if kind, ok := LookupKeyword(tok.Value); ok {
		tok.Kind = kind
	}
	return tok, nil
}

func isIdentByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_'
}
