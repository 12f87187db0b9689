package parser

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/lexer"
	"github.com/martinemde/diagrams/syntax"
)

// cardinalities maps both the left-hand and right-hand glyph pairs.
var cardinalities = map[string]ast.Cardinality{
	"|o": ast.ZeroOrOne,
	"o|": ast.ZeroOrOne,
	"||": ast.ExactlyOne,
	"}o": ast.ZeroOrMore,
	"o{": ast.ZeroOrMore,
	"}|": ast.OneOrMore,
	"|{": ast.OneOrMore,
}

var identifications = map[string]ast.Identification{
	"--": ast.Identifying,
	"..": ast.NonIdentifying,
}

// ErrNotation is wrapped by errors from DecodeERNotation.
var ErrNotation = errors.New("invalid relationship notation")

// DecodeERNotation splits a relationship notation such as "||--o{" into its
// three fixed two-character windows.
func DecodeERNotation(notation string) (from ast.Cardinality, id ast.Identification, to ast.Cardinality, err error) {
	if len(notation) < 5 || len(notation) > 6 {
		return "", "", "", fmt.Errorf("%w %q", ErrNotation, notation)
	}
	window := func(i int) string { return notation[i:min(i+2, len(notation))] }

	var ok bool
	if from, ok = cardinalities[window(0)]; !ok {
		return "", "", "", fmt.Errorf("%w %q: unknown cardinality %q", ErrNotation, notation, window(0))
	}
	if id, ok = identifications[window(2)]; !ok {
		return "", "", "", fmt.Errorf("%w %q: unknown identification %q", ErrNotation, notation, window(2))
	}
	if to, ok = cardinalities[window(4)]; !ok {
		return "", "", "", fmt.Errorf("%w %q: unknown cardinality %q", ErrNotation, notation, window(4))
	}
	return from, id, to, nil
}

// EncodeERNotation is the inverse of DecodeERNotation, using the canonical
// glyphs of each side.
func EncodeERNotation(from ast.Cardinality, id ast.Identification, to ast.Cardinality) string {
	left := map[ast.Cardinality]string{
		ast.ZeroOrOne: "|o", ast.ExactlyOne: "||", ast.ZeroOrMore: "}o", ast.OneOrMore: "}|",
	}
	right := map[ast.Cardinality]string{
		ast.ZeroOrOne: "o|", ast.ExactlyOne: "||", ast.ZeroOrMore: "o{", ast.OneOrMore: "|{",
	}
	line := "--"
	if id == ast.NonIdentifying {
		line = ".."
	}
	return left[from] + line + right[to]
}

type erParser struct {
	s     *stream
	diag  *ast.ERDiagram
	index map[string]int
	ends  [][2]syntax.Span // endpoint spans, parallel to diag.Relationships
}

func parseER(src string, start syntax.Position, budget *syntax.Budget) (*ast.ERDiagram, error) {
	s, err := newStream(src, start, budget)
	if err != nil {
		return nil, err
	}
	s.skipSeparators()
	hdr, err := s.expect(lexer.KwERDiagram, "erDiagram")
	if err != nil {
		return nil, err
	}
	p := &erParser{
		s:     s,
		diag:  &ast.ERDiagram{Entities: []ast.Entity{}, Relationships: []ast.Relationship{}},
		index: make(map[string]int),
	}
	p.diag.Span = hdr.Span
	if err := s.endStatement(); err != nil {
		return nil, err
	}

	for !s.at(lexer.EOF) {
		if err := s.step(); err != nil {
			return nil, err
		}
		if err := p.parseStatement(); err != nil {
			return nil, err
		}
		s.skipSeparators()
	}
	p.diag.End = s.lastEnd()
	p.synthesize()
	return p.diag, nil
}

func (p *erParser) parseStatement() error {
	s := p.s
	tok := s.peek()
	switch {
	case tok.Kind == lexer.KwDirection:
		s.skipLine()
		return nil
	case tok.Kind == lexer.KwClassDef, tok.Kind == lexer.KwClass, tok.Kind == lexer.KwStyle:
		s.skipLine()
		return nil
	case !tok.Kind.IsWord() && tok.Kind != lexer.String:
		return s.unexpected(tok, "entity name")
	}

	name, nameSpan := p.parseName()
	alias, err := p.parseAlias()
	if err != nil {
		return err
	}

	switch next := s.peek(); {
	case next.Kind == lexer.LBrace:
		return p.parseEntity(name, alias, nameSpan)
	case s.atLineEnd():
		e := p.declare(name, nameSpan)
		if alias != "" {
			e.Alias = alias
		}
		return s.endStatement()
	case isNotationGlyph(next):
		return p.parseRelationship(name, nameSpan)
	default:
		return s.unexpected(next, "'{' or relationship notation")
	}
}

// parseName reads an entity name. Hyphenated names such as LINE-ITEM lex
// as several tokens; adjacent pieces are glued back together.
func (p *erParser) parseName() (string, syntax.Span) {
	s := p.s
	first := s.next()
	if first.Kind == lexer.String {
		return first.Unquote(), first.Span
	}
	last := first
	for {
		dash, word := s.peek(), s.peekN(1)
		if dash.Kind != lexer.Line || dash.Value != "-" || dash.Start.Offset != last.End.Offset ||
			!word.Kind.IsWord() || word.Start.Offset != dash.End.Offset {
			break
		}
		s.next()
		last = s.next()
	}
	return s.text(first, last), syntax.Span{Start: first.Start, End: last.End}
}

// parseAlias reads an optional ["Alias"] or [Alias] after an entity name.
func (p *erParser) parseAlias() (string, error) {
	s := p.s
	open, ok := s.accept(lexer.LBracket)
	if !ok {
		return "", nil
	}
	closer, err := s.until("]", "']' to close entity alias")
	if err != nil {
		return "", err
	}
	s.next()
	return unquoteLabel(strings.TrimSpace(s.slice(open.End.Offset, closer.End.Offset-1))), nil
}

func (p *erParser) declare(name string, span syntax.Span) *ast.Entity {
	if i, ok := p.index[name]; ok {
		return &p.diag.Entities[i]
	}
	p.index[name] = len(p.diag.Entities)
	p.diag.Entities = append(p.diag.Entities, ast.Entity{Name: name, Attributes: []ast.Attribute{}, Span: span})
	return &p.diag.Entities[len(p.diag.Entities)-1]
}

func (p *erParser) parseEntity(name, alias string, nameSpan syntax.Span) error {
	s := p.s
	s.next() // {
	var attrs []ast.Attribute
	for {
		if err := s.step(); err != nil {
			return err
		}
		s.skipSeparators()
		if rb, ok := s.accept(lexer.RBrace); ok {
			e := p.declare(name, nameSpan)
			if alias != "" {
				e.Alias = alias
			}
			e.Attributes = append(e.Attributes, attrs...)
			e.End = rb.End
			return s.endStatement()
		}
		if s.at(lexer.EOF) {
			return s.errorf(s.peek(), "expected '}' to close entity %s", name)
		}
		attr, err := p.parseAttribute()
		if err != nil {
			return err
		}
		attrs = append(attrs, attr)
	}
}

// parseAttribute reads "type name [PK|FK|UK[, ...]] ["comment"]".
func (p *erParser) parseAttribute() (ast.Attribute, error) {
	s := p.s
	typeTok, err := s.expectWord("attribute type")
	if err != nil {
		return ast.Attribute{}, err
	}
	typeEnd := typeTok
	// varchar(255), string[]
	for s.at(lexer.LParen, lexer.LBracket) && s.peek().Start.Offset == typeEnd.End.Offset {
		closer := ")"
		if s.at(lexer.LBracket) {
			closer = "]"
		}
		s.next()
		if _, err := s.until(closer, fmt.Sprintf("%q in attribute type", closer)); err != nil {
			return ast.Attribute{}, err
		}
		typeEnd = s.next()
	}
	nameTok, err := s.expectWord("attribute name")
	if err != nil {
		return ast.Attribute{}, err
	}
	attr := ast.Attribute{Type: s.text(typeTok, typeEnd), Name: nameTok.Value}
	attr.Span = syntax.Span{Start: typeTok.Start, End: nameTok.End}

	for s.peek().Kind.IsWord() {
		key := s.peek()
		switch ast.KeyType(key.Value) {
		case ast.KeyPrimary, ast.KeyForeign, ast.KeyUnique:
		default:
			return ast.Attribute{}, s.unexpected(key, "PK, FK or UK")
		}
		s.next()
		attr.Keys = append(attr.Keys, ast.KeyType(key.Value))
		attr.End = key.End
		if _, ok := s.accept(lexer.Comma); !ok {
			break
		}
	}
	if c, ok := s.accept(lexer.String); ok {
		attr.Comment = c.Unquote()
		attr.End = c.End
	}
	if !s.atLineEnd() && !s.at(lexer.RBrace) {
		return ast.Attribute{}, s.unexpected(s.peek(), "end of attribute")
	}
	return attr, nil
}

// isNotationGlyph reports whether tok can be part of a relationship
// notation. A bare "o" identifier is a glyph too.
func isNotationGlyph(tok lexer.Token) bool {
	switch tok.Kind {
	case lexer.Pipe, lexer.LBrace, lexer.RBrace, lexer.Line, lexer.DottedLine,
		lexer.CircleEdge, lexer.CrossEdge, lexer.Arrow, lexer.Dot:
		return true
	case lexer.Identifier:
		return tok.Value == "o"
	}
	return false
}

// readNotation concatenates glyph tokens up to the target entity name.
func (p *erParser) readNotation() (string, syntax.Span) {
	s := p.s
	var b strings.Builder
	span := syntax.Span{Start: s.peek().Start, End: s.peek().Start}
	for isNotationGlyph(s.peek()) {
		if s.peek().Kind == lexer.Identifier && b.Len() > 0 && s.peek().Start.Offset != span.End.Offset {
			// a detached "o" is the target entity
			break
		}
		tok := s.next()
		b.WriteString(tok.Value)
		span.End = tok.End
	}
	return b.String(), span
}

func (p *erParser) parseRelationship(from string, fromSpan syntax.Span) error {
	s := p.s
	notation, span := p.readNotation()
	fromCard, ident, toCard, err := DecodeERNotation(notation)
	if err != nil {
		e := syntax.Errorf(span.Start, "%s", err.Error())
		e.Token = notation
		e.Cause = err
		return e
	}

	tok := s.peek()
	if !tok.Kind.IsWord() && tok.Kind != lexer.String {
		return s.unexpected(tok, "entity name after "+notation)
	}
	to, toSpan := p.parseName()
	rel := ast.Relationship{
		From:            from,
		To:              to,
		FromCardinality: fromCard,
		ToCardinality:   toCard,
		Identification:  ident,
		Span:            syntax.Span{Start: fromSpan.Start, End: toSpan.End},
	}
	if _, ok := s.accept(lexer.Colon); ok {
		text, _, last, ok := s.restOfLine()
		if ok {
			rel.Label = unquoteLabel(text)
			rel.End = last.End
		}
	}
	p.diag.Relationships = append(p.diag.Relationships, rel)
	p.ends = append(p.ends, [2]syntax.Span{fromSpan, toSpan})
	return s.endStatement()
}

// synthesize creates an empty entity for every relationship endpoint that
// was never declared, keeping Entities in source order.
func (p *erParser) synthesize() {
	added := false
	for ri, r := range p.diag.Relationships {
		for i, name := range []string{r.From, r.To} {
			if _, ok := p.index[name]; ok {
				continue
			}
			p.index[name] = len(p.diag.Entities)
			p.diag.Entities = append(p.diag.Entities, ast.Entity{Name: name, Attributes: []ast.Attribute{}, Span: p.ends[ri][i]})
			added = true
		}
	}
	if added {
		slices.SortStableFunc(p.diag.Entities, func(a, b ast.Entity) int {
			return a.Start.Offset - b.Start.Offset
		})
	}
}
