package parser

import (
	"fmt"
	"strings"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/seqlexer"
	"github.com/martinemde/diagrams/syntax"
)

var arrowStyles = map[seqlexer.Kind]ast.ArrowStyle{
	seqlexer.SolidLine:   ast.ArrowSolid,
	seqlexer.DottedLine:  ast.ArrowDotted,
	seqlexer.SolidArrow:  ast.ArrowSolidHead,
	seqlexer.DottedArrow: ast.ArrowDottedHead,
	seqlexer.SolidCross:  ast.ArrowSolidCross,
	seqlexer.DottedCross: ast.ArrowDottedCross,
	seqlexer.SolidOpen:   ast.ArrowSolidOpen,
	seqlexer.DottedOpen:  ast.ArrowDottedOpen,
}

type seqParser struct {
	src    string
	base   int
	toks   []seqlexer.Token
	i      int
	budget *syntax.Budget
	diag   *ast.Sequence
}

func parseSequence(src string, start syntax.Position, budget *syntax.Budget) (*ast.Sequence, error) {
	toks, err := seqlexer.Tokenize(src, seqlexer.WithStart(start), seqlexer.WithBudget(budget))
	if err != nil {
		return nil, err
	}
	p := &seqParser{src: src, base: start.Offset, toks: toks, budget: budget}
	p.skipSeparators()

	hdr, err := p.expect(seqlexer.KwSequenceDiagram, "sequenceDiagram")
	if err != nil {
		return nil, err
	}
	p.diag = &ast.Sequence{}
	p.diag.Start = hdr.Start
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	stmts, _, err := p.parseStatements("")
	if err != nil {
		return nil, err
	}
	p.diag.Statements = stmts
	p.diag.End = p.lastEnd()
	return p.diag, nil
}

func (p *seqParser) peek() seqlexer.Token { return p.peekN(0) }

func (p *seqParser) peekN(n int) seqlexer.Token {
	if p.i+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.i+n]
}

func (p *seqParser) next() seqlexer.Token {
	tok := p.peek()
	if p.i < len(p.toks)-1 {
		p.i++
	}
	return tok
}

func (p *seqParser) at(kinds ...seqlexer.Kind) bool {
	k := p.peek().Kind
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}

func (p *seqParser) expect(kind seqlexer.Kind, what string) (seqlexer.Token, error) {
	if !p.at(kind) {
		return seqlexer.Token{}, p.unexpected(p.peek(), what)
	}
	return p.next(), nil
}

func (p *seqParser) lastEnd() syntax.Position {
	for j := p.i - 1; j >= 0; j-- {
		switch p.toks[j].Kind {
		case seqlexer.Newline, seqlexer.Semicolon, seqlexer.EOF:
			continue
		}
		return p.toks[j].End
	}
	return p.toks[0].Start
}

func (p *seqParser) atLineEnd() bool {
	return p.at(seqlexer.Newline, seqlexer.Semicolon, seqlexer.EOF)
}

func (p *seqParser) skipSeparators() {
	for p.at(seqlexer.Newline, seqlexer.Semicolon) {
		p.next()
	}
}

func (p *seqParser) endStatement() error {
	if !p.atLineEnd() {
		return p.unexpected(p.peek(), "end of line")
	}
	p.skipSeparators()
	return nil
}

func (p *seqParser) skipLine() {
	for !p.at(seqlexer.Newline, seqlexer.EOF) {
		p.next()
	}
	p.skipSeparators()
}

// restOfLine returns the trimmed raw text up to the end of the line.
func (p *seqParser) restOfLine() string {
	if p.atLineEnd() {
		return ""
	}
	first := p.next()
	last := first
	for !p.atLineEnd() {
		last = p.next()
	}
	from, to := first.Start.Offset-p.base, last.End.Offset-p.base
	return strings.TrimSpace(p.src[from:to])
}

func (p *seqParser) errorf(tok seqlexer.Token, format string, args ...any) *syntax.ParserError {
	e := syntax.Errorf(tok.Start, format, args...)
	if tok.Kind != seqlexer.EOF {
		e.Token = tok.Value
	}
	e.TokenType = tok.Kind.String()
	return e
}

func (p *seqParser) unexpected(tok seqlexer.Token, want string) error {
	got := fmt.Sprintf("%s (%q)", tok.Kind, tok.Value)
	switch tok.Kind {
	case seqlexer.EOF:
		got = "end of input"
	case seqlexer.Newline:
		got = "end of line"
	}
	return p.errorf(tok, "expected %s, got %s", want, got)
}

// blockTerminators lists, per block keyword, the tokens that end one of
// its statement lists.
var blockTerminators = map[string][]seqlexer.Kind{
	"":         nil,
	"loop":     {seqlexer.KwEnd},
	"opt":      {seqlexer.KwEnd},
	"break":    {seqlexer.KwEnd},
	"rect":     {seqlexer.KwEnd},
	"box":      {seqlexer.KwEnd},
	"alt":      {seqlexer.KwElse, seqlexer.KwEnd},
	"par":      {seqlexer.KwAnd, seqlexer.KwEnd},
	"critical": {seqlexer.KwOption, seqlexer.KwEnd},
}

// parseStatements reads statements until one of the terminators of block
// (not consumed) or, at top level, EOF.
func (p *seqParser) parseStatements(block string) ([]ast.SequenceStatement, seqlexer.Token, error) {
	stops := blockTerminators[block]
	list := []ast.SequenceStatement{}
	for {
		if err := p.budget.Step(p.peek().Start); err != nil {
			return nil, seqlexer.Token{}, err
		}
		p.skipSeparators()
		tok := p.peek()
		if tok.Kind == seqlexer.EOF {
			if block != "" {
				return nil, seqlexer.Token{}, p.errorf(tok, "expected end to close %s", block)
			}
			return list, tok, nil
		}
		for _, k := range stops {
			if tok.Kind == k {
				return list, tok, nil
			}
		}

		stmts, err := p.parseStatement()
		if err != nil {
			return nil, seqlexer.Token{}, err
		}
		list = append(list, stmts...)
	}
}

func (p *seqParser) parseStatement() ([]ast.SequenceStatement, error) {
	tok := p.peek()
	switch tok.Kind {
	case seqlexer.KwParticipant, seqlexer.KwActor:
		st, err := p.parseParticipant()
		return one(st, err)
	case seqlexer.KwNote:
		st, err := p.parseNote()
		return one(st, err)
	case seqlexer.KwLoop, seqlexer.KwOpt, seqlexer.KwBreak, seqlexer.KwRect:
		st, err := p.parseSimpleBlock()
		return one(st, err)
	case seqlexer.KwAlt, seqlexer.KwPar, seqlexer.KwCritical:
		st, err := p.parseBranchedBlock()
		return one(st, err)
	case seqlexer.KwBox:
		return p.parseBox()
	case seqlexer.KwAutonumber:
		p.diag.Autonumber = true
		p.skipLine()
		return nil, nil
	case seqlexer.KwTitle:
		p.next()
		if p.at(seqlexer.Colon) {
			p.next()
		}
		p.diag.Title = p.restOfLine()
		return nil, p.endStatement()
	case seqlexer.KwActivate, seqlexer.KwDeactivate, seqlexer.KwLink, seqlexer.KwLinks,
		seqlexer.KwProperties, seqlexer.KwCreate, seqlexer.KwDestroy:
		// recognized, not represented
		p.skipLine()
		return nil, nil
	case seqlexer.KwEnd, seqlexer.KwElse, seqlexer.KwAnd, seqlexer.KwOption:
		return nil, p.errorf(tok, "unexpected %q outside of a matching block", tok.Value)
	}
	if tok.Kind.IsWord() || tok.Kind == seqlexer.String {
		st, err := p.parseMessage()
		return one(st, err)
	}
	return nil, p.unexpected(tok, "statement")
}

func one(st ast.SequenceStatement, err error) ([]ast.SequenceStatement, error) {
	if err != nil {
		return nil, err
	}
	return []ast.SequenceStatement{st}, nil
}

// actor reads a participant name: a word or a quoted string.
func (p *seqParser) actor() (seqlexer.Token, string, error) {
	tok := p.peek()
	switch {
	case tok.Kind.IsWord():
		p.next()
		return tok, tok.Value, nil
	case tok.Kind == seqlexer.String:
		p.next()
		return tok, unquoteLabel(tok.Value), nil
	}
	return seqlexer.Token{}, "", p.unexpected(tok, "participant name")
}

func (p *seqParser) parseParticipant() (*ast.Participant, error) {
	kw := p.next()
	kind := ast.ParticipantBox
	if kw.Kind == seqlexer.KwActor {
		kind = ast.ParticipantActor
	}
	tok, id, err := p.actor()
	if err != nil {
		return nil, err
	}
	part := &ast.Participant{ID: id, Kind: kind}
	part.Span = syntax.Span{Start: kw.Start, End: tok.End}
	if p.at(seqlexer.KwAs) {
		p.next()
		part.Label = p.restOfLine()
		part.End = p.lastEnd()
	}
	return part, p.endStatement()
}

func (p *seqParser) parseMessage() (*ast.Message, error) {
	fromTok, from, err := p.actor()
	if err != nil {
		return nil, err
	}
	msg := &ast.Message{From: from}
	msg.Start = fromTok.Start

	p.activation(msg)
	arrow := p.peek()
	style, ok := arrowStyles[arrow.Kind]
	if !ok {
		return nil, p.unexpected(arrow, "message arrow")
	}
	p.next()
	msg.Arrow = style
	p.activation(msg)

	toTok, to, err := p.actor()
	if err != nil {
		return nil, err
	}
	msg.To = to
	msg.End = toTok.End
	if p.at(seqlexer.Colon) {
		colon := p.next()
		msg.End = colon.End
		if p.at(seqlexer.Text) {
			text := p.next()
			msg.Text = text.Value
			msg.End = text.End
		}
	}
	return msg, p.endStatement()
}

// activation consumes an optional '+' or '-' marker on either side of the
// arrow.
func (p *seqParser) activation(msg *ast.Message) {
	switch {
	case p.at(seqlexer.Plus):
		p.next()
		msg.Activate = true
	case p.at(seqlexer.Minus):
		p.next()
		msg.Deactivate = true
	}
}

func (p *seqParser) parseNote() (*ast.Note, error) {
	kw := p.next()
	note := &ast.Note{}
	note.Start = kw.Start

	switch p.peek().Kind {
	case seqlexer.KwLeft, seqlexer.KwRight:
		side := p.next()
		if _, err := p.expect(seqlexer.KwOf, "of"); err != nil {
			return nil, err
		}
		note.Placement = ast.NoteLeftOf
		if side.Kind == seqlexer.KwRight {
			note.Placement = ast.NoteRightOf
		}
	case seqlexer.KwOver:
		p.next()
		note.Placement = ast.NoteOver
	default:
		return nil, p.unexpected(p.peek(), "left of, right of or over")
	}

	for {
		tok, name, err := p.actor()
		if err != nil {
			return nil, err
		}
		note.Actors = append(note.Actors, name)
		note.End = tok.End
		if !p.at(seqlexer.Comma) {
			break
		}
		if note.Placement != ast.NoteOver {
			return nil, p.errorf(p.peek(), "only notes placed over may span several participants")
		}
		p.next()
	}
	if p.at(seqlexer.Colon) {
		colon := p.next()
		note.End = colon.End
		if p.at(seqlexer.Text) {
			text := p.next()
			note.Text = text.Value
			note.End = text.End
		}
	}
	return note, p.endStatement()
}

// parseSimpleBlock reads loop, opt, break and rect: a header suffix and a
// statement list closed by end.
func (p *seqParser) parseSimpleBlock() (ast.SequenceStatement, error) {
	kw := p.next()
	label := p.restOfLine()
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	body, end, err := p.parseStatements(kw.Value)
	if err != nil {
		return nil, err
	}
	p.next()
	span := syntax.Span{Start: kw.Start, End: end.End}
	if err := p.endStatement(); err != nil {
		return nil, err
	}

	switch kw.Kind {
	case seqlexer.KwLoop:
		return &ast.Loop{Label: label, Statements: body, Span: span}, nil
	case seqlexer.KwOpt:
		return &ast.Opt{Label: label, Statements: body, Span: span}, nil
	case seqlexer.KwBreak:
		return &ast.Break{Label: label, Statements: body, Span: span}, nil
	default:
		return &ast.Rect{Color: label, Statements: body, Span: span}, nil
	}
}

// parseBranchedBlock reads alt/else, par/and and critical/option. One end
// closes the block and all of its branches.
func (p *seqParser) parseBranchedBlock() (ast.SequenceStatement, error) {
	kw := p.next()
	label := p.restOfLine()
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	body, stop, err := p.parseStatements(kw.Value)
	if err != nil {
		return nil, err
	}

	branches := []ast.Branch{}
	for stop.Kind != seqlexer.KwEnd {
		p.next()
		br := ast.Branch{Condition: p.restOfLine()}
		br.Start = stop.Start
		if err := p.endStatement(); err != nil {
			return nil, err
		}
		next, nextStop, err := p.parseStatements(kw.Value)
		if err != nil {
			return nil, err
		}
		br.Statements = next
		br.End = p.lastEnd()
		branches = append(branches, br)
		stop = nextStop
	}
	p.next()
	span := syntax.Span{Start: kw.Start, End: stop.End}
	if err := p.endStatement(); err != nil {
		return nil, err
	}

	switch kw.Kind {
	case seqlexer.KwAlt:
		return &ast.Alt{Condition: label, Statements: body, ElseBlocks: branches, Span: span}, nil
	case seqlexer.KwPar:
		return &ast.Par{Label: label, Statements: body, AndBlocks: branches, Span: span}, nil
	default:
		return &ast.Critical{Label: label, Statements: body, Options: branches, Span: span}, nil
	}
}

// parseBox drops the box grouping but keeps the participants declared in it.
func (p *seqParser) parseBox() ([]ast.SequenceStatement, error) {
	p.skipLine()
	body, _, err := p.parseStatements("box")
	if err != nil {
		return nil, err
	}
	p.next()
	return body, p.endStatement()
}
