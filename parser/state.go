package parser

import (
	"slices"
	"strings"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/lexer"
	"github.com/martinemde/diagrams/syntax"
)

var stateStereotypes = map[string]ast.StateType{
	"choice": ast.StateChoice,
	"fork":   ast.StateFork,
	"join":   ast.StateJoin,
}

// stateScope collects the body of the diagram or of one composite state.
type stateScope struct {
	states      []ast.State
	index       map[string]int
	transitions []ast.Transition
	notes       []ast.StateNote
	regions     []ast.ConcurrencyRegion
	// start of the current concurrency region in states/transitions
	regionStates, regionTransitions int
	regionStart                     syntax.Position
}

func newStateScope(start syntax.Position) *stateScope {
	return &stateScope{
		states:      []ast.State{},
		index:       make(map[string]int),
		transitions: []ast.Transition{},
		notes:       []ast.StateNote{},
		regionStart: start,
	}
}

func (sc *stateScope) declare(id string, span syntax.Span) *ast.State {
	if i, ok := sc.index[id]; ok {
		return &sc.states[i]
	}
	sc.index[id] = len(sc.states)
	sc.states = append(sc.states, ast.State{ID: id, Type: ast.StateNormal, Span: span})
	return &sc.states[len(sc.states)-1]
}

// cutRegion closes the current concurrency region at a "--" separator.
func (sc *stateScope) cutRegion(end syntax.Position) {
	r := ast.ConcurrencyRegion{
		States:      slices.Clone(sc.states[sc.regionStates:]),
		Transitions: slices.Clone(sc.transitions[sc.regionTransitions:]),
	}
	r.Span = syntax.Span{Start: sc.regionStart, End: end}
	sc.regions = append(sc.regions, r)
	sc.regionStates, sc.regionTransitions = len(sc.states), len(sc.transitions)
	sc.regionStart = end
}

// reference records a transition endpoint on first mention. "[*]" is a
// START pseudostate as a source and an END pseudostate as a target.
func (sc *stateScope) reference(id string, span syntax.Span, target bool) {
	key, typ := id, ast.StateNormal
	if id == ast.Pseudostate {
		key, typ = "[*]start", ast.StateStart
		if target {
			key, typ = "[*]end", ast.StateEnd
		}
	}
	if _, ok := sc.index[key]; ok {
		return
	}
	sc.index[key] = len(sc.states)
	sc.states = append(sc.states, ast.State{ID: id, Type: typ, Span: span})
}

// finish closes the last concurrency region, if the scope was split.
func (sc *stateScope) finish(end syntax.Position) {
	if len(sc.regions) > 0 {
		sc.cutRegion(end)
	}
}

type stateParser struct {
	s    *stream
	diag *ast.StateDiagram
}

func parseState(src string, start syntax.Position, budget *syntax.Budget) (*ast.StateDiagram, error) {
	s, err := newStream(src, start, budget)
	if err != nil {
		return nil, err
	}
	s.semis = true
	s.skipSeparators()
	hdr, err := s.expect(lexer.KwStateDiagram, "stateDiagram or stateDiagram-v2")
	if err != nil {
		return nil, err
	}
	p := &stateParser{s: s, diag: &ast.StateDiagram{Version: "v1"}}
	p.diag.Span = hdr.Span
	if dash, v := s.peek(), s.peekN(1); dash.Kind == lexer.Line && dash.Value == "-" &&
		dash.Start.Offset == hdr.End.Offset && v.Value == "v2" && v.Start.Offset == dash.End.Offset {
		s.next()
		s.next()
		p.diag.Version = "v2"
	}
	if err := s.endStatement(); err != nil {
		return nil, err
	}

	sc := newStateScope(s.peek().Start)
	if _, err := p.parseBody(sc, nil); err != nil {
		return nil, err
	}
	p.diag.End = s.lastEnd()
	sc.finish(p.diag.End)
	p.diag.States = sc.states
	p.diag.Transitions = sc.transitions
	p.diag.Notes = sc.notes
	p.diag.ConcurrencyRegions = sc.regions
	return p.diag, nil
}

// parseBody reads statements into sc until EOF or, for a composite, the
// closing brace, which is returned.
func (p *stateParser) parseBody(sc *stateScope, owner *lexer.Token) (lexer.Token, error) {
	s := p.s
	for {
		if err := s.step(); err != nil {
			return lexer.Token{}, err
		}
		s.skipSeparators()
		tok := s.peek()
		switch {
		case tok.Kind == lexer.EOF:
			if owner != nil {
				return lexer.Token{}, s.errorf(tok, "expected '}' to close state %s", owner.Value)
			}
			return tok, nil
		case tok.Kind == lexer.RBrace:
			if owner == nil {
				return lexer.Token{}, s.unexpected(tok, "statement")
			}
			s.next()
			return tok, s.endStatement()
		case tok.Kind == lexer.KwDirection:
			s.next()
			d, err := s.expectWord("direction")
			if err != nil {
				return lexer.Token{}, err
			}
			if owner == nil {
				p.diag.Direction = d.Value
			}
			if err := s.endStatement(); err != nil {
				return lexer.Token{}, err
			}
		case tok.Kind == lexer.KwClassDef, tok.Kind == lexer.KwClass, tok.Kind == lexer.KwStyle:
			s.skipLine()
		case tok.Kind == lexer.Line && tok.Value == "--":
			s.next()
			sc.cutRegion(tok.Start)
			if err := s.endStatement(); err != nil {
				return lexer.Token{}, err
			}
		case tok.Kind == lexer.KwState:
			if err := p.parseStateDecl(sc); err != nil {
				return lexer.Token{}, err
			}
		case tok.Kind == lexer.KwNote:
			if err := p.parseNote(sc); err != nil {
				return lexer.Token{}, err
			}
		case tok.Kind.IsWord() || tok.Kind == lexer.LBracket:
			if err := p.parseIDStatement(sc); err != nil {
				return lexer.Token{}, err
			}
		default:
			return lexer.Token{}, s.unexpected(tok, "state statement")
		}
	}
}

// parseStateID reads a state id or the "[*]" pseudostate.
func (p *stateParser) parseStateID() (string, syntax.Span, error) {
	s := p.s
	if open, ok := s.accept(lexer.LBracket); ok {
		if _, err := s.expect(lexer.Star, "'*' in [*]"); err != nil {
			return "", syntax.Span{}, err
		}
		closer, err := s.expect(lexer.RBracket, "']' to close [*]")
		if err != nil {
			return "", syntax.Span{}, err
		}
		return ast.Pseudostate, syntax.Span{Start: open.Start, End: closer.End}, nil
	}
	tok, err := s.expectWord("state id")
	if err != nil {
		return "", syntax.Span{}, err
	}
	return tok.Value, tok.Span, nil
}

// parseIDStatement handles "A --> B : label", "A : description" and a
// bare "A".
func (p *stateParser) parseIDStatement(sc *stateScope) error {
	s := p.s
	from, fromSpan, err := p.parseStateID()
	if err != nil {
		return err
	}

	switch {
	case s.peek().Kind == lexer.Arrow:
		s.next()
		to, toSpan, err := p.parseStateID()
		if err != nil {
			return err
		}
		t := ast.Transition{From: from, To: to, Span: syntax.Span{Start: fromSpan.Start, End: toSpan.End}}
		if _, ok := s.accept(lexer.Colon); ok {
			if text, _, last, ok := s.restOfLine(); ok {
				t.Label = text
				t.End = last.End
			}
		}
		sc.reference(from, fromSpan, false)
		sc.reference(to, toSpan, true)
		sc.transitions = append(sc.transitions, t)
	case from == ast.Pseudostate:
		return s.unexpected(s.peek(), "'-->' after [*]")
	case s.at(lexer.Colon):
		s.next()
		st := sc.declare(from, fromSpan)
		if text, _, _, ok := s.restOfLine(); ok {
			if st.Description != "" {
				st.Description += "\n"
			}
			st.Description += text
		}
	default:
		sc.declare(from, fromSpan)
	}
	return s.endStatement()
}

// parseStateDecl handles the forms introduced by "state":
//
//	state id
//	state id <<choice|fork|join>>
//	state "description" as id
//	state id : description
//	state id { ... }
func (p *stateParser) parseStateDecl(sc *stateScope) error {
	s := p.s
	kw := s.next()

	var (
		st   *ast.State
		desc string
	)
	if str, ok := s.accept(lexer.String); ok {
		desc = str.Unquote()
		if _, err := s.expect(lexer.KwAs, "as"); err != nil {
			return err
		}
	}
	idTok, err := s.expectWord("state id")
	if err != nil {
		return err
	}
	st = sc.declare(idTok.Value, syntax.Span{Start: kw.Start, End: idTok.End})
	if desc != "" {
		st.Description = desc
	}

	switch {
	case s.at(lexer.Lt):
		typ, end, err := p.parseStereotype()
		if err != nil {
			return err
		}
		st = &sc.states[sc.index[idTok.Value]]
		st.Type = typ
		st.End = end
	case s.at(lexer.Colon):
		s.next()
		if text, _, last, ok := s.restOfLine(); ok {
			st.Description = text
			st.End = last.End
		}
	case s.at(lexer.LBrace):
		s.next()
		if err := s.endStatement(); err != nil {
			return err
		}
		inner := newStateScope(s.peek().Start)
		closer, err := p.parseBody(inner, &idTok)
		if err != nil {
			return err
		}
		inner.finish(closer.Start)
		st = &sc.states[sc.index[idTok.Value]]
		st.CompositeStates = inner.states
		st.Transitions = inner.transitions
		st.Notes = inner.notes
		st.ConcurrencyRegions = inner.regions
		st.End = closer.End
		return nil
	}
	return s.endStatement()
}

func (p *stateParser) parseStereotype() (ast.StateType, syntax.Position, error) {
	s := p.s
	for range 2 {
		if _, err := s.expect(lexer.Lt, "'<<'"); err != nil {
			return "", syntax.Position{}, err
		}
	}
	word, err := s.expectWord("choice, fork or join")
	if err != nil {
		return "", syntax.Position{}, err
	}
	typ, ok := stateStereotypes[word.Value]
	if !ok {
		return "", syntax.Position{}, s.unexpected(word, "choice, fork or join")
	}
	var last lexer.Token
	for range 2 {
		if last, err = s.expect(lexer.Gt, "'>>'"); err != nil {
			return "", syntax.Position{}, err
		}
	}
	return typ, last.End, nil
}

// parseNote reads "note left|right of id : text" or the multi-line form
// ending in "end note".
func (p *stateParser) parseNote(sc *stateScope) error {
	s := p.s
	kw := s.next()
	side := s.peek()
	if side.Kind != lexer.KwLeft && side.Kind != lexer.KwRight {
		// floating notes are not attached to a state
		s.skipLine()
		return nil
	}
	s.next()
	if _, err := s.expect(lexer.KwOf, "of"); err != nil {
		return err
	}
	id, _, err := p.parseStateID()
	if err != nil {
		return err
	}
	note := ast.StateNote{Placement: side.Value + " of", StateID: id}
	note.Start = kw.Start

	if _, ok := s.accept(lexer.Colon); ok {
		text, _, last, _ := s.restOfLine()
		note.Text = text
		note.End = last.End
		sc.notes = append(sc.notes, note)
		return s.endStatement()
	}
	if err := s.endStatement(); err != nil {
		return err
	}

	// multi-line: the lexer dropped the spacing, so rebuild it
	var lines []string
	var cur []lexer.Token
	for {
		if err := s.step(); err != nil {
			return err
		}
		tok := s.peek()
		switch {
		case tok.Kind == lexer.EOF:
			return s.errorf(tok, "expected end note to close note on line %d", kw.Start.Line)
		case tok.Kind == lexer.KwEnd && s.peekN(1).Kind == lexer.KwNote && len(cur) == 0:
			s.next()
			closer := s.next()
			note.Text = strings.Join(lines, "\n")
			note.End = closer.End
			sc.notes = append(sc.notes, note)
			return s.endStatement()
		case tok.Kind == lexer.Newline:
			s.next()
			if len(cur) > 0 {
				lines = append(lines, joinWords(cur))
				cur = cur[:0]
			}
		default:
			cur = append(cur, s.next())
		}
	}
}
