package parser

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/lexer"
	"github.com/martinemde/diagrams/syntax"
)

// DefaultDirection is used when a flowchart header names no direction.
const DefaultDirection = "TB"

var directions = map[string]bool{"TB": true, "TD": true, "BT": true, "RL": true, "LR": true}

type flowParser struct {
	s         *stream
	subgraphs int
	// endpoint spans of every edge, for implicit node synthesis
	ends map[*ast.Edge][2]syntax.Span
}

// nodeRef is one side of a link: an id and, when a shape followed it, the
// node it declares.
type nodeRef struct {
	id   string
	span syntax.Span
	node *ast.FlowNode
}

func parseFlowchart(src string, start syntax.Position, budget *syntax.Budget) (*ast.Flowchart, error) {
	s, err := newStream(src, start, budget)
	if err != nil {
		return nil, err
	}
	s.semis = true
	p := &flowParser{s: s, ends: make(map[*ast.Edge][2]syntax.Span)}

	s.skipSeparators()
	f := &ast.Flowchart{Direction: DefaultDirection}
	f.Start = s.peek().Start
	if s.at(lexer.KwFlowchart, lexer.KwGraph) {
		if err := p.parseHeader(f); err != nil {
			return nil, err
		}
	}
	body, _, err := p.parseBody(&f.Direction, nil)
	if err != nil {
		return nil, err
	}
	f.Body = p.synthesizeImplicit(body)
	f.End = s.lastEnd()
	return f, nil
}

// parseHeader reads "flowchart DIR" or "graph DIR". Repeated headers are
// accepted; a later direction replaces the earlier one.
func (p *flowParser) parseHeader(f *ast.Flowchart) error {
	s := p.s
	s.next()
	if s.atLineEnd() {
		return s.endStatement()
	}
	tok := s.peek()
	if !tok.Kind.IsWord() || !directions[tok.Value] {
		return s.unexpected(tok, "flowchart direction (TB, TD, BT, RL or LR)")
	}
	s.next()
	f.Direction = tok.Value
	return s.endStatement()
}

// parseBody reads statements until EOF or, inside a subgraph, until "end".
func (p *flowParser) parseBody(dir *string, sg *lexer.Token) ([]ast.FlowchartStatement, lexer.Token, error) {
	s := p.s
	body := []ast.FlowchartStatement{}
	for {
		if err := s.step(); err != nil {
			return nil, lexer.Token{}, err
		}
		s.skipSeparators()
		tok := s.peek()
		switch tok.Kind {
		case lexer.EOF:
			if sg != nil {
				return nil, lexer.Token{}, s.errorf(tok, "expected end to close subgraph opened at line %d", sg.Start.Line)
			}
			return body, tok, nil
		case lexer.KwEnd:
			if sg == nil {
				return nil, lexer.Token{}, s.unexpected(tok, "statement")
			}
			s.next()
			return body, tok, s.endStatement()
		case lexer.KwFlowchart, lexer.KwGraph:
			f := &ast.Flowchart{Direction: *dir}
			if err := p.parseHeader(f); err != nil {
				return nil, lexer.Token{}, err
			}
			*dir = f.Direction
		case lexer.KwSubgraph:
			sub, err := p.parseSubgraph()
			if err != nil {
				return nil, lexer.Token{}, err
			}
			body = append(body, sub)
		case lexer.KwDirection:
			s.next()
			d, err := s.expectWord("direction")
			if err != nil {
				return nil, lexer.Token{}, err
			}
			if !directions[d.Value] {
				return nil, lexer.Token{}, s.unexpected(d, "flowchart direction (TB, TD, BT, RL or LR)")
			}
			*dir = d.Value
			if err := s.endStatement(); err != nil {
				return nil, lexer.Token{}, err
			}
		case lexer.KwClassDef, lexer.KwClass, lexer.KwStyle, lexer.KwLinkStyle, lexer.KwClick:
			// styling and interaction are not part of the tree
			s.skipLine()
		default:
			stmts, err := p.parseChain()
			if err != nil {
				return nil, lexer.Token{}, err
			}
			body = append(body, stmts...)
		}
	}
}

func (p *flowParser) parseSubgraph() (*ast.Subgraph, error) {
	s := p.s
	kw := s.next()
	sub := &ast.Subgraph{}
	sub.Start = kw.Start

	switch {
	case s.atLineEnd():
		p.subgraphs++
		sub.ID = fmt.Sprintf("subGraph%d", p.subgraphs-1)
	case s.at(lexer.String):
		tok := s.next()
		sub.ID, sub.Title = tok.Unquote(), tok.Unquote()
	default:
		id, err := s.expectWord("subgraph id")
		if err != nil {
			return nil, err
		}
		sub.ID = id.Value
		if s.at(lexer.LBracket) {
			open := s.next()
			closer, err := s.until("]", "']' to close subgraph title")
			if err != nil {
				return nil, err
			}
			s.next()
			sub.Title = unquoteLabel(strings.TrimSpace(s.slice(open.End.Offset, closer.End.Offset-1)))
		} else if !s.atLineEnd() {
			// "subgraph Some title words": the whole text names it
			rest, _, _, _ := s.restOfLine()
			sub.ID = id.Value + " " + rest
			sub.Title = sub.ID
		}
	}
	if sub.Title == "" {
		sub.Title = sub.ID
	}
	if err := s.endStatement(); err != nil {
		return nil, err
	}

	body, end, err := p.parseBody(&sub.Direction, &kw)
	if err != nil {
		return nil, err
	}
	sub.Body = body
	sub.End = end.End
	return sub, nil
}

// parseChain reads "a & b --> c --> d" style statements, emitting node
// declarations and one edge per (from, to) pair in source order.
func (p *flowParser) parseChain() ([]ast.FlowchartStatement, error) {
	s := p.s
	var out []ast.FlowchartStatement

	group, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	out = appendDecls(out, group)

	for s.at(lexer.Lt) || s.peek().Kind.IsEdge() {
		if err := s.step(); err != nil {
			return nil, err
		}
		link, err := p.parseLink()
		if err != nil {
			return nil, err
		}
		targets, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		for _, from := range group {
			for _, to := range targets {
				e := &ast.Edge{
					From:          from.id,
					To:            to.id,
					Type:          link.Type,
					Stroke:        link.Stroke,
					Label:         link.Label,
					Bidirectional: link.Bidirectional,
					Length:        link.Length,
					Span:          syntax.SpanOf(from.span, to.span),
				}
				p.ends[e] = [2]syntax.Span{from.span, to.span}
				out = append(out, e)
			}
		}
		out = appendDecls(out, targets)
		group = targets
	}
	if err := s.endStatement(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		// a bare id declares a default node
		for _, ref := range group {
			n := &ast.FlowNode{ID: ref.id, Label: ref.id, Shape: ast.ShapeSquare}
			n.Span = ref.span
			out = append(out, n)
		}
	}
	return out, nil
}

func appendDecls(out []ast.FlowchartStatement, group []nodeRef) []ast.FlowchartStatement {
	for _, ref := range group {
		if ref.node != nil {
			out = append(out, ref.node)
		}
	}
	return out
}

func (p *flowParser) parseGroup() ([]nodeRef, error) {
	var group []nodeRef
	for {
		ref, err := p.parseNodeRef()
		if err != nil {
			return nil, err
		}
		group = append(group, ref)
		if _, ok := p.s.accept(lexer.Amp); !ok {
			return group, nil
		}
	}
}

// shapeRule maps an opening token to a shape and its closing lexeme.
type shapeRule struct {
	shape  ast.Shape
	closer string
}

var shapeRules = map[lexer.Kind]shapeRule{
	lexer.LBracket:          {ast.ShapeSquare, "]"},
	lexer.LParen:            {ast.ShapeRound, ")"},
	lexer.LBrace:            {ast.ShapeRhombus, "}"},
	lexer.SubroutineStart:   {ast.ShapeSubroutine, "]]"},
	lexer.CylinderStart:     {ast.ShapeCylinder, ")]"},
	lexer.CircleStart:       {ast.ShapeCircle, "))"},
	lexer.DoubleCircleStart: {ast.ShapeDoubleCircle, ")))"},
	lexer.StadiumStart:      {ast.ShapeStadium, "])"},
	lexer.HexagonStart:      {ast.ShapeHexagon, "}}"},
	lexer.Gt:                {ast.ShapeAsymmetric, "]"},
}

func (p *flowParser) parseNodeRef() (nodeRef, error) {
	s := p.s
	tok := s.peek()
	if !tok.Kind.IsWord() || tok.Kind == lexer.KwEnd {
		return nodeRef{}, s.unexpected(tok, "node id")
	}
	s.next()
	ref := nodeRef{id: tok.Value, span: tok.Span}

	open := s.peek()
	var (
		shape ast.Shape
		label string
		end   lexer.Token
		err   error
	)
	switch open.Kind {
	case lexer.ParallelogramStart, lexer.ParallelogramAltStart:
		s.next()
		shape, label, end, err = p.parseSlantedLabel(open)
	default:
		rule, ok := shapeRules[open.Kind]
		if !ok {
			break
		}
		s.next()
		end, err = s.until(rule.closer, fmt.Sprintf("%q to close node %s", rule.closer, ref.id))
		if err == nil {
			s.next()
			shape = rule.shape
			label = s.slice(open.End.Offset, end.End.Offset-len(rule.closer))
		}
	}
	if err != nil {
		return nodeRef{}, err
	}
	if shape != "" {
		label = unquoteLabel(strings.TrimSpace(label))
		if label == "" {
			label = ref.id
		}
		n := &ast.FlowNode{ID: ref.id, Label: label, Shape: shape}
		n.Span = syntax.Span{Start: tok.Start, End: end.End}
		ref.node = n
		ref.span = n.Span
	}

	// ":::className" is styling only
	if s.at(lexer.Colon) && s.peekN(1).Kind == lexer.Colon && s.peekN(2).Kind == lexer.Colon {
		s.next()
		s.next()
		s.next()
		if _, err := s.expectWord("class name"); err != nil {
			return nodeRef{}, err
		}
	}
	return ref, nil
}

// parseSlantedLabel reads the four [/ \] shapes, whose kind depends on both
// the opening and the closing slash.
func (p *flowParser) parseSlantedLabel(open lexer.Token) (ast.Shape, string, lexer.Token, error) {
	s := p.s
	for {
		tok := s.peek()
		if tok.Kind == lexer.EOF || tok.Kind == lexer.Newline {
			return "", "", lexer.Token{}, s.unexpected(tok, `"/]" or "\]" to close node`)
		}
		s.next()
		if tok.Kind != lexer.ParallelogramEnd && tok.Kind != lexer.ParallelogramAltEnd {
			continue
		}
		label := s.slice(open.End.Offset, tok.End.Offset-2)
		forward := open.Kind == lexer.ParallelogramStart
		backEnd := tok.Kind == lexer.ParallelogramAltEnd
		switch {
		case forward && !backEnd:
			return ast.ShapeParallelogram, label, tok, nil
		case forward && backEnd:
			return ast.ShapeTrapezoid, label, tok, nil
		case !forward && backEnd:
			return ast.ShapeParallelogramAlt, label, tok, nil
		default:
			return ast.ShapeTrapezoidAlt, label, tok, nil
		}
	}
}

type link struct {
	Type          ast.EdgeType
	Stroke        ast.Stroke
	Label         string
	Bidirectional bool
	Length        int
}

// parseLink reads one link: an optional '<', the edge token, and either a
// "|label|" suffix or the "-- label -->" infix form.
func (p *flowParser) parseLink() (link, error) {
	s := p.s
	var l link
	if lt, ok := s.accept(lexer.Lt); ok {
		if !s.peek().Kind.IsEdge() {
			return link{}, s.unexpected(s.peek(), "link after '<'")
		}
		if s.peek().Start.Offset != lt.End.Offset {
			return link{}, s.unexpected(lt, "link")
		}
		l.Bidirectional = true
	}
	tok := s.next()

	if closer, ok := p.findInfixCloser(tok); ok {
		first, stop := s.peek(), s.toks[closer]
		l.Label = unquoteLabel(strings.TrimSpace(s.slice(first.Start.Offset, stop.Start.Offset)))
		for s.i < closer {
			s.next()
		}
		s.accept(lexer.Dot)
		end := s.next()
		l.Stroke = strokeOf(tok)
		l.Type = headOf(end)
		l.Length = linkLength(end.Value)
	} else {
		l.Stroke = strokeOf(tok)
		l.Type = headOf(tok)
		l.Length = linkLength(tok.Value)
	}

	if pipe, ok := s.accept(lexer.Pipe); ok {
		closer, err := s.until("|", "'|' to close link label")
		if err != nil {
			return link{}, err
		}
		s.next()
		l.Label = unquoteLabel(strings.TrimSpace(s.slice(pipe.End.Offset, closer.Start.Offset)))
	}
	return l, nil
}

// findInfixCloser looks ahead on the current line for the edge token that
// closes "-- text -->", "== text ==>" or "-. text .->". It returns the index
// of the first token of the closing part.
func (p *flowParser) findInfixCloser(open lexer.Token) (int, bool) {
	s := p.s
	switch open.Kind {
	case lexer.Line, lexer.ThickLine, lexer.DottedLine:
	default:
		return 0, false
	}
	if len(open.Value) != 2 {
		return 0, false
	}
	for j := s.i; j < len(s.toks); j++ {
		tok := s.toks[j]
		if tok.Kind == lexer.EOF || s.isSeparator(tok) || tok.Kind == lexer.Pipe {
			return 0, false
		}
		if !tok.Kind.IsEdge() || len(tok.Value) < 2 {
			continue
		}
		if j == s.i {
			return 0, false
		}
		if open.Kind == lexer.DottedLine && s.toks[j-1].Kind == lexer.Dot && s.toks[j-1].End.Offset == tok.Start.Offset {
			return j - 1, true
		}
		return j, true
	}
	return 0, false
}

func strokeOf(tok lexer.Token) ast.Stroke {
	switch tok.Kind {
	case lexer.ThickArrow, lexer.ThickLine:
		return ast.StrokeThick
	case lexer.DottedArrow, lexer.DottedLine:
		return ast.StrokeDotted
	case lexer.InvisibleLine:
		return ast.StrokeInvisible
	}
	return ast.StrokeNormal
}

func headOf(tok lexer.Token) ast.EdgeType {
	switch tok.Kind {
	case lexer.Arrow, lexer.DottedArrow, lexer.ThickArrow:
		return ast.EdgeArrow
	case lexer.CircleEdge:
		return ast.EdgeCircle
	case lexer.CrossEdge:
		return ast.EdgeCross
	}
	return ast.EdgeOpen
}

// linkLength derives the rank span of a link from its stroke characters:
// "-->" and "---" are 1, "--->" and "----" are 2. Dotted links count dots.
func linkLength(lexeme string) int {
	if dots := strings.Count(lexeme, "."); dots > 0 {
		return dots
	}
	n := strings.Count(lexeme, "-") + strings.Count(lexeme, "=") + strings.Count(lexeme, "~")
	if strings.HasSuffix(lexeme, ">") || strings.HasSuffix(lexeme, "o") || strings.HasSuffix(lexeme, "x") {
		return max(1, n-1)
	}
	return max(1, n-2)
}

// synthesizeImplicit inserts a square node for every edge endpoint that is
// never declared, after the first edge that mentions it and before the first
// later entry that starts past the endpoint. Subgraph ids count as declared,
// so an edge to a subgraph does not create a node.
func (p *flowParser) synthesizeImplicit(body []ast.FlowchartStatement) []ast.FlowchartStatement {
	declared := make(map[string]bool)
	var collect func([]ast.FlowchartStatement)
	collect = func(list []ast.FlowchartStatement) {
		for _, st := range list {
			switch n := st.(type) {
			case *ast.FlowNode:
				declared[n.ID] = true
			case *ast.Subgraph:
				declared[n.ID] = true
				collect(n.Body)
			}
		}
	}
	collect(body)

	var rewrite func([]ast.FlowchartStatement) []ast.FlowchartStatement
	rewrite = func(list []ast.FlowchartStatement) []ast.FlowchartStatement {
		out := make([]ast.FlowchartStatement, 0, len(list))
		// synthesized nodes wait until the next entry starts at or after them
		var pending []*ast.FlowNode
		flush := func(before int) {
			slices.SortStableFunc(pending, func(a, b *ast.FlowNode) int {
				return a.Start.Offset - b.Start.Offset
			})
			n := 0
			for n < len(pending) && pending[n].Start.Offset <= before {
				out = append(out, pending[n])
				n++
			}
			pending = pending[n:]
		}
		for _, st := range list {
			flush(st.Loc().Start.Offset)
			out = append(out, st)
			switch n := st.(type) {
			case *ast.Subgraph:
				n.Body = rewrite(n.Body)
			case *ast.Edge:
				ends := p.ends[n]
				for i, id := range []string{n.From, n.To} {
					if declared[id] {
						continue
					}
					declared[id] = true
					node := &ast.FlowNode{ID: id, Label: id, Shape: ast.ShapeSquare, Implicit: true}
					node.Span = ends[i]
					pending = append(pending, node)
				}
			}
		}
		flush(math.MaxInt)
		return out
	}
	return rewrite(body)
}
