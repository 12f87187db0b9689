package parser

import (
	"slices"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/syntax"
)

// Class diagrams are tokenized like every other grammar, then classified a
// line at a time. The patterns below run over the raw text of one line.
var (
	reClassHeader = regexp2.MustCompile(`^classDiagram(-v2)?$`, regexp2.None)
	reDirection   = regexp2.MustCompile(`^direction\s+(?<dir>TB|TD|BT|RL|LR)$`, regexp2.None)
	reClassDecl   = regexp2.MustCompile(
		`^class\s+(?<name>[\w]+)(?:~(?<generic>[^~]+)~)?(?:\s*\[\s*"(?<label>[^"]*)"\s*\])?(?:\s*:::\s*\w+)?\s*(?<open>\{)?$`,
		regexp2.None)
	reNamespace  = regexp2.MustCompile(`^namespace\s+(?<name>[\w.]+)\s*\{$`, regexp2.None)
	reAnnotation = regexp2.MustCompile(`^<<\s*(?<ann>[^>]+?)\s*>>\s*(?<name>\w+)?$`, regexp2.None)
	reNote       = regexp2.MustCompile(`^note\s+(?:for\s+(?<for>\w+)\s+)?"(?<text>[^"]*)"$`, regexp2.None)
	reIgnored    = regexp2.MustCompile(`^(?:classDef|cssClass|style|click|callback|link)\b`, regexp2.None)
	reMemberLine = regexp2.MustCompile(`^(?<name>\w+)\s*:\s*(?<member>.+)$`, regexp2.None)

	// Operators are alternated longest first, so "<|--" wins over "--" and
	// "-->" over "--".
	reRelation = regexp2.MustCompile(
		`^(?<from>[\w~]+)\s*(?:"(?<fc>[^"]*)"\s*)?`+
			`(?<op><\|--|--\|>|<\|\.\.|\.\.\|>|\*--|--\*|o--|--o|<--|-->|<\.\.|\.\.>|--|\.\.)`+
			`\s*(?:"(?<tc>[^"]*)"\s*)?(?<to>[\w~]+)\s*(?::\s*(?<label>.*))?$`,
		regexp2.None)

	reMethod = regexp2.MustCompile(
		`^(?<vis>[+\-#~])?(?<name>[^\s(]+)\((?<params>[^)]*)\)(?<cls>[$*])?\s*(?::\s*)?(?<ret>[^$*]*?)\s*(?<cls2>[$*])?$`,
		regexp2.None)
	reAttribute = regexp2.MustCompile(
		`^(?<vis>[+\-#~])?(?<cls>[$*])?(?<type>\S+)\s+(?<name>[^\s$*]+)(?<cls2>[$*])?$`,
		regexp2.None)
	reNullary = regexp2.MustCompile(`^(?<vis>[+\-#~])?(?<name>[^\s$*]+)(?<cls>[$*])?$`, regexp2.None)
)

var relationTypes = map[string]ast.RelationType{
	"<|--": ast.RelationInheritance,
	"--|>": ast.RelationInheritance,
	"*--":  ast.RelationComposition,
	"--*":  ast.RelationComposition,
	"o--":  ast.RelationAggregation,
	"--o":  ast.RelationAggregation,
	"-->":  ast.RelationAssociation,
	"<--":  ast.RelationAssociation,
	"--":   ast.RelationLink,
	"..>":  ast.RelationDependency,
	"<..":  ast.RelationDependency,
	"..|>": ast.RelationRealization,
	"<|..": ast.RelationRealization,
	"..":   ast.RelationDashedLink,
}

// match runs re against s and returns the named groups that participated.
// A nil map means no match.
func match(re *regexp2.Regexp, s string) (map[string]string, error) {
	m, err := re.FindStringMatch(s)
	if err != nil || m == nil {
		return nil, err
	}
	groups := make(map[string]string)
	for _, g := range m.Groups() {
		if len(g.Captures) > 0 {
			groups[g.Name] = g.String()
		}
	}
	return groups, nil
}

type classParser struct {
	diag    *ast.ClassDiagram
	index   map[string]int // class name -> position in diag.Classes
	current *ast.Class     // class whose body is open
	ns      *ast.Namespace // namespace whose body is open
}

func parseClass(src string, start syntax.Position, budget *syntax.Budget) (*ast.ClassDiagram, error) {
	s, err := newStream(src, start, budget)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, s.unexpected(s.peek(), "classDiagram")
	}
	if ok, _ := reClassHeader.MatchString(lines[0].text); !ok {
		return nil, s.unexpected(lines[0].toks[0], "classDiagram")
	}

	p := &classParser{
		diag: &ast.ClassDiagram{
			Classes:    []ast.Class{},
			Relations:  []ast.Relation{},
			Namespaces: []ast.Namespace{},
		},
		index: make(map[string]int),
	}
	p.diag.Span = lines[0].Span
	for _, ln := range lines[1:] {
		if err := budget.Step(ln.Start); err != nil {
			return nil, err
		}
		if err := p.parseLine(ln); err != nil {
			return nil, err
		}
		p.diag.End = ln.End
	}
	if p.current != nil {
		return nil, syntax.Errorf(p.diag.End, "expected '}' to close class %s", p.current.Name)
	}
	if p.ns != nil {
		return nil, syntax.Errorf(p.diag.End, "expected '}' to close namespace %s", p.ns.Name)
	}
	p.synthesize()
	return p.diag, nil
}

func (p *classParser) parseLine(ln line) error {
	text := ln.text
	if p.current != nil {
		return p.parseBodyLine(ln)
	}
	if text == "}" {
		if p.ns == nil {
			return ln.errorf("unexpected '}'")
		}
		p.ns.End = ln.End
		p.diag.Namespaces = append(p.diag.Namespaces, *p.ns)
		p.ns = nil
		return nil
	}

	if ok, _ := reIgnored.MatchString(text); ok {
		return nil
	}
	if g, err := match(reDirection, text); err != nil || g != nil {
		if g != nil {
			p.diag.Direction = g["dir"]
		}
		return err
	}
	if g, err := match(reClassDecl, text); err != nil || g != nil {
		if err != nil {
			return err
		}
		c := p.declare(g["name"], ln.Span)
		if g["generic"] != "" {
			c.Generics = g["generic"]
		}
		if g["label"] != "" {
			c.Label = g["label"]
		}
		if g["open"] != "" {
			p.current = c
		}
		return nil
	}
	if g, err := match(reNamespace, text); err != nil || g != nil {
		if err != nil {
			return err
		}
		if p.ns != nil {
			return ln.errorf("namespaces cannot be nested")
		}
		p.ns = &ast.Namespace{Name: g["name"], Classes: []string{}, Span: ln.Span}
		return nil
	}
	if g, err := match(reAnnotation, text); err != nil || g != nil {
		if err != nil {
			return err
		}
		if g["name"] == "" {
			return ln.errorf("annotation %q names no class", text)
		}
		p.declare(g["name"], ln.Span).Annotation = g["ann"]
		return nil
	}
	if g, err := match(reNote, text); err != nil || g != nil {
		if err != nil {
			return err
		}
		p.diag.Notes = append(p.diag.Notes, ast.ClassNote{For: g["for"], Text: g["text"], Span: ln.Span})
		return nil
	}
	if g, err := match(reRelation, text); err != nil || g != nil {
		if err != nil {
			return err
		}
		p.diag.Relations = append(p.diag.Relations, ast.Relation{
			From:            g["from"],
			To:              g["to"],
			Type:            relationTypes[g["op"]],
			Operator:        g["op"],
			FromCardinality: g["fc"],
			ToCardinality:   g["tc"],
			Label:           strings.TrimSpace(g["label"]),
			Span:            ln.Span,
		})
		return nil
	}
	if g, err := match(reMemberLine, text); err != nil || g != nil {
		if err != nil {
			return err
		}
		m, err := parseMember(g["member"], ln)
		if err != nil {
			return err
		}
		c := p.declare(g["name"], ln.Span)
		c.Members = append(c.Members, m)
		return nil
	}
	return ln.errorf("unrecognized class diagram statement %q", text)
}

func (p *classParser) parseBodyLine(ln line) error {
	switch {
	case ln.text == "}":
		p.current.End = ln.End
		p.current = nil
		return nil
	case strings.HasPrefix(ln.text, "<<"):
		g, err := match(reAnnotation, ln.text)
		if err != nil {
			return err
		}
		if g != nil && g["name"] == "" {
			p.current.Annotation = g["ann"]
			return nil
		}
	}
	m, err := parseMember(ln.text, ln)
	if err != nil {
		return err
	}
	p.current.Members = append(p.current.Members, m)
	return nil
}

// declare returns the class named name, creating it on first use. The
// returned pointer is valid until the next declaration.
func (p *classParser) declare(name string, span syntax.Span) *ast.Class {
	if p.ns != nil && !slices.Contains(p.ns.Classes, name) {
		p.ns.Classes = append(p.ns.Classes, name)
	}
	if i, ok := p.index[name]; ok {
		return &p.diag.Classes[i]
	}
	p.index[name] = len(p.diag.Classes)
	p.diag.Classes = append(p.diag.Classes, ast.Class{ID: name, Name: name, Members: []ast.Member{}, Span: span})
	return &p.diag.Classes[len(p.diag.Classes)-1]
}

// synthesize adds a class for every relation endpoint that was never
// declared, keeping Classes in source order.
func (p *classParser) synthesize() {
	added := false
	for _, r := range p.diag.Relations {
		for _, name := range []string{r.From, r.To} {
			if _, ok := p.index[name]; ok {
				continue
			}
			p.index[name] = len(p.diag.Classes)
			p.diag.Classes = append(p.diag.Classes, ast.Class{ID: name, Name: name, Members: []ast.Member{}, Span: r.Span})
			added = true
		}
	}
	if added {
		slices.SortStableFunc(p.diag.Classes, func(a, b ast.Class) int {
			return a.Start.Offset - b.Start.Offset
		})
	}
}

// parseMember classifies one member line: a method when it has
// parentheses, otherwise an attribute "Type name" or a bare name.
func parseMember(text string, ln line) (ast.Member, error) {
	text = strings.TrimSpace(text)
	m := ast.Member{Span: ln.Span}

	if strings.Contains(text, "(") {
		g, err := match(reMethod, text)
		if err != nil {
			return ast.Member{}, err
		}
		if g == nil {
			return ast.Member{}, ln.errorf("malformed method %q", text)
		}
		m.Kind = ast.MemberMethod
		m.Visibility = g["vis"]
		m.Name = g["name"]
		m.ReturnType = g["ret"]
		m.Parameters = parseParams(g["params"])
		applyClassifier(&m, g["cls"]+g["cls2"])
		return m, nil
	}

	m.Kind = ast.MemberAttribute
	if g, err := match(reAttribute, text); err != nil || g != nil {
		if err != nil {
			return ast.Member{}, err
		}
		m.Visibility = g["vis"]
		m.Type = g["type"]
		m.Name = g["name"]
		applyClassifier(&m, g["cls"]+g["cls2"])
		return m, nil
	}
	g, err := match(reNullary, text)
	if err != nil {
		return ast.Member{}, err
	}
	if g == nil {
		return ast.Member{}, ln.errorf("malformed member %q", text)
	}
	m.Visibility = g["vis"]
	m.Name = g["name"]
	applyClassifier(&m, g["cls"])
	return m, nil
}

func applyClassifier(m *ast.Member, glyphs string) {
	m.Static = strings.Contains(glyphs, "$")
	m.Abstract = strings.Contains(glyphs, "*")
}

// parseParams splits "Type name, other" into parameters. A single word is
// a name without a type.
func parseParams(s string) []ast.Parameter {
	s = strings.TrimSpace(s)
	if s == "" {
		return []ast.Parameter{}
	}
	var out []ast.Parameter
	for _, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		switch len(fields) {
		case 0:
			continue
		case 1:
			out = append(out, ast.Parameter{Name: fields[0]})
		default:
			out = append(out, ast.Parameter{
				Type: strings.Join(fields[:len(fields)-1], " "),
				Name: fields[len(fields)-1],
			})
		}
	}
	return out
}
