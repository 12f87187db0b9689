package parser

import (
	"context"
	"strings"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/syntax"
)

// Segment is one diagram cut out of a document.
type Segment struct {
	Kind  ast.Kind
	Text  string
	Start syntax.Position // position of Text[0] in the document
}

type grammar func(src string, start syntax.Position, b *syntax.Budget) (ast.Diagram, error)

var grammars = map[ast.Kind]grammar{
	ast.KindFlowchart: func(src string, start syntax.Position, b *syntax.Budget) (ast.Diagram, error) {
		return parseFlowchart(src, start, b)
	},
	ast.KindSequence: func(src string, start syntax.Position, b *syntax.Budget) (ast.Diagram, error) {
		return parseSequence(src, start, b)
	},
	ast.KindClass: func(src string, start syntax.Position, b *syntax.Budget) (ast.Diagram, error) {
		return parseClass(src, start, b)
	},
	ast.KindER: func(src string, start syntax.Position, b *syntax.Budget) (ast.Diagram, error) {
		return parseER(src, start, b)
	},
	ast.KindState: func(src string, start syntax.Position, b *syntax.Budget) (ast.Diagram, error) {
		return parseState(src, start, b)
	},
	ast.KindGantt: func(src string, start syntax.Position, b *syntax.Budget) (ast.Diagram, error) {
		return parseGantt(src, start, b)
	},
}

// Parse parses every diagram in text.
func Parse(text string, opts ...Option) (*ast.Program, error) {
	return ParseContext(context.Background(), text, opts...)
}

// ParseContext is Parse with cancellation. ctx is checked between segments
// and periodically while tokenizing and parsing.
func ParseContext(ctx context.Context, text string, opts ...Option) (*ast.Program, error) {
	o := buildOptions(opts)
	if o.kind != "" && !o.kind.Valid() {
		return nil, &syntax.ParserError{Message: "unknown diagram kind " + string(o.kind)}
	}
	budget := o.budget(ctx)

	prog := &ast.Program{Body: []ast.Diagram{}}
	prog.Start, prog.End = syntax.Start, syntax.Start
	for _, seg := range SplitSegments(text) {
		if err := ctx.Err(); err != nil {
			return nil, &syntax.ParserError{Message: "parse cancelled: " + err.Error(), Pos: seg.Start, Cause: err}
		}
		kind := seg.Kind
		if o.kind != "" {
			kind = o.kind
		}
		d, err := grammars[kind](seg.Text, seg.Start, budget)
		if err != nil {
			return nil, err
		}
		if len(prog.Body) == 0 {
			prog.Start = d.Loc().Start
		}
		prog.End = d.Loc().End
		prog.Body = append(prog.Body, d)
	}
	return prog, nil
}

// ParseFlowchart parses text as a single flowchart. Every edge endpoint
// without a node or subgraph of the same id gets an implicit square node.
func ParseFlowchart(text string, opts ...Option) (*ast.Flowchart, error) {
	return parseFlowchart(text, syntax.Start, buildOptions(opts).budget(context.Background()))
}

// ParseSequence parses text as a single sequence diagram.
func ParseSequence(text string, opts ...Option) (*ast.Sequence, error) {
	return parseSequence(text, syntax.Start, buildOptions(opts).budget(context.Background()))
}

// ParseClass parses text as a single class diagram.
func ParseClass(text string, opts ...Option) (*ast.ClassDiagram, error) {
	return parseClass(text, syntax.Start, buildOptions(opts).budget(context.Background()))
}

// ParseER parses text as a single entity-relationship diagram.
func ParseER(text string, opts ...Option) (*ast.ERDiagram, error) {
	return parseER(text, syntax.Start, buildOptions(opts).budget(context.Background()))
}

// ParseState parses text as a single state diagram.
func ParseState(text string, opts ...Option) (*ast.StateDiagram, error) {
	return parseState(text, syntax.Start, buildOptions(opts).budget(context.Background()))
}

// ParseGantt parses text as a single Gantt chart.
func ParseGantt(text string, opts ...Option) (*ast.GanttDiagram, error) {
	return parseGantt(text, syntax.Start, buildOptions(opts).budget(context.Background()))
}

// DetectKind returns the diagram kind named by the first meaningful line of
// text. Unrecognized text is a flowchart.
func DetectKind(text string) ast.Kind {
	for _, ln := range strings.Split(text, "\n") {
		if isBlankLine(ln) {
			continue
		}
		if k, ok := headerKind(ln); ok {
			return k
		}
		break
	}
	return ast.KindFlowchart
}

// headerKind matches the lowercased leading word of ln against the known
// diagram headers.
func headerKind(ln string) (ast.Kind, bool) {
	fields := strings.Fields(strings.ToLower(ln))
	if len(fields) == 0 {
		return "", false
	}
	word := fields[0]
	switch {
	case strings.HasPrefix(word, "sequencediagram"):
		return ast.KindSequence, true
	case strings.HasPrefix(word, "classdiagram"):
		return ast.KindClass, true
	case strings.HasPrefix(word, "erdiagram"):
		return ast.KindER, true
	case strings.HasPrefix(word, "statediagram"):
		return ast.KindState, true
	case strings.HasPrefix(word, "gantt"):
		return ast.KindGantt, true
	case strings.HasPrefix(word, "flowchart"), strings.HasPrefix(word, "graph"):
		return ast.KindFlowchart, true
	}
	return "", false
}

// isBlankLine reports whether ln holds nothing but whitespace or a %%
// comment.
func isBlankLine(ln string) bool {
	t := strings.TrimSpace(ln)
	return t == "" || strings.HasPrefix(t, "%%")
}

// SplitSegments cuts text into diagrams at blank lines. A chunk whose first
// line is not a diagram header continues the previous diagram, so blank
// lines inside one diagram do not split it. Chunks holding only comments
// are dropped.
func SplitSegments(text string) []Segment {
	type chunk struct{ start, end, line int }

	var chunks []chunk
	cur := chunk{start: -1}
	off, lineNo := 0, 1
	for off <= len(text) {
		nl := strings.IndexByte(text[off:], '\n')
		end := len(text)
		if nl >= 0 {
			end = off + nl
		}
		ln := text[off:end]
		switch {
		case strings.TrimSpace(ln) == "":
			if cur.start >= 0 {
				chunks = append(chunks, cur)
				cur = chunk{start: -1}
			}
		case cur.start < 0:
			cur = chunk{start: off, end: end, line: lineNo}
		default:
			cur.end = end
		}
		if nl < 0 {
			break
		}
		off = end + 1
		lineNo++
	}
	if cur.start >= 0 {
		chunks = append(chunks, cur)
	}

	var segs []Segment
	var spans []chunk
	for _, c := range chunks {
		body := text[c.start:c.end]
		first, ok := firstContentLine(body)
		if !ok {
			continue
		}
		kind, isHeader := headerKind(first)
		if !isHeader && len(spans) > 0 {
			spans[len(spans)-1].end = c.end
			continue
		}
		if !isHeader {
			kind = ast.KindFlowchart
		}
		spans = append(spans, c)
		segs = append(segs, Segment{Kind: kind})
	}
	for i, c := range spans {
		segs[i].Text = text[c.start:c.end]
		segs[i].Start = syntax.Position{Line: c.line, Offset: c.start}
	}
	return segs
}

func firstContentLine(body string) (string, bool) {
	for _, ln := range strings.Split(body, "\n") {
		if !isBlankLine(ln) {
			return ln, true
		}
	}
	return "", false
}
