package parser

import (
	"strings"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/lexer"
	"github.com/martinemde/diagrams/syntax"
)

// ganttExtraKeys are configuration statements kept verbatim in
// GanttConfig.Extra.
var ganttExtraKeys = map[string]bool{
	"includes":          true,
	"tickInterval":      true,
	"weekday":           true,
	"inclusiveEndDates": true,
	"topAxis":           true,
	"displayMode":       true,
	"accTitle":          true,
	"accDescr":          true,
}

var taskStatuses = map[string]ast.TaskStatus{
	"active":    ast.TaskActive,
	"done":      ast.TaskDone,
	"crit":      ast.TaskCrit,
	"milestone": ast.TaskMilestone,
}

func parseGantt(src string, start syntax.Position, budget *syntax.Budget) (*ast.GanttDiagram, error) {
	s, err := newStream(src, start, budget)
	if err != nil {
		return nil, err
	}
	lines, err := s.lines()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, s.unexpected(s.peek(), "gantt")
	}
	hdr := lines[0]
	if hdr.toks[0].Kind != lexer.KwGantt {
		return nil, s.unexpected(hdr.toks[0], "gantt")
	}
	if len(hdr.toks) > 1 {
		return nil, s.unexpected(hdr.toks[1], "end of line")
	}

	g := &ast.GanttDiagram{Sections: []ast.Section{}}
	g.Span = hdr.Span
	var section *ast.Section
	for _, ln := range lines[1:] {
		if err := budget.Step(ln.Start); err != nil {
			return nil, err
		}
		g.End = ln.End

		first := ln.toks[0]
		if value, ok := configValue(ln, &g.Config); ok {
			if key := first.Value; ganttExtraKeys[key] {
				if g.Config.Extra == nil {
					g.Config.Extra = make(map[string]string)
				}
				g.Config.Extra[key] = value
			}
			continue
		}
		if first.Kind == lexer.KwSection {
			g.Sections = append(g.Sections, ast.Section{
				Name:  strings.TrimSpace(strings.TrimPrefix(ln.text, first.Value)),
				Tasks: []ast.Task{},
				Span:  ln.Span,
			})
			section = &g.Sections[len(g.Sections)-1]
			continue
		}

		task, err := parseTask(ln)
		if err != nil {
			return nil, err
		}
		if section == nil {
			g.Sections = append(g.Sections, ast.Section{Tasks: []ast.Task{}, Span: ln.Span})
			section = &g.Sections[len(g.Sections)-1]
		}
		section.Tasks = append(section.Tasks, task)
		section.End = ln.End
	}
	return g, nil
}

// configValue recognizes a configuration line and stores the standard keys
// in cfg. The rest of the line is the value, verbatim.
func configValue(ln line, cfg *ast.GanttConfig) (string, bool) {
	first := ln.toks[0]
	key := first.Value
	if !first.Kind.IsWord() {
		return "", false
	}
	switch first.Kind {
	case lexer.KwTitle, lexer.KwDateFormat, lexer.KwAxisFormat, lexer.KwExcludes, lexer.KwTodayMarker:
	default:
		if !ganttExtraKeys[key] {
			return "", false
		}
		// "includes" and friends may also start a task name
		if len(ln.toks) > 1 && hasColon(ln.toks[1:]) && !strings.HasPrefix(key, "acc") {
			return "", false
		}
	}
	value := strings.TrimSpace(strings.TrimPrefix(ln.text, key))
	if strings.HasPrefix(key, "acc") {
		value = strings.TrimSpace(strings.TrimPrefix(value, ":"))
	}
	switch first.Kind {
	case lexer.KwTitle:
		cfg.Title = value
	case lexer.KwDateFormat:
		cfg.DateFormat = value
	case lexer.KwAxisFormat:
		cfg.AxisFormat = value
	case lexer.KwExcludes:
		cfg.Excludes = value
	case lexer.KwTodayMarker:
		cfg.TodayMarker = value
	}
	return value, true
}

func hasColon(toks []lexer.Token) bool {
	for _, t := range toks {
		if t.Kind == lexer.Colon {
			return true
		}
	}
	return false
}

// parseTask decodes "name : [status, ...] [id,] [start,] duration|end".
func parseTask(ln line) (ast.Task, error) {
	colon := -1
	for i, t := range ln.toks {
		if t.Kind == lexer.Colon {
			colon = i
			break
		}
	}
	if colon < 0 {
		return ast.Task{}, ln.errorf("expected ':' after task name in %q", ln.text)
	}
	if colon == 0 {
		return ast.Task{}, ln.errorf("task has no name")
	}
	ct := ln.toks[colon]
	name := strings.TrimSpace(ln.text[:ct.Start.Offset-ln.Start.Offset])
	rest := ln.text[ct.End.Offset-ln.Start.Offset:]

	task := ast.Task{Name: name, Span: ln.Span}
	var parts []string
	for _, part := range strings.Split(rest, ",") {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	for len(parts) > 0 {
		st, ok := taskStatuses[parts[0]]
		if !ok {
			break
		}
		task.Statuses = append(task.Statuses, st)
		parts = parts[1:]
	}
	if len(task.Statuses) > 0 {
		task.Status = task.Statuses[0]
	}

	switch len(parts) {
	case 0:
	case 1:
		setTaskStart(&task, parts[0], true)
	case 2:
		setTaskStart(&task, parts[0], false)
		setTaskEnd(&task, parts[1])
	case 3:
		task.ID = parts[0]
		setTaskStart(&task, parts[1], false)
		setTaskEnd(&task, parts[2])
	default:
		return ast.Task{}, ln.errorf("too many fields in task %q", name)
	}
	return task, nil
}

// setTaskStart stores a start value. A lone part that is not an "after"
// reference is the task's length or end instead.
func setTaskStart(t *ast.Task, part string, alone bool) {
	if after, ok := strings.CutPrefix(part, "after "); ok {
		t.StartDate = part
		t.Dependencies = strings.Fields(after)
		return
	}
	if alone {
		setTaskEnd(t, part)
		return
	}
	t.StartDate = part
}

func setTaskEnd(t *ast.Task, part string) {
	if isDuration(part) {
		t.Duration = part
		return
	}
	t.EndDate = part
}

// isDuration reports whether part is a number followed by a unit letter.
func isDuration(part string) bool {
	if len(part) < 2 || part[0] < '0' || part[0] > '9' {
		return false
	}
	switch part[len(part)-1] {
	case 'h', 'd', 'w', 'm':
	default:
		return false
	}
	for i := 1; i < len(part)-1; i++ {
		if c := part[i]; (c < '0' || c > '9') && c != '.' {
			return false
		}
	}
	return true
}
