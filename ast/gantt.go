package ast

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/martinemde/diagrams/syntax"
)

// TaskStatus is a task tag.
type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskDone      TaskStatus = "done"
	TaskCrit      TaskStatus = "crit"
	TaskMilestone TaskStatus = "milestone"
)

// GanttDiagram is a Gantt chart.
type GanttDiagram struct {
	Config   GanttConfig `json:"config"`
	Sections []Section   `json:"sections"`
	syntax.Span
}

func (*GanttDiagram) Kind() Kind       { return KindGantt }
func (*GanttDiagram) TypeName() string { return "GanttDiagram" }
func (*GanttDiagram) diagram()         {}

func (g *GanttDiagram) MarshalJSON() ([]byte, error) {
	type plain GanttDiagram
	return tagged(g.TypeName(), (*plain)(g))
}

// GanttConfig holds the free-text configuration lines. Extra keeps keys
// beyond the five standard ones (includes, tickInterval, weekday, ...).
type GanttConfig struct {
	Title       string            `json:"title,omitempty"`
	DateFormat  string            `json:"dateFormat,omitempty"`
	AxisFormat  string            `json:"axisFormat,omitempty"`
	Excludes    string            `json:"excludes,omitempty"`
	TodayMarker string            `json:"todayMarker,omitempty"`
	Extra       map[string]string `json:"extra,omitempty"`
}

// Section is a named group of tasks. Tasks before the first section
// statement land in a section with an empty name.
type Section struct {
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
	syntax.Span
}

// Task is one Gantt bar. StartDate is either a literal date or
// "after <id> ..."; in the latter case Dependencies lists the ids.
type Task struct {
	Name         string       `json:"name"`
	ID           string       `json:"id,omitempty"`
	Status       TaskStatus   `json:"status,omitempty"`
	Statuses     []TaskStatus `json:"statuses,omitempty"`
	StartDate    string       `json:"startDate,omitempty"`
	Duration     string       `json:"duration,omitempty"`
	EndDate      string       `json:"endDate,omitempty"`
	Dependencies []string     `json:"dependencies,omitempty"`
	syntax.Span
}

// DurationValue decodes Duration ("3d", "12h", "2w", "30m").
func (t Task) DurationValue() (time.Duration, error) {
	return ParseDuration(t.Duration)
}

// ParseDuration parses a Gantt duration: an integer or decimal followed by
// one of the units ms, s, m, h, d, w.
func ParseDuration(s string) (time.Duration, error) {
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	numStr := s[:i]
	suffix := strings.ToLower(s[i:])

	n, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric part %q: %w", numStr, err)
	}

	var unit time.Duration
	switch suffix {
	case "ms":
		unit = time.Millisecond
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown duration suffix %q", suffix)
	}
	return time.Duration(n * float64(unit)), nil
}

// TaskByID returns the task with the given id across all sections, or nil.
func (g *GanttDiagram) TaskByID(id string) *Task {
	for i := range g.Sections {
		for j := range g.Sections[i].Tasks {
			if g.Sections[i].Tasks[j].ID == id {
				return &g.Sections[i].Tasks[j]
			}
		}
	}
	return nil
}
