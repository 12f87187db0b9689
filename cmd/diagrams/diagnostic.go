package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/martinemde/diagrams/syntax"
)

var (
	locationColor = color.New(color.Bold)
	errorColor    = color.New(color.FgRed, color.Bold)
	gutterColor   = color.New(color.FgBlue)
	caretColor    = color.New(color.FgGreen, color.Bold)
)

// renderDiagnostic writes err as
//
//	name:line:col: error: message
//	   2 | A ||- B
//	     |   ^~~
//
// falling back to a single line when err carries no position.
func renderDiagnostic(w io.Writer, name, src string, err error) {
	var (
		msg   = err.Error()
		pos   syntax.Position
		token string
	)
	var lerr *syntax.LexerError
	var perr *syntax.ParserError
	switch {
	case errors.As(err, &lerr):
		msg, pos = lerr.Message, lerr.Pos
	case errors.As(err, &perr):
		msg, pos, token = perr.Message, perr.Pos, perr.Token
	}
	if !pos.IsValid() {
		fmt.Fprintf(w, "%s: %s %s\n", locationColor.Sprint(name), errorColor.Sprint("error:"), msg)
		return
	}

	fmt.Fprintf(w, "%s %s %s\n",
		locationColor.Sprintf("%s:%d:%d:", name, pos.Line, pos.Column+1),
		errorColor.Sprint("error:"), msg)

	line, ok := sourceLine(src, pos.Line)
	if !ok {
		return
	}
	col := min(pos.Column, len(line))
	gutter := fmt.Sprintf("%4d | ", pos.Line)
	fmt.Fprintf(w, "%s%s\n", gutterColor.Sprint(gutter), expandTabs(line))

	// widths are measured in cells so the caret lines up under wide runes
	pad := runewidth.StringWidth(expandTabs(line[:col]))
	width := 1
	if rest := line[col:]; token != "" && strings.HasPrefix(rest, token) {
		width = max(1, runewidth.StringWidth(token))
	}
	fmt.Fprintf(w, "%s%s%s\n",
		gutterColor.Sprint(strings.Repeat(" ", len(gutter)-2)+"| "),
		strings.Repeat(" ", pad),
		caretColor.Sprint("^"+strings.Repeat("~", width-1)))
}

// sourceLine returns 1-based line n of src without its line terminator.
func sourceLine(src string, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	for i := 1; ; i++ {
		line, rest, found := strings.Cut(src, "\n")
		if i == n {
			return strings.TrimSuffix(line, "\r"), true
		}
		if !found {
			return "", false
		}
		src = rest
	}
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}
