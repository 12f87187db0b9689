package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/diagrams/syntax"
)

// execute runs the root command with fresh streams. Flags keep their
// values between runs, so callers pass every flag they rely on.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestParseCommandFromStdin(t *testing.T) {
	out, _, err := execute(t, "flowchart LR\nA --> B\n", "parse", "--format", "json", "--kind", "auto", "--color", "never")
	require.NoError(t, err)

	var prog map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &prog))
	assert.Equal(t, "Program", prog["type"])
	body := prog["body"].([]any)
	require.Len(t, body, 1)
	assert.Equal(t, "FlowchartDiagram", body[0].(map[string]any)["type"])
}

func TestParseCommandFilesAndOutput(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mmd")
	b := filepath.Join(dir, "b.mmd")
	require.NoError(t, os.WriteFile(a, []byte("gantt\nsection S\nTask1 : 2024-01-01, 5d\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("stateDiagram-v2\n[*] --> A\n"), 0o644))
	dest := filepath.Join(dir, "out.yaml")

	_, _, err := execute(t, "", "parse", "--format", "yaml", "--kind", "auto", "--color", "never", "-o", dest, a, b)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "type: GanttDiagram")
	assert.Contains(t, text, "type: StateDiagram")
	assert.Less(t, strings.Index(text, "GanttDiagram"), strings.Index(text, "StateDiagram"))
}

func TestParseCommandReportsErrors(t *testing.T) {
	_, errOut, err := execute(t, "erDiagram\nA ||- B\n", "parse", "--format", "json", "--kind", "auto", "--color", "never")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 inputs failed")
	assert.Contains(t, errOut, `<stdin>:2:3: error: invalid relationship notation "||-"`)
	assert.Contains(t, errOut, "   2 | A ||- B\n")
	assert.Contains(t, errOut, "     |   ^~~\n")
}

func TestParseCommandRejectsBadSettings(t *testing.T) {
	_, _, err := execute(t, "graph TD\nA", "parse", "--format", "xml", "--kind", "auto", "--color", "never")
	assert.ErrorContains(t, err, `unknown format "xml"`)

	_, _, err = execute(t, "graph TD\nA", "parse", "--format", "json", "--kind", "mindmap", "--color", "never")
	assert.ErrorContains(t, err, `invalid --kind "mindmap"`)

	_, _, err = execute(t, "graph TD\nA", "parse", "--format", "json", "--kind", "auto", "--color", "sometimes")
	assert.ErrorContains(t, err, `invalid --color "sometimes"`)
}

func TestDetectCommand(t *testing.T) {
	out, _, err := execute(t, "flowchart\nA\n\nsequenceDiagram\nA->>B: x\n", "detect", "--color", "never")
	require.NoError(t, err)
	assert.Equal(t, "1\tflowchart\n4\tsequence\n", out)
}

func TestTokensCommand(t *testing.T) {
	out, _, err := execute(t, "sequenceDiagram\nA->>B: hi there", "tokens", "--json", "--color", "never")
	require.NoError(t, err)

	var toks []tokenOutput
	require.NoError(t, json.Unmarshal([]byte(out), &toks))
	require.NotEmpty(t, toks)
	assert.Equal(t, "SEQUENCE_DIAGRAM", toks[0].Kind)

	var text string
	for _, tok := range toks {
		if tok.Kind == "TEXT" {
			text = tok.Text
		}
	}
	assert.Equal(t, "hi there", text)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version", "--color", "never")
	require.NoError(t, err)
	assert.Equal(t, "diagrams "+version+"\n", out)
}

func TestRenderDiagnosticWideRunes(t *testing.T) {
	src := "erDiagram\n日本 ||- B"
	err := &syntax.ParserError{
		Message: `invalid relationship notation "||-"`,
		Pos:     syntax.Position{Line: 2, Column: 7, Offset: 17},
		Token:   "||-",
	}
	var buf bytes.Buffer
	renderDiagnostic(&buf, "x.mmd", src, err)
	assert.Equal(t,
		"x.mmd:2:8: error: invalid relationship notation \"||-\"\n"+
			"   2 | 日本 ||- B\n"+
			"     |      ^~~\n",
		buf.String())
}

func TestRenderDiagnosticWithoutPosition(t *testing.T) {
	var buf bytes.Buffer
	renderDiagnostic(&buf, "x.mmd", "", errors.New("boom"))
	assert.Equal(t, "x.mmd: error: boom\n", buf.String())
}

func TestSourceLine(t *testing.T) {
	line, ok := sourceLine("a\r\nb\nc", 1)
	assert.True(t, ok)
	assert.Equal(t, "a", line)

	line, ok = sourceLine("a\r\nb\nc", 3)
	assert.True(t, ok)
	assert.Equal(t, "c", line)

	_, ok = sourceLine("a", 2)
	assert.False(t, ok)
}

func TestNormalizeSource(t *testing.T) {
	assert.Equal(t, "caf\u00e9", normalizeSource("\ufeffcafe\u0301"))
}

func TestParserOptions(t *testing.T) {
	t.Cleanup(func() { viper.Set("kind", "auto") })

	viper.Set("kind", "state")
	opts, err := parserOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 2)

	viper.Set("kind", "auto")
	opts, err = parserOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 1)
}
