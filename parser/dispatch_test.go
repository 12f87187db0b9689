package parser

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/syntax"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Kind
	}{
		{"sequenceDiagram\nA->>B: hi", ast.KindSequence},
		{"  classDiagram-v2", ast.KindClass},
		{"erDiagram", ast.KindER},
		{"stateDiagram-v2", ast.KindState},
		{"gantt", ast.KindGantt},
		{"graph LR", ast.KindFlowchart},
		{"flowchart TD", ast.KindFlowchart},
		{"%% comment\n\nGantt", ast.KindGantt},
		{"A --> B", ast.KindFlowchart},
		{"", ast.KindFlowchart},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectKind(tt.src), "%q", tt.src)
	}
}

func TestSplitSegments(t *testing.T) {
	src := "flowchart LR\nA --> B\n\nsequenceDiagram\nA->>B: hi\n\nC --> D\n\n%% trailing\n"
	segs := SplitSegments(src)
	require.Len(t, segs, 2)

	assert.Equal(t, ast.KindFlowchart, segs[0].Kind)
	assert.Equal(t, "flowchart LR\nA --> B", segs[0].Text)
	assert.Equal(t, syntax.Position{Line: 1}, segs[0].Start)

	// the headerless chunk continues the sequence diagram
	assert.Equal(t, ast.KindSequence, segs[1].Kind)
	assert.Equal(t, "sequenceDiagram\nA->>B: hi\n\nC --> D", segs[1].Text)
	assert.Equal(t, syntax.Position{Line: 4, Offset: 22}, segs[1].Start)

	assert.Empty(t, SplitSegments("\n\n%% nothing here\n"))
}

func TestParseMultipleDiagrams(t *testing.T) {
	prog, err := Parse("flowchart LR\nA --> B\n\nB --> C\n\nsequenceDiagram\nAlice->>Bob: hi\n")
	require.NoError(t, err)
	require.Len(t, prog.Body, 2)

	flow, ok := prog.Body[0].(*ast.Flowchart)
	require.True(t, ok)
	assert.Len(t, flow.Edges(), 2)

	seq, ok := prog.Body[1].(*ast.Sequence)
	require.True(t, ok)
	assert.Equal(t, 6, seq.Start.Line)
	require.Len(t, seq.Messages(), 1)
	assert.Equal(t, 7, seq.Messages()[0].Start.Line)

	assert.Equal(t, 1, prog.Start.Line)
	assert.Equal(t, 7, prog.End.Line)
}

func TestParseEmpty(t *testing.T) {
	prog, err := Parse("")
	require.NoError(t, err)
	assert.NotNil(t, prog.Body)
	assert.Empty(t, prog.Body)
}

func TestParseWithKind(t *testing.T) {
	prog, err := Parse("A --> B\n\ngraph TD\nC --> D", WithKind(ast.KindFlowchart))
	require.NoError(t, err)
	assert.Len(t, prog.Body, 2)

	_, err = Parse("sequenceDiagram\nA->>B: hi", WithKind(ast.KindClass))
	var perr *syntax.ParserError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Contains(t, perr.Error(), "expected classDiagram")

	_, err = Parse("A --> B", WithKind("mindmap"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown diagram kind mindmap")
}

func TestParseReportsDocumentPositions(t *testing.T) {
	_, err := Parse("sequenceDiagram\nA->>B: hi\n\nflowchart LR\nA --> \"open")
	var lerr *syntax.LexerError
	require.True(t, errors.As(err, &lerr), "got %v", err)
	assert.Equal(t, 5, lerr.Line())

	_, err = Parse("flowchart LR\nA --> B\n\nerDiagram\nA ||- B")
	var perr *syntax.ParserError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Equal(t, 5, perr.Line())
	assert.Equal(t, 2, perr.Column())
}

func TestParseContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParseContext(ctx, "flowchart LR\nA --> B")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
