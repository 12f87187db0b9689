package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/syntax"
)

func TestSequenceBasic(t *testing.T) {
	d, err := ParseSequence(`sequenceDiagram
participant A as Alice
actor B
A->>B: Hello
B-->>A: Hi back`)
	require.NoError(t, err)
	require.Len(t, d.Statements, 4)

	a := d.Statements[0].(*ast.Participant)
	assert.Equal(t, "A", a.ID)
	assert.Equal(t, "Alice", a.Label)
	assert.Equal(t, ast.ParticipantBox, a.Kind)

	b := d.Statements[1].(*ast.Participant)
	assert.Equal(t, "B", b.ID)
	assert.Equal(t, ast.ParticipantActor, b.Kind)

	m := d.Statements[2].(*ast.Message)
	assert.Equal(t, "A", m.From)
	assert.Equal(t, "B", m.To)
	assert.Equal(t, ast.ArrowSolidHead, m.Arrow)
	assert.Equal(t, "Hello", m.Text)

	m = d.Statements[3].(*ast.Message)
	assert.Equal(t, ast.ArrowDottedHead, m.Arrow)
	assert.Equal(t, "Hi back", m.Text)
	assert.Equal(t, 5, m.Start.Line)
}

func TestSequenceArrowStyles(t *testing.T) {
	tests := []struct {
		arrow string
		style ast.ArrowStyle
	}{
		{"->", ast.ArrowSolid},
		{"-->", ast.ArrowDotted},
		{"->>", ast.ArrowSolidHead},
		{"-->>", ast.ArrowDottedHead},
		{"-x", ast.ArrowSolidCross},
		{"--x", ast.ArrowDottedCross},
		{"-)", ast.ArrowSolidOpen},
		{"--)", ast.ArrowDottedOpen},
	}
	for _, tt := range tests {
		t.Run(tt.arrow, func(t *testing.T) {
			d, err := ParseSequence("sequenceDiagram\nA" + tt.arrow + "B: text")
			require.NoError(t, err)
			msgs := d.Messages()
			require.Len(t, msgs, 1)
			assert.Equal(t, tt.style, msgs[0].Arrow)
			assert.Equal(t, "B", msgs[0].To)
		})
	}
}

func TestSequenceActivationMarkers(t *testing.T) {
	d, err := ParseSequence("sequenceDiagram\nA->>+B: start\nB-->>-A: done\nA->>B")
	require.NoError(t, err)
	msgs := d.Messages()
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].Activate)
	assert.False(t, msgs[0].Deactivate)
	assert.True(t, msgs[1].Deactivate)
	assert.Empty(t, msgs[2].Text)
}

func TestSequenceActivationMarkerPlacement(t *testing.T) {
	tests := []struct {
		src        string
		arrow      ast.ArrowStyle
		activate   bool
		deactivate bool
	}{
		{"A->>+B: hi", ast.ArrowSolidHead, true, false},
		{"A+->>B: hi", ast.ArrowSolidHead, true, false},
		{"A-->>-B: hi", ast.ArrowDottedHead, false, true},
		{"A--->>B: hi", ast.ArrowDottedHead, false, true},
		{"A->>B: hi", ast.ArrowSolidHead, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			d, err := ParseSequence("sequenceDiagram\n" + tt.src)
			require.NoError(t, err)
			msgs := d.Messages()
			require.Len(t, msgs, 1)
			m := msgs[0]
			assert.Equal(t, "A", m.From)
			assert.Equal(t, "B", m.To)
			assert.Equal(t, "hi", m.Text)
			assert.Equal(t, tt.arrow, m.Arrow)
			assert.Equal(t, tt.activate, m.Activate)
			assert.Equal(t, tt.deactivate, m.Deactivate)
		})
	}
}

func TestSequenceNotes(t *testing.T) {
	d, err := ParseSequence(`sequenceDiagram
note left of A: on the left
note right of B: on the right
note over A,B: shared
note over C`)
	require.NoError(t, err)
	require.Len(t, d.Statements, 4)

	want := []struct {
		placement ast.NotePlacement
		actors    []string
		text      string
	}{
		{ast.NoteLeftOf, []string{"A"}, "on the left"},
		{ast.NoteRightOf, []string{"B"}, "on the right"},
		{ast.NoteOver, []string{"A", "B"}, "shared"},
		{ast.NoteOver, []string{"C"}, ""},
	}
	for i, w := range want {
		n := d.Statements[i].(*ast.Note)
		assert.Equal(t, w.placement, n.Placement)
		assert.Equal(t, w.actors, n.Actors)
		assert.Equal(t, w.text, n.Text)
	}
}

func TestSequenceAltBranches(t *testing.T) {
	d, err := ParseSequence(`sequenceDiagram
alt is sick
  A->>B: not so good
else is well
  A->>B: fine
  B->>A: thanks
else
  A->>B: ?
end
A->>B: after`)
	require.NoError(t, err)
	require.Len(t, d.Statements, 2)

	alt := d.Statements[0].(*ast.Alt)
	assert.Equal(t, "is sick", alt.Condition)
	assert.Len(t, alt.Statements, 1)
	require.Len(t, alt.ElseBlocks, 2)
	assert.Equal(t, "is well", alt.ElseBlocks[0].Condition)
	assert.Len(t, alt.ElseBlocks[0].Statements, 2)
	assert.Equal(t, "", alt.ElseBlocks[1].Condition)
	assert.Len(t, alt.ElseBlocks[1].Statements, 1)
	assert.Equal(t, 2, alt.Start.Line)
	assert.Equal(t, 9, alt.End.Line)

	assert.IsType(t, &ast.Message{}, d.Statements[1])
}

func TestSequenceBlockBalance(t *testing.T) {
	for n := 0; n <= 3; n++ {
		for _, kw := range []struct{ open, sibling string }{
			{"alt", "else"}, {"par", "and"}, {"critical", "option"},
		} {
			var b strings.Builder
			b.WriteString("sequenceDiagram\n" + kw.open + " first\nA->>B: 0\n")
			for i := 0; i < n; i++ {
				b.WriteString(kw.sibling + " next\nA->>B: x\nB->>A: y\n")
			}
			b.WriteString("end\n")

			d, err := ParseSequence(b.String())
			require.NoError(t, err, kw.open)
			require.Len(t, d.Statements, 1)

			var branches []ast.Branch
			switch blk := d.Statements[0].(type) {
			case *ast.Alt:
				branches = blk.ElseBlocks
			case *ast.Par:
				branches = blk.AndBlocks
			case *ast.Critical:
				branches = blk.Options
			default:
				t.Fatalf("unexpected statement %T", blk)
			}
			assert.Len(t, branches, n, kw.open)
			for _, br := range branches {
				assert.Len(t, br.Statements, 2)
				assert.Equal(t, "next", br.Condition)
			}
		}
	}
}

func TestSequenceSimpleBlocks(t *testing.T) {
	d, err := ParseSequence(`sequenceDiagram
loop Every minute
  opt Extra
    break when failing
      A->>B: stop
    end
  end
end
rect rgb(0, 255, 0)
  A->>B: lit
end`)
	require.NoError(t, err)
	require.Len(t, d.Statements, 2)

	loop := d.Statements[0].(*ast.Loop)
	assert.Equal(t, "Every minute", loop.Label)
	opt := loop.Statements[0].(*ast.Opt)
	assert.Equal(t, "Extra", opt.Label)
	brk := opt.Statements[0].(*ast.Break)
	assert.Equal(t, "when failing", brk.Label)
	assert.Len(t, brk.Statements, 1)

	rect := d.Statements[1].(*ast.Rect)
	assert.Equal(t, "rgb(0, 255, 0)", rect.Color)
	assert.Len(t, rect.Statements, 1)
	assert.Len(t, d.Messages(), 2)
}

func TestSequenceSkipsUnsupportedConstructs(t *testing.T) {
	d, err := ParseSequence(`sequenceDiagram
autonumber
title: Checkout
box Aqua Group
  participant A
  participant B
end
activate A
A->>B: go
deactivate A
link A: Dashboard @ https://example.com/a
links B: {"Repo": "https://example.com/b"}
properties A: {"class": "internal"}
create participant C
destroy C`)
	require.NoError(t, err)
	assert.True(t, d.Autonumber)
	assert.Equal(t, "Checkout", d.Title)
	assert.Len(t, d.Participants(), 2)
	assert.Len(t, d.Messages(), 1)
	assert.Len(t, d.Statements, 3)
}

func TestSequenceGraphQLParticipantTerminates(t *testing.T) {
	done := make(chan *ast.Sequence, 1)
	go func() {
		d, err := ParseSequence("sequenceDiagram\n participant GraphQL\n GraphQL->>GraphQL: Message")
		assert.NoError(t, err)
		done <- d
	}()
	select {
	case d := <-done:
		require.NotNil(t, d)
		require.Len(t, d.Participants(), 1)
		assert.Equal(t, "GraphQL", d.Participants()[0].ID)
		msgs := d.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, "GraphQL", msgs[0].From)
		assert.Equal(t, "Message", msgs[0].Text)
	case <-time.After(2 * time.Second):
		t.Fatal("parsing did not terminate")
	}
}

func TestSequenceStepLimit(t *testing.T) {
	src := "sequenceDiagram\n" + strings.Repeat("A->>B: ping\n", 100)
	_, err := ParseSequence(src, WithMaxSteps(50))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepLimit))

	_, err = ParseSequence(src)
	assert.NoError(t, err)
}

func TestSequenceErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"missing header", "flowchart TB\nA->>B", 1, "expected sequenceDiagram"},
		{"unclosed loop", "sequenceDiagram\nloop forever\nA->>B: x", 3, "expected end to close loop"},
		{"stray else", "sequenceDiagram\nelse", 2, `unexpected "else"`},
		{"missing arrow", "sequenceDiagram\nA B", 2, "expected message arrow"},
		{"bad note placement", "sequenceDiagram\nnote above A: x", 2, "left of, right of or over"},
		{"multi-actor side note", "sequenceDiagram\nnote left of A,B: x", 2, "placed over"},
		{"missing target", "sequenceDiagram\nA->>: x", 2, "expected participant name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSequence(tt.src)
			var perr *syntax.ParserError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.line, perr.Line())
			assert.Contains(t, perr.Error(), tt.msg)
		})
	}
}

func TestSequenceDeterministic(t *testing.T) {
	src := "sequenceDiagram\nparticipant A\nloop x\nA->>B: y\nend\nnote over A,B: z"
	first, err := ParseSequence(src)
	require.NoError(t, err)
	second, err := ParseSequence(src)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
