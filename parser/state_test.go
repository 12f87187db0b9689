package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/syntax"
)

func stateIDs(states []ast.State) []string {
	ids := make([]string, len(states))
	for i, st := range states {
		ids[i] = st.ID + ":" + string(st.Type)
	}
	return ids
}

func TestStateVersions(t *testing.T) {
	d, err := ParseState("stateDiagram\nA --> B")
	require.NoError(t, err)
	assert.Equal(t, "v1", d.Version)

	d, err = ParseState("stateDiagram-v2\nA --> B")
	require.NoError(t, err)
	assert.Equal(t, "v2", d.Version)
}

func TestStatePseudostates(t *testing.T) {
	d, err := ParseState(`stateDiagram-v2
[*] --> Still
Still --> Moving : push
Moving --> Still
Moving --> [*]`)
	require.NoError(t, err)

	assert.Equal(t, []string{"[*]:START", "Still:STATE", "Moving:STATE", "[*]:END"}, stateIDs(d.States))
	require.Len(t, d.Transitions, 4)
	assert.Equal(t, ast.Transition{From: "Still", To: "Moving", Label: "push", Span: d.Transitions[1].Span}, d.Transitions[1])
	assert.Equal(t, 3, d.Transitions[1].Start.Line)

	for i := 1; i < len(d.States); i++ {
		assert.LessOrEqual(t, d.States[i-1].Start.Offset, d.States[i].Start.Offset)
	}
}

func TestStateDeclarations(t *testing.T) {
	d, err := ParseState(`stateDiagram-v2
direction LR
state "Waiting for input" as Waiting
state Ready : all set
state check <<choice>>
state split <<fork>>
state merge <<join>>
Idle : first line
Idle : second line
Lonely
classDef bad fill:#f00
class Idle bad`)
	require.NoError(t, err)
	assert.Equal(t, "LR", d.Direction)
	assert.Equal(t, []string{
		"Waiting:STATE", "Ready:STATE", "check:CHOICE", "split:FORK", "merge:JOIN", "Idle:STATE", "Lonely:STATE",
	}, stateIDs(d.States))

	assert.Equal(t, "Waiting for input", d.StateByID("Waiting").Description)
	assert.Equal(t, "all set", d.StateByID("Ready").Description)
	assert.Equal(t, "first line\nsecond line", d.StateByID("Idle").Description)
	assert.Empty(t, d.Transitions)
}

func TestStateComposite(t *testing.T) {
	d, err := ParseState(`stateDiagram-v2
[*] --> First
state First {
  [*] --> second
  second --> [*]
}
First --> Done`)
	require.NoError(t, err)
	assert.Equal(t, []string{"[*]:START", "First:STATE", "Done:STATE"}, stateIDs(d.States))

	first := d.StateByID("First")
	require.NotNil(t, first)
	assert.True(t, first.IsComposite())
	assert.Equal(t, []string{"[*]:START", "second:STATE", "[*]:END"}, stateIDs(first.CompositeStates))
	assert.Len(t, first.Transitions, 2)
	assert.Equal(t, 6, first.End.Line)
	require.Len(t, d.Transitions, 2)
}

func TestStateConcurrency(t *testing.T) {
	d, err := ParseState(`stateDiagram-v2
state Active {
  [*] --> NumLockOff
  NumLockOff --> NumLockOn
  --
  [*] --> CapsLockOff
}`)
	require.NoError(t, err)
	active := d.StateByID("Active")
	require.NotNil(t, active)
	require.Len(t, active.ConcurrencyRegions, 2)

	one, two := active.ConcurrencyRegions[0], active.ConcurrencyRegions[1]
	assert.Equal(t, []string{"[*]:START", "NumLockOff:STATE", "NumLockOn:STATE"}, stateIDs(one.States))
	assert.Len(t, one.Transitions, 2)
	assert.Equal(t, []string{"CapsLockOff:STATE"}, stateIDs(two.States))
	assert.Len(t, two.Transitions, 1)
	assert.Empty(t, d.ConcurrencyRegions)
}

func TestStateNotes(t *testing.T) {
	d, err := ParseState(`stateDiagram-v2
A --> B
note right of A : pay attention
note left of B
  important detail
  spread over lines
end note
note "floating" as N1`)
	require.NoError(t, err)
	require.Len(t, d.Notes, 2)

	assert.Equal(t, "right of", d.Notes[0].Placement)
	assert.Equal(t, "A", d.Notes[0].StateID)
	assert.Equal(t, "pay attention", d.Notes[0].Text)

	assert.Equal(t, "left of", d.Notes[1].Placement)
	assert.Equal(t, "important detail\nspread over lines", d.Notes[1].Text)
	assert.Equal(t, 4, d.Notes[1].Start.Line)
	assert.Equal(t, 7, d.Notes[1].End.Line)
}

func TestStateSemicolons(t *testing.T) {
	d, err := ParseState("stateDiagram-v2\nA --> B; B --> C")
	require.NoError(t, err)
	assert.Len(t, d.Transitions, 2)
	assert.Len(t, d.States, 3)
}

func TestStateErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"missing header", "flowchart\nA", 1, "expected stateDiagram"},
		{"unclosed composite", "stateDiagram-v2\nstate A {\n  B --> C\n", 4, "expected '}' to close state A"},
		{"stray brace", "stateDiagram-v2\n}", 2, "expected state statement"},
		{"bad stereotype", "stateDiagram-v2\nstate A <<merge>>", 2, "expected choice, fork or join"},
		{"bare pseudostate", "stateDiagram-v2\n[*]", 2, "expected '-->' after [*]"},
		{"unclosed note", "stateDiagram-v2\nnote left of A\ntext", 3, "expected end note"},
		{"missing target", "stateDiagram-v2\nA -->", 2, "expected state id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseState(tt.src)
			var perr *syntax.ParserError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.line, perr.Line())
			assert.Contains(t, perr.Error(), tt.msg)
		})
	}
}
