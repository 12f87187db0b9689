package seqlexer

import (
	"strings"
	"testing"
	"time"

	"github.com/martinemde/diagrams/syntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kindsOf(t *testing.T, src string) []Kind {
	t.Helper()
	tokens, err := Tokenize(src)
	require.NoError(t, err)
	kinds := make([]Kind, len(tokens))
	for i, tok := range tokens {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestArrowsLongestFirst(t *testing.T) {
	tests := []struct {
		input string
		kind  Kind
	}{
		{"-->>", DottedArrow},
		{"->>", SolidArrow},
		{"--x", DottedCross},
		{"--)", DottedOpen},
		{"-->", DottedLine},
		{"-x", SolidCross},
		{"-)", SolidOpen},
		{"->", SolidLine},
	}
	for _, tt := range tests {
		tokens, err := Tokenize("A" + tt.input + "B")
		require.NoError(t, err, "input: %s", tt.input)
		require.Len(t, tokens, 4, "input: %s", tt.input)
		assert.Equal(t, tt.kind, tokens[1].Kind, "input: %s", tt.input)
		assert.Equal(t, tt.input, tokens[1].Value)
		assert.True(t, tokens[1].Kind.IsArrow())
	}
}

func TestDottedArrowIsNotSplit(t *testing.T) {
	assert.Equal(t, []Kind{Identifier, DottedArrow, Identifier, EOF}, kindsOf(t, "Alice-->>Bob"))
}

func TestActivationMarkers(t *testing.T) {
	assert.Equal(t,
		[]Kind{Identifier, SolidArrow, Plus, Identifier, Newline, Identifier, DottedArrow, Minus, Identifier, EOF},
		kindsOf(t, "A->>+B\nB-->>-A"))
}

func TestTextAfterColon(t *testing.T) {
	tokens, err := Tokenize("Alice->>Bob: Hello Bob, how are you?   \nBob-->>Alice: fine")
	require.NoError(t, err)
	require.Len(t, tokens, 12)
	assert.Equal(t, Colon, tokens[3].Kind)
	assert.Equal(t, Text, tokens[4].Kind)
	assert.Equal(t, "Hello Bob, how are you?", tokens[4].Value)
	assert.Equal(t, Newline, tokens[5].Kind)
	assert.Equal(t, "fine", tokens[10].Value)
}

func TestEmptyTextAfterColon(t *testing.T) {
	assert.Equal(t, []Kind{Identifier, Colon, Newline, Identifier, EOF}, kindsOf(t, "A:   \nB"))
}

func TestKeywords(t *testing.T) {
	src := "sequenceDiagram participant actor note loop alt else opt par and critical option break end autonumber activate deactivate left right over as of rect rgb rgba link links properties create destroy box"
	tokens, err := Tokenize(src)
	require.NoError(t, err)
	for _, tok := range tokens[:len(tokens)-1] {
		assert.True(t, tok.Kind.IsKeyword(), "%q should be a keyword", tok.Value)
	}
}

func TestKeywordPrefixesStayIdentifiers(t *testing.T) {
	tokens, err := Tokenize("participants ender altitude options GraphQL")
	require.NoError(t, err)
	for _, tok := range tokens[:len(tokens)-1] {
		assert.Equal(t, Identifier, tok.Kind, "%q", tok.Value)
	}
}

// A historical implementation of this tokenizer stopped advancing on some
// identifiers (GraphQL among them) and spun forever. The scan below must
// finish quickly with a small, bounded token count.
func TestGraphQLIdentifierTerminates(t *testing.T) {
	src := "sequenceDiagram\n participant GraphQL\n GraphQL->>GraphQL: Message"
	done := make(chan []Token, 1)
	errs := make(chan error, 1)
	go func() {
		tokens, err := Tokenize(src)
		if err != nil {
			errs <- err
			return
		}
		done <- tokens
	}()

	select {
	case tokens := <-done:
		assert.LessOrEqual(t, len(tokens), len(src))
		kinds := make([]Kind, len(tokens))
		for i, tok := range tokens {
			kinds[i] = tok.Kind
		}
		assert.Equal(t, []Kind{
			KwSequenceDiagram, Newline,
			KwParticipant, Identifier, Newline,
			Identifier, SolidArrow, Identifier, Colon, Text,
			EOF,
		}, kinds)
	case err := <-errs:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("tokenizer did not terminate")
	}
}

func TestTokenCountBoundedByInputLength(t *testing.T) {
	inputs := []string{
		strings.Repeat("GraphQL->>GraphQL: m\n", 200),
		strings.Repeat("-", 1000),
		strings.Repeat("-x", 500),
		strings.Repeat("?!#", 300),
		strings.Repeat("ü", 300),
	}
	for _, src := range inputs {
		tokens, err := Tokenize(src)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(tokens), len(src)+1)
	}
}

func TestFreeTextPunctuation(t *testing.T) {
	tokens, err := Tokenize("loop Every 5 min!")
	require.NoError(t, err)
	assert.Equal(t, Punct, tokens[4].Kind)
	assert.Equal(t, "!", tokens[4].Value)
}

func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize("participant \"Alice")
	var lexErr *syntax.LexerError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 1, lexErr.Pos.Line)
	assert.Equal(t, 18, lexErr.Pos.Column)
}

func TestControlCharacterIsError(t *testing.T) {
	_, err := Tokenize("A\x00B")
	var lexErr *syntax.LexerError
	require.ErrorAs(t, err, &lexErr)
	assert.Equal(t, 1, lexErr.Pos.Column)
}

func TestPositionsWithStart(t *testing.T) {
	tokens, err := Tokenize("A->>B", WithStart(syntax.Position{Line: 3, Offset: 20}))
	require.NoError(t, err)
	assert.Equal(t, syntax.Position{Line: 3, Column: 1, Offset: 21}, tokens[1].Start)
	assert.Equal(t, syntax.Position{Line: 3, Column: 4, Offset: 24}, tokens[1].End)
}
