package parser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/syntax"
)

func TestERSynthesizesEntities(t *testing.T) {
	d, err := ParseER("erDiagram\n X ||--o{ Y")
	require.NoError(t, err)

	require.Len(t, d.Entities, 2)
	assert.Equal(t, "X", d.Entities[0].Name)
	assert.Equal(t, "Y", d.Entities[1].Name)
	for _, e := range d.Entities {
		assert.NotNil(t, e.Attributes)
		assert.Empty(t, e.Attributes)
	}

	require.Len(t, d.Relationships, 1)
	r := d.Relationships[0]
	assert.Equal(t, "X", r.From)
	assert.Equal(t, "Y", r.To)
	assert.Equal(t, ast.ExactlyOne, r.FromCardinality)
	assert.Equal(t, ast.ZeroOrMore, r.ToCardinality)
	assert.Equal(t, ast.Identifying, r.Identification)
}

func TestERDeclaredAndReferencedEntityIsOne(t *testing.T) {
	d, err := ParseER(`erDiagram
CUSTOMER ||--o{ ORDER : places
ORDER {
  int id PK
}`)
	require.NoError(t, err)
	require.Len(t, d.Entities, 2)
	assert.Equal(t, "CUSTOMER", d.Entities[0].Name)
	assert.Equal(t, "ORDER", d.Entities[1].Name)
	assert.Len(t, d.Entities[1].Attributes, 1)
	assert.Equal(t, "places", d.Relationships[0].Label)
}

func TestERAttributes(t *testing.T) {
	d, err := ParseER(`erDiagram
CUSTOMER {
  string name PK "the name"
  int id PK, FK
  varchar(255) email UK
  string[] tags
}`)
	require.NoError(t, err)
	require.Len(t, d.Entities, 1)
	attrs := d.Entities[0].Attributes
	require.Len(t, attrs, 4)

	assert.Equal(t, ast.Attribute{Type: "string", Name: "name", Keys: []ast.KeyType{ast.KeyPrimary}, Comment: "the name", Span: attrs[0].Span}, attrs[0])
	assert.Equal(t, []ast.KeyType{ast.KeyPrimary, ast.KeyForeign}, attrs[1].Keys)
	assert.Equal(t, ast.KeyPrimary, attrs[1].Key())
	assert.Equal(t, "varchar(255)", attrs[2].Type)
	assert.Equal(t, ast.KeyUnique, attrs[2].Key())
	assert.Equal(t, "string[]", attrs[3].Type)
	assert.Empty(t, attrs[3].Key())

	assert.Equal(t, 2, d.Entities[0].Start.Line)
	assert.Equal(t, 7, d.Entities[0].End.Line)
}

func TestERNamesAndAliases(t *testing.T) {
	d, err := ParseER(`erDiagram
p[Person] { string name }
c["Customer Account"]
ORDER ||--|{ LINE-ITEM : "has many"`)
	require.NoError(t, err)

	person := d.EntityByName("p")
	require.NotNil(t, person)
	assert.Equal(t, "Person", person.Alias)
	assert.Len(t, person.Attributes, 1)

	assert.Equal(t, "Customer Account", d.EntityByName("c").Alias)

	require.Len(t, d.Relationships, 1)
	r := d.Relationships[0]
	assert.Equal(t, "LINE-ITEM", r.To)
	assert.Equal(t, ast.OneOrMore, r.ToCardinality)
	assert.Equal(t, "has many", r.Label)
	assert.NotNil(t, d.EntityByName("LINE-ITEM"))
}

var erGlyphs = []string{"||", "}|", "}o", "o{", "|o", "o|"}

func TestERNotationRoundTrip(t *testing.T) {
	for _, left := range erGlyphs {
		for _, line := range []string{"--", ".."} {
			for _, right := range erGlyphs {
				notation := left + line + right
				from, id, to, err := DecodeERNotation(notation)
				require.NoError(t, err, notation)

				again, idAgain, toAgain, err := DecodeERNotation(EncodeERNotation(from, id, to))
				require.NoError(t, err, notation)
				assert.Equal(t, from, again, notation)
				assert.Equal(t, id, idAgain, notation)
				assert.Equal(t, to, toAgain, notation)
			}
		}
	}
}

func TestERParsesEveryNotation(t *testing.T) {
	for _, left := range erGlyphs {
		for _, line := range []string{"--", ".."} {
			for _, right := range erGlyphs {
				notation := left + line + right
				t.Run(notation, func(t *testing.T) {
					from, id, to, err := DecodeERNotation(notation)
					require.NoError(t, err)

					d, err := ParseER(fmt.Sprintf("erDiagram\nA %s B : rel", notation))
					require.NoError(t, err)
					require.Len(t, d.Relationships, 1)
					r := d.Relationships[0]
					assert.Equal(t, "A", r.From)
					assert.Equal(t, "B", r.To)
					assert.Equal(t, from, r.FromCardinality)
					assert.Equal(t, id, r.Identification)
					assert.Equal(t, to, r.ToCardinality)
					assert.Equal(t, "rel", r.Label)
				})
			}
		}
	}
}

func TestDecodeERNotationErrors(t *testing.T) {
	for _, notation := range []string{"", "||-", "||--o{--", "xx--||", "||==||", "||--xx"} {
		_, _, _, err := DecodeERNotation(notation)
		assert.ErrorIs(t, err, ErrNotation, notation)
	}
}

func TestERShortNotation(t *testing.T) {
	_, err := ParseER("erDiagram\nA ||- B")
	var perr *syntax.ParserError
	require.True(t, errors.As(err, &perr), "got %v", err)
	assert.Contains(t, perr.Error(), `"||-"`)
	assert.Equal(t, 2, perr.Line())
	assert.Equal(t, 2, perr.Column())
	assert.Equal(t, "||-", perr.Token)
	assert.ErrorIs(t, err, ErrNotation)
}

func TestERErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"missing header", "flowchart\nA", 1, "expected erDiagram"},
		{"unclosed entity", "erDiagram\nA {\n  int id\n", 4, "expected '}' to close entity A"},
		{"bad key", "erDiagram\nA {\n  int id PX\n}", 3, "expected PK, FK or UK"},
		{"missing target", "erDiagram\nA ||--o{\n", 2, "expected entity name after ||--o{"},
		{"bad window", "erDiagram\nA ||--|| B\nC |x--|| D", 3, "invalid relationship notation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseER(tt.src)
			var perr *syntax.ParserError
			require.True(t, errors.As(err, &perr), "got %v", err)
			assert.Equal(t, tt.line, perr.Line())
			assert.Contains(t, perr.Error(), tt.msg)
		})
	}
}
