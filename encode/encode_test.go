package encode

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/parser"
)

const doc = `flowchart LR
A[Start] --> B{Ok?}

erDiagram
CUSTOMER ||--o{ ORDER : places
`

func program(t *testing.T) *ast.Program {
	t.Helper()
	prog, err := parser.Parse(doc)
	require.NoError(t, err)
	return prog
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{
		"json": JSON, "YAML": YAML, "yml": YAML, " toml ": TOML, "msgpack": MsgPack, "mp": MsgPack,
	} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestTreeShape(t *testing.T) {
	tree, err := Tree(program(t))
	require.NoError(t, err)

	assert.Equal(t, "Program", tree["type"])
	body := tree["body"].([]any)
	require.Len(t, body, 2)

	flow := body[0].(map[string]any)
	assert.Equal(t, "FlowchartDiagram", flow["type"])
	start := flow["start"].(map[string]any)
	assert.Equal(t, int64(1), start["line"])

	er := body[1].(map[string]any)
	assert.Equal(t, "ERDiagram", er["type"])
	rel := er["relationships"].([]any)[0].(map[string]any)
	assert.Equal(t, "ZERO_OR_MORE", rel["toCardinality"])
}

func decodeAll(t *testing.T, f Format, data []byte) map[string]any {
	t.Helper()
	out := map[string]any{}
	switch f {
	case JSON:
		require.NoError(t, json.Unmarshal(data, &out))
	case YAML:
		require.NoError(t, yaml.Unmarshal(data, &out))
	case TOML:
		_, err := toml.Decode(string(data), &out)
		require.NoError(t, err)
	case MsgPack:
		require.NoError(t, msgpack.Unmarshal(data, &out))
	}
	return out
}

func TestEncodeEveryFormat(t *testing.T) {
	prog := program(t)
	for _, f := range Formats {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, f, prog))
			require.NotZero(t, buf.Len())

			out := decodeAll(t, f, buf.Bytes())
			assert.Equal(t, "Program", out["type"])

			var kinds []string
			switch body := out["body"].(type) {
			case []any:
				for _, d := range body {
					kinds = append(kinds, d.(map[string]any)["type"].(string))
				}
			case []map[string]any: // toml arrays of tables
				for _, d := range body {
					kinds = append(kinds, d["type"].(string))
				}
			default:
				t.Fatalf("unexpected body %T", body)
			}
			assert.Equal(t, []string{"FlowchartDiagram", "ERDiagram"}, kinds)
		})
	}
}

func TestEncodeDeterministic(t *testing.T) {
	prog := program(t)
	for _, f := range Formats {
		var a, b bytes.Buffer
		require.NoError(t, Encode(&a, f, prog))
		require.NoError(t, Encode(&b, f, prog))
		assert.Equal(t, a.Bytes(), b.Bytes(), f)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, "xml", program(t))
	assert.ErrorContains(t, err, "unknown format")
	assert.True(t, MsgPack.Binary())
	assert.False(t, YAML.Binary())
}

func TestEncoderStreams(t *testing.T) {
	prog := program(t)

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, YAML)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(prog))
	require.NoError(t, enc.Encode(prog))
	require.NoError(t, enc.Close())
	assert.Contains(t, buf.String(), "\n---\n")

	dec := yaml.NewDecoder(&buf)
	for range 2 {
		var doc map[string]any
		require.NoError(t, dec.Decode(&doc))
		assert.Equal(t, "Program", doc["type"])
	}

	buf.Reset()
	enc, err = NewEncoder(&buf, MsgPack)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(prog))
	require.NoError(t, enc.Encode(prog))
	mdec := msgpack.NewDecoder(&buf)
	for range 2 {
		var doc map[string]any
		require.NoError(t, mdec.Decode(&doc))
		assert.Equal(t, "Program", doc["type"])
	}

	enc, err = NewEncoder(&bytes.Buffer{}, TOML)
	require.NoError(t, err)
	require.NoError(t, enc.Encode(prog))
	assert.ErrorIs(t, enc.Encode(prog), ErrSingleDocument)

	_, err = NewEncoder(&bytes.Buffer{}, "xml")
	assert.Error(t, err)
}
