// Package encode writes parsed programs in the dump formats offered by the
// command line tool.
package encode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/martinemde/diagrams/ast"
)

// Format names an output encoding.
type Format string

const (
	JSON    Format = "json"
	YAML    Format = "yaml"
	TOML    Format = "toml"
	MsgPack Format = "msgpack"
)

// Formats lists the supported formats.
var Formats = []Format{JSON, YAML, TOML, MsgPack}

// ParseFormat resolves a format name, case-insensitively. "yml" and "mp"
// are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case JSON, YAML, TOML, MsgPack:
		return f, nil
	case "yml":
		return YAML, nil
	case "mp":
		return MsgPack, nil
	}
	return "", fmt.Errorf("unknown format %q (want one of %v)", s, Formats)
}

// Binary reports whether the format is not meant for a terminal.
func (f Format) Binary() bool { return f == MsgPack }

// ErrSingleDocument is returned when a second program is written to a TOML
// stream, which can hold only one document.
var ErrSingleDocument = errors.New("toml output holds a single program")

// Encoder writes a sequence of programs to one stream. JSON documents are
// written back to back, YAML documents are separated by "---" and msgpack
// values are concatenated.
type Encoder struct {
	w    io.Writer
	f    Format
	json *json.Encoder
	yaml *yaml.Encoder
	mp   *msgpack.Encoder
	n    int
}

// NewEncoder returns an encoder writing format f to w.
func NewEncoder(w io.Writer, f Format) (*Encoder, error) {
	e := &Encoder{w: w, f: f}
	switch f {
	case JSON:
		e.json = json.NewEncoder(w)
		e.json.SetIndent("", "  ")
	case YAML:
		e.yaml = yaml.NewEncoder(w)
		e.yaml.SetIndent(2)
	case TOML:
	case MsgPack:
		e.mp = msgpack.NewEncoder(w)
		e.mp.SetSortMapKeys(true)
	default:
		return nil, fmt.Errorf("unknown format %q", f)
	}
	return e, nil
}

// Encode writes one program.
func (e *Encoder) Encode(prog *ast.Program) error {
	if e.json != nil {
		e.n++
		return e.json.Encode(prog)
	}
	if e.f == TOML && e.n > 0 {
		return ErrSingleDocument
	}
	tree, err := Tree(prog)
	if err != nil {
		return err
	}
	switch e.f {
	case YAML:
		err = e.yaml.Encode(tree)
	case TOML:
		err = toml.NewEncoder(e.w).Encode(tree)
	case MsgPack:
		err = e.mp.Encode(tree)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.f, err)
	}
	e.n++
	return nil
}

// Close flushes buffered output. It does not close the underlying writer.
func (e *Encoder) Close() error {
	if e.yaml != nil {
		return e.yaml.Close()
	}
	return nil
}

// Encode writes prog to w in format f.
func Encode(w io.Writer, f Format, prog *ast.Program) error {
	enc, err := NewEncoder(w, f)
	if err != nil {
		return err
	}
	if err := enc.Encode(prog); err != nil {
		return err
	}
	return enc.Close()
}

// Tree converts prog into plain maps and slices through its JSON form, so
// every format carries the same "type"-tagged node shape. Null members are
// dropped and numbers become int64 where they are integral.
func Tree(prog *ast.Program) (map[string]any, error) {
	b, err := json.Marshal(prog)
	if err != nil {
		return nil, fmt.Errorf("marshal program: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v map[string]any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return normalize(v).(map[string]any), nil
}

func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, elem := range v {
			if elem == nil {
				delete(v, k)
				continue
			}
			v[k] = normalize(elem)
		}
		return v
	case []any:
		for i, elem := range v {
			v[i] = normalize(elem)
		}
		return v
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, _ := v.Float64()
		return f
	}
	return v
}
