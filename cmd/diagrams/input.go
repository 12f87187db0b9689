package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/martinemde/diagrams/batch"
)

const stdinName = "<stdin>"

// normalizeSource strips a UTF-8 byte order mark and brings text into NFC,
// so visually identical identifiers compare equal.
func normalizeSource(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	return norm.NFC.String(text)
}

// readSources loads every named file, or stdin when paths is empty or a
// path is "-".
func readSources(stdin io.Reader, paths []string) ([]batch.Source, error) {
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	sources := make([]batch.Source, 0, len(paths))
	for _, path := range paths {
		var (
			data []byte
			err  error
			name = path
		)
		if path == "-" {
			name = stdinName
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		sources = append(sources, batch.Source{Name: name, Text: normalizeSource(string(data))})
	}
	return sources, nil
}
