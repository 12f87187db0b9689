package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/martinemde/diagrams/parser"
	"github.com/martinemde/diagrams/syntax"
)

func TestRunnerParsesInOrder(t *testing.T) {
	var sources []Source
	for i := range 20 {
		sources = append(sources, Source{
			Name: fmt.Sprintf("doc%02d.mmd", i),
			Text: fmt.Sprintf("flowchart LR\nA%d --> B%d\n\nsequenceDiagram\nA->>B: %d", i, i, i),
		})
	}
	sources[7].Text = "erDiagram\nA ||- B"

	events := NewEventEmitter()
	var mu sync.Mutex
	counts := map[EventType]int{}
	events.On(func(e Event) {
		mu.Lock()
		counts[e.Type]++
		mu.Unlock()
	})

	var logs bytes.Buffer
	r := &Runner{
		Jobs:   4,
		Events: events,
		Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
	report, err := r.Run(context.Background(), sources)
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	assert.NoError(t, err)
	require.Len(t, report.Results, 20)
	assert.Equal(t, 1, report.Failed)

	for i, res := range report.Results {
		assert.Equal(t, sources[i].Name, res.Name)
		if i == 7 {
			var perr *syntax.ParserError
			assert.True(t, errors.As(res.Err, &perr))
			assert.Nil(t, res.Program)
			continue
		}
		require.NoError(t, res.Err)
		assert.Len(t, res.Program.Body, 2)
	}

	assert.Equal(t, 1, counts[EventRunStarted])
	assert.Equal(t, 20, counts[EventFileStarted])
	assert.Equal(t, 19, counts[EventFileParsed])
	assert.Equal(t, 1, counts[EventFileFailed])
	assert.Equal(t, 1, counts[EventRunCompleted])

	assert.Contains(t, logs.String(), "run_id="+report.RunID)
	assert.Contains(t, logs.String(), "parse failed")
}

func TestRunnerAppliesParserOptions(t *testing.T) {
	r := &Runner{Options: []parser.Option{parser.WithMaxSteps(5)}}
	report, err := r.Run(context.Background(), []Source{{Name: "x", Text: "flowchart LR\nA --> B --> C --> D"}})
	require.NoError(t, err)
	assert.ErrorIs(t, report.Results[0].Err, parser.ErrStepLimit)
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &Runner{Jobs: 1}
	report, err := r.Run(ctx, []Source{{Name: "a", Text: "graph TD\nA"}, {Name: "b", Text: "graph TD\nB"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, report.Failed)
}

func TestRunnerEmpty(t *testing.T) {
	report, err := (&Runner{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Zero(t, report.Failed)
}
