// Package batch parses many diagram documents concurrently.
package batch

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/parser"
)

// Source is one named document.
type Source struct {
	Name string
	Text string
}

// Result is the outcome of parsing one Source. Exactly one of Program and
// Err is set.
type Result struct {
	Name     string
	Program  *ast.Program
	Err      error
	Duration time.Duration
}

// Report collects the results of a run in input order.
type Report struct {
	RunID    string
	Results  []Result
	Failed   int
	Duration time.Duration
}

// Runner parses sources on a bounded pool of workers. A parse error fails
// only its own Result; cancellation of the run context stops the run.
type Runner struct {
	// Jobs bounds concurrent parses. Zero means GOMAXPROCS.
	Jobs int
	// Timeout bounds each document's parse. Zero means no limit.
	Timeout time.Duration
	Options []parser.Option
	Events  *EventEmitter
	Logger  *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Run parses every source. The returned error is non-nil only when ctx
// ended the run; the Report holds whatever finished.
func (r *Runner) Run(ctx context.Context, sources []Source) (*Report, error) {
	started := time.Now()
	report := &Report{
		RunID:   uuid.NewString(),
		Results: make([]Result, len(sources)),
	}
	log := r.logger().With(slog.String("run_id", report.RunID))

	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	jobs = max(1, min(jobs, len(sources)))

	log.Info("batch started", slog.Int("files", len(sources)), slog.Int("jobs", jobs))
	r.Events.Emit(RunStartedEvent(report.RunID, len(sources), jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = r.parseOne(gctx, log, i, src)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	for _, res := range report.Results {
		if res.Err != nil || res.Program == nil {
			report.Failed++
		}
	}
	report.Duration = time.Since(started)

	log.Info("batch finished",
		slog.Int("parsed", len(sources)-report.Failed),
		slog.Int("failed", report.Failed),
		slog.Duration("duration", report.Duration))
	r.Events.Emit(RunCompletedEvent(report.RunID, report.Duration, len(sources)-report.Failed, report.Failed))
	return report, err
}

func (r *Runner) parseOne(ctx context.Context, log *slog.Logger, index int, src Source) Result {
	log = log.With(slog.String("file", src.Name))
	r.Events.Emit(FileStartedEvent(src.Name, index))
	log.Debug("parsing", slog.Int("bytes", len(src.Text)))

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	prog, err := parser.ParseContext(ctx, src.Text, r.Options...)
	res := Result{Name: src.Name, Program: prog, Err: err, Duration: time.Since(start)}
	if err != nil {
		res.Program = nil
		log.Warn("parse failed", slog.Any("error", err))
		r.Events.Emit(FileFailedEvent(src.Name, index, err.Error()))
		return res
	}
	log.Debug("parsed", slog.Int("diagrams", len(prog.Body)), slog.Duration("duration", res.Duration))
	r.Events.Emit(FileParsedEvent(src.Name, index, len(prog.Body), res.Duration))
	return res
}
