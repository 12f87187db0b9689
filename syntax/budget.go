package syntax

import (
	"context"
	"errors"
)

// ErrStepLimit is wrapped by the ParserError returned when a Budget runs out.
var ErrStepLimit = errors.New("step limit exceeded")

// DefaultMaxSteps bounds a single parse call. Every emitted token and every
// statement-loop iteration costs one step, so any input shorter than this
// many bytes fits comfortably.
const DefaultMaxSteps = 1_000_000

// ctxCheckEvery is how often Step polls the context.
const ctxCheckEvery = 1024

// Budget is an iteration guard shared by the tokenizers and grammars of one
// parse call. A nil *Budget never runs out.
type Budget struct {
	ctx  context.Context
	max  int
	used int
}

// NewBudget returns a budget of maxSteps steps bound to ctx. maxSteps <= 0 means
// DefaultMaxSteps.
func NewBudget(ctx context.Context, maxSteps int) *Budget {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return &Budget{ctx: ctx, max: maxSteps}
}

// Step consumes one step. pos is reported in the error when the budget is
// exhausted or the context is done.
func (b *Budget) Step(pos Position) error {
	if b == nil {
		return nil
	}
	b.used++
	if b.used > b.max {
		return &ParserError{Message: ErrStepLimit.Error(), Pos: pos, Cause: ErrStepLimit}
	}
	if b.used%ctxCheckEvery == 0 {
		if err := b.ctx.Err(); err != nil {
			return &ParserError{Message: "parse cancelled: " + err.Error(), Pos: pos, Cause: err}
		}
	}
	return nil
}

// Used returns the number of steps consumed so far.
func (b *Budget) Used() int {
	if b == nil {
		return 0
	}
	return b.used
}

// Err reports the context error, if any.
func (b *Budget) Err() error {
	if b == nil {
		return nil
	}
	return b.ctx.Err()
}
