package parser

import (
	"context"

	"github.com/martinemde/diagrams/ast"
	"github.com/martinemde/diagrams/syntax"
)

// ErrStepLimit is wrapped by the ParserError returned when a parse exceeds
// its step budget.
var ErrStepLimit = syntax.ErrStepLimit

// Option configures a parse call.
type Option func(*options)

type options struct {
	maxSteps int
	kind     ast.Kind
}

// WithMaxSteps bounds the number of tokenizer emissions and statement-loop
// iterations a call may spend. n <= 0 selects syntax.DefaultMaxSteps.
func WithMaxSteps(n int) Option {
	return func(o *options) { o.maxSteps = n }
}

// WithKind skips detection and parses every segment as kind k.
func WithKind(k ast.Kind) Option {
	return func(o *options) { o.kind = k }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) budget(ctx context.Context) *syntax.Budget {
	return syntax.NewBudget(ctx, o.maxSteps)
}
