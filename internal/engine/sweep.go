package engine

import (
	"context"

	"github.com/rendis/algoscope/internal/logging"
	"github.com/rendis/algoscope/pkg/schema"
)

// Sweep bounds.
const (
	DefaultSweepSteps = 6
	MinSweepSteps     = 2
	MaxSweepSteps     = 101
)

// SweepPoint is one prediction at a swept input value.
type SweepPoint struct {
	Value   float64          `json:"value"`
	Outputs schema.OutputBag `json:"outputs"`
}

// Sweep predicts modelID at steps evenly spaced values of one number input,
// from its declared min to its declared max inclusive, holding the other inputs
// fixed. steps <= 0 selects DefaultSweepSteps; other values are clamped to
// [MinSweepSteps, MaxSweepSteps].
func (e *Engine) Sweep(ctx context.Context, modelID string, inputs schema.InputBag, field string, steps int) ([]SweepPoint, error) {
	card, rule, err := e.resolve(modelID)
	if err != nil {
		return nil, err
	}

	spec, ok := card.Input(field)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "model has no input %q", field).WithModel(modelID)
	}
	if spec.Type != schema.FieldNumber {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"input %q is %s; only number inputs can be swept", field, spec.Type).WithModel(modelID)
	}
	if spec.Min == nil || spec.Max == nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"input %q declares no min/max range", field).WithModel(modelID)
	}

	steps = clampSteps(steps)
	lo, hi := *spec.Min, *spec.Max

	ctx = logging.WithModelID(ctx, modelID)
	points := make([]SweepPoint, 0, steps)
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v := lo + (hi-lo)*float64(i)/float64(steps-1)
		if i == steps-1 {
			v = hi
		}

		bag := make(schema.InputBag, len(inputs)+1)
		for k, val := range inputs {
			bag[k] = val
		}
		bag[field] = schema.Number(v)

		out, err := e.run(ctx, &card, rule, bag)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{Value: v, Outputs: out})
	}
	return points, nil
}

func clampSteps(steps int) int {
	switch {
	case steps <= 0:
		return DefaultSweepSteps
	case steps < MinSweepSteps:
		return MinSweepSteps
	case steps > MaxSweepSteps:
		return MaxSweepSteps
	default:
		return steps
	}
}
