package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/algoscope/internal/rules"
	"github.com/rendis/algoscope/pkg/schema"
)

func TestSweep_DefaultSteps(t *testing.T) {
	e := newEngine(t, Options{})

	points, err := e.Sweep(context.Background(), rules.SNAPEligibility, nil, "household_income", 0)
	require.NoError(t, err)
	require.Len(t, points, DefaultSweepSteps)

	values := make([]float64, 0, len(points))
	for _, p := range points {
		values = append(values, p.Value)
	}
	assert.Equal(t, []float64{0, 20000, 40000, 60000, 80000, 100000}, values)

	// Income only rises, so the probability never rises.
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Outputs["eligibility_probability"].AsNumber()
		cur := points[i].Outputs["eligibility_probability"].AsNumber()
		assert.LessOrEqual(t, cur, prev)
	}
}

func TestSweep_HoldsOtherInputs(t *testing.T) {
	e := newEngine(t, Options{})

	points, err := e.Sweep(context.Background(), rules.SNAPEligibility,
		schema.InputBag{"household_size": schema.Number(1), "household_income": schema.Number(1)},
		"housing_costs", 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, 0.0, points[0].Value)
	assert.Equal(t, 5000.0, points[2].Value)
	for _, p := range points {
		assert.Equal(t, schema.Number(200), p.Outputs["benefit_amount"])
	}
}

func TestSweep_MatchesPredict(t *testing.T) {
	e := newEngine(t, Options{})

	points, err := e.Sweep(context.Background(), rules.HousingVoucherPriority, nil, "homelessness_risk_score", 5)
	require.NoError(t, err)

	for _, p := range points {
		out, err := e.Predict(context.Background(), rules.HousingVoucherPriority,
			schema.InputBag{"homelessness_risk_score": schema.Number(p.Value)})
		require.NoError(t, err)
		assert.Equal(t, out, p.Outputs)
	}
}

func TestSweep_StepsClamped(t *testing.T) {
	e := newEngine(t, Options{})

	points, err := e.Sweep(context.Background(), rules.UnemploymentBenefits, nil, "weeks_worked", 1)
	require.NoError(t, err)
	assert.Len(t, points, MinSweepSteps)

	points, err = e.Sweep(context.Background(), rules.UnemploymentBenefits, nil, "weeks_worked", 1000)
	require.NoError(t, err)
	assert.Len(t, points, MaxSweepSteps)
	assert.Equal(t, 52.0, points[len(points)-1].Value)
}

func TestSweep_Errors(t *testing.T) {
	e := newEngine(t, Options{})
	ctx := context.Background()

	_, err := e.Sweep(ctx, "nonexistent-id", nil, "x", 0)
	assert.True(t, schema.IsCode(err, schema.ErrCodeModelNotFound))

	_, err = e.Sweep(ctx, rules.SNAPEligibility, nil, "nope", 0)
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))

	_, err = e.Sweep(ctx, rules.SNAPEligibility, nil, "employment_status", 0)
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))

	_, err = e.Sweep(ctx, rules.HousingVoucherPriority, nil, "has_children", 0)
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))
}

func TestSweep_StrictValidatesFixedInputs(t *testing.T) {
	e := newEngine(t, Options{Strict: true})

	_, err := e.Sweep(context.Background(), rules.SNAPEligibility,
		schema.InputBag{"household_size": schema.Number(99)}, "household_income", 3)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeValidation))
}

func TestSweep_CanceledContext(t *testing.T) {
	e := newEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Sweep(ctx, rules.SNAPEligibility, nil, "household_income", 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClampSteps(t *testing.T) {
	assert.Equal(t, DefaultSweepSteps, clampSteps(0))
	assert.Equal(t, DefaultSweepSteps, clampSteps(-3))
	assert.Equal(t, MinSweepSteps, clampSteps(1))
	assert.Equal(t, 7, clampSteps(7))
	assert.Equal(t, MaxSweepSteps, clampSteps(500))
}
