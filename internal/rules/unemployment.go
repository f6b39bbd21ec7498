package rules

import (
	"math"

	"github.com/rendis/algoscope/pkg/schema"
)

const (
	separationLaidOff   = "laid_off"
	minWeeksWorked      = 20.0
	wageReplacementRate = 0.5
	weeklyBenefitCap    = 500.0
	benefitDurationWeek = 26.0
)

// Unemployment is the categorical-override rule behind the unemployment
// insurance card. Any failed gate disqualifies outright; there is no partial credit.
type Unemployment struct{}

func (Unemployment) ID() string { return UnemploymentBenefits }

func (Unemployment) Reads() []string {
	return []string{"weekly_wage", "weeks_worked", "separation_reason", "previous_claim_history"}
}

func (Unemployment) Writes() []string {
	return []string{"eligible", "weekly_benefit_amount", "max_benefit_duration"}
}

func (Unemployment) Compute(in Inputs) schema.OutputBag {
	eligible := in.Text("separation_reason") == separationLaidOff &&
		in.Number("weeks_worked") >= minWeeksWorked &&
		!in.Bool("previous_claim_history")

	benefit, duration := 0.0, 0.0
	if eligible {
		benefit = math.Min(in.Number("weekly_wage")*wageReplacementRate, weeklyBenefitCap)
		duration = benefitDurationWeek
	}

	return schema.OutputBag{
		"eligible":              schema.Bool(eligible),
		"weekly_benefit_amount": schema.Number(round(benefit, 2)),
		"max_benefit_duration":  schema.Number(duration),
	}
}
