package rules

import "github.com/rendis/algoscope/pkg/schema"

const (
	snapThresholdPerPerson = 2000.0
	snapBenefitPerPerson   = 200.0
)

// SNAP is the income-threshold eligibility rule behind the food assistance card.
// The monthly threshold scales linearly with household size; the probability is
// a distance-from-threshold heuristic clamped to [0, 100].
type SNAP struct{}

func (SNAP) ID() string { return SNAPEligibility }

func (SNAP) Reads() []string {
	return []string{"household_income", "household_size", "housing_costs"}
}

func (SNAP) Writes() []string {
	return []string{"eligible", "benefit_amount", "eligibility_probability"}
}

func (SNAP) Compute(in Inputs) schema.OutputBag {
	income := in.Number("household_income")
	size := in.Number("household_size")
	housing := in.Number("housing_costs")

	threshold := snapThresholdPerPerson * size
	netMonthly := income/12 - housing

	eligible := netMonthly < threshold
	probability := clamp(100-(netMonthly/threshold)*100, 0, 100)
	benefit := 0.0
	if eligible {
		benefit = snapBenefitPerPerson * size
	}

	return schema.OutputBag{
		"eligible":                schema.Bool(eligible),
		"benefit_amount":          schema.Number(round(benefit, 2)),
		"eligibility_probability": schema.Number(round(probability, 1)),
	}
}
