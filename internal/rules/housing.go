package rules

import (
	"math"

	"github.com/rendis/algoscope/pkg/schema"
)

// Sub-score weights. They sum to 1 and are published as the card's
// feature_importance; catalog.Verify keeps the two in step.
const (
	weightRisk     = 0.45
	weightRent     = 0.25
	weightChildren = 0.15
	weightElderly  = 0.10
	weightIncome   = 0.05

	incomeCeiling = 80000.0
)

// Voucher tiers.
const (
	VoucherEmergency = "Emergency"
	VoucherStandard  = "Standard"
	VoucherWaitlist  = "Waitlist"
)

// HousingWeights returns the weight applied to each input of the housing rule.
func HousingWeights() map[string]float64 {
	return map[string]float64{
		"homelessness_risk_score": weightRisk,
		"rent_to_income_ratio":    weightRent,
		"has_children":            weightChildren,
		"has_elderly":             weightElderly,
		"household_income":        weightIncome,
	}
}

// Housing is the weighted priority score rule behind the housing voucher card.
type Housing struct{}

func (Housing) ID() string { return HousingVoucherPriority }

func (Housing) Reads() []string {
	return []string{"household_income", "has_children", "has_elderly", "rent_to_income_ratio", "homelessness_risk_score"}
}

func (Housing) Writes() []string {
	return []string{"priority_score", "estimated_wait_time", "voucher_type"}
}

func (Housing) Compute(in Inputs) schema.OutputBag {
	income := in.Number("household_income")
	rentRatio := in.Number("rent_to_income_ratio")
	risk := in.Number("homelessness_risk_score")

	raw := risk*weightRisk +
		rentRatio*100*weightRent +
		flag(in.Bool("has_children"))*weightChildren +
		flag(in.Bool("has_elderly"))*weightElderly +
		math.Max(0, (1-income/incomeCeiling)*100)*weightIncome

	// Tier and wait time derive from the published, rounded score.
	score := round(raw, 1)
	wait := math.Max(1, 24-(score/100)*20)

	return schema.OutputBag{
		"priority_score":      schema.Number(score),
		"estimated_wait_time": schema.Number(round(wait, 1)),
		"voucher_type":        schema.Text(voucherTier(score)),
	}
}

// voucherTier maps a score to a tier. Bounds are exclusive: 80 is Standard.
func voucherTier(score float64) string {
	switch {
	case score > 80:
		return VoucherEmergency
	case score > 50:
		return VoucherStandard
	default:
		return VoucherWaitlist
	}
}

func flag(b bool) float64 {
	if b {
		return 100
	}
	return 0
}
