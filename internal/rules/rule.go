// Package rules holds the deterministic computations behind each model card and
// the static registry that maps a model identifier to its rule.
package rules

import (
	"math"

	"github.com/rendis/algoscope/pkg/schema"
)

// Rule IDs. Each matches the id of the model card it simulates.
const (
	SNAPEligibility        = "snap-eligibility"
	HousingVoucherPriority = "housing-voucher-prioritization"
	UnemploymentBenefits   = "unemployment-benefits"
)

// Rule is a pure computation from a loosely typed input bag to a strictly typed
// output bag. Implementations must not hold mutable state.
type Rule interface {
	ID() string
	// Reads lists the input fields the rule consults.
	Reads() []string
	// Writes lists the output fields the rule produces.
	Writes() []string
	Compute(in Inputs) schema.OutputBag
}

// Inputs is the caller's bag seen through the card's input declarations:
// a key the caller omitted resolves to the FieldSpec default.
type Inputs struct {
	bag   schema.InputBag
	specs []schema.FieldSpec
}

// NewInputs pairs a caller bag with the declaring card's input FieldSpecs.
func NewInputs(bag schema.InputBag, specs []schema.FieldSpec) Inputs {
	return Inputs{bag: bag, specs: specs}
}

// Value returns the caller's value for name, else the declared default, else absent.
func (in Inputs) Value(name string) schema.Value {
	if v, ok := in.bag[name]; ok && !v.IsZero() {
		return v
	}
	for _, s := range in.specs {
		if s.Name == name {
			return s.Default
		}
	}
	return schema.Value{}
}

// Number resolves name and coerces it to a float64.
func (in Inputs) Number(name string) float64 { return in.Value(name).AsNumber() }

// Bool resolves name and coerces it to a bool.
func (in Inputs) Bool(name string) bool { return in.Value(name).AsBool() }

// Text resolves name and coerces it to a string.
func (in Inputs) Text(name string) string { return in.Value(name).AsText() }

// round rounds half away from zero to the given number of decimal places.
func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// clamp bounds x to [lo, hi]. NaN passes through.
func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
