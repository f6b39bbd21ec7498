package catalog

import (
	"fmt"
	"math"
	"sort"

	"github.com/rendis/algoscope/internal/rules"
	"github.com/rendis/algoscope/pkg/schema"
)

// Verify checks the catalog against the rule registry. Every field a rule reads
// must be a declared input of its card and every field it writes a declared
// output; the housing card's feature_importance must equal the rule's weights.
// A card without a rule is only a warning, since predicting it is a defined
// RuleNotImplemented outcome.
func Verify(cat *Catalog, reg *rules.Registry) *schema.CheckResult {
	result := &schema.CheckResult{}

	for i := range cat.cards {
		card := &cat.cards[i]
		path := fmt.Sprintf("models[%s]", card.ID)

		rule, err := reg.Resolve(card.ID)
		if err != nil {
			result.AddWarning(path, schema.ErrCodeRuleNotImplemented,
				fmt.Sprintf("model %q has no rule; predictions return %q", card.ID, schema.MsgRuleNotImplemented))
			continue
		}

		for _, name := range rule.Reads() {
			if _, ok := card.Input(name); !ok {
				result.AddError(path+".inputs", schema.ErrCodeCatalog,
					fmt.Sprintf("rule reads %q but the card declares no such input", name))
			}
		}
		for _, name := range rule.Writes() {
			if _, ok := card.Output(name); !ok {
				result.AddError(path+".outputs", schema.ErrCodeCatalog,
					fmt.Sprintf("rule writes %q but the card declares no such output", name))
			}
		}
		for _, out := range card.Outputs {
			if !contains(rule.Writes(), out.Name) {
				result.AddWarning(path+".outputs", schema.ErrCodeCatalog,
					fmt.Sprintf("card declares output %q that the rule never writes", out.Name))
			}
		}

		for name := range card.FeatureImportance {
			if _, ok := card.Input(name); !ok {
				result.AddError(path+".feature_importance", schema.ErrCodeCatalog,
					fmt.Sprintf("feature_importance names undeclared input %q", name))
			}
		}

		if card.ID == rules.HousingVoucherPriority {
			checkWeights(path+".feature_importance", card.FeatureImportance, rules.HousingWeights(), result)
		}
	}

	for _, id := range reg.IDs() {
		if _, ok := cat.Get(id); !ok {
			result.AddWarning("rules["+id+"]", schema.ErrCodeModelNotFound,
				fmt.Sprintf("rule %q has no card and is unreachable", id))
		}
	}

	return result
}

func checkWeights(path string, published, actual map[string]float64, result *schema.CheckResult) {
	names := make([]string, 0, len(actual))
	for name := range actual {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		got, ok := published[name]
		switch {
		case !ok:
			result.AddError(path, schema.ErrCodeCatalog,
				fmt.Sprintf("weight for %q is not published", name))
		case math.Abs(got-actual[name]) > 1e-9:
			result.AddError(path, schema.ErrCodeCatalog,
				fmt.Sprintf("published weight for %q is %v, rule uses %v", name, got, actual[name]))
		}
	}
	for name := range published {
		if _, ok := actual[name]; !ok {
			result.AddError(path, schema.ErrCodeCatalog,
				fmt.Sprintf("published weight for %q is not used by the rule", name))
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
