package validation

import (
	"fmt"

	"github.com/rendis/algoscope/pkg/schema"
)

// CheckCards performs semantic checks that the catalog JSON Schema cannot
// express: duplicate ids and field names, inverted ranges, defaults outside
// their declared range or options.
func CheckCards(cards []schema.ModelCard) *schema.CheckResult {
	result := &schema.CheckResult{}

	ids := make(map[string]int, len(cards))
	for i := range cards {
		card := &cards[i]
		path := fmt.Sprintf("cards[%d]", i)

		if prev, exists := ids[card.ID]; exists {
			result.AddError(path+".id", schema.ErrCodeConflict,
				fmt.Sprintf("duplicate card id %q (first at cards[%d])", card.ID, prev))
		} else {
			ids[card.ID] = i
		}

		checkFields(card.Inputs, path+".inputs", result)
		checkFields(card.Outputs, path+".outputs", result)

		if len(card.Outputs) == 0 {
			result.AddWarning(path+".outputs", schema.ErrCodeValidation, "card declares no outputs")
		}
		if card.Status == schema.StatusInactive {
			result.AddWarning(path+".status", schema.ErrCodeValidation,
				fmt.Sprintf("card %q is inactive", card.ID))
		}
	}

	return result
}

func checkFields(fields []schema.FieldSpec, path string, result *schema.CheckResult) {
	names := make(map[string]bool, len(fields))
	for j := range fields {
		f := &fields[j]
		fpath := fmt.Sprintf("%s[%d]", path, j)

		if names[f.Name] {
			result.AddError(fpath+".name", schema.ErrCodeConflict,
				fmt.Sprintf("duplicate field name %q", f.Name))
		}
		names[f.Name] = true

		switch f.Type {
		case schema.FieldNumber:
			checkNumberField(f, fpath, result)
		case schema.FieldSelect:
			checkSelectField(f, fpath, result)
		}
	}
}

func checkNumberField(f *schema.FieldSpec, path string, result *schema.CheckResult) {
	if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
		result.AddError(path, schema.ErrCodeValidation,
			fmt.Sprintf("field %q has min %v greater than max %v", f.Name, *f.Min, *f.Max))
		return
	}
	if f.Default.IsZero() {
		return
	}
	d := f.Default.AsNumber()
	if f.Min != nil && d < *f.Min {
		result.AddError(path+".default", schema.ErrCodeValidation,
			fmt.Sprintf("field %q default %v is below min %v", f.Name, d, *f.Min))
	}
	if f.Max != nil && d > *f.Max {
		result.AddError(path+".default", schema.ErrCodeValidation,
			fmt.Sprintf("field %q default %v is above max %v", f.Name, d, *f.Max))
	}
}

func checkSelectField(f *schema.FieldSpec, path string, result *schema.CheckResult) {
	if f.Default.IsZero() {
		return
	}
	d := f.Default.AsText()
	for _, opt := range f.Options {
		if opt == d {
			return
		}
	}
	result.AddError(path+".default", schema.ErrCodeValidation,
		fmt.Sprintf("field %q default %q is not one of its options", f.Name, d))
}
