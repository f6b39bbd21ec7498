package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/algoscope/internal/expressions"
	"github.com/rendis/algoscope/internal/rules"
	"github.com/rendis/algoscope/pkg/schema"
)

func builtin(t *testing.T) *Catalog {
	t.Helper()
	cat, err := Builtin()
	require.NoError(t, err)
	return cat
}

func ids(cards []schema.ModelCard) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

// --- Builtin data ---

func TestBuiltin_Cards(t *testing.T) {
	cat := builtin(t)
	require.Equal(t, 3, cat.Len())
	assert.Equal(t,
		[]string{rules.SNAPEligibility, rules.HousingVoucherPriority, rules.UnemploymentBenefits},
		ids(cat.List()))

	snap, ok := cat.Get(rules.SNAPEligibility)
	require.True(t, ok)
	assert.Equal(t, "Department of Social Services", snap.Agency)
	assert.Equal(t, schema.StatusActive, snap.Status)

	size, ok := snap.Input("household_size")
	require.True(t, ok)
	assert.Equal(t, schema.Number(3), size.Default)
	require.NotNil(t, size.Min)
	assert.Equal(t, 1.0, *size.Min)

	emp, ok := snap.Input("employment_status")
	require.True(t, ok)
	assert.Equal(t, schema.FieldSelect, emp.Type)
	assert.Equal(t, []string{"employed", "unemployed", "part-time"}, emp.Options)

	prob, ok := snap.Output("eligibility_probability")
	require.True(t, ok)
	assert.Equal(t, "percentage", prob.Format)

	housing, _ := cat.Get(rules.HousingVoucherPriority)
	elderly, _ := housing.Input("has_elderly")
	assert.Equal(t, schema.Bool(false), elderly.Default)
	assert.Equal(t, "0.71", housing.FairnessMetrics["demographic_parity"])
}

func TestGet_Unknown(t *testing.T) {
	_, ok := builtin(t).Get("nonexistent-id")
	assert.False(t, ok)
}

func TestList_IsACopy(t *testing.T) {
	cat := builtin(t)
	list := cat.List()
	list[0].Name = "mutated"

	card, _ := cat.Get(list[0].ID)
	assert.NotEqual(t, "mutated", card.Name)
}

func TestReturnedCardsShareNoStorage(t *testing.T) {
	cat := builtin(t)
	id := rules.HousingVoucherPriority

	list := cat.List()
	for i := range list {
		if list[i].ID == id {
			list[i].Inputs[0].Default = schema.Number(1)
			*list[i].Inputs[0].Max = 1
			list[i].FeatureImportance["has_children"] = 9
		}
	}

	got, _ := cat.Get(id)
	got.Outputs[0].Label = "changed"
	got.FairnessMetrics["calibration"] = "0"

	filtered, err := cat.Filter(context.Background(), Query{Text: "housing voucher"})
	require.NoError(t, err)
	require.NotEmpty(t, filtered)
	filtered[0].TransparencyNotes[0] = "changed"

	card, ok := cat.Get(id)
	require.True(t, ok)
	assert.Equal(t, schema.Number(20000), card.Inputs[0].Default)
	assert.Equal(t, 80000.0, *card.Inputs[0].Max)
	assert.Equal(t, 0.15, card.FeatureImportance["has_children"])
	assert.Equal(t, "Priority Score", card.Outputs[0].Label)
	assert.Equal(t, "0.88", card.FairnessMetrics["calibration"])
	assert.NotEqual(t, "changed", card.TransparencyNotes[0])
}

func TestNew_CopiesInput(t *testing.T) {
	cards := builtin(t).List()
	cat, err := New(cards)
	require.NoError(t, err)

	cards[0].Inputs[0].Default = schema.Number(-1)
	card, _ := cat.Get(cards[0].ID)
	assert.NotEqual(t, schema.Number(-1), card.Inputs[0].Default)
}

func TestNew_Rejects(t *testing.T) {
	_, err := New([]schema.ModelCard{{ID: ""}})
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeCatalog))

	_, err = New([]schema.ModelCard{{ID: "a"}, {ID: "a"}})
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeCatalog))
}

func TestNew_Empty(t *testing.T) {
	cat, err := New(nil)
	require.NoError(t, err)

	got, err := cat.Filter(context.Background(), Query{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, cat.Agencies())
}

// --- Filter ---

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"empty query", Query{}, []string{rules.SNAPEligibility, rules.HousingVoucherPriority, rules.UnemploymentBenefits}},
		{"text", Query{Text: "housing"}, []string{rules.HousingVoucherPriority}},
		{"text case-insensitive", Query{Text: "INSURANCE"}, []string{rules.UnemploymentBenefits}},
		{"agency substring", Query{Agency: "labor"}, []string{rules.UnemploymentBenefits}},
		{"service substring", Query{Service: "assist"}, []string{rules.SNAPEligibility, rules.HousingVoucherPriority}},
		{"criteria AND", Query{Text: "household", Service: "food"}, []string{rules.SNAPEligibility}},
		{"no match", Query{Agency: "Treasury"}, []string{}},
		{"cel where", Query{Where: `card.agency == "Housing Authority"`}, []string{rules.HousingVoucherPriority}},
		{"expr where", Query{Where: `len(card.inputs) == 4`, Lang: expressions.LangExpr}, []string{rules.SNAPEligibility, rules.UnemploymentBenefits}},
		{"jq where", Query{Where: `(.fairness_metrics.calibration | tonumber) > 0.9`, Lang: expressions.LangJQ}, []string{rules.SNAPEligibility, rules.UnemploymentBenefits}},
		{"where and text", Query{Text: "eligibility", Where: `card.status == "active"`}, []string{rules.SNAPEligibility, rules.UnemploymentBenefits}},
	}

	cat := builtin(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cat.Filter(context.Background(), tt.q)
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilter_ExpressionError(t *testing.T) {
	cat := builtin(t)

	_, err := cat.Filter(context.Background(), Query{Where: `card.name`})
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeExpression))

	_, err = cat.Filter(context.Background(), Query{Where: `true`, Lang: "sql"})
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeExpression))
}

// --- Facets ---

func TestFacets(t *testing.T) {
	cat := builtin(t)
	assert.Equal(t, []string{"Department of Labor", "Department of Social Services", "Housing Authority"}, cat.Agencies())
	assert.Equal(t, []string{"Food Assistance", "Housing Assistance", "Unemployment Insurance"}, cat.Services())
}

func TestFacets_Deduplicated(t *testing.T) {
	cat, err := New([]schema.ModelCard{
		{ID: "a", Agency: "B", Service: "x"},
		{ID: "b", Agency: "A", Service: "x"},
		{ID: "c", Agency: "B", Service: "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, cat.Agencies())
	assert.Equal(t, []string{"x", "y"}, cat.Services())
}

// --- Sources ---

const yamlCatalog = `
- id: child-care-subsidy
  name: Child Care Subsidy
  agency: Department of Social Services
  service: Child Care
  description: Ranks applications for child care subsidies.
  last_audited: "2024-03-01"
  status: inactive
  inputs:
    - name: children
      type: number
      label: Children
      min: 0
      max: 8
      default: 1
  outputs:
    - name: eligible
      type: boolean
      label: Eligible
`

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlCatalog), 0o600))

	cat, err := LoadFile(path)
	require.NoError(t, err)

	card, ok := cat.Get("child-care-subsidy")
	require.True(t, ok)
	assert.Equal(t, "2024-03-01", card.LastAudited)
	assert.Equal(t, schema.StatusInactive, card.Status)
	assert.Equal(t, schema.Number(1), card.Inputs[0].Default)
}

func TestLoadFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cards.json")
	require.NoError(t, os.WriteFile(path, builtinCards, 0o600))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, builtin(t).List(), cat.List())
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "cards.toml"))
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeCatalog))

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeCatalog))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"id":"x"}]`), 0o600))
	_, err = LoadFile(bad)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeCatalog))
}

func TestDecode_SemanticErrors(t *testing.T) {
	doc := []byte(`[{
		"id": "x", "name": "X", "agency": "A", "service": "S", "description": "",
		"last_audited": "2024-01-01", "status": "active",
		"inputs": [{"name": "n", "type": "number", "label": "N", "min": 0, "max": 10, "default": 11}],
		"outputs": []
	}]`)

	_, err := Decode(doc, FormatJSON)
	require.Error(t, err)

	var se *schema.Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, schema.ErrCodeCatalog, se.Code)
	assert.Contains(t, se.Message, "above max")
}

func TestFromCards(t *testing.T) {
	cards := builtin(t).List()

	cat, err := FromCards(cards)
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())

	cards[0].Status = "retired"
	_, err = FromCards(cards)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeCatalog))
}
