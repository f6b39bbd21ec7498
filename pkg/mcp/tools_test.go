package mcp

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/algoscope/internal/catalog"
	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/internal/logging"
	"github.com/rendis/algoscope/internal/rules"
	"github.com/rendis/algoscope/pkg/schema"
)

// --- Helper ---

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cat, err := catalog.Builtin()
	require.NoError(t, err)
	eng, err := engine.New(cat, rules.Builtin(), engine.Options{})
	require.NoError(t, err)
	return NewServer(ServerDeps{Engine: eng, Logger: logging.Discard()})
}

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}

// --- Tests ---

func TestListModelsTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleListModels(context.Background(), buildRequest("algoscope.list_models", nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var listed struct {
		Models []schema.ModelCard `json:"models"`
		Count  int                `json:"count"`
	}
	unmarshalResult(t, result, &listed)
	assert.Len(t, listed.Models, 3)
	assert.Equal(t, 3, listed.Count)
}

func TestListModelsTool_Where(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleListModels(context.Background(), buildRequest("algoscope.list_models", map[string]any{
		"where": `.agency == "Department of Labor"`,
		"lang":  "jq",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var listed struct {
		Models []schema.ModelCard `json:"models"`
	}
	unmarshalResult(t, result, &listed)
	require.Len(t, listed.Models, 1)
	assert.Equal(t, rules.UnemploymentBenefits, listed.Models[0].ID)
}

func TestListModelsTool_BadLang(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleListModels(context.Background(), buildRequest("algoscope.list_models", map[string]any{
		"where": "true",
		"lang":  "lua",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), schema.ErrCodeExpression)
}

func TestGetModelTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGetModel(context.Background(), buildRequest("algoscope.get_model", map[string]any{
		"model_id": rules.SNAPEligibility,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var card schema.ModelCard
	unmarshalResult(t, result, &card)
	assert.Equal(t, rules.SNAPEligibility, card.ID)
}

func TestGetModelTool_Errors(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleGetModel(context.Background(), buildRequest("algoscope.get_model", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = s.handleGetModel(context.Background(), buildRequest("algoscope.get_model", map[string]any{"model_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), schema.MsgModelNotFound)
}

func TestSchemaTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSchema(context.Background(), buildRequest("algoscope.schema", map[string]any{
		"model_id": rules.SNAPEligibility,
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var doc map[string]any
	unmarshalResult(t, result, &doc)
	assert.Equal(t, false, doc["additionalProperties"])
}

func TestPredictTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handlePredict(context.Background(), buildRequest("algoscope.predict", map[string]any{
		"model_id": rules.SNAPEligibility,
		"inputs": map[string]any{
			"household_income": float64(25000),
			"household_size":   float64(3),
			"housing_costs":    float64(1200),
		},
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.JSONEq(t, `{"eligible":true,"benefit_amount":600,"eligibility_probability":85.3}`, extractText(t, result))
}

func TestPredictTool_Errors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing model_id", map[string]any{}, "model_id is required"},
		{"unknown model", map[string]any{"model_id": "nope"}, schema.MsgModelNotFound},
		{"composite input", map[string]any{
			"model_id": rules.SNAPEligibility,
			"inputs":   map[string]any{"household_size": []any{1, 2}},
		}, schema.ErrCodeValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := s.handlePredict(context.Background(), buildRequest("algoscope.predict", tc.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, extractText(t, result), tc.want)
		})
	}
}

func TestSweepTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSweep(context.Background(), buildRequest("algoscope.sweep", map[string]any{
		"model_id": rules.UnemploymentBenefits,
		"field":    "weekly_wage",
		"steps":    float64(4),
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var swept struct {
		Field  string              `json:"field"`
		Points []engine.SweepPoint `json:"points"`
	}
	unmarshalResult(t, result, &swept)
	assert.Equal(t, "weekly_wage", swept.Field)
	assert.Len(t, swept.Points, 4)
}

func TestSweepSteps(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{math.NaN(), engine.DefaultSweepSteps},
		{math.Inf(-1), 0},
		{-3, 0},
		{0, 0},
		{4.9, 4},
		{engine.MaxSweepSteps, engine.MaxSweepSteps},
		{1e300, engine.MaxSweepSteps},
		{math.Inf(1), engine.MaxSweepSteps},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sweepSteps(tt.in), "steps %v", tt.in)
	}
}

func TestSweepTool_HugeStepsClamped(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSweep(context.Background(), buildRequest("algoscope.sweep", map[string]any{
		"model_id": rules.UnemploymentBenefits,
		"field":    "weeks_worked",
		"steps":    1e300,
	}))
	require.NoError(t, err)
	require.False(t, result.IsError, extractText(t, result))

	var swept struct {
		Points []engine.SweepPoint `json:"points"`
	}
	unmarshalResult(t, result, &swept)
	require.Len(t, swept.Points, engine.MaxSweepSteps)
	assert.Equal(t, 0.0, swept.Points[0].Value)
	assert.Equal(t, 52.0, swept.Points[engine.MaxSweepSteps-1].Value)
}

func TestSweepTool_NonNumberField(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleSweep(context.Background(), buildRequest("algoscope.sweep", map[string]any{
		"model_id": rules.UnemploymentBenefits,
		"field":    "separation_reason",
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), schema.ErrCodeValidation)
}

func TestFacetsTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleFacets(context.Background(), buildRequest("algoscope.facets", nil))
	require.NoError(t, err)

	var facets struct {
		Agencies []string `json:"agencies"`
		Services []string `json:"services"`
	}
	unmarshalResult(t, result, &facets)
	assert.Len(t, facets.Agencies, 3)
	assert.Len(t, facets.Services, 3)
}

func TestFacetsTool_Kind(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleFacets(context.Background(), buildRequest("algoscope.facets", map[string]any{"kind": "agencies"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var facets map[string][]string
	unmarshalResult(t, result, &facets)
	assert.Equal(t, []string{"Department of Labor", "Department of Social Services", "Housing Authority"}, facets["agencies"])
	assert.NotContains(t, facets, "services")

	result, err = s.handleFacets(context.Background(), buildRequest("algoscope.facets", map[string]any{"kind": "colors"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
