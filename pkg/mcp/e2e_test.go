package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/algoscope/internal/catalog"
	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/internal/rules"
	"github.com/rendis/algoscope/internal/store"
	"github.com/rendis/algoscope/pkg/schema"
)

// newDBServer serves a catalog that went through a libSQL import and load.
func newDBServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	builtin, err := catalog.Builtin()
	require.NoError(t, err)

	s, err := store.NewLibSQLStore(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.ImportCards(ctx, "builtin", builtin.List()))

	cards, err := s.LoadCards(ctx)
	require.NoError(t, err)
	cat, err := catalog.FromCards(cards)
	require.NoError(t, err)

	eng, err := engine.New(cat, rules.Builtin(), engine.Options{Strict: true})
	require.NoError(t, err)
	return NewServer(ServerDeps{Engine: eng})
}

// callTool sends a tools/call through HandleMessage (full JSON-RPC round-trip).
func callTool(t *testing.T, s *Server, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	mcpSrv := s.MCPServer()

	rawInit, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      0,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": "2025-03-26",
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": "e2e-test", "version": "1.0.0"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, mcpSrv.HandleMessage(ctx, rawInit))

	rawReq, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": toolName, "arguments": args},
	})
	require.NoError(t, err)

	resp := mcpSrv.HandleMessage(ctx, rawReq)
	require.NotNil(t, resp)
	respBytes, err := json.Marshal(resp)
	require.NoError(t, err)

	var rpcResp struct {
		Result *mcp.CallToolResult `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpcResp))
	if rpcResp.Error != nil {
		t.Fatalf("JSON-RPC error: code=%d, msg=%s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	require.NotNil(t, rpcResp.Result)
	return rpcResp.Result
}

// assertStructuredIsObject ensures structuredContent is a JSON object (not array/null).
func assertStructuredIsObject(t *testing.T, result *mcp.CallToolResult) {
	t.Helper()
	require.NotNil(t, result.StructuredContent, "structuredContent should be present")
	b, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	assert.True(t, len(b) > 0 && b[0] == '{', "structuredContent must be an object, got: %s", string(b[:min(len(b), 20)]))
}

func TestE2E_BrowseThenPredict(t *testing.T) {
	s := newDBServer(t)

	list := callTool(t, s, "algoscope.list_models", map[string]any{"q": "housing"})
	require.False(t, list.IsError)
	assertStructuredIsObject(t, list)

	var listed struct {
		Models []schema.ModelCard `json:"models"`
	}
	unmarshalResult(t, list, &listed)
	require.Len(t, listed.Models, 1)
	id := listed.Models[0].ID

	pred := callTool(t, s, "algoscope.predict", map[string]any{
		"model_id": id,
		"inputs": map[string]any{
			"household_income":        30000,
			"has_children":            true,
			"has_elderly":             false,
			"rent_to_income_ratio":    0.6,
			"homelessness_risk_score": 80,
		},
	})
	require.False(t, pred.IsError, extractText(t, pred))
	assertStructuredIsObject(t, pred)

	var out map[string]any
	unmarshalResult(t, pred, &out)
	assert.Contains(t, out, "priority_score")
	assert.Contains(t, out, "estimated_wait_time")
}

func TestE2E_StrictRejectsOutOfRange(t *testing.T) {
	s := newDBServer(t)

	res := callTool(t, s, "algoscope.predict", map[string]any{
		"model_id": rules.SNAPEligibility,
		"inputs":   map[string]any{"household_size": 50},
	})
	assert.True(t, res.IsError)
	assert.Contains(t, extractText(t, res), schema.ErrCodeValidation)
}

func TestE2E_SweepAndFacetsAreObjects(t *testing.T) {
	s := newDBServer(t)

	sweep := callTool(t, s, "algoscope.sweep", map[string]any{
		"model_id": rules.SNAPEligibility,
		"field":    "household_income",
		"steps":    3,
	})
	require.False(t, sweep.IsError, extractText(t, sweep))
	assertStructuredIsObject(t, sweep)

	facets := callTool(t, s, "algoscope.facets", map[string]any{"kind": "services"})
	require.False(t, facets.IsError)
	assertStructuredIsObject(t, facets)
}
