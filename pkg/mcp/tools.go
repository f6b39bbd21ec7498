package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/algoscope/internal/catalog"
	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/internal/logging"
	"github.com/rendis/algoscope/pkg/schema"
)

// handleListModels returns the cards matching the optional filters.
func (s *Server) handleListModels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cards, err := s.engine.Catalog().Filter(ctx, catalog.Query{
		Text:    req.GetString("q", ""),
		Agency:  req.GetString("agency", ""),
		Service: req.GetString("service", ""),
		Where:   req.GetString("where", ""),
		Lang:    req.GetString("lang", ""),
	})
	if err != nil {
		return toolError("list failed", err), nil
	}
	return marshalResult(map[string]any{"models": cards, "count": len(cards)})
}

// handleGetModel returns one card.
func (s *Server) handleGetModel(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modelID, err := req.RequireString("model_id")
	if err != nil {
		return mcp.NewToolResultError("model_id is required"), nil
	}

	card, ok := s.engine.Catalog().Get(modelID)
	if !ok {
		return toolError("lookup failed", schema.ModelNotFound(modelID)), nil
	}
	return marshalResult(card)
}

// handleSchema returns the derived input schema of a card.
func (s *Server) handleSchema(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modelID, err := req.RequireString("model_id")
	if err != nil {
		return mcp.NewToolResultError("model_id is required"), nil
	}

	raw, schemaErr := s.engine.InputSchema(modelID)
	if schemaErr != nil {
		return toolError("schema failed", schemaErr), nil
	}
	return mcp.NewToolResultJSON(raw)
}

// handlePredict runs one simulation.
func (s *Server) handlePredict(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modelID, err := req.RequireString("model_id")
	if err != nil {
		return mcp.NewToolResultError("model_id is required"), nil
	}
	inputs, inErr := schema.InputBagFrom(mcp.ParseStringMap(req, "inputs", nil))
	if inErr != nil {
		return toolError("invalid inputs", inErr), nil
	}

	ctx = logging.WithModelID(ctx, modelID)
	out, predErr := s.engine.Predict(ctx, modelID, inputs)
	if predErr != nil {
		s.logger.WarnContext(ctx, "mcp predict failed", slog.String("error", predErr.Error()))
		return toolError("prediction failed", predErr), nil
	}
	return marshalResult(out)
}

// handleSweep varies one number input across its range.
func (s *Server) handleSweep(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modelID, err := req.RequireString("model_id")
	if err != nil {
		return mcp.NewToolResultError("model_id is required"), nil
	}
	field, err := req.RequireString("field")
	if err != nil {
		return mcp.NewToolResultError("field is required"), nil
	}
	inputs, inErr := schema.InputBagFrom(mcp.ParseStringMap(req, "inputs", nil))
	if inErr != nil {
		return toolError("invalid inputs", inErr), nil
	}
	steps := sweepSteps(req.GetFloat("steps", engine.DefaultSweepSteps))

	ctx = logging.WithModelID(ctx, modelID)
	points, sweepErr := s.engine.Sweep(ctx, modelID, inputs, field, steps)
	if sweepErr != nil {
		return toolError("sweep failed", sweepErr), nil
	}
	return marshalResult(map[string]any{"model_id": modelID, "field": field, "points": points})
}

// sweepSteps bounds a JSON number before converting it, since NaN and values
// outside the int range have no defined conversion.
func sweepSteps(f float64) int {
	switch {
	case math.IsNaN(f):
		return engine.DefaultSweepSteps
	case f <= 0:
		return 0
	case f > engine.MaxSweepSteps:
		return engine.MaxSweepSteps
	default:
		return int(f)
	}
}

// handleFacets lists agencies, services, or both when kind is empty.
func (s *Server) handleFacets(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat := s.engine.Catalog()
	switch kind := req.GetString("kind", ""); kind {
	case "agencies":
		return marshalResult(map[string]any{"agencies": cat.Agencies()})
	case "services":
		return marshalResult(map[string]any{"services": cat.Services()})
	case "":
		return marshalResult(map[string]any{
			"agencies": cat.Agencies(),
			"services": cat.Services(),
		})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("kind must be agencies or services, got %q", kind)), nil
	}
}

// toolError renders err as a tool-level error result. Structured errors keep
// their code so agents can branch on it.
func toolError(prefix string, err error) *mcp.CallToolResult {
	var se *schema.Error
	if errors.As(err, &se) {
		return mcp.NewToolResultError(fmt.Sprintf("%s: [%s] %s", prefix, se.Code, se.Message))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}

// marshalResult converts a value to a JSON text tool result. Callers pass
// objects: structured content must not be an array.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
