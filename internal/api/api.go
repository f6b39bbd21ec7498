// Package api exposes the catalog and the prediction engine over HTTP.
package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rendis/algoscope/internal/catalog"
	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/pkg/schema"
)

// Handler serves the /api routes.
type Handler struct {
	Engine *engine.Engine
	Logger *slog.Logger
}

// PredictRequest is the body of POST /api/models/:id/predict.
type PredictRequest struct {
	Inputs schema.InputBag `json:"inputs"`
}

// SweepRequest is the body of POST /api/models/:id/sweep.
type SweepRequest struct {
	Inputs schema.InputBag `json:"inputs"`
	Field  string          `json:"field"`
	Steps  int             `json:"steps"`
}

func (h *Handler) catalog() *catalog.Catalog {
	return h.Engine.Catalog()
}

// ListModels returns the cards matching the q, agency, service, where and lang
// query parameters.
func (h *Handler) ListModels(c *gin.Context) {
	cards, err := h.catalog().Filter(c.Request.Context(), catalog.Query{
		Text:    c.Query("q"),
		Agency:  c.Query("agency"),
		Service: c.Query("service"),
		Where:   c.Query("where"),
		Lang:    c.Query("lang"),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cards)
}

// GetModel returns one card.
func (h *Handler) GetModel(c *gin.Context) {
	card, ok := h.catalog().Get(c.Param("id"))
	if !ok {
		h.writeError(c, schema.ModelNotFound(c.Param("id")))
		return
	}
	c.JSON(http.StatusOK, card)
}

// Predict runs the model's rule on the posted inputs.
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	out, err := h.Engine.Predict(c.Request.Context(), c.Param("id"), req.Inputs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Sweep varies one number input across its declared range.
func (h *Handler) Sweep(c *gin.Context) {
	var req SweepRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	if req.Field == "" {
		h.writeError(c, schema.NewError(schema.ErrCodeValidation, "field is required"))
		return
	}

	points, err := h.Engine.Sweep(c.Request.Context(), c.Param("id"), req.Inputs, req.Field, req.Steps)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// ModelSchema returns the JSON Schema derived from the card's inputs.
func (h *Handler) ModelSchema(c *gin.Context) {
	raw, err := h.Engine.InputSchema(c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/schema+json", raw)
}

// Agencies returns the distinct agencies, sorted.
func (h *Handler) Agencies(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog().Agencies())
}

// Services returns the distinct services, sorted.
func (h *Handler) Services(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog().Services())
}

// Health reports liveness and the loaded catalog size.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"models": h.catalog().Len(),
		"strict": h.Engine.Strict(),
	})
}

// bindOptionalJSON decodes the request body into dst. An empty body leaves dst
// zero-valued. Writes a 400 and returns false on malformed JSON.
func (h *Handler) bindOptionalJSON(c *gin.Context, dst any) bool {
	body, err := c.GetRawData()
	if err != nil {
		h.writeError(c, schema.NewError(schema.ErrCodeValidation, "failed to read request body").WithCause(err))
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.writeError(c, schema.NewErrorf(schema.ErrCodeValidation, "malformed JSON body: %s", err.Error()).WithCause(err))
		return false
	}
	return true
}
