// Package engine runs model predictions: it resolves a model id through the
// catalog and the rule registry, applies the card's declared defaults and
// returns the rule's output bag unchanged.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/rendis/algoscope/internal/catalog"
	"github.com/rendis/algoscope/internal/logging"
	"github.com/rendis/algoscope/internal/rules"
	"github.com/rendis/algoscope/internal/validation"
	"github.com/rendis/algoscope/pkg/schema"
)

// Options configures an Engine.
type Options struct {
	// Strict validates inputs and outputs against the card's FieldSpecs.
	// When false, out-of-range and mistyped inputs flow into the rule as-is.
	Strict bool
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
	// Validator defaults to a JSONSchemaValidator.
	Validator validation.Validator
}

// Engine is stateless between calls and safe for concurrent use.
type Engine struct {
	catalog   *catalog.Catalog
	registry  *rules.Registry
	validator validation.Validator
	strict    bool
	logger    *slog.Logger
}

// New creates an Engine over an immutable catalog and registry.
func New(cat *catalog.Catalog, reg *rules.Registry, opts Options) (*Engine, error) {
	if cat == nil || reg == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "engine requires a catalog and a registry")
	}

	v := opts.Validator
	if v == nil {
		jv, err := validation.NewJSONSchemaValidator()
		if err != nil {
			return nil, err
		}
		v = jv
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Engine{
		catalog:   cat,
		registry:  reg,
		validator: v,
		strict:    opts.Strict,
		logger:    logger,
	}, nil
}

// Catalog returns the catalog the engine resolves against.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Strict reports whether strict validation is enabled.
func (e *Engine) Strict() bool {
	return e.strict
}

// Predict computes the outputs of modelID for the given inputs. Keys absent
// from inputs take the card's declared defaults.
func (e *Engine) Predict(ctx context.Context, modelID string, inputs schema.InputBag) (schema.OutputBag, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	card, rule, err := e.resolve(modelID)
	if err != nil {
		return nil, err
	}
	return e.run(logging.WithModelID(ctx, modelID), &card, rule, inputs)
}

// InputSchema returns the JSON Schema derived from the card's input FieldSpecs.
func (e *Engine) InputSchema(modelID string) (json.RawMessage, error) {
	card, ok := e.catalog.Get(modelID)
	if !ok {
		return nil, schema.ModelNotFound(modelID)
	}
	raw, err := e.validator.InputSchema(&card)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

// resolve looks the card up first, then its rule: an unknown id is
// MODEL_NOT_FOUND, a cataloged id without a rule is RULE_NOT_IMPLEMENTED.
func (e *Engine) resolve(modelID string) (schema.ModelCard, rules.Rule, error) {
	card, ok := e.catalog.Get(modelID)
	if !ok {
		return schema.ModelCard{}, nil, schema.ModelNotFound(modelID)
	}
	if !e.registry.Has(modelID) {
		return schema.ModelCard{}, nil, schema.RuleNotImplemented(modelID)
	}
	rule, err := e.registry.Resolve(modelID)
	if err != nil {
		return schema.ModelCard{}, nil, err
	}
	return card, rule, nil
}

func (e *Engine) run(ctx context.Context, card *schema.ModelCard, rule rules.Rule, inputs schema.InputBag) (schema.OutputBag, error) {
	if e.strict {
		if err := e.validator.ValidateInputs(card, inputs); err != nil {
			e.logger.DebugContext(ctx, "inputs rejected", slog.String("error", err.Error()))
			return nil, err
		}
	}

	start := time.Now()
	out := rule.Compute(rules.NewInputs(inputs, card.Inputs))

	if e.strict {
		if err := e.validator.ValidateOutputs(card, out); err != nil {
			e.logger.ErrorContext(ctx, "rule produced undeclared outputs", slog.String("error", err.Error()))
			return nil, err
		}
	}

	e.logger.DebugContext(ctx, "prediction computed",
		slog.Int("inputs", len(inputs)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}
