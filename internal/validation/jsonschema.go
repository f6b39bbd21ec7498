package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/algoscope/pkg/schema"
)

const cardsSchemaURL = "https://algoscope.dev/schemas/cards.json"

// cardsSchemaJSON is the JSON Schema for a catalog document: an array of model cards.
const cardsSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://algoscope.dev/schemas/cards.json",
  "type": "array",
  "items": { "$ref": "#/$defs/card" },
  "$defs": {
    "card": {
      "type": "object",
      "required": ["id", "name", "agency", "service", "description", "last_audited", "status", "inputs", "outputs"],
      "properties": {
        "id": { "type": "string", "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$" },
        "name": { "type": "string", "minLength": 1 },
        "agency": { "type": "string", "minLength": 1 },
        "service": { "type": "string", "minLength": 1 },
        "description": { "type": "string" },
        "last_audited": { "type": "string", "format": "date" },
        "status": { "type": "string", "enum": ["active", "inactive"] },
        "inputs": { "type": "array", "items": { "$ref": "#/$defs/field" } },
        "outputs": { "type": "array", "items": { "$ref": "#/$defs/field" } },
        "transparency_notes": { "type": "array", "items": { "type": "string" } },
        "fairness_metrics": {
          "type": "object",
          "additionalProperties": { "type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?$" }
        },
        "feature_importance": {
          "type": "object",
          "additionalProperties": { "type": "number", "minimum": 0, "maximum": 1 }
        },
        "data_sources": { "type": "array", "items": { "type": "string" } },
        "algorithm_type": { "type": "string" },
        "decision_sensitivity": { "type": "string" }
      },
      "additionalProperties": false
    },
    "field": {
      "type": "object",
      "required": ["name", "type", "label"],
      "properties": {
        "name": { "type": "string", "pattern": "^[a-z][a-z0-9_]*$" },
        "type": { "type": "string", "enum": ["number", "boolean", "select", "string"] },
        "label": { "type": "string" },
        "min": { "type": "number" },
        "max": { "type": "number" },
        "step": { "type": "number", "exclusiveMinimum": 0 },
        "options": { "type": "array", "items": { "type": "string" }, "minItems": 1 },
        "default": { "type": ["number", "boolean", "string"] },
        "format": { "type": "string" }
      },
      "additionalProperties": false,
      "allOf": [
        {
          "if": { "properties": { "type": { "const": "select" } } },
          "then": { "required": ["options"] }
        },
        {
          "if": { "properties": { "type": { "const": "number" } } },
          "then": { "properties": { "default": { "type": "number" } } }
        },
        {
          "if": { "properties": { "type": { "const": "boolean" } } },
          "then": { "properties": { "default": { "type": "boolean" } } }
        }
      ]
    }
  }
}`

// JSONSchemaValidator implements Validator using JSON Schema Draft 2020-12.
// It is safe for concurrent use.
type JSONSchemaValidator struct {
	cardsSchema *jsonschema.Schema

	// mu guards the cache of schemas derived from FieldSpecs.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator creates a JSONSchemaValidator with the catalog schema pre-compiled.
func NewJSONSchemaValidator() (*JSONSchemaValidator, error) {
	c := newCompiler()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(cardsSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal cards schema: %w", err)
	}
	if err := c.AddResource(cardsSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add cards schema resource: %w", err)
	}

	cards, err := c.Compile(cardsSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile cards schema: %w", err)
	}

	return &JSONSchemaValidator{
		cardsSchema: cards,
		cache:       make(map[string]*jsonschema.Schema),
	}, nil
}

// ValidateCards validates a decoded catalog document (JSON or YAML) against the
// catalog schema.
func (v *JSONSchemaValidator) ValidateCards(doc any) error {
	if doc == nil {
		return schema.NewError(schema.ErrCodeValidation, "catalog document is empty")
	}

	val, err := toJSONValue(doc)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize catalog document").WithCause(err)
	}

	if err := v.cardsSchema.Validate(val); err != nil {
		return toValidationError(err)
	}
	return nil
}

// ValidateInputs validates a caller bag against the schema derived from the
// card's input FieldSpecs. Absent keys are allowed; they take declared defaults.
func (v *JSONSchemaValidator) ValidateInputs(card *schema.ModelCard, inputs schema.InputBag) error {
	if card == nil {
		return schema.NewError(schema.ErrCodeValidation, "model card is nil")
	}
	raw, err := InputSchema(card)
	if err != nil {
		return err
	}
	if inputs == nil {
		inputs = schema.InputBag{}
	}
	return v.validate(raw, inputs, card.ID)
}

// ValidateOutputs validates a rule's output bag against the card's output FieldSpecs.
func (v *JSONSchemaValidator) ValidateOutputs(card *schema.ModelCard, outputs schema.OutputBag) error {
	if card == nil {
		return schema.NewError(schema.ErrCodeValidation, "model card is nil")
	}
	raw, err := OutputSchema(card)
	if err != nil {
		return err
	}
	if outputs == nil {
		outputs = schema.OutputBag{}
	}
	return v.validate(raw, outputs, card.ID)
}

// InputSchema returns the derived input schema for card.
func (v *JSONSchemaValidator) InputSchema(card *schema.ModelCard) ([]byte, error) {
	if card == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "model card is nil")
	}
	return InputSchema(card)
}

func (v *JSONSchemaValidator) validate(rawSchema []byte, payload any, modelID string) error {
	compiled, err := v.getOrCompile(rawSchema)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "invalid derived schema").WithModel(modelID).WithCause(err)
	}

	doc, err := toJSONValue(payload)
	if err != nil {
		return schema.NewError(schema.ErrCodeValidation, "failed to serialize payload").WithModel(modelID).WithCause(err)
	}

	if err := compiled.Validate(doc); err != nil {
		return toValidationError(err).WithModel(modelID)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a new one.
func (v *JSONSchemaValidator) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	url := fmt.Sprintf("algoscope://derived-schema/%d", len(v.cache))

	c := newCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.cache[key] = compiled
	return compiled, nil
}

// InputSchema derives a JSON Schema for a card's inputs. Every key is optional,
// undeclared keys are rejected.
func InputSchema(card *schema.ModelCard) ([]byte, error) {
	return deriveSchema(card.ID, "inputs", card.Inputs, false)
}

// OutputSchema derives a JSON Schema for a card's outputs. Every declared key is
// required, and numbers may be null (a non-finite result).
func OutputSchema(card *schema.ModelCard) ([]byte, error) {
	return deriveSchema(card.ID, "outputs", card.Outputs, true)
}

func deriveSchema(modelID, kind string, fields []schema.FieldSpec, output bool) ([]byte, error) {
	props := make(map[string]any, len(fields))
	required := make([]string, 0, len(fields))

	for _, f := range fields {
		p, err := fieldSchema(f, output)
		if err != nil {
			return nil, err.WithModel(modelID)
		}
		props[f.Name] = p
		required = append(required, f.Name)
	}

	doc := map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                modelID + " " + kind,
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if output {
		doc["required"] = required
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "failed to encode derived schema").WithModel(modelID).WithCause(err)
	}
	return b, nil
}

func fieldSchema(f schema.FieldSpec, output bool) (map[string]any, *schema.Error) {
	p := map[string]any{}
	if f.Label != "" {
		p["title"] = f.Label
	}

	switch f.Type {
	case schema.FieldNumber:
		if output {
			p["type"] = []string{"number", "null"}
		} else {
			p["type"] = "number"
		}
		if f.Min != nil {
			p["minimum"] = *f.Min
		}
		if f.Max != nil {
			p["maximum"] = *f.Max
		}
	case schema.FieldBoolean:
		p["type"] = "boolean"
	case schema.FieldSelect:
		p["type"] = "string"
		if len(f.Options) > 0 {
			p["enum"] = f.Options
		}
	case schema.FieldString:
		p["type"] = "string"
	default:
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "field %q has unknown type %q", f.Name, f.Type)
	}

	if !f.Default.IsZero() {
		p["default"] = f.Default
	}
	return p, nil
}

func newCompiler() *jsonschema.Compiler {
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	return c
}

// toJSONValue round-trips a Go value through JSON so that numbers become
// json.Number, as the jsonschema library expects.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

// toValidationError converts a jsonschema.ValidationError into a VALIDATION_ERROR
// listing every leaf violation.
func toValidationError(err error) *schema.Error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}

	if len(violations) == 1 {
		return schema.NewError(schema.ErrCodeValidation, violations[0]).
			WithDetails(map[string]any{"violations": violations})
	}

	msg := fmt.Sprintf("validation failed with %d errors", len(violations))
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations walks a ValidationError tree and collects leaf messages
// prefixed with their instance location.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
