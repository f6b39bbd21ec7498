package validation

import "github.com/rendis/algoscope/pkg/schema"

// Validator checks catalog documents and prediction payloads against JSON
// Schema Draft 2020-12. Input and output schemas are derived from a card's
// FieldSpecs.
type Validator interface {
	ValidateCards(doc any) error
	ValidateInputs(card *schema.ModelCard, inputs schema.InputBag) error
	ValidateOutputs(card *schema.ModelCard, outputs schema.OutputBag) error
	InputSchema(card *schema.ModelCard) ([]byte, error)
}
