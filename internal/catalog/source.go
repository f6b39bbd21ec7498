package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rendis/algoscope/internal/validation"
	"github.com/rendis/algoscope/pkg/schema"
)

//go:embed cards.json
var builtinCards []byte

// Document formats accepted by Decode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Builtin returns the catalog shipped with the binary.
func Builtin() (*Catalog, error) {
	cards, err := Decode(builtinCards, FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("builtin catalog: %w", err)
	}
	return New(cards)
}

// LoadFile reads a catalog document from a .json, .yaml or .yml file.
func LoadFile(path string) (*Catalog, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeCatalog, "read catalog %s", path).WithCause(err)
	}

	cards, err := Decode(data, format)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return New(cards)
}

// Decode parses a catalog document, validates it against the catalog schema
// and runs the semantic card checks.
func Decode(data []byte, format string) ([]schema.ModelCard, error) {
	var (
		doc   any
		cards []schema.ModelCard
	)

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, schema.NewError(schema.ErrCodeCatalog, "malformed JSON catalog").WithCause(err)
		}
		if err := json.Unmarshal(data, &cards); err != nil {
			return nil, schema.NewError(schema.ErrCodeCatalog, "malformed JSON catalog").WithCause(err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, schema.NewError(schema.ErrCodeCatalog, "malformed YAML catalog").WithCause(err)
		}
		if err := yaml.Unmarshal(data, &cards); err != nil {
			return nil, schema.NewError(schema.ErrCodeCatalog, "malformed YAML catalog").WithCause(err)
		}
	default:
		return nil, schema.NewErrorf(schema.ErrCodeCatalog, "unsupported catalog format %q", format)
	}

	if err := validate(doc, cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// FromCards validates cards loaded from elsewhere, such as the catalog
// database, and builds a catalog from them.
func FromCards(cards []schema.ModelCard) (*Catalog, error) {
	if err := validate(cards, cards); err != nil {
		return nil, err
	}
	return New(cards)
}

func validate(doc any, cards []schema.ModelCard) error {
	v, err := validation.NewJSONSchemaValidator()
	if err != nil {
		return schema.NewError(schema.ErrCodeCatalog, "create catalog validator").WithCause(err)
	}
	if err := v.ValidateCards(doc); err != nil {
		return schema.NewErrorf(schema.ErrCodeCatalog, "catalog document is invalid: %s", err.Error()).WithCause(err)
	}
	return validation.CheckCards(cards).ToError()
}

func formatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", schema.NewErrorf(schema.ErrCodeCatalog,
			"unsupported catalog file %s (want .json, .yaml or .yml)", path)
	}
}
