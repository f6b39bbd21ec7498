// Package schema defines the model card catalog types and the structured errors
// shared by the engine, the catalog and every transport.
package schema

import (
	"maps"
	"slices"
)

// FieldType is the declared type of an input or output field.
type FieldType string

const (
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
	FieldString  FieldType = "string"
)

// Status is the lifecycle status of a cataloged algorithm.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// FieldSpec declares the shape and constraints of one named input or output value.
type FieldSpec struct {
	Name    string    `json:"name" yaml:"name"`
	Type    FieldType `json:"type" yaml:"type"`
	Label   string    `json:"label" yaml:"label"`
	Min     *float64  `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64  `json:"max,omitempty" yaml:"max,omitempty"`
	Step    *float64  `json:"step,omitempty" yaml:"step,omitempty"`
	Options []string  `json:"options,omitempty" yaml:"options,omitempty"`
	Default Value     `json:"default,omitzero" yaml:"default,omitempty"`
	Format  string    `json:"format,omitempty" yaml:"format,omitempty"`
}

// ModelCard is a catalog record describing one public-sector decision algorithm,
// its documented inputs and outputs, and its governance metadata.
// Cards are loaded once and never mutated.
type ModelCard struct {
	ID                  string             `json:"id" yaml:"id"`
	Name                string             `json:"name" yaml:"name"`
	Agency              string             `json:"agency" yaml:"agency"`
	Service             string             `json:"service" yaml:"service"`
	Description         string             `json:"description" yaml:"description"`
	LastAudited         string             `json:"last_audited" yaml:"last_audited"`
	Status              Status             `json:"status" yaml:"status"`
	Inputs              []FieldSpec        `json:"inputs" yaml:"inputs"`
	Outputs             []FieldSpec        `json:"outputs" yaml:"outputs"`
	TransparencyNotes   []string           `json:"transparency_notes,omitempty" yaml:"transparency_notes,omitempty"`
	FairnessMetrics     map[string]string  `json:"fairness_metrics,omitempty" yaml:"fairness_metrics,omitempty"`
	FeatureImportance   map[string]float64 `json:"feature_importance,omitempty" yaml:"feature_importance,omitempty"`
	DataSources         []string           `json:"data_sources,omitempty" yaml:"data_sources,omitempty"`
	AlgorithmType       string             `json:"algorithm_type,omitempty" yaml:"algorithm_type,omitempty"`
	DecisionSensitivity string             `json:"decision_sensitivity,omitempty" yaml:"decision_sensitivity,omitempty"`
}

// Clone returns a deep copy of the field spec.
func (f FieldSpec) Clone() FieldSpec {
	f.Min = clonePtr(f.Min)
	f.Max = clonePtr(f.Max)
	f.Step = clonePtr(f.Step)
	f.Options = slices.Clone(f.Options)
	return f
}

// Clone returns a deep copy of the card. Slices and maps of the copy share no
// storage with c.
func (c ModelCard) Clone() ModelCard {
	c.Inputs = cloneFields(c.Inputs)
	c.Outputs = cloneFields(c.Outputs)
	c.TransparencyNotes = slices.Clone(c.TransparencyNotes)
	c.FairnessMetrics = maps.Clone(c.FairnessMetrics)
	c.FeatureImportance = maps.Clone(c.FeatureImportance)
	c.DataSources = slices.Clone(c.DataSources)
	return c
}

func cloneFields(fields []FieldSpec) []FieldSpec {
	if fields == nil {
		return nil
	}
	out := make([]FieldSpec, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Input returns the input FieldSpec with the given name.
func (c *ModelCard) Input(name string) (FieldSpec, bool) {
	return findField(c.Inputs, name)
}

// Output returns the output FieldSpec with the given name.
func (c *ModelCard) Output(name string) (FieldSpec, bool) {
	return findField(c.Outputs, name)
}

func findField(fields []FieldSpec, name string) (FieldSpec, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}
