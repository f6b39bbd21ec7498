package rules

import (
	"sort"

	"github.com/rendis/algoscope/pkg/schema"
)

// Registry maps model identifiers to rules. It is populated once by NewRegistry
// and is read-only afterwards, so lookups need no locking.
type Registry struct {
	rules map[string]Rule
}

// NewRegistry builds a registry from a fixed rule set. Returns error on a nil
// rule, an empty ID or a duplicate ID.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		if rule == nil {
			return nil, schema.NewError(schema.ErrCodeValidation, "rule is nil")
		}
		id := rule.ID()
		if id == "" {
			return nil, schema.NewError(schema.ErrCodeValidation, "rule id is empty")
		}
		if _, exists := r.rules[id]; exists {
			return nil, schema.NewErrorf(schema.ErrCodeConflict, "rule %q already registered", id)
		}
		r.rules[id] = rule
	}
	return r, nil
}

// Builtin returns the registry of the three shipped rules.
func Builtin() *Registry {
	reg, err := NewRegistry(SNAP{}, Housing{}, Unemployment{})
	if err != nil {
		panic(err)
	}
	return reg
}

// Resolve returns the rule registered under id.
func (r *Registry) Resolve(id string) (Rule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, schema.ModelNotFound(id)
	}
	return rule, nil
}

// Has checks if a rule is registered under id.
func (r *Registry) Has(id string) bool {
	_, ok := r.rules[id]
	return ok
}

// Count returns the number of registered rules.
func (r *Registry) Count() int {
	return len(r.rules)
}

// IDs returns the registered identifiers, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.rules))
	for id := range r.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
