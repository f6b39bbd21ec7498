// Package catalog serves the read-only model card catalog: lookup, search,
// expression filters, facets, and the consistency check against the rule registry.
package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/rendis/algoscope/internal/expressions"
	"github.com/rendis/algoscope/pkg/schema"
)

// Catalog is an immutable, ordered set of model cards. It is built once at
// start-up and shared by reference; no method mutates it.
type Catalog struct {
	cards   []schema.ModelCard
	index   map[string]int
	docs    []map[string]any
	matcher *expressions.Matcher
}

// New builds a catalog from cards, preserving their order. Empty or duplicate
// ids are rejected.
func New(cards []schema.ModelCard) (*Catalog, error) {
	matcher, err := expressions.NewMatcher()
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeCatalog, "failed to create expression matcher").WithCause(err)
	}

	c := &Catalog{
		cards:   make([]schema.ModelCard, len(cards)),
		index:   make(map[string]int, len(cards)),
		docs:    make([]map[string]any, len(cards)),
		matcher: matcher,
	}
	for i := range cards {
		c.cards[i] = cards[i].Clone()
	}

	for i := range c.cards {
		id := c.cards[i].ID
		if id == "" {
			return nil, schema.NewErrorf(schema.ErrCodeCatalog, "card at position %d has an empty id", i)
		}
		if prev, exists := c.index[id]; exists {
			return nil, schema.NewErrorf(schema.ErrCodeCatalog,
				"duplicate card id %q at positions %d and %d", id, prev, i).WithModel(id)
		}
		c.index[id] = i

		doc, err := toDocument(&c.cards[i])
		if err != nil {
			return nil, schema.NewErrorf(schema.ErrCodeCatalog, "encode card %q", id).WithModel(id).WithCause(err)
		}
		c.docs[i] = doc
	}

	return c, nil
}

// List returns a copy of every card in catalog order. The result is never nil.
func (c *Catalog) List() []schema.ModelCard {
	out := make([]schema.ModelCard, len(c.cards))
	for i := range c.cards {
		out[i] = c.cards[i].Clone()
	}
	return out
}

// Get returns a copy of the card with the given id.
func (c *Catalog) Get(id string) (schema.ModelCard, bool) {
	i, ok := c.index[id]
	if !ok {
		return schema.ModelCard{}, false
	}
	return c.cards[i].Clone(), true
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	return len(c.cards)
}

// toDocument renders a card as the JSON-shaped map filter expressions see.
func toDocument(card *schema.ModelCard) (map[string]any, error) {
	b, err := json.Marshal(card)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode card document: %w", err)
	}
	return doc, nil
}
