package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/rendis/algoscope/pkg/schema"
)

// Query narrows the catalog. Every non-empty criterion must hold.
type Query struct {
	// Text matches name, description, agency or service, case-insensitively.
	Text string
	// Agency and Service are case-insensitive substrings.
	Agency  string
	Service string
	// Where is a boolean expression over the card, in Lang (cel, expr or jq).
	Where string
	Lang  string
}

// Filter returns the cards matching q in catalog order. The result is never nil.
// An empty query returns the whole catalog.
func (c *Catalog) Filter(ctx context.Context, q Query) ([]schema.ModelCard, error) {
	text := strings.ToLower(q.Text)
	agency := strings.ToLower(q.Agency)
	service := strings.ToLower(q.Service)

	out := make([]schema.ModelCard, 0, len(c.cards))
	for i := range c.cards {
		card := &c.cards[i]

		if text != "" && !matchesText(card, text) {
			continue
		}
		if agency != "" && !strings.Contains(strings.ToLower(card.Agency), agency) {
			continue
		}
		if service != "" && !strings.Contains(strings.ToLower(card.Service), service) {
			continue
		}
		if q.Where != "" {
			ok, err := c.matcher.Match(ctx, q.Lang, q.Where, c.docs[i])
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, card.Clone())
	}
	return out, nil
}

func matchesText(card *schema.ModelCard, text string) bool {
	for _, s := range []string{card.Name, card.Description, card.Agency, card.Service} {
		if strings.Contains(strings.ToLower(s), text) {
			return true
		}
	}
	return false
}

// Agencies returns the distinct agencies, sorted.
func (c *Catalog) Agencies() []string {
	return c.facet(func(card *schema.ModelCard) string { return card.Agency })
}

// Services returns the distinct services, sorted.
func (c *Catalog) Services() []string {
	return c.facet(func(card *schema.ModelCard) string { return card.Service })
}

func (c *Catalog) facet(field func(*schema.ModelCard) string) []string {
	seen := make(map[string]struct{}, len(c.cards))
	out := make([]string, 0, len(c.cards))
	for i := range c.cards {
		v := field(&c.cards[i])
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
