// Package store persists the model card catalog in a libSQL database. The
// database is written offline by the import command and read once at start-up.
package store

import (
	"context"

	"github.com/rendis/algoscope/pkg/schema"
)

// Store defines the catalog persistence contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// ImportCards replaces the stored catalog with cards, in order.
	ImportCards(ctx context.Context, source string, cards []schema.ModelCard) error
	// LoadCards returns the stored catalog in order.
	LoadCards(ctx context.Context) ([]schema.ModelCard, error)
	GetCard(ctx context.Context, id string) (*schema.ModelCard, error)
	LastImport(ctx context.Context) (*Import, error)

	Migrate(ctx context.Context) error
	Close() error
}
