package main

import (
	"context"
	"log/slog"

	"github.com/rendis/algoscope/internal/catalog"
	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/internal/rules"
	"github.com/rendis/algoscope/internal/store"
	"github.com/rendis/algoscope/pkg/client"
)

// buildEngine loads the configured catalog, checks it against the built-in
// rules and returns a ready engine. Check warnings are logged; check errors fail.
func buildEngine(ctx context.Context, c Config, log *slog.Logger) (*engine.Engine, error) {
	cat, source, err := loadCatalog(ctx, c)
	if err != nil {
		return nil, err
	}

	reg := rules.Builtin()
	result := catalog.Verify(cat, reg)
	for _, w := range result.Warnings {
		log.WarnContext(ctx, "catalog check",
			slog.String("path", w.Path),
			slog.String("code", w.Code),
			slog.String("message", w.Message),
		)
	}
	if err := result.ToError(); err != nil {
		return nil, err
	}

	log.InfoContext(ctx, "catalog loaded",
		slog.String("source", source),
		slog.Int("models", cat.Len()),
		slog.Int("rules", reg.Count()),
		slog.Bool("strict", c.Strict),
	)
	return engine.New(cat, reg, engine.Options{Strict: c.Strict, Logger: log})
}

// loadCatalog picks the catalog source: database, then file, then the
// embedded cards.
func loadCatalog(ctx context.Context, c Config) (*catalog.Catalog, string, error) {
	switch {
	case c.CatalogDB != "":
		st, err := store.NewLibSQLStore(c.CatalogDB)
		if err != nil {
			return nil, "", err
		}
		defer st.Close()

		cards, err := st.LoadCards(ctx)
		if err != nil {
			return nil, "", err
		}
		cat, err := catalog.FromCards(cards)
		return cat, "libsql:" + c.CatalogDB, err
	case c.CatalogPath != "":
		cat, err := catalog.LoadFile(c.CatalogPath)
		return cat, c.CatalogPath, err
	default:
		cat, err := catalog.Builtin()
		return cat, "builtin", err
	}
}

// newService returns a remote client when an API URL is configured, otherwise
// an embedded engine.
func newService(ctx context.Context) (client.Service, error) {
	return client.Discover(cfg.APIURL, func() (*engine.Engine, error) {
		return buildEngine(ctx, cfg, logger)
	})
}
