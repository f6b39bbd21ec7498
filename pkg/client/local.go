package client

import (
	"context"

	"github.com/rendis/algoscope/internal/catalog"
	"github.com/rendis/algoscope/internal/engine"
	"github.com/rendis/algoscope/pkg/schema"
)

// Local serves the same calls as Client from an in-process engine.
type Local struct {
	Engine *engine.Engine
}

func (l *Local) ListModels(ctx context.Context, opts ListOptions) ([]schema.ModelCard, error) {
	return l.Engine.Catalog().Filter(ctx, catalog.Query{
		Text:    opts.Text,
		Agency:  opts.Agency,
		Service: opts.Service,
		Where:   opts.Where,
		Lang:    opts.Lang,
	})
}

func (l *Local) GetModel(_ context.Context, id string) (schema.ModelCard, error) {
	card, ok := l.Engine.Catalog().Get(id)
	if !ok {
		return schema.ModelCard{}, schema.ModelNotFound(id)
	}
	return card, nil
}

func (l *Local) Predict(ctx context.Context, id string, inputs schema.InputBag) (schema.OutputBag, error) {
	return l.Engine.Predict(ctx, id, inputs)
}

func (l *Local) Sweep(ctx context.Context, id string, inputs schema.InputBag, field string, steps int) ([]engine.SweepPoint, error) {
	return l.Engine.Sweep(ctx, id, inputs, field, steps)
}

func (l *Local) Agencies(context.Context) ([]string, error) {
	return l.Engine.Catalog().Agencies(), nil
}

func (l *Local) Services(context.Context) ([]string, error) {
	return l.Engine.Catalog().Services(), nil
}

// Discover returns a remote Client when apiURL (or $ALGOSCOPE_API_URL) is set,
// otherwise an embedded Local built by newEngine.
func Discover(apiURL string, newEngine func() (*engine.Engine, error), opts ...Option) (Service, error) {
	if apiURL == "" {
		apiURL = envAPIURL()
	}
	if apiURL != "" {
		return New(apiURL, opts...), nil
	}

	eng, err := newEngine()
	if err != nil {
		return nil, err
	}
	return &Local{Engine: eng}, nil
}
