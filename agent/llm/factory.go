package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
	openrouterx "github.com/tanpawarit/task-planner/pkg/openrouter"
)

var _ Availability = (*openrouterx.ModelCatalog)(nil)

// NewRegistry builds one structured client per configured model. All clients
// share a single OpenRouter model catalog for availability.
func NewRegistry(ctx context.Context, cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	specs, err := cfg.ModelSpecs()
	if err != nil {
		return nil, err
	}

	var availability Availability = AlwaysOnline{}
	if cfg.ProbeAvailability {
		client, err := openrouterx.NewClient(cfg.OpenRouterFor(""))
		if err != nil {
			return nil, fmt.Errorf("%w: create openrouter client: %v", contractx.ErrModelInvoke, err)
		}
		availability = openrouterx.NewModelCatalog(client, cfg.AvailabilityTTL)
	}

	registry := NewClientRegistry()
	for _, spec := range specs {
		modelCfg := cfg.OpenRouterFor(spec.Model)
		chatModel, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create model %s: %v", contractx.ErrModelInvoke, spec.Model, err)
		}

		client, err := NewStructuredClient(ctx, spec.Model, chatModel)
		if err != nil {
			return nil, err
		}
		if err := registry.Register(client, spec.Tags, availability); err != nil {
			return nil, err
		}
		log.Debug().Str("model", spec.Model).Strs("tags", spec.Tags).Msg("llm: client registered")
	}

	return registry, nil
}
