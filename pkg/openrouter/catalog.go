package openrouter

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/pagination"
	"github.com/rs/zerolog/log"
)

const defaultCatalogTTL = 5 * time.Minute

// ModelLister is the subset of the openai-go models service used for probing.
type ModelLister interface {
	List(ctx context.Context, opts ...option.RequestOption) (*pagination.Page[openaisdk.Model], error)
}

// ModelCatalog reports a model as online when the provider currently lists it.
// The listed ids are cached for ttl.
type ModelCatalog struct {
	lister ModelLister
	ttl    time.Duration
	now    func() time.Time

	mu        sync.Mutex
	models    map[string]struct{}
	fetchedAt time.Time
}

func NewModelCatalog(client *openaisdk.Client, ttl time.Duration) *ModelCatalog {
	return newModelCatalog(&client.Models, ttl)
}

func newModelCatalog(lister ModelLister, ttl time.Duration) *ModelCatalog {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &ModelCatalog{
		lister: lister,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *ModelCatalog) Online(ctx context.Context, model string) bool {
	models, err := c.snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Str("model", model).Msg("openrouter: model availability probe failed")
		return false
	}
	_, ok := models[strings.TrimSpace(model)]
	return ok
}

func (c *ModelCatalog) snapshot(ctx context.Context) (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.models, nil
	}

	page, err := c.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	models := make(map[string]struct{}, len(page.Data))
	for _, m := range page.Data {
		models[m.ID] = struct{}{}
	}
	c.models = models
	c.fetchedAt = c.now()

	log.Debug().Int("models", len(models)).Msg("openrouter: model catalog refreshed")
	return models, nil
}
