package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

var _ contractx.ModelRegistry = (*Registry)(nil)

// Availability reports whether a model can currently serve requests.
type Availability interface {
	Online(ctx context.Context, model string) bool
}

type AlwaysOnline struct{}

func (AlwaysOnline) Online(context.Context, string) bool { return true }

// Registry holds chat clients in registration order, each with its
// capability tags.
type Registry struct {
	mu      sync.RWMutex
	entries []registryEntry
}

type registryEntry struct {
	client       contractx.ChatClient
	tags         map[string]struct{}
	availability Availability
}

func NewClientRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(client contractx.ChatClient, tags []string, availability Availability) error {
	if client == nil {
		return fmt.Errorf("%w: client is nil", contractx.ErrValidation)
	}
	if availability == nil {
		availability = AlwaysOnline{}
	}

	tagSet := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag = strings.ToLower(strings.TrimSpace(tag)); tag != "" {
			tagSet[tag] = struct{}{}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.client.Name() == client.Name() {
			return fmt.Errorf("%w: client=%s already registered", contractx.ErrValidation, client.Name())
		}
	}
	r.entries = append(r.entries, registryEntry{
		client:       client,
		tags:         tagSet,
		availability: availability,
	})
	return nil
}

// FirstOnlineClient returns the earliest registered client that carries every
// tag in filter and whose availability probe reports it online.
func (r *Registry) FirstOnlineClient(ctx context.Context, filter contractx.ClientFilter) (contractx.ChatClient, error) {
	r.mu.RLock()
	entries := append([]registryEntry(nil), r.entries...)
	r.mu.RUnlock()

	for _, e := range entries {
		if !e.matches(filter.Tags) {
			continue
		}
		if !e.availability.Online(ctx, e.client.Name()) {
			log.Debug().Str("client", e.client.Name()).Msg("llm: skipping offline client")
			continue
		}
		log.Debug().Str("client", e.client.Name()).Strs("tags", filter.Tags).Msg("llm: client selected")
		return e.client, nil
	}

	return nil, fmt.Errorf("%w: tags=%s", contractx.ErrNoOnlineClient, strings.Join(filter.Tags, ","))
}

func (e registryEntry) matches(tags []string) bool {
	for _, tag := range tags {
		if _, ok := e.tags[strings.ToLower(strings.TrimSpace(tag))]; !ok {
			return false
		}
	}
	return true
}
