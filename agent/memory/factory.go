package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

const (
	BackendInProcess = "memory"
	BackendUpstash   = "upstash"
	BackendPostgres  = "postgres"
)

type Config struct {
	Backend  string             `envconfig:"BACKEND" split_words:"true" default:"memory"`
	Upstash  UpstashRedisConfig `envconfig:"UPSTASH"`
	Postgres PostgresConfig     `envconfig:"POSTGRES"`
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case BackendInProcess:
		return nil
	case BackendUpstash:
		if strings.TrimSpace(c.Upstash.URL) == "" || strings.TrimSpace(c.Upstash.Token) == "" {
			return fmt.Errorf("%w: upstash backend requires url and token", contractx.ErrValidation)
		}
		return nil
	case BackendPostgres:
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			return fmt.Errorf("%w: postgres backend requires dsn", contractx.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported memory backend=%q", contractx.ErrValidation, c.Backend)
	}
}

// NewService builds the configured MemoryService. The returned close function
// releases backend resources and is never nil.
func NewService(ctx context.Context, cfg Config) (contractx.MemoryService, func() error, error) {
	noopClose := func() error { return nil }
	if err := cfg.Validate(); err != nil {
		return nil, noopClose, err
	}

	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))
	log.Debug().Str("backend", backend).Msg("memory: opening attention store")

	switch backend {
	case BackendUpstash:
		store, err := NewUpstashRedisStore(cfg.Upstash)
		if err != nil {
			return nil, noopClose, fmt.Errorf("%w: %v", contractx.ErrMemoryStore, err)
		}
		return store, noopClose, nil
	case BackendPostgres:
		store, err := OpenPostgresStore(ctx, cfg.Postgres)
		if err != nil {
			return nil, noopClose, err
		}
		return store, store.Close, nil
	default:
		return NewInProcessStore(), noopClose, nil
	}
}
