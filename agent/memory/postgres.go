package memory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/tanpawarit/task-planner/agent/contract"
)

var _ contractx.MemoryService = (*PostgresStore)(nil)

type PostgresConfig struct {
	DSN         string `envconfig:"DSN" split_words:"true"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" split_words:"true" default:"true"`
}

type attentionItem struct {
	bun.BaseModel `bun:"table:attention_items,alias:ai"`

	ID        int64     `bun:"id,pk,autoincrement"`
	TypeKey   string    `bun:"type_key,notnull"`
	Content   string    `bun:"content,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// PostgresStore keeps attention items as rows ordered by id within a type key.
type PostgresStore struct {
	db *bun.DB
}

func OpenPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	store := NewPostgresStore(bun.NewDB(sqldb, pgdialect.New()))

	if cfg.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
	}
	return store, nil
}

func NewPostgresStore(db *bun.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().
		Model((*attentionItem)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: create attention_items: %v", contractx.ErrMemoryStore, err)
	}
	if _, err := s.db.NewCreateIndex().
		Model((*attentionItem)(nil)).
		Index("attention_items_type_key_id_idx").
		Column("type_key", "id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("%w: create attention_items index: %v", contractx.ErrMemoryStore, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) PushAttentionItem(ctx context.Context, typeKey string, item string) error {
	if err := validateTypeKey(typeKey); err != nil {
		return err
	}

	row := &attentionItem{
		TypeKey:   typeKey,
		Content:   item,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("%w: insert attention item: %v", contractx.ErrMemoryStore, err)
	}
	return nil
}

func (s *PostgresStore) SpliceAttentionItems(ctx context.Context, typeKey string, start int, keep int) error {
	if err := validateTypeKey(typeKey); err != nil {
		return err
	}
	if err := validateWindow(start, keep); err != nil {
		return err
	}

	if _, err := s.spliceQuery(typeKey, start, keep).Exec(ctx); err != nil {
		return fmt.Errorf("%w: splice attention items: %v", contractx.ErrMemoryStore, err)
	}
	return nil
}

func (s *PostgresStore) AttentionItems(ctx context.Context, typeKey string) ([]string, error) {
	if err := validateTypeKey(typeKey); err != nil {
		return nil, err
	}

	var rows []attentionItem
	if err := s.itemsQuery(typeKey, &rows).Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: select attention items: %v", contractx.ErrMemoryStore, err)
	}

	items := make([]string, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Content)
	}
	return items, nil
}

// spliceQuery deletes every row of typeKey outside the id window
// [start, start+keep). keep == 0 deletes all rows of the key.
func (s *PostgresStore) spliceQuery(typeKey string, start int, keep int) *bun.DeleteQuery {
	q := s.db.NewDelete().
		Model((*attentionItem)(nil)).
		Where("type_key = ?", typeKey)
	if keep == 0 {
		return q
	}

	kept := s.db.NewSelect().
		Model((*attentionItem)(nil)).
		Column("id").
		Where("type_key = ?", typeKey).
		OrderExpr("id ASC").
		Offset(start).
		Limit(keep)
	return q.Where("id NOT IN (?)", kept)
}

func (s *PostgresStore) itemsQuery(typeKey string, rows *[]attentionItem) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(rows).
		Column("id", "content").
		Where("type_key = ?", typeKey).
		OrderExpr("id ASC")
}
