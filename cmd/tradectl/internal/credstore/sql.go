package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tradedesk/tradedesk/cmd/tradectl/internal/bunx"
	"github.com/tradedesk/tradedesk/pkg/sdk"
	"github.com/uptrace/bun"
)

// DurableRecord is one persisted key/value pair.
type DurableRecord struct {
	bun.BaseModel `bun:"table:durable_records,alias:dr"`

	Key       string    `bun:"record_key,pk"`
	Value     string    `bun:"record_value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// SQLStore implements sdk.CredentialStore on a bun database (sqlite or postgres).
type SQLStore struct {
	db     *bun.DB
	ownsDB bool
}

var _ sdk.CredentialStore = (*SQLStore)(nil)

// OpenSQLStore opens dsn with bunx.NewDB and prepares the table.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := bunx.NewDB(ctx, dsn)
	if err != nil {
		return nil, err
	}
	store, err := NewSQLStore(ctx, db)
	if err != nil {
		_ = bunx.Close(db)
		return nil, err
	}
	store.ownsDB = true
	return store, nil
}

// NewSQLStore uses an already open database. The caller keeps ownership.
func NewSQLStore(ctx context.Context, db *bun.DB) (*SQLStore, error) {
	_, err := db.NewCreateTable().
		Model((*DurableRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create durable_records table: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Load(ctx context.Context, key string) (string, bool, error) {
	var record DurableRecord
	err := s.db.NewSelect().
		Model(&record).
		Where("record_key = ?", key).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load record %q: %w", key, err)
	}
	return record.Value, true, nil
}

func (s *SQLStore) Save(ctx context.Context, key, value string) error {
	record := &DurableRecord{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (record_key) DO UPDATE").
		Set("record_value = EXCLUDED.record_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save record %q: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.NewDelete().
		Model((*DurableRecord)(nil)).
		Where("record_key = ?", key).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete record %q: %w", key, err)
	}
	return nil
}

// Close releases the database when the store opened it.
func (s *SQLStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return bunx.Close(s.db)
}
