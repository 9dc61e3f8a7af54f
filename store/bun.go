package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type sessionRow struct {
	bun.BaseModel `bun:"table:auth_sessions,alias:s"`

	Key       string    `bun:"key,pk"`
	Value     []byte    `bun:"value,notnull"`
	ExpiresAt time.Time `bun:"expires_at,nullzero"`
}

// Bun is a sqlite-backed expiring key-value store, for hosts that want the
// session to survive process restarts.
type Bun struct {
	db  *bun.DB
	now func() time.Time
}

// NewBun opens (or creates) the database at dsn. Use ":memory:" for an
// ephemeral store.
func NewBun(ctx context.Context, dsn string) (*Bun, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := db.NewCreateTable().
		Model((*sessionRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Bun{db: db, now: time.Now}, nil
}

// WithClock injects a custom clock (useful for tests).
func (b *Bun) WithClock(clock func() time.Time) *Bun {
	if clock != nil {
		b.now = clock
	}
	return b
}

func (b *Bun) Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	row := sessionRow{Key: key, Value: value, ExpiresAt: expiresAt}
	_, err := b.db.NewInsert().
		Model(&row).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	return err
}

func (b *Bun) Get(ctx context.Context, key string) ([]byte, bool, error) {
	row := new(sessionRow)
	err := b.db.NewSelect().
		Model(row).
		Where("key = ?", key).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !row.ExpiresAt.IsZero() && row.ExpiresAt.Before(b.now()) {
		_ = b.Remove(ctx, key)
		return nil, false, nil
	}
	return row.Value, true, nil
}

func (b *Bun) Remove(ctx context.Context, key string) error {
	_, err := b.db.NewDelete().
		Model((*sessionRow)(nil)).
		Where("key = ?", key).
		Exec(ctx)
	return err
}

func (b *Bun) Close() error {
	return b.db.Close()
}
