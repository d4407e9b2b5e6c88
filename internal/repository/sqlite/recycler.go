package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/solarcycle/internal/model"
)

var recyclerColumns = []string{
	"id", "name", "contact_number", "email",
	"location", "service_type", "verified", "created_at",
}

// FindAll returns the whole directory, verified or not, in insertion order.
// Filtering happens in the directory package.
func (db *DB) FindAll(ctx context.Context) ([]model.Recycler, error) {
	recyclers := []model.Recycler{}
	q := sq.Select(recyclerColumns...).From("recyclers").OrderBy("rowid")

	if err := db.selectAll(ctx, &recyclers, q); err != nil {
		return nil, fmt.Errorf("sqlite: listing recyclers: %w", err)
	}
	return recyclers, nil
}

// SeedIfEmpty writes seed in one transaction when the recyclers table has no
// rows. Running it again is a no-op.
func (db *DB) SeedIfEmpty(ctx context.Context, seed []model.Recycler) (int, error) {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM recyclers"); err != nil {
		return 0, fmt.Errorf("sqlite: counting recyclers: %w", err)
	}
	if count > 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	for _, r := range seed {
		query, args, err := sq.Insert("recyclers").
			Columns(recyclerColumns...).
			Values(xid.New().String(), r.Name, r.ContactNumber, r.Email,
				r.Location, string(r.ServiceType), r.Verified, now).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("sqlite: building recycler insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("sqlite: inserting recycler %q: %w", r.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: committing seed: %w", err)
	}
	return len(seed), nil
}
