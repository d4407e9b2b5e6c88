package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/solarcycle/internal/model"
)

var panelColumns = []string{
	"id", "owner_id", "installation_date", "brand",
	"capacity_kw", "location", "serial_number", "created_at",
}

// FindByOwner returns the owner's panels, oldest first. An owner without
// panels gets an empty slice, not an error.
func (db *DB) FindByOwner(ctx context.Context, ownerID string) ([]model.Panel, error) {
	panels := []model.Panel{}
	q := sq.Select(panelColumns...).
		From("panels").
		Where(sq.Eq{"owner_id": ownerID}).
		OrderBy("rowid")

	if err := db.selectAll(ctx, &panels, q); err != nil {
		return nil, fmt.Errorf("sqlite: listing panels for owner %s: %w", ownerID, err)
	}
	for i := range panels {
		panels[i].InstallationDate = panels[i].InstallationDate.UTC()
		panels[i].CreatedAt = panels[i].CreatedAt.UTC()
	}
	return panels, nil
}

// Insert stores a new panel. ID and CreatedAt are generated here and written
// back into p.
func (db *DB) Insert(ctx context.Context, p *model.Panel) error {
	p.ID = xid.New().String()
	p.CreatedAt = time.Now().UTC()

	q := sq.Insert("panels").
		Columns(panelColumns...).
		Values(p.ID, p.OwnerID, p.InstallationDate.UTC(), p.Brand,
			p.CapacityKW, p.Location, p.SerialNumber, p.CreatedAt)

	if _, err := db.exec(ctx, q); err != nil {
		return fmt.Errorf("sqlite: inserting panel for owner %s: %w", p.OwnerID, err)
	}
	return nil
}

// DeleteByIDAndOwner removes a panel only if it belongs to ownerID. Deleting
// a panel that does not exist, or that belongs to someone else, affects no
// rows and is not an error.
func (db *DB) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) error {
	q := sq.Delete("panels").Where(sq.Eq{"id": id, "owner_id": ownerID})

	res, err := db.exec(ctx, q)
	if err != nil {
		return fmt.Errorf("sqlite: deleting panel %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		db.log.Debug("delete matched no panel",
			slog.String("panel_id", id),
			slog.String("owner_id", ownerID),
		)
	}
	return nil
}
