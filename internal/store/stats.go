package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/promoraffle/promoraffle/internal/model"
)

// GetStats counts rows across the campaign tables in one read.
func GetStats(ctx context.Context, db *sql.DB) (*model.Stats, error) {
	s := &model.Stats{}
	err := db.QueryRowContext(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM participants),
		     (SELECT COUNT(*) FROM tickets),
		     (SELECT COUNT(*) FROM inventory_codes),
		     (SELECT COUNT(*) FROM inventory_codes WHERE consumed = 1),
		     (SELECT COUNT(*) FROM winners)`,
	).Scan(&s.Participants, &s.Tickets, &s.InventoryCodes, &s.ConsumedCodes, &s.Winners)
	if err != nil {
		return nil, fmt.Errorf("getting stats: %w", err)
	}
	return s, nil
}
