package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/promoraffle/promoraffle/internal/model"
)

const inventoryColumns = `code, model, product_ref, consumed, consumed_by_identity, consumed_at, import_batch_id, imported_at`

// ImportInventoryBatch upserts one batch of already-normalized rows in a single
// transaction. The consumed flag and its audit fields are never written here,
// so re-importing a claimed code cannot release it.
func ImportInventoryBatch(ctx context.Context, db *sql.DB, batchID string, rows []model.ImportRow) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO inventory_codes (code, model, product_ref, import_batch_id)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (code) DO UPDATE SET
		     model = excluded.model,
		     product_ref = COALESCE(excluded.product_ref, inventory_codes.product_ref),
		     import_batch_id = excluded.import_batch_id,
		     imported_at = CURRENT_TIMESTAMP`,
	)
	if err != nil {
		return 0, fmt.Errorf("preparing import: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Code, r.Model, nullString(r.ProductRef), batchID); err != nil {
			return 0, fmt.Errorf("importing code %s: %w", r.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import batch: %w", err)
	}
	return len(rows), nil
}

// GetInventoryCode returns the inventory entry for a normalized serial.
func GetInventoryCode(ctx context.Context, db *sql.DB, code string) (*model.InventoryCode, error) {
	return getInventoryCode(ctx, db, code)
}

func getInventoryCode(ctx context.Context, q querier, code string) (*model.InventoryCode, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+inventoryColumns+` FROM inventory_codes WHERE code = ?`, code,
	)
	c, err := scanInventoryCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting inventory code: %w", err)
	}
	return c, nil
}

// ListInventory returns inventory codes, optionally filtered by consumption.
func ListInventory(ctx context.Context, db *sql.DB, consumed *bool, limit int) ([]model.InventoryCode, error) {
	query := `SELECT ` + inventoryColumns + ` FROM inventory_codes WHERE 1=1`
	var args []any

	if consumed != nil {
		query += ` AND consumed = ?`
		args = append(args, *consumed)
	}
	query += ` ORDER BY code`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing inventory: %w", err)
	}
	defer rows.Close()

	var codes []model.InventoryCode
	for rows.Next() {
		c, err := scanInventoryCode(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning inventory code: %w", err)
		}
		codes = append(codes, *c)
	}
	return codes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInventoryCode(s scanner) (*model.InventoryCode, error) {
	c := &model.InventoryCode{}
	var productRef, consumedBy sql.NullString
	err := s.Scan(&c.Code, &c.Model, &productRef, &c.Consumed, &consumedBy, &c.ConsumedAt, &c.ImportBatchID, &c.ImportedAt)
	if err != nil {
		return nil, err
	}
	c.ProductRef = productRef.String
	c.ConsumedByIdentity = consumedBy.String
	return c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
