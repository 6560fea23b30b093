package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/promoraffle/promoraffle/internal/model"
)

const productColumns = `key, display_name, description, ticket_multiplier, active, created_at, updated_at`

// UpsertProduct creates or replaces a catalog entry keyed by product key.
func UpsertProduct(ctx context.Context, db *sql.DB, p model.Product) (*model.Product, error) {
	if err := upsertProduct(ctx, db, p); err != nil {
		return nil, err
	}
	return GetProduct(ctx, db, p.Key)
}

func upsertProduct(ctx context.Context, q querier, p model.Product) error {
	if p.Key == "" || p.DisplayName == "" {
		return fmt.Errorf("%w: product key and display name required", model.ErrValidation)
	}
	if p.TicketMultiplier < 1 {
		return fmt.Errorf("%w: ticket multiplier must be at least 1", model.ErrValidation)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO products (key, display_name, description, ticket_multiplier, active)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
		     display_name = excluded.display_name,
		     description = excluded.description,
		     ticket_multiplier = excluded.ticket_multiplier,
		     active = excluded.active,
		     updated_at = CURRENT_TIMESTAMP`,
		p.Key, p.DisplayName, p.Description, p.TicketMultiplier, p.Active,
	)
	if err != nil {
		return fmt.Errorf("upserting product %s: %w", p.Key, err)
	}
	return nil
}

// SeedProducts upserts a whole catalog in one transaction.
func SeedProducts(ctx context.Context, db *sql.DB, products []model.Product) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range products {
		if err := upsertProduct(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing product seed: %w", err)
	}
	return nil
}

// GetProduct returns a product by key.
func GetProduct(ctx context.Context, db *sql.DB, key string) (*model.Product, error) {
	return getProduct(ctx, db, key)
}

func getProduct(ctx context.Context, q querier, key string) (*model.Product, error) {
	p := &model.Product{}
	err := q.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE key = ?`, key,
	).Scan(&p.Key, &p.DisplayName, &p.Description, &p.TicketMultiplier, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// ListProducts returns the catalog ordered by key.
func ListProducts(ctx context.Context, db *sql.DB, activeOnly bool) ([]model.Product, error) {
	return listProducts(ctx, db, activeOnly)
}

func listProducts(ctx context.Context, q querier, activeOnly bool) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY key`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.Key, &p.DisplayName, &p.Description, &p.TicketMultiplier, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// DeleteProduct removes a catalog entry. Codes linked to it fall back to the
// default multiplier.
func DeleteProduct(ctx context.Context, db *sql.DB, key string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM products WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return nil
}
