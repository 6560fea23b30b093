package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/promoraffle/promoraffle/internal/model"
)

// ResolveProduct finds the catalog entry for an inventory code. The explicit
// product_ref wins; otherwise the recorded model string is tried as a key and
// then against display names. Inactive products never resolve. A nil product
// means the default multiplier applies.
func ResolveProduct(ctx context.Context, db *sql.DB, code *model.InventoryCode) (*model.Product, error) {
	return resolveProduct(ctx, db, code)
}

func resolveProduct(ctx context.Context, q querier, code *model.InventoryCode) (*model.Product, error) {
	if code.ProductRef != "" {
		p, err := getProduct(ctx, q, code.ProductRef)
		if err != nil {
			return nil, err
		}
		if p != nil && p.Active {
			return p, nil
		}
	}

	m := strings.TrimSpace(code.Model)
	if m == "" || m == model.UnknownModel {
		return nil, nil
	}

	products, err := listProducts(ctx, q, true)
	if err != nil {
		return nil, err
	}

	slog.Warn("product fallback", "code", code.Code, "model", m, "product_ref", code.ProductRef)

	for i := range products {
		if strings.EqualFold(products[i].Key, m) {
			return &products[i], nil
		}
	}
	for i := range products {
		if strings.EqualFold(products[i].DisplayName, m) {
			return &products[i], nil
		}
	}

	slog.Warn("product fallback found no match", "code", code.Code, "model", m)
	return nil, nil
}

// TicketMultiplier returns the product multiplier, or 1 without a product.
func TicketMultiplier(p *model.Product) int {
	if p == nil || p.TicketMultiplier < 1 {
		return 1
	}
	return p.TicketMultiplier
}

// ProductName returns the display name, falling back to the raw model string.
func ProductName(p *model.Product, code *model.InventoryCode) string {
	if p != nil {
		return p.DisplayName
	}
	return code.Model
}
