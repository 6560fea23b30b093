package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/promoraffle/promoraffle/internal/model"
)

// sequentialIDs returns a ticket id generator yielding T-000001, T-000002, ...
func sequentialIDs() func() (string, error) {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("T-%06d", n.Add(1)), nil
	}
}

func testCatalog(t *testing.T, database *sql.DB) {
	t.Helper()
	err := SeedProducts(context.Background(), database, []model.Product{
		{Key: "ZX-500", DisplayName: "Zenith 500", TicketMultiplier: 3, Active: true},
		{Key: "SOLO", DisplayName: "Solo Basic", TicketMultiplier: 1, Active: true},
		{Key: "OLD-9", DisplayName: "Old Nine", TicketMultiplier: 5, Active: false},
	})
	if err != nil {
		t.Fatalf("SeedProducts: %v", err)
	}
}

func testImport(t *testing.T, database *sql.DB, rows ...model.ImportRow) {
	t.Helper()
	if _, err := ImportInventoryBatch(context.Background(), database, "batch-1", rows); err != nil {
		t.Fatalf("ImportInventoryBatch: %v", err)
	}
}

func testRegistration(serial, productModel string) model.Registration {
	return model.Registration{
		FullName:     "Ana Lopez",
		NationalID:   "1234567",
		City:         "Asuncion",
		Email:        "ana@example.com",
		Phone:        "0981000000",
		ProductModel: productModel,
		Serial:       serial,
		EvidencePath: "evidence/abc",
	}
}
