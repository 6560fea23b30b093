package store

import (
	"context"
	"testing"

	"github.com/promoraffle/promoraffle/internal/db"
	"github.com/promoraffle/promoraffle/internal/model"
)

func TestImportAndGetInventoryCode(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	n, err := ImportInventoryBatch(ctx, database, "b1", []model.ImportRow{
		{Code: "A1", Model: "ZX-500"},
		{Code: "A2", Model: "Unknown", ProductRef: "SOLO"},
	})
	if err != nil {
		t.Fatalf("ImportInventoryBatch: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported, got %d", n)
	}

	code, err := GetInventoryCode(ctx, database, "A2")
	if err != nil {
		t.Fatalf("GetInventoryCode: %v", err)
	}
	if code == nil {
		t.Fatal("expected code, got nil")
	}
	if code.ProductRef != "SOLO" || code.Consumed || code.ImportBatchID != "b1" {
		t.Errorf("unexpected code: %+v", code)
	}

	missing, err := GetInventoryCode(ctx, database, "NOPE")
	if err != nil {
		t.Fatalf("GetInventoryCode: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing code")
	}
}

func TestReimportKeepsConsumedState(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	testCatalog(t, database)
	testImport(t, database, model.ImportRow{Code: "A1", Model: "ZX-500"})

	_, err := Register(ctx, database, testRegistration("A1", "ZX-500"), RegisterOptions{NewTicketID: sequentialIDs()})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Re-importing a claimed code refreshes the model but never releases it.
	_, err = ImportInventoryBatch(ctx, database, "b2", []model.ImportRow{{Code: "A1", Model: "SOLO"}})
	if err != nil {
		t.Fatalf("ImportInventoryBatch: %v", err)
	}

	code, _ := GetInventoryCode(ctx, database, "A1")
	if !code.Consumed {
		t.Error("expected code to stay consumed")
	}
	if code.ConsumedByIdentity != "1234567" {
		t.Errorf("expected consumer 1234567, got %q", code.ConsumedByIdentity)
	}
	if code.ConsumedAt == nil {
		t.Error("expected consumed_at to be kept")
	}
	if code.Model != "SOLO" || code.ImportBatchID != "b2" {
		t.Errorf("expected refreshed model and batch, got %+v", code)
	}
}

func TestReimportKeepsProductRefWhenOmitted(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	testImport(t, database, model.ImportRow{Code: "A1", Model: "X", ProductRef: "SOLO"})
	testImport(t, database, model.ImportRow{Code: "A1", Model: "Y"})

	code, _ := GetInventoryCode(ctx, database, "A1")
	if code.ProductRef != "SOLO" {
		t.Errorf("expected product_ref SOLO, got %q", code.ProductRef)
	}
}

func TestListInventoryFilter(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	testImport(t, database,
		model.ImportRow{Code: "A1", Model: "Unknown"},
		model.ImportRow{Code: "A2", Model: "Unknown"},
		model.ImportRow{Code: "A3", Model: "Unknown"},
	)

	if _, err := Register(ctx, database, testRegistration("A2", "Whatever"), RegisterOptions{NewTicketID: sequentialIDs()}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	all, err := ListInventory(ctx, database, nil, 0)
	if err != nil {
		t.Fatalf("ListInventory: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 codes, got %d", len(all))
	}

	consumed := true
	used, _ := ListInventory(ctx, database, &consumed, 0)
	if len(used) != 1 || used[0].Code != "A2" {
		t.Errorf("expected only A2 consumed, got %v", used)
	}

	consumed = false
	free, _ := ListInventory(ctx, database, &consumed, 1)
	if len(free) != 1 || free[0].Code != "A1" {
		t.Errorf("expected first free code A1, got %v", free)
	}
}
