package raffle

import (
	"context"
	"errors"
	"testing"

	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/store"
)

func TestImportInBatches(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	svc.ImportBatchSize = 2
	svc.ImportParallelism = 2

	res, err := svc.ImportInventory(ctx, []model.ImportRow{
		{Code: "a1", Model: "X"},
		{Code: "A2"},
		{Code: "  "},
		{Code: "A3", Model: "Q7800G"},
		{Code: "A4", ProductRef: " P1 "},
		{Code: "a1", Model: "Z"},
		{Code: "A5"},
	})
	if err != nil {
		t.Fatalf("ImportInventory: %v", err)
	}
	if res.Imported != 5 || res.Skipped != 2 || res.BatchID == "" {
		t.Errorf("unexpected result: %+v", res)
	}

	a1, _ := store.GetInventoryCode(ctx, svc.DB, "A1")
	if a1 == nil || a1.Model != "Z" || a1.ImportBatchID != res.BatchID {
		t.Errorf("expected last A1 row to win, got %+v", a1)
	}
	a2, _ := store.GetInventoryCode(ctx, svc.DB, "A2")
	if a2.Model != model.UnknownModel {
		t.Errorf("expected default model, got %q", a2.Model)
	}
	a4, _ := store.GetInventoryCode(ctx, svc.DB, "A4")
	if a4.ProductRef != "P1" {
		t.Errorf("expected trimmed product ref, got %q", a4.ProductRef)
	}
}

func TestImportEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.ImportInventory(context.Background(), nil); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestReimportNeverReleasesConsumedCode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportInventory(ctx, []model.ImportRow{{Code: "A1", Model: "X"}}); err != nil {
		t.Fatalf("ImportInventory: %v", err)
	}
	if _, err := svc.Register(ctx, registration("A1", "X")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.ImportInventory(ctx, []model.ImportRow{{Code: "A1", Model: "Y"}}); err != nil {
		t.Fatalf("ImportInventory: %v", err)
	}

	code, _ := store.GetInventoryCode(ctx, svc.DB, "A1")
	if !code.Consumed {
		t.Error("re-import released a consumed code")
	}
	if code.Model != "Y" {
		t.Errorf("expected model Y, got %q", code.Model)
	}

	check, _ := svc.ValidateSerial(ctx, "A1")
	if check.Status != model.SerialUsed {
		t.Errorf("expected USED, got %s", check.Status)
	}
}
