package raffle

import (
	"context"
	"errors"
	"testing"

	"github.com/promoraffle/promoraffle/internal/model"
	"github.com/promoraffle/promoraffle/internal/store"
)

func TestDrawEmptyPool(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.DrawWinner(context.Background(), DrawRequest{DrawnBy: "admin"})
	if !errors.Is(err, model.ErrNoTickets) {
		t.Errorf("expected NO_TICKETS, got %v", err)
	}
}

func TestDrawRequiresOperator(t *testing.T) {
	svc, _ := newTestService(t)
	svc.Register(context.Background(), registration("", "Any"))

	_, err := svc.DrawWinner(context.Background(), DrawRequest{})
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestDrawIsNonDestructiveAndRepeatable(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	svc.ImportInventory(ctx, []model.ImportRow{{Code: "D1", ProductRef: "P1"}})

	if _, err := svc.Register(ctx, registration("D1", "Panel One")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	other := registration("", "Any")
	other.FullName = "Luis Gomez"
	if _, err := svc.Register(ctx, other); err != nil {
		t.Fatalf("Register: %v", err)
	}

	before, _ := store.GetStats(ctx, svc.DB)
	pool, _ := store.ListTicketIDs(ctx, svc.DB, false)

	svc.Pick = func(n int) (int, error) {
		if n != 4 {
			t.Errorf("expected pool of 4, got %d", n)
		}
		return 2, nil
	}

	first, err := svc.DrawWinner(ctx, DrawRequest{DrawnBy: "admin"})
	if err != nil {
		t.Fatalf("DrawWinner: %v", err)
	}
	if first.TicketID != pool[2] || first.DrawnBy != "admin" {
		t.Errorf("unexpected winner: %+v", first)
	}

	second, err := svc.DrawWinner(ctx, DrawRequest{DrawnBy: "ops"})
	if err != nil {
		t.Fatalf("DrawWinner: %v", err)
	}
	if second.TicketID != first.TicketID || second.TimesDrawn != 2 {
		t.Errorf("expected the same ticket drawn twice, got %+v", second)
	}

	after, _ := store.GetStats(ctx, svc.DB)
	if after.Tickets != before.Tickets || after.Participants != before.Participants {
		t.Errorf("draw changed the pool: before %+v after %+v", before, after)
	}
	if after.Winners != 1 {
		t.Errorf("expected 1 winner row, got %d", after.Winners)
	}
}

func TestDrawExcludingPreviousWinners(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registration("", "Any")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.DrawWinner(ctx, DrawRequest{DrawnBy: "admin", ExcludePreviousWinners: true}); err != nil {
		t.Fatalf("first draw: %v", err)
	}
	_, err := svc.DrawWinner(ctx, DrawRequest{DrawnBy: "admin", ExcludePreviousWinners: true})
	if !errors.Is(err, model.ErrNoTickets) {
		t.Errorf("expected NO_TICKETS once every ticket won, got %v", err)
	}

	// The default policy still draws from the full pool.
	if _, err := svc.DrawWinner(ctx, DrawRequest{DrawnBy: "admin"}); err != nil {
		t.Errorf("independent draw: %v", err)
	}
}

func TestDrawPickerOutOfRange(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	svc.Register(ctx, registration("", "Any"))
	svc.Pick = func(n int) (int, error) { return n, nil }

	if _, err := svc.DrawWinner(ctx, DrawRequest{DrawnBy: "admin"}); err == nil {
		t.Error("expected error for out-of-range pick")
	}
}
