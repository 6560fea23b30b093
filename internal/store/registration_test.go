package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/promoraffle/promoraffle/internal/db"
	"github.com/promoraffle/promoraffle/internal/model"
)

func TestRegisterIssuesMultiplierTickets(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	testCatalog(t, database)
	testImport(t, database, model.ImportRow{Code: "SKY1001", Model: "ZX-500"})

	res, err := Register(ctx, database, testRegistration(" sky1001 ", "Zenith 500"), RegisterOptions{NewTicketID: sequentialIDs()})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.TicketMultiplier != 3 || len(res.TicketIDs) != 3 {
		t.Fatalf("expected 3 tickets, got %+v", res)
	}
	if res.Serial != "SKY1001" {
		t.Errorf("expected normalized serial, got %q", res.Serial)
	}
	if res.ProductModel != "Zenith 500" {
		t.Errorf("expected resolved product name, got %q", res.ProductModel)
	}

	p, err := GetParticipant(ctx, database, res.ParticipantID)
	if err != nil || p == nil {
		t.Fatalf("GetParticipant: %v %v", p, err)
	}
	if len(p.TicketIDs) != 3 || p.TicketIDs[0] != res.TicketIDs[0] {
		t.Errorf("participant ticket ids mismatch: %v vs %v", p.TicketIDs, res.TicketIDs)
	}

	tickets, _ := ListParticipantTickets(ctx, database, res.ParticipantID)
	if len(tickets) != 3 {
		t.Errorf("expected 3 ticket rows, got %d", len(tickets))
	}

	code, _ := GetInventoryCode(ctx, database, "SKY1001")
	if !code.Consumed || code.ConsumedByIdentity != "1234567" {
		t.Errorf("expected code consumed by 1234567, got %+v", code)
	}
}

func TestRegisterSerialRules(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	testCatalog(t, database)
	testImport(t, database,
		model.ImportRow{Code: "A1", Model: "ZX-500"},
		model.ImportRow{Code: "A2", Model: "Unknown"},
	)
	opts := RegisterOptions{NewTicketID: sequentialIDs()}

	if _, err := Register(ctx, database, testRegistration("A1", "ZX-500"), opts); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := Register(ctx, database, testRegistration("a1", "ZX-500"), opts)
	if !errors.Is(err, model.ErrSerialUsed) {
		t.Errorf("expected serial used, got %v", err)
	}

	_, err = Register(ctx, database, testRegistration("A2", ""), opts)
	if !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	// Unknown serials are accepted with one ticket and do not touch inventory.
	res, err := Register(ctx, database, testRegistration("ZZZ", "Anything"), opts)
	if err != nil {
		t.Fatalf("Register unknown serial: %v", err)
	}
	if len(res.TicketIDs) != 1 {
		t.Errorf("expected 1 ticket, got %d", len(res.TicketIDs))
	}
	if c, _ := GetInventoryCode(ctx, database, "ZZZ"); c != nil {
		t.Error("unknown serial must not create inventory")
	}

	_, err = Register(ctx, database, testRegistration("zzz", "Anything"), opts)
	if !errors.Is(err, model.ErrDuplicateSerial) {
		t.Errorf("expected duplicate serial, got %v", err)
	}
}

func TestRegisterSerialUsedWithoutParticipant(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	testImport(t, database, model.ImportRow{Code: "A1", Model: "Unknown"})

	// Simulates a code consumed outside this flow.
	if _, err := database.Exec(`UPDATE inventory_codes SET consumed = 1 WHERE code = 'A1'`); err != nil {
		t.Fatal(err)
	}

	_, err := Register(ctx, database, testRegistration("A1", "X"), RegisterOptions{NewTicketID: sequentialIDs()})
	if !errors.Is(err, model.ErrSerialUsed) {
		t.Errorf("expected serial used, got %v", err)
	}
}

func TestRegisterModelMismatch(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	testCatalog(t, database)
	testImport(t, database, model.ImportRow{Code: "A1", Model: "ZX-500"})

	_, err := Register(ctx, database, testRegistration("A1", "Solo Basic"), RegisterOptions{NewTicketID: sequentialIDs()})
	if !errors.Is(err, model.ErrModelMismatch) {
		t.Fatalf("expected model mismatch, got %v", err)
	}

	// Nothing was committed.
	code, _ := GetInventoryCode(ctx, database, "A1")
	if code.Consumed {
		t.Error("code consumed after failed registration")
	}
	stats, _ := GetStats(ctx, database)
	if stats.Participants != 0 || stats.Tickets != 0 {
		t.Errorf("expected no rows, got %+v", stats)
	}
}

func TestRegisterWithoutSerial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	opts := RegisterOptions{NewTicketID: sequentialIDs()}

	for i := 0; i < 2; i++ {
		res, err := Register(ctx, database, testRegistration(model.NoSerial, "Any"), opts)
		if err != nil {
			t.Fatalf("Register %d: %v", i, err)
		}
		if len(res.TicketIDs) != 1 || res.Serial != "" {
			t.Errorf("unexpected result: %+v", res)
		}
	}

	stats, _ := GetStats(ctx, database)
	if stats.Participants != 2 {
		t.Errorf("expected 2 participants, got %d", stats.Participants)
	}
}

func TestRegisterRegeneratesCollidingTicketIDs(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	fixed := func() (string, error) { return "T-1", nil }
	if _, err := Register(ctx, database, testRegistration("", "Any"), RegisterOptions{NewTicketID: fixed}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	queue := []string{"T-1", "T-1", "T-2"}
	gen := func() (string, error) {
		id := queue[0]
		queue = queue[1:]
		return id, nil
	}
	res, err := Register(ctx, database, testRegistration("", "Any"), RegisterOptions{NewTicketID: gen})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.TicketIDs[0] != "T-2" {
		t.Errorf("expected regenerated id T-2, got %v", res.TicketIDs)
	}
}

func TestRegisterConcurrentSameSerial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	testCatalog(t, database)
	testImport(t, database, model.ImportRow{Code: "A1", Model: "ZX-500"})

	const workers = 8
	gen := sequentialIDs()

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Register(ctx, database, testRegistration("A1", "ZX-500"), RegisterOptions{NewTicketID: gen})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, model.ErrDuplicateSerial), errors.Is(err, model.ErrSerialUsed), errors.Is(err, model.ErrConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly 1 success, got %d", succeeded)
	}

	stats, _ := GetStats(ctx, database)
	if stats.Participants != 1 || stats.Tickets != 3 || stats.ConsumedCodes != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestGetParticipantBySerial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	res, err := Register(ctx, database, testRegistration("Q9", "Any"), RegisterOptions{NewTicketID: sequentialIDs()})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	p, err := GetParticipantBySerial(ctx, database, "Q9")
	if err != nil || p == nil {
		t.Fatalf("GetParticipantBySerial: %v %v", p, err)
	}
	if p.ID != res.ParticipantID {
		t.Errorf("expected %s, got %s", res.ParticipantID, p.ID)
	}

	list, _ := ListParticipants(ctx, database, 10)
	if len(list) != 1 {
		t.Errorf("expected 1 participant, got %d", len(list))
	}
}

func TestRegisterRollsBackAfterClaim(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, database *sql.DB) RegisterOptions
	}{
		{
			name: "ticket generation fails",
			setup: func(t *testing.T, database *sql.DB) RegisterOptions {
				gen := sequentialIDs()
				calls := 0
				return RegisterOptions{NewTicketID: func() (string, error) {
					calls++
					if calls == 2 {
						return "", errors.New("entropy exhausted")
					}
					return gen()
				}}
			},
		},
		{
			name: "ticket insert fails",
			setup: func(t *testing.T, database *sql.DB) RegisterOptions {
				_, err := database.Exec(`CREATE TRIGGER reject_ticket BEFORE INSERT ON tickets
					WHEN NEW.id = 'T-000003'
					BEGIN SELECT RAISE(ABORT, 'ticket rejected'); END`)
				if err != nil {
					t.Fatalf("creating trigger: %v", err)
				}
				return RegisterOptions{NewTicketID: sequentialIDs()}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database := db.NewTestDB(t)
			ctx := context.Background()
			testCatalog(t, database)
			testImport(t, database, model.ImportRow{Code: "SKY1001", Model: "ZX-500"})

			_, err := Register(ctx, database, testRegistration("SKY1001", "ZX-500"), tt.setup(t, database))
			if err == nil {
				t.Fatal("expected registration to fail")
			}

			code, _ := GetInventoryCode(ctx, database, "SKY1001")
			if code.Consumed || code.ConsumedByIdentity != "" || code.ConsumedAt != nil {
				t.Errorf("claim survived rollback: %+v", code)
			}
			stats, _ := GetStats(ctx, database)
			if stats.Participants != 0 || stats.Tickets != 0 {
				t.Errorf("expected no rows, got %+v", stats)
			}

			// The serial is still claimable.
			var n int
			retry := RegisterOptions{NewTicketID: func() (string, error) {
				n++
				return fmt.Sprintf("R-%06d", n), nil
			}}
			res, err := Register(ctx, database, testRegistration("SKY1001", "ZX-500"), retry)
			if err != nil {
				t.Fatalf("retry after rollback: %v", err)
			}
			if len(res.TicketIDs) != 3 {
				t.Errorf("expected 3 tickets, got %d", len(res.TicketIDs))
			}
		})
	}
}
