package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/promoraffle/promoraffle/internal/db"
	"github.com/promoraffle/promoraffle/internal/model"
)

// maxTicketAttempts bounds regeneration when a ticket code collides.
const maxTicketAttempts = 32

// RegisterOptions carries the generators used by Register.
type RegisterOptions struct {
	// NewTicketID returns a candidate ticket code. Required.
	NewTicketID func() (string, error)
	// NewParticipantID defaults to a random UUID.
	NewParticipantID func() string
	// Now defaults to time.Now.
	Now func() time.Time
}

// Register runs the registration transaction: inventory claim, duplicate
// check, ticket issuance and participant insert all commit together or not at
// all. The database is opened with immediate transactions, so the write lock
// is held from the first read until commit.
//
// A consumed inventory code reports model.ErrSerialUsed; a serial outside
// inventory that another participant already holds reports
// model.ErrDuplicateSerial.
//
// Lock contention is reported as model.ErrConflict and is safe to retry.
func Register(ctx context.Context, database *sql.DB, reg model.Registration, opts RegisterOptions) (*model.RegistrationResult, error) {
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	if opts.NewTicketID == nil {
		return nil, fmt.Errorf("registering: no ticket id generator")
	}
	if opts.NewParticipantID == nil {
		opts.NewParticipantID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	res, err := register(ctx, database, reg, opts)
	if err != nil {
		return nil, classifyTxError(err)
	}
	return res, nil
}

func register(ctx context.Context, database *sql.DB, reg model.Registration, opts RegisterOptions) (*model.RegistrationResult, error) {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := opts.Now().UTC()
	multiplier := 1
	productModel := reg.ProductModel

	if reg.Serial != "" {
		code, err := getInventoryCode(ctx, tx, reg.Serial)
		if err != nil {
			return nil, err
		}
		if code != nil && code.Consumed {
			return nil, fmt.Errorf("serial %s: %w", reg.Serial, model.ErrSerialUsed)
		}

		var taken int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM participants WHERE serial = ?`, reg.Serial,
		).Scan(&taken)
		if err != nil {
			return nil, fmt.Errorf("checking duplicate serial: %w", err)
		}
		if taken > 0 {
			return nil, fmt.Errorf("serial %s: %w", reg.Serial, model.ErrDuplicateSerial)
		}

		// Serials missing from inventory are accepted with the default multiplier.
		if code != nil {
			product, err := resolveProduct(ctx, tx, code)
			if err != nil {
				return nil, err
			}
			if err := checkModel(reg.ProductModel, product, code); err != nil {
				return nil, err
			}
			if product != nil {
				multiplier = TicketMultiplier(product)
				productModel = product.DisplayName
			}

			result, err := tx.ExecContext(ctx,
				`UPDATE inventory_codes
				 SET consumed = 1, consumed_by_identity = ?, consumed_at = ?
				 WHERE code = ? AND consumed = 0`,
				reg.NationalID, now, reg.Serial,
			)
			if err != nil {
				return nil, fmt.Errorf("claiming inventory code: %w", err)
			}
			if n, _ := result.RowsAffected(); n != 1 {
				return nil, fmt.Errorf("serial %s: %w", reg.Serial, model.ErrSerialUsed)
			}
		}
	}

	ticketIDs, err := newTicketIDs(ctx, tx, multiplier, opts.NewTicketID)
	if err != nil {
		return nil, err
	}

	idsJSON, err := json.Marshal(ticketIDs)
	if err != nil {
		return nil, fmt.Errorf("encoding ticket ids: %w", err)
	}

	participantID := opts.NewParticipantID()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO participants (id, full_name, national_id, city, email, phone, product_model, serial, evidence_path, ticket_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		participantID, reg.FullName, reg.NationalID, reg.City, reg.Email, reg.Phone,
		productModel, nullString(reg.Serial), reg.EvidencePath, string(idsJSON), now,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, fmt.Errorf("serial %s: %w", reg.Serial, model.ErrDuplicateSerial)
		}
		return nil, fmt.Errorf("creating participant: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tickets (id, participant_id, full_name, national_id, city, phone, product_model, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return nil, fmt.Errorf("preparing ticket insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range ticketIDs {
		_, err := stmt.ExecContext(ctx, id, participantID, reg.FullName, reg.NationalID, reg.City, reg.Phone, productModel, now)
		if err != nil {
			return nil, fmt.Errorf("creating ticket %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing registration: %w", err)
	}

	return &model.RegistrationResult{
		ParticipantID:    participantID,
		TicketIDs:        ticketIDs,
		TicketMultiplier: multiplier,
		ProductModel:     productModel,
		Serial:           reg.Serial,
	}, nil
}

// checkModel rejects a registration whose declared model disagrees with what
// inventory and catalog know about the serial. Codes with no known model pass.
func checkModel(submitted string, product *model.Product, code *model.InventoryCode) error {
	var candidates []string
	if product != nil {
		candidates = append(candidates, product.Key, product.DisplayName)
	}
	if code.Model != "" && code.Model != model.UnknownModel {
		candidates = append(candidates, code.Model)
	}
	if len(candidates) == 0 || model.MatchesModel(submitted, candidates...) {
		return nil
	}
	return fmt.Errorf("serial %s registered for %q: %w", code.Code, ProductName(product, code), model.ErrModelMismatch)
}

// newTicketIDs draws n distinct codes that do not exist yet.
func newTicketIDs(ctx context.Context, q querier, n int, gen func() (string, error)) ([]string, error) {
	ids := make([]string, 0, n)
	seen := make(map[string]bool, n)

	for attempts := 0; len(ids) < n; attempts++ {
		if attempts >= n+maxTicketAttempts {
			return nil, fmt.Errorf("generating ticket ids: too many collisions")
		}

		id, err := gen()
		if err != nil {
			return nil, fmt.Errorf("generating ticket id: %w", err)
		}
		if seen[id] {
			continue
		}

		var exists int
		err = q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM tickets WHERE id = ?`, id,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("checking ticket id: %w", err)
		}
		if exists > 0 {
			continue
		}

		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// classifyTxError turns SQLite contention into model.ErrConflict and leaves
// domain errors untouched.
func classifyTxError(err error) error {
	if err == nil {
		return nil
	}
	for _, domainErr := range []error{
		model.ErrValidation, model.ErrDuplicateSerial, model.ErrSerialUsed, model.ErrModelMismatch,
	} {
		if errors.Is(err, domainErr) {
			return err
		}
	}
	if db.IsBusy(err) {
		return fmt.Errorf("%w: %v", model.ErrConflict, err)
	}
	return err
}
