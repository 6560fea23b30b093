package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/promoraffle/promoraffle/internal/model"
)

const winnerColumns = `ticket_id, participant_id, full_name, national_id, city, email, phone, product_model, serial, drawn_at, drawn_by, times_drawn`

func scanWinner(s scanner) (*model.Winner, error) {
	w := &model.Winner{}
	var serial sql.NullString
	err := s.Scan(&w.TicketID, &w.ParticipantID, &w.FullName, &w.NationalID, &w.City, &w.Email,
		&w.Phone, &w.ProductModel, &serial, &w.DrawnAt, &w.DrawnBy, &w.TimesDrawn)
	if err != nil {
		return nil, err
	}
	w.Serial = serial.String
	return w, nil
}

// RecordWinner snapshots the participant behind ticketID into the winners
// table. Drawing the same ticket again refreshes the draw fields and bumps
// times_drawn instead of adding a row.
func RecordWinner(ctx context.Context, db *sql.DB, ticketID, drawnBy string, drawnAt time.Time) (*model.Winner, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO winners (ticket_id, participant_id, full_name, national_id, city, email, phone, product_model, serial, drawn_at, drawn_by)
		 SELECT t.id, p.id, p.full_name, p.national_id, p.city, p.email, p.phone, p.product_model, p.serial, ?, ?
		 FROM tickets t JOIN participants p ON p.id = t.participant_id
		 WHERE t.id = ?
		 ON CONFLICT (ticket_id) DO UPDATE SET
		     drawn_at = excluded.drawn_at,
		     drawn_by = excluded.drawn_by,
		     times_drawn = winners.times_drawn + 1`,
		drawnAt.UTC(), drawnBy, ticketID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording winner: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("ticket %s: %w", ticketID, model.ErrNotFound)
	}

	w, err := scanWinner(tx.QueryRowContext(ctx,
		`SELECT `+winnerColumns+` FROM winners WHERE ticket_id = ?`, ticketID,
	))
	if err != nil {
		return nil, fmt.Errorf("reading winner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing winner: %w", err)
	}
	return w, nil
}

// ListWinners returns recorded winners, most recent draw first.
func ListWinners(ctx context.Context, db *sql.DB) ([]model.Winner, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+winnerColumns+` FROM winners ORDER BY drawn_at DESC, ticket_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing winners: %w", err)
	}
	defer rows.Close()

	var winners []model.Winner
	for rows.Next() {
		w, err := scanWinner(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning winner: %w", err)
		}
		winners = append(winners, *w)
	}
	return winners, rows.Err()
}
