package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/promoraffle/promoraffle/internal/model"
)

const ticketColumns = `id, participant_id, full_name, national_id, city, phone, product_model, created_at`

func scanTicket(s scanner) (*model.Ticket, error) {
	t := &model.Ticket{}
	err := s.Scan(&t.ID, &t.ParticipantID, &t.FullName, &t.NationalID, &t.City, &t.Phone, &t.ProductModel, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTicket returns a ticket by its code.
func GetTicket(ctx context.Context, db *sql.DB, id string) (*model.Ticket, error) {
	return getTicket(ctx, db, id)
}

func getTicket(ctx context.Context, q querier, id string) (*model.Ticket, error) {
	t, err := scanTicket(q.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting ticket: %w", err)
	}
	return t, nil
}

// ListTicketIDs returns the draw pool in a stable order. With excludeWinners
// set, tickets that already won are left out.
func ListTicketIDs(ctx context.Context, db *sql.DB, excludeWinners bool) ([]string, error) {
	query := `SELECT id FROM tickets`
	if excludeWinners {
		query += ` WHERE id NOT IN (SELECT ticket_id FROM winners)`
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning ticket id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListParticipantTickets returns the tickets of one participant.
func ListParticipantTickets(ctx context.Context, db *sql.DB, participantID string) ([]model.Ticket, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE participant_id = ? ORDER BY id`, participantID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing participant tickets: %w", err)
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ticket: %w", err)
		}
		tickets = append(tickets, *t)
	}
	return tickets, rows.Err()
}
