package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/promoraffle/promoraffle/internal/model"
)

const participantColumns = `id, full_name, national_id, city, email, phone, product_model, serial, evidence_path, ticket_ids, created_at`

func scanParticipant(s scanner) (*model.Participant, error) {
	p := &model.Participant{}
	var serial sql.NullString
	var ticketIDs string
	err := s.Scan(&p.ID, &p.FullName, &p.NationalID, &p.City, &p.Email, &p.Phone,
		&p.ProductModel, &serial, &p.EvidencePath, &ticketIDs, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Serial = serial.String
	if err := json.Unmarshal([]byte(ticketIDs), &p.TicketIDs); err != nil {
		return nil, fmt.Errorf("decoding ticket ids of %s: %w", p.ID, err)
	}
	return p, nil
}

// GetParticipant returns a participant by ID.
func GetParticipant(ctx context.Context, db *sql.DB, id string) (*model.Participant, error) {
	p, err := scanParticipant(db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting participant: %w", err)
	}
	return p, nil
}

// GetParticipantBySerial returns the participant that claimed a serial.
func GetParticipantBySerial(ctx context.Context, db *sql.DB, serial string) (*model.Participant, error) {
	p, err := scanParticipant(db.QueryRowContext(ctx,
		`SELECT `+participantColumns+` FROM participants WHERE serial = ?`, serial,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting participant by serial: %w", err)
	}
	return p, nil
}

// ListParticipants returns participants, newest first.
func ListParticipants(ctx context.Context, db *sql.DB, limit int) ([]model.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing participants: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}
