package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Evidence is a stored proof-of-purchase image.
type Evidence struct {
	ID         string
	Data       []byte
	MIME       string
	UploadedAt time.Time
}

// CreateEvidence stores an already-processed image.
func CreateEvidence(ctx context.Context, db *sql.DB, id string, data []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO evidence (id, data, mime) VALUES (?, ?, ?)`,
		id, data, mime,
	)
	if err != nil {
		return fmt.Errorf("storing evidence: %w", err)
	}
	return nil
}

// GetEvidence returns a stored image, or nil if there is none.
func GetEvidence(ctx context.Context, db *sql.DB, id string) (*Evidence, error) {
	e := &Evidence{}
	err := db.QueryRowContext(ctx,
		`SELECT id, data, mime, uploaded_at FROM evidence WHERE id = ?`, id,
	).Scan(&e.ID, &e.Data, &e.MIME, &e.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting evidence: %w", err)
	}
	return e, nil
}
