// Package notify delivers registration confirmations to external channels.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// RegistrationEvent is published after a registration commits.
type RegistrationEvent struct {
	ParticipantID string    `json:"participant_id"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	ProductModel  string    `json:"product_model"`
	Serial        string    `json:"serial,omitempty"`
	TicketIDs     []string  `json:"ticket_ids"`
	RaffleDate    string    `json:"raffle_date,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
}

// Notifier sends a registration event somewhere.
type Notifier interface {
	Notify(ctx context.Context, ev RegistrationEvent) error
}

// LogNotifier writes events to the structured log.
type LogNotifier struct{}

// Notify logs ev.
func (LogNotifier) Notify(_ context.Context, ev RegistrationEvent) error {
	slog.Info("registration confirmation",
		"participant", ev.ParticipantID,
		"phone", ev.Phone,
		"email", ev.Email,
		"tickets", len(ev.TicketIDs),
		"raffle_date", ev.RaffleDate,
	)
	return nil
}

// Multi fans an event out to several notifiers. Every notifier is tried and
// the errors are joined.
type Multi []Notifier

// Notify calls each notifier in order.
func (m Multi) Notify(ctx context.Context, ev RegistrationEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
