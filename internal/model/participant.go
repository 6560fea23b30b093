package model

import "time"

// Participant is a customer registration. TicketIDs has one entry per ticket.
type Participant struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	NationalID   string    `json:"national_id"`
	City         string    `json:"city"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	ProductModel string    `json:"product_model"`
	Serial       string    `json:"serial,omitempty"`
	EvidencePath string    `json:"evidence_path"`
	TicketIDs    []string  `json:"ticket_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// Ticket is one raffle entry. Participant fields are copied so a draw needs no join.
type Ticket struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	FullName      string    `json:"full_name"`
	NationalID    string    `json:"national_id"`
	City          string    `json:"city"`
	Phone         string    `json:"phone"`
	ProductModel  string    `json:"product_model"`
	CreatedAt     time.Time `json:"created_at"`
}

// Winner is the snapshot written by a draw, keyed by the winning ticket.
type Winner struct {
	TicketID      string    `json:"ticket_id"`
	ParticipantID string    `json:"participant_id"`
	FullName      string    `json:"full_name"`
	NationalID    string    `json:"national_id"`
	City          string    `json:"city"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	ProductModel  string    `json:"product_model"`
	Serial        string    `json:"serial,omitempty"`
	DrawnAt       time.Time `json:"drawn_at"`
	DrawnBy       string    `json:"drawn_by"`
	TimesDrawn    int       `json:"times_drawn"`
}

// Registration is the input of the registration transaction.
type Registration struct {
	FullName     string `json:"full_name"`
	NationalID   string `json:"national_id"`
	City         string `json:"city"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	ProductModel string `json:"product_model"`
	Serial       string `json:"serial,omitempty"`
	EvidencePath string `json:"evidence_path"`
}

// RegistrationResult is returned after a committed registration.
type RegistrationResult struct {
	ParticipantID    string   `json:"participant_id"`
	TicketIDs        []string `json:"ticket_ids"`
	TicketMultiplier int      `json:"ticket_multiplier"`
	ProductModel     string   `json:"product_model"`
	Serial           string   `json:"serial,omitempty"`
}

// Stats summarises the campaign tables.
type Stats struct {
	Participants   int `json:"participants"`
	Tickets        int `json:"tickets"`
	InventoryCodes int `json:"inventory_codes"`
	ConsumedCodes  int `json:"consumed_codes"`
	Winners        int `json:"winners"`
}
