package model

import "time"

// InventoryCode is one physical serial loaded from an inventory import.
type InventoryCode struct {
	Code               string     `json:"code"`
	Model              string     `json:"model"`
	ProductRef         string     `json:"product_ref,omitempty"`
	Consumed           bool       `json:"consumed"`
	ConsumedByIdentity string     `json:"consumed_by_identity,omitempty"`
	ConsumedAt         *time.Time `json:"consumed_at,omitempty"`
	ImportBatchID      string     `json:"import_batch_id"`
	ImportedAt         time.Time  `json:"imported_at"`
}

// ImportRow is a single line of an inventory import.
type ImportRow struct {
	Code       string `json:"code"`
	Model      string `json:"model"`
	ProductRef string `json:"product_ref,omitempty"`
}

// UnknownModel is stored when an import row carries no model.
const UnknownModel = "Unknown"

// Product is a catalog entry that decides how many tickets a registration earns.
type Product struct {
	Key              string    `json:"key" yaml:"key"`
	DisplayName      string    `json:"display_name" yaml:"display_name"`
	Description      string    `json:"description,omitempty" yaml:"description"`
	TicketMultiplier int       `json:"ticket_multiplier" yaml:"ticket_multiplier"`
	Active           bool      `json:"active" yaml:"active"`
	CreatedAt        time.Time `json:"created_at" yaml:"-"`
	UpdatedAt        time.Time `json:"updated_at" yaml:"-"`
}

// Serial check statuses.
const (
	SerialAvailable = "AVAILABLE"
	SerialUsed      = "USED"
	SerialNotFound  = "NOT_FOUND"
)

// SerialCheck is the advisory answer for a serial before registration.
type SerialCheck struct {
	Serial           string `json:"serial"`
	Status           string `json:"status"`
	ProductName      string `json:"product_name,omitempty"`
	TicketMultiplier int    `json:"ticket_multiplier,omitempty"`
}
