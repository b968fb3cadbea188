package models

import "time"

// Stock movement reasons written by the importer.
const (
	ReasonInitialImport = "initial_import"
)

// InventoryMovement is one entry in the append-only stock ledger. Rows are
// only ever inserted — there is no updated_at and no soft delete — so the
// ledger stays a faithful history. The importer writes exactly one entry per
// variant, at creation time, and never on update; replaying a feed therefore
// cannot double-count stock.
type InventoryMovement struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	VariantID     uint      `gorm:"not null;index"           json:"variant_id"`
	QuantityDelta int       `gorm:"not null"                 json:"quantity_delta"`
	Reason        string    `gorm:"size:100;not null"        json:"reason"`
	CreatedAt     time.Time `gorm:"autoCreateTime"           json:"created_at"`
}
