package models

// Budget defines a monthly spending limit for a category, unique per
// (user, category, month, year). The spent value is always derived from
// the ledger, never stored.
type Budget struct {
	Base
	UserID      uint  `gorm:"not null;index" json:"user_id"`
	CategoryID  uint  `gorm:"not null" json:"category_id"`
	LimitAmount int64 `gorm:"type:bigint;not null" json:"limit_amount"`
	Month       int   `gorm:"not null" json:"month"`
	Year        int   `gorm:"not null" json:"year"`

	// Relationships
	Category Category `gorm:"foreignKey:CategoryID" json:"category"`
}
