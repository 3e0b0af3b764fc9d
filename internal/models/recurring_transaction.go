package models

import "time"

// Frequency represents how often a recurring transaction fires
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurringTransaction is a template that the scheduler materializes into
// ordinary transactions when NextDueDate comes due. The template itself
// never touches account balances; only the transactions it spawns do.
type RecurringTransaction struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	AccountID   uint            `gorm:"not null" json:"account_id"`
	CategoryID  *uint           `json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Frequency   Frequency       `gorm:"not null" json:"frequency"`
	NextDueDate time.Time       `gorm:"not null;index" json:"next_due_date"`
	IsActive    bool            `gorm:"not null;default:true" json:"is_active"`

	// Relationships
	Account  Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
