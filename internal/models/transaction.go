package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Transaction represents a financial transaction in the system.
// Amount is always stored positive (cents); the sign of its balance
// effect is derived from Type. Transfer legs carry IsTransfer=true and
// point at their sibling leg via RelatedTransactionID.
type Transaction struct {
	Base
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	AccountID   uint            `gorm:"not null;index" json:"account_id"`
	CategoryID  *uint           `gorm:"index" json:"category_id,omitempty"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	Description string          `json:"description"`
	Date        time.Time       `gorm:"not null;index" json:"date"`

	IsTransfer           bool  `gorm:"not null;default:false" json:"is_transfer"`
	RelatedTransactionID *uint `json:"related_transaction_id,omitempty"`

	// Relationships
	Account            Account      `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category           *Category    `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	RelatedTransaction *Transaction `gorm:"foreignKey:RelatedTransactionID" json:"related_transaction,omitempty"`
}

// SignedAmount returns the transaction's contribution to its account
// balance: positive for income, negative for expense.
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TransactionTypeExpense {
		return -t.Amount
	}
	return t.Amount
}
