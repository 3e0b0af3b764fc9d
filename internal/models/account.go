package models

// AccountKind represents the kind of account
type AccountKind string

const (
	AccountKindSavings    AccountKind = "savings"
	AccountKindChecking   AccountKind = "checking"
	AccountKindCreditCard AccountKind = "credit_card"
	AccountKindLoan       AccountKind = "loan"
	AccountKindMortgage   AccountKind = "mortgage"
	AccountKindInvestment AccountKind = "investment"
	AccountKindCash       AccountKind = "cash"
	AccountKindWallet     AccountKind = "wallet"
)

// Account represents a financial account in the system.
// Balance is stored in cents and is only ever mutated through the
// ledger's atomic increment, never written back from application memory.
type Account struct {
	Base
	UserID  uint        `gorm:"not null;index" json:"user_id"`
	Name    string      `gorm:"not null" json:"name"`
	Kind    AccountKind `gorm:"not null" json:"kind"`
	Balance int64       `gorm:"type:bigint;not null;default:0" json:"balance"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}

// IsLiability reports whether the account kind is expected to carry
// a negative balance (debt accounts).
func (a *Account) IsLiability() bool {
	switch a.Kind {
	case AccountKindCreditCard, AccountKindLoan, AccountKindMortgage:
		return true
	}
	return false
}
