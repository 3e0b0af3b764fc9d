package services

import (
	"time"

	"gorm.io/gorm"

	"finledger/internal/models"
	"finledger/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
}

// AccountServicer defines the contract for account-related business logic.
// ApplyBalanceDelta is the single primitive through which any component may
// change a stored balance; it issues an atomic increment, never a
// read-modify-write from application memory.
type AccountServicer interface {
	CreateAccount(userID uint, name string, kind models.AccountKind, initialBalance int64) (*models.Account, error)
	GetUserAccounts(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID uint) (*models.Account, error)
	UpdateAccount(userID, accountID uint, name string) (*models.Account, error)
	DeleteAccount(userID, accountID uint) error
	ApplyBalanceDelta(tx *gorm.DB, accountID uint, delta int64) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID uint, name string, categoryType models.CategoryType) (*models.Category, error)
	GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID uint) (*models.Category, error)
	UpdateCategory(userID, categoryID uint, name string) (*models.Category, error)
	DeleteCategory(userID, categoryID uint) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *time.Time
	ToDate     *time.Time
	Type       *models.TransactionType
	CategoryID *uint
	AccountID  *uint
}

// MonthlySummary aggregates a user's income and expenses for one month,
// excluding transfer legs.
type MonthlySummary struct {
	Month    int   `json:"month"`
	Year     int   `json:"year"`
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
	Net      int64 `json:"net"`
}

// CategorySpend is one row of the per-category spending report.
type CategorySpend struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Total        int64  `json:"total"`
}

// TransactionServicer defines the contract for the transaction ledger. It is
// the sole writer of transaction rows and the sole path through which a
// transaction-level change reaches an account balance.
type TransactionServicer interface {
	CreateTransaction(userID, accountID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	CreateTransactionTx(tx *gorm.DB, userID, accountID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID uint, accountID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID uint) error
	GetTransactionByID(userID, transactionID uint) (*models.Transaction, error)
	GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(userID, accountID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetRecentTransactions(userID uint, limit int) ([]models.Transaction, error)
	GetMonthlySummary(userID uint, month, year int) (*MonthlySummary, error)
	GetSpendingByCategory(userID uint, month, year int) ([]CategorySpend, error)
}

// TransferServicer composes two ledger legs into one atomic, linked pair.
type TransferServicer interface {
	ExecuteTransfer(userID, fromAccountID, toAccountID uint, amount int64, description string, date time.Time) (*models.Transaction, *models.Transaction, error)
	CancelTransfer(userID, transactionID uint) error
}

// BudgetProgress is the derived spend state of one budget for its period.
type BudgetProgress struct {
	Budget     *models.Budget `json:"budget"`
	Spent      int64          `json:"spent"`
	Remaining  int64          `json:"remaining"`
	Percentage float64        `json:"percentage"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID, categoryID uint, limitAmount int64, month, year int) (*models.Budget, error)
	GetUserBudgets(userID uint, month, year int, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	UpdateBudget(userID, budgetID uint, limitAmount int64) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
	EvaluateBudget(userID, budgetID uint) (*BudgetProgress, error)
}

// RecurringRunStats summarizes one scheduler batch run.
type RecurringRunStats struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
}

// RecurringServicer manages recurring transaction templates and materializes
// the due ones into ordinary ledger transactions.
type RecurringServicer interface {
	CreateRecurring(userID, accountID uint, categoryID *uint, transactionType models.TransactionType, amount int64, description string, frequency models.Frequency, nextDueDate time.Time) (*models.RecurringTransaction, error)
	GetUserRecurring(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error)
	GetRecurringByID(userID, recurringID uint) (*models.RecurringTransaction, error)
	UpdateRecurring(userID, recurringID uint, amount int64, description string, frequency models.Frequency, nextDueDate time.Time, isActive bool) (*models.RecurringTransaction, error)
	DeleteRecurring(userID, recurringID uint) error
	MaterializeDueRecurring(now time.Time) (*RecurringRunStats, error)
}

// AuditServicer records user-initiated mutations for traceability.
type AuditServicer interface {
	Record(userID uint, action, resourceType string, resourceID uint, ipAddress, changes string)
	GetUserAuditLogs(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error)
}
