package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// transactionService is the transaction ledger. Every balance effect a
// transaction has on an account flows through here as an atomic delta via
// AccountServicer.ApplyBalanceDelta, inside the same database transaction
// as the row change it belongs to.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer) TransactionServicer {
	return &transactionService{
		db:             db,
		accountService: accountService,
	}
}

// CreateTransaction posts a new transaction against one of the user's
// accounts and applies its signed effect to the account balance atomically.
func (s *transactionService) CreateTransaction(
	userID uint,
	accountID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	var transaction *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		transaction, txErr = s.CreateTransactionTx(tx, userID, accountID, categoryID, transactionType, amount, description, date)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// CreateTransactionTx posts a transaction inside a caller-owned database
// transaction, so a caller can make the post and its own writes one atomic
// unit. Validation and ownership checks run against tx too.
func (s *transactionService) CreateTransactionTx(
	tx *gorm.DB,
	userID uint,
	accountID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if accountID == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}
	if date.IsZero() {
		date = time.Now()
	}

	// Ownership checks before any write
	var count int64
	if err := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		Count(&count).Error; err != nil {
		return nil, wrapDBError(err)
	}
	if count == 0 {
		return nil, apperrors.ErrAccountNotFound
	}
	if err := s.checkCategoryOwnership(tx, userID, categoryID); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Date:        date,
	}

	if err := tx.Create(transaction).Error; err != nil {
		return nil, wrapDBError(err)
	}
	if err := s.accountService.ApplyBalanceDelta(tx, accountID, transaction.SignedAmount()); err != nil {
		return nil, err
	}
	return transaction, nil
}

// UpdateTransaction amends an existing transaction. Within one atomic unit
// it reverses the old signed effect on the original account, applies the new
// effect to the (possibly different) target account, and persists the new
// fields. The old effect is captured from the stored row before anything is
// mutated, so a changed type or amount can never corrupt the reversal.
// Transfer legs are immutable and must be cancelled and re-executed as a pair.
func (s *transactionService) UpdateTransaction(
	userID uint,
	transactionID uint,
	accountID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	date time.Time,
) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}
	if transaction.IsTransfer {
		return nil, apperrors.ErrTransferImmutable
	}

	if _, err := s.accountService.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	if err := s.checkCategoryOwnership(s.db, userID, categoryID); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = transaction.Date
	}

	oldEffect := transaction.SignedAmount()
	oldAccountID := transaction.AccountID
	readStamp := transaction.UpdatedAt

	transaction.AccountID = accountID
	transaction.CategoryID = categoryID
	transaction.Type = transactionType
	transaction.Amount = amount
	transaction.Description = description
	transaction.Date = date

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.amendInTx(tx, oldAccountID, oldEffect, readStamp, transaction)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// amendInTx is the atomic unit of an amendment: reverse the old effect,
// apply the new one, persist the row. The row update is conditioned on the
// updated_at stamp captured at read time; zero rows affected means the row
// was voided or amended by someone else since our read, and the balance
// deltas we derived from that read are stale, so the whole unit rolls back.
func (s *transactionService) amendInTx(tx *gorm.DB, oldAccountID uint, oldEffect int64, readStamp time.Time, transaction *models.Transaction) error {
	if err := s.accountService.ApplyBalanceDelta(tx, oldAccountID, -oldEffect); err != nil {
		return err
	}
	if err := s.accountService.ApplyBalanceDelta(tx, transaction.AccountID, transaction.SignedAmount()); err != nil {
		return err
	}
	res := tx.Model(&models.Transaction{}).
		Where("id = ? AND updated_at = ?", transaction.ID, readStamp).
		Updates(map[string]interface{}{
			"account_id":  transaction.AccountID,
			"category_id": transaction.CategoryID,
			"type":        transaction.Type,
			"amount":      transaction.Amount,
			"description": transaction.Description,
			"date":        transaction.Date,
		})
	if res.Error != nil {
		return wrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConcurrencyConflict
	}
	return nil
}

// DeleteTransaction voids a transaction: its signed effect is reversed on
// the account and the row is deleted, atomically. Transfer legs are rejected;
// cancelling a transfer must go through the transfer service so both legs
// are handled together.
func (s *transactionService) DeleteTransaction(userID, transactionID uint) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}
	if transaction.IsTransfer {
		return apperrors.ErrTransferImmutable
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.voidInTx(tx, transaction)
	})
}

// voidInTx is the atomic unit of a void. The soft delete only matches the
// live row, so it doubles as the guard: zero rows affected means another
// void claimed the row between our read and this write, and reversing its
// effect again would corrupt the balance, so the unit rolls back instead.
func (s *transactionService) voidInTx(tx *gorm.DB, transaction *models.Transaction) error {
	res := tx.Delete(transaction)
	if res.Error != nil {
		return wrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return s.accountService.ApplyBalanceDelta(tx, transaction.AccountID, -transaction.SignedAmount())
}

// GetTransactionByID retrieves a transaction, enforcing ownership.
func (s *transactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, wrapDBError(err)
	}
	return &transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of all the user's transactions.
func (s *transactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapDBError(err)
	}

	var transactions []models.Transaction
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("date desc, id desc").
		Find(&transactions).Error; err != nil {
		return nil, wrapDBError(err)
	}

	resp := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// GetAccountTransactions retrieves a paginated, filtered list of transactions for one account.
func (s *transactionService) GetAccountTransactions(userID, accountID uint, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.accountService.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	filter.AccountID = &accountID
	return s.GetUserTransactions(userID, page, filter)
}

// GetRecentTransactions returns the user's last N transactions by date.
func (s *transactionService) GetRecentTransactions(userID uint, limit int) ([]models.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var transactions []models.Transaction
	if err := s.db.Preload("Category").Preload("Account").
		Where("user_id = ?", userID).
		Order("date desc, id desc").
		Limit(limit).
		Find(&transactions).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return transactions, nil
}

// GetMonthlySummary aggregates income and expense totals for one month.
// Transfer legs are excluded: money moving between the user's own accounts
// is neither income nor spending.
func (s *transactionService) GetMonthlySummary(userID uint, month, year int) (*MonthlySummary, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}

	start, end := monthBounds(month, year)
	summary := &MonthlySummary{Month: month, Year: year}

	type row struct {
		Type  models.TransactionType
		Total int64
	}
	var rows []row
	if err := s.db.Model(&models.Transaction{}).
		Select("type, COALESCE(SUM(amount), 0) as total").
		Where("user_id = ? AND is_transfer = ? AND date >= ? AND date < ?", userID, false, start, end).
		Group("type").
		Scan(&rows).Error; err != nil {
		return nil, wrapDBError(err)
	}

	for _, r := range rows {
		switch r.Type {
		case models.TransactionTypeIncome:
			summary.Income = r.Total
		case models.TransactionTypeExpense:
			summary.Expenses = r.Total
		}
	}
	summary.Net = summary.Income - summary.Expenses
	return summary, nil
}

// GetSpendingByCategory returns per-category expense totals for one month,
// excluding transfer legs and uncategorized transactions.
func (s *transactionService) GetSpendingByCategory(userID uint, month, year int) ([]CategorySpend, error) {
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}

	start, end := monthBounds(month, year)

	var rows []CategorySpend
	if err := s.db.Model(&models.Transaction{}).
		Select("transactions.category_id as category_id, categories.name as category_name, COALESCE(SUM(transactions.amount), 0) as total").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Where("transactions.user_id = ? AND transactions.type = ? AND transactions.is_transfer = ?", userID, models.TransactionTypeExpense, false).
		Where("transactions.date >= ? AND transactions.date < ?", start, end).
		Where("transactions.deleted_at IS NULL").
		Group("transactions.category_id, categories.name").
		Order("total desc").
		Scan(&rows).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return rows, nil
}

// checkCategoryOwnership verifies that the category, if given, belongs to the user.
func (s *transactionService) checkCategoryOwnership(db *gorm.DB, userID uint, categoryID *uint) error {
	if categoryID == nil {
		return nil
	}
	var count int64
	if err := db.Model(&models.Category{}).
		Where("id = ? AND user_id = ?", *categoryID, userID).
		Count(&count).Error; err != nil {
		return wrapDBError(err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

// applyTransactionFilters applies the optional list filters to a query.
func applyTransactionFilters(query *gorm.DB, filter TransactionFilter) *gorm.DB {
	if filter.FromDate != nil {
		query = query.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("date <= ?", *filter.ToDate)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	return query
}

// monthBounds returns the half-open [start, end) interval of a calendar month.
func monthBounds(month, year int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}
