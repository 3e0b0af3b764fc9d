package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// accountService handles account-related business logic.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates an account with the given initial balance. The
// initial balance is the baseline every later transaction delta builds on.
func (s *accountService) CreateAccount(userID uint, name string, kind models.AccountKind, initialBalance int64) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	var count int64
	if err := s.db.Model(&models.Account{}).Where("user_id = ? AND name = ?", userID, name).Count(&count).Error; err != nil {
		return nil, wrapDBError(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateAccount
	}

	account := &models.Account{
		UserID:  userID,
		Name:    name,
		Kind:    kind,
		Balance: initialBalance,
	}
	if err := s.db.Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateAccount
		}
		return nil, wrapDBError(err)
	}
	return account, nil
}

// GetUserAccounts retrieves a paginated list of the user's accounts.
func (s *accountService) GetUserAccounts(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	base := s.db.Model(&models.Account{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapDBError(err)
	}

	var accounts []models.Account
	if err := base.Scopes(pagination.Paginate(page)).Order("name asc").Find(&accounts).Error; err != nil {
		return nil, wrapDBError(err)
	}

	resp := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// GetAccountByID retrieves an account, enforcing ownership.
func (s *accountService) GetAccountByID(userID, accountID uint) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, wrapDBError(err)
	}
	return &account, nil
}

// UpdateAccount renames an account. Kind and balance are not editable here;
// balances only ever move through ApplyBalanceDelta.
func (s *accountService) UpdateAccount(userID, accountID uint, name string) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Account{}).
		Where("user_id = ? AND name = ? AND id != ?", userID, name, accountID).
		Count(&count).Error; err != nil {
		return nil, wrapDBError(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateAccount
	}

	account.Name = name
	if err := s.db.Model(account).Update("name", name).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return account, nil
}

// DeleteAccount deletes an account only when no transaction references it,
// so the ledger history behind every balance stays reconstructible.
func (s *accountService) DeleteAccount(userID, accountID uint) error {
	account, err := s.GetAccountByID(userID, accountID)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.Model(&models.Transaction{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		return wrapDBError(err)
	}
	if count > 0 {
		return apperrors.ErrAccountInUse
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Recurring templates pointing at the account would fail on their
		// next materialization, so they go with it.
		if err := tx.Where("account_id = ?", accountID).Delete(&models.RecurringTransaction{}).Error; err != nil {
			return wrapDBError(err)
		}
		if err := tx.Delete(account).Error; err != nil {
			return wrapDBError(err)
		}
		return nil
	})
}

// ApplyBalanceDelta adjusts an account balance by delta as a single atomic
// increment against the stored value. It must be called inside the caller's
// database transaction; the balance is never read into memory, recomputed,
// and written back, so concurrent deltas against the same account cannot
// overwrite each other.
func (s *accountService) ApplyBalanceDelta(tx *gorm.DB, accountID uint, delta int64) error {
	result := tx.Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumn("balance", gorm.Expr("balance + ?", delta))
	if result.Error != nil {
		return wrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}
