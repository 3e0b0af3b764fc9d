package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/logger"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// recurringService manages recurring transaction templates. Templates never
// touch balances themselves; materialization posts an ordinary transaction
// through the ledger, which owns the balance effect.
type recurringService struct {
	db                 *gorm.DB
	transactionService TransactionServicer
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB, transactionService TransactionServicer) RecurringServicer {
	return &recurringService{
		db:                 db,
		transactionService: transactionService,
	}
}

// CreateRecurring creates a recurring transaction template.
func (s *recurringService) CreateRecurring(
	userID uint,
	accountID uint,
	categoryID *uint,
	transactionType models.TransactionType,
	amount int64,
	description string,
	frequency models.Frequency,
	nextDueDate time.Time,
) (*models.RecurringTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if nextDueDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "next due date is required")
	}

	var count int64
	if err := s.db.Model(&models.Account{}).Where("id = ? AND user_id = ?", accountID, userID).Count(&count).Error; err != nil {
		return nil, wrapDBError(err)
	}
	if count == 0 {
		return nil, apperrors.ErrAccountNotFound
	}
	if categoryID != nil {
		if err := s.db.Model(&models.Category{}).Where("id = ? AND user_id = ?", *categoryID, userID).Count(&count).Error; err != nil {
			return nil, wrapDBError(err)
		}
		if count == 0 {
			return nil, apperrors.ErrCategoryNotFound
		}
	}

	recurring := &models.RecurringTransaction{
		UserID:      userID,
		AccountID:   accountID,
		CategoryID:  categoryID,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Frequency:   frequency,
		NextDueDate: nextDueDate,
		IsActive:    true,
	}
	if err := s.db.Create(recurring).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return recurring, nil
}

// GetUserRecurring retrieves a paginated list of the user's recurring templates.
func (s *recurringService) GetUserRecurring(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error) {
	page.Defaults()

	base := s.db.Model(&models.RecurringTransaction{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapDBError(err)
	}

	var recurring []models.RecurringTransaction
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("next_due_date asc").
		Find(&recurring).Error; err != nil {
		return nil, wrapDBError(err)
	}

	resp := pagination.NewPageResponse(recurring, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// GetRecurringByID retrieves a recurring template, enforcing ownership.
func (s *recurringService) GetRecurringByID(userID, recurringID uint) (*models.RecurringTransaction, error) {
	var recurring models.RecurringTransaction
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", recurringID, userID).
		First(&recurring).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecurringNotFound
		}
		return nil, wrapDBError(err)
	}
	return &recurring, nil
}

// UpdateRecurring edits a recurring template. Account and type are immutable;
// recreate the template to move it to another account.
func (s *recurringService) UpdateRecurring(
	userID uint,
	recurringID uint,
	amount int64,
	description string,
	frequency models.Frequency,
	nextDueDate time.Time,
	isActive bool,
) (*models.RecurringTransaction, error) {
	if amount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return nil, err
	}
	if nextDueDate.IsZero() {
		nextDueDate = recurring.NextDueDate
	}

	recurring.Amount = amount
	recurring.Description = description
	recurring.Frequency = frequency
	recurring.NextDueDate = nextDueDate
	recurring.IsActive = isActive

	if err := s.db.Model(recurring).
		Select("amount", "description", "frequency", "next_due_date", "is_active").
		Updates(map[string]interface{}{
			"amount":        amount,
			"description":   description,
			"frequency":     frequency,
			"next_due_date": nextDueDate,
			"is_active":     isActive,
		}).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return recurring, nil
}

// DeleteRecurring removes a recurring template. Transactions it already
// materialized stay in the ledger.
func (s *recurringService) DeleteRecurring(userID, recurringID uint) error {
	recurring, err := s.GetRecurringByID(userID, recurringID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(recurring).Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

// MaterializeDueRecurring posts a transaction for every active template
// whose next due date has arrived, across all users, and advances each
// template by one frequency unit. Each template is its own atomic unit: one
// template failing (say, its account was deleted) is logged and skipped,
// and the run carries on. Only a failure to read the due set at all is fatal.
func (s *recurringService) MaterializeDueRecurring(now time.Time) (*RecurringRunStats, error) {
	var due []models.RecurringTransaction
	if err := s.db.Where("is_active = ? AND next_due_date <= ?", true, now).
		Order("next_due_date asc, id asc").
		Find(&due).Error; err != nil {
		return nil, wrapDBError(err)
	}

	stats := &RecurringRunStats{}
	log := logger.Get()

	for i := range due {
		template := &due[i]
		if err := s.materializeOne(template); err != nil {
			stats.Failed++
			log.Errorw("failed to materialize recurring transaction",
				"recurring_id", template.ID,
				"user_id", template.UserID,
				"account_id", template.AccountID,
				"error", err.Error(),
			)
			continue
		}
		stats.Processed++
	}

	log.Infow("recurring run complete", "processed", stats.Processed, "failed", stats.Failed)
	return stats, nil
}

// materializeOne posts the template's transaction dated at its due date and
// advances the due date, as one database transaction. If either half fails
// the whole unit rolls back: a failed post never silently skips a period,
// and a failed advance never leaves a posted charge behind to be posted
// again on the next run. Zero rows affected on the advance means the
// template vanished after the due set was read, which rolls the post back
// the same way.
func (s *recurringService) materializeOne(template *models.RecurringTransaction) error {
	next := advanceDueDate(template.NextDueDate, template.Frequency)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.transactionService.CreateTransactionTx(
			tx,
			template.UserID,
			template.AccountID,
			template.CategoryID,
			template.Type,
			template.Amount,
			template.Description,
			template.NextDueDate,
		); err != nil {
			return err
		}

		res := tx.Model(&models.RecurringTransaction{}).
			Where("id = ?", template.ID).
			Update("next_due_date", next)
		if res.Error != nil {
			return wrapDBError(res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		return err
	}
	template.NextDueDate = next
	return nil
}

// advanceDueDate moves a due date forward by one frequency unit. Monthly and
// yearly steps use calendar arithmetic with the day-of-month clamped to the
// target month's last day, so a Jan 31 template fires on Feb 28 and not
// Mar 2 or 3.
func advanceDueDate(d time.Time, frequency models.Frequency) time.Time {
	switch frequency {
	case models.FrequencyDaily:
		return d.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case models.FrequencyYearly:
		return addClampedMonths(d, 12)
	default: // monthly
		return addClampedMonths(d, 1)
	}
}

// addClampedMonths adds months keeping the day-of-month, clamped to the last
// day of the target month. time.AddDate alone normalizes overflow (Jan 31 +
// 1 month = Mar 2/3), which is exactly the drift this avoids.
func addClampedMonths(d time.Time, months int) time.Time {
	firstOfTarget := time.Date(d.Year(), d.Month(), 1, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location()).
		AddDate(0, months, 0)
	day := d.Day()
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
