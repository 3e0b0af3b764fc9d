package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// budgetService handles budget-related business logic. Budgets are pure
// reads over the ledger: the spent figure is derived on every evaluation,
// never stored.
type budgetService struct {
	db              *gorm.DB
	categoryService CategoryServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, categoryService CategoryServicer) BudgetServicer {
	return &budgetService{
		db:              db,
		categoryService: categoryService,
	}
}

// CreateBudget creates a monthly limit for a category, unique per
// (user, category, month, year).
func (s *budgetService) CreateBudget(userID, categoryID uint, limitAmount int64, month, year int) (*models.Budget, error) {
	if limitAmount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}
	if month < 1 || month > 12 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be between 1 and 12")
	}

	if _, err := s.categoryService.GetCategoryByID(userID, categoryID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Budget{}).
		Where("user_id = ? AND category_id = ? AND month = ? AND year = ?", userID, categoryID, month, year).
		Count(&count).Error; err != nil {
		return nil, wrapDBError(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	budget := &models.Budget{
		UserID:      userID,
		CategoryID:  categoryID,
		LimitAmount: limitAmount,
		Month:       month,
		Year:        year,
	}
	if err := s.db.Create(budget).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, wrapDBError(err)
	}
	return budget, nil
}

// GetUserBudgets retrieves the user's budgets for one period.
func (s *budgetService) GetUserBudgets(userID uint, month, year int, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ? AND month = ? AND year = ?", userID, month, year)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapDBError(err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("id asc").
		Find(&budgets).Error; err != nil {
		return nil, wrapDBError(err)
	}

	resp := pagination.NewPageResponse(budgets, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// GetBudgetByID retrieves a budget, enforcing ownership.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, wrapDBError(err)
	}
	return &budget, nil
}

// UpdateBudget changes a budget's limit. Category and period are immutable;
// a budget for a different period is a different budget.
func (s *budgetService) UpdateBudget(userID, budgetID uint, limitAmount int64) (*models.Budget, error) {
	if limitAmount <= 0 {
		return nil, apperrors.ErrInvalidAmount
	}

	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	budget.LimitAmount = limitAmount
	if err := s.db.Model(budget).Update("limit_amount", limitAmount).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return budget, nil
}

// DeleteBudget removes a budget. The ledger is untouched.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(budget).Error; err != nil {
		return wrapDBError(err)
	}
	return nil
}

// EvaluateBudget derives the spent, remaining, and percentage figures for a
// budget's period. Only expense transactions count, and transfer legs are
// excluded: money moved between the user's own accounts is not spending.
func (s *budgetService) EvaluateBudget(userID, budgetID uint) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	start, end := monthBounds(budget.Month, budget.Year)

	var spent int64
	if err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND category_id = ? AND type = ? AND is_transfer = ?",
			userID, budget.CategoryID, models.TransactionTypeExpense, false).
		Where("date >= ? AND date < ?", start, end).
		Scan(&spent).Error; err != nil {
		return nil, wrapDBError(err)
	}

	progress := &BudgetProgress{
		Budget:    budget,
		Spent:     spent,
		Remaining: budget.LimitAmount - spent,
	}
	if budget.LimitAmount > 0 {
		progress.Percentage = float64(spent) / float64(budget.LimitAmount) * 100
	}
	return progress, nil
}
