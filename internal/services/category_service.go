package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a category, unique per (user, name, type).
func (s *categoryService) CreateCategory(userID uint, name string, categoryType models.CategoryType) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ? AND type = ?", userID, name, categoryType).
		Count(&count).Error; err != nil {
		return nil, wrapDBError(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := s.db.Create(category).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrDuplicateCategory
		}
		return nil, wrapDBError(err)
	}
	return category, nil
}

// GetUserCategories retrieves a paginated list of the user's categories.
func (s *categoryService) GetUserCategories(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapDBError(err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).Order("type asc, name asc").Find(&categories).Error; err != nil {
		return nil, wrapDBError(err)
	}

	resp := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &resp, nil
}

// GetCategoryByID retrieves a category, enforcing ownership.
func (s *categoryService) GetCategoryByID(userID, categoryID uint) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, wrapDBError(err)
	}
	return &category, nil
}

// UpdateCategory renames a category. The type is immutable because budgets
// and summaries partition on it.
func (s *categoryService) UpdateCategory(userID, categoryID uint, name string) (*models.Category, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ? AND type = ? AND id != ?", userID, name, category.Type, categoryID).
		Count(&count).Error; err != nil {
		return nil, wrapDBError(err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category.Name = name
	if err := s.db.Model(category).Update("name", name).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return category, nil
}

// DeleteCategory removes a category. Referencing transactions and recurring
// templates are detached (category set to null), never deleted: the category
// is a label, not an owner, and removing it must not touch any balance.
// Budgets for the category lose their subject and are deleted with it.
func (s *categoryService) DeleteCategory(userID, categoryID uint) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).
			Where("category_id = ?", categoryID).
			Update("category_id", nil).Error; err != nil {
			return wrapDBError(err)
		}
		if err := tx.Model(&models.RecurringTransaction{}).
			Where("category_id = ?", categoryID).
			Update("category_id", nil).Error; err != nil {
			return wrapDBError(err)
		}
		if err := tx.Where("category_id = ?", categoryID).Delete(&models.Budget{}).Error; err != nil {
			return wrapDBError(err)
		}
		if err := tx.Delete(category).Error; err != nil {
			return wrapDBError(err)
		}
		return nil
	})
}
