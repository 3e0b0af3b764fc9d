package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finledger/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a checking account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID uint) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, 0)
}

// CreateTestAccountWithBalance creates a checking account with the given balance (in cents).
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Account %d", nextID()),
		Kind:    models.AccountKindChecking,
		Balance: balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCreditCardAccount creates a credit card account with the given balance.
func CreateTestCreditCardAccount(t *testing.T, db *gorm.DB, userID uint, balance int64) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Credit Card %d", nextID()),
		Kind:    models.AccountKindCreditCard,
		Balance: balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test credit card account: %v", err)
	}
	return account
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID uint, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget creates a budget for the given category in the given period.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID uint, limitAmount int64, month, year int) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:      userID,
		CategoryID:  categoryID,
		LimitAmount: limitAmount,
		Month:       month,
		Year:        year,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestRecurring creates an active recurring transaction template.
func CreateTestRecurring(t *testing.T, db *gorm.DB, userID, accountID uint, amount int64, frequency models.Frequency, nextDueDate time.Time) *models.RecurringTransaction {
	t.Helper()

	recurring := &models.RecurringTransaction{
		UserID:      userID,
		AccountID:   accountID,
		Type:        models.TransactionTypeExpense,
		Amount:      amount,
		Description: fmt.Sprintf("Test Recurring %d", nextID()),
		Frequency:   frequency,
		NextDueDate: nextDueDate,
		IsActive:    true,
	}
	if err := db.Create(recurring).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return recurring
}

// ReloadAccount fetches the current stored state of an account.
func ReloadAccount(t *testing.T, db *gorm.DB, accountID uint) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.First(&account, accountID).Error; err != nil {
		t.Fatalf("failed to reload account %d: %v", accountID, err)
	}
	return &account
}
