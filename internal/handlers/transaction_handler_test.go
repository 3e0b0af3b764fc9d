package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/pagination"
	"finledger/internal/services"
	"finledger/internal/validator"
)

func init() {
	validator.Register()
}

// --- mock transaction service ---

type mockTransactionService struct {
	createFn             func(userID, accountID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	updateFn             func(userID, transactionID, accountID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error)
	deleteFn             func(userID, transactionID uint) error
	getByIDFn            func(userID, transactionID uint) (*models.Transaction, error)
	getUserFn            func(userID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getAccountFn         func(userID, accountID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getRecentFn          func(userID uint, limit int) ([]models.Transaction, error)
	monthlySummaryFn     func(userID uint, month, year int) (*services.MonthlySummary, error)
	spendingByCategoryFn func(userID uint, month, year int) ([]services.CategorySpend, error)
}

func (m *mockTransactionService) CreateTransaction(userID, accountID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(userID, accountID, categoryID, txType, amount, description, date)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) CreateTransactionTx(_ *gorm.DB, userID, accountID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error) {
	return m.CreateTransaction(userID, accountID, categoryID, txType, amount, description, date)
}

func (m *mockTransactionService) UpdateTransaction(userID, transactionID, accountID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, transactionID, accountID, categoryID, txType, amount, description, date)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID uint) (*models.Transaction, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(userID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserFn != nil {
		return m.getUserFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetAccountTransactions(userID, accountID uint, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(userID, accountID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetRecentTransactions(userID uint, limit int) ([]models.Transaction, error) {
	if m.getRecentFn != nil {
		return m.getRecentFn(userID, limit)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) GetMonthlySummary(userID uint, month, year int) (*services.MonthlySummary, error) {
	if m.monthlySummaryFn != nil {
		return m.monthlySummaryFn(userID, month, year)
	}
	return &services.MonthlySummary{Month: month, Year: year}, nil
}

func (m *mockTransactionService) GetSpendingByCategory(userID uint, month, year int) ([]services.CategorySpend, error) {
	if m.spendingByCategoryFn != nil {
		return m.spendingByCategoryFn(userID, month, year)
	}
	return []services.CategorySpend{}, nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

// --- mock audit service ---

type mockAuditService struct{}

func (m *mockAuditService) Record(userID uint, action, resourceType string, resourceID uint, ipAddress, changes string) {
}

func (m *mockAuditService) GetUserAuditLogs(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLog], error) {
	resp := pagination.NewPageResponse([]models.AuditLog{}, 1, 20, 0)
	return &resp, nil
}

var _ services.AuditServicer = (*mockAuditService)(nil)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.GetUserTransactions)
	auth.GET("/transactions/recent", handler.GetRecentTransactions)
	auth.GET("/transactions/:id", handler.GetTransactionByID)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	auth.GET("/reports/summary", handler.GetMonthlySummary)
	auth.GET("/reports/spending", handler.GetSpendingByCategory)
	return r
}

func TestCreateTransactionHandler(t *testing.T) {
	t.Run("parses_decimal_amount", func(t *testing.T) {
		var gotAmount int64
		svc := &mockTransactionService{
			createFn: func(userID, accountID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error) {
				gotAmount = amount
				tx := &models.Transaction{AccountID: accountID, Type: txType, Amount: amount}
				tx.ID = 1
				return tx, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/transactions",
			`{"account_id":1,"type":"expense","amount":"150.00","description":"Groceries"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAmount != 15000 {
			t.Errorf("expected 15000 cents, got %d", gotAmount)
		}

		body := parseJSON(t, rec)
		if body["amount"] != "150.00" {
			t.Errorf("expected formatted amount 150.00, got %v", body["amount"])
		}
	})

	t.Run("rejects_malformed_amount", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/transactions",
			`{"account_id":1,"type":"expense","amount":"12.345"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, rec, "INVALID_INPUT")
	})

	t.Run("rejects_unknown_type", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/transactions",
			`{"account_id":1,"type":"transfer","amount":"10.00"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("propagates_service_error", func(t *testing.T) {
		svc := &mockTransactionService{
			createFn: func(userID, accountID uint, categoryID *uint, txType models.TransactionType, amount int64, description string, date time.Time) (*models.Transaction, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/transactions",
			`{"account_id":42,"type":"income","amount":"10.00"}`)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, rec, "ACCOUNT_NOT_FOUND")
	})
}

func TestDeleteTransactionHandler(t *testing.T) {
	t.Run("transfer_leg_rejected", func(t *testing.T) {
		svc := &mockTransactionService{
			deleteFn: func(userID, transactionID uint) error {
				return apperrors.ErrTransferImmutable
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodDelete, "/transactions/5", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, rec, "TRANSFER_IMMUTABLE")
	})

	t.Run("invalid_id", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodDelete, "/transactions/abc", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestGetMonthlySummaryHandler(t *testing.T) {
	t.Run("formats_totals", func(t *testing.T) {
		svc := &mockTransactionService{
			monthlySummaryFn: func(userID uint, month, year int) (*services.MonthlySummary, error) {
				return &services.MonthlySummary{Month: month, Year: year, Income: 500000, Expenses: 123450, Net: 376550}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/reports/summary?month=3&year=2026", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if body["income"] != "5000.00" || body["expenses"] != "1234.50" || body["net"] != "3765.50" {
			t.Errorf("unexpected formatted summary: %v", body)
		}
	})

	t.Run("missing_period", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodGet, "/reports/summary", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
