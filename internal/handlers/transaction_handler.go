package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/money"
	"finledger/internal/pagination"
	"finledger/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// TransactionRequest represents the payload for creating or amending a
// transaction. Amount is a decimal string such as "150.00".
type TransactionRequest struct {
	AccountID   uint                   `json:"account_id" binding:"required"`
	CategoryID  *uint                  `json:"category_id"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount      string                 `json:"amount" binding:"required"`
	Description string                 `json:"description" binding:"max=500"`
	Date        *string                `json:"date"`
}

// TransactionResponse represents a transaction in the response.
type TransactionResponse struct {
	ID                   uint                   `json:"id"`
	AccountID            uint                   `json:"account_id"`
	CategoryID           *uint                  `json:"category_id,omitempty"`
	Type                 models.TransactionType `json:"type"`
	Amount               string                 `json:"amount"`
	Description          string                 `json:"description"`
	Date                 time.Time              `json:"date"`
	IsTransfer           bool                   `json:"is_transfer"`
	RelatedTransactionID *uint                  `json:"related_transaction_id,omitempty"`
}

func toTransactionResponse(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                   tx.ID,
		AccountID:            tx.AccountID,
		CategoryID:           tx.CategoryID,
		Type:                 tx.Type,
		Amount:               money.FormatCents(tx.Amount),
		Description:          tx.Description,
		Date:                 tx.Date,
		IsTransfer:           tx.IsTransfer,
		RelatedTransactionID: tx.RelatedTransactionID,
	}
}

// parseTransactionRequest converts the wire payload into service inputs.
func parseTransactionRequest(req *TransactionRequest) (int64, time.Time, error) {
	amount, err := money.ParseCents(req.Amount)
	if err != nil {
		return 0, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	var date time.Time
	if req.Date != nil && *req.Date != "" {
		date, err = parseFlexibleTime(*req.Date)
		if err != nil {
			return 0, time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
	}
	return amount, date, nil
}

// CreateTransaction posts a new transaction
// @Summary     Create a transaction
// @Description Post an income or expense transaction against an account
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} TransactionResponse "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, date, err := parseTransactionRequest(&req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(userID, req.AccountID, req.CategoryID, req.Type, amount, req.Description, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(userID, "create", "transaction", transaction.ID, c.ClientIP(), "")
	c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// UpdateTransaction amends an existing transaction
// @Summary     Amend a transaction
// @Description Amend a transaction; balances are re-derived atomically
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Param       request body TransactionRequest true "New transaction details"
// @Success     200 {object} TransactionResponse "Transaction updated"
// @Failure     400 {object} ErrorResponse "Invalid input or transfer leg"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, date, err := parseTransactionRequest(&req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, req.AccountID, req.CategoryID, req.Type, amount, req.Description, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(userID, "update", "transaction", transaction.ID, c.ClientIP(), "")
	c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction voids a transaction
// @Summary     Void a transaction
// @Description Delete a transaction, reversing its balance effect
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     204 "Transaction voided"
// @Failure     400 {object} ErrorResponse "Transfer leg"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(userID, "delete", "transaction", transactionID, c.ClientIP(), "")
	c.Status(http.StatusNoContent)
}

// GetTransactionByID retrieves one transaction
// @Summary     Get a transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// GetUserTransactions lists the user's transactions with optional filters
// @Summary     List transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       from query string false "From date (YYYY-MM-DD)"
// @Param       to query string false "To date (YYYY-MM-DD)"
// @Param       type query string false "Transaction type"
// @Param       category_id query int false "Category ID"
// @Param       account_id query int false "Account ID"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Transactions"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]TransactionResponse, len(result.Data))
	for i := range result.Data {
		responses[i] = toTransactionResponse(&result.Data[i])
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(responses, result.Page, result.PageSize, result.TotalItems))
}

// GetAccountTransactions lists one account's transactions with filters
// @Summary     List account transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Account ID"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Param       from query string false "From date (YYYY-MM-DD)"
// @Param       to query string false "To date (YYYY-MM-DD)"
// @Param       type query string false "Transaction type"
// @Param       category_id query int false "Category ID"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Transactions"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/transactions [get]
func (h *TransactionHandler) GetAccountTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetAccountTransactions(userID, accountID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]TransactionResponse, len(result.Data))
	for i := range result.Data {
		responses[i] = toTransactionResponse(&result.Data[i])
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(responses, result.Page, result.PageSize, result.TotalItems))
}

// GetRecentTransactions lists the user's most recent transactions
// @Summary     Recent transactions
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       limit query int false "Number of transactions (default 10, max 100)"
// @Success     200 {array} TransactionResponse "Transactions"
// @Router      /transactions/recent [get]
func (h *TransactionHandler) GetRecentTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	limit := 10
	if v := c.Query("limit"); v != "" {
		parsed, parseErr := strconv.Atoi(v)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid limit"))
			return
		}
		limit = parsed
	}

	transactions, err := h.transactionService.GetRecentTransactions(userID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]TransactionResponse, len(transactions))
	for i := range transactions {
		responses[i] = toTransactionResponse(&transactions[i])
	}
	c.JSON(http.StatusOK, responses)
}

// MonthlySummaryResponse is the formatted monthly income/expense summary.
type MonthlySummaryResponse struct {
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
}

// GetMonthlySummary reports income and expense totals for a month
// @Summary     Monthly summary
// @Description Income and expense totals for a month, excluding transfers
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       month query int true "Month (1-12)"
// @Param       year query int true "Year"
// @Success     200 {object} MonthlySummaryResponse "Summary"
// @Router      /reports/summary [get]
func (h *TransactionHandler) GetMonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, year, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.transactionService.GetMonthlySummary(userID, month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MonthlySummaryResponse{
		Month:    summary.Month,
		Year:     summary.Year,
		Income:   money.FormatCents(summary.Income),
		Expenses: money.FormatCents(summary.Expenses),
		Net:      money.FormatCents(summary.Net),
	})
}

// CategorySpendResponse is one row of the per-category spending report.
type CategorySpendResponse struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	Total        string `json:"total"`
}

// GetSpendingByCategory reports per-category expense totals for a month
// @Summary     Spending by category
// @Tags        reports
// @Produce     json
// @Security    BearerAuth
// @Param       month query int true "Month (1-12)"
// @Param       year query int true "Year"
// @Success     200 {array} CategorySpendResponse "Spending rows"
// @Router      /reports/spending [get]
func (h *TransactionHandler) GetSpendingByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, year, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.transactionService.GetSpendingByCategory(userID, month, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]CategorySpendResponse, len(rows))
	for i, row := range rows {
		responses[i] = CategorySpendResponse{
			CategoryID:   row.CategoryID,
			CategoryName: row.CategoryName,
			Total:        money.FormatCents(row.Total),
		}
	}
	c.JSON(http.StatusOK, responses)
}

// parseTransactionFilter reads the optional list filters from the query string.
func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		filter.FromDate = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		filter.ToDate = &t
	}
	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if txType != models.TransactionTypeIncome && txType != models.TransactionTypeExpense {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid type")
		}
		filter.Type = &txType
	}
	if v := c.Query("category_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid category_id")
		}
		categoryID := uint(id)
		filter.CategoryID = &categoryID
	}
	if v := c.Query("account_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid account_id")
		}
		accountID := uint(id)
		filter.AccountID = &accountID
	}
	return filter, nil
}

// parsePeriod reads the required month and year query parameters.
func parsePeriod(c *gin.Context) (int, int, error) {
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid month")
	}
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		return 0, 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid year")
	}
	return month, year, nil
}
