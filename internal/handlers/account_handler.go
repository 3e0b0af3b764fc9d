package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/money"
	"finledger/internal/pagination"
	"finledger/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the request payload for creating an account.
// InitialBalance is a decimal string such as "1500.00".
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required,max=100"`
	Kind           models.AccountKind `json:"kind" binding:"required,account_kind"`
	InitialBalance string             `json:"initial_balance"`
}

// UpdateAccountRequest represents the request payload for renaming an account.
type UpdateAccountRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// AccountResponse represents an account in the response.
type AccountResponse struct {
	ID      uint               `json:"id"`
	Name    string             `json:"name"`
	Kind    models.AccountKind `json:"kind"`
	Balance string             `json:"balance"`
}

func toAccountResponse(account *models.Account) AccountResponse {
	return AccountResponse{
		ID:      account.ID,
		Name:    account.Name,
		Kind:    account.Kind,
		Balance: money.FormatCents(account.Balance),
	}
}

// CreateAccount handles account creation
// @Summary     Create an account
// @Description Create a financial account with an optional initial balance
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} AccountResponse "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate name"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var initialBalance int64
	if req.InitialBalance != "" {
		initialBalance, err = money.ParseCents(req.InitialBalance)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	account, err := h.accountService.CreateAccount(userID, req.Name, req.Kind, initialBalance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(userID, "create", "account", account.ID, c.ClientIP(), "")
	c.JSON(http.StatusCreated, toAccountResponse(account))
}

// GetUserAccounts lists the user's accounts
// @Summary     List accounts
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[AccountResponse] "Accounts"
// @Router      /accounts [get]
func (h *AccountHandler) GetUserAccounts(c *gin.Context) {
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

	result, err := h.accountService.GetUserAccounts(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]AccountResponse, len(result.Data))
	for i := range result.Data {
		responses[i] = toAccountResponse(&result.Data[i])
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(responses, result.Page, result.PageSize, result.TotalItems))
}

// GetAccountByID retrieves one account
// @Summary     Get an account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Account ID"
// @Success     200 {object} AccountResponse "Account"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
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

	account, err := h.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAccountResponse(account))
}

// UpdateAccount renames an account
// @Summary     Rename an account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Account ID"
// @Param       request body UpdateAccountRequest true "New name"
// @Success     200 {object} AccountResponse "Account updated"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
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

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.UpdateAccount(userID, accountID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(userID, "update", "account", account.ID, c.ClientIP(), "")
	c.JSON(http.StatusOK, toAccountResponse(account))
}

// DeleteAccount deletes an unused account
// @Summary     Delete an account
// @Description Delete an account that has no transactions
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Account ID"
// @Success     204 "Account deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Failure     409 {object} ErrorResponse "Account has transactions"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
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

	if err := h.accountService.DeleteAccount(userID, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(userID, "delete", "account", accountID, c.ClientIP(), "")
	c.Status(http.StatusNoContent)
}
