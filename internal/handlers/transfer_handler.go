package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finledger/internal/errors"
	"finledger/internal/money"
	"finledger/internal/services"
)

// TransferHandler handles transfer-related requests.
type TransferHandler struct {
	transferService services.TransferServicer
	auditService    services.AuditServicer
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferService services.TransferServicer, auditService services.AuditServicer) *TransferHandler {
	return &TransferHandler{transferService: transferService, auditService: auditService}
}

// TransferRequest represents the payload for executing a transfer.
// Amount is a decimal string such as "200.00".
type TransferRequest struct {
	FromAccountID uint    `json:"from_account_id" binding:"required"`
	ToAccountID   uint    `json:"to_account_id" binding:"required"`
	Amount        string  `json:"amount" binding:"required"`
	Description   string  `json:"description" binding:"max=500"`
	Date          *string `json:"date"`
}

// TransferResponse represents the two linked legs of an executed transfer.
type TransferResponse struct {
	LegOut TransactionResponse `json:"leg_out"`
	LegIn  TransactionResponse `json:"leg_in"`
}

// ExecuteTransfer moves funds between two accounts
// @Summary     Execute a transfer
// @Description Move funds between two of the user's accounts as two linked transactions
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransferRequest true "Transfer details"
// @Success     201 {object} TransferResponse "Transfer executed"
// @Failure     400 {object} ErrorResponse "Invalid input, same account, or insufficient funds"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /transfers [post]
func (h *TransferHandler) ExecuteTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := money.ParseCents(req.Amount)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var date time.Time
	if req.Date != nil && *req.Date != "" {
		date, err = parseFlexibleTime(*req.Date)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	legOut, legIn, err := h.transferService.ExecuteTransfer(userID, req.FromAccountID, req.ToAccountID, amount, req.Description, date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(userID, "create", "transfer", legOut.ID, c.ClientIP(), "")
	c.JSON(http.StatusCreated, TransferResponse{
		LegOut: toTransactionResponse(legOut),
		LegIn:  toTransactionResponse(legIn),
	})
}

// CancelTransfer cancels a transfer given either leg
// @Summary     Cancel a transfer
// @Description Delete both legs of a transfer and reverse their balance effects
// @Tags        transfers
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Either leg's transaction ID"
// @Success     204 "Transfer cancelled"
// @Failure     400 {object} ErrorResponse "Not a transfer leg"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /transfers/{id} [delete]
func (h *TransferHandler) CancelTransfer(c *gin.Context) {
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

	if err := h.transferService.CancelTransfer(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Record(userID, "delete", "transfer", transactionID, c.ClientIP(), "")
	c.Status(http.StatusNoContent)
}
