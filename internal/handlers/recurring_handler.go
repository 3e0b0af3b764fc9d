package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "finledger/internal/errors"
	"finledger/internal/models"
	"finledger/internal/money"
	"finledger/internal/pagination"
	"finledger/internal/services"
)

// RecurringHandler handles recurring transaction template requests.
type RecurringHandler struct {
	recurringService services.RecurringServicer
}

// NewRecurringHandler creates a new RecurringHandler.
func NewRecurringHandler(recurringService services.RecurringServicer) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService}
}

// CreateRecurringRequest represents the payload for creating a template.
// Amount is a decimal string such as "999.00".
type CreateRecurringRequest struct {
	AccountID   uint                   `json:"account_id" binding:"required"`
	CategoryID  *uint                  `json:"category_id"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount      string                 `json:"amount" binding:"required"`
	Description string                 `json:"description" binding:"max=500"`
	Frequency   models.Frequency       `json:"frequency" binding:"required,frequency"`
	NextDueDate string                 `json:"next_due_date" binding:"required"`
}

// UpdateRecurringRequest represents the payload for editing a template.
type UpdateRecurringRequest struct {
	Amount      string           `json:"amount" binding:"required"`
	Description string           `json:"description" binding:"max=500"`
	Frequency   models.Frequency `json:"frequency" binding:"required,frequency"`
	NextDueDate *string          `json:"next_due_date"`
	IsActive    *bool            `json:"is_active" binding:"required"`
}

// RecurringResponse represents a recurring template in the response.
type RecurringResponse struct {
	ID          uint                   `json:"id"`
	AccountID   uint                   `json:"account_id"`
	CategoryID  *uint                  `json:"category_id,omitempty"`
	Type        models.TransactionType `json:"type"`
	Amount      string                 `json:"amount"`
	Description string                 `json:"description"`
	Frequency   models.Frequency       `json:"frequency"`
	NextDueDate time.Time              `json:"next_due_date"`
	IsActive    bool                   `json:"is_active"`
}

func toRecurringResponse(r *models.RecurringTransaction) RecurringResponse {
	return RecurringResponse{
		ID:          r.ID,
		AccountID:   r.AccountID,
		CategoryID:  r.CategoryID,
		Type:        r.Type,
		Amount:      money.FormatCents(r.Amount),
		Description: r.Description,
		Frequency:   r.Frequency,
		NextDueDate: r.NextDueDate,
		IsActive:    r.IsActive,
	}
}

// CreateRecurring creates a recurring transaction template
// @Summary     Create a recurring transaction
// @Description Create a template the scheduler materializes when due
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateRecurringRequest true "Template details"
// @Success     201 {object} RecurringResponse "Template created"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Router      /recurring [post]
func (h *RecurringHandler) CreateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := money.ParseCents(req.Amount)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	nextDueDate, err := parseFlexibleTime(req.NextDueDate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	recurring, err := h.recurringService.CreateRecurring(userID, req.AccountID, req.CategoryID, req.Type, amount, req.Description, req.Frequency, nextDueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toRecurringResponse(recurring))
}

// GetUserRecurring lists the user's recurring templates
// @Summary     List recurring transactions
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[RecurringResponse] "Templates"
// @Router      /recurring [get]
func (h *RecurringHandler) GetUserRecurring(c *gin.Context) {
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

	result, err := h.recurringService.GetUserRecurring(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]RecurringResponse, len(result.Data))
	for i := range result.Data {
		responses[i] = toRecurringResponse(&result.Data[i])
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(responses, result.Page, result.PageSize, result.TotalItems))
}

// GetRecurringByID retrieves one recurring template
// @Summary     Get a recurring transaction
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Template ID"
// @Success     200 {object} RecurringResponse "Template"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /recurring/{id} [get]
func (h *RecurringHandler) GetRecurringByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurring, err := h.recurringService.GetRecurringByID(userID, recurringID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRecurringResponse(recurring))
}

// UpdateRecurring edits a recurring template
// @Summary     Update a recurring transaction
// @Tags        recurring
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Template ID"
// @Param       request body UpdateRecurringRequest true "New template details"
// @Success     200 {object} RecurringResponse "Template updated"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /recurring/{id} [put]
func (h *RecurringHandler) UpdateRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := money.ParseCents(req.Amount)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var nextDueDate time.Time
	if req.NextDueDate != nil && *req.NextDueDate != "" {
		nextDueDate, err = parseFlexibleTime(*req.NextDueDate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	recurring, err := h.recurringService.UpdateRecurring(userID, recurringID, amount, req.Description, req.Frequency, nextDueDate, *req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toRecurringResponse(recurring))
}

// DeleteRecurring removes a recurring template
// @Summary     Delete a recurring transaction
// @Description Delete a template; transactions it already posted are kept
// @Tags        recurring
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Template ID"
// @Success     204 "Template deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /recurring/{id} [delete]
func (h *RecurringHandler) DeleteRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recurringID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recurringService.DeleteRecurring(userID, recurringID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
