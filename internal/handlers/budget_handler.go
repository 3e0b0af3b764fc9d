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

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService}
}

// CreateBudgetRequest represents the payload for creating a budget.
// Limit is a decimal string such as "1000.00".
type CreateBudgetRequest struct {
	CategoryID uint   `json:"category_id" binding:"required"`
	Limit      string `json:"limit" binding:"required"`
	Month      int    `json:"month" binding:"required,min=1,max=12"`
	Year       int    `json:"year" binding:"required,min=2000,max=2200"`
}

// UpdateBudgetRequest represents the payload for changing a budget's limit.
type UpdateBudgetRequest struct {
	Limit string `json:"limit" binding:"required"`
}

// BudgetResponse represents a budget in the response.
type BudgetResponse struct {
	ID         uint   `json:"id"`
	CategoryID uint   `json:"category_id"`
	Limit      string `json:"limit"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

// BudgetProgressResponse represents a budget with its derived spend state.
type BudgetProgressResponse struct {
	Budget     BudgetResponse `json:"budget"`
	Spent      string         `json:"spent"`
	Remaining  string         `json:"remaining"`
	Percentage float64        `json:"percentage"`
}

func toBudgetResponse(budget *models.Budget) BudgetResponse {
	return BudgetResponse{
		ID:         budget.ID,
		CategoryID: budget.CategoryID,
		Limit:      money.FormatCents(budget.LimitAmount),
		Month:      budget.Month,
		Year:       budget.Year,
	}
}

// CreateBudget creates a monthly budget
// @Summary     Create a budget
// @Description Set a monthly spending limit for a category
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} BudgetResponse "Budget created"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Budget already exists for period"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	limit, err := money.ParseCents(req.Limit)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, req.CategoryID, limit, req.Month, req.Year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBudgetResponse(budget))
}

// GetUserBudgets lists the user's budgets for a period
// @Summary     List budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       month query int true "Month (1-12)"
// @Param       year query int true "Year"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[BudgetResponse] "Budgets"
// @Router      /budgets [get]
func (h *BudgetHandler) GetUserBudgets(c *gin.Context) {
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

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.budgetService.GetUserBudgets(userID, month, year, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	responses := make([]BudgetResponse, len(result.Data))
	for i := range result.Data {
		responses[i] = toBudgetResponse(&result.Data[i])
	}
	c.JSON(http.StatusOK, pagination.NewPageResponse(responses, result.Page, result.PageSize, result.TotalItems))
}

// GetBudgetProgress evaluates a budget's spend for its period
// @Summary     Budget progress
// @Description Derived spent, remaining, and percentage for a budget's period
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     200 {object} BudgetProgressResponse "Progress"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	progress, err := h.budgetService.EvaluateBudget(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, BudgetProgressResponse{
		Budget:     toBudgetResponse(progress.Budget),
		Spent:      money.FormatCents(progress.Spent),
		Remaining:  money.FormatCents(progress.Remaining),
		Percentage: progress.Percentage,
	})
}

// UpdateBudget changes a budget's limit
// @Summary     Update a budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Param       request body UpdateBudgetRequest true "New limit"
// @Success     200 {object} BudgetResponse "Budget updated"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	limit, err := money.ParseCents(req.Limit)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBudgetResponse(budget))
}

// DeleteBudget removes a budget
// @Summary     Delete a budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Budget ID"
// @Success     204 "Budget deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
