package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kaspi-seller-dashboard/internal/analytics"
	"kaspi-seller-dashboard/internal/auth"
	"kaspi-seller-dashboard/internal/events"
)

// handleListExpenses returns the merchant's operational expenses
func (s *Server) handleListExpenses(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	expenses, err := s.repo.GetExpenses(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load expenses")
		return
	}

	successResponse(c, http.StatusOK, expenses)
}

type createExpenseRequest struct {
	Name         string  `json:"name" binding:"required"`
	Amount       float64 `json:"amount" binding:"required,gt=0"`
	StartDate    string  `json:"start_date" binding:"required"`
	EndDate      string  `json:"end_date" binding:"required"`
	ProductID    string  `json:"product_id"`
	ProductGroup string  `json:"product_group"`
}

// handleCreateExpense records a new operational expense. The window is
// inclusive on both ends; an inverted window is accepted and treated as a
// one-day expense by the aggregation engine.
func (s *Server) handleCreateExpense(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	var req createExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
		return
	}

	expense, err := s.repo.CreateExpense(c.Request.Context(), userID, analytics.OperationalExpense{
		Name:         req.Name,
		Amount:       req.Amount,
		StartDate:    start,
		EndDate:      end,
		ProductID:    req.ProductID,
		ProductGroup: req.ProductGroup,
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create expense")
		return
	}

	s.dashboards.Invalidate(c.Request.Context(), userID)
	s.eventBus.Publish(events.Event{
		Type:   events.EventExpenseChanged,
		UserID: userID,
		Data:   map[string]interface{}{"action": "created", "expense_id": expense.ID},
	})

	successResponse(c, http.StatusCreated, expense)
}

// handleDeleteExpense removes an operational expense
func (s *Server) handleDeleteExpense(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	expenseID := c.Param("id")

	deleted, err := s.repo.DeleteExpense(c.Request.Context(), userID, expenseID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete expense")
		return
	}
	if !deleted {
		errorResponse(c, http.StatusNotFound, "expense not found")
		return
	}

	s.dashboards.Invalidate(c.Request.Context(), userID)
	s.eventBus.Publish(events.Event{
		Type:   events.EventExpenseChanged,
		UserID: userID,
		Data:   map[string]interface{}{"action": "deleted", "expense_id": expenseID},
	})

	successResponse(c, http.StatusOK, gin.H{"deleted": true})
}
