package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kaspi-seller-dashboard/internal/auth"
	"kaspi-seller-dashboard/internal/database"
	"kaspi-seller-dashboard/internal/events"
)

// handleListRestock returns the merchant's restock orders
func (s *Server) handleListRestock(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	orders, err := s.repo.GetRestockOrders(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load restock orders")
		return
	}

	successResponse(c, http.StatusOK, orders)
}

type createRestockRequest struct {
	SKU         string  `json:"sku" binding:"required"`
	ProductName string  `json:"product_name"`
	Qty         int     `json:"qty" binding:"required,gt=0"`
	UnitCost    float64 `json:"unit_cost" binding:"gte=0"`
	Supplier    string  `json:"supplier"`
	ExpectedAt  string  `json:"expected_at"` // YYYY-MM-DD, optional
}

// handleCreateRestock records a new restock order
func (s *Server) handleCreateRestock(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	var req createRestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var expectedAt *time.Time
	if req.ExpectedAt != "" {
		t, err := time.Parse("2006-01-02", req.ExpectedAt)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid expected_at, expected YYYY-MM-DD")
			return
		}
		expectedAt = &t
	}

	order, err := s.repo.CreateRestockOrder(c.Request.Context(), userID, database.RestockOrder{
		SKU:         req.SKU,
		ProductName: req.ProductName,
		Qty:         req.Qty,
		UnitCost:    req.UnitCost,
		Supplier:    req.Supplier,
		ExpectedAt:  expectedAt,
		Status:      database.RestockStatusPending,
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create restock order")
		return
	}

	s.eventBus.Publish(events.Event{
		Type:   events.EventRestockChanged,
		UserID: userID,
		Data:   map[string]interface{}{"action": "created", "order_id": order.ID},
	})

	successResponse(c, http.StatusCreated, order)
}

type updateRestockStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// handleUpdateRestockStatus moves a restock order through its lifecycle
func (s *Server) handleUpdateRestockStatus(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	orderID := c.Param("id")

	var req updateRestockStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	switch req.Status {
	case database.RestockStatusPending, database.RestockStatusOrdered,
		database.RestockStatusDelivered, database.RestockStatusCancelled:
	default:
		errorResponse(c, http.StatusBadRequest, "unknown status")
		return
	}

	updated, err := s.repo.UpdateRestockStatus(c.Request.Context(), userID, orderID, req.Status)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update restock order")
		return
	}
	if !updated {
		errorResponse(c, http.StatusNotFound, "restock order not found")
		return
	}

	s.eventBus.Publish(events.Event{
		Type:   events.EventRestockChanged,
		UserID: userID,
		Data:   map[string]interface{}{"action": "status", "order_id": orderID, "status": req.Status},
	})

	successResponse(c, http.StatusOK, gin.H{"id": orderID, "status": req.Status})
}

// handleDeleteRestock removes a restock order
func (s *Server) handleDeleteRestock(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	orderID := c.Param("id")

	deleted, err := s.repo.DeleteRestockOrder(c.Request.Context(), userID, orderID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to delete restock order")
		return
	}
	if !deleted {
		errorResponse(c, http.StatusNotFound, "restock order not found")
		return
	}

	s.eventBus.Publish(events.Event{
		Type:   events.EventRestockChanged,
		UserID: userID,
		Data:   map[string]interface{}{"action": "deleted", "order_id": orderID},
	})

	successResponse(c, http.StatusOK, gin.H{"deleted": true})
}
