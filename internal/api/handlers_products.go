package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaspi-seller-dashboard/internal/auth"
	"kaspi-seller-dashboard/internal/events"
)

// handleListProducts returns the merchant's product metadata rows
func (s *Server) handleListProducts(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	products, err := s.repo.GetProducts(c.Request.Context(), userID)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to load products")
		return
	}

	successResponse(c, http.StatusOK, products)
}

type updatePriceRequest struct {
	Price float64 `json:"price" binding:"required,gt=0"`
}

// handleUpdatePrice changes one product's price both locally and on the
// marketplace. The local row is updated first; a marketplace push failure is
// surfaced but does not roll the local change back, the next catalog sync
// reconciles.
func (s *Server) handleUpdatePrice(c *gin.Context) {
	userID := auth.UserIDFromContext(c)
	sku := c.Param("sku")

	var req updatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	updated, err := s.repo.UpdateProductPrice(c.Request.Context(), userID, sku, req.Price)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to update price")
		return
	}
	if !updated {
		errorResponse(c, http.StatusNotFound, "product not found")
		return
	}

	pushed := false
	if client, err := s.kaspiFactory.ClientFor(c.Request.Context(), userID); err == nil {
		if err := client.UpdatePrice(c.Request.Context(), sku, req.Price); err == nil {
			pushed = true
		}
	}

	s.eventBus.Publish(events.Event{
		Type:   events.EventPriceUpdated,
		UserID: userID,
		Data:   map[string]interface{}{"sku": sku, "price": req.Price, "pushed": pushed},
	})

	successResponse(c, http.StatusOK, gin.H{"sku": sku, "price": req.Price, "marketplace_updated": pushed})
}
