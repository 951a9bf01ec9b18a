package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kaspi-seller-dashboard/internal/auth"
)

type runSyncRequest struct {
	From string `json:"from"` // YYYY-MM-DD, default today
	To   string `json:"to"`   // YYYY-MM-DD, default today
}

// handleRunSync triggers an on-demand marketplace sync for the caller's
// store. The sync runs in the background; progress arrives over the
// websocket as sync events.
func (s *Server) handleRunSync(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	var req runSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	today := time.Now().UTC()
	from, to := today, today

	if req.From != "" {
		t, err := time.Parse("2006-01-02", req.From)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
		from = t
	}
	if req.To != "" {
		t, err := time.Parse("2006-01-02", req.To)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
		to = t
	}
	if from.After(to) {
		errorResponse(c, http.StatusBadRequest, "from date is after to date")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := s.ingest.SyncRange(ctx, userID, from, to); err != nil {
			log.Printf("[API] On-demand sync failed for user %s: %v", userID, err)
			return
		}
		s.dashboards.Invalidate(ctx, userID)
	}()

	successResponse(c, http.StatusAccepted, gin.H{
		"started": true,
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
	})
}
