package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"kaspi-seller-dashboard/internal/analytics"
	"kaspi-seller-dashboard/internal/auth"
	"kaspi-seller-dashboard/internal/dashboard"
)

// handleDashboardReport returns the aggregate report for a period.
//
// Query params:
//
//	start, end — period bounds (2006-01-02), both optional
//	sort       — product ordering: revenue (default), profit, margin, qty
func (s *Server) handleDashboardReport(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	start, err := parseDateParam(c.Query("start"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid start date, expected YYYY-MM-DD")
		return
	}
	end, err := parseDateParam(c.Query("end"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid end date, expected YYYY-MM-DD")
		return
	}

	report, err := s.dashboards.GetReport(c.Request.Context(), dashboard.ReportQuery{
		MerchantID: userID,
		Start:      start,
		End:        end,
		Settings: analytics.StoreSettings{
			CommissionRate: s.storeConfig.CommissionRate,
			TaxRate:        s.storeConfig.TaxRate,
		},
	})
	if err != nil {
		if errors.Is(err, analytics.ErrInvalidPeriod) {
			errorResponse(c, http.StatusBadRequest, "start date is after end date")
			return
		}
		errorResponse(c, http.StatusInternalServerError, "failed to build report")
		return
	}

	// Alternate sort keys are pure re-sorts of the computed list
	if key := c.Query("sort"); key != "" {
		report.TopProducts = analytics.SortProductsBy(report.TopProducts, analytics.ProductSortKey(key))
	}

	successResponse(c, http.StatusOK, report)
}

// parseDateParam parses an optional YYYY-MM-DD query value
func parseDateParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
