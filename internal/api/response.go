package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kaspi-seller-dashboard/internal/auth"
)

// successResponse writes the standard success envelope
func successResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// errorResponse writes the standard error envelope
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}

// authErrorResponse maps auth service errors to HTTP responses, keeping the
// machine-readable code alongside the message.
func authErrorResponse(c *gin.Context, err error) {
	var authErr auth.AuthError
	if !errors.As(err, &authErr) {
		errorResponse(c, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusUnauthorized
	switch authErr.Code {
	case auth.ErrEmailTaken.Code:
		status = http.StatusConflict
	case auth.ErrWeakPassword.Code:
		status = http.StatusBadRequest
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   authErr.Code,
		"message": authErr.Message,
	})
}
