package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kaspi-seller-dashboard/internal/auth"
	"kaspi-seller-dashboard/internal/vault"
)

// handleRegister creates a new merchant account
func (s *Server) handleRegister(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	resp, err := s.authService.Register(c.Request.Context(), req)
	if err != nil {
		authErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusCreated, resp)
}

// handleLogin authenticates a merchant
func (s *Server) handleLogin(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	resp, err := s.authService.Login(c.Request.Context(), req)
	if err != nil {
		authErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, resp)
}

// handleRefresh rotates a refresh token into a new token pair
func (s *Server) handleRefresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	pair, err := s.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		authErrorResponse(c, err)
		return
	}

	successResponse(c, http.StatusOK, pair)
}

type credentialsRequest struct {
	MerchantUID string `json:"merchant_uid"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required"`
	APIToken    string `json:"api_token"`
}

// handleStoreCredentials saves the merchant's marketplace cabinet credentials
// in Vault and drops any cached marketplace client built from the old ones.
func (s *Server) handleStoreCredentials(c *gin.Context) {
	userID := auth.UserIDFromContext(c)

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	err := s.vaultClient.StoreCredentials(c.Request.Context(), userID, vault.MerchantCredentials{
		MerchantUID: req.MerchantUID,
		Email:       req.Email,
		Password:    req.Password,
		APIToken:    req.APIToken,
	})
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to store credentials")
		return
	}

	s.kaspiFactory.Invalidate(userID)
	successResponse(c, http.StatusOK, gin.H{"stored": true})
}
