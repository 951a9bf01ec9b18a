package auth

import (
	"time"
)

// MerchantClaims represents the JWT claims for a merchant account
type MerchantClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// TokenPair represents an access and refresh token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // Access token expiry in seconds
	TokenType    string `json:"token_type"` // Always "Bearer"
}

// RegisterRequest represents a merchant registration request
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Name      string `json:"name" binding:"required,min=2"`
	StoreName string `json:"store_name"`
}

// LoginRequest represents a merchant login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UserResponse represents merchant data returned to the client
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	StoreName   string     `json:"store_name,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	User UserResponse `json:"user"`
	TokenPair
}

// AuthError is an error with a stable machine-readable code
type AuthError struct {
	Code    string
	Message string
}

func (e AuthError) Error() string {
	return e.Message
}

var (
	ErrUnauthorized       = AuthError{Code: "UNAUTHORIZED", Message: "authentication required"}
	ErrInvalidToken       = AuthError{Code: "INVALID_TOKEN", Message: "invalid or malformed token"}
	ErrTokenExpired       = AuthError{Code: "TOKEN_EXPIRED", Message: "token has expired"}
	ErrInvalidCredentials = AuthError{Code: "INVALID_CREDENTIALS", Message: "invalid email or password"}
	ErrEmailTaken         = AuthError{Code: "EMAIL_TAKEN", Message: "an account with this email already exists"}
	ErrWeakPassword       = AuthError{Code: "WEAK_PASSWORD", Message: "password does not meet the minimum requirements"}
)
