package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"kaspi-seller-dashboard/internal/database"
)

// UserStore is the slice of the repository the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u database.User) (database.User, error)
	GetUserByEmail(ctx context.Context, email string) (*database.User, error)
	GetUserByID(ctx context.Context, id string) (*database.User, error)
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (string, time.Time, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) error
}

var _ UserStore = (*database.Repository)(nil)

// Service handles merchant registration, login and token refresh
type Service struct {
	store      UserStore
	jwtManager *JWTManager
	passwords  *PasswordManager
}

// NewService creates a new auth service
func NewService(store UserStore, jwtManager *JWTManager, passwords *PasswordManager) *Service {
	return &Service{
		store:      store,
		jwtManager: jwtManager,
		passwords:  passwords,
	}
}

// Register creates a new merchant account and returns a login response.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.passwords.ValidatePassword(req.Password); err != nil {
		return nil, ErrWeakPassword
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.passwords.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, database.User{
		Email:        email,
		PasswordHash: hash,
		Name:         req.Name,
		StoreName:    req.StoreName,
	})
	if err != nil {
		return nil, err
	}

	return s.loginResponse(ctx, user)
}

// Login verifies credentials and returns a login response.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.store.UpdateLastLogin(ctx, user.ID, now); err == nil {
		user.LastLoginAt = &now
	}

	return s.loginResponse(ctx, *user)
}

// Refresh exchanges a valid refresh token for a new token pair. Tokens are
// single-use: the presented token is revoked whether or not a new pair is
// issued, so a replayed token always fails.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	tokenHash := hashRefreshToken(req.RefreshToken)

	userID, expiresAt, err := s.store.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, database.ErrRefreshTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if err := s.store.DeleteRefreshToken(ctx, tokenHash); err != nil {
		return nil, err
	}

	if time.Now().After(expiresAt) {
		return nil, ErrTokenExpired
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return s.issueTokens(ctx, *user)
}

func (s *Service) loginResponse(ctx context.Context, user database.User) (*LoginResponse, error) {
	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		User: UserResponse{
			ID:          user.ID,
			Email:       user.Email,
			Name:        user.Name,
			StoreName:   user.StoreName,
			CreatedAt:   user.CreatedAt,
			LastLoginAt: user.LastLoginAt,
		},
		TokenPair: *pair,
	}, nil
}

// issueTokens generates an access/refresh pair and persists the refresh
// token's hash.
func (s *Service) issueTokens(ctx context.Context, user database.User) (*TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(MerchantClaims{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.jwtManager.GetRefreshTokenDuration())
	if err := s.store.StoreRefreshToken(ctx, user.ID, hashRefreshToken(refreshToken), expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.jwtManager.GetAccessTokenDuration(),
		TokenType:    "Bearer",
	}, nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
