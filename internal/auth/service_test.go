package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"kaspi-seller-dashboard/internal/database"
)

// ============================================================
// Fakes
// ============================================================

type storedToken struct {
	userID    string
	expiresAt time.Time
}

type fakeUserStore struct {
	users  map[string]database.User // keyed by email
	tokens map[string]storedToken   // keyed by token hash
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users:  make(map[string]database.User),
		tokens: make(map[string]storedToken),
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, u database.User) (database.User, error) {
	f.nextID++
	u.ID = string(rune('a' + f.nextID))
	u.CreatedAt = time.Now()
	f.users[u.Email] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*database.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, database.ErrUserNotFound
	}
	return &u, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*database.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, database.ErrUserNotFound
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (f *fakeUserStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.tokens[tokenHash] = storedToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeUserStore) GetRefreshToken(_ context.Context, tokenHash string) (string, time.Time, error) {
	t, ok := f.tokens[tokenHash]
	if !ok {
		return "", time.Time{}, database.ErrRefreshTokenNotFound
	}
	return t.userID, t.expiresAt, nil
}

func (f *fakeUserStore) DeleteRefreshToken(_ context.Context, tokenHash string) error {
	delete(f.tokens, tokenHash)
	return nil
}

func newTestService(store UserStore) *Service {
	return NewService(
		store,
		NewJWTManager("test-secret", 15*time.Minute, 24*time.Hour),
		NewPasswordManager(4, 8), // minimum bcrypt cost keeps tests fast
	)
}

func registerReq() RegisterRequest {
	return RegisterRequest{
		Email:    "seller@example.kz",
		Password: "pass1234",
		Name:     "Test Seller",
	}
}

// ============================================================
// Register / Login
// ============================================================

func TestRegisterIssuesTokenPair(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	resp, err := svc.Register(context.Background(), registerReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("expected both tokens in the response")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("expected token type Bearer, got %q", resp.TokenType)
	}
	if resp.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Errorf("unexpected expires_in: %d", resp.ExpiresIn)
	}

	claims, err := svc.jwtManager.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("issued access token must validate: %v", err)
	}
	if claims.Email != "seller@example.kz" {
		t.Errorf("unexpected claims email: %q", claims.Email)
	}
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	if _, err := svc.Register(context.Background(), registerReq()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Register(context.Background(), registerReq()); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	if _, err := svc.Register(context.Background(), registerReq()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "seller@example.kz",
		Password: "wrong-password",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

// ============================================================
// Refresh
// ============================================================

func TestRefreshRotatesToken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	resp, err := svc.Register(context.Background(), registerReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: resp.RefreshToken})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pair.RefreshToken == resp.RefreshToken {
		t.Error("refresh must issue a new refresh token")
	}
	if pair.AccessToken == "" {
		t.Error("refresh must issue a new access token")
	}

	// The presented token is single-use
	if _, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: resp.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected replayed token to be rejected, got %v", err)
	}

	// The rotated token still works
	if _, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: pair.RefreshToken}); err != nil {
		t.Errorf("rotated token must be accepted: %v", err)
	}
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestService(store)

	resp, err := svc.Register(context.Background(), registerReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Age the stored token past its expiry
	for hash, tok := range store.tokens {
		tok.expiresAt = time.Now().Add(-time.Minute)
		store.tokens[hash] = tok
	}

	if _, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: resp.RefreshToken}); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
	if len(store.tokens) != 0 {
		t.Error("expired token must be revoked on use")
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	svc := newTestService(newFakeUserStore())

	if _, err := svc.Refresh(context.Background(), RefreshRequest{RefreshToken: "never-issued"}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
