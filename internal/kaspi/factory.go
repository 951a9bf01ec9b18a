package kaspi

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"kaspi-seller-dashboard/config"
	"kaspi-seller-dashboard/internal/vault"
)

// ClientFactory produces one marketplace client per merchant, resolving
// credentials from Vault. Clients are cached so the cabinet session survives
// across sync runs.
type ClientFactory struct {
	cfg   config.KaspiConfig
	vault *vault.Client

	mu      sync.Mutex
	clients map[string]MarketplaceClient // userID -> client
}

// NewClientFactory creates a new client factory
func NewClientFactory(cfg config.KaspiConfig, vaultClient *vault.Client) *ClientFactory {
	return &ClientFactory{
		cfg:     cfg,
		vault:   vaultClient,
		clients: make(map[string]MarketplaceClient),
	}
}

// ClientFor returns the marketplace client for one merchant, creating it on
// first use. In mock mode all merchants share one simulated marketplace.
func (f *ClientFactory) ClientFor(ctx context.Context, userID string) (MarketplaceClient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[userID]; ok {
		return client, nil
	}

	if f.cfg.MockMode {
		log.Printf("[KASPI] Mock mode enabled, using simulated marketplace for user %s", userID)
		client := NewMockClient()
		f.clients[userID] = client
		return client, nil
	}

	creds, err := f.vault.GetCredentials(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve marketplace credentials: %w", err)
	}

	timeout := time.Duration(f.cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := NewClient(f.cfg.BaseURL, creds.Email, creds.Password, timeout)
	f.clients[userID] = client
	return client, nil
}

// Invalidate drops the cached client for a merchant, e.g. after a credential
// update.
func (f *ClientFactory) Invalidate(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.clients, userID)
}
