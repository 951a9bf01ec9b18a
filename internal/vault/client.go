// Package vault stores per-merchant marketplace credentials in HashiCorp
// Vault. Credentials never live in config files or environment variables.
package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"kaspi-seller-dashboard/config"
)

// MerchantCredentials represents the marketplace login data stored in Vault
type MerchantCredentials struct {
	MerchantUID string `json:"merchant_uid"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	APIToken    string `json:"api_token,omitempty"`
}

// Client wraps the HashiCorp Vault client. When Vault is disabled it degrades
// to an in-memory store for development and tests.
type Client struct {
	client *api.Client
	config config.VaultConfig
	mu     sync.RWMutex
	cache  map[string]*MerchantCredentials // userID -> credentials cache
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config: cfg,
			cache:  make(map[string]*MerchantCredentials),
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{
		client: client,
		config: cfg,
		cache:  make(map[string]*MerchantCredentials),
	}, nil
}

func (c *Client) secretPath(userID string) string {
	return fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, userID)
}

// StoreCredentials stores marketplace credentials for a merchant.
func (c *Client) StoreCredentials(ctx context.Context, userID string, creds MerchantCredentials) error {
	c.mu.Lock()
	c.cache[userID] = &creds
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	data := map[string]interface{}{
		"data": map[string]interface{}{"credentials": string(payload)},
	}
	if _, err := c.client.Logical().WriteWithContext(ctx, c.secretPath(userID), data); err != nil {
		return fmt.Errorf("failed to write credentials to vault: %w", err)
	}
	return nil
}

// GetCredentials retrieves marketplace credentials for a merchant.
func (c *Client) GetCredentials(ctx context.Context, userID string) (*MerchantCredentials, error) {
	c.mu.RLock()
	cached, ok := c.cache[userID]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if !c.config.Enabled {
		return nil, fmt.Errorf("no credentials stored for user %s", userID)
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.secretPath(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("no credentials stored for user %s", userID)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected secret format for user %s", userID)
	}
	raw, ok := data["credentials"].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected secret format for user %s", userID)
	}

	var creds MerchantCredentials
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	c.mu.Lock()
	c.cache[userID] = &creds
	c.mu.Unlock()

	return &creds, nil
}

// DeleteCredentials removes a merchant's stored credentials.
func (c *Client) DeleteCredentials(ctx context.Context, userID string) error {
	c.mu.Lock()
	delete(c.cache, userID)
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	if _, err := c.client.Logical().DeleteWithContext(ctx, c.secretPath(userID)); err != nil {
		return fmt.Errorf("failed to delete credentials from vault: %w", err)
	}
	return nil
}
