package vault

import (
	"context"
	"fmt"
	"sync"

	"signal-desk/config"

	"github.com/hashicorp/vault/api"
)

// PostingCredentials are the social-platform tokens used by the publisher
type PostingCredentials struct {
	Platform     string `json:"platform"` // e.g. "x"
	APIKey       string `json:"api_key"`
	APISecret    string `json:"api_secret"`
	AccessToken  string `json:"access_token"`
	AccessSecret string `json:"access_secret"`
}

// Client wraps the HashiCorp Vault client. When Vault is disabled the
// client degrades to an in-memory store for local development.
type Client struct {
	client *api.Client
	config config.VaultConfig
	mu     sync.RWMutex
	cache  map[string]*PostingCredentials // platform -> credentials
}

// NewClient creates a new Vault client
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config: cfg,
			cache:  make(map[string]*PostingCredentials),
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{
			CACert: cfg.CACert,
		}
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
		cache:  make(map[string]*PostingCredentials),
	}, nil
}

// StoreCredentials stores posting credentials for a platform in Vault
func (c *Client) StoreCredentials(ctx context.Context, creds PostingCredentials) error {
	if creds.Platform == "" {
		return fmt.Errorf("platform is required")
	}

	if !c.config.Enabled {
		c.mu.Lock()
		c.cache[creds.Platform] = &creds
		c.mu.Unlock()
		return nil
	}

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"platform":      creds.Platform,
			"api_key":       creds.APIKey,
			"api_secret":    creds.APISecret,
			"access_token":  creds.AccessToken,
			"access_secret": creds.AccessSecret,
		},
	}

	if _, err := c.client.Logical().WriteWithContext(ctx, c.secretPath(creds.Platform), secretData); err != nil {
		return fmt.Errorf("failed to store posting credentials in vault: %w", err)
	}

	c.mu.Lock()
	c.cache[creds.Platform] = &creds
	c.mu.Unlock()

	return nil
}

// GetCredentials retrieves posting credentials for a platform
func (c *Client) GetCredentials(ctx context.Context, platform string) (*PostingCredentials, error) {
	c.mu.RLock()
	if cached, ok := c.cache[platform]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	if !c.config.Enabled {
		return nil, fmt.Errorf("posting credentials not found and vault is disabled")
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.secretPath(platform))
	if err != nil {
		return nil, fmt.Errorf("failed to read posting credentials from vault: %w", err)
	}

	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("posting credentials not found")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format")
	}

	creds := &PostingCredentials{
		Platform:     getString(data, "platform"),
		APIKey:       getString(data, "api_key"),
		APISecret:    getString(data, "api_secret"),
		AccessToken:  getString(data, "access_token"),
		AccessSecret: getString(data, "access_secret"),
	}

	c.mu.Lock()
	c.cache[platform] = creds
	c.mu.Unlock()

	return creds, nil
}

// DeleteCredentials removes posting credentials for a platform
func (c *Client) DeleteCredentials(ctx context.Context, platform string) error {
	c.mu.Lock()
	delete(c.cache, platform)
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}

	if _, err := c.client.Logical().DeleteWithContext(ctx, c.metadataPath(platform)); err != nil {
		return fmt.Errorf("failed to delete posting credentials from vault: %w", err)
	}

	return nil
}

// HasCredentials reports whether credentials exist for a platform without
// exposing them
func (c *Client) HasCredentials(ctx context.Context, platform string) bool {
	creds, err := c.GetCredentials(ctx, platform)
	return err == nil && creds != nil && creds.AccessToken != ""
}

// ClearCache clears the in-memory cache
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*PostingCredentials)
	c.mu.Unlock()
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Health checks the Vault connection
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}

	health, err := c.client.Sys().Health()
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}

	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

// secretPath returns the KV v2 data path for a platform's credentials
func (c *Client) secretPath(platform string) string {
	return fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, platform)
}

// metadataPath returns the KV v2 metadata path for a platform's credentials
func (c *Client) metadataPath(platform string) string {
	return fmt.Sprintf("%s/metadata/%s/%s", c.config.MountPath, c.config.SecretPath, platform)
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// NewMockClient creates a disabled client backed by the in-memory store,
// for tests
func NewMockClient() *Client {
	return &Client{
		config: config.VaultConfig{
			Enabled: false,
		},
		cache: make(map[string]*PostingCredentials),
	}
}
