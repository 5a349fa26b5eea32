// ABOUTME: CRM connection configuration and credential management
// ABOUTME: Handles config storage at XDG paths with environment variable overrides
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Config stores remote CRM credentials and engine settings.
type Config struct {
	APIBaseURL    string   `json:"api_base_url"`
	TokenURL      string   `json:"token_url"`
	ClientID      string   `json:"client_id"`
	ClientSecret  string   `json:"client_secret"`
	WebhookSecret string   `json:"webhook_secret,omitempty"`
	WebhookPort   int      `json:"webhook_port,omitempty"`
	Objects       []string `json:"objects,omitempty"`
}

// Dir returns the XDG-compliant directory for crmbridge data.
func Dir() string {
	return filepath.Join(xdg.DataHome, "crmbridge")
}

// Path returns the XDG-compliant path of the config file.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// DefaultDBPath returns the XDG-compliant path of the sqlite database.
func DefaultDBPath() string {
	return filepath.Join(Dir(), "crmbridge.db")
}

// Load reads the config file, falling back to defaults if it does not
// exist. Environment variables override file values:
// - CRMBRIDGE_API_BASE_URL
// - CRMBRIDGE_TOKEN_URL
// - CRMBRIDGE_CLIENT_ID
// - CRMBRIDGE_CLIENT_SECRET
// - CRMBRIDGE_WEBHOOK_SECRET
// - CRMBRIDGE_OBJECTS (comma-separated object kinds).
func Load() (*Config, error) {
	path := Path()

	// Initialize with defaults
	cfg := &Config{
		WebhookPort: 8090,
		Objects:     []string{"Contact", "Opportunity"},
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewDecoder(f).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CRMBRIDGE_API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("CRMBRIDGE_TOKEN_URL"); v != "" {
		cfg.TokenURL = v
	}
	if v := os.Getenv("CRMBRIDGE_CLIENT_ID"); v != "" {
		cfg.ClientID = v
	}
	if v := os.Getenv("CRMBRIDGE_CLIENT_SECRET"); v != "" {
		cfg.ClientSecret = v
	}
	if v := os.Getenv("CRMBRIDGE_WEBHOOK_SECRET"); v != "" {
		cfg.WebhookSecret = v
	}
	if v := os.Getenv("CRMBRIDGE_OBJECTS"); v != "" {
		var objects []string
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				objects = append(objects, name)
			}
		}
		cfg.Objects = objects
	}
}

// Save writes the config file with restricted permissions.
func Save(cfg *Config) error {
	path := Path()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// IsConfigured checks whether the remote connection credentials are set.
// Missing credentials fail fast before any queue work starts.
func (c *Config) IsConfigured() bool {
	return c.APIBaseURL != "" && c.TokenURL != "" && c.ClientID != "" && c.ClientSecret != ""
}

// ObjectEnabled reports whether an object kind is enabled for sync fan-out.
func (c *Config) ObjectEnabled(objectType string) bool {
	for _, name := range c.Objects {
		if strings.EqualFold(name, objectType) {
			return true
		}
	}
	return false
}

// TokenSource returns the OAuth client-credentials token source for the
// remote API. Token refresh is handled by the oauth2 package.
func (c *Config) TokenSource(ctx context.Context) oauth2.TokenSource {
	cc := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
	}
	return cc.TokenSource(ctx)
}
