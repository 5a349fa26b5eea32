// ABOUTME: Configuration CLI commands
// ABOUTME: Initializes and inspects the stored CRM connection settings
package cli

import (
	"database/sql"
	"flag"
	"fmt"
	"strings"

	"github.com/harperreed/crmbridge/config"
)

// ConfigInitCommand writes the config file from flags.
func ConfigInitCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	apiURL := fs.String("api-url", "", "CRM API base URL (required)")
	tokenURL := fs.String("token-url", "", "OAuth token endpoint (required)")
	clientID := fs.String("client-id", "", "OAuth client ID (required)")
	clientSecret := fs.String("client-secret", "", "OAuth client secret (required)")
	webhookSecret := fs.String("webhook-secret", "", "Webhook shared secret")
	objects := fs.String("objects", "Contact,Opportunity", "Comma-separated object kinds to sync")
	_ = fs.Parse(args)

	if *apiURL == "" || *tokenURL == "" || *clientID == "" || *clientSecret == "" {
		return fmt.Errorf("--api-url, --token-url, --client-id, and --client-secret are required")
	}

	var objectList []string
	for _, name := range strings.Split(*objects, ",") {
		if name = strings.TrimSpace(name); name != "" {
			objectList = append(objectList, name)
		}
	}

	cfg := &config.Config{
		APIBaseURL:    *apiURL,
		TokenURL:      *tokenURL,
		ClientID:      *clientID,
		ClientSecret:  *clientSecret,
		WebhookSecret: *webhookSecret,
		Objects:       objectList,
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("✓ Config saved to %s\n", config.Path())
	return nil
}

// ConfigShowCommand prints the effective configuration, secrets redacted.
func ConfigShowCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("API base URL:  %s\n", cfg.APIBaseURL)
	fmt.Printf("Token URL:     %s\n", cfg.TokenURL)
	fmt.Printf("Client ID:     %s\n", cfg.ClientID)
	fmt.Printf("Client secret: %s\n", redact(cfg.ClientSecret))
	fmt.Printf("Webhook secret:%s\n", " "+redact(cfg.WebhookSecret))
	fmt.Printf("Objects:       %s\n", strings.Join(cfg.Objects, ", "))
	fmt.Printf("Configured:    %v\n", cfg.IsConfigured())

	return nil
}

func redact(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	return "********"
}
