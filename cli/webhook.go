// ABOUTME: Webhook CLI commands
// ABOUTME: Starts the inbound webhook ingestion server
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/harperreed/crmbridge/config"
	"github.com/harperreed/crmbridge/webhook"
)

// WebhookServeCommand starts the webhook server and blocks.
func WebhookServeCommand(database *sql.DB, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", 0, "Port to listen on (default from config)")
	_ = fs.Parse(args)

	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	translators, err := buildTranslators(ctx, database, cfg)
	if err != nil {
		return err
	}

	listenPort := cfg.WebhookPort
	if *port > 0 {
		listenPort = *port
	}
	if listenPort == 0 {
		listenPort = 8090
	}

	ingestor := webhook.NewIngestor(translators)
	server := webhook.NewServer(ingestor, []webhook.Adapter{
		webhook.CloudEventAdapter{},
		webhook.FormAdapter{},
	}, cfg.WebhookSecret)

	return server.Start(listenPort)
}
