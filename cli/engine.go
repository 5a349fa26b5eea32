// ABOUTME: Shared wiring for CLI commands
// ABOUTME: Builds the CRM client and enabled translators from configuration
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/harperreed/crmbridge/config"
	"github.com/harperreed/crmbridge/crm"
	"github.com/harperreed/crmbridge/models"
	"github.com/harperreed/crmbridge/translate"
)

// buildTranslators constructs the translators enabled in configuration,
// wired to an authenticated CRM client. Fails fast when credentials are
// missing.
func buildTranslators(ctx context.Context, database *sql.DB, cfg *config.Config) ([]translate.Translator, error) {
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("CRM connection not configured. Set CRMBRIDGE_API_BASE_URL, CRMBRIDGE_TOKEN_URL, CRMBRIDGE_CLIENT_ID and CRMBRIDGE_CLIENT_SECRET, or run 'crmbridge config init'")
	}

	client := crm.NewClient(cfg.APIBaseURL, cfg.TokenSource(ctx))

	var translators []translate.Translator
	if cfg.ObjectEnabled(models.RemoteContact) {
		translators = append(translators, translate.NewContactTranslator(database, client))
	}
	if cfg.ObjectEnabled(models.RemoteLead) {
		translators = append(translators, translate.NewLeadTranslator(database, client))
	}
	if cfg.ObjectEnabled(models.RemoteOpportunity) {
		translators = append(translators, translate.NewOpportunityTranslator(database, client))
	}

	if len(translators) == 0 {
		return nil, fmt.Errorf("no object kinds enabled in configuration")
	}

	return translators, nil
}
