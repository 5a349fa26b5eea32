// ABOUTME: Webhook ingestion dispatching canonical events to entity translators
// ABOUTME: Unknown object types and event kinds are logged and ignored, never errored
package webhook

import (
	"context"
	"log"

	"github.com/harperreed/crmbridge/translate"
)

// Ingestor routes canonical events to the translator owning the event's
// remote object kind.
type Ingestor struct {
	translators map[string]translate.Translator
}

// NewIngestor creates an ingestor over the enabled translators.
func NewIngestor(translators []translate.Translator) *Ingestor {
	byType := make(map[string]translate.Translator, len(translators))
	for _, t := range translators {
		byType[t.ObjectType()] = t
	}
	return &Ingestor{translators: byType}
}

// Handle applies one event. Events for unknown object types or kinds are
// skipped so provider payload evolution never breaks ingestion; only
// translator failures propagate.
func (in *Ingestor) Handle(ctx context.Context, event *Event) error {
	translator, ok := in.translators[event.RemoteType]
	if !ok {
		log.Printf("webhook: ignoring event for unknown object type %q", event.RemoteType)
		return nil
	}

	switch event.Kind {
	case translate.EventCreated, translate.EventUpdated, translate.EventDeleted, translate.EventConverted:
		return translator.ApplyInbound(ctx, event.RemoteID, event.Fields, event.Kind)
	default:
		log.Printf("webhook: ignoring unknown event kind %q for %s", event.Kind, event.RemoteType)
		return nil
	}
}
