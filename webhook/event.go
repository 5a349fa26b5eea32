// ABOUTME: Canonical webhook event shape and provider-specific payload adapters
// ABOUTME: Normalizes inbound CRM notifications into one event the ingestor can dispatch
package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Event is the canonical inbound notification. Every provider adapter
// produces this shape.
type Event struct {
	Kind       string         `json:"event_kind"`
	RemoteType string         `json:"remote_type"`
	RemoteID   string         `json:"remote_id"`
	Fields     map[string]any `json:"fields,omitempty"`
}

// Adapter normalizes one provider's payload shape into a canonical Event.
type Adapter interface {
	// Name is the provider segment of the webhook URL.
	Name() string
	// Parse reads the request body and produces the canonical event.
	Parse(r *http.Request) (*Event, error)
}

// CloudEventAdapter parses the JSON envelope style used by cloud CRM
// notification APIs: {"event": "...", "object": {"type": ..., "id": ...,
// "fields": {...}}}.
type CloudEventAdapter struct{}

func (CloudEventAdapter) Name() string { return "cloud" }

func (CloudEventAdapter) Parse(r *http.Request) (*Event, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook body: %w", err)
	}

	var payload struct {
		Event  string `json:"event"`
		Object struct {
			Type   string         `json:"type"`
			ID     string         `json:"id"`
			Fields map[string]any `json:"fields"`
		} `json:"object"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}

	if payload.Object.ID == "" {
		return nil, fmt.Errorf("webhook payload missing object id")
	}

	return &Event{
		Kind:       normalizeKind(payload.Event),
		RemoteType: payload.Object.Type,
		RemoteID:   payload.Object.ID,
		Fields:     payload.Object.Fields,
	}, nil
}

// FormAdapter parses form-encoded callbacks (the Twilio-style shape):
// EventType, ObjectType, ObjectId plus flat Field_* parameters.
type FormAdapter struct{}

func (FormAdapter) Name() string { return "form" }

func (FormAdapter) Parse(r *http.Request) (*Event, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse form payload: %w", err)
	}

	remoteID := r.PostFormValue("ObjectId")
	if remoteID == "" {
		return nil, fmt.Errorf("form payload missing ObjectId")
	}

	fields := make(map[string]any)
	for key, values := range r.PostForm {
		if name, ok := strings.CutPrefix(key, "Field_"); ok && len(values) > 0 {
			fields[name] = values[0]
		}
	}

	return &Event{
		Kind:       normalizeKind(r.PostFormValue("EventType")),
		RemoteType: r.PostFormValue("ObjectType"),
		RemoteID:   remoteID,
		Fields:     fields,
	}, nil
}

// normalizeKind folds provider event names into the canonical kinds.
// Unknown names pass through so the ingestor can log and ignore them.
func normalizeKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "created", "create", "new":
		return "created"
	case "updated", "update", "changed":
		return "updated"
	case "deleted", "delete", "removed":
		return "deleted"
	case "converted", "convert", "conversion":
		return "converted"
	default:
		return strings.ToLower(strings.TrimSpace(kind))
	}
}
