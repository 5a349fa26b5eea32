// ABOUTME: Tests for the field mapping engine
// ABOUTME: Covers direction filtering, omit-empty, transforms, and inbound inversion
package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/crmbridge/models"
)

func contactRules() []models.FieldMappingRule {
	return []models.FieldMappingRule{
		{ObjectType: models.RemoteContact, LocalField: "customer_name", RemoteField: "LastName", Direction: models.DirectionBoth, Transform: models.TransformIdentity, IsActive: true},
		{ObjectType: models.RemoteContact, LocalField: "customer_email", RemoteField: "Email", Direction: models.DirectionBoth, Transform: models.TransformLowercase, IsActive: true},
		{ObjectType: models.RemoteContact, LocalField: "notes", RemoteField: "Description", Direction: models.DirectionToRemote, Transform: models.TransformIdentity, IsActive: true},
		{ObjectType: models.RemoteContact, LocalField: "score", RemoteField: "Lead_Score__c", Direction: models.DirectionFromRemote, Transform: models.TransformIdentity, IsActive: true},
		{ObjectType: models.RemoteContact, LocalField: "legacy", RemoteField: "Legacy__c", Direction: models.DirectionBoth, Transform: models.TransformIdentity, IsActive: false},
	}
}

func TestNewEngineRejectsUnknownTransform(t *testing.T) {
	rules := []models.FieldMappingRule{
		{ObjectType: models.RemoteContact, LocalField: "x", RemoteField: "X", Direction: models.DirectionBoth, Transform: "reverse", IsActive: true},
	}

	_, err := NewEngine(rules)
	require.Error(t, err, "Unknown transform should be rejected at load time")
	assert.Contains(t, err.Error(), "reverse")
}

func TestBuildPayloadDirectionFilter(t *testing.T) {
	engine, err := NewEngine(contactRules())
	require.NoError(t, err)

	fields := map[string]any{
		"customer_name":  "Ada Lovelace",
		"customer_email": "Ada@Example.COM",
		"notes":          "VIP client",
		"score":          42,
		"legacy":         "old",
	}

	payload := engine.BuildPayload(models.RemoteContact, fields, nil)

	assert.Equal(t, "Ada Lovelace", payload["LastName"])
	assert.Equal(t, "ada@example.com", payload["Email"], "Lowercase transform should apply")
	assert.Equal(t, "VIP client", payload["Description"], "to_remote rules apply outbound")
	assert.NotContains(t, payload, "Lead_Score__c", "from_remote rules are skipped outbound")
	assert.NotContains(t, payload, "Legacy__c", "Inactive rules never apply")
}

func TestBuildPayloadOmitsEmptyValues(t *testing.T) {
	engine, err := NewEngine(contactRules())
	require.NoError(t, err)

	fields := map[string]any{
		"customer_name":  "Ada Lovelace",
		"customer_email": "   ",
		"notes":          nil,
	}

	payload := engine.BuildPayload(models.RemoteContact, fields, nil)

	assert.Contains(t, payload, "LastName")
	assert.NotContains(t, payload, "Email", "Blank strings are omitted, never sent as null")
	assert.NotContains(t, payload, "Description")
}

func TestBuildPayloadResolver(t *testing.T) {
	rules := []models.FieldMappingRule{
		{ObjectType: models.RemoteOpportunity, LocalField: "service_name", RemoteField: "Name", Direction: models.DirectionToRemote, Transform: models.TransformIdentity, IsActive: true},
	}
	engine, err := NewEngine(rules)
	require.NoError(t, err)

	resolve := func(localField string) (any, bool) {
		if localField == "service_name" {
			return "Deep Tissue Massage", true
		}
		return nil, false
	}

	payload := engine.BuildPayload(models.RemoteOpportunity, map[string]any{}, resolve)

	assert.Equal(t, "Deep Tissue Massage", payload["Name"], "Resolver supplies computed fields")
}

func TestBuildPayloadIgnoresOtherObjectTypes(t *testing.T) {
	engine, err := NewEngine(contactRules())
	require.NoError(t, err)

	payload := engine.BuildPayload(models.RemoteLead, map[string]any{"customer_name": "Ada"}, nil)

	assert.Empty(t, payload, "Rules for other object types never apply")
}

func TestLocalFields(t *testing.T) {
	engine, err := NewEngine(contactRules())
	require.NoError(t, err)

	remote := map[string]any{
		"LastName":     "Hopper",
		"Email":        "grace@example.com",
		"Description":  "outbound only",
		"Lead_Score__c": 99,
		"Unmapped":     "dropped",
	}

	local := engine.LocalFields(models.RemoteContact, remote)

	assert.Equal(t, "Hopper", local["customer_name"])
	assert.Equal(t, "grace@example.com", local["customer_email"])
	assert.Equal(t, 99, local["score"], "from_remote rules apply inbound")
	assert.NotContains(t, local, "notes", "to_remote rules are skipped inbound")
	assert.NotContains(t, local, "Unmapped", "Remote fields without a rule are dropped")
}

func TestTransforms(t *testing.T) {
	starts := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		transform string
		input     any
		want      any
	}{
		{"identity passes through", models.TransformIdentity, "As-Is", "As-Is"},
		{"uppercase", models.TransformUppercase, "abc", "ABC"},
		{"lowercase", models.TransformLowercase, "ABC", "abc"},
		{"titlecase", models.TransformTitlecase, "deep TISSUE massage", "Deep Tissue Massage"},
		{"titlecase multibyte", models.TransformTitlecase, "émile zola", "Émile Zola"},
		{"date_iso from time", models.TransformDateISO, starts, "2026-03-15"},
		{"date_iso from string", models.TransformDateISO, "2026-03-15T10:30:00Z", "2026-03-15"},
		{"datetime_iso", models.TransformDatetimeISO, starts, "2026-03-15T10:30:00Z"},
		{"float from string", models.TransformFloat, "125.50", 125.50},
		{"float from int", models.TransformFloat, 42, 42.0},
		{"int truncates", models.TransformInt, 9.9, int64(9)},
		{"bool from string", models.TransformBool, "yes", true},
		{"bool from zero", models.TransformBool, 0, false},
		{"unconvertible passes through", models.TransformFloat, "not a number", "not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []models.FieldMappingRule{
				{ObjectType: models.RemoteContact, LocalField: "in", RemoteField: "Out", Direction: models.DirectionBoth, Transform: tt.transform, IsActive: true},
			}
			engine, err := NewEngine(rules)
			require.NoError(t, err)

			payload := engine.BuildPayload(models.RemoteContact, map[string]any{"in": tt.input}, nil)
			assert.Equal(t, tt.want, payload["Out"])
		})
	}
}

func TestBuildPayloadIsPure(t *testing.T) {
	engine, err := NewEngine(contactRules())
	require.NoError(t, err)

	fields := map[string]any{"customer_email": "Ada@Example.COM"}
	engine.BuildPayload(models.RemoteContact, fields, nil)

	assert.Equal(t, "Ada@Example.COM", fields["customer_email"], "Input map must not be mutated")
}
