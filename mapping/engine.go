// ABOUTME: Declarative field mapping engine translating local fields to remote fields
// ABOUTME: Applies per-rule transforms and sync-direction filtering in both directions
package mapping

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/harperreed/crmbridge/models"
)

// Resolver supplies computed field values that are not raw storage columns
// (e.g. a service name resolved through a foreign key). It returns the value
// and whether it is present.
type Resolver func(localField string) (any, bool)

// Engine evaluates field mapping rules for one payload build. It is pure:
// no side effects, and missing optional fields are omitted rather than
// causing errors.
type Engine struct {
	rules []models.FieldMappingRule
}

// NewEngine creates an engine over the given rules. Rules with an unknown
// transform name are rejected up front.
func NewEngine(rules []models.FieldMappingRule) (*Engine, error) {
	for _, rule := range rules {
		if !knownTransform(rule.Transform) {
			return nil, fmt.Errorf("unknown transform %q for %s.%s", rule.Transform, rule.ObjectType, rule.LocalField)
		}
	}
	return &Engine{rules: rules}, nil
}

// BuildPayload produces the remote field map for an outbound sync. Only
// active rules of objectType whose direction includes to-remote apply.
// Empty or missing local values are omitted, never sent as null.
func (e *Engine) BuildPayload(objectType string, fields map[string]any, resolve Resolver) map[string]any {
	payload := make(map[string]any)

	for _, rule := range e.rules {
		if rule.ObjectType != objectType || !rule.IsActive {
			continue
		}
		if rule.Direction != models.DirectionBoth && rule.Direction != models.DirectionToRemote {
			continue
		}

		value, ok := fields[rule.LocalField]
		if !ok && resolve != nil {
			value, ok = resolve(rule.LocalField)
		}
		if !ok || isEmpty(value) {
			continue
		}

		payload[rule.RemoteField] = applyTransform(rule.Transform, value)
	}

	return payload
}

// LocalFields maps inbound remote fields back onto local field names.
// Only active rules whose direction includes from-remote apply; remote
// fields with no rule are dropped.
func (e *Engine) LocalFields(objectType string, remoteFields map[string]any) map[string]any {
	local := make(map[string]any)

	for _, rule := range e.rules {
		if rule.ObjectType != objectType || !rule.IsActive {
			continue
		}
		if rule.Direction != models.DirectionBoth && rule.Direction != models.DirectionFromRemote {
			continue
		}

		value, ok := remoteFields[rule.RemoteField]
		if !ok || isEmpty(value) {
			continue
		}

		local[rule.LocalField] = value
	}

	return local
}

func knownTransform(name string) bool {
	switch name {
	case models.TransformIdentity, models.TransformUppercase, models.TransformLowercase,
		models.TransformTitlecase, models.TransformDateISO, models.TransformDatetimeISO,
		models.TransformFloat, models.TransformInt, models.TransformBool:
		return true
	}
	return false
}

// applyTransform converts a value per the named transform. Values that
// cannot be converted pass through unchanged so a bad row never aborts a
// payload build.
func applyTransform(name string, value any) any {
	switch name {
	case models.TransformIdentity:
		return value
	case models.TransformUppercase:
		if s, ok := value.(string); ok {
			return strings.ToUpper(s)
		}
	case models.TransformLowercase:
		if s, ok := value.(string); ok {
			return strings.ToLower(s)
		}
	case models.TransformTitlecase:
		if s, ok := value.(string); ok {
			return titleCase(s)
		}
	case models.TransformDateISO:
		if t, ok := asTime(value); ok {
			return t.Format("2006-01-02")
		}
	case models.TransformDatetimeISO:
		if t, ok := asTime(value); ok {
			return t.Format(time.RFC3339)
		}
	case models.TransformFloat:
		if f, ok := asFloat(value); ok {
			return f
		}
	case models.TransformInt:
		if f, ok := asFloat(value); ok {
			return int64(f)
		}
	case models.TransformBool:
		if b, ok := asBool(value); ok {
			return b
		}
	}
	return value
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, word := range words {
		r, size := utf8.DecodeRuneInString(word)
		words[i] = string(unicode.ToUpper(r)) + word[size:]
	}
	return strings.Join(words, " ")
}

func asTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v != nil {
			return *v, true
		}
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func asBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case float64:
		return v != 0, true
	case int:
		return v != 0, true
	}
	return false, false
}
