// ABOUTME: Database operations for field mapping rules
// ABOUTME: Stores declarative local-to-remote field translation rules, seeded with defaults
package db

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/harperreed/crmbridge/models"
	"gopkg.in/yaml.v3"
)

// GetFieldMappingRules returns the active rules for one remote object kind.
func GetFieldMappingRules(db *sql.DB, objectType string) ([]models.FieldMappingRule, error) {
	rows, err := db.Query(`
		SELECT object_type, local_field, remote_field, direction, transform, is_active
		FROM field_mappings
		WHERE object_type = ? AND is_active = 1
		ORDER BY local_field
	`, objectType)
	if err != nil {
		return nil, fmt.Errorf("failed to query field mapping rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// GetAllFieldMappingRules returns every rule, active or not.
func GetAllFieldMappingRules(db *sql.DB) ([]models.FieldMappingRule, error) {
	rows, err := db.Query(`
		SELECT object_type, local_field, remote_field, direction, transform, is_active
		FROM field_mappings
		ORDER BY object_type, local_field
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query field mapping rules: %w", err)
	}
	defer rows.Close()

	return scanRules(rows)
}

// SaveFieldMappingRule upserts one rule keyed by (object_type, local_field, remote_field).
func SaveFieldMappingRule(db *sql.DB, rule *models.FieldMappingRule) error {
	active := 0
	if rule.IsActive {
		active = 1
	}

	_, err := db.Exec(`
		INSERT INTO field_mappings (object_type, local_field, remote_field, direction, transform, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(object_type, local_field, remote_field) DO UPDATE SET
			direction = excluded.direction,
			transform = excluded.transform,
			is_active = excluded.is_active
	`, rule.ObjectType, rule.LocalField, rule.RemoteField, rule.Direction, rule.Transform, active)

	if err != nil {
		return fmt.Errorf("failed to save field mapping rule: %w", err)
	}

	return nil
}

// rulesFile is the YAML shape of an external field mapping rules file.
type rulesFile struct {
	Rules []models.FieldMappingRule `yaml:"rules"`
}

// LoadFieldMappingRulesFile reads rules from a YAML file and upserts them.
// Returns the number of rules loaded.
func LoadFieldMappingRulesFile(db *sql.DB, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("failed to parse rules file: %w", err)
	}

	for i := range file.Rules {
		rule := &file.Rules[i]
		if rule.Direction == "" {
			rule.Direction = models.DirectionBoth
		}
		if rule.Transform == "" {
			rule.Transform = models.TransformIdentity
		}
		if err := SaveFieldMappingRule(db, rule); err != nil {
			return 0, err
		}
	}

	return len(file.Rules), nil
}

// SeedDefaultRules installs the stock booking-to-CRM rules if the table is
// empty. Safe to call on every startup.
func SeedDefaultRules(db *sql.DB) error {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM field_mappings`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count field mapping rules: %w", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []models.FieldMappingRule{
		{ObjectType: models.RemoteContact, LocalField: "customer_name", RemoteField: "LastName", Direction: models.DirectionBoth, Transform: models.TransformIdentity, IsActive: true},
		{ObjectType: models.RemoteContact, LocalField: "customer_email", RemoteField: "Email", Direction: models.DirectionBoth, Transform: models.TransformLowercase, IsActive: true},
		{ObjectType: models.RemoteContact, LocalField: "customer_phone", RemoteField: "Phone", Direction: models.DirectionBoth, Transform: models.TransformIdentity, IsActive: true},
		{ObjectType: models.RemoteContact, LocalField: "notes", RemoteField: "Description", Direction: models.DirectionToRemote, Transform: models.TransformIdentity, IsActive: true},

		{ObjectType: models.RemoteLead, LocalField: "customer_name", RemoteField: "LastName", Direction: models.DirectionBoth, Transform: models.TransformIdentity, IsActive: true},
		{ObjectType: models.RemoteLead, LocalField: "customer_email", RemoteField: "Email", Direction: models.DirectionBoth, Transform: models.TransformLowercase, IsActive: true},
		{ObjectType: models.RemoteLead, LocalField: "customer_phone", RemoteField: "Phone", Direction: models.DirectionBoth, Transform: models.TransformIdentity, IsActive: true},
		{ObjectType: models.RemoteLead, LocalField: "service_name", RemoteField: "Description", Direction: models.DirectionToRemote, Transform: models.TransformIdentity, IsActive: true},

		{ObjectType: models.RemoteOpportunity, LocalField: "service_name", RemoteField: "Name", Direction: models.DirectionToRemote, Transform: models.TransformIdentity, IsActive: true},
		{ObjectType: models.RemoteOpportunity, LocalField: "amount", RemoteField: "Amount", Direction: models.DirectionToRemote, Transform: models.TransformFloat, IsActive: true},
		{ObjectType: models.RemoteOpportunity, LocalField: "starts_at", RemoteField: "CloseDate", Direction: models.DirectionToRemote, Transform: models.TransformDateISO, IsActive: true},
	}

	for i := range defaults {
		if err := SaveFieldMappingRule(db, &defaults[i]); err != nil {
			return err
		}
	}

	return nil
}

func scanRules(rows *sql.Rows) ([]models.FieldMappingRule, error) {
	var rules []models.FieldMappingRule
	for rows.Next() {
		var rule models.FieldMappingRule
		var active int
		if err := rows.Scan(&rule.ObjectType, &rule.LocalField, &rule.RemoteField, &rule.Direction, &rule.Transform, &active); err != nil {
			return nil, fmt.Errorf("failed to scan field mapping rule: %w", err)
		}
		rule.IsActive = active == 1
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}
