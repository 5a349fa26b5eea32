// ABOUTME: SQLite schema for bookings, mappings, queue, rules, and sync log
// ABOUTME: Tables are created idempotently on every open
package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	id TEXT PRIMARY KEY,
	customer_name TEXT NOT NULL,
	customer_email TEXT,
	customer_phone TEXT,
	service_name TEXT,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'acknowledged', 'completed', 'cancelled', 'missed')),
	amount_cents INTEGER,
	currency TEXT NOT NULL DEFAULT 'USD',
	starts_at DATETIME,
	notes TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bookings_email ON bookings(customer_email);
CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status);

CREATE TABLE IF NOT EXISTS crm_mappings (
	local_type TEXT NOT NULL,
	local_id TEXT NOT NULL,
	remote_type TEXT NOT NULL,
	remote_id TEXT NOT NULL,
	sync_status TEXT NOT NULL DEFAULT 'synced' CHECK(sync_status IN ('synced', 'stale', 'error')),
	last_sync DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(local_type, local_id, remote_type)
);

CREATE INDEX IF NOT EXISTS idx_crm_mappings_remote ON crm_mappings(remote_type, remote_id);

CREATE TABLE IF NOT EXISTS sync_queue (
	id TEXT PRIMARY KEY,
	operation TEXT NOT NULL CHECK(operation IN ('create', 'update', 'update_status', 'delete')),
	local_type TEXT NOT NULL,
	local_id TEXT NOT NULL,
	priority INTEGER NOT NULL DEFAULT 10,
	status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'processing', 'completed', 'failed')),
	attempts INTEGER NOT NULL DEFAULT 0,
	max_attempts INTEGER NOT NULL DEFAULT 3,
	scheduled_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	error_message TEXT,
	worker_token TEXT,
	claimed_at DATETIME,
	processed_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_queue_due ON sync_queue(status, scheduled_at, priority);
CREATE INDEX IF NOT EXISTS idx_sync_queue_worker ON sync_queue(worker_token);

CREATE TABLE IF NOT EXISTS field_mappings (
	object_type TEXT NOT NULL,
	local_field TEXT NOT NULL,
	remote_field TEXT NOT NULL,
	direction TEXT NOT NULL DEFAULT 'both' CHECK(direction IN ('both', 'to_remote', 'from_remote')),
	transform TEXT NOT NULL DEFAULT 'identity',
	is_active INTEGER NOT NULL DEFAULT 1,
	UNIQUE(object_type, local_field, remote_field)
);

CREATE INDEX IF NOT EXISTS idx_field_mappings_object ON field_mappings(object_type, is_active);

CREATE TABLE IF NOT EXISTS sync_log (
	id TEXT PRIMARY KEY,
	direction TEXT NOT NULL CHECK(direction IN ('outbound', 'inbound')),
	action TEXT NOT NULL,
	local_type TEXT NOT NULL,
	local_id TEXT NOT NULL,
	remote_type TEXT NOT NULL,
	remote_id TEXT,
	status TEXT NOT NULL CHECK(status IN ('success', 'error')),
	message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sync_log_local ON sync_log(local_type, local_id);
CREATE INDEX IF NOT EXISTS idx_sync_log_created ON sync_log(created_at DESC);
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
