package postgres

// Table holds service requests.
const Table = "service_requests"

// PendingIndex enforces at most one pending request per user.
const PendingIndex = "idx_service_requests_pending_user"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS service_requests (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	user_name TEXT NOT NULL DEFAULT '',
	user_email TEXT NOT NULL DEFAULT '',
	user_phone TEXT NOT NULL DEFAULT '',
	conversation_id TEXT NOT NULL DEFAULT '',
	property_id TEXT NOT NULL DEFAULT '',
	property_address TEXT NOT NULL DEFAULT '',
	service_type TEXT NOT NULL CHECK (service_type IN ('plumbing', 'electrical', 'hvac', 'general')),
	issue TEXT NOT NULL DEFAULT '',
	urgency TEXT NOT NULL CHECK (urgency IN ('low', 'medium', 'high', 'emergency')),
	preferred_date TEXT,
	preferred_time_slot TEXT,
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected', 'completed', 'cancelled')),
	workflow_run_id TEXT,
	assigned_professional_id TEXT,
	assigned_professional_name TEXT,
	confirmed_date TEXT,
	confirmed_time_slot TEXT,
	admin_notes TEXT,
	processed_by TEXT,
	processed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_service_requests_status ON service_requests (status)`,
	`CREATE INDEX IF NOT EXISTS idx_service_requests_user_id ON service_requests (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_service_requests_created_at ON service_requests (created_at DESC)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + PendingIndex + ` ON service_requests (user_id) WHERE status = 'pending'`,
}

const columns = `id, user_id, user_name, user_email, user_phone, conversation_id, property_id, property_address,
	service_type, issue, urgency, preferred_date, preferred_time_slot, status, workflow_run_id,
	assigned_professional_id, assigned_professional_name, confirmed_date, confirmed_time_slot,
	admin_notes, processed_by, processed_at, created_at, updated_at`
