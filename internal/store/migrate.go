package store

import "database/sql"

// Migrate applies the schema. Statements are idempotent so startup can run
// them unconditionally.
//
// The partial unique index on registrations is load-bearing: it is what makes
// a register retry after an ambiguous timeout safe, and what serializes two
// concurrent registrations for the same (user, hackathon) pair.
func Migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id     UUID PRIMARY KEY,
		role        TEXT NOT NULL,
		full_name   TEXT NOT NULL DEFAULT '',
		department  TEXT NOT NULL DEFAULT '',
		skills      TEXT NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS hackathons (
		id                    UUID PRIMARY KEY,
		title                 TEXT NOT NULL,
		description           TEXT NOT NULL DEFAULT '',
		coordinator_id        UUID NOT NULL,
		registration_deadline TIMESTAMPTZ NOT NULL,
		start_date            TIMESTAMPTZ NOT NULL,
		end_date              TIMESTAMPTZ NOT NULL,
		max_participants      INT NOT NULL,
		registration_fee      NUMERIC(10,2) NOT NULL DEFAULT 0,
		max_team_size         INT NOT NULL DEFAULT 5,
		current_participants  INT NOT NULL DEFAULT 0,
		created_at            TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS registrations (
		id             UUID PRIMARY KEY,
		user_id        UUID NOT NULL,
		hackathon_id   UUID NOT NULL REFERENCES hackathons(id),
		registered_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		payment_status TEXT NOT NULL DEFAULT 'pending',
		payment_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
		transaction_id TEXT NOT NULL DEFAULT '',
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_registrations_active
		ON registrations (user_id, hackathon_id)
		WHERE payment_status IN ('pending', 'completed');

	CREATE INDEX IF NOT EXISTS idx_registrations_hackathon ON registrations (hackathon_id);
	CREATE INDEX IF NOT EXISTS idx_registrations_user      ON registrations (user_id);

	CREATE TABLE IF NOT EXISTS teams (
		id                 UUID PRIMARY KEY,
		hackathon_id       UUID NOT NULL REFERENCES hackathons(id),
		name               TEXT NOT NULL,
		lead_id            UUID NOT NULL,
		mentor_id          UUID,
		progress           INT NOT NULL DEFAULT 0,
		submission_status  TEXT NOT NULL DEFAULT 'planning',
		flagged_for_review BOOLEAN NOT NULL DEFAULT FALSE,
		review_reason      TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS team_members (
		team_id      UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
		hackathon_id UUID NOT NULL,
		user_id      UUID NOT NULL,
		joined_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (team_id, user_id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS uq_team_members_hackathon
		ON team_members (hackathon_id, user_id);

	CREATE TABLE IF NOT EXISTS certificates (
		id           UUID PRIMARY KEY,
		user_id      UUID NOT NULL,
		hackathon_id UUID NOT NULL REFERENCES hackathons(id),
		team_id      UUID,
		achievement  TEXT NOT NULL,
		cert_type    TEXT NOT NULL,
		verify_code  TEXT NOT NULL UNIQUE,
		issued_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_certificates_user ON certificates (user_id);
	`
	_, err := db.Exec(schema)
	return err
}
