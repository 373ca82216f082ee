package store

import "context"

// Bootstrap creates the tables this service touches. The wider CRM owns the
// contact/campaign/template schema; CREATE IF NOT EXISTS keeps a fresh local
// database usable without it.
func (s *Store) Bootstrap(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS contacts (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name   TEXT NOT NULL DEFAULT '',
			last_name    TEXT NOT NULL DEFAULT '',
			email        TEXT NOT NULL,
			organization TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS templates (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS template_slots (
			template_id INTEGER NOT NULL REFERENCES templates(id),
			slot        INTEGER NOT NULL CHECK (slot BETWEEN 1 AND 5),
			subject     TEXT NOT NULL DEFAULT '',
			body        TEXT NOT NULL DEFAULT '',
			attachments TEXT,
			PRIMARY KEY (template_id, slot)
		)`,
		`CREATE TABLE IF NOT EXISTS campaigns (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			contact_id      INTEGER NOT NULL REFERENCES contacts(id),
			template_id     INTEGER NOT NULL,
			start_campaign  BOOLEAN NOT NULL DEFAULT 0,
			emails_sent     INTEGER NOT NULL DEFAULT 0,
			has_replied     BOOLEAN NOT NULL DEFAULT 0,
			email_incorrect BOOLEAN NOT NULL DEFAULT 0,
			email_1_date    TEXT,
			email_2_date    TEXT,
			email_3_date    TEXT,
			email_4_date    TEXT,
			email_5_date    TEXT,
			created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS scheduler_state (
			id          INTEGER PRIMARY KEY CHECK (id = 1),
			last_run_at DATETIME
		)`,
		`INSERT OR IGNORE INTO scheduler_state (id, last_run_at) VALUES (1, NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
