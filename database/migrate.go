package database

import "fmt"

// Migrate creates the repository tables if they do not exist.
func (d *Database) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS complaints (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			description TEXT,
			department VARCHAR(64) NOT NULL DEFAULT '',
			priority VARCHAR(16) NOT NULL DEFAULT 'medium',
			category VARCHAR(64) NOT NULL DEFAULT '',
			created_by VARCHAR(128) NOT NULL,
			status ENUM('draft', 'active', 'cancelled') NOT NULL DEFAULT 'draft',
			latitude DOUBLE NULL,
			longitude DOUBLE NULL,
			address TEXT,
			image_ref VARCHAR(512) NOT NULL DEFAULT '',
			workflow_step VARCHAR(32) NOT NULL DEFAULT 'awaiting_location',
			completion_percentage INT NOT NULL DEFAULT 30,
			ticket_id VARCHAR(36) NOT NULL DEFAULT '',
			ticket_pending BOOLEAN NOT NULL DEFAULT FALSE,
			requires_location_sharing BOOLEAN NOT NULL DEFAULT TRUE,
			estimated_hours INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			confirmed_at TIMESTAMP NULL,
			cancelled_at TIMESTAMP NULL,
			INDEX idx_complaints_status_created (status, created_at),
			INDEX idx_complaints_created_by (created_by),
			INDEX idx_complaints_ticket_pending (ticket_pending)
		)`,
		`CREATE TABLE IF NOT EXISTS complaint_followers (
			complaint_id VARCHAR(36) NOT NULL,
			reporter_id VARCHAR(128) NOT NULL,
			added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (complaint_id, reporter_id)
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			ticket_id VARCHAR(36) NOT NULL PRIMARY KEY,
			complaint_id VARCHAR(36) NOT NULL,
			status ENUM('open', 'in_progress', 'resolved', 'closed') NOT NULL DEFAULT 'open',
			department VARCHAR(64) NOT NULL DEFAULT '',
			priority VARCHAR(16) NOT NULL DEFAULT 'medium',
			category VARCHAR(64) NOT NULL DEFAULT '',
			description TEXT,
			assigned_to VARCHAR(128) NOT NULL DEFAULT '',
			estimated_resolution TIMESTAMP NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_tickets_complaint (complaint_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_updates (
			id INT AUTO_INCREMENT PRIMARY KEY,
			ticket_id VARCHAR(36) NOT NULL,
			update_text TEXT,
			recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_ticket_updates_ticket (ticket_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_followers (
			ticket_id VARCHAR(36) NOT NULL,
			reporter_id VARCHAR(128) NOT NULL,
			added_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (ticket_id, reporter_id)
		)`,
		`CREATE TABLE IF NOT EXISTS reporters (
			id VARCHAR(128) NOT NULL PRIMARY KEY,
			ethical_score DOUBLE NOT NULL DEFAULT 5.0,
			total_messages INT NOT NULL DEFAULT 0,
			bot_mode BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
	}

	for _, stmt := range statements {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
