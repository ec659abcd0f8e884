package database

import (
	"context"
	"database/sql"
	"fmt"

	"civic-complaint-service/models"
)

// CreateTicket inserts a ticket record and its follow-up set. The insert is
// idempotent: a ticket id that already exists is left untouched, so a
// reconciliation retry after a partial issue proceeds past this write.
func (d *Database) CreateTicket(ctx context.Context, t *models.Ticket) error {
	_, err := d.db.ExecContext(ctx, `INSERT IGNORE INTO tickets
		(ticket_id, complaint_id, status, department, priority, category,
		 description, assigned_to, estimated_resolution, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TicketID, t.ComplaintID, t.Status, t.Department, t.Priority, t.Category,
		t.Description, t.AssignedTo, t.EstimatedResolution, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}

	for _, follower := range t.FollowUpUsers {
		if err := d.AddTicketFollower(ctx, t.TicketID, follower); err != nil {
			return err
		}
	}
	return nil
}

// GetTicket loads one ticket with its update log and follow-up set.
func (d *Database) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var t models.Ticket
	err := d.db.QueryRowContext(ctx, `SELECT ticket_id, complaint_id, status,
		department, priority, category, description, assigned_to,
		estimated_resolution, created_at, updated_at
		FROM tickets WHERE ticket_id = ?`, ticketID).Scan(
		&t.TicketID, &t.ComplaintID, &t.Status,
		&t.Department, &t.Priority, &t.Category, &t.Description, &t.AssignedTo,
		&t.EstimatedResolution, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT update_text, recorded_at FROM ticket_updates
		 WHERE ticket_id = ? ORDER BY recorded_at`, ticketID)
	if err != nil {
		return nil, fmt.Errorf("get ticket updates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var u models.TicketUpdate
		if err := rows.Scan(&u.Text, &u.RecordedAt); err != nil {
			return nil, err
		}
		t.Updates = append(t.Updates, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	followers, err := d.ticketFollowers(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	t.FollowUpUsers = followers
	return &t, nil
}

// AppendTicketUpdate appends one entry to a ticket's update log.
func (d *Database) AppendTicketUpdate(ctx context.Context, ticketID string, u models.TicketUpdate) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO ticket_updates (ticket_id, update_text, recorded_at) VALUES (?, ?, ?)`,
		ticketID, u.Text, u.RecordedAt)
	if err != nil {
		return fmt.Errorf("append ticket update: %w", err)
	}
	return nil
}

func (d *Database) ticketFollowers(ctx context.Context, ticketID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT reporter_id FROM ticket_followers WHERE ticket_id = ? ORDER BY added_at`,
		ticketID)
	if err != nil {
		return nil, fmt.Errorf("get ticket followers: %w", err)
	}
	defer rows.Close()

	var followers []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		followers = append(followers, id)
	}
	return followers, rows.Err()
}

// AddTicketFollower adds one reporter to a ticket's follow-up set.
// The insert is idempotent.
func (d *Database) AddTicketFollower(ctx context.Context, ticketID, reporterID string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT IGNORE INTO ticket_followers (ticket_id, reporter_id) VALUES (?, ?)`,
		ticketID, reporterID)
	if err != nil {
		return fmt.Errorf("add ticket follower: %w", err)
	}
	return nil
}
