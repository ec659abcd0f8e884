package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"civic-complaint-service/models"
)

const complaintColumns = `id, description, department, priority, category, created_by, status,
	latitude, longitude, address, image_ref, workflow_step, completion_percentage,
	ticket_id, ticket_pending, requires_location_sharing, estimated_hours,
	created_at, updated_at, confirmed_at, cancelled_at`

// scanComplaint reads one complaint row.
func scanComplaint(row interface{ Scan(...any) error }) (*models.Complaint, error) {
	var (
		c         models.Complaint
		lat, lon  sql.NullFloat64
		address   sql.NullString
		confirmed sql.NullTime
		cancelled sql.NullTime
	)
	err := row.Scan(
		&c.ID, &c.Description, &c.Department, &c.Priority, &c.Category, &c.CreatedBy, &c.Status,
		&lat, &lon, &address, &c.ImageRef, &c.Workflow.Step, &c.Workflow.CompletionPercentage,
		&c.TicketID, &c.TicketPending, &c.RequiresLocationSharing, &c.EstimatedHours,
		&c.CreatedAt, &c.UpdatedAt, &confirmed, &cancelled,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid && lon.Valid {
		c.Location = &models.Location{
			Latitude:  lat.Float64,
			Longitude: lon.Float64,
			Address:   address.String,
		}
	}
	if confirmed.Valid {
		c.ConfirmedAt = &confirmed.Time
	}
	if cancelled.Valid {
		c.CancelledAt = &cancelled.Time
	}
	return &c, nil
}

// CreateComplaint inserts a draft complaint and its creator's follow-up row.
func (d *Database) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	var lat, lon any
	var address string
	if c.Location != nil {
		lat, lon, address = c.Location.Latitude, c.Location.Longitude, c.Location.Address
	}

	_, err := d.db.ExecContext(ctx, `INSERT INTO complaints
		(id, description, department, priority, category, created_by, status,
		 latitude, longitude, address, image_ref, workflow_step, completion_percentage,
		 ticket_id, ticket_pending, requires_location_sharing, estimated_hours,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Description, c.Department, c.Priority, c.Category, c.CreatedBy, c.Status,
		lat, lon, address, c.ImageRef, c.Workflow.Step, c.Workflow.CompletionPercentage,
		c.TicketID, c.TicketPending, c.RequiresLocationSharing, c.EstimatedHours,
		c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}

	for _, follower := range c.FollowUpUsers {
		if err := d.AddComplaintFollower(ctx, c.ID, follower); err != nil {
			return err
		}
	}
	return nil
}

// GetComplaint loads one complaint with its follow-up set.
func (d *Database) GetComplaint(ctx context.Context, id string) (*models.Complaint, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = ?`, id)
	c, err := scanComplaint(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("get complaint: %w", err)
	}

	followers, err := d.complaintFollowers(ctx, id)
	if err != nil {
		return nil, err
	}
	c.FollowUpUsers = followers
	return c, nil
}

func (d *Database) complaintFollowers(ctx context.Context, complaintID string) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT reporter_id FROM complaint_followers WHERE complaint_id = ? ORDER BY added_at`,
		complaintID)
	if err != nil {
		return nil, fmt.Errorf("get followers: %w", err)
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

// QueryCandidateComplaints returns the bounded duplicate-candidate pool:
// open statuses, newest first, excluding the reporter's own complaints.
func (d *Database) QueryCandidateComplaints(ctx context.Context, statusIn []string, createdAfter time.Time, limit int, excludeCreatedBy string) ([]*models.Complaint, error) {
	if len(statusIn) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?, ", len(statusIn)-1) + "?"
	args := make([]any, 0, len(statusIn)+3)
	for _, s := range statusIn {
		args = append(args, s)
	}
	args = append(args, createdAfter, excludeCreatedBy, limit)

	rows, err := d.db.QueryContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints
		 WHERE status IN (`+placeholders+`) AND created_at > ? AND created_by != ?
		 ORDER BY created_at DESC
		 LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// FindPendingDraft returns the reporter's single most recent draft still
// awaiting a location, or models.ErrNotFound.
func (d *Database) FindPendingDraft(ctx context.Context, reporterID string) (*models.Complaint, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints
		 WHERE created_by = ? AND status = ? AND requires_location_sharing = TRUE
		 ORDER BY created_at DESC
		 LIMIT 1`, reporterID, models.StatusDraft)
	c, err := scanComplaint(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("find pending draft: %w", err)
	}

	followers, err := d.complaintFollowers(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.FollowUpUsers = followers
	return c, nil
}

// ConfirmComplaint activates a draft in one conditional write. The guard on
// status and the location-sharing flag makes double confirmation impossible.
func (d *Database) ConfirmComplaint(ctx context.Context, c *models.Complaint) error {
	if c.Location == nil {
		return fmt.Errorf("confirm complaint %s: location not set", c.ID)
	}
	result, err := d.db.ExecContext(ctx, `UPDATE complaints
		SET status = ?, latitude = ?, longitude = ?, address = ?,
		    requires_location_sharing = FALSE, confirmed_at = ?, updated_at = ?,
		    workflow_step = ?, completion_percentage = ?,
		    ticket_id = ?, ticket_pending = TRUE
		WHERE id = ? AND status = ? AND requires_location_sharing = TRUE`,
		models.StatusActive, c.Location.Latitude, c.Location.Longitude, c.Location.Address,
		c.ConfirmedAt, c.UpdatedAt,
		c.Workflow.Step, c.Workflow.CompletionPercentage,
		c.TicketID,
		c.ID, models.StatusDraft)
	return requireOneRow(result, err)
}

// MarkTicketIssued clears the pending marker and advances the workflow.
func (d *Database) MarkTicketIssued(ctx context.Context, complaintID string) error {
	result, err := d.db.ExecContext(ctx, `UPDATE complaints
		SET ticket_pending = FALSE, workflow_step = 'ticket_issued',
		    completion_percentage = ?, updated_at = NOW()
		WHERE id = ? AND status = ? AND ticket_pending = TRUE`,
		models.ProgressTicketed, complaintID, models.StatusActive)
	return requireOneRow(result, err)
}

// CancelComplaint cancels a draft in one conditional write.
func (d *Database) CancelComplaint(ctx context.Context, id string, cancelledAt time.Time) error {
	result, err := d.db.ExecContext(ctx, `UPDATE complaints
		SET status = ?, cancelled_at = ?, updated_at = ?,
		    workflow_step = 'cancelled', completion_percentage = ?
		WHERE id = ? AND status = ?`,
		models.StatusCancelled, cancelledAt, cancelledAt,
		models.ProgressCancelled, id, models.StatusDraft)
	return requireOneRow(result, err)
}

// ListTicketPending returns activated complaints whose ticket record is
// still missing, for reconciliation.
func (d *Database) ListTicketPending(ctx context.Context) ([]*models.Complaint, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints
		 WHERE status = ? AND ticket_pending = TRUE`, models.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list ticket pending: %w", err)
	}
	defer rows.Close()

	var pending []*models.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, c := range pending {
		followers, err := d.complaintFollowers(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		c.FollowUpUsers = followers
	}
	return pending, nil
}

// AddComplaintFollower adds one reporter to a complaint's follow-up set.
// The insert is idempotent.
func (d *Database) AddComplaintFollower(ctx context.Context, complaintID, reporterID string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT IGNORE INTO complaint_followers (complaint_id, reporter_id) VALUES (?, ?)`,
		complaintID, reporterID)
	if err != nil {
		return fmt.Errorf("add complaint follower: %w", err)
	}
	return nil
}
