// Package lifecycle owns the complaint state machine from draft to ticket
// issuance or cancellation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"

	"civic-complaint-service/classifier"
	"civic-complaint-service/models"
	"civic-complaint-service/resolution"
	"civic-complaint-service/similarity"
)

// Classification fallbacks applied when the classifier is unavailable.
const (
	FallbackDepartment = "General Administration"
	FallbackPriority   = "medium"
	FallbackCategory   = "General Services"
)

// Workflow step names.
const (
	StepAwaitingLocation = "awaiting_location"
	StepConfirmed        = "confirmed"
	StepTicketIssued     = "ticket_issued"
	StepCancelled        = "cancelled"
)

// Repository is the persistence contract the lifecycle mutates complaints
// and tickets through. Writes are atomic per entity; the conditional methods
// report models.ErrWriteConflict when their guard matches no row.
type Repository interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)

	// FindPendingDraft returns the reporter's single most recent draft with
	// requiresLocationSharing still set, or models.ErrNotFound.
	FindPendingDraft(ctx context.Context, reporterID string) (*models.Complaint, error)

	// ConfirmComplaint transitions a draft to active in one conditional
	// write guarded on status='draft' AND requires_location_sharing.
	ConfirmComplaint(ctx context.Context, c *models.Complaint) error

	// MarkTicketIssued clears the ticket-pending marker and advances the
	// workflow to the ticketed stage.
	MarkTicketIssued(ctx context.Context, complaintID string) error

	// CancelComplaint cancels a draft in one conditional write guarded on
	// status='draft'.
	CancelComplaint(ctx context.Context, id string, cancelledAt time.Time) error

	CreateTicket(ctx context.Context, t *models.Ticket) error
	ListTicketPending(ctx context.Context) ([]*models.Complaint, error)
}

// Geocoder resolves coordinates to human-readable addresses.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// DuplicateFinder is the similarity engine surface the lifecycle consumes.
type DuplicateFinder interface {
	FindDuplicate(ctx context.Context, report *models.Report, reportDepartment string) (*similarity.Result, error)
}

// FollowUpJoiner attaches duplicate reporters to the matched complaint.
type FollowUpJoiner interface {
	Join(ctx context.Context, complaintID, reporterID string) error
}

// RegistrationResult is the outcome of registering a new report.
type RegistrationResult struct {
	Duplicate          bool               `json:"duplicate"`
	Complaint          *models.Complaint  `json:"complaint,omitempty"`
	MatchedComplaintID string             `json:"matched_complaint_id,omitempty"`
	Similarity         *similarity.Result `json:"similarity,omitempty"`
}

// ConfirmationResult is the outcome of an inbound location submission.
type ConfirmationResult struct {
	// Acknowledged means the location did not confirm anything: the
	// reporter has no pending draft, or the coordinate was implausible.
	Acknowledged  bool              `json:"acknowledged"`
	Complaint     *models.Complaint `json:"complaint,omitempty"`
	Ticket        *models.Ticket    `json:"ticket,omitempty"`
	TicketPending bool              `json:"ticket_pending,omitempty"`
}

// Lifecycle drives complaints through draft → active → {cancelled} and issues
// tickets on activation.
type Lifecycle struct {
	repo     Repository
	cls      classifier.Client
	finder   DuplicateFinder
	registry FollowUpJoiner
	geocoder Geocoder
	locks    *reporterLocks
	now      func() time.Time
}

// New wires a complaint lifecycle from its collaborators.
func New(repo Repository, cls classifier.Client, finder DuplicateFinder, registry FollowUpJoiner, geocoder Geocoder) *Lifecycle {
	return &Lifecycle{
		repo:     repo,
		cls:      cls,
		finder:   finder,
		registry: registry,
		geocoder: geocoder,
		locks:    newReporterLocks(),
		now:      time.Now,
	}
}

// classify obtains department, priority and category for a report, falling
// back to defaults when the classifier is unavailable.
func (l *Lifecycle) classify(ctx context.Context, text string) (department, priority, category string) {
	department, priority, category = FallbackDepartment, FallbackPriority, FallbackCategory

	if d, err := l.cls.CategorizeDepartment(ctx, text); err == nil && d != "" {
		department = d
	} else if err != nil {
		log.WithError(err).Warn("department classification failed, using fallback")
	}
	if p, err := l.cls.AssessPriority(ctx, text); err == nil && p != "" {
		priority = p
	} else if err != nil {
		log.WithError(err).Warn("priority classification failed, using fallback")
	}
	if c, err := l.cls.CategorizeType(ctx, text); err == nil && c != "" {
		category = c
	} else if err != nil {
		log.WithError(err).Warn("category classification failed, using fallback")
	}
	return department, priority, category
}

// checkDuplicate runs the duplicate scan. Any failure, including a panic in
// the engine, degrades to "not duplicate" so registration is never blocked.
func (l *Lifecycle) checkDuplicate(ctx context.Context, report *models.Report, department string) (result *similarity.Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("duplicate check panicked, treating as not duplicate: %v", r)
			result = nil
		}
	}()

	res, err := l.finder.FindDuplicate(ctx, report, department)
	if err != nil {
		log.WithError(err).Warn("duplicate check failed, treating as not duplicate")
		return nil
	}
	return res
}

// RegisterReport decides whether a new report duplicates an open complaint;
// if so the reporter joins its follow-up set, otherwise a draft complaint is
// created awaiting location confirmation.
func (l *Lifecycle) RegisterReport(ctx context.Context, report *models.Report) (*RegistrationResult, error) {
	department, priority, category := l.classify(ctx, report.Text)

	if dup := l.checkDuplicate(ctx, report, department); dup != nil && dup.IsDuplicate && dup.Candidate != nil {
		if err := l.registry.Join(ctx, dup.Candidate.ID, report.ReporterID); err != nil {
			return nil, fmt.Errorf("register report: %w", err)
		}
		log.WithFields(log.Fields{
			"reporter":     report.ReporterID,
			"complaint_id": dup.Candidate.ID,
			"score":        dup.Score,
		}).Info("duplicate report, reporter attached to existing complaint")
		return &RegistrationResult{
			Duplicate:          true,
			MatchedComplaintID: dup.Candidate.ID,
			Similarity:         dup,
		}, nil
	}

	now := l.now()
	complaint := &models.Complaint{
		ID:          uuid.New().String(),
		Description: report.Text,
		Department:  department,
		Priority:    priority,
		Category:    category,
		CreatedBy:   report.ReporterID,
		Status:      models.StatusDraft,
		ImageRef:    report.ImageRef,
		Workflow: models.Workflow{
			Step:                 StepAwaitingLocation,
			CompletionPercentage: models.ProgressDraft,
		},
		FollowUpUsers:           []string{report.ReporterID},
		RequiresLocationSharing: true,
		EstimatedHours:          resolution.EstimateHours(department, priority),
		CreatedAt:               now,
		UpdatedAt:               now,
	}

	if err := l.repo.CreateComplaint(ctx, complaint); err != nil {
		return nil, fmt.Errorf("register report: %w", err)
	}

	log.WithFields(log.Fields{
		"complaint_id": complaint.ID,
		"department":   department,
		"priority":     priority,
	}).Info("draft complaint created")
	return &RegistrationResult{Complaint: complaint}, nil
}

// plausibleCoordinate rejects coordinates outside valid ranges and the null
// island artifact some clients send on GPS failure.
func plausibleCoordinate(lat, lon float64) bool {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return false
	}
	return !(lat == 0 && lon == 0)
}

// ConfirmLocation applies an inbound geocoordinate to the reporter's pending
// draft, activating it and issuing its ticket. A location with no pending
// draft, or an implausible one, is acknowledged rather than treated as an
// error. Concurrent submissions from one reporter are serialized.
func (l *Lifecycle) ConfirmLocation(ctx context.Context, reporterID string, lat, lon float64) (*ConfirmationResult, error) {
	if !plausibleCoordinate(lat, lon) {
		log.WithField("reporter", reporterID).Info("implausible coordinate, acknowledging only")
		return &ConfirmationResult{Acknowledged: true}, nil
	}

	unlock := l.locks.lock(reporterID)
	defer unlock()

	pending, err := l.repo.FindPendingDraft(ctx, reporterID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return &ConfirmationResult{Acknowledged: true}, nil
		}
		return nil, fmt.Errorf("confirm location: %w", err)
	}

	address, err := l.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		log.WithError(err).Warn("reverse geocoding failed, storing bare coordinate")
		address = ""
	}

	now := l.now()
	pending.Location = &models.Location{Latitude: lat, Longitude: lon, Address: address}
	pending.Status = models.StatusActive
	pending.RequiresLocationSharing = false
	pending.ConfirmedAt = &now
	pending.UpdatedAt = now
	pending.Workflow = models.Workflow{
		Step:                 StepConfirmed,
		CompletionPercentage: models.ProgressConfirmed,
	}
	pending.TicketID = uuid.New().String()
	pending.TicketPending = true

	if err := l.repo.ConfirmComplaint(ctx, pending); err != nil {
		return nil, fmt.Errorf("confirm location: %w", err)
	}

	ticket, err := l.issueTicket(ctx, pending)
	if err != nil {
		// The complaint is active but its ticket record is missing; the
		// pending marker stays set and reconciliation retries creation.
		log.WithError(err).WithField("complaint_id", pending.ID).
			Error("ticket creation failed after activation, left pending for reconciliation")
		return &ConfirmationResult{Complaint: pending, TicketPending: true}, nil
	}

	pending.TicketPending = false
	pending.Workflow = models.Workflow{
		Step:                 StepTicketIssued,
		CompletionPercentage: models.ProgressTicketed,
	}
	return &ConfirmationResult{Complaint: pending, Ticket: ticket}, nil
}

// issueTicket creates the ticket record for an activated complaint and
// advances the complaint's workflow to the ticketed stage.
func (l *Lifecycle) issueTicket(ctx context.Context, c *models.Complaint) (*models.Ticket, error) {
	now := l.now()
	ticket := &models.Ticket{
		TicketID:            c.TicketID,
		ComplaintID:         c.ID,
		Status:              models.TicketOpen,
		Department:          c.Department,
		Priority:            c.Priority,
		Category:            c.Category,
		Description:         c.Description,
		EstimatedResolution: now.Add(time.Duration(c.EstimatedHours) * time.Hour),
		FollowUpUsers:       append([]string(nil), c.FollowUpUsers...),
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := l.repo.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	if err := l.repo.MarkTicketIssued(ctx, c.ID); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"complaint_id": c.ID,
		"ticket_id":    ticket.TicketID,
	}).Info("ticket issued")
	return ticket, nil
}

// Cancel cancels a complaint still in draft. Cancelling anything else,
// including an already-cancelled complaint, is a state conflict.
func (l *Lifecycle) Cancel(ctx context.Context, complaintID string) error {
	complaint, err := l.repo.GetComplaint(ctx, complaintID)
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	if complaint.Status != models.StatusDraft {
		return fmt.Errorf("cancel %s in status %q: %w", complaintID, complaint.Status, models.ErrStateConflict)
	}

	if err := l.repo.CancelComplaint(ctx, complaintID, l.now()); err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	log.WithField("complaint_id", complaintID).Info("complaint cancelled")
	return nil
}

// ReconcilePendingTickets retries ticket issuance for complaints that were
// activated but whose ticket record or pending marker failed to be written.
// It returns how many complaints are still pending after the sweep.
func (l *Lifecycle) ReconcilePendingTickets(ctx context.Context) (int, error) {
	pending, err := l.repo.ListTicketPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile: %w", err)
	}
	remaining := 0
	for _, c := range pending {
		if _, err := l.issueTicket(ctx, c); err != nil {
			remaining++
			log.WithError(err).WithField("complaint_id", c.ID).
				Warn("ticket reconciliation attempt failed")
		}
	}
	return remaining, nil
}
