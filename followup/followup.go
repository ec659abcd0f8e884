// Package followup maintains the set of reporters attached to a complaint
// and its ticket for future broadcast.
package followup

import (
	"context"
	"fmt"

	"github.com/apex/log"

	"civic-complaint-service/models"
)

// MembershipStore persists follow-up membership. Adds are idempotent set
// unions and never touch the complaint's creator or classification fields.
type MembershipStore interface {
	GetComplaint(ctx context.Context, id string) (*models.Complaint, error)
	AddComplaintFollower(ctx context.Context, complaintID, reporterID string) error
	AddTicketFollower(ctx context.Context, ticketID, reporterID string) error
}

// Registry attaches reporters to complaints they did not originate.
type Registry struct {
	store MembershipStore
}

// NewRegistry creates a follow-up registry over the given store.
func NewRegistry(store MembershipStore) *Registry {
	return &Registry{store: store}
}

// Join adds a reporter to the follow-up set of a complaint and, when the
// complaint already has a ticket, of that ticket too.
func (r *Registry) Join(ctx context.Context, complaintID, reporterID string) error {
	complaint, err := r.store.GetComplaint(ctx, complaintID)
	if err != nil {
		return fmt.Errorf("follow-up join: %w", err)
	}

	if err := r.store.AddComplaintFollower(ctx, complaintID, reporterID); err != nil {
		return fmt.Errorf("follow-up join: %w", err)
	}

	if complaint.TicketID != "" && !complaint.TicketPending {
		if err := r.store.AddTicketFollower(ctx, complaint.TicketID, reporterID); err != nil {
			return fmt.Errorf("follow-up join ticket: %w", err)
		}
	}

	log.WithFields(log.Fields{
		"complaint_id": complaintID,
		"reporter":     reporterID,
	}).Info("reporter joined follow-up set")
	return nil
}
