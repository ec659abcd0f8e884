package models

import (
	"time"
)

// Complaint statuses.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Ticket statuses.
const (
	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"
	TicketClosed     = "closed"
)

// Workflow completion percentages per lifecycle stage.
const (
	ProgressDraft     = 30
	ProgressConfirmed = 60
	ProgressTicketed  = 70
	ProgressResolved  = 100
	ProgressCancelled = 0
)

// Location is a confirmed geocoordinate with its resolved address.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// Workflow tracks a complaint's progress through its lifecycle stages.
type Workflow struct {
	Step                 string `json:"step"`
	CompletionPercentage int    `json:"completion_percentage"`
}

// Complaint represents a citizen-submitted civic issue prior to ticket issuance.
type Complaint struct {
	ID                      string     `json:"id"`
	Description             string     `json:"description"`
	Department              string     `json:"department"`
	Priority                string     `json:"priority"`
	Category                string     `json:"category"`
	CreatedBy               string     `json:"created_by"`
	Status                  string     `json:"status"`
	Location                *Location  `json:"location,omitempty"`
	ImageRef                string     `json:"image_ref,omitempty"`
	Workflow                Workflow   `json:"workflow"`
	FollowUpUsers           []string   `json:"follow_up_users"`
	TicketID                string     `json:"ticket_id,omitempty"`
	TicketPending           bool       `json:"ticket_pending,omitempty"`
	RequiresLocationSharing bool       `json:"requires_location_sharing"`
	EstimatedHours          int        `json:"estimated_hours"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
	ConfirmedAt             *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt             *time.Time `json:"cancelled_at,omitempty"`
}

// TicketUpdate is one entry in a ticket's append-only update log.
type TicketUpdate struct {
	Text       string    `json:"text"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Ticket is the work-tracking record created once a complaint is confirmed
// with a location.
type Ticket struct {
	TicketID            string         `json:"ticket_id"`
	ComplaintID         string         `json:"complaint_id"`
	Status              string         `json:"status"`
	Department          string         `json:"department"`
	Priority            string         `json:"priority"`
	Category            string         `json:"category"`
	Description         string         `json:"description"`
	AssignedTo          string         `json:"assigned_to,omitempty"`
	EstimatedResolution time.Time      `json:"estimated_resolution"`
	Updates             []TicketUpdate `json:"updates,omitempty"`
	FollowUpUsers       []string       `json:"follow_up_users"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Reporter is an identified citizen submitting reports.
type Reporter struct {
	ID            string  `json:"id"`
	EthicalScore  float64 `json:"ethical_score"`
	TotalMessages int     `json:"total_messages"`
	BotMode       bool    `json:"bot_mode"`
}

// Report is an inbound citizen report before it becomes a complaint.
type Report struct {
	ReporterID string    `json:"reporter_id"`
	Text       string    `json:"text"`
	ImageRef   string    `json:"image_ref,omitempty"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// HasLocation reports whether the report carries a geocoordinate.
func (r *Report) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}
