package followup

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"civic-complaint-service/models"
)

type fakeStore struct {
	complaint *models.Complaint
	getErr    error
	addErr    error

	complaintFollowers map[string]map[string]bool
	ticketFollowers    map[string]map[string]bool
}

func newFakeStore(c *models.Complaint) *fakeStore {
	return &fakeStore{
		complaint:          c,
		complaintFollowers: make(map[string]map[string]bool),
		ticketFollowers:    make(map[string]map[string]bool),
	}
}

func (f *fakeStore) GetComplaint(_ context.Context, id string) (*models.Complaint, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.complaint == nil || f.complaint.ID != id {
		return nil, models.ErrNotFound
	}
	return f.complaint, nil
}

func (f *fakeStore) AddComplaintFollower(_ context.Context, complaintID, reporterID string) error {
	if f.addErr != nil {
		return f.addErr
	}
	if f.complaintFollowers[complaintID] == nil {
		f.complaintFollowers[complaintID] = make(map[string]bool)
	}
	f.complaintFollowers[complaintID][reporterID] = true
	return nil
}

func (f *fakeStore) AddTicketFollower(_ context.Context, ticketID, reporterID string) error {
	if f.ticketFollowers[ticketID] == nil {
		f.ticketFollowers[ticketID] = make(map[string]bool)
	}
	f.ticketFollowers[ticketID][reporterID] = true
	return nil
}

func TestJoinAddsComplaintFollower(t *testing.T) {
	store := newFakeStore(&models.Complaint{ID: "c-1", CreatedBy: "r-0"})
	r := NewRegistry(store)

	assert.NoError(t, r.Join(context.Background(), "c-1", "r-2"))
	assert.True(t, store.complaintFollowers["c-1"]["r-2"])
	assert.Empty(t, store.ticketFollowers, "no ticket exists yet")
}

func TestJoinPropagatesToIssuedTicket(t *testing.T) {
	store := newFakeStore(&models.Complaint{ID: "c-1", TicketID: "t-1"})
	r := NewRegistry(store)

	assert.NoError(t, r.Join(context.Background(), "c-1", "r-2"))
	assert.True(t, store.complaintFollowers["c-1"]["r-2"])
	assert.True(t, store.ticketFollowers["t-1"]["r-2"])
}

func TestJoinSkipsPendingTicket(t *testing.T) {
	store := newFakeStore(&models.Complaint{ID: "c-1", TicketID: "t-1", TicketPending: true})
	r := NewRegistry(store)

	assert.NoError(t, r.Join(context.Background(), "c-1", "r-2"))
	assert.Empty(t, store.ticketFollowers, "pending ticket record does not exist yet")
}

func TestJoinIdempotent(t *testing.T) {
	store := newFakeStore(&models.Complaint{ID: "c-1", TicketID: "t-1"})
	r := NewRegistry(store)

	assert.NoError(t, r.Join(context.Background(), "c-1", "r-2"))
	assert.NoError(t, r.Join(context.Background(), "c-1", "r-2"))
	assert.Len(t, store.complaintFollowers["c-1"], 1)
	assert.Len(t, store.ticketFollowers["t-1"], 1)
}

func TestJoinUnknownComplaint(t *testing.T) {
	r := NewRegistry(newFakeStore(nil))
	err := r.Join(context.Background(), "missing", "r-2")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestJoinStoreFailure(t *testing.T) {
	store := newFakeStore(&models.Complaint{ID: "c-1"})
	store.addErr = errors.New("db down")
	r := NewRegistry(store)
	assert.Error(t, r.Join(context.Background(), "c-1", "r-2"))
}
