package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/stretchr/testify/assert"

	"civic-complaint-service/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var complaintRowColumns = []string{
	"id", "description", "department", "priority", "category", "created_by", "status",
	"latitude", "longitude", "address", "image_ref", "workflow_step", "completion_percentage",
	"ticket_id", "ticket_pending", "requires_location_sharing", "estimated_hours",
	"created_at", "updated_at", "confirmed_at", "cancelled_at",
}

func draftRow(id, createdBy string, createdAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(complaintRowColumns).AddRow(
		id, "Water leaking near main signal", "Water Supply", "high", "Water Leakage", createdBy, models.StatusDraft,
		nil, nil, nil, "", "awaiting_location", models.ProgressDraft,
		"", false, true, 12,
		createdAt, createdAt, nil, nil,
	)
}

func TestGetComplaint(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery("SELECT (.+) FROM complaints WHERE id = (.+)").
			WithArgs("c-1").
			WillReturnRows(draftRow("c-1", "r-1", now))
		mock.ExpectQuery("SELECT reporter_id FROM complaint_followers WHERE complaint_id = (.+)").
			WithArgs("c-1").
			WillReturnRows(sqlmock.NewRows([]string{"reporter_id"}).AddRow("r-1").AddRow("r-2"))

		d := NewWithDB(db)
		c, err := d.GetComplaint(context.Background(), "c-1")
		assert.NoError(t, err)
		assert.Equal(t, "c-1", c.ID)
		assert.Equal(t, models.StatusDraft, c.Status)
		assert.Nil(t, c.Location)
		assert.Equal(t, []string{"r-1", "r-2"}, c.FollowUpUsers)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetComplaintNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM complaints WHERE id = (.+)").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		d := NewWithDB(db)
		_, err := d.GetComplaint(context.Background(), "missing")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestQueryCandidateComplaints(t *testing.T) {
	it(func() {
		now := time.Now()
		cutoff := now.Add(-30 * 24 * time.Hour)
		rows := sqlmock.NewRows(complaintRowColumns).AddRow(
			"c-1", "Water leak", "Water Supply", "high", "Water Leakage", "r-0", models.StatusActive,
			17.4401, 78.3489, "MG Road", "", "ticket_issued", models.ProgressTicketed,
			"t-1", false, false, 12,
			now.Add(-2*time.Hour), now, now, nil,
		)
		mock.ExpectQuery("SELECT (.+) FROM complaints\\s+WHERE status IN (.+) AND created_at > (.+) AND created_by != (.+)").
			WithArgs(models.StatusDraft, models.StatusActive, cutoff, "r-9", 50).
			WillReturnRows(rows)

		d := NewWithDB(db)
		candidates, err := d.QueryCandidateComplaints(context.Background(),
			[]string{models.StatusDraft, models.StatusActive}, cutoff, 50, "r-9")
		assert.NoError(t, err)
		assert.Len(t, candidates, 1)
		assert.NotNil(t, candidates[0].Location)
		assert.Equal(t, 17.4401, candidates[0].Location.Latitude)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestQueryCandidateComplaintsEmptyStatuses(t *testing.T) {
	it(func() {
		d := NewWithDB(db)
		candidates, err := d.QueryCandidateComplaints(context.Background(), nil, time.Now(), 50, "r-1")
		assert.NoError(t, err)
		assert.Nil(t, candidates)
	})
}

func TestFindPendingDraftNone(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM complaints\\s+WHERE created_by = (.+)").
			WithArgs("r-1", models.StatusDraft).
			WillReturnError(sql.ErrNoRows)

		d := NewWithDB(db)
		_, err := d.FindPendingDraft(context.Background(), "r-1")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestConfirmComplaint(t *testing.T) {
	it(func() {
		now := time.Now()
		c := &models.Complaint{
			ID:       "c-1",
			Location: &models.Location{Latitude: 17.4401, Longitude: 78.3489, Address: "MG Road"},
			Workflow: models.Workflow{Step: "confirmed", CompletionPercentage: models.ProgressConfirmed},
			TicketID: "t-1",
		}
		c.ConfirmedAt = &now
		c.UpdatedAt = now

		mock.ExpectExec("UPDATE complaints").
			WithArgs(models.StatusActive, 17.4401, 78.3489, "MG Road",
				c.ConfirmedAt, c.UpdatedAt,
				"confirmed", models.ProgressConfirmed,
				"t-1",
				"c-1", models.StatusDraft).
			WillReturnResult(sqlmock.NewResult(0, 1))

		d := NewWithDB(db)
		assert.NoError(t, d.ConfirmComplaint(context.Background(), c))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestConfirmComplaintLostRace(t *testing.T) {
	it(func() {
		now := time.Now()
		c := &models.Complaint{
			ID:       "c-1",
			Location: &models.Location{Latitude: 17.4401, Longitude: 78.3489},
			TicketID: "t-1",
		}
		c.ConfirmedAt = &now

		mock.ExpectExec("UPDATE complaints").
			WillReturnResult(sqlmock.NewResult(0, 0))

		d := NewWithDB(db)
		err := d.ConfirmComplaint(context.Background(), c)
		assert.ErrorIs(t, err, models.ErrWriteConflict)
	})
}

func TestConfirmComplaintRequiresLocation(t *testing.T) {
	it(func() {
		d := NewWithDB(db)
		err := d.ConfirmComplaint(context.Background(), &models.Complaint{ID: "c-1"})
		assert.Error(t, err)
	})
}

func TestCancelComplaint(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectExec("UPDATE complaints").
			WithArgs(models.StatusCancelled, now, now, models.ProgressCancelled, "c-1", models.StatusDraft).
			WillReturnResult(sqlmock.NewResult(0, 1))

		d := NewWithDB(db)
		assert.NoError(t, d.CancelComplaint(context.Background(), "c-1", now))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelComplaintNotDraft(t *testing.T) {
	it(func() {
		mock.ExpectExec("UPDATE complaints").
			WillReturnResult(sqlmock.NewResult(0, 0))

		d := NewWithDB(db)
		err := d.CancelComplaint(context.Background(), "c-1", time.Now())
		assert.ErrorIs(t, err, models.ErrWriteConflict)
	})
}

func TestMarkTicketIssuedAlreadyCleared(t *testing.T) {
	it(func() {
		mock.ExpectExec("UPDATE complaints").
			WithArgs(models.ProgressTicketed, "c-1", models.StatusActive).
			WillReturnResult(sqlmock.NewResult(0, 0))

		d := NewWithDB(db)
		err := d.MarkTicketIssued(context.Background(), "c-1")
		assert.ErrorIs(t, err, models.ErrWriteConflict)
	})
}

func TestAddComplaintFollowerIdempotent(t *testing.T) {
	it(func() {
		// Second insert of the same pair affects zero rows; that is not an error.
		mock.ExpectExec("INSERT IGNORE INTO complaint_followers").
			WithArgs("c-1", "r-2").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT IGNORE INTO complaint_followers").
			WithArgs("c-1", "r-2").
			WillReturnResult(sqlmock.NewResult(0, 0))

		d := NewWithDB(db)
		assert.NoError(t, d.AddComplaintFollower(context.Background(), "c-1", "r-2"))
		assert.NoError(t, d.AddComplaintFollower(context.Background(), "c-1", "r-2"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetReporterUnknownGetsNeutralDefault(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, ethical_score, total_messages, bot_mode FROM reporters").
			WithArgs("r-new").
			WillReturnError(sql.ErrNoRows)

		d := NewWithDB(db)
		r, err := d.GetReporter(context.Background(), "r-new")
		assert.NoError(t, err)
		assert.Equal(t, 5.0, r.EthicalScore)
		assert.Equal(t, 0, r.TotalMessages)
	})
}

func TestUpdateReporterScoreUpserts(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO reporters").
			WithArgs("r-1", 8.3, 11, 8.3, 11).
			WillReturnResult(sqlmock.NewResult(0, 1))

		d := NewWithDB(db)
		assert.NoError(t, d.UpdateReporterScore(context.Background(), "r-1", 8.3, 11))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateTicket(t *testing.T) {
	it(func() {
		now := time.Now()
		ticket := &models.Ticket{
			TicketID:            "t-1",
			ComplaintID:         "c-1",
			Status:              models.TicketOpen,
			Department:          "Water Supply",
			Priority:            "high",
			Category:            "Water Leakage",
			Description:         "Water leaking near main signal",
			EstimatedResolution: now.Add(12 * time.Hour),
			FollowUpUsers:       []string{"r-1"},
			CreatedAt:           now,
			UpdatedAt:           now,
		}

		mock.ExpectExec("INSERT IGNORE INTO tickets").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT IGNORE INTO ticket_followers").
			WithArgs("t-1", "r-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		d := NewWithDB(db)
		assert.NoError(t, d.CreateTicket(context.Background(), ticket))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCreateTicketAlreadyExists(t *testing.T) {
	it(func() {
		// A retry after a partial issue hits an existing row; zero affected
		// rows is not an error and the follower writes still run.
		mock.ExpectExec("INSERT IGNORE INTO tickets").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("INSERT IGNORE INTO ticket_followers").
			WithArgs("t-1", "r-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		d := NewWithDB(db)
		ticket := &models.Ticket{
			TicketID:      "t-1",
			ComplaintID:   "c-1",
			Status:        models.TicketOpen,
			FollowUpUsers: []string{"r-1"},
		}
		assert.NoError(t, d.CreateTicket(context.Background(), ticket))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
