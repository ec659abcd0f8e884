package reputation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"civic-complaint-service/models"
)

func TestNextScoreStaysInBounds(t *testing.T) {
	tests := []struct {
		current float64
		total   int
		message float64
	}{
		{1.0, 0, 0.0},
		{1.0, 1, 1.0},
		{10.0, 500, 10.0},
		{10.0, 0, 15.0},
		{5.0, 50, -3.0},
	}
	for _, tc := range tests {
		got := NextScore(tc.current, tc.total, tc.message)
		assert.GreaterOrEqual(t, got, MinScore)
		assert.LessOrEqual(t, got, MaxScore)
	}
}

func TestNextScoreNewReporterMovesSharply(t *testing.T) {
	// With a single prior message almost all weight sits on the new score.
	got := NextScore(5.0, 1, 10.0)
	assert.Greater(t, got, 9.0)
}

func TestNextScoreVeteranMovesSlowly(t *testing.T) {
	// 200 messages: history weight is capped at 100 with decay floored at
	// 0.1, so one message moves the score by a small bounded amount.
	got := NextScore(5.0, 200, 10.0)
	assert.Greater(t, got, 5.0)
	assert.Less(t, got, 5.3)
}

func TestNextScorePositiveMessageRaisesScore(t *testing.T) {
	// A reporter at 7.5 with 10 messages sending a message scored 10.
	got := NextScore(7.5, 10, 10.0)
	assert.Greater(t, got, 7.5)
	assert.LessOrEqual(t, got, 10.0)
}

func TestNextScoreRoundsToOneDecimal(t *testing.T) {
	got := NextScore(7.5, 10, 10.0)
	assert.InDelta(t, got, float64(int(got*10+0.5))/10, 1e-9)
}

type fakeStore struct {
	reporter models.Reporter
	getErr   error
	updated  bool
	newScore float64
	newTotal int
}

func (f *fakeStore) GetReporter(context.Context, string) (*models.Reporter, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	r := f.reporter
	return &r, nil
}

func (f *fakeStore) UpdateReporterScore(_ context.Context, _ string, score float64, total int) error {
	f.updated = true
	f.newScore = score
	f.newTotal = total
	return nil
}

func TestRecordMessageIncrementsCounter(t *testing.T) {
	store := &fakeStore{reporter: models.Reporter{ID: "r-1", EthicalScore: 7.5, TotalMessages: 10}}
	tracker := NewTracker(store)

	tracker.RecordMessage(context.Background(), "r-1", 10.0)

	assert.True(t, store.updated)
	assert.Equal(t, 11, store.newTotal)
	assert.Greater(t, store.newScore, 7.5)
}
