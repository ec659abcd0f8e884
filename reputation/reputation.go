// Package reputation maintains reporter standing scores.
package reputation

import (
	"context"
	"math"

	"github.com/apex/log"
	"github.com/shopspring/decimal"

	"civic-complaint-service/models"
)

// Score bounds and update constants.
const (
	MinScore = 1.0
	MaxScore = 10.0

	// maxHistoryWeight caps how much accumulated history outweighs a new
	// message, so long-lived reporters still move.
	maxHistoryWeight = 100

	// messageWeight is the fixed weight of the incoming message's score.
	messageWeight = 3.0

	minDecay = 0.1
)

// ReporterStore persists reporter standing updates.
type ReporterStore interface {
	GetReporter(ctx context.Context, id string) (*models.Reporter, error)
	UpdateReporterScore(ctx context.Context, id string, score float64, totalMessages int) error
}

// Tracker updates reporter scores with a bounded weighted mean: no single
// message dominates an established reporter, while a brand-new reporter's
// score moves quickly.
type Tracker struct {
	store ReporterStore
}

// NewTracker creates a reputation tracker over the given store.
func NewTracker(store ReporterStore) *Tracker {
	return &Tracker{store: store}
}

// NextScore computes the updated standing score for a reporter with the given
// current score and message count after a message scored messageScore.
// The result is rounded to one decimal and clamped to [1,10].
func NextScore(currentScore float64, totalMessages int, messageScore float64) float64 {
	weight := float64(totalMessages)
	if weight > maxHistoryWeight {
		weight = maxHistoryWeight
	}
	decay := 1.0 / math.Sqrt(float64(totalMessages)+1)
	if decay < minDecay {
		decay = minDecay
	}

	history := weight * (1 - decay)
	newScore := (currentScore*history + messageScore*messageWeight) / (history + messageWeight)

	rounded, _ := decimal.NewFromFloat(newScore).Round(1).Float64()
	if rounded < MinScore {
		return MinScore
	}
	if rounded > MaxScore {
		return MaxScore
	}
	return rounded
}

// RecordMessage applies one scored message to a reporter's standing and
// increments their message counter. It is a side channel: failures are
// logged, never surfaced into the report flow.
func (t *Tracker) RecordMessage(ctx context.Context, reporterID string, messageScore float64) {
	reporter, err := t.store.GetReporter(ctx, reporterID)
	if err != nil {
		log.WithError(err).WithField("reporter", reporterID).Warn("reputation: reporter lookup failed")
		return
	}

	next := NextScore(reporter.EthicalScore, reporter.TotalMessages, messageScore)
	if err := t.store.UpdateReporterScore(ctx, reporterID, next, reporter.TotalMessages+1); err != nil {
		log.WithError(err).WithField("reporter", reporterID).Warn("reputation: score update failed")
		return
	}

	log.WithFields(log.Fields{
		"reporter": reporterID,
		"score":    next,
	}).Debug("reputation updated")
}
