// Package service wires the complaint engine's collaborators together and
// owns the intake path shared by the HTTP API and the AMQP subscriber.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"

	"civic-complaint-service/classifier"
	"civic-complaint-service/config"
	"civic-complaint-service/database"
	"civic-complaint-service/followup"
	"civic-complaint-service/lifecycle"
	"civic-complaint-service/metrics"
	"civic-complaint-service/middleware"
	"civic-complaint-service/models"
	"civic-complaint-service/openai"
	"civic-complaint-service/osm"
	"civic-complaint-service/rabbitmq"
	"civic-complaint-service/reputation"
	"civic-complaint-service/similarity"
	"civic-complaint-service/stubclassifier"
)

// Service is the complaint intake orchestrator.
type Service struct {
	cfg       *config.Config
	db        *database.Database
	lifecycle *lifecycle.Lifecycle
	tracker   *reputation.Tracker
	limiter   *middleware.RateLimiter
	cls       classifier.Client
	stopChan  chan struct{}
}

// NewService builds the full collaborator graph over one database.
func NewService(cfg *config.Config, db *database.Database) *Service {
	var cls classifier.Client
	if cfg.UseStubClassifier || cfg.OpenAIAPIKey == "" {
		cls = stubclassifier.NewClient()
	} else {
		cls = openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	log.Infof("Classifier provider=%s", cls.SourceName())

	var geocoder lifecycle.Geocoder
	if cfg.NominatimURL != "" {
		geocoder = osm.NewClientWithBaseURL(cfg.NominatimURL)
	} else {
		geocoder = osm.NewClient()
	}

	engine := similarity.NewEngine(cls, db).
		WithTimeout(cfg.DedupTimeout).
		WithParallelism(cfg.DedupParallelism)
	registry := followup.NewRegistry(db)

	return &Service{
		cfg:       cfg,
		db:        db,
		lifecycle: lifecycle.New(db, cls, engine, registry, geocoder),
		tracker:   reputation.NewTracker(db),
		limiter:   middleware.NewRateLimiter(cfg.RateLimitCount, cfg.RateLimitWindow),
		cls:       cls,
		stopChan:  make(chan struct{}),
	}
}

// Limiter exposes the shared per-reporter rate limiter to intake surfaces.
func (s *Service) Limiter() *middleware.RateLimiter {
	return s.limiter
}

// Lifecycle exposes the complaint lifecycle to the HTTP handlers.
func (s *Service) Lifecycle() *lifecycle.Lifecycle {
	return s.lifecycle
}

// ProcessReport runs the full intake path for one inbound report: duplicate
// check, draft creation or follow-up join, plus the reputation side channel.
func (s *Service) ProcessReport(ctx context.Context, report *models.Report) (*lifecycle.RegistrationResult, error) {
	started := time.Now()
	result, err := s.lifecycle.RegisterReport(ctx, report)
	metrics.DedupDurationSeconds.Observe(time.Since(started).Seconds())

	if err != nil {
		metrics.ReportsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	if result.Duplicate {
		metrics.ReportsTotal.WithLabelValues("duplicate").Inc()
	} else {
		metrics.ReportsTotal.WithLabelValues("created").Inc()
	}

	// Reputation is a side channel: it never delays or fails the intake.
	go s.scoreMessage(report)

	return result, nil
}

// scoreMessage derives a message quality score from the classifier's intent
// confidence and feeds it into the reporter's standing.
func (s *Service) scoreMessage(report *models.Report) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	intent, err := s.cls.AnalyzeIntent(ctx, report.Text)
	if err != nil {
		metrics.ClassifierFailuresTotal.WithLabelValues("intent").Inc()
		log.WithError(err).Debug("intent analysis failed, skipping reputation update")
		return
	}
	s.tracker.RecordMessage(ctx, report.ReporterID, intent.Confidence*reputation.MaxScore)
}

// HandleQueuedReport is the AMQP intake entry point. Rate-limited reports
// and empty reports are dropped permanently; repository failures requeue.
func (s *Service) HandleQueuedReport(ctx context.Context, report *models.Report) error {
	if report.ReporterID == "" || report.Text == "" {
		return rabbitmq.Permanent(errors.New("report missing reporter or text"))
	}
	if !s.limiter.Allow(report.ReporterID) {
		log.WithField("reporter", report.ReporterID).Warn("dropping rate-limited queued report")
		return rabbitmq.Permanent(errors.New("reporter rate limited"))
	}
	_, err := s.ProcessReport(ctx, report)
	return err
}

// SubmitLocation applies an inbound geocoordinate to the reporter's pending
// draft.
func (s *Service) SubmitLocation(ctx context.Context, reporterID string, lat, lon float64) (*lifecycle.ConfirmationResult, error) {
	result, err := s.lifecycle.ConfirmLocation(ctx, reporterID, lat, lon)
	if err != nil {
		return nil, err
	}
	if result.Ticket != nil {
		metrics.TicketsIssuedTotal.Inc()
	}
	if result.TicketPending {
		metrics.TicketsPending.Inc()
	}
	return result, nil
}

// Cancel cancels a draft complaint.
func (s *Service) Cancel(ctx context.Context, complaintID string) error {
	return s.lifecycle.Cancel(ctx, complaintID)
}

// Start launches the background ticket reconciliation sweep.
func (s *Service) Start() {
	go func() {
		ticker := time.NewTicker(s.cfg.ReconcileInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				remaining, err := s.lifecycle.ReconcilePendingTickets(ctx)
				if err != nil {
					log.WithError(err).Warn("ticket reconciliation sweep failed")
				} else {
					metrics.TicketsPending.Set(float64(remaining))
				}
				cancel()
			case <-s.stopChan:
				return
			}
		}
	}()
	log.Info("complaint service started")
}

// Stop terminates background work.
func (s *Service) Stop() {
	close(s.stopChan)
	log.Info("complaint service stopped")
}
