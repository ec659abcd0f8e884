// Package rabbitmq consumes inbound citizen reports from an AMQP queue and
// feeds them into the intake service.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/apex/log"
	"github.com/streadway/amqp"

	"civic-complaint-service/models"
)

// reconnectDelay is how long the subscriber waits before redialing.
const reconnectDelay = 5 * time.Second

// PermanentError marks a message processing failure as non-retriable.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string {
	if e == nil || e.Err == nil {
		return "permanent error"
	}
	return e.Err.Error()
}
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError (non-retriable).
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func isPermanent(err error) bool {
	var perr *PermanentError
	return errors.As(err, &perr)
}

// ReportHandler processes one inbound report. Return nil to ack,
// Permanent(err) to drop, any other error to requeue.
type ReportHandler func(ctx context.Context, report *models.Report) error

// Subscriber consumes report messages from a queue.
type Subscriber struct {
	url      string
	queue    string
	handler  ReportHandler
	stopChan chan struct{}
}

// NewSubscriber creates a subscriber for the given queue.
func NewSubscriber(url, queue string, handler ReportHandler) *Subscriber {
	return &Subscriber{
		url:      url,
		queue:    queue,
		handler:  handler,
		stopChan: make(chan struct{}),
	}
}

// Start runs the consume loop until Stop is called, redialing on connection
// loss.
func (s *Subscriber) Start() {
	go func() {
		for {
			select {
			case <-s.stopChan:
				return
			default:
			}
			if err := s.consume(); err != nil {
				log.WithError(err).Warnf("AMQP consume failed, reconnecting in %v", reconnectDelay)
			}
			select {
			case <-s.stopChan:
				return
			case <-time.After(reconnectDelay):
			}
		}
	}()
}

// Stop terminates the consume loop.
func (s *Subscriber) Stop() {
	close(s.stopChan)
}

func (s *Subscriber) consume() error {
	conn, err := amqp.Dial(s.url)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		return err
	}

	deliveries, err := ch.Consume(s.queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	log.WithField("queue", s.queue).Info("AMQP subscriber connected")

	for {
		select {
		case <-s.stopChan:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			s.handleDelivery(d)
		}
	}
}

func (s *Subscriber) handleDelivery(d amqp.Delivery) {
	var report models.Report
	if err := json.Unmarshal(d.Body, &report); err != nil {
		log.WithError(err).Warn("dropping malformed report message")
		_ = d.Nack(false, false)
		return
	}
	if report.ReceivedAt.IsZero() {
		report.ReceivedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	err := s.handler(ctx, &report)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case isPermanent(err):
		log.WithError(err).Warn("dropping report after permanent failure")
		_ = d.Nack(false, false)
	default:
		log.WithError(err).Warn("requeueing report after transient failure")
		_ = d.Nack(false, true)
	}
}
