// Package event provides change event publishing.
//
// Services publish a domain.ChangeEvent after every successful write. The
// logging publisher is the only broker today; a real one implements Publisher
// and is selected in cmd/server.
package event

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/actionculture/heritage/internal/domain"
)

// Publisher is the interface for publishing change events.
type Publisher interface {
	// Publish sends an event to the message broker.
	Publish(ctx context.Context, event domain.ChangeEvent) error

	// PublishBatch sends multiple events.
	PublishBatch(ctx context.Context, events []domain.ChangeEvent) error

	// Close cleanly shuts down the publisher.
	Close() error
}

// LoggingPublisher implements Publisher by logging events.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	data, _ := json.Marshal(event.Data)
	p.logger.InfoContext(ctx, "event published",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("subject_id", event.SubjectID.String()),
		slog.String("actor_id", event.ActorID.String()),
		slog.String("data", string(data)),
	)
	return nil
}

func (p *LoggingPublisher) PublishBatch(ctx context.Context, events []domain.ChangeEvent) error {
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (p *LoggingPublisher) Close() error {
	return nil
}

// RecordingPublisher keeps every published event in memory, in order.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(_ context.Context, event domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) PublishBatch(ctx context.Context, events []domain.ChangeEvent) error {
	for _, e := range events {
		_ = p.Publish(ctx, e)
	}
	return nil
}

func (p *RecordingPublisher) Close() error {
	return nil
}

// Types returns the type of every recorded event.
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// NoopPublisher is a no-op implementation for when event publishing is disabled.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

func (p *NoopPublisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	return nil
}

func (p *NoopPublisher) PublishBatch(ctx context.Context, events []domain.ChangeEvent) error {
	return nil
}

func (p *NoopPublisher) Close() error {
	return nil
}
