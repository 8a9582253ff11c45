// Package events publishes domain events to NATS so downstream consumers
// (digest builders, notification workers) can react without coupling to the
// API service. When NATS_URL is unset a no-op publisher is used.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectUserRegistered  = "briefings.user.registered"
	SubjectEntryCreated    = "briefings.entry.created"
	SubjectApprovalChanged = "briefings.entry.approval_changed"
)

type UserRegisteredEvent struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Team      string    `json:"team"`
	Timestamp time.Time `json:"timestamp"`
}

type EntryCreatedEvent struct {
	EntryID   string    `json:"entry_id"`
	AuthorID  string    `json:"author_id"`
	Category  string    `json:"category"`
	Region    string    `json:"region"`
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

type ApprovalChangedEvent struct {
	EntryID   string    `json:"entry_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type EventPublisher interface {
	PublishUserRegistered(event UserRegisteredEvent) error
	PublishEntryCreated(event EntryCreatedEvent) error
	PublishApprovalChanged(event ApprovalChangedEvent) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

// NewPublisher connects to NATS at natsURL. An empty URL yields a no-op
// publisher so the service runs without a broker.
func NewPublisher(natsURL string) (EventPublisher, error) {
	if natsURL == "" {
		slog.Warn("NATS_URL not set, events will not be published")
		return &noopPublisher{}, nil
	}
	conn, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NatsPublisher{conn: conn}, nil
}

func (p *NatsPublisher) publish(subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

func (p *NatsPublisher) PublishUserRegistered(event UserRegisteredEvent) error {
	return p.publish(SubjectUserRegistered, event)
}

func (p *NatsPublisher) PublishEntryCreated(event EntryCreatedEvent) error {
	return p.publish(SubjectEntryCreated, event)
}

func (p *NatsPublisher) PublishApprovalChanged(event ApprovalChangedEvent) error {
	return p.publish(SubjectApprovalChanged, event)
}

func (p *NatsPublisher) Close() {
	p.conn.Drain()
}

type noopPublisher struct{}

func (noopPublisher) PublishUserRegistered(UserRegisteredEvent) error   { return nil }
func (noopPublisher) PublishEntryCreated(EntryCreatedEvent) error       { return nil }
func (noopPublisher) PublishApprovalChanged(ApprovalChangedEvent) error { return nil }
