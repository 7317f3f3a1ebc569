package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectOfferCreated       = "daurin.offers.created"
	SubjectOfferStatusChanged = "daurin.offers.status_changed"
	SubjectOfferCompleted     = "daurin.offers.completed"
	SubjectUserRegistered     = "daurin.users.registered"
)

// Event is the envelope published on every subject.
type Event struct {
	ID         string      `json:"id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Payload    interface{} `json:"payload"`
}

type Publisher struct {
	conn *nats.Conn
}

func NewPublisher(conn *nats.Conn) *Publisher {
	return &Publisher{conn: conn}
}

func (p *Publisher) Publish(subject string, payload interface{}) error {
	event := Event{
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for subject %s: %w", subject, err)
	}
	return p.conn.Publish(subject, data)
}

func (p *Publisher) Close() {
	p.conn.Close()
}
