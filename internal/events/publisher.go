package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

type Publisher interface {
	Publish(ctx context.Context, event UserEvent) error
}

type UserEvent struct {
	EventType  string    `json:"event_type"`
	UserID     int       `json:"user_id"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewUserEvent(eventType string, userID int, email string) UserEvent {
	return UserEvent{
		EventType:  eventType,
		UserID:     userID,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("user-admin"))
	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

// Publish sends the event on a subject equal to its type.
func (p *NatsPublisher) Publish(ctx context.Context, event UserEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(event.EventType, payload); err != nil {
		return err
	}

	logrus.WithContext(ctx).WithFields(logrus.Fields{
		"subject": event.EventType,
		"user_id": event.UserID,
	}).Debug("published user event")
	return nil
}

func (p *NatsPublisher) Close() {
	p.conn.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, UserEvent) error { return nil }
