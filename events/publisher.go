package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/threadsapp/threads-backend/api"
	natsclient "github.com/threadsapp/threads-backend/nats"
)

// A Publisher emits domain events to NATS. Publishing is fire and
// forget from the caller's point of view; failures surface as errors
// the caller may log and ignore.
type Publisher struct {
	nats   *natsclient.Client
	logger *slog.Logger
}

func NewPublisher(nats *natsclient.Client, logger *slog.Logger) *Publisher {
	return &Publisher{nats: nats, logger: logger}
}

// MessageCreated publishes a message-created event.
func (p *Publisher) MessageCreated(msg api.Message) error {
	event := MessageCreatedEvent{
		MessageID: msg.ID,
		UserID:    msg.UserID,
		ParentID:  msg.ParentID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := p.nats.Publish(SubjectMessageCreated, data); err != nil {
		return fmt.Errorf("publish %s: %w", SubjectMessageCreated, err)
	}

	p.logger.Info("Published event", "subject", SubjectMessageCreated, "message_id", event.MessageID)
	return nil
}
