// Package notify turns reply events into push notifications for the
// parent thread's author.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/threadsapp/threads-backend/api"
	"github.com/threadsapp/threads-backend/events"
	natsclient "github.com/threadsapp/threads-backend/nats"
	"github.com/threadsapp/threads-backend/push"
)

// DB is the slice of storage the subscriber needs: the replied-to
// message and its author's push token.
type DB interface {
	GetMessage(ctx context.Context, id string) (*api.Message, error)
	GetUser(ctx context.Context, id string) (*api.User, error)
}

// A Pusher delivers a single notification.
type Pusher interface {
	Send(ctx context.Context, n push.Notification) error
}

// A Subscriber consumes message-created events and notifies the parent
// author about new comments.
type Subscriber struct {
	nats   *natsclient.Client
	db     DB
	pusher Pusher
	logger *slog.Logger
}

func NewSubscriber(nats *natsclient.Client, db DB, pusher Pusher, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		nats:   nats,
		db:     db,
		pusher: pusher,
		logger: logger,
	}
}

// Start subscribes to the message-created subject. Handling is best
// effort: decode or delivery failures are logged and the event is
// dropped.
func (s *Subscriber) Start(ctx context.Context) error {
	_, err := s.nats.Subscribe(events.SubjectMessageCreated, func(msg *nats.Msg) {
		var event events.MessageCreatedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			s.logger.Error("Could not decode message created event", "error", err.Error())
			return
		}
		if err := s.HandleMessageCreated(ctx, event); err != nil {
			s.logger.Error("Could not handle message created event", "message_id", event.MessageID, "error", err.Error())
		}
	})
	if err != nil {
		return err
	}

	s.logger.Info("Notification subscriber started", "subject", events.SubjectMessageCreated)
	return nil
}

// HandleMessageCreated sends a "New comment" push to the parent
// author when the event is a reply. Missing parents, self-replies, and
// authors without a push token are skipped silently.
func (s *Subscriber) HandleMessageCreated(ctx context.Context, event events.MessageCreatedEvent) error {
	if event.ParentID == "" {
		return nil
	}

	parent, err := s.db.GetMessage(ctx, event.ParentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return nil
	}
	if parent.UserID == event.UserID {
		return nil
	}

	author, err := s.db.GetUser(ctx, parent.UserID)
	if err != nil {
		return err
	}
	if author == nil || author.PushToken == "" {
		return nil
	}

	return s.pusher.Send(ctx, push.Notification{
		To:       author.PushToken,
		Title:    "New comment",
		Body:     event.Content,
		ThreadID: event.ParentID,
	})
}
