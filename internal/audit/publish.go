package audit

import (
	"context"
	"strings"
	"time"
)

type publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// PublishSink forwards events to a message broker under
// "<entity>.<action without the entity prefix>", e.g. appointment.booked.
type PublishSink struct {
	pub publisher
}

func NewPublishSink(pub publisher) *PublishSink {
	return &PublishSink{pub: pub}
}

type publishedEvent struct {
	Action   string    `json:"action"`
	Entity   string    `json:"entity"`
	EntityID string    `json:"entity_id"`
	UserID   *uint     `json:"user_id,omitempty"`
	Metadata any       `json:"metadata,omitempty"`
	At       time.Time `json:"at"`
}

func (s *PublishSink) Record(ctx context.Context, ev Event) error {
	return s.pub.PublishJSON(ctx, RoutingKey(ev), publishedEvent{
		Action:   ev.Action,
		Entity:   ev.Entity,
		EntityID: ev.EntityID,
		UserID:   ev.UserID,
		Metadata: ev.Metadata,
		At:       ev.At,
	})
}

func RoutingKey(ev Event) string {
	action := strings.TrimPrefix(ev.Action, ev.Entity+"_")
	if ev.Entity == "" {
		return action
	}
	return ev.Entity + "." + action
}
