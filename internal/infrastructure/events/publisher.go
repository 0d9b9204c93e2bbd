package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2vw/equinox/internal/domain"
	"github.com/2vw/equinox/internal/infrastructure/contracts"
	"github.com/2vw/equinox/internal/infrastructure/messaging"
)

// Publisher pushes a typed envelope onto the shared gateway channel.
// Publication is best-effort telemetry of an action: the durable store
// is the record of truth, so failures are logged by callers and never
// surfaced, retried, or allowed to fail a request.
type Publisher interface {
	Publish(ctx context.Context, event string, data any) error
}

type GatewayPublisher struct {
	rabbitmq *messaging.RabbitMQ
}

func NewGatewayPublisher(rabbitmq *messaging.RabbitMQ) *GatewayPublisher {
	return &GatewayPublisher{
		rabbitmq: rabbitmq,
	}
}

func (p *GatewayPublisher) Publish(ctx context.Context, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	body, err := json.Marshal(contracts.GatewayEvent{
		Event: event,
		Data:  raw,
	})
	if err != nil {
		return err
	}

	return p.rabbitmq.Publish(ctx, body)
}

// Author is the denormalized caller profile attached to every event so
// subscribers can render it without a user lookup. Enrichment happens
// here, at the edge: the pipeline itself never loads user records.
type Author struct {
	ID            int64   `json:"id,string"`
	Username      string  `json:"username"`
	Discriminator string  `json:"discriminator"`
	DisplayName   string  `json:"display_name"`
	Avatar        *string `json:"avatar,omitempty"`
	Bot           bool    `json:"bot"`
	Presence      string  `json:"presence"`
}

func NewAuthor(u *domain.User) Author {
	return Author{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		DisplayName:   u.DisplayName(),
		Avatar:        u.Avatar,
		Bot:           u.Bot,
		Presence:      u.Presence,
	}
}

// MessageEventData is the payload for message_create and
// message_delete envelopes.
type MessageEventData struct {
	domain.Message
	Author Author `json:"author"`
}

// TypingStartData is the payload for typing_start envelopes.
type TypingStartData struct {
	RoomID    int64     `json:"room_id,string"`
	Author    Author    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
}
