package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/2vw/equinox/internal/infrastructure/contracts"
	"github.com/2vw/equinox/internal/infrastructure/messaging"
	"github.com/2vw/equinox/internal/infrastructure/ws"
	"github.com/rabbitmq/amqp091-go"
)

// gatewayConsumer bridges the bus back into the process: every
// envelope published on the gateway exchange is forwarded to the
// websocket hub for connected clients.
type gatewayConsumer struct {
	rabbitmq *messaging.RabbitMQ
	hub      *ws.Hub
}

func NewGatewayConsumer(rabbitmq *messaging.RabbitMQ, hub *ws.Hub) *gatewayConsumer {
	return &gatewayConsumer{
		rabbitmq: rabbitmq,
		hub:      hub,
	}
}

func (c *gatewayConsumer) Listen(ctx context.Context) error {
	queue, err := c.rabbitmq.DeclareGatewayQueue()
	if err != nil {
		return err
	}

	return c.rabbitmq.Consume(ctx, queue, func(ctx context.Context, msg amqp091.Delivery) error {
		var envelope contracts.GatewayEvent
		if err := json.Unmarshal(msg.Body, &envelope); err != nil {
			log.Printf("dropping malformed gateway envelope: %v", err)
			return err
		}

		c.hub.Broadcast() <- msg.Body
		return nil
	})
}
