package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// GatewayExchange is the single broadcast channel every event kind is
// published to. Consumers bind their own queues and discriminate on the
// envelope's event field.
const GatewayExchange = "equinox.gateway"

type RabbitMQ struct {
	conn    *amqp.Connection
	Channel *amqp.Channel
}

func NewRabbitMQ(uri string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		GatewayExchange,
		"fanout",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare gateway exchange: %w", err)
	}

	return &RabbitMQ{
		conn:    conn,
		Channel: ch,
	}, nil
}

func (r *RabbitMQ) Close() {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.conn != nil {
		r.conn.Close()
	}
}

// Publish pushes a serialized envelope onto the gateway exchange.
func (r *RabbitMQ) Publish(ctx context.Context, body []byte) error {
	return r.Channel.PublishWithContext(
		ctx,
		GatewayExchange,
		"", // fanout ignores the routing key
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Transient,
			MessageId:     uuid.NewString(),
			CorrelationId: uuid.NewString(),
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
}

// DeclareGatewayQueue declares an exclusive queue bound to the gateway
// exchange and returns its generated name.
func (r *RabbitMQ) DeclareGatewayQueue() (string, error) {
	q, err := r.Channel.QueueDeclare(
		"",    // server-generated name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("failed to declare gateway queue: %w", err)
	}

	if err := r.Channel.QueueBind(q.Name, "", GatewayExchange, false, nil); err != nil {
		return "", fmt.Errorf("failed to bind gateway queue: %w", err)
	}

	return q.Name, nil
}

// Consume delivers every envelope arriving on the queue to the handler
// until the channel closes or ctx is cancelled.
func (r *RabbitMQ) Consume(ctx context.Context, queue string, handler func(ctx context.Context, msg amqp.Delivery) error) error {
	deliveries, err := r.Channel.Consume(
		queue,
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-deliveries:
			if !ok {
				return nil
			}
			_ = handler(ctx, msg)
		}
	}
}
