package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ddebuut/storefront-api/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeName = "order.events"

	routingOrderCreated     = "order.created"
	routingPaymentConfirmed = "payment.confirmed"

	// queue fed to the notification consumer
	notifyQueueName = "order.notifications.q"
)

// RabbitProducer implements usecase.EventPublisher on a topic exchange.
type RabbitProducer struct {
	ch *amqp.Channel
}

// NewRabbitProducer declares the exchange, the notification queue, and its
// bindings once at startup.
func NewRabbitProducer(ch *amqp.Channel) (*RabbitProducer, error) {
	if err := ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(
		notifyQueueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	for _, rk := range []string{routingOrderCreated, routingPaymentConfirmed} {
		if err := ch.QueueBind(q.Name, rk, exchangeName, false, nil); err != nil {
			return nil, fmt.Errorf("queue bind %s: %w", rk, err)
		}
	}

	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}

	return &RabbitProducer{ch: ch}, nil
}

func (p *RabbitProducer) PublishOrderCreated(ctx context.Context, ev usecase.OrderCreatedEvent) error {
	return p.publish(ctx, routingOrderCreated, ev)
}

func (p *RabbitProducer) PublishPaymentConfirmed(ctx context.Context, ev usecase.PaymentConfirmedEvent) error {
	return p.publish(ctx, routingPaymentConfirmed, ev)
}

func (p *RabbitProducer) publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         body,
	}

	if err := p.ch.PublishWithContext(
		ctx,
		exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		pub,
	); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

var _ usecase.EventPublisher = (*RabbitProducer)(nil)
