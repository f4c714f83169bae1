package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery from the order.events exchange. Handlers
// must tolerate redelivery: a nil return acks, an error nacks and the Router
// decides whether the message is requeued.
type Handler interface {
	Handle(ctx context.Context, d amqp.Delivery) error
}
