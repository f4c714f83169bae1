package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
)

// FulfillmentStatusMsg is pushed by the fulfillment system when a shipment
// advances.
type FulfillmentStatusMsg struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"` // shipped | delivered
}

// HandlerFunc processes a decoded event.
type HandlerFunc func(ctx context.Context, ev FulfillmentStatusMsg) error

// Consumer consumes a topic with a single handler.
type Consumer struct {
	Group        sarama.ConsumerGroup
	Topics       []string
	Handle       HandlerFunc
	Logger       *slog.Logger  // optional
	RetryBackoff time.Duration // wait between failed Consume calls; default 5s
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, h HandlerFunc) *Consumer {
	return &Consumer{
		Group:  group,
		Topics: topics,
		Handle: h,
	}
}

// Start blocks until ctx is cancelled. A failed Consume call (broker outage,
// rebalance gone wrong) is retried after a backoff rather than killing the
// consumer for the life of the process.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &cgHandler{handle: c.Handle, logger: c.Logger}
	backoff := c.RetryBackoff
	if backoff <= 0 {
		backoff = 5 * time.Second
	}
	for {
		err := c.Group.Consume(ctx, c.Topics, handler)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if c.Logger != nil {
				c.Logger.Error("consume failed, retrying", "err", err, "backoff", backoff)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		// a nil return is a rebalance; rejoin immediately
	}
}

type cgHandler struct {
	handle HandlerFunc
	logger *slog.Logger
}

func (h *cgHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *cgHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *cgHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		var ev FulfillmentStatusMsg
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			if h.logger != nil {
				h.logger.Warn("kafka decode error", "err", err, "offset", msg.Offset)
			}
			// mark to avoid reprocessing poison
			sess.MarkMessage(msg, "decode-error")
			continue
		}
		if err := h.handle(sess.Context(), ev); err != nil {
			if h.logger != nil {
				h.logger.Warn("handler error", "err", err, "key", string(msg.Key), "offset", msg.Offset)
			}
			// Do not mark message; let it retry on next poll.
			continue
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

func NewGroup(brokers []string, groupID string) (sarama.ConsumerGroup, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_6_0_0
	cfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	return sarama.NewConsumerGroup(brokers, groupID, cfg)
}
