package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ddebuut/storefront-api/internal/adapter/stripe"
	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/logging"
	"github.com/ddebuut/storefront-api/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxWebhookBody caps event payloads; real checkout events are a few KB.
const maxWebhookBody = 64 * 1024

var webhookEvents = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "storefront_webhook_events_total",
		Help: "Webhook deliveries by handling outcome",
	},
	[]string{"outcome"},
)

type WebhookHandler struct {
	verifier *stripe.WebhookVerifier
	apply    *usecase.ApplyStatus
}

func NewWebhookHandler(verifier *stripe.WebhookVerifier, apply *usecase.ApplyStatus) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, apply: apply}
}

// Handle processes POST /webhook/stripe. The contract with the provider: a
// 2xx acknowledges durable processing (or a safe no-op), anything else asks
// for redelivery. So persistence failures deliberately return 500.
func (h *WebhookHandler) Handle(c *gin.Context) {
	l := logging.From(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		webhookEvents.WithLabelValues("read_error").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable_body"})
		return
	}

	ev, err := h.verifier.Verify(payload, c.GetHeader(stripe.SignatureHeader))
	if err != nil {
		if errors.Is(err, entity.ErrSignatureInvalid) {
			l.Warn("webhook signature rejected", "remote", c.ClientIP())
			webhookEvents.WithLabelValues("bad_signature").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
			return
		}
		webhookEvents.WithLabelValues("bad_payload").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_payload"})
		return
	}

	status, ok := stripe.StatusForEvent(ev)
	if !ok {
		// event types we do not act on are acknowledged so the provider
		// stops redelivering them
		webhookEvents.WithLabelValues("ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if _, err := h.apply.Execute(ctx, ev.Session.ID, status, usecase.SourceWebhook); err != nil {
		if errors.Is(err, entity.ErrTransactionNotFound) {
			// not ours to reconcile; nothing was mutated, ack it
			webhookEvents.WithLabelValues("unknown_session").Inc()
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		l.Error("webhook apply failed", "event_id", ev.ID, "err", err)
		webhookEvents.WithLabelValues("apply_error").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing_failed"})
		return
	}

	l.Info("webhook event applied", "event_id", ev.ID, "type", ev.Type, "session_id", ev.Session.ID)
	webhookEvents.WithLabelValues("applied").Inc()
	c.JSON(http.StatusOK, gin.H{"received": true})
}
