package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ddebuut/storefront-api/internal/entity"
)

// SignatureHeader carries the webhook signature:
// t=<unix>,v1=<hex hmac-sha256 of "<unix>.<payload>">
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance bounds how old a signed timestamp may be; older events
// are treated as replays.
const DefaultTolerance = 5 * time.Minute

// WebhookEvent is a provider-pushed assertion about a checkout session.
type WebhookEvent struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Session session // data.object
}

func (e *WebhookEvent) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object session `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	e.ID = raw.ID
	e.Type = raw.Type
	e.Session = raw.Data.Object
	return nil
}

// WebhookVerifier checks event signatures. Verification happens before any
// state is read or written; a bad signature mutates nothing.
type WebhookVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time // test seam
}

func NewWebhookVerifier(secret string, tolerance time.Duration) *WebhookVerifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &WebhookVerifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

// Verify checks the signature header against the raw payload and, on
// success, parses the event. All failures return entity.ErrSignatureInvalid
// so the handler rejects without leaking which check failed.
func (v *WebhookVerifier) Verify(payload []byte, sigHeader string) (*WebhookEvent, error) {
	ts, sigs, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return nil, entity.ErrSignatureInvalid
	}

	age := v.now().Sub(time.Unix(ts, 0))
	if age > v.tolerance || age < -v.tolerance {
		return nil, entity.ErrSignatureInvalid
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	ok := false
	for _, sig := range sigs {
		if hmac.Equal(sig, expected) {
			ok = true
			break
		}
	}
	if !ok {
		return nil, entity.ErrSignatureInvalid
	}

	var ev WebhookEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("parse webhook event: %w", err)
	}
	return &ev, nil
}

func parseSignatureHeader(h string) (ts int64, sigs [][]byte, err error) {
	if h == "" {
		return 0, nil, fmt.Errorf("empty signature header")
	}
	for _, part := range strings.Split(h, ",") {
		k, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(val, 10, 64)
			if err != nil {
				return 0, nil, fmt.Errorf("bad timestamp: %w", err)
			}
		case "v1":
			sig, err := hex.DecodeString(val)
			if err != nil {
				continue // skip malformed candidates, another v1 may match
			}
			sigs = append(sigs, sig)
		}
	}
	if ts == 0 || len(sigs) == 0 {
		return 0, nil, fmt.Errorf("missing t or v1")
	}
	return ts, sigs, nil
}

// StatusForEvent maps a webhook event type to the payment status it asserts.
// ok=false means the event type carries no reconciliation signal and should
// be acknowledged without applying anything.
func StatusForEvent(ev *WebhookEvent) (entity.PaymentStatus, bool) {
	switch ev.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		// completed sessions can still be unpaid when an async method is
		// in flight; trust the session's own payment_status
		if mapPaymentStatus(&ev.Session) == entity.PaymentPaid {
			return entity.PaymentPaid, true
		}
		return entity.PaymentPending, false
	case "checkout.session.async_payment_failed":
		return entity.PaymentFailed, true
	case "checkout.session.expired":
		return entity.PaymentExpired, true
	default:
		return "", false
	}
}
