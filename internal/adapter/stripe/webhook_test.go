package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/ddebuut/storefront-api/internal/entity"
)

const testSecret = "whsec_test"

func sign(secret string, ts time.Time, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return "t=" + strconv.FormatInt(ts.Unix(), 10) + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func verifierAt(now time.Time) *WebhookVerifier {
	v := NewWebhookVerifier(testSecret, DefaultTolerance)
	v.now = func() time.Time { return now }
	return v
}

func TestWebhookVerifier_Verify(t *testing.T) {
	now := time.Unix(1700000000, 0)
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_123",
			"status": "complete",
			"payment_status": "paid",
			"amount_total": 4099,
			"currency": "usd"
		}}
	}`)

	t.Run("valid signature parses the event", func(t *testing.T) {
		ev, err := verifierAt(now).Verify(payload, sign(testSecret, now, payload))
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if ev.ID != "evt_1" || ev.Type != "checkout.session.completed" {
			t.Errorf("event = %+v", ev)
		}
		if ev.Session.ID != "cs_123" || ev.Session.PaymentStatus != "paid" {
			t.Errorf("session = %+v", ev.Session)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := verifierAt(now).Verify(payload, sign("whsec_other", now, payload))
		if !errors.Is(err, entity.ErrSignatureInvalid) {
			t.Fatalf("want ErrSignatureInvalid, got %v", err)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		header := sign(testSecret, now, payload)
		tampered := append([]byte(nil), payload...)
		tampered[len(tampered)-2] = 'x'
		_, err := verifierAt(now).Verify(tampered, header)
		if !errors.Is(err, entity.ErrSignatureInvalid) {
			t.Fatalf("want ErrSignatureInvalid, got %v", err)
		}
	})

	t.Run("stale timestamp is a replay", func(t *testing.T) {
		old := now.Add(-DefaultTolerance - time.Minute)
		_, err := verifierAt(now).Verify(payload, sign(testSecret, old, payload))
		if !errors.Is(err, entity.ErrSignatureInvalid) {
			t.Fatalf("want ErrSignatureInvalid, got %v", err)
		}
	})

	t.Run("missing or malformed header", func(t *testing.T) {
		for _, header := range []string{"", "v1=abc", "t=notanumber,v1=abc", "t=1700000000"} {
			if _, err := verifierAt(now).Verify(payload, header); !errors.Is(err, entity.ErrSignatureInvalid) {
				t.Errorf("header %q: want ErrSignatureInvalid, got %v", header, err)
			}
		}
	})

	t.Run("second v1 candidate may match", func(t *testing.T) {
		good := sign(testSecret, now, payload)
		// key rotation sends old and new signatures in one header
		header := "t=" + strconv.FormatInt(now.Unix(), 10) + ",v1=" + hex.EncodeToString(make([]byte, 32)) +
			",v1=" + good[len("t=1700000000,v1="):]
		if _, err := verifierAt(now).Verify(payload, header); err != nil {
			t.Fatalf("Verify: %v", err)
		}
	})
}

func TestStatusForEvent(t *testing.T) {
	cases := []struct {
		name          string
		eventType     string
		paymentStatus string
		wantStatus    entity.PaymentStatus
		wantOK        bool
	}{
		{"completed and paid", "checkout.session.completed", "paid", entity.PaymentPaid, true},
		{"completed but async pending", "checkout.session.completed", "unpaid", "", false},
		{"async success", "checkout.session.async_payment_succeeded", "paid", entity.PaymentPaid, true},
		{"async failure", "checkout.session.async_payment_failed", "unpaid", entity.PaymentFailed, true},
		{"expired", "checkout.session.expired", "unpaid", entity.PaymentExpired, true},
		{"unrelated event", "charge.refunded", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev := &WebhookEvent{Type: tc.eventType, Session: session{PaymentStatus: tc.paymentStatus}}
			got, ok := StatusForEvent(ev)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.wantStatus {
				t.Errorf("status = %s, want %s", got, tc.wantStatus)
			}
		})
	}
}
