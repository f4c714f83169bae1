// Package stripe implements the hosted-checkout capability contract against
// a Stripe-compatible HTTP API: session creation, session lookup, and signed
// webhook verification.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/usecase"
)

const DefaultAPIBase = "https://api.stripe.com"

type Client struct {
	apiBase   string
	secretKey string
	hc        *http.Client
}

func NewClient(apiBase, secretKey string, timeout time.Duration) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		apiBase:   strings.TrimSuffix(apiBase, "/"),
		secretKey: secretKey,
		hc:        &http.Client{Timeout: timeout},
	}
}

// session is the wire shape of a checkout session, reduced to the fields
// this service reads.
type session struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`         // open | complete | expired
	PaymentStatus string `json:"payment_status"` // paid | unpaid | no_payment_required
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

func (c *Client) CreateSession(ctx context.Context, in usecase.CreateSessionInput) (*usecase.ProviderSession, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("checkout provider not configured: %w", entity.ErrProviderUnavailable)
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", in.SuccessURL)
	form.Set("cancel_url", in.CancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", in.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", "Order payment")
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	var s session
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &s); err != nil {
		return nil, err
	}
	return toProviderSession(&s), nil
}

func (c *Client) GetSession(ctx context.Context, sessionID string) (*usecase.ProviderSession, error) {
	if c.secretKey == "" {
		return nil, fmt.Errorf("checkout provider not configured: %w", entity.ErrProviderUnavailable)
	}

	var s session
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(sessionID), nil, &s); err != nil {
		return nil, err
	}
	return toProviderSession(&s), nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		// transport failure or timeout: retryable by the caller
		return fmt.Errorf("%s %s: %v: %w", method, path, err, entity.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return entity.ErrTransactionNotFound
	case resp.StatusCode >= 400:
		// 401/403 are misconfigured credentials, 5xx is the provider down;
		// both surface as retryable
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, entity.ErrProviderUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %v: %w", method, path, err, entity.ErrProviderUnavailable)
	}
	return nil
}

func toProviderSession(s *session) *usecase.ProviderSession {
	return &usecase.ProviderSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        s.Status,
		PaymentStatus: mapPaymentStatus(s),
		AmountTotal:   s.AmountTotal,
		Currency:      s.Currency,
	}
}

func mapPaymentStatus(s *session) entity.PaymentStatus {
	switch {
	case s.PaymentStatus == "paid" || s.PaymentStatus == "no_payment_required":
		return entity.PaymentPaid
	case s.Status == "expired":
		return entity.PaymentExpired
	default:
		return entity.PaymentPending
	}
}

var _ usecase.CheckoutProvider = (*Client)(nil)
