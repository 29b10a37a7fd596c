// Package backend talks to the remote marketplace API, which owns orders,
// payments and the system-of-record cart.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront-core/internal/cart"
	"github.com/ariefcatur/go-storefront-core/internal/orders"
	"github.com/ariefcatur/go-storefront-core/internal/session"
	"github.com/sony/gobreaker/v2"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrPaymentLinkMissing = errors.New("payment link not found in response")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("backend: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	cartCB  *gobreaker.CircuitBreaker[struct{}]
	log     *slog.Logger
}

// New returns a client for baseURL. Timeouts belong to the transport; the
// client itself never retries.
func New(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
	c.cartCB = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "cart-mirror",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: mirrorHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// mirrorHealthy treats 4xx answers as a healthy backend refusing one
// shopper's request; only transport errors and 5xx count toward tripping.
func mirrorHealthy(err error) bool {
	var apiErr *APIError
	return err == nil || (errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError)
}

// MirrorAdd posts a local cart add to the remote cart (POST /cart). While the
// breaker is open it fails fast with gobreaker.ErrOpenState.
func (c *Client) MirrorAdd(ctx context.Context, add cart.RemoteAdd) error {
	_, err := c.cartCB.Execute(func() (struct{}, error) {
		return struct{}{}, c.do(ctx, http.MethodPost, "/cart", add, nil)
	})
	return err
}

// GetOrder fetches a full snapshot (GET /orders/:orderNumber).
func (c *Client) GetOrder(ctx context.Context, orderNumber string) (*orders.Snapshot, error) {
	var s orders.Snapshot
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderNumber), nil, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// VerifyPayment asks the backend to confirm a gateway transaction.
func (c *Client) VerifyPayment(ctx context.Context, txRef, transactionID string) error {
	q := url.Values{"tx_ref": {txRef}, "transaction_id": {transactionID}}
	return c.do(ctx, http.MethodGet, "/orders/verify-payment?"+q.Encode(), nil, nil)
}

// CancelOrder cancels by order id (PATCH /orders/:id/cancel).
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	return c.do(ctx, http.MethodPatch, "/orders/"+url.PathEscape(orderID)+"/cancel", nil, nil)
}

// InitiatePayment returns the gateway URL the shopper must be sent to.
func (c *Client) InitiatePayment(ctx context.Context, orderNumber string) (string, error) {
	var resp struct {
		Link string `json:"link"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(orderNumber)+"/pay", nil, &resp); err != nil {
		return "", err
	}
	if resp.Link == "" {
		return "", ErrPaymentLinkMissing
	}
	return resp.Link, nil
}

// CreateOrder submits a checkout and returns the new order number.
func (c *Client) CreateOrder(ctx context.Context, req cart.CheckoutRequest) (string, error) {
	var resp struct {
		Order struct {
			OrderNumber string `json:"orderNumber"`
		} `json:"order"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return "", err
	}
	if resp.Order.OrderNumber == "" {
		return "", errors.New("backend: order number missing in response")
	}
	return resp.Order.OrderNumber, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok, ok := session.ShopperToken(ctx); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &APIError{Status: res.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(unwrap(raw), out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// unwrap returns the "data" member when the backend wraps its payload as
// {"data": ...}, and raw otherwise.
func unwrap(raw []byte) []byte {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw
	}
	if d, ok := env["data"]; ok && len(d) > 0 && d[0] == '{' {
		return d
	}
	return raw
}

func errorMessage(raw []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &e) == nil {
		if e.Message != "" {
			return e.Message
		}
		return e.Error
	}
	return ""
}
