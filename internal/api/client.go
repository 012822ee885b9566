// Package api implements the HTTP client for the subscription backend.
// Every operation is one synchronous call with an explicit outcome:
// success, a domain error (auth, validation, not found) or a transport
// error. The client never retries; a failed call surfaces to the
// conversation layer and the user decides what to do next.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/subtrackr/bot/core/logger"
	"github.com/subtrackr/bot/internal/api/wire"

	"log/slog"
)

const (
	defaultCallTimeout   = 10 * time.Second
	defaultDialTimeout   = 5 * time.Second
	defaultIdleTimeout   = 30 * time.Second
	defaultHeaderTimeout = 5 * time.Second
)

// Options configures the backend client.
type Options struct {
	BaseURL string
	// Timeout bounds one call end to end; expiry maps to a TransportError.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the subscription backend. Stateless: the bearer token
// is passed per call by the session layer.
type Client struct {
	baseURL string
	httpc   *http.Client
	timeout time.Duration
}

// NewClient builds a backend client with a tuned transport.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: defaultDialTimeout}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          32,
				MaxIdleConnsPerHost:   8,
				IdleConnTimeout:       defaultIdleTimeout,
				ResponseHeaderTimeout: defaultHeaderTimeout,
			},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		httpc:   httpc,
		timeout: timeout,
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload := map[string]string{
		wire.Encode("Username"): username,
		wire.Encode("Password"): password,
	}
	status, body, err := c.do(ctx, http.MethodPost, "/login", "", payload)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", statusError("login", status)
	}
	var fields map[string]string
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", fmt.Errorf("login: decode response: %w", err)
	}
	token, ok := fields[wire.Encode("Token")]
	if !ok || token == "" {
		return "", fmt.Errorf("login: response is missing token")
	}
	return token, nil
}

// ListSubscriptions fetches all records for the token's user preserving
// backend order.
func (c *Client) ListSubscriptions(ctx context.Context, token string) ([]Subscription, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/subscriptions", token, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, statusError("list", status)
	}
	return decodeSubscriptions(body)
}

// CreateSubscription submits a creation payload and returns the new
// record id when the backend reports one.
func (c *Client) CreateSubscription(ctx context.Context, token string, req CreateSubscriptionRequest) (string, error) {
	status, body, err := c.do(ctx, http.MethodPost, "/subscriptions", token, encodeCreateRequest(req))
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated && status != http.StatusOK {
		return "", statusError("create", status)
	}
	// The backend may answer 201 with an empty body; the id is optional.
	if len(bytes.TrimSpace(body)) == 0 {
		return "", nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return "", nil
	}
	var id string
	if raw, ok := fields[wire.Encode("ID")]; ok {
		_ = json.Unmarshal(raw, &id)
	}
	return id, nil
}

// DeleteSubscription removes one record by id.
func (c *Client) DeleteSubscription(ctx context.Context, token, id string) error {
	status, _, err := c.do(ctx, http.MethodDelete, "/subscriptions/"+id, token, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNoContent {
		return statusError("delete", status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	op := method + " " + path
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: encode payload: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		logger.Warn(ctx, "api", "call.fail",
			slog.String("status", "fail"),
			slog.String("op", op),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return 0, nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Err: err}
	}

	logger.Debug(ctx, "api", "call",
		slog.String("status", "ok"),
		slog.String("op", op),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.Took(start)),
	)
	return resp.StatusCode, data, nil
}
