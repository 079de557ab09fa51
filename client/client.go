// Package client is the outbound REST client for the restaurant backend.
// Every call takes a context; transport failures, deadlines and HTTP error
// statuses are classified into the apierr taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"comanda/apierr"
	"comanda/logger"
)

// TokenSource supplies the bearer token for authenticated calls. Implemented
// by *session.Session; nil means unauthenticated.
type TokenSource interface {
	Token() string
	TokenExpired() bool
	ClearToken() error
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        *logger.Logger
}

func New(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        logger.New("api-client"),
	}
}

// errorBody is the shape the backend uses for error payloads.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do issues one request and decodes a 2xx JSON body into out (when non-nil).
// A token already known to be expired never reaches the wire: the call is
// short-circuited with the same ErrSessionExpired a 401 would produce.
// Error classification:
//   - context cancellation propagates as-is so callers can drop late results
//   - deadline exceeded -> *apierr.TimeoutError
//   - other transport errors -> *apierr.NetworkError
//   - 401 -> apierr.ErrSessionExpired (and the stored token is dropped)
//   - 409 -> *apierr.ConflictError via the caller (status is surfaced raw here)
//   - remaining non-2xx -> *apierr.ServerError with the server text verbatim
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.tokens != nil && c.tokens.TokenExpired() {
		_ = c.tokens.ClearToken()
		return apierr.ErrSessionExpired
	}

	requestID := uuid.NewString()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransport(ctx, requestID, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.tokens != nil {
			_ = c.tokens.ClearToken()
		}
		return apierr.ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := &apierr.ServerError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		c.log.Error(requestID, "http_request", method+" "+path, serverErr)
		return serverErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) classifyTransport(ctx context.Context, requestID, method, path string, err error) error {
	// A caller-cancelled request is a no-op, not a failure.
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return context.Canceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		timeoutErr := &apierr.TimeoutError{Err: err}
		c.log.Error(requestID, "http_request", method+" "+path, timeoutErr)
		return timeoutErr
	}
	var netTimeout interface{ Timeout() bool }
	if errors.As(err, &netTimeout) && netTimeout.Timeout() {
		timeoutErr := &apierr.TimeoutError{Err: err}
		c.log.Error(requestID, "http_request", method+" "+path, timeoutErr)
		return timeoutErr
	}
	netErr := &apierr.NetworkError{Err: err}
	c.log.Error(requestID, "http_request", method+" "+path, netErr)
	return netErr
}

func readErrorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed errorBody
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return string(raw)
}
