// Package factory talks to the external pizza factory that fulfills orders.
package factory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Diner identifies who placed the order.
type Diner struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Request is the body sent to the factory.
type Request struct {
	Diner Diner `json:"diner"`
	Order any   `json:"order"`
}

// Result is what the factory returns for a fulfilled order.
type Result struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
}

// Error is returned when the factory did not fulfill the order, whether it
// answered with a failure status or could not be reached at all.
type Error struct {
	StatusCode int // 0 when no response was received
	ReportURL  string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("factory responded %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("factory unreachable: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client fulfills orders. Handlers depend on this interface so tests can
// substitute the factory per test.
type Client interface {
	Fulfill(ctx context.Context, req Request) (*Result, error)
}

// HTTPClient calls the factory over HTTP with a single attempt.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type factoryResponse struct {
	JWT       string `json:"jwt"`
	ReportURL string `json:"reportUrl"`
	Message   string `json:"message"`
}

func (c *HTTPClient) Fulfill(ctx context.Context, req Request) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode factory request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/order", bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("factory call failed",
			zap.Uint("diner_id", req.Diner.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &Error{Err: err}
	}
	defer resp.Body.Close()

	var decoded factoryResponse
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var decodeErr error
	if readErr == nil {
		decodeErr = json.Unmarshal(raw, &decoded)
	}

	c.logger.Debug("factory responded",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// A failure body may not be JSON; the status code still decides.
		msg := decoded.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &Error{
			StatusCode: resp.StatusCode,
			ReportURL:  decoded.ReportURL,
			Err:        errors.New(msg),
		}
	}
	if readErr != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", readErr)}
	}
	if decodeErr != nil {
		return nil, &Error{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode body: %w", decodeErr)}
	}
	if decoded.JWT == "" {
		return nil, &Error{StatusCode: resp.StatusCode, ReportURL: decoded.ReportURL, Err: errors.New("response carries no jwt")}
	}

	return &Result{JWT: decoded.JWT, ReportURL: decoded.ReportURL}, nil
}
