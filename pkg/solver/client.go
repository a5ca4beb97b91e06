package solver

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
)

// DefaultTimeout bounds one solve call when no timeout is configured
const DefaultTimeout = 30 * time.Second

// TimeoutError indicates the solver did not respond within the configured
// timeout. The attempt it belongs to is aborted, never retried internally.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("solver did not respond within %s", e.Timeout)
}

// RequestError indicates a non-success HTTP response from the solver. It
// carries whatever error body could be parsed.
type RequestError struct {
	StatusCode int
	ErrorCode  string
	Details    string
}

func (e *RequestError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("solver request failed with status %d: %s (%s)", e.StatusCode, e.ErrorCode, e.Details)
	}
	return fmt.Sprintf("solver request failed with status %d", e.StatusCode)
}

// Client talks to the solver microservice. It holds no per-call state and is
// safe for concurrent reuse.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// NewClient creates a solver client for the given base URL. A non-positive
// timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

// Solve posts the problem to the solver and returns its solution. A timeout
// yields *TimeoutError; a non-success HTTP status yields *RequestError.
func (c *Client) Solve(ctx context.Context, problem *Problem) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(problem)
	if err != nil {
		return nil, fmt.Errorf("failed to encode solver request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/solve", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build solver request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Timeout: c.timeout}
		}
		return nil, fmt.Errorf("failed to reach solver: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Timeout: c.timeout}
		}
		return nil, fmt.Errorf("failed to read solver response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseRequestError(resp.StatusCode, data)
	}

	var solution Response
	if err := json.Unmarshal(data, &solution); err != nil {
		return nil, fmt.Errorf("failed to decode solver response: %w", err)
	}
	return &solution, nil
}

// errorBody matches the solver's error payload. FastAPI wraps HTTPException
// details in an outer "detail" object, so both shapes are accepted.
type errorBody struct {
	Error   string     `json:"error"`
	Details string     `json:"details"`
	Detail  *errorBody `json:"detail,omitempty"`
}

// parseRequestError extracts whatever structured error the solver returned
func parseRequestError(statusCode int, data []byte) *RequestError {
	reqErr := &RequestError{StatusCode: statusCode}

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		return reqErr
	}
	if body.Detail != nil {
		body = *body.Detail
	}
	reqErr.ErrorCode = body.Error
	reqErr.Details = body.Details
	return reqErr
}

// HealthInfo mirrors the solver's /health payload
type HealthInfo struct {
	Status         string  `json:"status"`
	OrtoolsVersion string  `json:"ortools_version"`
	TimeoutSeconds float64 `json:"timeout_seconds"`
	NumWorkers     int     `json:"num_workers"`
}

// Health probes the solver's /health endpoint
func (c *Client) Health(ctx context.Context) (*HealthInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return nil, &TimeoutError{Timeout: c.timeout}
		}
		return nil, fmt.Errorf("failed to reach solver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, parseRequestError(resp.StatusCode, data)
	}

	var info HealthInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &info, nil
}
