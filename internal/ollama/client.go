// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for consistent handling.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNotRunning indicates the server is not reachable.
	ErrorTypeNotRunning
	// ErrorTypeInvalidResponse indicates the server sent a malformed or
	// unexpected response.
	ErrorTypeInvalidResponse
	// ErrorTypeCancelled indicates the request was cancelled by the caller.
	ErrorTypeCancelled
	// ErrorTypeConnection indicates a network failure mid-request.
	ErrorTypeConnection
)

// Sentinel errors for errors.Is checks.
var (
	ErrNotRunning = errors.New("ollama server not running")
	ErrCancelled  = errors.New("request cancelled")
)

// ClientError wraps errors with type information.
type ClientError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is supports errors.Is against the package sentinels.
func (e *ClientError) Is(target error) bool {
	switch target {
	case ErrNotRunning:
		return e.Type == ErrorTypeNotRunning
	case ErrCancelled:
		return e.Type == ErrorTypeCancelled
	}
	return false
}

// IsNotRunning reports whether err indicates an unreachable server.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

// IsCancelled reports whether err indicates a caller-initiated cancellation.
// Cancellation is not a failure and callers typically swallow it.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig contains configuration for the Ollama client.
type ClientConfig struct {
	// BaseURL is the Ollama server URL (default: http://localhost:11434).
	BaseURL string
	// Timeout for non-streaming requests (default: 30s).
	Timeout time.Duration
	// StreamTimeout bounds an entire streaming exchange. Generation is
	// slow, so this is generous (default: 5m).
	StreamTimeout time.Duration
	// DefaultModel used when a request does not name one.
	DefaultModel string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		BaseURL:       "http://localhost:11434",
		Timeout:       30 * time.Second,
		StreamTimeout: 5 * time.Minute,
	}
}

// Client communicates with the Ollama HTTP API.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a new Ollama client.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.StreamTimeout == 0 {
		config.StreamTimeout = 5 * time.Minute
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// CheckRunning verifies the Ollama server is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return &ClientError{Type: ErrorTypeUnknown, Message: "failed to create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, err, "server check failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ClientError{
			Type:    ErrorTypeNotRunning,
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
		}
	}
	return nil
}

// ListModels returns the models installed on the server.
func (c *Client) ListModels(ctx context.Context) ([]ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return nil, &ClientError{Type: ErrorTypeUnknown, Message: "failed to create request", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(ctx, err, "failed to list models")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	var list listModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &ClientError{
			Type:    ErrorTypeInvalidResponse,
			Message: "failed to decode model list",
			Err:     err,
		}
	}
	return list.Models, nil
}

// ChatStream sends a chat request and streams the response through callback.
//
// Each callback receives the cumulative content so far. The final callback
// has Done set and carries generation stats. On cancellation the returned
// error satisfies errors.Is(err, ErrCancelled); any content delivered
// before the cancel remains valid.
func (c *Client) ChatStream(ctx context.Context, chatReq ChatRequest, callback StreamCallback) error {
	if chatReq.Model == "" {
		chatReq.Model = c.config.DefaultModel
	}
	chatReq.Stream = true

	ctx, cancel := context.WithTimeout(ctx, c.config.StreamTimeout)
	defer cancel()

	body, err := json.Marshal(chatReq)
	if err != nil {
		return &ClientError{Type: ErrorTypeUnknown, Message: "failed to encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrorTypeUnknown, Message: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	// No client timeout here: generation can legitimately run for minutes.
	// The context carries cancellation.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return c.classifyTransportError(ctx, err, "chat request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}

	reader := NewStreamReader(resp.Body)
	return reader.Process(ctx, callback)
}

// =============================================================================
// ERROR CLASSIFICATION
// =============================================================================

// classifyTransportError maps a transport-level failure to a ClientError.
// Caller cancellation takes priority over whatever the transport reported.
func (c *Client) classifyTransportError(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
		return &ClientError{Type: ErrorTypeCancelled, Message: "request cancelled", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrorTypeCancelled, Message: "request cancelled", Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrorTypeConnection, Message: "request timed out", Err: err}
	}
	return &ClientError{Type: ErrorTypeNotRunning, Message: msg, Err: err}
}

// statusError converts a non-200 response into a ClientError, decoding the
// server's error body when present.
func (c *Client) statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr apiError
	if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusServiceUnavailable {
			return &ClientError{Type: ErrorTypeNotRunning, Message: apiErr.Error}
		}
		return &ClientError{
			Type:    ErrorTypeInvalidResponse,
			Message: fmt.Sprintf("server error (status %d): %s", resp.StatusCode, apiErr.Error),
		}
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusServiceUnavailable {
		return &ClientError{
			Type:    ErrorTypeNotRunning,
			Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
		}
	}
	return &ClientError{
		Type:    ErrorTypeInvalidResponse,
		Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
	}
}
