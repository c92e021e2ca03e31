// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "time"

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Message represents a chat message sent as conversation context.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Options contains model parameters for inference.
type Options struct {
	// Temperature controls sampling randomness, typically 0.0-2.0.
	Temperature float64 `json:"temperature,omitempty"`
	// NumPredict caps the number of generated tokens.
	NumPredict int `json:"num_predict,omitempty"`
}

// ChatRequest is the request body for the /api/chat endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *Options  `json:"options,omitempty"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// chatChunk is one line of the streamed /api/chat response.
type chatChunk struct {
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
	Message   struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done          bool   `json:"done"`
	DoneReason    string `json:"done_reason,omitempty"`
	TotalDuration int64  `json:"total_duration,omitempty"`
	EvalCount     int    `json:"eval_count,omitempty"`
	EvalDuration  int64  `json:"eval_duration,omitempty"`
}

// apiError is the error body Ollama returns on non-200 statuses.
type apiError struct {
	Error string `json:"error"`
}

// =============================================================================
// MODEL TYPES
// =============================================================================

// ModelInfo contains information about an installed model.
type ModelInfo struct {
	Name       string       `json:"name"`
	Model      string       `json:"model"`
	ModifiedAt time.Time    `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details,omitempty"`
}

// ModelDetails contains detailed information about a model.
type ModelDetails struct {
	Format            string   `json:"format"`
	Family            string   `json:"family"`
	Families          []string `json:"families"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

// listModelsResponse is the response from the /api/tags endpoint.
type listModelsResponse struct {
	Models []ModelInfo `json:"models"`
}

// ModelNames extracts the name field from a model list.
func ModelNames(models []ModelInfo) []string {
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return names
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// Update is one incremental delivery from a streaming chat exchange.
//
// Content is the CUMULATIVE assistant text so far, not a fragment: every
// update fully replaces the consumer's buffer. The final update has Done
// set and carries the complete text.
type Update struct {
	Content string
	Done    bool

	// Populated on the final update only.
	DoneReason       string
	Model            string
	TotalDuration    time.Duration
	CompletionTokens int
	EvalDuration     time.Duration
}

// TokensPerSecond calculates the generation speed from a final update.
func (u Update) TokensPerSecond() float64 {
	if u.EvalDuration == 0 {
		return 0
	}
	return float64(u.CompletionTokens) / u.EvalDuration.Seconds()
}

// StreamCallback is invoked for each update, in order, on the goroutine
// running ChatStream.
type StreamCallback func(u Update)

// =============================================================================
// MESSAGE HELPERS
// =============================================================================

// NewUserMessage creates a user context message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant context message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// NewSystemMessage creates a system context message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}
