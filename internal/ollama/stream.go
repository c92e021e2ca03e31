// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader processes a newline-delimited JSON chat stream, accumulating
// message fragments into a running total.
type StreamReader struct {
	reader  *bufio.Reader
	content strings.Builder
}

// NewStreamReader creates a stream reader for an NDJSON response body.
func NewStreamReader(r io.Reader) *StreamReader {
	return &StreamReader{
		reader: bufio.NewReader(r),
	}
}

// Process reads chunks until the stream completes, the context is cancelled,
// or an unrecoverable read error occurs. Lines that are empty or fail to
// parse as JSON are skipped without interrupting the stream.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return &ClientError{Type: ErrorTypeCancelled, Message: "stream cancelled", Err: ctx.Err()}
			}
			return &ClientError{Type: ErrorTypeConnection, Message: "stream timed out", Err: ctx.Err()}
		default:
		}

		chunk, err := s.readChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Server closed without a done marker. Treat what we have
				// as the final state.
				if callback != nil {
					callback(Update{Content: s.content.String(), Done: true})
				}
				return nil
			}
			if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
				return &ClientError{Type: ErrorTypeCancelled, Message: "stream cancelled", Err: ctx.Err()}
			}
			return &ClientError{Type: ErrorTypeConnection, Message: "stream read failed", Err: err}
		}
		if chunk == nil {
			continue // skipped line
		}

		s.content.WriteString(chunk.Message.Content)

		if chunk.Done {
			if callback != nil {
				callback(Update{
					Content:          s.content.String(),
					Done:             true,
					DoneReason:       chunk.DoneReason,
					Model:            chunk.Model,
					TotalDuration:    time.Duration(chunk.TotalDuration),
					CompletionTokens: chunk.EvalCount,
					EvalDuration:     time.Duration(chunk.EvalDuration),
				})
			}
			return nil
		}

		// Keepalive chunks with no fragment would just repeat the previous
		// cumulative update.
		if chunk.Message.Content == "" {
			continue
		}

		if callback != nil {
			callback(Update{Content: s.content.String(), Model: chunk.Model})
		}
	}
}

// Content returns the accumulated message content.
func (s *StreamReader) Content() string {
	return s.content.String()
}

// readChunk reads one line and parses it. Returns (nil, nil) for lines that
// should be skipped, io.EOF when the stream ends.
func (s *StreamReader) readChunk() (*chatChunk, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(bytes.TrimSpace(line)) > 0 {
			// Final line without trailing newline.
			var chunk chatChunk
			if json.Unmarshal(line, &chunk) != nil {
				return nil, io.EOF
			}
			return &chunk, nil
		}
		return nil, err
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var chunk chatChunk
	if err := json.Unmarshal(line, &chunk); err != nil {
		// Malformed line. Skip it rather than killing the stream.
		return nil, nil
	}
	return &chunk, nil
}
