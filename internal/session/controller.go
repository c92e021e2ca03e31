// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/lmchat/internal/config"
	"github.com/jeranaias/lmchat/internal/model"
	"github.com/jeranaias/lmchat/internal/ollama"
)

// =============================================================================
// STATE
// =============================================================================

// State is the controller's generation state.
type State int

const (
	// StateIdle means no request is in flight.
	StateIdle State = iota
	// StateGenerating means a streaming request is active.
	StateGenerating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sentinel errors for errors.Is checks.
var (
	// ErrGenerating is returned when an operation requires the controller
	// to be idle.
	ErrGenerating = errors.New("generation in progress")
	// ErrNoConversation is returned when no conversation is active.
	ErrNoConversation = errors.New("no active conversation")
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// ChatClient is the streaming chat dependency, satisfied by *ollama.Client.
type ChatClient interface {
	ChatStream(ctx context.Context, req ollama.ChatRequest, callback ollama.StreamCallback) error
}

// Store is the persistence dependency, satisfied by *storage.Store.
type Store interface {
	Save(conv *model.Conversation) error
	Load(id string) (*model.Conversation, error)
	LoadAll() ([]*model.Conversation, error)
	Delete(id string) error
}

// UpdateFunc observes conversation changes during streaming. It is called
// on the Submit goroutine after each accepted update and once more when
// generation settles.
type UpdateFunc func(conv *model.Conversation, done bool)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller drives a chat session: it owns the active conversation,
// brokers streaming requests, and persists state as it changes.
//
// Only one generation runs at a time. Each request is tagged with a token;
// updates carrying a stale token are dropped, so a cancelled request can
// never scribble over its successor's output.
type Controller struct {
	client ChatClient
	store  Store
	cfg    *config.Config

	mu       sync.Mutex
	state    State
	conv     *model.Conversation
	token    uint64
	cancelFn context.CancelFunc

	onUpdate UpdateFunc

	// saveLimiter throttles persistence during streaming so rapid chunks
	// don't hammer the disk. The final state is always saved.
	saveLimiter *rate.Limiter
}

// NewController creates a controller with a fresh conversation.
func NewController(client ChatClient, store Store, cfg *config.Config) *Controller {
	return &Controller{
		client:      client,
		store:       store,
		cfg:         cfg,
		state:       StateIdle,
		conv:        model.NewConversation(cfg.DefaultModel),
		saveLimiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 1),
	}
}

// OnUpdate registers the streaming observer. Call before Submit.
func (c *Controller) OnUpdate(fn UpdateFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// SetConfig swaps the active configuration. Safe to call from another
// goroutine while a generation runs; the in-flight request keeps the
// settings it started with and the next request picks up the new ones.
func (c *Controller) SetConfig(cfg *config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// State returns the current generation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Conversation returns the active conversation.
func (c *Controller) Conversation() *model.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conv
}

// Model returns the model used for the active conversation.
func (c *Controller) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conv.Model != "" {
		return c.conv.Model
	}
	return c.cfg.DefaultModel
}

// SetModel switches the model for the active conversation. Fails while
// generating.
func (c *Controller) SetModel(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrGenerating
	}
	c.conv.Model = name
	return nil
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// NewConversation starts a fresh conversation, discarding nothing: the
// previous conversation was already persisted on every change. Fails while
// generating.
func (c *Controller) NewConversation() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrGenerating
	}
	c.conv = model.NewConversation(c.modelLocked())
	return nil
}

// modelLocked returns the effective model. Caller must hold mu.
func (c *Controller) modelLocked() string {
	if c.conv != nil && c.conv.Model != "" {
		return c.conv.Model
	}
	return c.cfg.DefaultModel
}

// Open loads a stored conversation and makes it active. Fails while
// generating.
func (c *Controller) Open(id string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrGenerating
	}
	c.mu.Unlock()

	conv, err := c.store.Load(id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return ErrGenerating
	}
	c.conv = conv
	return nil
}

// Delete removes a stored conversation. Deleting the active conversation
// replaces it with a fresh one. Fails while generating.
func (c *Controller) Delete(id string) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrGenerating
	}
	active := c.conv.ID == id
	c.mu.Unlock()

	if err := c.store.Delete(id); err != nil {
		return err
	}

	if active {
		c.mu.Lock()
		c.conv = model.NewConversation(c.modelLocked())
		c.mu.Unlock()
	}
	return nil
}

// List returns all stored conversations, newest first.
func (c *Controller) List() ([]*model.Conversation, error) {
	return c.store.LoadAll()
}

// =============================================================================
// GENERATION
// =============================================================================

// Submit sends user input and blocks until the response completes, is
// cancelled, or fails.
//
// The user message and an empty assistant placeholder are appended before
// the request goes out, so observers can render the pending exchange
// immediately. On cancellation Submit returns nil and keeps whatever
// partial content arrived; an assistant message that never received any
// content is removed. On error the error is returned and an empty
// placeholder is likewise removed.
func (c *Controller) Submit(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrGenerating
	}
	c.state = StateGenerating
	c.token++
	token := c.token

	reqCtx, cancel := context.WithCancel(ctx)
	c.cancelFn = cancel

	userMsg := model.NewUserMessage(input)
	assistantMsg := model.NewAssistantMessage()
	c.conv.AddMessage(userMsg)
	c.conv.AddMessage(assistantMsg)

	req := ollama.ChatRequest{
		Model:    c.modelLocked(),
		Messages: c.contextMessagesLocked(),
		Options: &ollama.Options{
			Temperature: c.cfg.Generation.Temperature,
			NumPredict:  c.cfg.Generation.MaxTokens,
		},
	}
	conv := c.conv
	c.mu.Unlock()

	c.notify(conv, false)
	c.persist(conv, true)

	err := c.client.ChatStream(reqCtx, req, func(u ollama.Update) {
		c.applyUpdate(token, assistantMsg, u)
	})

	return c.settle(token, assistantMsg, err)
}

// Cancel stops the in-flight generation, if any. Partial content already
// received stays in the conversation.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancelFn
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// applyUpdate folds one cumulative stream update into the assistant
// message, unless the update belongs to a superseded request.
func (c *Controller) applyUpdate(token uint64, msg *model.Message, u ollama.Update) {
	c.mu.Lock()
	if token != c.token {
		c.mu.Unlock()
		return
	}
	msg.SetContent(u.Content)
	c.conv.UpdatedAt = time.Now()
	conv := c.conv
	c.mu.Unlock()

	c.notify(conv, false)
	c.persist(conv, u.Done)
}

// settle finalizes a completed, cancelled, or failed generation.
func (c *Controller) settle(token uint64, msg *model.Message, streamErr error) error {
	c.mu.Lock()
	if token != c.token {
		// A newer request has taken over; nothing to settle.
		c.mu.Unlock()
		return nil
	}
	c.state = StateIdle
	if c.cancelFn != nil {
		c.cancelFn()
		c.cancelFn = nil
	}

	cancelled := ollama.IsCancelled(streamErr)
	failed := streamErr != nil && !cancelled

	// An assistant message that never got content is noise. Drop it on
	// cancel or error.
	if (cancelled || failed) && msg.IsEmpty() {
		c.conv.RemoveMessage(msg.ID)
	}
	conv := c.conv
	c.mu.Unlock()

	c.notify(conv, true)
	saveErr := c.persist(conv, true)

	// The stream failure is the primary error; a failed final save is
	// surfaced only when the stream itself ended cleanly or was
	// cancelled, so the transcript is never lost silently.
	if cancelled {
		return saveErr
	}
	if streamErr != nil {
		return streamErr
	}
	return saveErr
}

// contextMessagesLocked builds the wire-format context: system prompt plus
// every non-empty message. Caller must hold mu.
func (c *Controller) contextMessagesLocked() []ollama.Message {
	msgs := make([]ollama.Message, 0, len(c.conv.Messages)+1)
	if sys := BuildSystemPrompt(&c.cfg.Prompt, time.Now()); sys != "" {
		msgs = append(msgs, ollama.NewSystemMessage(sys))
	}
	for _, m := range c.conv.Messages {
		if m.Content == "" {
			continue // placeholder
		}
		msgs = append(msgs, ollama.Message{Role: m.Role.String(), Content: m.Content})
	}
	return msgs
}

// notify invokes the observer outside the lock.
func (c *Controller) notify(conv *model.Conversation, done bool) {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn(conv, done)
	}
}

// persist saves the conversation, throttled during streaming. force
// bypasses the limiter so settled state always reaches disk.
//
// Mid-stream save failures are swallowed: the next update retries, and
// the settle path always performs a forced save whose failure is the one
// that gets reported. In-memory state is never rolled back.
func (c *Controller) persist(conv *model.Conversation, force bool) error {
	if conv.IsEmpty() {
		return nil
	}
	if !force && !c.saveLimiter.Allow() {
		return nil
	}
	if err := c.store.Save(conv); err != nil {
		if !force {
			return nil
		}
		return fmt.Errorf("persist conversation: %w", err)
	}
	return nil
}
