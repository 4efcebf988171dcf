// Package weatherai provides a high-level façade over the session store and
// the tool-calling assistant, implementing the multi-turn chat flow. Most
// applications interact with this package by:
//  1. Creating a WeatherAI via New() with a session store and a responder
//  2. Calling Chat() per inbound message; session resolution, history
//     threading and transcript bookkeeping happen inside
//
// All defaults are safe for local development and testing; production
// deployments supply a structured logger and tune the history window.
package weatherai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/logging"
)

// DefaultHistoryLimit is how many prior messages are handed to the
// responder as conversation context.
const DefaultHistoryLimit = 10

// Responder produces the assistant's reply to query given the prior
// conversation. agent.Assistant is the production implementation.
type Responder interface {
	Respond(ctx context.Context, history []core.Message, query string) (string, error)
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Options configures a WeatherAI instance.
type Options struct {
	// HistoryLimit caps the prior messages passed to the responder.
	// Defaults to DefaultHistoryLimit.
	HistoryLimit int
	// Logger receives chat flow events. Defaults to a no-op.
	Logger logging.Logger
}

// WeatherAI is the chat orchestration façade. It owns no state of its own;
// conversation state lives in the session store and reasoning happens in
// the responder.
type WeatherAI struct {
	store        core.SessionStore
	responder    Responder
	historyLimit int
	logger       logging.Logger
}

// New creates a WeatherAI over store and responder.
func New(store core.SessionStore, responder Responder, optFns ...func(o *Options)) *WeatherAI {
	opts := Options{
		HistoryLimit: DefaultHistoryLimit,
		Logger:       logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &WeatherAI{
		store:        store,
		responder:    responder,
		historyLimit: opts.HistoryLimit,
		logger:       opts.Logger,
	}
}

// Chat handles one conversational turn for userID. A missing, expired or
// unknown sessionID starts a fresh session rather than failing, so clients
// can always just retry with no session id. The user message is recorded,
// the responder is asked for a reply against the prior history, and the
// reply is recorded before being returned. A responder failure leaves the
// user message in the transcript and propagates the error.
func (w *WeatherAI) Chat(ctx context.Context, userID, sessionID, message string) (*ChatResult, error) {
	sess, err := w.resolveSession(userID, sessionID)
	if err != nil {
		return nil, err
	}

	history := w.store.ConversationHistory(userID, sess.ID, w.historyLimit)

	if _, err := w.store.AddMessage(userID, sess.ID, core.RoleUser, message); err != nil {
		return nil, fmt.Errorf("record user message: %w", err)
	}

	reply, err := w.responder.Respond(ctx, history, message)
	if err != nil {
		w.logger.Error("responder failed", "user_id", userID, "session_id", sess.ID, "error", err)
		return nil, fmt.Errorf("generate reply: %w", err)
	}

	msg, err := w.store.AddMessage(userID, sess.ID, core.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("record assistant message: %w", err)
	}

	return &ChatResult{
		Response:  reply,
		SessionID: sess.ID,
		MessageID: msg.ID,
		Timestamp: msg.Timestamp,
	}, nil
}

// resolveSession finds the caller's session or starts a new one.
func (w *WeatherAI) resolveSession(userID, sessionID string) (*core.Session, error) {
	if sessionID == "" {
		return w.store.CreateSession(userID), nil
	}
	sess, err := w.store.GetSession(userID, sessionID)
	if errors.Is(err, core.ErrSessionNotFound) {
		w.logger.Debug("session not found, starting new one", "user_id", userID, "session_id", sessionID)
		return w.store.CreateSession(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}
