package weatherai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/internal/testutil"
	"github.com/MarkAPhillips/weather-ai-assistant/session"
)

// scriptedResponder records what it was asked and replies from a script.
type scriptedResponder struct {
	reply       string
	err         error
	lastHistory []core.Message
	lastQuery   string
}

func (r *scriptedResponder) Respond(_ context.Context, history []core.Message, query string) (string, error) {
	r.lastHistory = history
	r.lastQuery = query
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}

func newTestChat(t *testing.T) (*WeatherAI, *session.InMemoryStore, *scriptedResponder) {
	t.Helper()
	store := session.NewInMemoryStore()
	responder := &scriptedResponder{reply: "hi"}
	return New(store, responder), store, responder
}

func TestChat_NewSessionWhenNoID(t *testing.T) {
	chat, store, _ := newTestChat(t)

	res, err := chat.Chat(context.Background(), "u1", "", "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.SessionID == "" || res.MessageID == "" {
		t.Fatalf("missing ids in result: %+v", res)
	}
	if res.Response != "hi" {
		t.Errorf("response = %q", res.Response)
	}

	history := store.ConversationHistory("u1", res.SessionID, 0)
	if len(history) != 2 {
		t.Fatalf("transcript has %d messages, want 2", len(history))
	}
	if history[0].Role != core.RoleUser || history[0].Content != "hello" {
		t.Errorf("first message = %+v", history[0])
	}
	if history[1].Role != core.RoleAssistant || history[1].Content != "hi" {
		t.Errorf("second message = %+v", history[1])
	}
	if res.MessageID != history[1].ID {
		t.Errorf("result message id %q != stored assistant id %q", res.MessageID, history[1].ID)
	}
}

func TestChat_ContinuesExistingSession(t *testing.T) {
	chat, store, responder := newTestChat(t)

	first, err := chat.Chat(context.Background(), "u1", "", "weather in London?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	responder.reply = "still sunny"
	second, err := chat.Chat(context.Background(), "u1", first.SessionID, "and now?")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("session changed: %q -> %q", first.SessionID, second.SessionID)
	}

	// The responder sees the prior turns, not the current query.
	if len(responder.lastHistory) != 2 {
		t.Fatalf("responder got %d history messages, want 2", len(responder.lastHistory))
	}
	if responder.lastQuery != "and now?" {
		t.Errorf("responder query = %q", responder.lastQuery)
	}
	if got := store.ConversationHistory("u1", first.SessionID, 0); len(got) != 4 {
		t.Errorf("transcript has %d messages, want 4", len(got))
	}
}

func TestChat_UnknownSessionStartsFresh(t *testing.T) {
	chat, _, _ := newTestChat(t)

	res, err := chat.Chat(context.Background(), "u1", "no-such-session", "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if res.SessionID == "no-such-session" {
		t.Fatal("expected a fresh session id")
	}
}

func TestChat_ExpiredSessionStartsFresh(t *testing.T) {
	clock := testutil.NewClock(time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC))
	store := session.NewInMemoryStore(func(o *session.Options) {
		o.NowFunc = clock.Now
	})
	responder := &scriptedResponder{reply: "hi"}
	chat := New(store, responder)

	first, err := chat.Chat(context.Background(), "u1", "", "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	clock.Advance(core.DefaultSessionTTL)
	second, err := chat.Chat(context.Background(), "u1", first.SessionID, "again")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if second.SessionID == first.SessionID {
		t.Fatal("expired session was reused")
	}
}

func TestChat_ResponderErrorPropagates(t *testing.T) {
	chat, store, responder := newTestChat(t)
	responder.err = errors.New("model unavailable")

	_, err := chat.Chat(context.Background(), "u1", "", "hello")
	if err == nil {
		t.Fatal("expected error")
	}

	// The user message stays in the transcript for the retry.
	sessions := store.ListSessions("u1", 0)
	if len(sessions) != 1 {
		t.Fatalf("have %d sessions, want 1", len(sessions))
	}
	history := store.ConversationHistory("u1", sessions[0].ID, 0)
	if len(history) != 1 || history[0].Role != core.RoleUser {
		t.Fatalf("transcript = %+v", history)
	}
}

func TestChat_TenantsIsolated(t *testing.T) {
	chat, store, _ := newTestChat(t)

	res, err := chat.Chat(context.Background(), "u1", "", "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	// The same session id under another user starts a fresh session.
	other, err := chat.Chat(context.Background(), "u2", res.SessionID, "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if other.SessionID == res.SessionID {
		t.Fatal("session leaked across users")
	}
	if got := store.ConversationHistory("u1", res.SessionID, 0); len(got) != 2 {
		t.Errorf("u1 transcript has %d messages, want 2", len(got))
	}
}
