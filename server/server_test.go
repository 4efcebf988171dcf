package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	weatherai "github.com/MarkAPhillips/weather-ai-assistant"
	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/pexels"
	"github.com/MarkAPhillips/weather-ai-assistant/session"
	"github.com/MarkAPhillips/weather-ai-assistant/weather"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeChatter replies with a fixed result and records the call.
type fakeChatter struct {
	result     *weatherai.ChatResult
	err        error
	lastUserID string
}

func (f *fakeChatter) Chat(_ context.Context, userID, sessionID, message string) (*weatherai.ChatResult, error) {
	f.lastUserID = userID
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeResponder struct {
	lastQuery string
	reply     string
	err       error
}

func (f *fakeResponder) Respond(_ context.Context, _ []core.Message, query string) (string, error) {
	f.lastQuery = query
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeImages struct {
	img        *pexels.Image
	err        error
	configured bool
}

func (f *fakeImages) SearchWeatherImage(context.Context, string, string) (*pexels.Image, error) {
	return f.img, f.err
}

func (f *fakeImages) Configured() bool { return f.configured }

// fakeGeo reverse-geocodes everything to one city.
type fakeGeo struct {
	weather.Provider
	city string
}

func (f *fakeGeo) CityFromCoordinates(context.Context, weather.Location) (string, error) {
	return f.city, nil
}

func newTestServer(opt ...func(o *Options)) (*Server, *session.InMemoryStore) {
	store := session.NewInMemoryStore()
	s := New(append([]func(o *Options){func(o *Options) {
		o.Store = store
		o.WeatherConfigured = true
		o.ModelName = "mock"
	}}, opt...)...)
	return s, store
}

func do(s *Server, method, path, body, user string) *httptest.ResponseRecorder {
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestChatEndpoint(t *testing.T) {
	chatter := &fakeChatter{result: &weatherai.ChatResult{
		Response:  "hello!",
		SessionID: "s1",
		MessageID: "m1",
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}}
	s, _ := newTestServer(func(o *Options) { o.Chat = chatter })

	w := do(s, http.MethodPost, "/api/chat", `{"message":"hi"}`, "u1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp weatherai.ChatResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "hello!", resp.Response)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "u1", chatter.lastUserID)
}

func TestChatEndpoint_BlankMessage(t *testing.T) {
	s, _ := newTestServer(func(o *Options) { o.Chat = &fakeChatter{} })
	w := do(s, http.MethodPost, "/api/chat", `{"message":"  "}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatEndpoint_ChatterFailure(t *testing.T) {
	s, _ := newTestServer(func(o *Options) { o.Chat = &fakeChatter{err: assert.AnError} })
	w := do(s, http.MethodPost, "/api/chat", `{"message":"hi"}`, "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWeatherEndpoint_ExplicitCity(t *testing.T) {
	responder := &fakeResponder{reply: "sunny in Paris"}
	s, _ := newTestServer(func(o *Options) { o.Responder = responder })

	w := do(s, http.MethodPost, "/api/weather", `{"query":"what's the weather?","city":"Paris"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp weatherQueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sunny in Paris", resp.Response)
	assert.Equal(t, "Paris", resp.City)
	assert.False(t, resp.UsedLocation)
	assert.Equal(t, "what's the weather? (Location: Paris)", responder.lastQuery)
}

func TestWeatherEndpoint_UserLocation(t *testing.T) {
	responder := &fakeResponder{reply: "cloudy"}
	s, _ := newTestServer(func(o *Options) {
		o.Responder = responder
		o.Provider = &fakeGeo{city: "Berlin"}
	})

	body := `{"query":"weather?","userLocation":{"latitude":52.5,"longitude":13.4}}`
	w := do(s, http.MethodPost, "/api/weather", body, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp weatherQueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Berlin", resp.City)
	assert.True(t, resp.UsedLocation)
}

func TestWeatherImageEndpoint(t *testing.T) {
	s, _ := newTestServer(func(o *Options) {
		o.Images = &fakeImages{configured: true, img: &pexels.Image{URL: "https://img", Alt: "rain"}}
	})

	w := do(s, http.MethodGet, "/api/weather/image?condition=rain&city=London", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://img")

	// Missing condition.
	w = do(s, http.MethodGet, "/api/weather/image", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWeatherImageEndpoint_NoImage(t *testing.T) {
	s, _ := newTestServer(func(o *Options) {
		o.Images = &fakeImages{configured: true, err: pexels.ErrNoImage}
	})
	w := do(s, http.MethodGet, "/api/weather/image?condition=lava", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWeatherImageEndpoint_NotConfigured(t *testing.T) {
	s, _ := newTestServer(func(o *Options) {
		o.Images = &fakeImages{configured: false}
	})
	w := do(s, http.MethodGet, "/api/weather/image?condition=rain", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	s, _ := newTestServer()

	// Create.
	w := do(s, http.MethodPost, "/api/sessions", "", "u1")
	require.Equal(t, http.StatusCreated, w.Code)
	var sess core.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.ID)

	// Get it back.
	w = do(s, http.MethodGet, "/api/sessions/"+sess.ID, "", "u1")
	assert.Equal(t, http.StatusOK, w.Code)

	// Another tenant cannot see it.
	w = do(s, http.MethodGet, "/api/sessions/"+sess.ID, "", "u2")
	assert.Equal(t, http.StatusNotFound, w.Code)

	// List for the owner.
	w = do(s, http.MethodGet, "/api/sessions", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Count)

	// Stats.
	w = do(s, http.MethodGet, "/api/sessions/stats", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	var stats core.SessionStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Active)

	// Delete.
	w = do(s, http.MethodDelete, "/api/sessions/"+sess.ID, "", "u1")
	assert.Equal(t, http.StatusOK, w.Code)
	w = do(s, http.MethodDelete, "/api/sessions/"+sess.ID, "", "u1")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionMessagesEndpoint(t *testing.T) {
	s, store := newTestServer()
	sess := store.CreateSession("u1")
	_, err := store.AddMessage("u1", sess.ID, core.RoleUser, "hello")
	require.NoError(t, err)
	_, err = store.AddMessage("u1", sess.ID, core.RoleAssistant, "hi")
	require.NoError(t, err)

	w := do(s, http.MethodGet, "/api/sessions/"+sess.ID+"/messages?limit=1", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages []core.Message `json:"messages"`
		Count    int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, core.RoleAssistant, resp.Messages[0].Role)

	// Unknown session: empty list, not an error.
	w = do(s, http.MethodGet, "/api/sessions/nope/messages", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestDeleteAllSessionsEndpoint(t *testing.T) {
	s, store := newTestServer()
	for i := 0; i < 3; i++ {
		store.CreateSession("u1")
	}
	store.CreateSession("u2")

	w := do(s, http.MethodDelete, "/api/sessions", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Deleted int `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Deleted)
	assert.Len(t, store.ListSessions("u2", 0), 1)
}

func TestCleanupEndpoint(t *testing.T) {
	s, _ := newTestServer()
	w := do(s, http.MethodPost, "/api/sessions/cleanup", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"removed":0`)
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer()
	w := do(s, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status     string            `json:"status"`
		Service    string            `json:"service"`
		Components map[string]string `json:"components"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "weather-ai", resp.Service)
	assert.Equal(t, "healthy", resp.Components["weather"])

	unhealthy := New(func(o *Options) {
		o.Store = session.NewInMemoryStore()
		o.WeatherConfigured = false
		o.ModelName = "mock"
	})
	w = do(unhealthy, http.MethodGet, "/api/health", "", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unhealthy", resp.Status)
}
