// Package server exposes the assistant over a JSON HTTP API: the chat and
// one-shot weather endpoints, session management for a tenant supplied via
// the X-User-ID header, weather imagery lookup and a health probe.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	weatherai "github.com/MarkAPhillips/weather-ai-assistant"
	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/logging"
	"github.com/MarkAPhillips/weather-ai-assistant/pexels"
	"github.com/MarkAPhillips/weather-ai-assistant/weather"
)

// userIDHeader names the header carrying the tenant id. An absent header
// maps to the "" tenant, the single-tenant degenerate form.
const userIDHeader = "X-User-ID"

// Chatter runs one conversational turn. weatherai.WeatherAI is the
// production implementation.
type Chatter interface {
	Chat(ctx context.Context, userID, sessionID, message string) (*weatherai.ChatResult, error)
}

// ImageSearcher finds weather imagery. pexels.Client is the production
// implementation.
type ImageSearcher interface {
	SearchWeatherImage(ctx context.Context, condition, city string) (*pexels.Image, error)
	Configured() bool
}

// Options configure a Server.
type Options struct {
	// Addr is the listen address. Defaults to ":8000".
	Addr string
	// Store backs the session endpoints.
	Store core.SessionStore
	// Chat backs POST /api/chat.
	Chat Chatter
	// Responder backs the one-shot POST /api/weather.
	Responder weatherai.Responder
	// Provider reverse-geocodes user coordinates. Optional; without it
	// userLocation is ignored.
	Provider weather.Provider
	// Images backs GET /api/weather/image. Optional.
	Images ImageSearcher
	// WeatherConfigured feeds the health payload.
	WeatherConfigured bool
	// ModelName feeds the health payload.
	ModelName string
	// ListLimit is the session list page size when the request names
	// none. Zero defers to the store's default.
	ListLimit int
	// NowFunc supplies response timestamps. Defaults to time.Now.
	NowFunc func() time.Time
	// Logger receives request-level events. Defaults to a no-op.
	Logger logging.Logger
}

// Server is the HTTP front of the assistant.
type Server struct {
	opts   Options
	router *gin.Engine
}

// New assembles the router. Handlers for optional collaborators respond
// 503 when the collaborator is absent.
func New(optFns ...func(o *Options)) *Server {
	opts := Options{
		Addr:    ":8000",
		NowFunc: time.Now,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{opts: opts}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default()) // allow all origins, as the upstream clients expect

	api := router.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/weather", s.handleWeatherQuery)
	api.GET("/weather/image", s.handleWeatherImage)
	api.GET("/health", s.handleHealth)

	sessions := api.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("", s.handleListSessions)
	sessions.DELETE("", s.handleDeleteAllSessions)
	sessions.GET("/stats", s.handleSessionStats)
	sessions.POST("/cleanup", s.handleCleanup)
	sessions.GET("/:id", s.handleGetSession)
	sessions.GET("/:id/messages", s.handleSessionMessages)
	sessions.DELETE("/:id", s.handleDeleteSession)

	s.router = router
	return s
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.opts.Addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.opts.Logger.Info("http server started", "addr", s.opts.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.opts.Logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// userID resolves the tenant for a request.
func userID(c *gin.Context) string {
	return c.GetHeader(userIDHeader)
}
