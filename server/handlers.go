package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MarkAPhillips/weather-ai-assistant/pexels"
	"github.com/MarkAPhillips/weather-ai-assistant/weather"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	result, err := s.opts.Chat.Chat(c.Request.Context(), userID(c), req.SessionID, req.Message)
	if err != nil {
		s.opts.Logger.Error("chat failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate a reply"})
		return
	}
	c.JSON(http.StatusOK, result)
}

type weatherQueryRequest struct {
	Query        string            `json:"query"`
	City         string            `json:"city"`
	UserLocation *weather.Location `json:"userLocation"`
}

type weatherQueryResponse struct {
	Response     string `json:"response"`
	City         string `json:"city,omitempty"`
	UsedLocation bool   `json:"usedLocation"`
	Timestamp    string `json:"timestamp"`
}

// handleWeatherQuery is the stateless one-shot endpoint: no session is
// created, the query goes straight to the assistant. A user location is
// used only when no explicit city was given.
func (s *Server) handleWeatherQuery(c *gin.Context) {
	var req weatherQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	ctx := c.Request.Context()
	city := req.City
	usedLocation := false
	if city == "" && req.UserLocation != nil && s.opts.Provider != nil {
		resolved, err := s.opts.Provider.CityFromCoordinates(ctx, *req.UserLocation)
		if err != nil {
			s.opts.Logger.Warn("reverse geocode failed", "error", err)
		} else {
			city = resolved
			usedLocation = true
		}
	}

	query := req.Query
	if city != "" {
		query = query + " (Location: " + city + ")"
	}

	reply, err := s.opts.Responder.Respond(ctx, nil, query)
	if err != nil {
		s.opts.Logger.Error("weather query failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate a reply"})
		return
	}

	c.JSON(http.StatusOK, weatherQueryResponse{
		Response:     reply,
		City:         city,
		UsedLocation: usedLocation,
		Timestamp:    s.opts.NowFunc().Format(time.RFC3339),
	})
}

func (s *Server) handleWeatherImage(c *gin.Context) {
	if s.opts.Images == nil || !s.opts.Images.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image search not configured"})
		return
	}
	condition := c.Query("condition")
	if condition == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "condition is required"})
		return
	}

	img, err := s.opts.Images.SearchWeatherImage(c.Request.Context(), condition, c.Query("city"))
	if errors.Is(err, pexels.ErrNoImage) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no image found"})
		return
	}
	if err != nil {
		s.opts.Logger.Error("image search failed", "condition", condition, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "image search failed"})
		return
	}
	c.JSON(http.StatusOK, img)
}

func (s *Server) handleCreateSession(c *gin.Context) {
	sess := s.opts.Store.CreateSession(userID(c))
	c.JSON(http.StatusCreated, sess)
}

func (s *Server) handleListSessions(c *gin.Context) {
	limit := intQuery(c, "limit", s.opts.ListLimit)
	sessions := s.opts.Store.ListSessions(userID(c), limit)
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, err := s.opts.Store.GetSession(userID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleSessionMessages(c *gin.Context) {
	// A missing session yields an empty history, mirroring the store.
	limit := intQuery(c, "limit", 0)
	messages := s.opts.Store.ConversationHistory(userID(c), c.Param("id"), limit)
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if !s.opts.Store.DeleteSession(userID(c), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (s *Server) handleDeleteAllSessions(c *gin.Context) {
	removed := s.opts.Store.DeleteAllSessions(userID(c))
	c.JSON(http.StatusOK, gin.H{"deleted": removed})
}

func (s *Server) handleSessionStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.opts.Store.SessionStats(userID(c)))
}

func (s *Server) handleCleanup(c *gin.Context) {
	removed, err := s.opts.Store.CleanupExpiredSessions(userID(c))
	if err != nil {
		s.opts.Logger.Error("cleanup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleHealth(c *gin.Context) {
	weatherStatus := "unhealthy"
	if s.opts.WeatherConfigured {
		weatherStatus = "healthy"
	}
	modelStatus := "unhealthy"
	if s.opts.ModelName != "" {
		modelStatus = "healthy"
	}
	status := "healthy"
	if weatherStatus != "healthy" || modelStatus != "healthy" {
		status = "unhealthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"service":   "weather-ai",
		"timestamp": s.opts.NowFunc().Format(time.RFC3339),
		"components": gin.H{
			"weather": weatherStatus,
			"model":   modelStatus,
		},
	})
}

// intQuery parses an integer query parameter, falling back to def on
// absence or garbage.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
