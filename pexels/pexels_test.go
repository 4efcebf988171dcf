package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func photoJSON(alt string) map[string]any {
	return map[string]any{
		"alt":              alt,
		"photographer":     "Jane Doe",
		"photographer_url": "https://www.pexels.com/@jane",
		"src":              map[string]any{"medium": "https://images.pexels.com/photo.jpeg"},
	}
}

func TestSearchWeatherImage_NoAPIKey(t *testing.T) {
	c := New("")
	_, err := c.SearchWeatherImage(context.Background(), "rain", "London")
	assert.ErrorIs(t, err, ErrNoAPIKey)
	assert.False(t, c.Configured())
}

func TestSearchWeatherImage_FirstQueryHit(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("query")
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		json.NewEncoder(w).Encode(map[string]any{
			"photos": []any{photoJSON("rain clouds over the city")},
		})
	}))
	defer srv.Close()

	c := New("test-key", func(o *Options) { o.BaseURL = srv.URL })
	img, err := c.SearchWeatherImage(context.Background(), "rain", "London")
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotAuth)
	assert.Equal(t, "rain weather london", gotQuery)
	assert.Equal(t, "https://images.pexels.com/photo.jpeg", img.URL)
	assert.Equal(t, "Jane Doe", img.Photographer)
	assert.Equal(t, "rain weather london", img.Query)
}

func TestSearchWeatherImage_SkipsEmptyResults(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			json.NewEncoder(w).Encode(map[string]any{"photos": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"photos": []any{photoJSON("snowy winter landscape")},
		})
	}))
	defer srv.Close()

	c := New("test-key", func(o *Options) { o.BaseURL = srv.URL })
	img, err := c.SearchWeatherImage(context.Background(), "snow", "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, img.Alt, "snowy")
}

func TestSearchWeatherImage_NoImageAnywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"photos": []any{}})
	}))
	defer srv.Close()

	c := New("test-key", func(o *Options) { o.BaseURL = srv.URL })
	_, err := c.SearchWeatherImage(context.Background(), "sunny", "")
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestSearchWeatherImage_RateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("test-key", func(o *Options) { o.BaseURL = srv.URL })
	_, err := c.SearchWeatherImage(context.Background(), "rain", "")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoImage))
}

func TestSearchWeatherImage_RelevanceFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"photos": []any{
				photoJSON("derelict house interior with exposed furniture"),
				photoJSON("storm clouds gathering over hills"),
			},
		})
	}))
	defer srv.Close()

	c := New("test-key", func(o *Options) { o.BaseURL = srv.URL })
	img, err := c.SearchWeatherImage(context.Background(), "storm", "")
	require.NoError(t, err)
	assert.Equal(t, "storm clouds gathering over hills", img.Alt)
}

func TestBuildQueries(t *testing.T) {
	queries := buildQueries("Rain", "London")
	// City-qualified terms come first, both orders.
	assert.Equal(t, "rain weather london", queries[0])
	assert.Equal(t, "london rain weather", queries[1])
	assert.Contains(t, queries, "rainy day")
	assert.Contains(t, queries, "rain sky")

	unknown := buildQueries("volcanic ash", "")
	assert.Equal(t, "volcanic ash weather", unknown[0])
	assert.Equal(t, "volcanic ash", unknown[1])
}

func TestIsWeatherRelevant(t *testing.T) {
	assert.True(t, isWeatherRelevant("blue sky over fields", "clear sky"))
	assert.False(t, isWeatherRelevant("office interior with furniture", "clear sky"))
	// Neutral alt text falls back to the query.
	assert.True(t, isWeatherRelevant("a quiet morning", "rain weather"))
	assert.False(t, isWeatherRelevant("a quiet morning", "city skyline"))
}
