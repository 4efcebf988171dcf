// Package pexels looks up weather imagery through the Pexels search API.
// Conditions are mapped to a prioritized list of search queries and the
// first sufficiently weather-like photo wins.
package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MarkAPhillips/weather-ai-assistant/logging"
)

// DefaultBaseURL is the public Pexels API root.
const DefaultBaseURL = "https://api.pexels.com/v1"

var (
	// ErrNoAPIKey means the client was constructed without credentials.
	ErrNoAPIKey = errors.New("pexels: api key not configured")
	// ErrNoImage means no query produced a usable photo.
	ErrNoImage = errors.New("pexels: no image found")
)

// Image is one photo result with attribution.
type Image struct {
	URL             string `json:"url"`
	Alt             string `json:"alt"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Query           string `json:"query"`
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string
	// HTTPClient performs the requests. Defaults to a client with a
	// 10 second timeout.
	HTTPClient *http.Client
	// Logger receives request events. Defaults to a no-op.
	Logger logging.Logger
}

// Client talks to the Pexels search API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// New creates a Client authenticated with apiKey. An empty key is allowed;
// searches then fail with ErrNoAPIKey.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	o := Options{
		BaseURL: DefaultBaseURL,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(o.BaseURL, "/"),
		httpClient: o.HTTPClient,
		logger:     o.Logger,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// conditionQueries maps weather conditions to search terms that return
// better imagery than the raw condition string.
var conditionQueries = map[string][]string{
	"rain":             {"rain weather", "rainy day", "rain storm", "rain drops", "rainy street"},
	"light rain":       {"light rain", "drizzle", "rain drops", "gentle rain"},
	"moderate rain":    {"moderate rain", "rain weather", "rainy day"},
	"heavy rain":       {"heavy rain", "rain storm", "downpour"},
	"snow":             {"snow weather", "snowy day", "winter snow", "snow landscape"},
	"light snow":       {"light snow", "snowflakes", "gentle snow"},
	"clear sky":        {"clear sky", "blue sky", "sunny weather", "clear day"},
	"sunny":            {"sunny weather", "clear sky", "sunny day", "bright day"},
	"few clouds":       {"few clouds", "partly cloudy", "clouds sky", "mixed weather"},
	"scattered clouds": {"scattered clouds", "cloudy sky", "clouds weather"},
	"broken clouds":    {"broken clouds", "cloudy weather", "clouds sky"},
	"overcast clouds":  {"overcast clouds", "cloudy weather", "cloudy day"},
	"cloudy":           {"cloudy weather", "clouds", "overcast", "cloudy day"},
	"storm":            {"storm weather", "thunderstorm", "storm clouds", "stormy weather"},
	"thunderstorm":     {"thunderstorm", "storm weather", "lightning storm"},
	"fog":              {"fog weather", "foggy day", "mist", "foggy landscape"},
	"mist":             {"mist weather", "foggy day", "misty landscape"},
	"haze":             {"haze weather", "hazy day", "atmospheric haze"},
	"wind":             {"windy weather", "wind storm", "strong wind", "windy day"},
	"clear":            {"clear sky", "blue sky", "sunny weather", "clear day"},
	"partly cloudy":    {"partly cloudy", "clouds sky", "mixed weather", "cloudy sky"},
}

// SearchWeatherImage returns a photo matching the weather condition,
// preferring images tied to the city when one is given.
func (c *Client) SearchWeatherImage(ctx context.Context, condition, city string) (*Image, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	for _, query := range buildQueries(condition, city) {
		img, err := c.search(ctx, query)
		if err != nil {
			return nil, err
		}
		if img != nil {
			return img, nil
		}
	}
	c.logger.Warn("no images found for weather condition", "condition", condition)
	return nil, fmt.Errorf("%w: condition %q", ErrNoImage, condition)
}

// buildQueries assembles search queries in priority order: city-specific
// first, then condition terms, then generic fallbacks.
func buildQueries(condition, city string) []string {
	cond := strings.ToLower(strings.TrimSpace(condition))
	base, ok := conditionQueries[cond]
	if !ok {
		base = []string{cond + " weather", cond}
	}

	var queries []string
	if city != "" {
		cityClean := strings.ToLower(strings.TrimSpace(city))
		for _, term := range base {
			queries = append(queries, term+" "+cityClean, cityClean+" "+term)
		}
	}
	queries = append(queries, base...)
	queries = append(queries,
		cond+" sky",
		cond+" landscape",
		cond+" nature",
		"weather "+cond,
	)
	return queries
}

type searchResponse struct {
	Photos []photo `json:"photos"`
}

type photo struct {
	Alt             string `json:"alt"`
	Photographer    string `json:"photographer"`
	PhotographerURL string `json:"photographer_url"`
	Src             struct {
		Medium string `json:"medium"`
	} `json:"src"`
}

// search runs one query and returns the first weather-relevant photo, the
// first photo at all when none pass the relevance check, or nil on an
// empty result set.
func (c *Client) search(ctx context.Context, query string) (*Image, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", "5")
	q.Set("orientation", "landscape")
	q.Set("size", "medium")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pexels: build request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.Warn("pexels rate limit exceeded")
		return nil, fmt.Errorf("pexels: rate limit exceeded")
	default:
		return nil, fmt.Errorf("pexels: unexpected status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("pexels: decode response: %w", err)
	}
	if len(payload.Photos) == 0 {
		return nil, nil
	}

	for _, p := range payload.Photos {
		if isWeatherRelevant(p.Alt, query) {
			return toImage(p, query), nil
		}
	}
	return toImage(payload.Photos[0], query), nil
}

func toImage(p photo, query string) *Image {
	return &Image{
		URL:             p.Src.Medium,
		Alt:             p.Alt,
		Photographer:    p.Photographer,
		PhotographerURL: p.PhotographerURL,
		Query:           query,
	}
}

var weatherAltKeywords = []string{
	"weather", "sky", "cloud", "rain", "snow", "sun", "storm", "fog", "mist",
	"sunny", "cloudy", "rainy", "snowy", "stormy", "foggy", "clear", "overcast",
	"lightning", "thunder", "drizzle", "shower", "breeze", "wind",
	"climate", "atmosphere", "horizon", "sunset", "sunrise", "daylight", "dawn", "dusk",
	"nature", "landscape", "outdoor",
}

var nonWeatherAltKeywords = []string{
	"house", "building", "construction", "derelict", "abandoned", "ruin",
	"indoor", "room", "interior", "furniture", "car", "vehicle",
	"portrait", "person", "people", "face",
	"food", "restaurant", "kitchen", "office", "business", "shop",
	"store", "market", "product", "equipment", "machine",
}

// isWeatherRelevant filters out photos whose alt text suggests the subject
// is not the weather at all.
func isWeatherRelevant(alt, query string) bool {
	altLower := strings.ToLower(alt)

	hasWeather := containsAny(altLower, weatherAltKeywords)
	hasNonWeather := containsAny(altLower, nonWeatherAltKeywords)

	if hasNonWeather && !hasWeather {
		return false
	}
	if hasWeather {
		return true
	}
	// Neutral alt text: trust the query when it is clearly about weather.
	return containsAny(strings.ToLower(query), []string{"weather", "rain", "snow", "cloud", "sun", "storm"})
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
