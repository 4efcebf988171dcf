package agent

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/logging"
	"github.com/MarkAPhillips/weather-ai-assistant/weather"
)

// MockProvider is a testify mock of weather.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Current(ctx context.Context, city string) (*weather.Conditions, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*weather.Conditions), args.Error(1)
}

func (m *MockProvider) Forecast(ctx context.Context, city string, days int) (*weather.Forecast, error) {
	args := m.Called(ctx, city, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*weather.Forecast), args.Error(1)
}

func (m *MockProvider) ExtendedForecast(ctx context.Context, city string, days int) (*weather.ExtendedForecast, error) {
	args := m.Called(ctx, city, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*weather.ExtendedForecast), args.Error(1)
}

func (m *MockProvider) History(ctx context.Context, city string, daysBack int) (*weather.History, error) {
	args := m.Called(ctx, city, daysBack)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*weather.History), args.Error(1)
}

func (m *MockProvider) AirQuality(ctx context.Context, city, country string) (*weather.AirQuality, error) {
	args := m.Called(ctx, city, country)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*weather.AirQuality), args.Error(1)
}

func (m *MockProvider) CityFromCoordinates(ctx context.Context, loc weather.Location) (string, error) {
	args := m.Called(ctx, loc)
	return args.String(0), args.Error(1)
}

var _ weather.Provider = (*MockProvider)(nil)

func londonConditions() *weather.Conditions {
	return &weather.Conditions{
		City:        "London",
		Country:     "GB",
		Temperature: 18,
		FeelsLike:   17,
		Humidity:    72,
		Pressure:    1012,
		WindSpeed:   4.2,
		Condition:   "light rain",
	}
}

func newToolCtx() *ToolContext {
	return &ToolContext{Context: context.Background(), Logger: logging.NoOpLogger{}}
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC)
}

func TestWeatherTool_MissingCity(t *testing.T) {
	provider := new(MockProvider)
	tool := NewWeatherTool(provider)

	result, err := tool.Call(newToolCtx(), map[string]any{"query": "weather?"})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "specify a city")
	provider.AssertNotCalled(t, "Current")
}

func TestWeatherTool_CurrentFailureIsError(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Current", mock.Anything, "Atlantis").Return(nil, assert.AnError)
	tool := NewWeatherTool(provider)

	_, err := tool.Call(newToolCtx(), map[string]any{"city": "Atlantis"})
	require.Error(t, err)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "upstream_error", toolErr.Code)
}

func TestWeatherTool_ComposesReport(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Current", mock.Anything, "London").Return(londonConditions(), nil)
	provider.On("History", mock.Anything, "London", 7).Return(&weather.History{
		City:    "London",
		Country: "GB",
		Days: []weather.HistoricalDay{
			{Date: "2025-03-11", Temperature: 14, Condition: "overcast clouds"},
			{Date: "2025-03-12", Temperature: 18, Condition: "light rain"},
		},
	}, nil)
	provider.On("Forecast", mock.Anything, "London", 5).Return(&weather.Forecast{
		City:    "London",
		Country: "GB",
		Steps: []weather.ForecastStep{
			{Datetime: "2025-03-13 09:00:00", Temperature: 12, Condition: "scattered clouds", Rain3h: 0},
			{Datetime: "2025-03-13 18:00:00", Temperature: 16, Condition: "scattered clouds", Rain3h: 1.2},
			{Datetime: "2025-03-14 09:00:00", Temperature: 11, Condition: "light rain", Rain3h: 3.0},
		},
	}, nil)

	tool := NewWeatherTool(provider, func(o *WeatherToolOptions) { o.NowFunc = fixedNow })
	result, err := tool.Call(newToolCtx(), map[string]any{"city": "London", "query": "weather this week"})
	require.NoError(t, err)
	report := result.(string)

	assert.Contains(t, report, "Current weather in London, GB:")
	assert.Contains(t, report, "Temperature: 18°C (feels like 17°C)")
	assert.Contains(t, report, "Wind: moderate breeze")
	assert.Contains(t, report, "RECENT WEATHER HISTORY")
	assert.Contains(t, report, "Yesterday (2025-03-11): 14°C, overcast clouds")
	assert.Contains(t, report, "Today (2025-03-12): 18°C, light rain")
	assert.Contains(t, report, "Average temperature over this period: 16°C")
	assert.Contains(t, report, "5-Day Forecast:")
	assert.Contains(t, report, "2025-03-13: 12°C-16°C, scattered clouds, light rain")
	assert.Contains(t, report, "2025-03-14: 11°C-11°C, light rain, moderate rain")
	// No air quality asked for, so none fetched.
	assert.NotContains(t, report, "AIR QUALITY")
	provider.AssertNotCalled(t, "AirQuality")
}

func TestWeatherTool_OptionalSectionsDegrade(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Current", mock.Anything, "London").Return(londonConditions(), nil)
	provider.On("History", mock.Anything, "London", 7).Return(nil, assert.AnError)
	provider.On("Forecast", mock.Anything, "London", 5).Return(nil, assert.AnError)

	tool := NewWeatherTool(provider)
	result, err := tool.Call(newToolCtx(), map[string]any{"city": "London"})
	require.NoError(t, err)
	report := result.(string)
	assert.Contains(t, report, "Current weather in London, GB:")
	assert.NotContains(t, report, "HISTORY")
	assert.NotContains(t, report, "Forecast")
}

func TestWeatherTool_AirQualityFromQuery(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Current", mock.Anything, "London").Return(londonConditions(), nil)
	provider.On("History", mock.Anything, "London", 7).Return(nil, assert.AnError)
	provider.On("Forecast", mock.Anything, "London", 5).Return(nil, assert.AnError)
	provider.On("AirQuality", mock.Anything, "London", "GB").Return(&weather.AirQuality{
		AQI:                   42,
		PM25:                  8.5,
		PM10:                  15.0,
		HealthRecommendations: []string{"Air quality is good - suitable for outdoor activities"},
	}, nil)

	tool := NewWeatherTool(provider)
	result, err := tool.Call(newToolCtx(), map[string]any{"city": "London", "query": "how is the air quality today?"})
	require.NoError(t, err)
	report := result.(string)
	assert.Contains(t, report, "Air Quality Index: 42 (Good)")
	assert.Contains(t, report, "PM2.5: 8.5 μg/m³")
	assert.Contains(t, report, "Health Recommendations:")
}

func TestWeatherTool_AirQualityFromHistory(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Current", mock.Anything, "London").Return(londonConditions(), nil)
	provider.On("History", mock.Anything, "London", 7).Return(nil, assert.AnError)
	provider.On("Forecast", mock.Anything, "London", 5).Return(nil, assert.AnError)
	provider.On("AirQuality", mock.Anything, "London", "GB").Return(&weather.AirQuality{AQI: 130}, nil)

	toolCtx := newToolCtx()
	toolCtx.History = []core.Message{
		{Role: core.RoleUser, Content: "what's the pollution like in London?"},
		{Role: core.RoleAssistant, Content: "Let me check."},
	}

	tool := NewWeatherTool(provider)
	result, err := tool.Call(toolCtx, map[string]any{"city": "London", "query": "and today?"})
	require.NoError(t, err)
	assert.Contains(t, result.(string), "Air Quality Index: 130 (Poor)")
}

func TestWantsAirQuality_ScansOnlyRecentUserMessages(t *testing.T) {
	history := make([]core.Message, 0, 8)
	history = append(history, core.Message{Role: core.RoleUser, Content: "tell me about aqi"})
	for i := 0; i < 7; i++ {
		history = append(history, core.Message{Role: core.RoleUser, Content: "nothing relevant"})
	}
	// The aqi mention is older than the scan window.
	assert.False(t, wantsAirQuality("weather?", history))
	assert.True(t, wantsAirQuality("weather?", history[:3]))
}
