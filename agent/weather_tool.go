package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkAPhillips/weather-ai-assistant/core"
	"github.com/MarkAPhillips/weather-ai-assistant/weather"
)

// airQualityKeywords trigger the air quality section of the report when any
// appears in the current query or a recent user message.
var airQualityKeywords = []string{
	"air quality", "pollution", "pm2.5", "pm10", "aqi", "air quality index",
}

// historyScanDepth is how many trailing messages are checked for a standing
// air quality request.
const historyScanDepth = 5

// WeatherToolOptions configure a WeatherTool.
type WeatherToolOptions struct {
	// ForecastDays is the forecast horizon in days. Defaults to 5.
	ForecastDays int
	// HistoryDays is the recent-history window in days. Defaults to 7.
	HistoryDays int
	// NowFunc supplies the current time, used to phrase dates as Today
	// and Yesterday. Defaults to time.Now.
	NowFunc func() time.Time
}

// WeatherTool answers the model's weather lookups. One call produces a
// composite plain-text report: current conditions, recent history, a daily
// forecast summary and, when the conversation asks for it, air quality.
// The optional sections degrade to omission on upstream failure; only a
// failed current-conditions fetch makes the whole call an error result.
type WeatherTool struct {
	provider     weather.Provider
	forecastDays int
	historyDays  int
	now          func() time.Time
}

var _ Tool = (*WeatherTool)(nil)

// NewWeatherTool creates a WeatherTool backed by provider.
func NewWeatherTool(provider weather.Provider, optFns ...func(o *WeatherToolOptions)) *WeatherTool {
	o := WeatherToolOptions{
		ForecastDays: 5,
		HistoryDays:  7,
		NowFunc:      time.Now,
	}
	for _, fn := range optFns {
		fn(&o)
	}
	return &WeatherTool{
		provider:     provider,
		forecastDays: o.ForecastDays,
		historyDays:  o.HistoryDays,
		now:          o.NowFunc,
	}
}

// Name implements Tool.
func (t *WeatherTool) Name() string { return "get_weather" }

// Description implements Tool.
func (t *WeatherTool) Description() string {
	return "Get weather information for a city: current conditions, " +
		"5-day forecast, recent weather history and air quality. " +
		"Use this for any question about weather, temperature, rain, " +
		"wind, forecasts, past days or air quality."
}

// Parameters implements Tool.
func (t *WeatherTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{
				"type":        "string",
				"description": "City name, e.g. 'London'",
			},
			"query": map[string]any{
				"type":        "string",
				"description": "The user's question, used to pick which data to include",
			},
		},
		"required": []string{"city"},
	}
}

// Call implements Tool.
func (t *WeatherTool) Call(toolCtx *ToolContext, args map[string]any) (any, error) {
	city, _ := args["city"].(string)
	query, _ := args["query"].(string)
	if strings.TrimSpace(city) == "" {
		return "I need to know which city you're asking about. Please specify a city name.", nil
	}

	ctx := toolCtx.Context
	current, err := t.provider.Current(ctx, city)
	if err != nil {
		return nil, NewToolError(t.Name(), fmt.Sprintf("failed to fetch weather for %s: %v", city, err), "upstream_error")
	}

	var report strings.Builder
	t.writeCurrent(&report, current)

	if history, err := t.provider.History(ctx, city, t.historyDays); err == nil {
		t.writeHistory(&report, history)
	} else if toolCtx.Logger != nil {
		toolCtx.Logger.Warn("history unavailable", "city", city, "error", err)
	}

	if forecast, err := t.provider.Forecast(ctx, city, t.forecastDays); err == nil {
		t.writeForecast(&report, forecast)
	} else if toolCtx.Logger != nil {
		toolCtx.Logger.Warn("forecast unavailable", "city", city, "error", err)
	}

	if wantsAirQuality(query, toolCtx.History) {
		if air, err := t.provider.AirQuality(ctx, current.City, current.Country); err == nil {
			writeAirQuality(&report, air)
		} else if toolCtx.Logger != nil {
			toolCtx.Logger.Warn("air quality unavailable", "city", city, "error", err)
		}
	}

	return report.String(), nil
}

func (t *WeatherTool) writeCurrent(b *strings.Builder, c *weather.Conditions) {
	fmt.Fprintf(b, "Current weather in %s, %s:\n", c.City, c.Country)
	fmt.Fprintf(b, "Temperature: %.0f°C (feels like %.0f°C)\n", c.Temperature, c.FeelsLike)
	fmt.Fprintf(b, "Condition: %s\n", c.Condition)
	fmt.Fprintf(b, "Humidity: %d%%\n", c.Humidity)
	fmt.Fprintf(b, "Wind: %s\n", weather.DescribeWind(c.WindSpeed))
	fmt.Fprintf(b, "Pressure: %d hPa\n\n", c.Pressure)
}

func (t *WeatherTool) writeHistory(b *strings.Builder, h *weather.History) {
	if len(h.Days) == 0 {
		return
	}
	fmt.Fprintf(b, "=== RECENT WEATHER HISTORY (Last %d Days) ===\n", t.historyDays)
	sum := 0.0
	for _, day := range h.Days {
		sum += day.Temperature
		fmt.Fprintf(b, "%s (%s): %.0f°C, %s\n", t.dayName(day.Date), day.Date, day.Temperature, day.Condition)
	}
	avg := sum / float64(len(h.Days))
	fmt.Fprintf(b, "\nAverage temperature over this period: %.0f°C\n", avg)
	b.WriteString("=== END OF HISTORICAL DATA ===\n\n")
}

func (t *WeatherTool) writeForecast(b *strings.Builder, f *weather.Forecast) {
	groups := weather.GroupByDay(f.Steps)
	if len(groups) == 0 {
		return
	}
	if len(groups) > t.forecastDays {
		groups = groups[:t.forecastDays]
	}
	fmt.Fprintf(b, "%d-Day Forecast:\n", t.forecastDays)
	for _, g := range groups {
		minTemp, maxTemp := g.Steps[0].Temperature, g.Steps[0].Temperature
		conditions := make([]string, 0, len(g.Steps))
		totalRain := 0.0
		for _, step := range g.Steps {
			if step.Temperature < minTemp {
				minTemp = step.Temperature
			}
			if step.Temperature > maxTemp {
				maxTemp = step.Temperature
			}
			conditions = append(conditions, step.Condition)
			totalRain += step.Rain3h
		}
		line := fmt.Sprintf("%s: %.0f°C-%.0f°C, %s", g.Date, minTemp, maxTemp, weather.DominantCondition(conditions))
		if desc := weather.DescribeRain(totalRain); desc != "" {
			line += ", " + desc
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}

func writeAirQuality(b *strings.Builder, air *weather.AirQuality) {
	b.WriteString("=== AIR QUALITY DETAILS ===\n")
	fmt.Fprintf(b, "Air Quality Index: %d (%s)\n", air.AQI, weather.AQIStatus(air.AQI))
	if air.PM25 > 0 {
		fmt.Fprintf(b, "PM2.5: %.1f μg/m³\n", air.PM25)
	}
	if air.PM10 > 0 {
		fmt.Fprintf(b, "PM10: %.1f μg/m³\n", air.PM10)
	}
	if air.O3 > 0 {
		fmt.Fprintf(b, "Ozone (O3): %.1f μg/m³\n", air.O3)
	}
	if air.NO2 > 0 {
		fmt.Fprintf(b, "NO2: %.1f μg/m³\n", air.NO2)
	}
	if air.SO2 > 0 {
		fmt.Fprintf(b, "SO2: %.1f μg/m³\n", air.SO2)
	}
	if air.CO > 0 {
		fmt.Fprintf(b, "CO: %.1f μg/m³\n", air.CO)
	}
	if len(air.HealthRecommendations) > 0 {
		b.WriteString("\nHealth Recommendations:\n")
		for _, rec := range air.HealthRecommendations {
			fmt.Fprintf(b, "- %s\n", rec)
		}
	}
	b.WriteString("=== END AIR QUALITY ===\n")
}

// dayName phrases a YYYY-MM-DD date conversationally relative to now.
func (t *WeatherTool) dayName(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	today := t.now().Format("2006-01-02")
	yesterday := t.now().AddDate(0, 0, -1).Format("2006-01-02")
	switch date {
	case today:
		return "Today"
	case yesterday:
		return "Yesterday"
	default:
		return d.Weekday().String()
	}
}

// wantsAirQuality reports whether the query or a recent user message asks
// about air quality.
func wantsAirQuality(query string, history []core.Message) bool {
	if containsAirQualityKeyword(query) {
		return true
	}
	start := len(history) - historyScanDepth
	if start < 0 {
		start = 0
	}
	for _, msg := range history[start:] {
		if msg.Role == core.RoleUser && containsAirQualityKeyword(msg.Content) {
			return true
		}
	}
	return false
}

func containsAirQualityKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range airQualityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
