package weather

import (
	"context"
	"strings"
	"time"
)

// Conditions is a normalized snapshot of current weather in a city.
// Temperatures are rounded whole degrees Celsius; visibility is in
// kilometres and wind speed in metres per second.
type Conditions struct {
	City          string    `json:"city"`
	Country       string    `json:"country"`
	Temperature   float64   `json:"temperature"`
	FeelsLike     float64   `json:"feels_like"`
	Humidity      int       `json:"humidity"`
	Pressure      int       `json:"pressure"`
	Visibility    float64   `json:"visibility"`
	WindSpeed     float64   `json:"wind_speed"`
	WindDirection int       `json:"wind_direction"`
	Condition     string    `json:"condition"`
	ConditionID   int       `json:"condition_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// ForecastStep is one 3-hour slot from the upstream forecast feed.
type ForecastStep struct {
	Datetime      string  `json:"datetime"`
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feels_like"`
	Humidity      int     `json:"humidity"`
	Pressure      int     `json:"pressure"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection int     `json:"wind_direction"`
	Condition     string  `json:"condition"`
	ConditionID   int     `json:"condition_id"`
	Rain3h        float64 `json:"rain_3h"`
	Clouds        int     `json:"clouds"`
}

// Forecast holds the 3-hourly outlook for a city.
type Forecast struct {
	City    string         `json:"city"`
	Country string         `json:"country"`
	Steps   []ForecastStep `json:"forecasts"`
}

// TemperatureRange aggregates one day's temperatures.
type TemperatureRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// DailySummary condenses one day of forecast slots. Rain is the day's
// total rainfall rounded to whole millimetres.
type DailySummary struct {
	Date        string           `json:"date"`
	Temperature TemperatureRange `json:"temperature"`
	Condition   string           `json:"condition"`
	Humidity    int              `json:"humidity"`
	Rain        int              `json:"rain"`
	Count       int              `json:"forecasts_count"`
}

// ExtendedForecast groups the outlook into per-day summaries.
type ExtendedForecast struct {
	City    string         `json:"city"`
	Country string         `json:"country"`
	Daily   []DailySummary `json:"daily_forecasts"`
}

// HistoricalDay is one day of recent weather context.
type HistoricalDay struct {
	Date        string  `json:"date"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Pressure    int     `json:"pressure"`
}

// History is recent weather for a city, oldest day first. The days are
// simulated around current conditions; Context says so.
type History struct {
	City    string          `json:"city"`
	Country string          `json:"country"`
	Days    []HistoricalDay `json:"historical_days"`
	Context string          `json:"context"`
}

// AirQuality carries pollutant concentrations and the derived US EPA
// air quality index for a location. Concentrations are in μg/m³.
type AirQuality struct {
	AQI                   int       `json:"aqi"`
	PM25                  float64   `json:"pm25"`
	PM10                  float64   `json:"pm10"`
	O3                    float64   `json:"o3"`
	NO2                   float64   `json:"no2"`
	SO2                   float64   `json:"so2"`
	CO                    float64   `json:"co"`
	Location              string    `json:"location"`
	Timestamp             time.Time `json:"timestamp"`
	HealthRecommendations []string  `json:"health_recommendations"`
}

// Location is a geographic point supplied by the client.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Provider supplies weather data for a city. The production
// implementation is openweather.Client; tests substitute fakes.
type Provider interface {
	Current(ctx context.Context, city string) (*Conditions, error)
	Forecast(ctx context.Context, city string, days int) (*Forecast, error)
	ExtendedForecast(ctx context.Context, city string, days int) (*ExtendedForecast, error)
	History(ctx context.Context, city string, daysBack int) (*History, error)
	AirQuality(ctx context.Context, city, country string) (*AirQuality, error)
	CityFromCoordinates(ctx context.Context, loc Location) (string, error)
}

// DayGroup collects the forecast steps sharing one calendar date.
type DayGroup struct {
	Date  string
	Steps []ForecastStep
}

// GroupByDay splits steps into per-date groups, preserving feed order.
// The date is the leading YYYY-MM-DD portion of each step's Datetime.
func GroupByDay(steps []ForecastStep) []DayGroup {
	var groups []DayGroup
	index := make(map[string]int)
	for _, step := range steps {
		date, _, _ := strings.Cut(step.Datetime, " ")
		i, ok := index[date]
		if !ok {
			i = len(groups)
			index[date] = i
			groups = append(groups, DayGroup{Date: date})
		}
		groups[i].Steps = append(groups[i].Steps, step)
	}
	return groups
}

// DominantCondition returns the condition appearing most often,
// breaking ties in favor of the earliest occurrence.
func DominantCondition(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	counts := make(map[string]int, len(conditions))
	for _, c := range conditions {
		counts[c]++
	}
	best := conditions[0]
	for _, c := range conditions {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
