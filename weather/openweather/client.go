package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MarkAPhillips/weather-ai-assistant/logging"
	"github.com/MarkAPhillips/weather-ai-assistant/respcache"
	"github.com/MarkAPhillips/weather-ai-assistant/weather"
)

// DefaultBaseURL is the public OpenWeather API root.
const DefaultBaseURL = "http://api.openweathermap.org"

// ErrCityNotFound means a geocoding lookup returned no results.
var ErrCityNotFound = errors.New("city not found")

// APIError reports a non-200 response from the upstream API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openweather: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root. Defaults to DefaultBaseURL.
	BaseURL string
	// HTTPClient performs the requests. Defaults to a client with a
	// 10 second timeout.
	HTTPClient *http.Client
	// TTLs controls how long each response kind stays cached.
	TTLs respcache.TTLs
	// NowFunc supplies the current time. Defaults to time.Now.
	NowFunc func() time.Time
	// Rand drives the history simulation. Defaults to a time-seeded
	// source.
	Rand *rand.Rand
	// Logger receives request and cache events. Defaults to a no-op.
	Logger logging.Logger
}

// Client talks to the OpenWeather REST API and caches responses per
// request shape. It implements weather.Provider.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	ttls       respcache.TTLs
	now        func() time.Time
	randMu     sync.Mutex
	rand       *rand.Rand
	logger     logging.Logger

	current  *respcache.Cache[*weather.Conditions]
	forecast *respcache.Cache[*weather.Forecast]
	extended *respcache.Cache[*weather.ExtendedForecast]
	history  *respcache.Cache[*weather.History]
	air      *respcache.Cache[*weather.AirQuality]
	geo      *respcache.Cache[geoPoint]
	revgeo   *respcache.Cache[string]
}

var _ weather.Provider = (*Client)(nil)

type geoPoint struct {
	Lat float64
	Lon float64
}

// New creates a Client authenticated with apiKey.
func New(apiKey string, optFns ...func(o *Options)) *Client {
	o := Options{
		BaseURL: DefaultBaseURL,
		TTLs:    respcache.DefaultTTLs(),
		NowFunc: time.Now,
		Logger:  logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(o.NowFunc().UnixNano()))
	}
	nowOpt := func(ro *respcache.Options) { ro.NowFunc = o.NowFunc }
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(o.BaseURL, "/"),
		httpClient: o.HTTPClient,
		ttls:       o.TTLs,
		now:        o.NowFunc,
		rand:       o.Rand,
		logger:     o.Logger,
		current:    respcache.New[*weather.Conditions](o.TTLs.Current, nowOpt),
		forecast:   respcache.New[*weather.Forecast](o.TTLs.Forecast, nowOpt),
		extended:   respcache.New[*weather.ExtendedForecast](o.TTLs.Extended, nowOpt),
		history:    respcache.New[*weather.History](o.TTLs.Historical, nowOpt),
		air:        respcache.New[*weather.AirQuality](o.TTLs.AirQuality, nowOpt),
		geo:        respcache.New[geoPoint](o.TTLs.Geocode, nowOpt),
		revgeo:     respcache.New[string](o.TTLs.Geocode, nowOpt),
	}
}

// Current returns current conditions for city. Temperatures are
// rounded to whole degrees and visibility converted to kilometres.
func (c *Client) Current(ctx context.Context, city string) (*weather.Conditions, error) {
	key := respcache.Key(respcache.KindCurrent, city)
	return c.current.Fetch(ctx, key, c.ttls.Current, func(ctx context.Context) (*weather.Conditions, error) {
		q := url.Values{}
		q.Set("q", city)
		q.Set("units", "metric")
		var payload currentPayload
		if err := c.getJSON(ctx, "/data/2.5/weather", q, &payload); err != nil {
			c.logger.Error("current weather fetch failed", "city", city, "error", err)
			return nil, err
		}
		if len(payload.Weather) == 0 {
			return nil, fmt.Errorf("openweather: response for %q has no weather block", city)
		}
		cond := &weather.Conditions{
			City:          payload.Name,
			Country:       payload.Sys.Country,
			Temperature:   math.Round(payload.Main.Temp),
			FeelsLike:     math.Round(payload.Main.FeelsLike),
			Humidity:      payload.Main.Humidity,
			Pressure:      payload.Main.Pressure,
			Visibility:    float64(payload.Visibility) / 1000,
			WindSpeed:     payload.Wind.Speed,
			WindDirection: payload.Wind.Deg,
			Condition:     payload.Weather[0].Description,
			ConditionID:   payload.Weather[0].ID,
			Timestamp:     c.now(),
		}
		c.logger.Info("fetched current weather", "city", city)
		return cond, nil
	})
}

// Forecast returns the 3-hourly outlook covering days days. The free
// tier feed tops out at five days, so days is clamped to 1..5.
func (c *Client) Forecast(ctx context.Context, city string, days int) (*weather.Forecast, error) {
	days = clampDays(days)
	key := respcache.Key(respcache.KindForecast, city, strconv.Itoa(days))
	return c.forecast.Fetch(ctx, key, c.ttls.Forecast, func(ctx context.Context) (*weather.Forecast, error) {
		payload, err := c.fetchForecast(ctx, city, days*8)
		if err != nil {
			return nil, err
		}
		f := &weather.Forecast{City: payload.City.Name, Country: payload.City.Country}
		for _, item := range payload.List {
			f.Steps = append(f.Steps, item.toStep())
		}
		c.logger.Info("fetched forecast", "city", city, "days", days)
		return f, nil
	})
}

// ExtendedForecast condenses the outlook into at most days daily
// summaries, clamped to 1..5 like Forecast.
func (c *Client) ExtendedForecast(ctx context.Context, city string, days int) (*weather.ExtendedForecast, error) {
	days = clampDays(days)
	key := respcache.Key(respcache.KindExtended, city, strconv.Itoa(days))
	return c.extended.Fetch(ctx, key, c.ttls.Extended, func(ctx context.Context) (*weather.ExtendedForecast, error) {
		payload, err := c.fetchForecast(ctx, city, days*8)
		if err != nil {
			return nil, err
		}
		ext := &weather.ExtendedForecast{City: payload.City.Name, Country: payload.City.Country}
		ext.Daily = summarizeDaily(payload.List)
		if len(ext.Daily) > days {
			ext.Daily = ext.Daily[:days]
		}
		c.logger.Info("fetched extended forecast", "city", city, "days", days)
		return ext, nil
	})
}

// clampDays bounds a forecast horizon to the 1..5 range the upstream
// 3-hourly feed can cover; non-positive values take the full window.
func clampDays(days int) int {
	if days <= 0 || days > 5 {
		return 5
	}
	return days
}

type dayBucket struct {
	date        string
	temps       []float64
	conditions  []string
	rain        float64
	humiditySum int
	count       int
}

func summarizeDaily(items []forecastItem) []weather.DailySummary {
	var order []*dayBucket
	index := map[string]*dayBucket{}
	for _, item := range items {
		date, _, _ := strings.Cut(item.DtTxt, " ")
		b, ok := index[date]
		if !ok {
			b = &dayBucket{date: date}
			index[date] = b
			order = append(order, b)
		}
		b.temps = append(b.temps, item.Main.Temp)
		if len(item.Weather) > 0 {
			b.conditions = append(b.conditions, item.Weather[0].Description)
		}
		b.rain += item.Rain.ThreeH
		b.humiditySum += item.Main.Humidity
		b.count++
	}
	if len(order) > 5 {
		order = order[:5]
	}

	daily := make([]weather.DailySummary, 0, len(order))
	for _, b := range order {
		minT, maxT, sum := b.temps[0], b.temps[0], 0.0
		for _, t := range b.temps {
			minT = math.Min(minT, t)
			maxT = math.Max(maxT, t)
			sum += t
		}
		daily = append(daily, weather.DailySummary{
			Date: b.date,
			Temperature: weather.TemperatureRange{
				Min: math.Round(minT),
				Max: math.Round(maxT),
				Avg: math.Round(sum / float64(len(b.temps))),
			},
			Condition: weather.DominantCondition(b.conditions),
			Humidity:  int(math.Round(float64(b.humiditySum) / float64(b.count))),
			Rain:      int(math.Round(b.rain)),
			Count:     b.count,
		})
	}
	return daily
}

// History returns daysBack days of simulated weather leading up to
// today, anchored on current conditions.
func (c *Client) History(ctx context.Context, city string, daysBack int) (*weather.History, error) {
	if daysBack <= 0 {
		daysBack = 7
	}
	key := respcache.Key(respcache.KindHistorical, city, strconv.Itoa(daysBack))
	return c.history.Fetch(ctx, key, c.ttls.Historical, func(ctx context.Context) (*weather.History, error) {
		current, err := c.Current(ctx, city)
		if err != nil {
			return nil, err
		}
		c.logger.Info("generated historical context", "city", city, "days", daysBack)
		return c.simulateHistory(city, current, daysBack), nil
	})
}

var historyConditions = []string{
	"clear sky", "few clouds", "scattered clouds", "broken clouds",
	"overcast clouds", "light rain", "moderate rain", "heavy rain",
}

func (c *Client) simulateHistory(city string, current *weather.Conditions, daysBack int) *weather.History {
	h := &weather.History{
		City:    city,
		Country: current.Country,
		Context: "Based on current patterns and seasonal info",
	}
	now := c.now()
	c.randMu.Lock()
	defer c.randMu.Unlock()
	for i := daysBack; i > 0; i-- {
		date := now.AddDate(0, 0, -i)
		h.Days = append(h.Days, weather.HistoricalDay{
			Date:        date.Format("2006-01-02"),
			Temperature: math.Round(current.Temperature + c.rand.Float64()*6 - 3),
			Condition:   historyConditions[c.rand.Intn(len(historyConditions))],
			Humidity:    current.Humidity + c.rand.Intn(21) - 10,
			WindSpeed:   current.WindSpeed + c.rand.Float64()*2 - 1,
			Pressure:    current.Pressure + c.rand.Intn(11) - 5,
		})
	}
	return h
}

// AirQuality geocodes the city and returns the pollution reading with
// the derived AQI and health advice.
func (c *Client) AirQuality(ctx context.Context, city, country string) (*weather.AirQuality, error) {
	key := respcache.Key(respcache.KindAirQuality, city, strings.ToLower(country))
	return c.air.Fetch(ctx, key, c.ttls.AirQuality, func(ctx context.Context) (*weather.AirQuality, error) {
		pt, err := c.coordinates(ctx, city, country)
		if err != nil {
			return nil, err
		}
		q := url.Values{}
		q.Set("lat", formatCoord(pt.Lat))
		q.Set("lon", formatCoord(pt.Lon))
		var payload airPayload
		if err := c.getJSON(ctx, "/data/2.5/air_pollution", q, &payload); err != nil {
			c.logger.Error("air quality fetch failed", "city", city, "error", err)
			return nil, err
		}
		if len(payload.List) == 0 {
			return nil, fmt.Errorf("openweather: no air quality data for %q", city)
		}
		comp := payload.List[0].Components
		aqi := weather.AQIFromPM25(comp.PM25)
		location := city
		if country != "" {
			location = city + ", " + country
		}
		aq := &weather.AirQuality{
			AQI:                   aqi,
			PM25:                  comp.PM25,
			PM10:                  comp.PM10,
			O3:                    comp.O3,
			NO2:                   comp.NO2,
			SO2:                   comp.SO2,
			CO:                    comp.CO,
			Location:              location,
			Timestamp:             c.now(),
			HealthRecommendations: weather.HealthRecommendations(aqi),
		}
		c.logger.Info("fetched air quality", "city", city, "aqi", aqi)
		return aq, nil
	})
}

// CityFromCoordinates resolves a point to the nearest city name.
func (c *Client) CityFromCoordinates(ctx context.Context, loc weather.Location) (string, error) {
	key := respcache.Key(respcache.KindGeocode, fmt.Sprintf("%.4f,%.4f", loc.Latitude, loc.Longitude))
	return c.revgeo.Fetch(ctx, key, c.ttls.Geocode, func(ctx context.Context) (string, error) {
		q := url.Values{}
		q.Set("lat", formatCoord(loc.Latitude))
		q.Set("lon", formatCoord(loc.Longitude))
		q.Set("limit", "1")
		var results []geoResult
		if err := c.getJSON(ctx, "/geo/1.0/reverse", q, &results); err != nil {
			return "", err
		}
		if len(results) == 0 {
			return "", fmt.Errorf("reverse geocode %.4f,%.4f: %w", loc.Latitude, loc.Longitude, ErrCityNotFound)
		}
		return results[0].Name, nil
	})
}

func (c *Client) coordinates(ctx context.Context, city, country string) (geoPoint, error) {
	place := city
	if country != "" {
		place = city + "," + country
	}
	key := respcache.Key(respcache.KindGeocode, place)
	return c.geo.Fetch(ctx, key, c.ttls.Geocode, func(ctx context.Context) (geoPoint, error) {
		q := url.Values{}
		q.Set("q", place)
		q.Set("limit", "1")
		var results []geoResult
		if err := c.getJSON(ctx, "/geo/1.0/direct", q, &results); err != nil {
			return geoPoint{}, err
		}
		if len(results) == 0 {
			return geoPoint{}, fmt.Errorf("geocode %q: %w", place, ErrCityNotFound)
		}
		return geoPoint{Lat: results[0].Lat, Lon: results[0].Lon}, nil
	})
}

func (c *Client) fetchForecast(ctx context.Context, city string, cnt int) (*forecastPayload, error) {
	q := url.Values{}
	q.Set("q", city)
	q.Set("units", "metric")
	q.Set("cnt", strconv.Itoa(cnt))
	var payload forecastPayload
	if err := c.getJSON(ctx, "/data/2.5/forecast", q, &payload); err != nil {
		c.logger.Error("forecast fetch failed", "city", city, "error", err)
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	query.Set("appid", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build openweather request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openweather request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode openweather response: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
