// Package openweather implements weather.Provider on top of the
// OpenWeather REST API. Responses are cached per request shape with
// kind-specific TTLs. The free tier has no history endpoint, so
// historical data is simulated around current conditions.
package openweather
