// Command weatherai runs the weather assistant HTTP service: the session
// store with its background sweeper, the OpenWeather-backed tool-calling
// assistant and the JSON API in front of them.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	weatherai "github.com/MarkAPhillips/weather-ai-assistant"
	"github.com/MarkAPhillips/weather-ai-assistant/agent"
	"github.com/MarkAPhillips/weather-ai-assistant/config"
	"github.com/MarkAPhillips/weather-ai-assistant/logging"
	"github.com/MarkAPhillips/weather-ai-assistant/model"
	"github.com/MarkAPhillips/weather-ai-assistant/model/anthropic"
	"github.com/MarkAPhillips/weather-ai-assistant/model/openai"
	"github.com/MarkAPhillips/weather-ai-assistant/pexels"
	"github.com/MarkAPhillips/weather-ai-assistant/respcache"
	"github.com/MarkAPhillips/weather-ai-assistant/server"
	"github.com/MarkAPhillips/weather-ai-assistant/session"
	"github.com/MarkAPhillips/weather-ai-assistant/weather/openweather"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "weatherai: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := logging.New(&logging.Config{
		Level:  logging.LevelFromString(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := session.NewInMemoryStore(func(o *session.Options) {
		o.TTL = cfg.Session.TTL
		o.Logger = logging.WithComponent(logger, "session")
	})

	sweeper := session.NewSweeper(store, func(o *session.SweeperOptions) {
		o.Interval = cfg.Session.SweepInterval
		o.Logger = logging.WithComponent(logger, "sweeper")
	})
	go sweeper.Run(ctx)

	provider := openweather.New(cfg.Weather.APIKey, func(o *openweather.Options) {
		o.BaseURL = cfg.Weather.BaseURL
		o.HTTPClient = &http.Client{Timeout: cfg.Weather.Timeout}
		o.TTLs = respcache.TTLs{
			Current:    cfg.Cache.Current,
			Forecast:   cfg.Cache.Forecast,
			AirQuality: cfg.Cache.AirQuality,
			Historical: cfg.Cache.Historical,
			Geocode:    cfg.Cache.Geocode,
			Extended:   cfg.Cache.Forecast,
		}
		o.Logger = logging.WithComponent(logger, "openweather")
	})

	llm, err := buildModel(cfg.Model)
	if err != nil {
		return err
	}
	logger.Info("model configured", "provider", llm.Info().Provider, "name", llm.Info().Name)

	assistant := agent.New(llm, []agent.Tool{agent.NewWeatherTool(provider)}, func(o *agent.Options) {
		o.Logger = logging.WithComponent(logger, "assistant")
	})

	chat := weatherai.New(store, assistant, func(o *weatherai.Options) {
		o.HistoryLimit = cfg.Session.HistoryLimit
		o.Logger = logging.WithComponent(logger, "chat")
	})

	images := pexels.New(cfg.Pexels.APIKey, func(o *pexels.Options) {
		o.Logger = logging.WithComponent(logger, "pexels")
	})

	srv := server.New(func(o *server.Options) {
		o.Addr = cfg.Server.Addr
		o.Store = store
		o.Chat = chat
		o.Responder = assistant
		o.Provider = provider
		o.Images = images
		o.WeatherConfigured = cfg.Weather.APIKey != ""
		o.ModelName = llm.Info().Name
		o.ListLimit = cfg.Session.ListLimit
		o.Logger = logging.WithComponent(logger, "http")
	})

	return srv.Run(ctx)
}

// buildModel picks the language model implementation from configuration.
func buildModel(cfg config.ModelConfig) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			o.MaxCompletionTokens = cfg.MaxTokens
			o.APIKey = cfg.OpenAIAPIKey
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			o.MaxTokens = cfg.MaxTokens
			o.APIKey = cfg.AnthropicAPIKey
		}), nil
	case "mock":
		return model.NewMock(), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
