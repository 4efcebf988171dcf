package openweather

import (
	"math"

	"github.com/MarkAPhillips/weather-ai-assistant/weather"
)

type weatherBlock struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

type mainBlock struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	Humidity  int     `json:"humidity"`
	Pressure  int     `json:"pressure"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
}

type currentPayload struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main       mainBlock      `json:"main"`
	Visibility int            `json:"visibility"`
	Wind       windBlock      `json:"wind"`
	Weather    []weatherBlock `json:"weather"`
}

type forecastItem struct {
	DtTxt   string         `json:"dt_txt"`
	Main    mainBlock      `json:"main"`
	Wind    windBlock      `json:"wind"`
	Weather []weatherBlock `json:"weather"`
	Rain    struct {
		ThreeH float64 `json:"3h"`
	} `json:"rain"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
}

type forecastPayload struct {
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
	List []forecastItem `json:"list"`
}

type airPayload struct {
	List []struct {
		Components struct {
			CO   float64 `json:"co"`
			NO2  float64 `json:"no2"`
			O3   float64 `json:"o3"`
			SO2  float64 `json:"so2"`
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}

type geoResult struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

func (item forecastItem) toStep() weather.ForecastStep {
	step := weather.ForecastStep{
		Datetime:      item.DtTxt,
		Temperature:   math.Round(item.Main.Temp),
		FeelsLike:     math.Round(item.Main.FeelsLike),
		Humidity:      item.Main.Humidity,
		Pressure:      item.Main.Pressure,
		WindSpeed:     item.Wind.Speed,
		WindDirection: item.Wind.Deg,
		Rain3h:        item.Rain.ThreeH,
		Clouds:        item.Clouds.All,
	}
	if len(item.Weather) > 0 {
		step.Condition = item.Weather[0].Description
		step.ConditionID = item.Weather[0].ID
	}
	return step
}
