package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// DefaultWeatherURL is the Open-Meteo forecast endpoint.
const DefaultWeatherURL = "https://api.open-meteo.com/v1/forecast"

// ===================================
// Weather Tool
// ===================================

type WeatherInput struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type WeatherOutput struct {
	Time         string  `json:"time"`
	TemperatureC float64 `json:"temperature_c"`
	WindSpeedKmh float64 `json:"wind_speed_kmh"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

type openMeteoResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Current   struct {
		Time          string  `json:"time"`
		Temperature2m float64 `json:"temperature_2m"`
		WindSpeed10m  float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

// NewWeatherTool reports current conditions from an Open-Meteo compatible endpoint.
func NewWeatherTool(baseURL string, client *http.Client) tool.InvokableTool {
	if baseURL == "" {
		baseURL = DefaultWeatherURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetWeather,
			Desc: "Get the current temperature (Celsius) and wind speed at a latitude/longitude.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"latitude": {
					Type:     schema.Number,
					Desc:     "Latitude in decimal degrees, -90 to 90.",
					Required: true,
				},
				"longitude": {
					Type:     schema.Number,
					Desc:     "Longitude in decimal degrees, -180 to 180.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *WeatherInput) (*WeatherOutput, error) {
			if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
				return nil, fmt.Errorf("coordinates out of range: %v,%v", in.Latitude, in.Longitude)
			}
			return fetchWeather(ctx, client, baseURL, in.Latitude, in.Longitude)
		},
	)
}

func fetchWeather(ctx context.Context, client *http.Client, baseURL string, lat, lon float64) (*WeatherOutput, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("weather url: %w", err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,wind_speed_10m")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("weather request: status %d: %s", resp.StatusCode, body)
	}

	var data openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}
	return &WeatherOutput{
		Time:         data.Current.Time,
		TemperatureC: data.Current.Temperature2m,
		WindSpeedKmh: data.Current.WindSpeed10m,
		Latitude:     data.Latitude,
		Longitude:    data.Longitude,
	}, nil
}
