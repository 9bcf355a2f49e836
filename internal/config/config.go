package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	OpenWeatherAPIKey string

	// Window is the default rolling-window size for anomaly detection.
	Window int

	// Sigma is the default band width multiplier (mean ± Sigma·std).
	Sigma float64

	// FetchTimeout is the deadline applied to each provider request.
	FetchTimeout time.Duration

	// RefreshInterval controls how often the scheduler re-classifies
	// tracked cities against their seasonal baselines.
	RefreshInterval time.Duration

	// TrackedCities are the cities the scheduler monitors.
	TrackedCities []string

	// In-memory store retention.
	StoreMaxDatasets int // max uploaded datasets kept (0 = unlimited)
	StoreMaxVerdicts int // max verdict entries per city (0 = unlimited)

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")

	cfg.Window = getenvInt("ROLLING_WINDOW", 30)
	if cfg.Window < 1 {
		return nil, fmt.Errorf("ROLLING_WINDOW must be at least 1")
	}

	sigma, err := getenvFloat("SIGMA_MULTIPLIER", 2.0)
	if err != nil {
		return nil, fmt.Errorf("invalid SIGMA_MULTIPLIER: %w", err)
	}
	if sigma <= 0 {
		return nil, fmt.Errorf("SIGMA_MULTIPLIER must be positive")
	}
	cfg.Sigma = sigma

	timeoutStr := getenvDefault("FETCH_TIMEOUT", "5s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid FETCH_TIMEOUT: %w", err)
	}
	cfg.FetchTimeout = timeout

	intervalStr := getenvDefault("REFRESH_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REFRESH_INTERVAL: %w", err)
	}
	cfg.RefreshInterval = interval

	cfg.TrackedCities = splitCities(os.Getenv("WEATHER_CITIES"))

	cfg.StoreMaxDatasets = getenvInt("STORE_MAX_DATASETS", 10)
	cfg.StoreMaxVerdicts = getenvInt("STORE_MAX_VERDICTS", 96) // roughly 24h at 15-minute intervals

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func splitCities(raw string) []string {
	var cities []string
	for _, c := range strings.Split(raw, ",") {
		c = strings.TrimSpace(c)
		if c != "" {
			cities = append(cities, c)
		}
	}
	return cities
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}
