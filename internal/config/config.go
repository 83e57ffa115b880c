// README: Config loader with env defaults for HTTP, providers, and engine tuning.
package config

import (
	"os"
	"strconv"
	"time"
)

// EngineConfig holds the tuning knobs of the assignment pipeline.
type EngineConfig struct {
	// LocationWeight, MusicWeight and InitialWeight are the default scoring
	// weights, overridable per request.
	LocationWeight float64
	MusicWeight    float64
	InitialWeight  float64
	// CoverageMeters is the promotion coverage threshold: how close another
	// outlier must be for a candidate driver to count as covering it.
	CoverageMeters float64
	// DefaultPickupRadiusKm is assigned to promoted drivers without one.
	DefaultPickupRadiusKm float64
	// ClusterEpsKm is the DBSCAN neighbourhood radius for outlier clustering.
	ClusterEpsKm float64
	// MaxPickupMeters bounds how far a resolved pickup point may sit from a
	// passenger's original coordinate.
	MaxPickupMeters float64
	// StopDuration is deducted per distinct pickup stop when scheduling.
	StopDuration time.Duration
	// Workers bounds concurrent route/distance lookups within a round.
	Workers int
	// ProviderTimeout bounds each external provider call.
	ProviderTimeout time.Duration
}

type Config struct {
	HTTP struct {
		Addr string
	}
	Redis struct {
		// Addr is optional; empty means the in-memory distance cache is used.
		Addr string
	}
	Maps struct {
		APIKey string
	}
	AI struct {
		GeminiKey string
	}
	LogLevel string
	Engine   EngineConfig
}

func Load() (Config, error) {
	var cfg Config
	cfg.HTTP.Addr = envOrDefault("CARPOOL_HTTP_ADDR", ":8080")
	cfg.Redis.Addr = os.Getenv("CARPOOL_REDIS_ADDR")
	cfg.Maps.APIKey = envOrError("GMAPS_API_KEY")
	cfg.AI.GeminiKey = envOrError("GEMINI_API_KEY")
	cfg.LogLevel = envOrDefault("CARPOOL_LOG_LEVEL", "info")
	cfg.Engine = LoadEngine()
	return cfg, nil
}

// LoadEngine reads only the engine tuning, with defaults matching the
// reference deployment.
func LoadEngine() EngineConfig {
	return EngineConfig{
		LocationWeight:        envOrDefaultFloat("CARPOOL_LOCATION_WEIGHT", 0.8),
		MusicWeight:           envOrDefaultFloat("CARPOOL_MUSIC_WEIGHT", 0.1),
		InitialWeight:         envOrDefaultFloat("CARPOOL_INITIAL_WEIGHT", 0.1),
		CoverageMeters:        envOrDefaultFloat("CARPOOL_COVERAGE_METERS", 2000),
		DefaultPickupRadiusKm: envOrDefaultFloat("CARPOOL_DEFAULT_PICKUP_RADIUS_KM", 10.0),
		ClusterEpsKm:          envOrDefaultFloat("CARPOOL_CLUSTER_EPS_KM", 0.5),
		MaxPickupMeters:       envOrDefaultFloat("CARPOOL_MAX_PICKUP_METERS", 2000),
		StopDuration:          time.Duration(envOrDefaultInt("CARPOOL_STOP_SECONDS", 300)) * time.Second,
		Workers:               envOrDefaultInt("CARPOOL_WORKERS", 8),
		ProviderTimeout:       time.Duration(envOrDefaultInt("CARPOOL_PROVIDER_TIMEOUT_SECONDS", 10)) * time.Second,
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrError(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	panic("environment variable " + key + " is required")
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}
