package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Property sources supported by PROPERTY_SOURCE.
const (
	PropertySourceBackend  = "backend"
	PropertySourcePostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CORS     CORSConfig
	Backend  BackendConfig
	Geocoder GeocoderConfig
	Search   SearchConfig
	Map      MapConfig
	Session  SessionConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds PostgreSQL connection configuration.
// It is only required when properties are read from PostgreSQL.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	PoolMin  int
	PoolMax  int
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Origins []string
}

// BackendConfig describes the dashboard backend that serves properties and
// the regional HMO registries.
type BackendConfig struct {
	URL            string
	PropertySource string
	Timeout        time.Duration
	RegionTimeout  time.Duration
	Preload        []string
}

// GeocoderConfig holds the Nominatim fallback settings.
type GeocoderConfig struct {
	URL        string
	UserAgent  string
	RatePerSec float64
	Timeout    time.Duration
	Enabled    bool
}

// SearchConfig holds search timing.
type SearchConfig struct {
	Debounce     time.Duration
	HighlightTTL time.Duration
}

// MapConfig holds viewport defaults.
type MapConfig struct {
	DefaultLat  float64
	DefaultLng  float64
	DefaultZoom int
	SelectZoom  int
	FitPadding  int
	QueueSize   int
}

// SessionConfig holds dashboard session lifetime settings.
type SessionConfig struct {
	IdleTimeout time.Duration
}

// Load reads configuration from environment variables.
// It uses viper to read values and provides sensible defaults for development.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults for development
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_HOST", "host.docker.internal")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "propmap")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_POOL_MIN", 2)
	v.SetDefault("DB_POOL_MAX", 10)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:3001")

	v.SetDefault("PROPERTY_SOURCE", PropertySourceBackend)
	v.SetDefault("BACKEND_URL", "http://localhost:8000/api")
	v.SetDefault("BACKEND_TIMEOUT", "15s")
	v.SetDefault("REGION_FETCH_TIMEOUT", "60s")
	v.SetDefault("REGIONS_PRELOAD", "")

	v.SetDefault("GEOCODER_ENABLED", true)
	v.SetDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	v.SetDefault("GEOCODER_USER_AGENT", "propmap/0.1 (property dashboard)")
	v.SetDefault("GEOCODER_RATE_PER_SEC", 1.0)
	v.SetDefault("GEOCODER_TIMEOUT", "5s")

	v.SetDefault("SEARCH_DEBOUNCE", "300ms")
	v.SetDefault("HIGHLIGHT_TTL", "5s")

	// Oxford city centre
	v.SetDefault("MAP_DEFAULT_LAT", 51.752)
	v.SetDefault("MAP_DEFAULT_LNG", -1.2577)
	v.SetDefault("MAP_DEFAULT_ZOOM", 12)
	v.SetDefault("MAP_SELECT_ZOOM", 16)
	v.SetDefault("MAP_FIT_PADDING", 50)
	v.SetDefault("COMMAND_QUEUE_SIZE", 256)

	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")

	// Bind environment variables
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("PORT"),
			Env:  v.GetString("ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			Name:     v.GetString("DB_NAME"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			PoolMin:  v.GetInt("DB_POOL_MIN"),
			PoolMax:  v.GetInt("DB_POOL_MAX"),
		},
		CORS: CORSConfig{
			Origins: splitList(v.GetString("CORS_ORIGINS")),
		},
		Backend: BackendConfig{
			URL:            strings.TrimRight(v.GetString("BACKEND_URL"), "/"),
			PropertySource: strings.ToLower(v.GetString("PROPERTY_SOURCE")),
			Timeout:        v.GetDuration("BACKEND_TIMEOUT"),
			RegionTimeout:  v.GetDuration("REGION_FETCH_TIMEOUT"),
			Preload:        splitList(v.GetString("REGIONS_PRELOAD")),
		},
		Geocoder: GeocoderConfig{
			URL:        strings.TrimRight(v.GetString("GEOCODER_URL"), "/"),
			UserAgent:  v.GetString("GEOCODER_USER_AGENT"),
			RatePerSec: v.GetFloat64("GEOCODER_RATE_PER_SEC"),
			Timeout:    v.GetDuration("GEOCODER_TIMEOUT"),
			Enabled:    v.GetBool("GEOCODER_ENABLED"),
		},
		Search: SearchConfig{
			Debounce:     v.GetDuration("SEARCH_DEBOUNCE"),
			HighlightTTL: v.GetDuration("HIGHLIGHT_TTL"),
		},
		Map: MapConfig{
			DefaultLat:  v.GetFloat64("MAP_DEFAULT_LAT"),
			DefaultLng:  v.GetFloat64("MAP_DEFAULT_LNG"),
			DefaultZoom: v.GetInt("MAP_DEFAULT_ZOOM"),
			SelectZoom:  v.GetInt("MAP_SELECT_ZOOM"),
			FitPadding:  v.GetInt("MAP_FIT_PADDING"),
			QueueSize:   v.GetInt("COMMAND_QUEUE_SIZE"),
		},
		Session: SessionConfig{
			IdleTimeout: v.GetDuration("SESSION_IDLE_TIMEOUT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// UsesPostgres reports whether tracked properties come from PostgreSQL.
func (c *Config) UsesPostgres() bool {
	return c.Backend.PropertySource == PropertySourcePostgres
}

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.Backend.PropertySource {
	case PropertySourceBackend, PropertySourcePostgres:
	default:
		return fmt.Errorf("PROPERTY_SOURCE must be %q or %q, got %q",
			PropertySourceBackend, PropertySourcePostgres, c.Backend.PropertySource)
	}

	if c.UsesPostgres() {
		if err := c.Database.validate(); err != nil {
			return err
		}
	}

	if c.Backend.URL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}
	if _, err := url.ParseRequestURI(c.Backend.URL); err != nil {
		return fmt.Errorf("BACKEND_URL is not a valid URL: %w", err)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if c.Backend.RegionTimeout <= 0 {
		return fmt.Errorf("REGION_FETCH_TIMEOUT must be positive")
	}

	if c.Geocoder.Enabled {
		if c.Geocoder.URL == "" {
			return fmt.Errorf("GEOCODER_URL is required when the geocoder is enabled")
		}
		if c.Geocoder.UserAgent == "" {
			return fmt.Errorf("GEOCODER_USER_AGENT is required when the geocoder is enabled")
		}
		if c.Geocoder.RatePerSec <= 0 {
			return fmt.Errorf("GEOCODER_RATE_PER_SEC must be positive")
		}
	}

	if c.Search.Debounce < 0 {
		return fmt.Errorf("SEARCH_DEBOUNCE must be non-negative")
	}
	if c.Search.HighlightTTL <= 0 {
		return fmt.Errorf("HIGHLIGHT_TTL must be positive")
	}

	if c.Map.DefaultLat < -90 || c.Map.DefaultLat > 90 {
		return fmt.Errorf("MAP_DEFAULT_LAT must be between -90 and 90")
	}
	if c.Map.DefaultLng < -180 || c.Map.DefaultLng > 180 {
		return fmt.Errorf("MAP_DEFAULT_LNG must be between -180 and 180")
	}
	if c.Map.SelectZoom == c.Map.DefaultZoom {
		return fmt.Errorf("MAP_SELECT_ZOOM must differ from MAP_DEFAULT_ZOOM")
	}
	if c.Map.QueueSize < 1 {
		return fmt.Errorf("COMMAND_QUEUE_SIZE must be at least 1")
	}

	if c.Session.IdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}

	if len(c.CORS.Origins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required")
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if d.Port == "" {
		return fmt.Errorf("DB_PORT is required")
	}
	if d.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if d.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if d.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if d.PoolMin < 0 {
		return fmt.Errorf("DB_POOL_MIN must be non-negative")
	}
	if d.PoolMax < 1 {
		return fmt.Errorf("DB_POOL_MAX must be at least 1")
	}
	if d.PoolMin > d.PoolMax {
		return fmt.Errorf("DB_POOL_MIN must be less than or equal to DB_POOL_MAX")
	}
	return nil
}

// splitList splits a comma-separated string into trimmed, non-empty parts.
func splitList(list string) []string {
	if list == "" {
		return []string{}
	}

	parts := strings.Split(list, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
