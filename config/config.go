package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
	Classifier ClassifierConfig
	Guidance   GuidanceConfig
	Directory  DirectoryConfig
	Location   LocationConfig
	Notify     NotifyConfig
	RateLimit  RateLimitConfig
}

type ServerConfig struct {
	Host                    string
	Port                    int
	ReadTimeout             time.Duration
	WriteTimeout            time.Duration
	IdleTimeout             time.Duration
	GracefulShutdownTimeout time.Duration
	AllowedOrigins          []string
}

type DatabaseConfig struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	CacheTTL time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string // json or text
}

type MetricsConfig struct {
	Enabled bool
	Port    int
	Path    string
}

type ClassifierConfig struct {
	ArtifactDir string
	CorpusPath  string // optional JSON-lines corpus used by `train`
}

type GuidanceConfig struct {
	Path string // optional YAML override of the embedded table
}

// Directory modes
const (
	DirectoryStatic   = "static"
	DirectoryPostgres = "postgres"
	DirectoryLive     = "live"
)

type DirectoryConfig struct {
	Mode      string
	TopK      int
	LiveURL   string
	Timeout   time.Duration
	UserAgent string
	RateLimit float64 // requests per second against the live provider
}

// Location modes
const (
	LocationIPAPI  = "ipapi"
	LocationStatic = "static"
	LocationNone   = "none"
)

type LocationConfig struct {
	Mode      string
	URL       string
	Timeout   time.Duration
	Latitude  float64
	Longitude float64
	City      string
}

type NotifyConfig struct {
	Channels       []string
	MaxConcurrency int
	SendTimeout    time.Duration
	Email          EmailConfig
	Relay          RelayConfig
	WebhookURL     string
}

// EmailConfig carries SMTP credentials; empty values are reported per dispatch
type EmailConfig struct {
	Sender      string
	AppPassword string
	Receiver    string
	Host        string
	Port        int
}

// RelayConfig carries messaging relay (Twilio-compatible) credentials
type RelayConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	BaseURL    string
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

// Load loads configuration from environment variables with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:                    getEnv("SERVER_HOST", "0.0.0.0"),
			Port:                    getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:             getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:            getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:             getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			GracefulShutdownTimeout: getEnvDuration("SERVER_GRACEFUL_SHUTDOWN_TIMEOUT", 30*time.Second),
			AllowedOrigins:          getEnvList("SERVER_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 1*time.Hour),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			CacheTTL: getEnvDuration("REDIS_CACHE_TTL", 10*time.Minute),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		Classifier: ClassifierConfig{
			ArtifactDir: getEnv("CLASSIFIER_ARTIFACT_DIR", "artifacts"),
			CorpusPath:  getEnv("CLASSIFIER_CORPUS_PATH", ""),
		},
		Guidance: GuidanceConfig{
			Path: getEnv("GUIDANCE_PATH", ""),
		},
		Directory: DirectoryConfig{
			Mode:      strings.ToLower(getEnv("DIRECTORY_MODE", DirectoryStatic)),
			TopK:      getEnvInt("DIRECTORY_TOP_K", 3),
			LiveURL:   getEnv("DIRECTORY_LIVE_URL", "https://nominatim.openstreetmap.org/search"),
			Timeout:   getEnvDuration("DIRECTORY_TIMEOUT", 5*time.Second),
			UserAgent: getEnv("DIRECTORY_USER_AGENT", "EmergencyApp/1.0"),
			RateLimit: getEnvFloat("DIRECTORY_RATE_LIMIT", 1.0),
		},
		Location: LocationConfig{
			Mode:      strings.ToLower(getEnv("LOCATION_MODE", LocationIPAPI)),
			URL:       getEnv("LOCATION_URL", "http://ip-api.com/json/"),
			Timeout:   getEnvDuration("LOCATION_TIMEOUT", 3*time.Second),
			Latitude:  getEnvFloat("LOCATION_LATITUDE", 0),
			Longitude: getEnvFloat("LOCATION_LONGITUDE", 0),
			City:      getEnv("LOCATION_CITY", ""),
		},
		Notify: NotifyConfig{
			Channels:       getEnvList("NOTIFY_CHANNELS", []string{"email", "whatsapp"}),
			MaxConcurrency: getEnvInt("NOTIFY_MAX_CONCURRENCY", 4),
			SendTimeout:    getEnvDuration("NOTIFY_SEND_TIMEOUT", 10*time.Second),
			Email: EmailConfig{
				Sender:      getEnv("EMAIL_SENDER", ""),
				AppPassword: getEnv("GMAIL_APP_PASSWORD", ""),
				Receiver:    getEnv("EMAIL_RECEIVER", ""),
				Host:        getEnv("SMTP_HOST", "smtp.gmail.com"),
				Port:        getEnvInt("SMTP_PORT", 587),
			},
			Relay: RelayConfig{
				AccountSID: getEnv("TWILIO_SID", ""),
				AuthToken:  getEnv("TWILIO_AUTH", ""),
				From:       getEnv("TWILIO_WHATSAPP_FROM", ""),
				To:         getEnv("WHATSAPP_TO", ""),
				BaseURL:    getEnv("TWILIO_BASE_URL", "https://api.twilio.com"),
			},
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: getEnvInt("RATE_LIMIT_RPM", 30),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}
	switch c.Directory.Mode {
	case DirectoryStatic, DirectoryLive:
	case DirectoryPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("directory mode %q requires DATABASE_URL", c.Directory.Mode)
		}
	default:
		return fmt.Errorf("invalid directory mode: %q", c.Directory.Mode)
	}
	if c.Directory.TopK < 1 {
		return fmt.Errorf("directory top-k must be at least 1")
	}
	if c.Directory.Timeout <= 0 {
		return fmt.Errorf("directory timeout must be positive")
	}
	switch c.Location.Mode {
	case LocationIPAPI, LocationNone:
	case LocationStatic:
		if c.Location.Latitude < -90 || c.Location.Latitude > 90 ||
			c.Location.Longitude < -180 || c.Location.Longitude > 180 {
			return fmt.Errorf("static location out of range: %f,%f", c.Location.Latitude, c.Location.Longitude)
		}
	default:
		return fmt.Errorf("invalid location mode: %q", c.Location.Mode)
	}
	if c.Notify.MaxConcurrency < 1 {
		return fmt.Errorf("notify max concurrency must be at least 1")
	}
	if c.RateLimit.RequestsPerMinute < 1 {
		return fmt.Errorf("rate limit must be at least 1 request per minute")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping blanks
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
