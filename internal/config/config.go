package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	DatabaseDriver   string
	DatabaseURL      string
	RedisURL         string
	NATSURL          string
	RealtimeChannel  string
	JWTSecret        string
	RequestTimeout   time.Duration
	AdminRateLimit   int
	AdminRateWindow  time.Duration
	UploadMaxSizeMB  int
	StatsLocation    *time.Location
	CORSAllowOrigins string
	Log              LogConfig
	Client           ClientConfig
}

// LogConfig configures the root zerolog logger and optional file rotation.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ClientConfig configures the dashboard reconciliation client.
type ClientConfig struct {
	APIURL       string
	WSURL        string
	Token        string
	PollInterval time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs in production mode.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func newViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SHEETCHART")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "SheetChart API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("realtime.channel", "sheetchart:realtime")
	v.SetDefault("http.request_timeout", "10s")
	v.SetDefault("admin.rate_limit", 100)
	v.SetDefault("admin.rate_window", "15m")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("stats.timezone", "Local")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("client.api_url", "http://localhost:5000/api")
	v.SetDefault("client.ws_url", "ws://localhost:5000/api/realtime/ws")
	v.SetDefault("client.poll_interval", "30s")

	return v
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	v := newViper()

	requestTimeout, err := parseDuration(v, "http.request_timeout")
	if err != nil {
		return Config{}, err
	}

	rateWindow, err := parseDuration(v, "admin.rate_window")
	if err != nil {
		return Config{}, err
	}

	location, err := LoadLocation(v.GetString("stats.timezone"))
	if err != nil {
		return Config{}, err
	}

	client, err := loadClient(v)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		DatabaseDriver:   strings.ToLower(strings.TrimSpace(v.GetString("database.driver"))),
		DatabaseURL:      v.GetString("database.url"),
		RedisURL:         v.GetString("redis.url"),
		NATSURL:          v.GetString("nats.url"),
		RealtimeChannel:  v.GetString("realtime.channel"),
		JWTSecret:        v.GetString("jwt.secret"),
		RequestTimeout:   requestTimeout,
		AdminRateLimit:   v.GetInt("admin.rate_limit"),
		AdminRateWindow:  rateWindow,
		UploadMaxSizeMB:  v.GetInt("upload.max_size_mb"),
		StatsLocation:    location,
		CORSAllowOrigins: v.GetString("cors.allow_origins"),
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			File:       v.GetString("log.file"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		Client: client,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.AdminRateLimit <= 0 {
		cfg.AdminRateLimit = 100
	}

	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}

	return cfg, nil
}

// LoadClient reads only the settings needed by the dashboard client.
func LoadClient() (ClientConfig, LogConfig, error) {
	v := newViper()

	client, err := loadClient(v)
	if err != nil {
		return ClientConfig{}, LogConfig{}, err
	}

	logCfg := LogConfig{
		Level:      v.GetString("log.level"),
		File:       v.GetString("log.file"),
		MaxSizeMB:  v.GetInt("log.max_size_mb"),
		MaxBackups: v.GetInt("log.max_backups"),
		MaxAgeDays: v.GetInt("log.max_age_days"),
	}

	return client, logCfg, nil
}

// LoadLocation resolves the location used for "today" bucketing. Empty and
// "Local" select the server's local time zone.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}

	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid stats timezone %q: %w", name, err)
	}

	return location, nil
}

func loadClient(v *viper.Viper) (ClientConfig, error) {
	interval, err := parseDuration(v, "client.poll_interval")
	if err != nil {
		return ClientConfig{}, err
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return ClientConfig{
		APIURL:       strings.TrimRight(v.GetString("client.api_url"), "/"),
		WSURL:        v.GetString("client.ws_url"),
		Token:        v.GetString("client.token"),
		PollInterval: interval,
	}, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return duration, nil
}
