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
	AppName                 string
	AppEnv                  string
	AppPort                 string
	DatabaseDriver          string
	DatabaseURL             string
	RedisURL                string
	NATSURL                 string
	NotificationChannel     string
	NotificationKeepAlive   time.Duration
	JWTSecret               string
	CloudinaryCloudName     string
	CloudinaryAPIKey        string
	CloudinaryAPISecret     string
	CloudinaryUploadFolder  string
	RatingCacheTTL          time.Duration
	DashboardCacheTTL       time.Duration
	MCQTimeLimitMinutes     int
	MCQDefaultQuestionCount int
	SeedEnabled             bool
	SeedToken               string
	SeedFile                string
	SubmissionRateLimit     int
	SubmissionRateWindow    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("COURSEHUB")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "CourseHub API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("cloudinary.folder", "coursehub/submissions")
	v.SetDefault("notifications.channel", "coursehub")
	v.SetDefault("notifications.keepalive", "25s")
	v.SetDefault("rating.cache_ttl", "10m")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("mcq.time_limit_minutes", 30)
	v.SetDefault("mcq.default_question_count", 10)
	v.SetDefault("seed.enabled", false)
	v.SetDefault("submissions.rate_limit", 20)
	v.SetDefault("submissions.rate_window", "1m")

	durations := map[string]time.Duration{}
	for _, key := range []string{"notifications.keepalive", "rating.cache_ttl", "dashboard.cache_ttl", "submissions.rate_window"} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                 v.GetString("app.name"),
		AppEnv:                  v.GetString("app.env"),
		AppPort:                 v.GetString("app.port"),
		DatabaseDriver:          strings.ToLower(v.GetString("database.driver")),
		DatabaseURL:             v.GetString("database.url"),
		RedisURL:                v.GetString("redis.url"),
		NATSURL:                 v.GetString("nats.url"),
		NotificationChannel:     v.GetString("notifications.channel"),
		NotificationKeepAlive:   durations["notifications.keepalive"],
		JWTSecret:               v.GetString("jwt.secret"),
		CloudinaryCloudName:     v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:        v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:     v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder:  v.GetString("cloudinary.folder"),
		RatingCacheTTL:          durations["rating.cache_ttl"],
		DashboardCacheTTL:       durations["dashboard.cache_ttl"],
		MCQTimeLimitMinutes:     v.GetInt("mcq.time_limit_minutes"),
		MCQDefaultQuestionCount: v.GetInt("mcq.default_question_count"),
		SeedEnabled:             v.GetBool("seed.enabled"),
		SeedToken:               v.GetString("seed.token"),
		SeedFile:                v.GetString("seed.file"),
		SubmissionRateLimit:     v.GetInt("submissions.rate_limit"),
		SubmissionRateWindow:    durations["submissions.rate_window"],
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	switch cfg.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	if cfg.MCQTimeLimitMinutes <= 0 {
		cfg.MCQTimeLimitMinutes = 30
	}

	if cfg.MCQDefaultQuestionCount <= 0 {
		cfg.MCQDefaultQuestionCount = 10
	}

	return cfg, nil
}
