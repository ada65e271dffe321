package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the review workflow.
type Config struct {
	AppName                string
	AppEnv                 string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventSubjectBase       string
	ReferenceCacheTTL      time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
}

// EventsEnabled reports whether a broker is configured for lifecycle events.
func (c Config) EventsEnabled() bool {
	return c.NATSURL != ""
}

// ArchiveEnabled reports whether certificate mirroring is configured.
func (c Config) ArchiveEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and an optional
// .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TASKCHECK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "TaskCheck")
	v.SetDefault("app.env", "development")
	v.SetDefault("events.subject_base", "taskcheck")
	v.SetDefault("reference.cache_ttl", "5m")
	v.SetDefault("cloudinary.folder", "taskcheck/certificates")

	ttlString := v.GetString("reference.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid reference cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventSubjectBase:       v.GetString("events.subject_base"),
		ReferenceCacheTTL:      ttl,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	return cfg, nil
}
