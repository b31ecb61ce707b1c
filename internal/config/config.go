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
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventChannelBase       string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	ThumbnailMaxSizeMB     int
	StreamKeepAlive        time.Duration
	DirectoryCacheTTL      time.Duration
	OpenAIAPIKey           string
	AssistantModel         string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PARK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Park API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel_base", "park")
	v.SetDefault("cloudinary.folder", "park/videos")
	v.SetDefault("thumbnail.max_size_mb", 5)
	v.SetDefault("stream.keep_alive", "30s")
	v.SetDefault("directory.cache_ttl", "15s")
	v.SetDefault("assistant.model", "gpt-4o-mini")

	keepAliveString := v.GetString("stream.keep_alive")
	if keepAliveString == "" {
		keepAliveString = "30s"
	}

	keepAlive, err := time.ParseDuration(keepAliveString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid stream keep-alive: %w", err)
	}

	cacheTTLString := v.GetString("directory.cache_ttl")
	if cacheTTLString == "" {
		cacheTTLString = "15s"
	}

	cacheTTL, err := time.ParseDuration(cacheTTLString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid directory cache ttl: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventChannelBase:       v.GetString("events.channel_base"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		ThumbnailMaxSizeMB:     v.GetInt("thumbnail.max_size_mb"),
		StreamKeepAlive:        keepAlive,
		DirectoryCacheTTL:      cacheTTL,
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AssistantModel:         v.GetString("assistant.model"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ThumbnailMaxSizeMB <= 0 {
		cfg.ThumbnailMaxSizeMB = 5
	}

	return cfg, nil
}
