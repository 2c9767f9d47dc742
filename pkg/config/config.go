package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Discord  DiscordConfig
	Telegram TelegramConfig
	Roblox   RobloxConfig
	Auth     AuthConfig
	API      APIConfig
	Sweeper  SweeperConfig
	CORS     CORSConfig
	Log      LogConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// DiscordConfig holds the bot credentials and target guild.
type DiscordConfig struct {
	Token    string
	ClientID string
	GuildID  string
}

// TelegramConfig enables best-effort moderation notifications.
// The notifier is disabled when either field is empty.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// RobloxConfig tunes the upstream user-directory client.
type RobloxConfig struct {
	BaseURL       string
	ThumbnailsURL string
	Timeout       time.Duration
}

// AuthConfig governs auth codes and API sessions.
type AuthConfig struct {
	JWTSecret  string
	CodeTTL    time.Duration
	SessionTTL time.Duration
}

// APIConfig carries the machine-to-machine signing secret and throttle limits.
type APIConfig struct {
	SigningSecret   string
	SignatureMaxAge time.Duration
	RateLimit       int
	RateWindow      time.Duration
	StatsCacheTTL   time.Duration
}

// SweeperConfig controls the expiry-archival loop.
type SweeperConfig struct {
	Interval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Discord = DiscordConfig{
		Token:    v.GetString("DISCORD_TOKEN"),
		ClientID: v.GetString("DISCORD_CLIENT_ID"),
		GuildID:  v.GetString("DISCORD_GUILD_ID"),
	}

	cfg.Telegram = TelegramConfig{
		BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
		ChatID:   v.GetString("TELEGRAM_CHAT_ID"),
	}

	cfg.Roblox = RobloxConfig{
		BaseURL:       v.GetString("ROBLOX_USERS_URL"),
		ThumbnailsURL: v.GetString("ROBLOX_THUMBNAILS_URL"),
		Timeout:       parseDuration(v.GetString("ROBLOX_TIMEOUT"), 10*time.Second),
	}

	cfg.Auth = AuthConfig{
		JWTSecret:  v.GetString("JWT_SECRET"),
		CodeTTL:    parseDuration(v.GetString("AUTH_CODE_TTL"), time.Hour),
		SessionTTL: parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
	}

	cfg.API = APIConfig{
		SigningSecret:   v.GetString("API_SECRET_KEY"),
		SignatureMaxAge: parseDuration(v.GetString("API_SIGNATURE_MAX_AGE"), 5*time.Minute),
		RateLimit:       v.GetInt("API_RATE_LIMIT"),
		RateWindow:      parseDuration(v.GetString("API_RATE_WINDOW"), time.Minute),
		StatsCacheTTL:   parseDuration(v.GetString("STATS_CACHE_TTL"), 30*time.Second),
	}

	cfg.Sweeper = SweeperConfig{
		Interval: parseDuration(v.GetString("SWEEP_INTERVAL"), 15*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate fails fast when a required field is absent.
func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"DISCORD_TOKEN", c.Discord.Token},
		{"DISCORD_CLIENT_ID", c.Discord.ClientID},
		{"DB_NAME", c.Database.Name},
		{"JWT_SECRET", c.Auth.JWTSecret},
		{"API_SECRET_KEY", c.API.SigningSecret},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("missing required configuration: %s", field.name)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("DISCORD_TOKEN", "")
	v.SetDefault("DISCORD_CLIENT_ID", "")
	v.SetDefault("DISCORD_GUILD_ID", "")

	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("TELEGRAM_CHAT_ID", "")

	v.SetDefault("ROBLOX_USERS_URL", "https://users.roblox.com")
	v.SetDefault("ROBLOX_THUMBNAILS_URL", "https://thumbnails.roblox.com")
	v.SetDefault("ROBLOX_TIMEOUT", "10s")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("AUTH_CODE_TTL", "1h")
	v.SetDefault("SESSION_TTL", "24h")

	v.SetDefault("API_SECRET_KEY", "")
	v.SetDefault("API_SIGNATURE_MAX_AGE", "5m")
	v.SetDefault("API_RATE_LIMIT", 60)
	v.SetDefault("API_RATE_WINDOW", "1m")
	v.SetDefault("STATS_CACHE_TTL", "30s")

	v.SetDefault("SWEEP_INTERVAL", "15m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
