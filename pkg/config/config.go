package config

import (
	"errors"
	"io/fs"
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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Calendar  CalendarConfig
	Purge     PurgeConfig
	Broadcast BroadcastConfig
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

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig controls Redis caching of event listings and user profiles.
type CacheConfig struct {
	Enabled    bool
	EventsTTL  time.Duration
	ProfileTTL time.Duration
}

// CalendarConfig holds domain tunables for the event editor.
type CalendarConfig struct {
	CohortsFile    string
	ExpirationGap  time.Duration
	MaxOccurrences int
	MaxWindow      time.Duration
}

// PurgeConfig schedules removal of expired events.
type PurgeConfig struct {
	Enabled  bool
	Schedule string
}

// BroadcastConfig sizes the worker pool that announces saved events.
type BroadcastConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
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

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		EventsTTL:  parseDuration(v.GetString("EVENTS_CACHE_TTL"), time.Minute),
		ProfileTTL: parseDuration(v.GetString("PROFILE_CACHE_TTL"), 5*time.Minute),
	}

	maxOccurrences := v.GetInt("MAX_OCCURRENCES")
	if maxOccurrences <= 0 {
		maxOccurrences = 500
	}
	cfg.Calendar = CalendarConfig{
		CohortsFile:    v.GetString("COHORTS_FILE"),
		ExpirationGap:  parseDuration(v.GetString("EVENT_EXPIRATION_GAP"), 48*time.Hour),
		MaxOccurrences: maxOccurrences,
		MaxWindow:      parseDuration(v.GetString("MAX_LIST_WINDOW"), 62*24*time.Hour),
	}

	cfg.Purge = PurgeConfig{
		Enabled:  v.GetBool("ENABLE_PURGE"),
		Schedule: v.GetString("PURGE_SCHEDULE"),
	}

	workers := v.GetInt("BROADCAST_WORKERS")
	if workers <= 0 {
		workers = 1
	}
	cfg.Broadcast = BroadcastConfig{
		Workers:    workers,
		BufferSize: v.GetInt("BROADCAST_BUFFER_SIZE"),
		MaxRetries: v.GetInt("BROADCAST_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("BROADCAST_RETRY_DELAY"), time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "dojo_calendar")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", true)
	v.SetDefault("EVENTS_CACHE_TTL", "1m")
	v.SetDefault("PROFILE_CACHE_TTL", "5m")

	v.SetDefault("COHORTS_FILE", "")
	v.SetDefault("EVENT_EXPIRATION_GAP", "48h")
	v.SetDefault("MAX_OCCURRENCES", 500)
	v.SetDefault("MAX_LIST_WINDOW", "1488h")

	v.SetDefault("ENABLE_PURGE", true)
	v.SetDefault("PURGE_SCHEDULE", "@every 1h")

	v.SetDefault("BROADCAST_WORKERS", 2)
	v.SetDefault("BROADCAST_BUFFER_SIZE", 64)
	v.SetDefault("BROADCAST_MAX_RETRIES", 3)
	v.SetDefault("BROADCAST_RETRY_DELAY", "1s")
}

// isMissingFile reports whether viper failed because the explicit .env file
// does not exist; SetConfigFile surfaces that as a plain fs error.
func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
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
