package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lonshanworld/retail-analytics/analytics"
)

// Cache backends selectable with CACHE_BACKEND.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds application configuration read from the environment.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	LogLevel    string

	CacheBackend  string
	CacheSize     int
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// An empty WarmSchedule disables the cache warmer.
	WarmSchedule    string
	WarmConcurrency int

	// An empty GeminiAPIKey disables forecast narratives.
	GeminiAPIKey string
	GeminiModel  string

	OrderCost    float64
	HoldingCost  float64
	LeadTimeDays int
}

// AppConfig holds the application-wide configuration
var AppConfig Config

var defaults = map[string]any{
	"PORT":                   "3000",
	"LOG_LEVEL":              "info",
	"CACHE_BACKEND":          CacheMemory,
	"CACHE_SIZE":             1000,
	"REDIS_ADDR":             "localhost:6379",
	"REDIS_DB":               0,
	"WARM_SCHEDULE":          "0 0 */1 * * *",
	"WARM_CONCURRENCY":       4,
	"GEMINI_MODEL":           "gemini-2.5-flash-lite",
	"EOQ_ORDER_COST":         100.0,
	"EOQ_HOLDING_COST":       5.0,
	"REORDER_LEAD_TIME_DAYS": 7,
}

// Load reads .env (when present) and the environment, then stores the result
// in AppConfig.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := Config{
		DatabaseURL:     v.GetString("DATABASE_URL"),
		JWTSecret:       v.GetString("JWT_SECRET"),
		Port:            v.GetString("PORT"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		CacheBackend:    strings.ToLower(strings.TrimSpace(v.GetString("CACHE_BACKEND"))),
		CacheSize:       v.GetInt("CACHE_SIZE"),
		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		WarmSchedule:    strings.TrimSpace(v.GetString("WARM_SCHEDULE")),
		WarmConcurrency: v.GetInt("WARM_CONCURRENCY"),
		GeminiAPIKey:    v.GetString("GEMINI_API_KEY"),
		GeminiModel:     v.GetString("GEMINI_MODEL"),
		OrderCost:       v.GetFloat64("EOQ_ORDER_COST"),
		HoldingCost:     v.GetFloat64("EOQ_HOLDING_COST"),
		LeadTimeDays:    v.GetInt("REORDER_LEAD_TIME_DAYS"),
	}
	if cfg.Port == "" {
		cfg.Port = "3000"
	}

	switch cfg.CacheBackend {
	case CacheMemory, CacheRedis, CacheNone:
	case "":
		cfg.CacheBackend = CacheMemory
	default:
		return Config{}, fmt.Errorf("CACHE_BACKEND must be one of memory, redis, none; got %q", cfg.CacheBackend)
	}
	if cfg.CacheBackend == CacheMemory && cfg.CacheSize <= 0 {
		return Config{}, fmt.Errorf("CACHE_SIZE must be positive, got %d", cfg.CacheSize)
	}

	AppConfig = cfg
	return cfg, nil
}

// RequireDatabase reports a missing DATABASE_URL.
func (c Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	return nil
}

// RequireJWT reports a missing JWT_SECRET.
func (c Config) RequireJWT() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	return nil
}

// AnalyticsParams converts the replenishment settings into model parameters.
// Unusable values fall back to the model defaults.
func (c Config) AnalyticsParams() analytics.Params {
	p := analytics.DefaultParams()
	p.OrderCost = c.OrderCost
	p.HoldingCost = c.HoldingCost
	p.LeadTimeDays = c.LeadTimeDays
	return p
}
