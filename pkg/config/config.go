package config

import (
	"errors"
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
	Timezone  string
	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	Gate      GateConfig
	Remote    RemoteConfig
	List      ListConfig
	LiveCount LiveCountConfig
	Audit     AuditConfig
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

// SessionConfig controls the signed tokens identifying dashboard sessions.
type SessionConfig struct {
	Secret   string
	TTL      time.Duration
	Issuer   string
	Janitor  time.Duration
	MaxCount int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// GateConfig configures the basic-auth gate in front of the console.
type GateConfig struct {
	Username          string
	Password          string
	HealthCheckMarker string
	ExcludedPrefixes  []string
	Realm             string
	RatePerSecond     float64
	RateBurst         int
}

// RemoteConfig points at the remote list service.
type RemoteConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ListConfig tunes list screen behaviour.
type ListConfig struct {
	PerPage        int
	SearchDebounce time.Duration
}

// LiveCountConfig names the pub/sub channel carrying live counts.
type LiveCountConfig struct {
	Enabled bool
	Channel string
}

// AuditConfig toggles persistence of applied dashboard intents.
type AuditConfig struct {
	Enabled bool
	Workers int
}

// IsProduction reports whether the runtime mode flag is production.
func (c *Config) IsProduction() bool {
	return c != nil && c.Env == EnvProduction
}

// Location resolves the configured timezone, falling back to the local zone.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
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
	cfg.Timezone = v.GetString("TIMEZONE")

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

	cfg.Session = SessionConfig{
		Secret:   v.GetString("JWT_SECRET"),
		TTL:      parseDuration(v.GetString("SESSION_TTL"), 30*time.Minute),
		Issuer:   v.GetString("SESSION_ISSUER"),
		Janitor:  parseDuration(v.GetString("SESSION_JANITOR_INTERVAL"), time.Minute),
		MaxCount: v.GetInt("SESSION_MAX_COUNT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Gate = GateConfig{
		Username:          v.GetString("GATE_USERNAME"),
		Password:          v.GetString("GATE_PASSWORD"),
		HealthCheckMarker: v.GetString("GATE_HEALTHCHECK_MARKER"),
		ExcludedPrefixes:  splitAndTrim(v.GetString("GATE_EXCLUDED_PREFIXES")),
		Realm:             v.GetString("GATE_REALM"),
		RatePerSecond:     v.GetFloat64("GATE_RATE_PER_SEC"),
		RateBurst:         v.GetInt("GATE_RATE_BURST"),
	}

	cfg.Remote = RemoteConfig{
		BaseURL: strings.TrimRight(v.GetString("REMOTE_BASE_URL"), "/"),
		Token:   v.GetString("REMOTE_TOKEN"),
		Timeout: parseDuration(v.GetString("REMOTE_TIMEOUT"), 10*time.Second),
	}

	perPage := v.GetInt("LIST_PER_PAGE")
	if perPage <= 0 {
		perPage = 15
	}
	cfg.List = ListConfig{
		PerPage:        perPage,
		SearchDebounce: parseDuration(v.GetString("SEARCH_DEBOUNCE"), 300*time.Millisecond),
	}

	cfg.LiveCount = LiveCountConfig{
		Enabled: v.GetBool("ENABLE_LIVE_COUNT"),
		Channel: v.GetString("LIVE_COUNT_CHANNEL"),
	}

	cfg.Audit = AuditConfig{
		Enabled: v.GetBool("ENABLE_AUDIT"),
		Workers: v.GetInt("AUDIT_WORKERS"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("TIMEZONE", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "admin_console")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("SESSION_TTL", "30m")
	v.SetDefault("SESSION_ISSUER", "admin-console")
	v.SetDefault("SESSION_JANITOR_INTERVAL", "1m")
	v.SetDefault("SESSION_MAX_COUNT", 1000)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("GATE_USERNAME", "")
	v.SetDefault("GATE_PASSWORD", "")
	v.SetDefault("GATE_HEALTHCHECK_MARKER", "ELB-HealthChecker")
	v.SetDefault("GATE_EXCLUDED_PREFIXES", "/api/,/_next/,/favicon.ico")
	v.SetDefault("GATE_REALM", "Secure Area")
	v.SetDefault("GATE_RATE_PER_SEC", 1)
	v.SetDefault("GATE_RATE_BURST", 5)

	v.SetDefault("REMOTE_BASE_URL", "http://localhost:3000/api")
	v.SetDefault("REMOTE_TOKEN", "")
	v.SetDefault("REMOTE_TIMEOUT", "10s")

	v.SetDefault("LIST_PER_PAGE", 15)
	v.SetDefault("SEARCH_DEBOUNCE", "300ms")

	v.SetDefault("ENABLE_LIVE_COUNT", false)
	v.SetDefault("LIVE_COUNT_CHANNEL", "console:live:user_count")

	v.SetDefault("ENABLE_AUDIT", false)
	v.SetDefault("AUDIT_WORKERS", 1)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
