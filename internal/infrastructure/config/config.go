package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Log          LogConfig
	HTTP         HTTPConfig
	Auth         AuthConfig
	Lock         LockConfig
	Notification NotificationConfig
	Finance      FinanceConfig
	Telemetry    TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Port    string
	Version string
}

// IsProduction reports whether the app runs with production safeguards
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite, memory
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// AuthConfig holds actor resolution settings. Tokens are issued elsewhere;
// this service only verifies them.
type AuthConfig struct {
	JWTSecret         string
	Issuer            string
	DevHeaderFallback bool // accept X-User-ID / X-User-Role headers
}

// Lock backends
const (
	LockBackendMemory = "memory"
	LockBackendRedis  = "redis"
)

// LockConfig holds owner lock settings
type LockConfig struct {
	Backend        string // memory, redis
	KeyPrefix      string
	TTL            time.Duration
	AcquireTimeout time.Duration
	RetryInterval  time.Duration
}

// NotificationConfig holds the outbound transition notification settings
type NotificationConfig struct {
	Enabled      bool
	Stream       string
	StreamMaxLen int64
}

// FinanceConfig holds money settings
type FinanceConfig struct {
	DefaultCurrency string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	MetricsEnabled    bool
	CollectorEndpoint string  // OTEL Collector gRPC endpoint
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // non-TLS collector connection (development only)
	MetricsInterval   time.Duration
	DBTracing         bool // gorm spans; only effective with Enabled
	SlowQueryThresh   time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with PH_ prefix (e.g., PH_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("PH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Port:    v.GetString("app.port"),
			Version: v.GetString("app.version"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(v.GetString("database.driver")),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Auth: AuthConfig{
			JWTSecret:         v.GetString("auth.jwt_secret"),
			Issuer:            v.GetString("auth.issuer"),
			DevHeaderFallback: v.GetBool("auth.dev_header_fallback"),
		},
		Lock: LockConfig{
			Backend:        strings.ToLower(v.GetString("lock.backend")),
			KeyPrefix:      v.GetString("lock.key_prefix"),
			TTL:            v.GetDuration("lock.ttl"),
			AcquireTimeout: v.GetDuration("lock.acquire_timeout"),
			RetryInterval:  v.GetDuration("lock.retry_interval"),
		},
		Notification: NotificationConfig{
			Enabled:      v.GetBool("notification.enabled"),
			Stream:       v.GetString("notification.stream"),
			StreamMaxLen: v.GetInt64("notification.stream_max_len"),
		},
		Finance: FinanceConfig{
			DefaultCurrency: strings.ToUpper(v.GetString("finance.default_currency")),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			DBTracing:         v.GetBool("telemetry.db_tracing"),
			SlowQueryThresh:   v.GetDuration("telemetry.slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "payout-service"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverPostgres
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "propertyhub"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "file::memory:?cache=shared"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	// CORS origins get no wildcard fallback; an empty list allows none.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "X-User-ID", "X-User-Role"}
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "propertyhub"
	}
	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = LockBackendMemory
	}
	if cfg.Lock.KeyPrefix == "" {
		cfg.Lock.KeyPrefix = "payout:owner-lock:"
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = 10 * time.Second
	}
	if cfg.Lock.AcquireTimeout == 0 {
		cfg.Lock.AcquireTimeout = 5 * time.Second
	}
	if cfg.Lock.RetryInterval == 0 {
		cfg.Lock.RetryInterval = 25 * time.Millisecond
	}
	if cfg.Notification.Stream == "" {
		cfg.Notification.Stream = "payout:notifications"
	}
	if cfg.Notification.StreamMaxLen == 0 {
		cfg.Notification.StreamMaxLen = 100000
	}
	if cfg.Finance.DefaultCurrency == "" {
		cfg.Finance.DefaultCurrency = "USD"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
	if cfg.Telemetry.SlowQueryThresh == 0 {
		cfg.Telemetry.SlowQueryThresh = 200 * time.Millisecond
	}
}

// Validate checks the configuration for inconsistent or unsafe settings
func (c *Config) Validate() error {
	if !slices.Contains([]string{DriverPostgres, DriverSQLite, DriverMemory}, c.Database.Driver) {
		return fmt.Errorf("database.driver must be one of postgres, sqlite, memory, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if !slices.Contains([]string{LockBackendMemory, LockBackendRedis}, c.Lock.Backend) {
		return fmt.Errorf("lock.backend must be memory or redis, got %q", c.Lock.Backend)
	}
	if c.Lock.AcquireTimeout > c.Lock.TTL {
		return fmt.Errorf("lock.acquire_timeout (%s) cannot exceed lock.ttl (%s)", c.Lock.AcquireTimeout, c.Lock.TTL)
	}
	if len(c.Finance.DefaultCurrency) != 3 {
		return fmt.Errorf("finance.default_currency must be a 3-letter code, got %q", c.Finance.DefaultCurrency)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.IsProduction() {
		if c.Auth.DevHeaderFallback {
			return fmt.Errorf("auth.dev_header_fallback must be false in production")
		}
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters in production")
		}
		if c.Database.Driver != DriverPostgres {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		// Payout admission relies on the owner lock being shared by every replica.
		if c.Lock.Backend != LockBackendRedis {
			return fmt.Errorf("lock.backend must be redis in production")
		}
		if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
			return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
