package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/jwalitptl/admin-dashboard/pkg/messaging/redis"
	"github.com/jwalitptl/admin-dashboard/pkg/validator"
)

// EnvPrefix scopes environment overrides, e.g. DASHBOARD_REMOTE_BASE_URL.
// Field names are split on word boundaries to build the variable name.
const EnvPrefix = "dashboard"

type Config struct {
	Server    ServerConfig    `mapstructure:"server" split_words:"true"`
	Remote    RemoteConfig    `mapstructure:"remote" split_words:"true"`
	Location  LocationConfig  `mapstructure:"location" split_words:"true"`
	Auth      AuthConfig      `mapstructure:"auth" split_words:"true"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" split_words:"true"`
	CORS      CORSConfig      `mapstructure:"cors" split_words:"true"`
	Redis     RedisConfig     `mapstructure:"redis" split_words:"true"`
	Alert     AlertConfig     `mapstructure:"alert" split_words:"true"`
	Refresh   RefreshConfig   `mapstructure:"refresh" split_words:"true"`
	Log       LogConfig       `mapstructure:"log" split_words:"true"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port" split_words:"true" validate:"min=1,max=65535"`
	Mode string `mapstructure:"mode" split_words:"true" validate:"oneof=debug release test"`
}

type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url" split_words:"true" validate:"required,url"`
	// Timeout of zero leaves backend calls unbounded.
	Timeout           time.Duration `mapstructure:"timeout" split_words:"true"`
	EnrichConcurrency int           `mapstructure:"enrich_concurrency" split_words:"true" validate:"min=1"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" split_words:"true"`
	CacheCleanup      time.Duration `mapstructure:"cache_cleanup" split_words:"true"`
	Breaker           BreakerConfig `mapstructure:"breaker" split_words:"true"`
	Paths             PathsConfig   `mapstructure:"paths" split_words:"true"`
}

type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled" split_words:"true"`
	MaxFailures uint32        `mapstructure:"max_failures" split_words:"true"`
	Interval    time.Duration `mapstructure:"interval" split_words:"true"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" split_words:"true"`
}

// PathsConfig holds backend routes; "{id}" is replaced with the escaped identifier.
type PathsConfig struct {
	Appointments     string `mapstructure:"appointments" split_words:"true" validate:"required"`
	Appointment      string `mapstructure:"appointment" split_words:"true" validate:"required"`
	Doctors          string `mapstructure:"doctors" split_words:"true" validate:"required"`
	Doctor           string `mapstructure:"doctor" split_words:"true" validate:"required"`
	Patient          string `mapstructure:"patient" split_words:"true" validate:"required"`
	SaveNotification string `mapstructure:"save_notification" split_words:"true" validate:"required"`
	SendSMS          string `mapstructure:"send_sms" split_words:"true" validate:"required"`
	DoctorImage      string `mapstructure:"doctor_image" split_words:"true" validate:"required"`
	PatientImage     string `mapstructure:"patient_image" split_words:"true" validate:"required"`
}

// LocationConfig is the fixed zone appointment times and notification stamps are rendered in.
type LocationConfig struct {
	Name          string `mapstructure:"name" split_words:"true" validate:"required"`
	OffsetMinutes int    `mapstructure:"offset_minutes" split_words:"true" validate:"min=-720,max=840"`
}

type AuthConfig struct {
	// Authentication is off when Secret is empty.
	Secret   string        `mapstructure:"secret" split_words:"true"`
	Issuer   string        `mapstructure:"issuer" split_words:"true"`
	TokenTTL time.Duration `mapstructure:"token_ttl" split_words:"true"`
}

func (a AuthConfig) Enabled() bool { return a.Secret != "" }

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled" split_words:"true"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" split_words:"true"`
	Burst             int     `mapstructure:"burst" split_words:"true"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" split_words:"true"`
	AllowedMethods []string `mapstructure:"allowed_methods" split_words:"true"`
	AllowedHeaders []string `mapstructure:"allowed_headers" split_words:"true"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled" split_words:"true"`
	URL          string        `mapstructure:"url" split_words:"true" validate:"required_if=Enabled true"`
	Channel      string        `mapstructure:"channel" split_words:"true"`
	PoolSize     int           `mapstructure:"pool_size" split_words:"true"`
	MinIdleConns int           `mapstructure:"min_idle_conns" split_words:"true"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" split_words:"true"`
}

func (c RedisConfig) ToBrokerConfig() redis.Config {
	return redis.Config{
		URL:          c.URL,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
		DialTimeout:  c.DialTimeout,
	}
}

// AlertConfig controls the staff e-mail raised when a patient SMS could not be sent.
type AlertConfig struct {
	Enabled  bool     `mapstructure:"enabled" split_words:"true"`
	Host     string   `mapstructure:"host" split_words:"true" validate:"required_if=Enabled true"`
	Port     int      `mapstructure:"port" split_words:"true"`
	Username string   `mapstructure:"username" split_words:"true"`
	Password string   `mapstructure:"password" split_words:"true"`
	From     string   `mapstructure:"from" split_words:"true" validate:"required_if=Enabled true"`
	To       []string `mapstructure:"to" split_words:"true"`
}

type RefreshConfig struct {
	// Schedule is a cron spec; empty disables periodic resync.
	Schedule string `mapstructure:"schedule" split_words:"true"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" split_words:"true"`
	Format string `mapstructure:"format" split_words:"true" validate:"omitempty,oneof=console json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")

	v.SetDefault("remote.base_url", "http://localhost:8080")
	v.SetDefault("remote.timeout", 0)
	v.SetDefault("remote.enrich_concurrency", 8)
	v.SetDefault("remote.cache_ttl", time.Minute)
	v.SetDefault("remote.cache_cleanup", 5*time.Minute)
	v.SetDefault("remote.breaker.enabled", true)
	v.SetDefault("remote.breaker.max_failures", 5)
	v.SetDefault("remote.breaker.interval", time.Minute)
	v.SetDefault("remote.breaker.open_timeout", 30*time.Second)
	v.SetDefault("remote.paths.appointments", "/api/appointments/getAppointments")
	v.SetDefault("remote.paths.appointment", "/api/appointments/{id}")
	v.SetDefault("remote.paths.doctors", "/api/doctors/getDoctor")
	v.SetDefault("remote.paths.doctor", "/api/doctors/{id}")
	v.SetDefault("remote.paths.patient", "/api/patient/{id}")
	v.SetDefault("remote.paths.save_notification", "/api/notification/saveNotification")
	v.SetDefault("remote.paths.send_sms", "/api/v1/sms/send")
	v.SetDefault("remote.paths.doctor_image", "/api/doctors/image/{id}")
	v.SetDefault("remote.paths.patient_image", "/api/patient/image/{id}")

	v.SetDefault("location.name", "IST")
	v.SetDefault("location.offset_minutes", 330)

	v.SetDefault("auth.issuer", "clinic-dashboard")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 20)
	v.SetDefault("rate_limit.burst", 40)

	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})

	v.SetDefault("redis.channel", "dashboard.appointments")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("alert.port", 587)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads configuration from an optional .env file, a YAML config file and
// DASHBOARD_* environment variables, in increasing precedence. When file is
// empty the usual locations are searched and a missing file is not an error.
func Load(file string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := validator.New().Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
