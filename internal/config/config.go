package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Session      SessionConfig
	Intake       IntakeConfig
	WhatsApp     WhatsAppConfig
	Email        EmailConfig
	Storage      StorageConfig
	RateLimit    RateLimitConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	CORSOrigin            string
	BodyLimitBytes        int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. ClientName and KeyPrefix let several
// deployments share one Redis without colliding.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	ClientName string
	KeyPrefix  string
}

// LoggerConfig configures logging behavior. Service and Env are stamped on every entry.
type LoggerConfig struct {
	Level   string
	Service string
	Env     string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	AllowDefaultAdmin     bool
}

// SessionConfig selects and tunes the chat session store.
type SessionConfig struct {
	Backend          string
	TTLMinutes       int
	SweepIntervalSec int
}

// IntakeConfig bounds complaint submission.
type IntakeConfig struct {
	MaxPhotoBytes int
	TicketRetries int
}

// WhatsAppConfig holds Twilio messaging credentials.
type WhatsAppConfig struct {
	AccountSID         string
	AuthToken          string
	FromNumber         string
	CountryCode        string
	APIBaseURL         string
	TimeoutSeconds     int
	BreakerFailures    int
	BreakerOpenSeconds int
}

// EmailConfig holds SMTP settings for citizen email notifications.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// StorageConfig points at an optional MinIO bucket for complaint photos.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RateLimitConfig caps requests per client IP within a window.
type RateLimitConfig struct {
	WindowMinutes int
	Global        int
	Submit        int
	Track         int
	Login         int
}

// NotificationConfig sizes the notification worker.
type NotificationConfig struct {
	Workers   int
	QueueSize int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))
	appName := getEnv("APP_NAME", "grievance-service")
	appEnv := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  appName,
			Env:                   appEnv,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "5000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			CORSOrigin:            getEnv("CORS_ORIGIN", "http://localhost:3000"),
			BodyLimitBytes:        getEnvAsInt("HTTP_BODY_LIMIT_BYTES", 10*1024*1024),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:         redisDB,
			ClientName: getEnv("REDIS_CLIENT_NAME", appName),
			KeyPrefix:  getEnv("REDIS_KEY_PREFIX", "grievance:"),
		},
		Logger: LoggerConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Service: appName,
			Env:     appEnv,
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 24*60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
			AllowDefaultAdmin:     getEnvAsBool("AUTH_ALLOW_DEFAULT_ADMIN", false),
		},
		Session: SessionConfig{
			Backend:          strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			TTLMinutes:       getEnvAsInt("SESSION_TTL_MINUTES", 30),
			SweepIntervalSec: getEnvAsInt("SESSION_SWEEP_INTERVAL_SECONDS", 60),
		},
		Intake: IntakeConfig{
			MaxPhotoBytes: getEnvAsInt("INTAKE_MAX_PHOTO_BYTES", 5*1024*1024),
			TicketRetries: getEnvAsInt("INTAKE_TICKET_RETRIES", 5),
		},
		WhatsApp: WhatsAppConfig{
			AccountSID:         os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:          os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber:         os.Getenv("TWILIO_WHATSAPP_NUMBER"),
			CountryCode:        getEnv("WHATSAPP_COUNTRY_CODE", "+91"),
			APIBaseURL:         getEnv("TWILIO_API_BASE_URL", "https://api.twilio.com"),
			TimeoutSeconds:     getEnvAsInt("TWILIO_TIMEOUT_SECONDS", 10),
			BreakerFailures:    getEnvAsInt("TWILIO_BREAKER_FAILURES", 5),
			BreakerOpenSeconds: getEnvAsInt("TWILIO_BREAKER_OPEN_SECONDS", 30),
		},
		Email: EmailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "noreply@grievance.local"),
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "complaint-photos"),
			UseSSL:    getEnvAsBool("MINIO_USE_SSL", false),
		},
		RateLimit: RateLimitConfig{
			WindowMinutes: getEnvAsInt("RATE_LIMIT_WINDOW_MINUTES", 15),
			Global:        getEnvAsInt("RATE_LIMIT_GLOBAL", 100),
			Submit:        getEnvAsInt("RATE_LIMIT_SUBMIT", 3),
			Track:         getEnvAsInt("RATE_LIMIT_TRACK", 20),
			Login:         getEnvAsInt("RATE_LIMIT_LOGIN", 5),
		},
		Notification: NotificationConfig{
			Workers:   getEnvAsInt("NOTIFY_WORKERS", 2),
			QueueSize: getEnvAsInt("NOTIFY_QUEUE_SIZE", 256),
		},
	}

	switch cfg.Session.Backend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q", cfg.Session.Backend)
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// IsDevelopment reports whether the service runs in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

// TTL returns the idle lifetime of a chat session.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.TTLMinutes) * time.Minute
}

// SweepInterval returns how often expired in-memory sessions are purged.
func (s SessionConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSec <= 0 {
		return time.Minute
	}
	return time.Duration(s.SweepIntervalSec) * time.Second
}

// Enabled reports whether Twilio credentials are present.
func (w WhatsAppConfig) Enabled() bool {
	return w.AccountSID != "" && w.AuthToken != "" && w.FromNumber != ""
}

// Enabled reports whether an SMTP relay is configured.
func (e EmailConfig) Enabled() bool {
	return e.Host != ""
}

// Enabled reports whether MinIO photo storage is configured.
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != "" && s.AccessKey != "" && s.SecretKey != ""
}

// Window returns the rate-limit window.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(r.WindowMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
