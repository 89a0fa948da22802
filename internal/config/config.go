package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/contactsbook/pkg/config"
)

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Avatar storage backends.
const (
	AvatarBackendMemory     = "memory"
	AvatarBackendS3         = "s3"
	AvatarBackendCloudinary = "cloudinary"
)

// Config holds all configuration for the contacts book service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`

	// HTTP server
	HTTPPort           int           `env:"HTTP_PORT" envDefault:"8000"`
	HTTPReadTimeout    time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	HTTPWriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	HTTPMaxUploadBytes int64         `env:"HTTP_MAX_UPLOAD_BYTES" envDefault:"5242880"`

	// PostgreSQL
	PostgresHost          string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort          int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser          string        `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPass          string        `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB            string        `env:"POSTGRES_DB" envDefault:"contacts_book"`
	PostgresSSL           string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns            int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime     time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	DBMaxConnIdleTime     time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBSlowQueryThreshold  time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"200ms"`
	DBMigrationsOnStartup bool          `env:"DB_MIGRATIONS_ON_STARTUP" envDefault:"true"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTAlgorithm     string        `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`
	JWTEmailExpiry   time.Duration `env:"JWT_EMAIL_EXPIRY" envDefault:"1h"`
	BcryptCost       int           `env:"BCRYPT_COST" envDefault:"12"`

	// Redis backs the rate limiter; when disabled an in-process limiter is used.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Rate limiting
	RateLimitEnabled     bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitReadTimes   int           `env:"RATE_LIMIT_READ_TIMES" envDefault:"10"`
	RateLimitReadWindow  time.Duration `env:"RATE_LIMIT_READ_WINDOW" envDefault:"60s"`
	RateLimitWriteTimes  int           `env:"RATE_LIMIT_WRITE_TIMES" envDefault:"10"`
	RateLimitWriteWindow time.Duration `env:"RATE_LIMIT_WRITE_WINDOW" envDefault:"30s"`

	// Proxies allowed to name the client via X-Forwarded-For / X-Real-IP.
	TrustedProxyCIDRs []string `env:"TRUSTED_PROXY_CIDRS" envSeparator:","`

	// SMTP
	SMTPEnabled  bool          `env:"SMTP_ENABLED" envDefault:"false"`
	SMTPHost     string        `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort     int           `env:"SMTP_PORT" envDefault:"465"`
	SMTPUsername string        `env:"SMTP_USERNAME" envDefault:""`
	SMTPPassword string        `env:"SMTP_PASSWORD" envDefault:""`
	SMTPFrom     string        `env:"SMTP_FROM" envDefault:"noreply@contacts.local"`
	SMTPFromName string        `env:"SMTP_FROM_NAME" envDefault:"Contacts book"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	MailWorkers  int           `env:"MAIL_WORKERS" envDefault:"2"`
	MailQueue    int           `env:"MAIL_QUEUE_SIZE" envDefault:"100"`

	// Avatar storage. PublicBaseURL prefixes in-memory avatar URLs and
	// defaults to http://localhost:<HTTP_PORT>.
	AvatarBackend string `env:"AVATAR_BACKEND" envDefault:"memory"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:""`

	S3Region          string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket          string `env:"S3_BUCKET" envDefault:"contacts-book"`
	S3Endpoint        string `env:"S3_ENDPOINT" envDefault:""`
	S3PublicURL       string `env:"S3_PUBLIC_URL" envDefault:""`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID" envDefault:""`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY" envDefault:""`
	S3UsePathStyle    bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME" envDefault:""`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY" envDefault:""`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET" envDefault:""`
	CloudinaryBaseURL   string `env:"CLOUDINARY_BASE_URL" envDefault:"https://api.cloudinary.com"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// pprof
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.1/32,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load contacts book config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	var errs []error

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port: %d", c.HTTPPort))
	}
	if c.JWTAlgorithm != "HS256" {
		errs = append(errs, fmt.Errorf("unsupported JWT_ALGORITHM %q: only HS256 is supported", c.JWTAlgorithm))
	}
	if c.JWTAccessExpiry <= 0 || c.JWTRefreshExpiry <= 0 || c.JWTEmailExpiry <= 0 {
		errs = append(errs, errors.New("JWT expiries must be positive"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost))
	}
	if c.MailWorkers < 1 || c.MailQueue < 1 {
		errs = append(errs, errors.New("MAIL_WORKERS and MAIL_QUEUE_SIZE must be at least 1"))
	}
	if c.RateLimitReadTimes < 1 || c.RateLimitWriteTimes < 1 ||
		c.RateLimitReadWindow <= 0 || c.RateLimitWriteWindow <= 0 {
		errs = append(errs, errors.New("rate limit times and windows must be positive"))
	}

	switch c.AvatarBackend {
	case AvatarBackendMemory:
	case AvatarBackendS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 avatar backend"))
		}
	case AvatarBackendCloudinary:
		if c.CloudinaryCloudName == "" || c.CloudinaryAPIKey == "" || c.CloudinaryAPISecret == "" {
			errs = append(errs, errors.New("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary avatar backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AVATAR_BACKEND %q", c.AvatarBackend))
	}

	// Outside development an explicit, strong JWT secret is required.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment))
		} else if len(c.JWTSecret) < 32 {
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret)))
		}
	}

	return errors.Join(errs...)
}

// MediaBaseURL returns the base URL the in-memory avatar store links to.
func (c *Config) MediaBaseURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.HTTPPort)
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
