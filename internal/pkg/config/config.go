package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Env         string   `env:"NODE_ENV,        default=development"`
	LogLevel    string   `env:"LOG_LEVEL,       default=info"`
	ServiceKey  string   `env:"SERVICE_API_KEY"`
	CORSOrigins []string `env:"CORS_ORIGIN,     default=http://localhost:3000"`

	Auth      AuthConfig
	Medical   MedicalConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	Kafka     KafkaConfig
	Admin     AdminConfig
}

type AuthConfig struct {
	Port              string        `env:"AUTH_PORT,           default=5001"`
	Database          string        `env:"AUTH_MONGO_DB,       default=healthcare_auth"`
	JWTSecret         string        `env:"JWT_SECRET"`
	JWTRefreshSecret  string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL         time.Duration `env:"JWT_EXPIRE,          default=24h"`
	RefreshTTL        time.Duration `env:"JWT_REFRESH_EXPIRE,  default=168h"`
	MedicalServiceURL string        `env:"MEDICAL_SERVICE_URL, default=http://localhost:5002"`
	SyncTimeout       time.Duration `env:"PROFILE_SYNC_TIMEOUT, default=5s"`
	// CookieSecure overrides the environment based default when set.
	CookieSecure string `env:"COOKIE_SECURE"`
}

type MedicalConfig struct {
	Port           string        `env:"MEDICAL_PORT,      default=5002"`
	Database       string        `env:"MEDICAL_MONGO_DB,  default=healthcare_medical"`
	AuthServiceURL string        `env:"AUTH_SERVICE_URL,  default=http://localhost:5001"`
	VerifyTimeout  time.Duration `env:"AUTH_VERIFY_TIMEOUT, default=5s"`
	ReminderCron   string        `env:"REMINDER_CRON,     default=0 8 * * *"`
	DigestCron     string        `env:"DIGEST_CRON,       default=0 7 * * *"`
	Timezone       string        `env:"TZ_NAME,           default=UTC"`
}

type MongoConfig struct {
	URI string `env:"MONGO_URI, default=mongodb://localhost:27017"`
}

// RedisConfig is optional: an empty Addr runs without Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE, default=10"`
}

type RateLimitConfig struct {
	GeneralWindow time.Duration `env:"GENERAL_RATE_LIMIT_WINDOW, default=15m"`
	GeneralMax    int           `env:"GENERAL_RATE_LIMIT_MAX,    default=100"`
	AuthWindow    time.Duration `env:"AUTH_RATE_LIMIT_WINDOW,    default=15m"`
	AuthMax       int           `env:"AUTH_RATE_LIMIT_MAX,       default=5"`
}

type MailConfig struct {
	// Transport is one of smtp, kafka or log.
	Transport   string `env:"MAIL_TRANSPORT, default=log"`
	PortalName  string `env:"PORTAL_NAME,    default=Healthcare Portal"`
	Host        string `env:"EMAIL_HOST,     default=smtp.gmail.com"`
	Port        int    `env:"EMAIL_PORT,     default=587"`
	User        string `env:"EMAIL_USER"`
	Password    string `env:"EMAIL_PASSWORD"`
	From        string `env:"EMAIL_FROM"`
	ImplicitTLS bool   `env:"EMAIL_TLS,      default=false"`
	Workers     int    `env:"MAIL_WORKERS,   default=8"`
}

type KafkaConfig struct {
	Brokers  []string `env:"KAFKA_BROKERS,  default=localhost:9092"`
	Topic    string   `env:"KAFKA_MAIL_TOPIC, default=portal.mail"`
	GroupID  string   `env:"KAFKA_GROUP_ID, default=portal-mail-worker"`
	Username string   `env:"KAFKA_USERNAME"`
	Password string   `env:"KAFKA_PASSWORD"`
}

type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL,    default=admin@healthcare.com"`
	Password string `env:"ADMIN_PASSWORD"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith processes configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: process environment: %w", err)
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

// SecureCookies reports whether session cookies carry the Secure flag.
func (c *Config) SecureCookies() bool {
	if v, err := strconv.ParseBool(c.Auth.CookieSecure); err == nil {
		return v
	}
	return c.Env != "development" && c.Env != "test"
}

// Location resolves the timezone used for day boundaries.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Medical.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Medical.Timezone, err)
	}
	return loc, nil
}

// ValidateAuth checks the settings the auth service cannot start without.
func (c *Config) ValidateAuth() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.JWTRefreshSecret == "" {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET is required"))
	}
	if c.Auth.JWTSecret != "" && c.Auth.JWTSecret == c.Auth.JWTRefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}
	if c.ServiceKey == "" && c.IsProduction() {
		errs = append(errs, errors.New("SERVICE_API_KEY is required in production"))
	}
	return errors.Join(append(errs, c.validateMail())...)
}

// ValidateMedical checks the settings the medical service cannot start without.
func (c *Config) ValidateMedical() error {
	var errs []error
	if c.ServiceKey == "" {
		errs = append(errs, errors.New("SERVICE_API_KEY is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(append(errs, c.validateMail())...)
}

func (c *Config) validateMail() error {
	switch c.Mail.Transport {
	case "log", "kafka":
		return nil
	case "smtp":
		if c.Mail.User == "" || c.Mail.Password == "" {
			return errors.New("EMAIL_USER and EMAIL_PASSWORD are required for the smtp transport")
		}
		return nil
	default:
		return fmt.Errorf("MAIL_TRANSPORT %q is not one of smtp, kafka, log", c.Mail.Transport)
	}
}
