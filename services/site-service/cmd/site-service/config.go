package main

import (
	"fmt"
	"time"

	"github.com/lbsconnect/examcenter/libs/config"
)

type Config struct {
	ServiceName string
	Port        string
	SiteURL     string

	DatabaseURL string
	DBMaxConns  int
	RedisURL    string

	KafkaBrokers string

	Timezone          string
	BusinessHoursFile string

	StripeSecretKey        string
	StripePublishableKey   string
	StripeWebhookSecret    string
	StripeWebhookTolerance time.Duration
	CatalogCacheTTL        time.Duration

	ResendAPIKey string
	EmailFrom    string
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string

	InternalEmail   string
	BusinessName    string
	BusinessAddress string

	NotifyWorkers     int
	NotifyQueueSize   int
	NotifySendTimeout time.Duration

	RemindersEnabled bool
	ReminderSchedule string

	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         string
	AdminTokenTTL     time.Duration

	CORSOrigins    []string
	RateLimit      int
	RateWindow     time.Duration
	BodyLimitBytes int64
	RequestTimeout time.Duration
}

func loadConfig() (Config, error) {
	port, err := config.Port("PORT", "5000")
	if err != nil {
		return Config{}, err
	}
	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		ServiceName: config.String("SERVICE_NAME", "site-service"),
		Port:        port,
		SiteURL:     config.String("SITE_URL", ""),

		DatabaseURL: dbURL,
		DBMaxConns:  config.Int("DB_MAX_CONNS", 10),
		RedisURL:    config.String("REDIS_URL", ""),

		KafkaBrokers: config.String("KAFKA_BROKERS", ""),

		Timezone:          config.String("BUSINESS_TIMEZONE", "America/Chicago"),
		BusinessHoursFile: config.String("BUSINESS_HOURS_FILE", ""),

		StripeSecretKey:        config.String("STRIPE_SECRET_KEY", ""),
		StripePublishableKey:   config.String("STRIPE_PUBLISHABLE_KEY", ""),
		StripeWebhookSecret:    config.String("STRIPE_WEBHOOK_SECRET", ""),
		StripeWebhookTolerance: config.Duration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
		CatalogCacheTTL:        config.Duration("CATALOG_CACHE_TTL", 5*time.Minute),

		ResendAPIKey: config.String("RESEND_API_KEY", ""),
		EmailFrom:    config.String("EMAIL_FROM", ""),
		SMTPHost:     config.String("SMTP_HOST", ""),
		SMTPPort:     config.String("SMTP_PORT", "587"),
		SMTPUser:     config.String("SMTP_USER", ""),
		SMTPPassword: config.String("SMTP_PASSWORD", ""),

		InternalEmail:   config.String("INTERNAL_EMAIL", ""),
		BusinessName:    config.String("BUSINESS_NAME", ""),
		BusinessAddress: config.String("BUSINESS_ADDRESS", ""),

		NotifyWorkers:     config.Int("NOTIFY_WORKERS", 2),
		NotifyQueueSize:   config.Int("NOTIFY_QUEUE_SIZE", 100),
		NotifySendTimeout: config.Duration("NOTIFY_SEND_TIMEOUT", 15*time.Second),

		RemindersEnabled: config.Bool("REMINDERS_ENABLED", true),
		ReminderSchedule: config.String("REMINDER_SCHEDULE", "0 17 * * *"),

		AdminEmail:        config.String("ADMIN_EMAIL", ""),
		AdminPasswordHash: config.String("ADMIN_PASSWORD_HASH", ""),
		JWTSecret:         config.String("JWT_SECRET", ""),
		AdminTokenTTL:     config.Duration("ADMIN_TOKEN_TTL", 12*time.Hour),

		CORSOrigins:    config.List("CORS_ALLOWED_ORIGINS"),
		RateLimit:      config.Int("FORM_RATE_LIMIT", 20),
		RateWindow:     config.Duration("FORM_RATE_WINDOW", 15*time.Minute),
		BodyLimitBytes: int64(config.Int("HTTP_BODY_LIMIT_BYTES", 1<<20)),
		RequestTimeout: config.Duration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
	}
	if cfg.AdminPasswordHash != "" && cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required when ADMIN_PASSWORD_HASH is set")
	}
	return cfg, nil
}
