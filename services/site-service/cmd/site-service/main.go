package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/lbsconnect/examcenter/libs/config"
	"github.com/lbsconnect/examcenter/libs/db"
	"github.com/lbsconnect/examcenter/libs/httpx"
	"github.com/lbsconnect/examcenter/libs/kafkax"
	otelx "github.com/lbsconnect/examcenter/libs/otel"
	"github.com/lbsconnect/examcenter/libs/runtime"
	"github.com/lbsconnect/examcenter/services/site-service/internal/booking"
	"github.com/lbsconnect/examcenter/services/site-service/internal/catalog"
	"github.com/lbsconnect/examcenter/services/site-service/internal/email"
	"github.com/lbsconnect/examcenter/services/site-service/internal/handlers"
	"github.com/lbsconnect/examcenter/services/site-service/internal/hours"
	"github.com/lbsconnect/examcenter/services/site-service/internal/idempotency"
	"github.com/lbsconnect/examcenter/services/site-service/internal/metrics"
	"github.com/lbsconnect/examcenter/services/site-service/internal/notify"
	"github.com/lbsconnect/examcenter/services/site-service/internal/outbox"
	"github.com/lbsconnect/examcenter/services/site-service/internal/payments"
	"github.com/lbsconnect/examcenter/services/site-service/internal/reminders"
	"github.com/lbsconnect/examcenter/services/site-service/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := loadConfig()
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(cfg.ServiceName)

	ctx, stop := runtime.SignalContext(logger)
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(cfg.ServiceName))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}
	metrics.Register()

	policy, err := loadPolicy(cfg)
	if err != nil {
		logger.Error("business hours invalid", "err", err)
		panic(err)
	}

	pool, err := db.Open(ctx, cfg.DatabaseURL, db.Options{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			panic(err)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
	} else {
		logger.Warn("redis not configured; catalog cache and webhook dedupe disabled")
	}

	stripeClient := payments.NewStripe(cfg.StripeSecretKey, cfg.StripePublishableKey, nil)
	if !stripeClient.Configured() {
		logger.Warn("stripe not configured; catalog and checkout unavailable")
	}

	dispatcher := notify.NewDispatcher(logger, notify.DispatcherConfig{
		Workers:     cfg.NotifyWorkers,
		QueueSize:   cfg.NotifyQueueSize,
		SendTimeout: cfg.NotifySendTimeout,
	})
	// Stopped only after the HTTP server has finished in-flight requests.
	dispatchCtx, stopDispatch := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDispatch()
	dispatcherDone := make(chan struct{})
	go func() {
		dispatcher.Run(dispatchCtx)
		close(dispatcherDone)
	}()
	notifier := notify.New(newSender(cfg, logger), dispatcher, notify.Config{
		InternalEmail: cfg.InternalEmail,
		BusinessName:  cfg.BusinessName,
		Address:       cfg.BusinessAddress,
		Location:      policy.Location(),
	}, logger)

	appointments := storage.NewAppointmentRepository(pool)
	contacts := storage.NewContactRepository(pool)

	var checkout booking.Checkout
	if stripeClient.Configured() {
		checkout = stripeClient
	}
	bookingSvc := booking.NewService(appointments, checkout, notifier, logger, booking.Config{Policy: policy})
	catalogSvc := catalog.New(stripeClient, rdb, cfg.CatalogCacheTTL, logger)

	publisher := outbox.NewPublisher(pool, logger, outbox.PublisherConfig{
		Brokers:   cfg.KafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go publisher.Run(ctx)

	if cfg.RemindersEnabled {
		job := reminders.New(appointments, notifier, logger, reminders.Config{
			Schedule:    cfg.ReminderSchedule,
			Location:    policy.Location(),
			SendTimeout: cfg.NotifySendTimeout,
		})
		go func() {
			if err := job.Run(ctx); err != nil {
				logger.Error("reminder job stopped", "err", err)
			}
		}()
	}

	h := handlers.New(handlers.Deps{
		Appointments: bookingSvc,
		Catalog:      catalogSvc,
		Payments:     stripeClient,
		Contacts:     contacts,
		Notifier:     notifier,
		Events:       idempotency.NewGuard(rdb, "stripe:evt", idempotency.DefaultTTL),
	}, handlers.Config{
		SiteURL:                cfg.SiteURL,
		StripeWebhookSecret:    cfg.StripeWebhookSecret,
		StripeWebhookTolerance: cfg.StripeWebhookTolerance,
		AdminEmail:             cfg.AdminEmail,
		AdminPasswordHash:      cfg.AdminPasswordHash,
		JWTSecret:              cfg.JWTSecret,
		AdminTokenTTL:          cfg.AdminTokenTTL,
	}, logger)

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(pool)}}
	if rdb != nil {
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if publisher.Enabled() {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("GET /metrics", promhttp.Handler())
	h.Register(mux, formLimiter(cfg, rdb, logger))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type", httpx.RequestIDHeader},
			ExposedHeaders: []string{httpx.RequestIDHeader, "Retry-After"},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithBodyLimit(cfg.BodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "site")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	stopDispatch()
	select {
	case <-dispatcherDone:
	case <-shutdownCtx.Done():
		logger.Warn("notification queue not drained before shutdown")
	}
	logger.Info("http server stopped")
}

func loadPolicy(cfg Config) (hours.Policy, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return hours.Policy{}, err
	}
	if cfg.BusinessHoursFile == "" {
		return hours.Default(loc), nil
	}
	return hours.Load(cfg.BusinessHoursFile, loc)
}

func newSender(cfg Config, logger *slog.Logger) email.Sender {
	switch {
	case cfg.ResendAPIKey != "":
		logger.Info("email via resend")
		return email.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom)
	case cfg.SMTPHost != "":
		logger.Info("email via smtp", "host", cfg.SMTPHost)
		return email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailFrom, cfg.SMTPUser, cfg.SMTPPassword)
	default:
		logger.Warn("no email provider configured; notifications are logged only")
		return email.NoopSender{Logger: logger}
	}
}

// formLimiter prefers the shared Redis window so limits hold across replicas.
func formLimiter(cfg Config, rdb *redis.Client, logger *slog.Logger) httpx.Middleware {
	if cfg.RateLimit <= 0 {
		return nil
	}
	if rdb != nil {
		return httpx.NewRedisRateLimiter(rdb, cfg.RateLimit, cfg.RateWindow, "rl:forms").Middleware(logger, true)
	}
	return httpx.NewRateLimiter(cfg.RateLimit, cfg.RateWindow).Middleware()
}
