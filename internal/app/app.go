package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/contactsbook/internal/auth"
	"github.com/utafrali/contactsbook/internal/config"
	"github.com/utafrali/contactsbook/internal/event"
	handler "github.com/utafrali/contactsbook/internal/handler/http"
	"github.com/utafrali/contactsbook/internal/mailer"
	"github.com/utafrali/contactsbook/internal/ratelimit"
	"github.com/utafrali/contactsbook/internal/repository/postgres"
	"github.com/utafrali/contactsbook/internal/service"
	"github.com/utafrali/contactsbook/internal/storage"
	"github.com/utafrali/contactsbook/internal/storage/cloudinary"
	"github.com/utafrali/contactsbook/internal/storage/memory"
	"github.com/utafrali/contactsbook/internal/storage/s3"
	"github.com/utafrali/contactsbook/migrations"
	"github.com/utafrali/contactsbook/pkg/database"
	"github.com/utafrali/contactsbook/pkg/health"
	pkgkafka "github.com/utafrali/contactsbook/pkg/kafka"
	"github.com/utafrali/contactsbook/pkg/middleware"
	"github.com/utafrali/contactsbook/pkg/tracing"
)

// App wires together all dependencies and runs the contacts book service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	memLimiter     *ratelimit.MemoryLimiter
	producer       *pkgkafka.Producer
	mail           *mailer.Dispatcher
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// On failure everything opened so far is closed again.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.close(context.Background())
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    handler.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       true,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	if err := a.initPostgres(ctx); err != nil {
		return nil, err
	}
	if err := a.initRedis(ctx); err != nil {
		return nil, err
	}

	// Initialize Kafka producer.
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Background mail delivery.
	var sender mailer.Sender = mailer.NewLogSender(logger)
	if cfg.SMTPEnabled {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
			Timeout:  cfg.SMTPTimeout,
		})
	}
	a.mail = mailer.NewDispatcher(sender, cfg.MailWorkers, cfg.MailQueue, cfg.SMTPTimeout, logger)

	images, media, err := newAvatarStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Build the dependency graph.
	store := postgres.NewStore(a.pool)
	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret:        cfg.JWTSecret,
		Issuer:        handler.ServiceName,
		AccessExpiry:  cfg.JWTAccessExpiry,
		RefreshExpiry: cfg.JWTRefreshExpiry,
		EmailExpiry:   cfg.JWTEmailExpiry,
	})
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	eventProducer := event.NewProducer(a.producer, logger)
	confirmations := mailer.NewConfirmations(tokens, a.mail)

	authService := service.NewAuthService(store, hasher, tokens, confirmations, eventProducer, logger)
	contactService := service.NewContactService(store, eventProducer, logger)
	userService := service.NewUserService(store, images, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", store.Ping)
	if a.redis != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if a.producer != nil {
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	routerCfg := handler.RouterConfig{
		Auth:           authService,
		Contacts:       contactService,
		Users:          userService,
		DB:             store,
		Health:         healthHandler,
		ReadRule:       ratelimit.Rule{Limit: cfg.RateLimitReadTimes, Window: cfg.RateLimitReadWindow},
		WriteRule:      ratelimit.Rule{Limit: cfg.RateLimitWriteTimes, Window: cfg.RateLimitWriteWindow},
		TrustedProxies: cfg.TrustedProxyCIDRs,
		CORS:           corsCfg,
		MaxUploadBytes: cfg.HTTPMaxUploadBytes,
		PprofEnabled:   cfg.PprofEnabled,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		Logger:         logger,
	}
	if media != nil {
		routerCfg.Media = media
	}
	if cfg.RateLimitEnabled {
		routerCfg.Limiter = a.limiter()
	}

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler.NewRouter(routerCfg),
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

func (a *App) initPostgres(ctx context.Context) error {
	cfg := a.cfg
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLifetime,
		MaxConnIdleTime: cfg.DBMaxConnIdleTime,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, pool, handler.ServiceName); err != nil {
		a.logger.Warn("pool metrics not registered", slog.String("error", err.Error()))
	}

	if cfg.DBMigrationsOnStartup {
		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		a.logger.Info("database migrations completed")
	}

	if cfg.DBSlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(cfg.DBSlowQueryThreshold, a.logger)
	}
	return nil
}

// initRedis connects the rate limiter store. Without Redis the limiter
// falls back to process memory.
func (a *App) initRedis(ctx context.Context) error {
	cfg := a.cfg
	if !cfg.RateLimitEnabled {
		return nil
	}
	if !cfg.RedisEnabled {
		a.memLimiter = ratelimit.NewMemoryLimiter(10 * time.Minute)
		a.logger.Info("redis disabled, using in-memory rate limiter")
		return nil
	}

	redisCfg := database.DefaultRedisConfig()
	redisCfg.Host = cfg.RedisHost
	redisCfg.Port = cfg.RedisPort
	redisCfg.Password = cfg.RedisPassword
	redisCfg.DB = cfg.RedisDB

	client, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = client
	a.logger.Info("connected to Redis", slog.String("addr", redisCfg.Addr()))
	return nil
}

func (a *App) limiter() ratelimit.Limiter {
	if a.redis != nil {
		return ratelimit.NewRedisLimiter(a.redis)
	}
	return a.memLimiter
}

// newAvatarStorage builds the configured image backend. The in-memory store
// is also returned as a media source so the router can serve it.
func newAvatarStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Storage, *memory.Storage, error) {
	switch cfg.AvatarBackend {
	case config.AvatarBackendS3:
		st, err := s3.New(ctx, s3.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			PublicURL:       cfg.S3PublicURL,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 storage: %w", err)
		}
		logger.Info("avatar storage: s3", slog.String("bucket", cfg.S3Bucket))
		return st, nil, nil
	case config.AvatarBackendCloudinary:
		logger.Info("avatar storage: cloudinary", slog.String("cloud", cfg.CloudinaryCloudName))
		return cloudinary.New(cloudinary.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			APIURL:    cfg.CloudinaryBaseURL,
		}, logger), nil, nil
	default:
		st := memory.New(cfg.MediaBaseURL())
		logger.Info("avatar storage: memory", slog.String("base_url", cfg.MediaBaseURL()))
		return st, st, nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.close(context.Background())
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Mail dispatcher (deliver queued confirmations)
// 3. Kafka producer
// 4. Redis and the in-memory limiter
// 5. PostgreSQL pool
// 6. Tracer (flush spans of everything above)
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := a.close(closeCtx); err != nil {
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// close releases every component after the HTTP server. Nil components are
// skipped, so it also unwinds a partially built App.
func (a *App) close(ctx context.Context) error {
	var errs []error

	if a.mail != nil {
		if err := a.mail.Shutdown(ctx); err != nil {
			a.logger.Error("mail dispatcher shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.memLimiter != nil {
		a.memLimiter.Close()
	}

	if a.pool != nil {
		a.pool.Close()
	}

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
