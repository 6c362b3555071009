package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"surveyapi/docs"
	"surveyapi/internal/auth"
	"surveyapi/internal/config"
	"surveyapi/internal/database"
	"surveyapi/internal/database/migration"
	handlers "surveyapi/internal/http/handler"
	"surveyapi/internal/http/middleware"
	"surveyapi/internal/logging"
	"surveyapi/internal/notify"
	"surveyapi/internal/otel"
	"surveyapi/internal/repository/postgres"
	"surveyapi/internal/service"
	"surveyapi/internal/storage"
)

// @title Survey API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_exit", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, otel.ConfigFromEnv(), logger)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	db, err := database.NewPostgres(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger, cfg.Database.Host); err != nil {
		return err
	}
	roles, err := config.LoadRoles(cfg.RolesFile)
	if err != nil {
		return err
	}
	if err := migration.SeedRoles(ctx, db, roles, logger); err != nil {
		return err
	}

	objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
	if err != nil {
		return err
	}

	revocations, closeRevocations, err := newRevocationStore(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer closeRevocations()

	mailer, closeMailer := newMailer(cfg.RabbitMQ, logger)
	defer closeMailer()

	users := postgres.NewUserPostgres(db)
	roleRepo := postgres.NewRolePostgres(db)
	surveys := postgres.NewSurveyPostgres(db)
	instances := postgres.NewInstancePostgres(db)
	participations := postgres.NewParticipationPostgres(db)
	reports := postgres.NewReportPostgres(db)

	authSvc := service.NewAuthService(users, roleRepo, auth.NewTokenManager(cfg.Auth), revocations, mailer, cfg.FrontendURL, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    1 << 20,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		return err
	}

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, handlers.Deps{
		Auth:          authSvc,
		Users:         service.NewUserService(users, roleRepo),
		Surveys:       service.NewSurveyService(surveys),
		Instances:     service.NewInstanceService(instances, surveys, participations, cfg.Survey),
		Configuration: service.NewConfigurationService(instances, surveys, participations, reports, objStore, cfg.Survey, logger),
		Participation: service.NewParticipationService(instances, surveys, participations, logger),
		DB:            db,
		Storage:       handlers.PingFunc(objStore.Ping),
		Cookies:       handlers.CookieConfig{Secure: cfg.Auth.CookieSecure, Domain: cfg.Auth.CookieDomain},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_started", "addr", ":"+cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server_stopping")
		return app.ShutdownWithTimeout(10 * time.Second)
	})
	return g.Wait()
}

// newRevocationStore connects to Redis when configured and falls back to the
// in-process store otherwise.
func newRevocationStore(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (auth.RevocationStore, func(), error) {
	if cfg.URL == "" {
		logger.Warn("revocation_store", "component", "auth", "backend", "memory")
		return auth.NewMemoryRevocationStore(), func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, errors.Join(errors.New("parse REDIS_URL"), err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, errors.Join(errors.New("redis ping"), err)
	}
	logger.Info("revocation_store", "component", "auth", "backend", "redis")
	return auth.NewRedisRevocationStore(client), func() { _ = client.Close() }, nil
}

// newMailer publishes to RabbitMQ when configured. A broker that cannot be
// reached degrades to logging messages so signups keep working.
func newMailer(cfg config.RabbitMQConfig, logger *slog.Logger) (notify.Mailer, func()) {
	if cfg.URL == "" {
		return notify.NewLogMailer(logger), func() {}
	}
	m, err := notify.NewAMQPMailer(cfg)
	if err != nil {
		logger.Error("mailer_init_failed", "component", "notify", "error", err.Error())
		return notify.NewLogMailer(logger), func() {}
	}
	logger.Info("mailer_ready", "component", "notify", "queue", cfg.Queue)
	return m, func() { _ = m.Close() }
}
