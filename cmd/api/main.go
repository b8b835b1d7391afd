package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/project-portal/internal/api/http"
	"github.com/spec-kit/project-portal/internal/api/http/handlers"
	"github.com/spec-kit/project-portal/internal/auth"
	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/events"
	"github.com/spec-kit/project-portal/internal/observability"
	"github.com/spec-kit/project-portal/internal/persistence"
	"github.com/spec-kit/project-portal/internal/ratelimit"
	"github.com/spec-kit/project-portal/internal/repository"
	"github.com/spec-kit/project-portal/internal/service"
	"github.com/spec-kit/project-portal/internal/token"
	"github.com/spec-kit/project-portal/internal/worker"
	apperrors "github.com/spec-kit/project-portal/pkg/util/errorutil"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	clock := domain.RealClock{}

	// No secret, no server: tokens must be verifiable by every instance.
	codec, err := token.NewCodec(token.Config{
		Secret:     cfg.Auth.JWTSecret,
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
		Clock:      clock,
	})
	if err != nil {
		return err
	}

	comparer, err := auth.NewCredentialComparer(cfg.Auth.CredentialScheme)
	if err != nil {
		return err
	}

	tracerProvider, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Env,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
	})
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return err
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations && pg.Configured() {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			return err
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	authService := service.NewAuthService(service.AuthDependencies{
		Users:      repository.NewUserRepository(pg.PoolHandle()),
		Tokens:     codec,
		Comparer:   comparer,
		Limiter:    ratelimit.NewLoginLimiter(redis.Client, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginWindow, logger),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		Clock:      clock,
	})

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ErrorHandler:          apperrors.Handler,
		DisableStartupMessage: cfg.App.IsProduction(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, clock),
		Access:         handlers.NewAccessHandler(cfg.Auth),
		AuthMiddleware: auth.NewAuthMiddleware(codec, logger, metrics),
		Metrics:        metrics,
	})

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting HTTP server", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		return app.Listen(cfg.App.Addr())
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("http shutdown", zap.Error(err))
		}

		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tracerProvider.Shutdown(flushCtx); err != nil {
			logger.Error("tracer shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
