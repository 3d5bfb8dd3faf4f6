package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/nutriscan/nutriscan-api/internal/api/http"
	"github.com/nutriscan/nutriscan-api/internal/api/http/handlers"
	"github.com/nutriscan/nutriscan-api/internal/auth"
	"github.com/nutriscan/nutriscan-api/internal/config"
	"github.com/nutriscan/nutriscan-api/internal/events"
	"github.com/nutriscan/nutriscan-api/internal/observability"
	"github.com/nutriscan/nutriscan-api/internal/persistence"
	"github.com/nutriscan/nutriscan-api/internal/repository"
	"github.com/nutriscan/nutriscan-api/internal/service"
	"github.com/nutriscan/nutriscan-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.App, cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		logger.Warn("using the development JWT secret; set JWT_SECRET_KEY")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	readiness := map[string]handlers.Pinger{"postgres": pg}

	var revocations auth.RevocationList = auth.NoopRevocationList{}
	if cfg.Auth.RevocationEnabled {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		revocations = repository.NewRevocationRepository(redis.Client)
		readiness["redis"] = redis
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		CredentialRepo: repository.NewCredentialRepository(pg.PoolHandle()),
		TokenManager:   tokens,
		Revocations:    revocations,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), revocations, metrics)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.CORS, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()),
			zap.Duration("token_ttl", tokens.TTL()),
			zap.Bool("revocation", cfg.Auth.RevocationEnabled))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
