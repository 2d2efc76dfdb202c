package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/intake-service/internal/api/http"
	"github.com/spec-kit/intake-service/internal/api/http/handlers"
	"github.com/spec-kit/intake-service/internal/auth"
	"github.com/spec-kit/intake-service/internal/clock"
	"github.com/spec-kit/intake-service/internal/config"
	"github.com/spec-kit/intake-service/internal/events"
	"github.com/spec-kit/intake-service/internal/membership"
	"github.com/spec-kit/intake-service/internal/notify"
	"github.com/spec-kit/intake-service/internal/observability"
	"github.com/spec-kit/intake-service/internal/persistence"
	"github.com/spec-kit/intake-service/internal/ratelimit"
	"github.com/spec-kit/intake-service/internal/service"
	"github.com/spec-kit/intake-service/internal/store"
	"github.com/spec-kit/intake-service/internal/worker"
)

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.NewSystem()
	metrics := observability.NewMetrics()

	tickets, err := store.NewTicketStore(cfg.Store.TicketsPath, cfg.Intake.Retention(), clk)
	if err != nil {
		logger.Fatal("failed to open ticket store", zap.Error(err))
	}
	blacklist, err := store.NewBlacklistStore(cfg.Store.BlacklistPath)
	if err != nil {
		logger.Fatal("failed to open blacklist store", zap.Error(err))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var refs notify.RefStore
	if redis.Ping(ctx) == nil {
		refs = notify.NewRedisRefStore(redis.Client, cfg.Notify.PanelTTL())
	} else {
		logger.Warn("redis unreachable, tracking panel refs in memory")
		refs = notify.NewMemoryRefStore(cfg.Notify.PanelTTL(), clk)
	}

	transport := notify.NewWebhookTransport(cfg.Notify.WebhookURL, &http.Client{
		Timeout: cfg.Notify.SendTimeout(),
	})

	members := membership.NewStatic(cfg.AdminArea.AdminIDs)
	dispatcher := events.NewInMemoryDispatcher()
	limiter := ratelimit.NewLimiter(tickets, clk)

	intakeService := service.NewIntakeService(cfg.Intake, service.IntakeDependencies{
		TicketStore:    tickets,
		BlacklistStore: blacklist,
		Limiter:        limiter,
		Membership:     members,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Clock:          clk,
		Logger:         logger,
	})
	adminService := service.NewAdminService(service.AdminDependencies{
		TicketStore:    tickets,
		BlacklistStore: blacklist,
		Membership:     members,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Clock:          clk,
		Logger:         logger,
	})
	notificationService := service.NewNotificationService(
		transport, refs, cfg.AdminArea.GroupID, cfg.Notify.SendTimeout(), logger)
	notificationService.RegisterHandlers(dispatcher)

	worker.StartSweeper(ctx, tickets, cfg.Intake.SweepInterval(), cfg.Intake.Retention(), logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redis),
		Auth:           handlers.NewAuthHandler(tokens, members, cfg.Auth),
		Intake:         handlers.NewIntakeHandler(intakeService),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
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
