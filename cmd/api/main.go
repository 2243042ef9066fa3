package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/archie-s/card-vault/internal/access"
	httptransport "github.com/archie-s/card-vault/internal/api/http"
	"github.com/archie-s/card-vault/internal/api/http/handlers"
	"github.com/archie-s/card-vault/internal/auth"
	"github.com/archie-s/card-vault/internal/config"
	"github.com/archie-s/card-vault/internal/events"
	"github.com/archie-s/card-vault/internal/observability"
	"github.com/archie-s/card-vault/internal/persistence"
	"github.com/archie-s/card-vault/internal/repository"
	"github.com/archie-s/card-vault/internal/service"
	"github.com/archie-s/card-vault/internal/vault"
	"github.com/archie-s/card-vault/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisStore := persistence.NewRedis(cfg.Redis, logger)
	defer redisStore.Close()

	// The vault refuses to start on bad key material; there is no degraded
	// mode for card encryption.
	cardVault, err := vault.New(cfg.Vault.MasterKeyHex)
	if err != nil {
		logger.Fatal("vault key rejected", zap.Error(err))
	}

	pool := pg.PoolHandle()
	cardRepo := repository.NewCardRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	roleRepo := repository.NewRoleRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)

	permissionSource := access.NewCachedSource(roleRepo, redisStore.Client, cfg.Vault.PermissionCacheTTL(), logger)
	engine := access.NewEngine(permissionSource)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	for _, eventType := range []events.EventType{
		events.EventCardStored,
		events.EventCardRetrieved,
		events.EventCardRevoked,
		events.EventAccessDenied,
		events.EventDecryptFailed,
	} {
		dispatcher.Subscribe(eventType, func(_ context.Context, event events.Event) error {
			metrics.RecordVaultOperation(string(event.Type))
			return nil
		})
	}

	cardService := service.NewCardService(service.CardDependencies{
		CardRepo:   cardRepo,
		Vault:      cardVault,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:    userRepo,
		RoleRepo:    roleRepo,
		Permissions: permissionSource,
		Logger:      logger,
	})
	auditService := service.NewAuditService(dispatcher, auditRepo, logger)
	worker.StartAuditWorker(auditService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	permissionMiddleware := auth.NewPermissionMiddleware(engine, dispatcher)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:      handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisStore),
		Auth:        handlers.NewAuthHandler(authService),
		Cards:       handlers.NewCardsHandler(cardService),
		Roles:       handlers.NewRolesHandler(roleRepo, permissionSource),
		Audit:       handlers.NewAuditHandler(auditService),
		AuthMW:      authMiddleware,
		Permissions: permissionMiddleware,

		RedisClient:     redisStore.Client,
		RateLimit:       cfg.RateLimit.Requests,
		RateLimitWindow: cfg.RateLimit.Window(),
		Logger:          logger,
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
