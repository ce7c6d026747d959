package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/api/http"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/api/http/handlers"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/auth"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/config"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/events"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/observability"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/persistence"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/realtime"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/repository"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/service"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()
	metrics.CountEvents(dispatcher)

	hub := realtime.NewHub(cfg.Realtime.SendBufferSize)
	realtime.NewRouter(hub, logger).Attach(dispatcher)
	if cfg.Realtime.BridgeEnabled {
		bridge := realtime.NewBridge(redis.Client, hub, cfg.Realtime.EventChannel, logger)
		bridge.Attach(dispatcher)
		go func() {
			if err := bridge.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error("event bridge stopped", zap.Error(err))
			}
		}()
	}

	authService := service.NewAuthService(cfg.Auth, userRepo)
	userService := service.NewUserService(userRepo, cfg.Auth.BcryptCost)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		Dispatcher: dispatcher,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		CommentRepo: commentRepo,
		TicketRepo:  ticketRepo,
		Dispatcher:  dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(pg, redis),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		WS:             handlers.NewWSHandler(hub, ticketService, dispatcher, logger),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
