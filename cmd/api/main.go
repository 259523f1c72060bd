package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/aabine/flow-inventory/internal/application/allocation"
	appcylinder "github.com/aabine/flow-inventory/internal/application/cylinder"
	"github.com/aabine/flow-inventory/internal/application/reservation"
	"github.com/aabine/flow-inventory/internal/infrastructure/postgres"
	infraredis "github.com/aabine/flow-inventory/internal/infrastructure/redis"
	httpRouter "github.com/aabine/flow-inventory/internal/interfaces/http"
	"github.com/aabine/flow-inventory/pkg/config"
	"github.com/aabine/flow-inventory/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("load configuration: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("starting application")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection")
	}
	defer pool.Close()

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The publisher buffers locally, so a cold broker is not fatal.
		log.Warn().Err(err).Msg("Redis unreachable at startup")
	}

	cylinderRepo := postgres.NewCylinderRepository(pool)
	checkRepo := postgres.NewQualityCheckRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	eventRepo := postgres.NewLifecycleEventRepository(pool)
	txRunner := postgres.NewTxRunner(pool)
	publisher := infraredis.NewEventPublisher(redisClient, log)

	allocCfg := allocation.Config{
		UnitBaseCost:       decimal.NewFromFloat(cfg.Allocation.UnitBaseCost),
		PerKmRate:          decimal.NewFromFloat(cfg.Allocation.PerKmRate),
		Currency:           cfg.Allocation.Currency,
		MaxCandidates:      cfg.Allocation.MaxCandidates,
		ReliabilityTimeout: cfg.Allocation.ReliabilityTimeout,
	}
	reliability := allocation.NewReliabilityEstimator(
		locationRepo, stockRepo, movementRepo, checkRepo,
		cfg.Allocation.ReliabilityTimeout, log,
	)
	allocateUC := allocation.NewAllocateUseCase(
		cylinderRepo, checkRepo, locationRepo, reliability, allocCfg, log,
	)
	reservationUC := reservation.NewUseCase(txRunner, publisher, log)
	cylinderUC := appcylinder.NewUseCase(
		cylinderRepo, checkRepo, locationRepo, eventRepo, txRunner, publisher, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Flow Inventory API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AllocateUC:    allocateUC,
		ReservationUC: reservationUC,
		CylinderUC:    cylinderUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	log.Info().Msg("application stopped")
}
