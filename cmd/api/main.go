package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/taller-api/internal/application/inventory"
	"github.com/jhoicas/taller-api/internal/application/purchase"
	"github.com/jhoicas/taller-api/internal/application/sale"
	"github.com/jhoicas/taller-api/internal/application/stock"
	"github.com/jhoicas/taller-api/internal/application/usecase"
	"github.com/jhoicas/taller-api/internal/application/workorder"
	"github.com/jhoicas/taller-api/internal/infrastructure/cache"
	"github.com/jhoicas/taller-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/taller-api/internal/interfaces/http"
	"github.com/jhoicas/taller-api/internal/interfaces/ws"
	"github.com/jhoicas/taller-api/pkg/config"
	"github.com/jhoicas/taller-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Bus de eventos: cache, scanner de bajo stock y websocket se suscriben.
	bus := stock.NewBus(log, 256)

	txRunner := postgres.NewTxRunner(pool, cfg.Stock.TxRetries, log)
	coord := stock.NewCoordinator()

	// Repos atados al pool para los jobs que corren fuera de una tx de negocio.
	levelRepo := postgres.NewQuantityLevelRepository(pool)
	orgRepo := postgres.NewOrganizationRepository(pool)

	scanner := stock.NewLowStockScanner(
		levelRepo, orgRepo, bus, log,
		cfg.Stock.ScanDebounce(), cfg.Stock.ScanInterval(),
		cfg.Stock.LowStockAlertsEnabled,
	)

	rdb := cache.NewClient(cfg.Redis)
	defer rdb.Close()
	overviewCache := cache.NewOverviewCache(rdb, cfg.Stock.OverviewCacheTTL(), log)

	hub := ws.NewHub(log)

	bus.Subscribe(overviewCache.HandleEvent)
	bus.Subscribe(scanner.HandleEvent)
	bus.Subscribe(hub.HandleEvent)
	bus.Start(ctx)
	go scanner.Run(ctx)

	organizationUC := usecase.NewOrganizationUseCase(orgRepo)
	productUC := usecase.NewProductUseCase(txRunner, coord, bus)
	binUC := usecase.NewBinUseCase(txRunner)
	customerUC := usecase.NewCustomerUseCase(txRunner)
	inventoryUC := inventory.NewUseCase(txRunner, coord, bus, overviewCache, scanner)
	workOrderUC := workorder.NewUseCase(txRunner, coord, bus)
	saleUC := sale.NewUseCase(txRunner, coord, bus)
	purchaseUC := purchase.NewUseCase(txRunner, coord, bus)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Taller API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		OrganizationUC: organizationUC,
		ProductUC:      productUC,
		BinUC:          binUC,
		CustomerUC:     customerUC,
		InventoryUC:    inventoryUC,
		WorkOrderUC:    workOrderUC,
		SaleUC:         saleUC,
		PurchaseUC:     purchaseUC,
		WSUpgrade:      ws.Upgrade,
		WSHandler:      hub.Handler(),
		JWTSecret:      cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
