package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/ports"
	"github.com/jhoicas/inventario-ledger/internal/application/report"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
	infraai "github.com/jhoicas/inventario-ledger/internal/infrastructure/ai"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/inventario-ledger/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-ledger/internal/infrastructure/redis"
	infraxlsx "github.com/jhoicas/inventario-ledger/internal/infrastructure/xlsx"
	httpRouter "github.com/jhoicas/inventario-ledger/internal/interfaces/http"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ── Almacenamiento del ledger ─────────────────────────────────────────────
	var (
		tx            inventory.TxRunner
		repos         inventory.Repos
		analyticsRepo repository.AnalyticsRepository
	)
	switch cfg.Store.Driver {
	case "memory":
		store := memory.NewStore()
		tx, repos, analyticsRepo = store, store.Repos(), store.Analytics()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.EnsureSchema(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("crear esquema")
			}
		}
		tx, repos, analyticsRepo = postgres.NewTxRunner(pool), postgres.NewRepos(pool), postgres.NewAnalyticsRepository(pool)
	}

	// ── Notificaciones y caché: Redis si está configurado, en proceso si no ───
	var (
		notifier ports.ChangeNotifier = memory.NewNotifier()
		cache    ports.SummaryCache
	)
	if cfg.Redis.Enabled() {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		notifier = infraredis.NewNotifier(rdb, cfg.Redis.Channel, log.Component("redis"))
		cache = infraredis.NewSummaryCache(rdb, cfg.Redis.SummaryTTL)
	}

	// ── Casos de uso ──────────────────────────────────────────────────────────
	retry := inventory.RetryPolicy{MaxAttempts: cfg.Ledger.MaxAttempts, Backoff: cfg.Ledger.Backoff}
	ledger := inventory.NewStockLedger(tx, notifier, retry, log.Component("ledger"))
	movements := inventory.NewMovementLog(repos.Movements)
	projection := inventory.NewStockProjection(repos.Products, repos.Levels, log.Component("projection"))
	dashboardUC := appanalytics.NewDashboardUseCase(projection, analyticsRepo, cache, log.Component("dashboard"))

	reportUC := report.NewReportUseCase(
		dashboardUC, projection, movements,
		infrapdf.NewMarotoPDFGenerator(), infraxlsx.NewMovementExporter(),
	)

	insights, err := insightGenerator(cfg.AI)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar proveedor de IA")
	}
	if insights == nil {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("IA sin configurar: /api/ai/insights responderá 503")
	}

	go func() {
		if err := projection.Run(ctx, notifier); err != nil {
			log.Error().Err(err).Msg("proyección de stock detenida")
		}
	}()
	go func() {
		if err := dashboardUC.Run(ctx, notifier); err != nil {
			log.Error().Err(err).Msg("invalidación del dashboard detenida")
		}
	}()

	// ── HTTP ──────────────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.Swagger.FilePath); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.Swagger.FilePath,
			Path:     "docs",
			Title:    "Inventario Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		LocationUC:    usecase.NewLocationUseCase(repos.Locations),
		ProductUC:     usecase.NewProductUseCase(ledger, repos.Products, repos.Levels, repos.Locations),
		Ledger:        ledger,
		Transfers:     inventory.NewTransferCoordinator(ledger),
		Audits:        inventory.NewAuditReconciler(ledger, log.Component("audit")),
		Reservations:  inventory.NewReservationManager(ledger, repos.Sales, log.Component("sales")),
		Productions:   inventory.NewProductionUseCase(ledger, repos.Productions, log.Component("production")),
		Movements:     movements,
		Projection:    projection,
		DashboardUC:   dashboardUC,
		Replenishment: appanalytics.NewReplenishmentUseCase(projection, analyticsRepo),
		InsightUC:     usecase.NewInsightUseCase(dashboardUC, insights),
		ReportUC:      reportUC,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// insightGenerator elige el proveedor de IA. Devuelve nil si no hay API key para el proveedor elegido.
func insightGenerator(cfg config.AIConfig) (ports.InsightGenerator, error) {
	switch cfg.Provider {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, nil
		}
		return infraai.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil
		}
		return infraai.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	default:
		if cfg.AnthropicAPIKey == "" {
			return nil, nil
		}
		return infraai.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel), nil
	}
}
