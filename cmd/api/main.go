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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/repository"
	"github.com/jhoicas/Inventario-vacunas/internal/infrastructure/memory"
	"github.com/jhoicas/Inventario-vacunas/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Inventario-vacunas/internal/infrastructure/pdf"
	"github.com/jhoicas/Inventario-vacunas/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-vacunas/internal/infrastructure/redisstore"
	"github.com/jhoicas/Inventario-vacunas/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/Inventario-vacunas/internal/interfaces/http"
	"github.com/jhoicas/Inventario-vacunas/internal/jobs"
	"github.com/jhoicas/Inventario-vacunas/pkg/config"
	"github.com/jhoicas/Inventario-vacunas/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Stock.Driver).
		Dur("lock_timeout", cfg.Stock.LockTimeout).
		Msg("iniciando aplicación")

	ctx := context.Background()
	zl := log.Zerolog()

	// Almacenamiento: postgres en producción, memoria para desarrollo local
	var (
		txRunner    inventory.TxRunner
		productRepo repository.ProductRepository
	)
	switch cfg.Stock.Driver {
	case config.DriverMemory:
		store := memory.NewStore(cfg.Stock.LockTimeout)
		txRunner = store
		productRepo = store.Products()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB, postgres.PoolOptions{AppName: cfg.App.Name, PreferIPv4: true})
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner = postgres.NewTxRunner(pool, cfg.Stock.LockTimeout)
		productRepo = postgres.NewProductRepository(pool)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promMetrics := metrics.NewPrometheus(reg)

	// Redis opcional: caché del último reporte y canal de movimientos
	var (
		publisher inventory.MovementPublisher
		cache     inventory.ReportCache
	)
	if cfg.Redis.Enabled() {
		rdb, err := redisstore.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		publisher = redisstore.NewMovementPublisher(rdb, redisstore.DefaultMovementsChannel)
		cache = redisstore.NewReportCache(rdb, cfg.Redis.CacheTTL)
	}

	// MinIO opcional: archivo de reportes PDF
	var archive inventory.ReportArchive
	if cfg.Minio.Enabled() {
		a, err := storage.NewMinioArchive(ctx, cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a MinIO")
		}
		archive = a
	}

	opts := inventory.Options{NearExpiryWindow: cfg.Stock.NearExpiryWindow()}
	ledger := inventory.NewRegisterMovementUseCase(txRunner, productRepo, publisher, promMetrics, zl, opts)
	verifier := inventory.NewVerifyContractUseCase(txRunner, cache, promMetrics, zl, opts)
	reportExport := inventory.NewReportExportUseCase(verifier, infrapdf.NewMarotoReportGenerator(cfg.App.Name), archive, zl)

	var scheduler *jobs.Scheduler
	if cfg.Diagnostics.Interval > 0 {
		scheduler, err = jobs.NewDiagnosticsScheduler(verifier, cfg.Diagnostics.Interval, cfg.Diagnostics.Horizon, zl)
		if err != nil {
			log.Fatal().Err(err).Msg("programar refresco de diagnósticos")
		}
		scheduler.Start()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(zl),
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Inventario de vacunas API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Stock.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:       ledger,
		StockQuery:   inventory.NewStockQueryUseCase(txRunner, opts),
		Reconciler:   inventory.NewReconcileUseCase(txRunner, zl),
		Allocator:    inventory.NewAllocateDoseUseCase(txRunner, ledger, promMetrics, zl, opts),
		Binder:       inventory.NewBindAssignmentsUseCase(txRunner, ledger, zl, opts),
		Verifier:     verifier,
		ReportExport: reportExport,
		Metrics:      reg,
		JWTSecret:    cfg.JWT.Secret,
		JWTIssuer:    cfg.JWT.Issuer,
		Log:          zl,
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

	if scheduler != nil {
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("detener scheduler")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
