package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/retail-core/internal/application/billing"
	"github.com/jhoicas/retail-core/internal/application/inventory"
	"github.com/jhoicas/retail-core/internal/application/ports"
	"github.com/jhoicas/retail-core/internal/application/usecase"
	"github.com/jhoicas/retail-core/internal/infrastructure/cache"
	"github.com/jhoicas/retail-core/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/retail-core/internal/infrastructure/pdf"
	"github.com/jhoicas/retail-core/internal/infrastructure/postgres"
	"github.com/jhoicas/retail-core/internal/infrastructure/queue"
	httpRouter "github.com/jhoicas/retail-core/internal/interfaces/http"
	"github.com/jhoicas/retail-core/pkg/config"
	"github.com/jhoicas/retail-core/pkg/logger"
)

// @title                       retail-core API
// @version                     1.0
// @description                 Inventario y facturación multi-organización: libro de stock, facturas y notas crédito.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
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
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Almacenamiento: PostgreSQL o memoria (desarrollo local / demos).
	var (
		store  ports.Store
		health httpRouter.HealthChecker
	)
	switch cfg.DB.Driver {
	case config.DriverMemory:
		store = memory.New(memory.WithTxTimeout(cfg.DB.TxTimeout))
		log.Warn().Msg("usando almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Fatal().Err(err).Msg("migración del esquema")
			}
			log.Info().Msg("esquema aplicado")
		}
		pgStore := postgres.NewStore(pool, cfg.DB)
		store, health = pgStore, pgStore
	}

	// Redis opcional: deduplicación de reintentos y cola de alertas de stock bajo.
	var (
		notifier    ports.LowStockNotifier
		idempotency httpRouter.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		idempotency = cache.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)

		redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}
		asynqClient := asynq.NewClient(redisOpt)
		defer asynqClient.Close()
		notifier = queue.NewNotifier(asynqClient, cfg.Queue.LowStockQueue)

		worker := queue.NewWorker(redisOpt, cfg.Queue.LowStockQueue, log)
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error().Err(err).Msg("worker de alertas finalizado")
			}
		}()
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: sin idempotencia ni alertas de stock bajo")
	}

	ledger := inventory.NewLedgerUseCase(store, notifier, log)
	productUC := usecase.NewProductUseCase(store, ledger)
	customerUC := usecase.NewCustomerUseCase(store)
	billUC := billing.NewBillUseCase(store, ledger, log)
	creditNoteUC := billing.NewCreditNoteUseCase(store, log)
	receiptUC := billing.NewReceiptUseCase(store, infrapdf.NewReceiptGenerator(cfg.App.Name))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())

	if httpRouter.MountDocs(app, cfg.HTTP.SwaggerFile, cfg.App.Name+" API") {
		log.Info().Str("path", "/"+httpRouter.DocsPath).Msg("swagger UI habilitado")
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:    productUC,
		CustomerUC:   customerUC,
		Ledger:       ledger,
		BillUC:       billUC,
		CreditNoteUC: creditNoteUC,
		ReceiptUC:    receiptUC,
		Idempotency:  idempotency,
		Health:       health,
		Log:          log,
		JWTSecret:    cfg.JWT.Secret,
		JWTIssuer:    cfg.JWT.Issuer,
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
