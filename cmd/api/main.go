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

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	infrakafka "github.com/jhoicas/stock-ledger/internal/infrastructure/kafka"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Inventory.Storage).
		Msg("iniciando aplicación")

	ctx := context.Background()

	opts := []inventory.Option{
		inventory.WithCompliance(domaininv.NewCompliancePolicy(cfg.Inventory.PharmaTenants)),
		inventory.WithCurrency(cfg.Inventory.Currency),
		inventory.WithDefaultPerPage(cfg.Inventory.DefaultPerPage),
	}

	// Idempotency-Key: sin Redis el encabezado se acepta pero no deduplica.
	if cfg.Redis.Addr != "" {
		rdb, err := infraredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		opts = append(opts, inventory.WithIdempotency(infraredis.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL())))
	}

	if cfg.Kafka.Enabled() {
		publisher := infrakafka.NewLedgerPublisher(infrakafka.NewWriter(cfg.Kafka))
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("cierre del publicador kafka")
			}
		}()
		opts = append(opts, inventory.WithPublisher(publisher))
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación del ledger habilitada")
	}

	var svc *inventory.Service
	switch cfg.Inventory.Storage {
	case config.StorageMemory:
		store := memory.NewStore(cfg.DB.LockTimeout())
		svc = inventory.NewService(store, store.Reader(), log.Component("inventory"), opts...)
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		if cfg.DB.AutoMigrate {
			if err := postgres.Migrate(cfg.DB.ConnectionString()); err != nil {
				log.Fatal().Err(err).Msg("migraciones")
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		txRunner := postgres.NewTxRunner(pool, cfg.DB.LockTimeout())
		svc = inventory.NewService(txRunner, postgres.NewRepos(pool), log.Component("inventory"), opts...)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Stock Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Inventory: svc,
		Logger:    log.Component("http"),
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
