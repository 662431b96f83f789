package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	domaininv "github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-ledger/internal/jobs"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// Barrido de reservas vencidas. Requiere PostgreSQL y Redis (cola asynq).
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name + "-worker",
	})
	if cfg.Redis.Addr == "" {
		log.Fatal().Msg("REDIS_ADDR es obligatorio para el worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	svc := inventory.NewService(
		postgres.NewTxRunner(pool, cfg.DB.LockTimeout()),
		postgres.NewRepos(pool),
		log.Component("inventory"),
		inventory.WithCompliance(domaininv.NewCompliancePolicy(cfg.Inventory.PharmaTenants)),
		inventory.WithCurrency(cfg.Inventory.Currency),
	)

	sweep, err := jobs.NewExpireReservationsTask(time.Now().UTC(), cfg.Inventory.ReservationSweepLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("tarea de barrido")
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Logger:     log,
		Sweeper:    svc,
		SweepLimit: cfg.Inventory.ReservationSweepLimit,
		Cron: []jobs.CronRegistration{
			{Spec: cfg.Inventory.ReservationSweepCron, Task: sweep},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar worker")
	}

	log.Info().Str("cron", cfg.Inventory.ReservationSweepCron).Msg("worker de reservas iniciado")
	if err := worker.Run(ctx); err != nil {
		log.Error().Err(err).Msg("worker finalizado con error")
	}
}
