package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// CronRegistration asocia una expresión cron a una tarea preparada.
type CronRegistration struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig dependencias del worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Logger      *logger.Logger
	Sweeper     ReservationSweeper
	SweepLimit  int
	Cron        []CronRegistration
}

// Worker envuelve el servidor asynq y el scheduler opcional.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

// NewWorker registra los handlers y las entradas cron.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Sweeper == nil {
		return nil, errors.New("jobs: reservation sweeper is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{QueueDefault: 1},
	})
	mux := asynq.NewServeMux()
	mux.Handle(TaskExpireReservations, NewExpireReservationsHandler(cfg.Sweeper, cfg.SweepLimit, log))

	var scheduler *asynq.Scheduler
	if len(cfg.Cron) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, entry := range cfg.Cron {
			if entry.Spec == "" || entry.Task == nil {
				continue
			}
			if _, err := scheduler.Register(entry.Spec, entry.Task, entry.Options...); err != nil {
				return nil, err
			}
		}
	}
	return &Worker{server: srv, mux: mux, scheduler: scheduler, log: log.Component("worker")}, nil
}

// Run procesa tareas hasta que se cancele ctx.
func (w *Worker) Run(ctx context.Context) error {
	if w.scheduler != nil {
		if err := w.scheduler.Start(); err != nil {
			return err
		}
		defer w.scheduler.Shutdown()
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	w.log.Info().Msg("worker: iniciado")

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info().Msg("worker: detenido")
	return nil
}
