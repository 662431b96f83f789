package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const (
	// QueueDefault cola única del worker.
	QueueDefault = "default"
	// TaskExpireReservations libera reservas vencidas.
	TaskExpireReservations = "inventory:reservations:expire"
)

// ExpireReservationsPayload Limit <= 0 usa el límite del barrido.
type ExpireReservationsPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
	Limit        int       `json:"limit,omitempty"`
}

// ReservationSweeper lo implementa el servicio de inventario.
type ReservationSweeper interface {
	ReleaseExpiredReservations(ctx context.Context, limit int) (int, error)
}

// NewExpireReservationsTask construye la tarea asynq.
func NewExpireReservationsTask(at time.Time, limit int) (*asynq.Task, error) {
	body, err := json.Marshal(ExpireReservationsPayload{ScheduledFor: at, Limit: limit})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExpireReservations, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// ExpireReservationsHandler procesa TaskExpireReservations.
type ExpireReservationsHandler struct {
	sweeper ReservationSweeper
	limit   int
	log     *logger.Logger
}

// NewExpireReservationsHandler limit es el tope por ejecución cuando el payload no trae uno.
func NewExpireReservationsHandler(sweeper ReservationSweeper, limit int, log *logger.Logger) *ExpireReservationsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ExpireReservationsHandler{sweeper: sweeper, limit: limit, log: log.Component("jobs")}
}

// ProcessTask un payload ilegible no se reintenta.
func (h *ExpireReservationsHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ExpireReservationsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", TaskExpireReservations, err, asynq.SkipRetry)
		}
	}
	limit := payload.Limit
	if limit <= 0 {
		limit = h.limit
	}

	released, err := h.sweeper.ReleaseExpiredReservations(ctx, limit)
	if err != nil {
		h.log.Error().Err(err).Int("released", released).Msg("jobs: barrido de reservas con errores")
		return err
	}
	if released > 0 {
		h.log.Info().Int("released", released).Msg("jobs: reservas vencidas liberadas")
	}
	return nil
}
