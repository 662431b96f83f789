package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Repos repositorios atados a una misma unidad de trabajo (o al pool, para lecturas).
type Repos struct {
	StockItems   repository.StockItemRepository
	Batches      repository.BatchRepository
	Ledger       repository.LedgerRepository
	Reservations repository.ReservationRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil, Rollback en cualquier otro caso. Si no se obtiene un bloqueo dentro
// del tiempo configurado devuelve domain.ErrLockTimeout.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// ComplianceSettings indica si un tenant/producto opera en modo farmacéutico.
type ComplianceSettings interface {
	IsPharmaceuticalCompliant(tenantID, productID string) bool
}

// IdempotencyStore reserva claves de idempotencia. Claim devuelve false si la clave ya existe.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// LedgerPublisher publica los asientos ya confirmados.
type LedgerPublisher interface {
	Publish(ctx context.Context, entries []*entity.LedgerEntry) error
}

type noCompliance struct{}

func (noCompliance) IsPharmaceuticalCompliant(string, string) bool { return false }

type noIdempotency struct{}

func (noIdempotency) Claim(context.Context, string) (bool, error) { return true, nil }
func (noIdempotency) Release(context.Context, string) error       { return nil }

type noPublisher struct{}

func (noPublisher) Publish(context.Context, []*entity.LedgerEntry) error { return nil }
