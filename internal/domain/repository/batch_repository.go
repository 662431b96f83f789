package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// BatchQuery candidatos de deducción: lotes vivos con cantidad > 0 del producto en la bodega.
// UomID, BatchNumber y StockItemID son filtros opcionales.
type BatchQuery struct {
	TenantID    string
	ProductID   string
	WarehouseID string
	UomID       string
	BatchNumber string
	StockItemID string
}

// BatchRepository puerto de persistencia de lotes / capas de costo.
// FindByFIFO/LIFO/FEFO devuelven los candidatos ya ordenados y bloqueados (FOR UPDATE).
type BatchRepository interface {
	Create(ctx context.Context, b *entity.Batch) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Batch, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.Batch, error)
	FindByNumberForUpdate(ctx context.Context, tenantID, stockItemID, batchNumber string) (*entity.Batch, error)
	FindByFIFO(ctx context.Context, q BatchQuery) ([]*entity.Batch, error)
	FindByLIFO(ctx context.Context, q BatchQuery) ([]*entity.Batch, error)
	FindByFEFO(ctx context.Context, q BatchQuery) ([]*entity.Batch, error)
	Update(ctx context.Context, b *entity.Batch) error
	SoftDelete(ctx context.Context, tenantID, id string, at time.Time) error
}
