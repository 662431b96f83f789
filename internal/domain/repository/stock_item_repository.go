package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// StockItemFilter filtros para el listado paginado de saldos.
type StockItemFilter struct {
	TenantID          string
	ProductID         string
	WarehouseID       string
	BelowReorderPoint bool
	Page              int
	PerPage           int
}

// StockItemRepository puerto de persistencia de saldos. Todo está acotado por tenant.
// Los métodos *ForUpdate bloquean las filas hasta el fin de la unidad de trabajo.
// GetByID / FindByKeyForUpdate devuelven (nil, nil) si no existe.
type StockItemRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*entity.StockItem, error)
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.StockItem, error)
	FindByKeyForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockItem, error)
	// LocateOrCreateForUpdate devuelve el item de la clave (creándolo en cero si no existe) bloqueado.
	LocateOrCreateForUpdate(ctx context.Context, key entity.StockKey, now time.Time) (*entity.StockItem, error)
	// ListForUpdate bloquea todos los items del producto en la bodega, ordenados por id.
	ListForUpdate(ctx context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error)
	ListByProductWarehouse(ctx context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error)
	// ListByFEFO lista los items por expiry_date ASC (sin vencimiento al final).
	ListByFEFO(ctx context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error)
	Update(ctx context.Context, item *entity.StockItem) error
	SoftDelete(ctx context.Context, tenantID, id string, at time.Time) error
	Paginate(ctx context.Context, f StockItemFilter) (*Page[entity.StockItem], error)
}
