package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// LedgerFilter filtros del listado de movimientos. ProductID es obligatorio en la API pública.
type LedgerFilter struct {
	TenantID        string
	ProductID       string
	WarehouseID     string
	TransactionType entity.TransactionType
	Page            int
	PerPage         int
}

// LedgerRepository libro mayor append-only: no hay Update ni Delete.
type LedgerRepository interface {
	Append(ctx context.Context, entries ...*entity.LedgerEntry) error
	// Paginate ordena por created_at DESC.
	Paginate(ctx context.Context, f LedgerFilter) (*Page[entity.LedgerEntry], error)
}
