package entity

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

// Reservation retiene cantidad disponible de un StockItem para un documento (pedido, orden, etc.).
type Reservation struct {
	ID               string
	TenantID         string
	StockItemID      string
	WarehouseID      string
	ProductID        string
	ReferenceType    string
	ReferenceID      string
	QuantityReserved valueobject.Quantity
	ExpiresAt        *time.Time
	CreatedBy        string
	CreatedAt        time.Time
}

// IsExpired indica si la reserva tiene vencimiento y ya pasó.
func (r *Reservation) IsExpired(at time.Time) bool {
	return r.ExpiresAt != nil && !r.ExpiresAt.After(at)
}
