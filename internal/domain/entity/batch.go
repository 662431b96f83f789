package entity

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// CostingMethod método de costeo del lote.
type CostingMethod string

const (
	CostingMethodFIFO   CostingMethod = "fifo"
	CostingMethodLIFO   CostingMethod = "lifo"
	CostingMethodManual CostingMethod = "manual"
)

func (m CostingMethod) IsValid() bool {
	switch m {
	case CostingMethodFIFO, CostingMethodLIFO, CostingMethodManual:
		return true
	}
	return false
}

// Batch es una capa de costo (lote o recepción) de un StockItem.
// Quantity es lo que queda en el lote; solo baja a través del resolvedor de deducción.
type Batch struct {
	ID              string
	TenantID        string
	StockItemID     string
	WarehouseID     string
	ProductID       string
	UomID           string
	BatchNumber     string
	SystemGenerated bool // BatchNumber generado (recepción sin lote)
	LotNumber       string
	SerialNumber    string
	ExpiryDate      *time.Time
	Quantity        valueobject.Quantity
	ReceivedQty     valueobject.Quantity
	CostPrice       decimal.Decimal
	CostingMethod   CostingMethod
	StockLocationID string
	MovementDate    time.Time // fecha de la recepción
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// Take descuenta qty del lote.
func (b *Batch) Take(qty valueobject.Quantity, now time.Time) error {
	if qty.GreaterThan(b.Quantity) {
		return domain.InsufficientStock(qty.Decimal(), b.Quantity.Decimal())
	}
	b.Quantity = b.Quantity.Sub(qty)
	b.UpdatedAt = now
	return nil
}

// IsExpired indica si el lote venció en la fecha dada.
func (b *Batch) IsExpired(at time.Time) bool {
	return b.ExpiryDate != nil && b.ExpiryDate.Before(at)
}

// HasStock indica cantidad remanente positiva.
func (b *Batch) HasStock() bool {
	return b.Quantity.IsPositive()
}
