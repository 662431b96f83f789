package entity

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// StockKey identifica un StockItem: (tenant, producto, bodega, ubicación opcional, lote opcional).
// Cadena vacía = sin ubicación / sin lote.
type StockKey struct {
	TenantID    string
	ProductID   string
	WarehouseID string
	LocationID  string
	BatchNumber string
}

// StockItem es el saldo materializado de un StockKey.
// QuantityAvailable se persiste de forma redundante y siempre vale OnHand - Reserved.
type StockItem struct {
	ID                string
	TenantID          string
	ProductID         string
	WarehouseID       string
	LocationID        string
	BatchNumber       string
	ExpiryDate        *time.Time
	QuantityOnHand    valueobject.Quantity
	QuantityReserved  valueobject.Quantity
	QuantityAvailable valueobject.Quantity
	AverageCost       decimal.Decimal // costo promedio móvil, 4 decimales
	ReorderPoint      valueobject.Quantity
	MaximumQuantity   valueobject.Quantity
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         *time.Time
}

// NewStockItem crea un saldo en cero para la clave indicada.
func NewStockItem(id string, key StockKey, now time.Time) *StockItem {
	return &StockItem{
		ID:          id,
		TenantID:    key.TenantID,
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		LocationID:  key.LocationID,
		BatchNumber: key.BatchNumber,
		AverageCost: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Key devuelve la identidad compuesta del item.
func (s *StockItem) Key() StockKey {
	return StockKey{
		TenantID:    s.TenantID,
		ProductID:   s.ProductID,
		WarehouseID: s.WarehouseID,
		LocationID:  s.LocationID,
		BatchNumber: s.BatchNumber,
	}
}

func (s *StockItem) recompute(now time.Time) {
	s.QuantityAvailable = s.QuantityOnHand.Sub(s.QuantityReserved)
	s.UpdatedAt = now
}

// Increase suma al saldo disponible (entradas).
func (s *StockItem) Increase(qty valueobject.Quantity, now time.Time) {
	s.QuantityOnHand = s.QuantityOnHand.Add(qty)
	s.recompute(now)
}

// Decrease resta del saldo. Falla si el disponible no alcanza: el stock reservado no se puede sacar.
func (s *StockItem) Decrease(qty valueobject.Quantity, now time.Time) error {
	if s.QuantityAvailable.Sub(qty).IsNegative() {
		return domain.NegativeStock(qty.Decimal(), s.QuantityAvailable.Decimal())
	}
	s.QuantityOnHand = s.QuantityOnHand.Sub(qty)
	s.recompute(now)
	return nil
}

// Reserve retiene cantidad disponible sin tocar el on-hand.
func (s *StockItem) Reserve(qty valueobject.Quantity, now time.Time) error {
	if qty.GreaterThan(s.QuantityAvailable) {
		return domain.NegativeStock(qty.Decimal(), s.QuantityAvailable.Decimal())
	}
	s.QuantityReserved = s.QuantityReserved.Add(qty)
	s.recompute(now)
	return nil
}

// Release devuelve cantidad reservada al disponible. Liberar más de lo reservado es un conflicto
// y deja el saldo intacto.
func (s *StockItem) Release(qty valueobject.Quantity, now time.Time) error {
	if qty.GreaterThan(s.QuantityReserved) {
		return domain.OverRelease(qty.Decimal(), s.QuantityReserved.Decimal())
	}
	s.QuantityReserved = s.QuantityReserved.Sub(qty)
	s.recompute(now)
	return nil
}

// Balanced verifica available == on_hand - reserved.
func (s *StockItem) Balanced() bool {
	return s.QuantityAvailable.Equal(s.QuantityOnHand.Sub(s.QuantityReserved))
}

// IsEmpty indica saldo y reservas en cero (condición para el borrado lógico).
func (s *StockItem) IsEmpty() bool {
	return s.QuantityOnHand.IsZero() && s.QuantityReserved.IsZero()
}

// IsBelowReorderPoint indica si el on-hand quedó por debajo del punto de reorden configurado.
func (s *StockItem) IsBelowReorderPoint() bool {
	return s.ReorderPoint.IsPositive() && s.QuantityOnHand.LessThan(s.ReorderPoint)
}
