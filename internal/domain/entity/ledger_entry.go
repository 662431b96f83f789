package entity

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// LedgerEntry es un movimiento inmutable del libro de stock (append-only).
// Quantity es siempre magnitud positiva; la dirección la da TransactionType.
// Las correcciones se hacen con asientos compensatorios, nunca editando.
type LedgerEntry struct {
	ID                        string
	TenantID                  string
	StockItemID               string
	BatchID                   string
	TransactionType           TransactionType
	WarehouseID               string
	ProductID                 string
	UomID                     string
	Quantity                  valueobject.Quantity
	UnitCost                  decimal.Decimal
	TotalCost                 decimal.Decimal
	BalanceAfter              valueobject.Quantity // on-hand del StockItem tras el movimiento
	BatchNumber               string
	LotNumber                 string
	SerialNumber              string
	ExpiryDate                *time.Time
	IsPharmaceuticalCompliant bool
	ReferenceType             string
	ReferenceID               string
	Notes                     string
	CreatedBy                 string
	CreatedAt                 time.Time
}

// SignedQuantity devuelve la cantidad con signo según la dirección del tipo.
func (e *LedgerEntry) SignedQuantity() valueobject.Quantity {
	if e.TransactionType.IsOutbound() {
		return e.Quantity.Neg()
	}
	return e.Quantity
}
