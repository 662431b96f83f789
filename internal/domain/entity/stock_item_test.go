package entity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

var t0 = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func saldo(onHand, reserved int64) *entity.StockItem {
	item := entity.NewStockItem("s1", entity.StockKey{TenantID: "t1", ProductID: "p1", WarehouseID: "w1"}, t0)
	item.Increase(valueobject.QuantityFromInt(onHand), t0)
	if reserved > 0 {
		if err := item.Reserve(valueobject.QuantityFromInt(reserved), t0); err != nil {
			panic(err)
		}
	}
	return item
}

// ──────────────────────────────────────────────────────────────────────────────
// Reservas
// ──────────────────────────────────────────────────────────────────────────────

func TestStockItem_ReserveYRelease(t *testing.T) {
	item := saldo(10, 4)
	assert.Equal(t, "6.0000", item.QuantityAvailable.String())

	require.NoError(t, item.Release(valueobject.QuantityFromInt(4), t0.Add(time.Minute)))
	assert.Equal(t, "0.0000", item.QuantityReserved.String())
	assert.Equal(t, "10.0000", item.QuantityAvailable.String())
	assert.True(t, item.Balanced())
	assert.Equal(t, t0.Add(time.Minute), item.UpdatedAt)
}

func TestStockItem_ReleaseMayorQueLoReservadoEsConflicto(t *testing.T) {
	item := saldo(10, 3)

	err := item.Release(valueobject.QuantityFromInt(5), t0.Add(time.Minute))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Equal(t, "quantity_reserved", domain.FieldOf(err))
	assert.Contains(t, err.Error(), "requested 5.0000, available 3.0000")

	// el saldo queda intacto
	assert.Equal(t, "3.0000", item.QuantityReserved.String())
	assert.Equal(t, "7.0000", item.QuantityAvailable.String())
	assert.Equal(t, t0, item.UpdatedAt)
}

func TestStockItem_ReserveSobreElDisponible(t *testing.T) {
	item := saldo(10, 8)

	err := item.Reserve(valueobject.QuantityFromInt(3), t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
	assert.Equal(t, "8.0000", item.QuantityReserved.String())
}

// ──────────────────────────────────────────────────────────────────────────────
// Salidas
// ──────────────────────────────────────────────────────────────────────────────

func TestStockItem_DecreaseNoTocaLoReservado(t *testing.T) {
	item := saldo(10, 6)

	err := item.Decrease(valueobject.QuantityFromInt(5), t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))

	require.NoError(t, item.Decrease(valueobject.QuantityFromInt(4), t0))
	assert.Equal(t, "6.0000", item.QuantityOnHand.String())
	assert.False(t, item.IsEmpty())
	assert.True(t, item.Balanced())
}
