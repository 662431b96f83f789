package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

func TestCostCalculator_PromedioMovil(t *testing.T) {
	cases := []struct {
		name                  string
		stock, cost, qty, unit string
		want                  string
	}{
		{"bodega vacía toma el costo de la entrada", "0", "0", "100", "5", "5.0000"},
		{"promedio ponderado", "100", "5", "50", "8", "6.0000"},
		{"redondeo half-up a 4 decimales", "1", "1", "2", "2", "1.6667"},
		{"entrada a costo cero diluye", "10", "3", "10", "0", "1.5000"},
		{"stock negativo se trata como cero", "-5", "9", "10", "2", "2.0000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := inventory.CostCalculator(
				valueobject.MustQuantity(tc.stock), decimal.RequireFromString(tc.cost),
				valueobject.MustQuantity(tc.qty), decimal.RequireFromString(tc.unit),
			)
			assert.Equal(t, tc.want, got.StringFixed(4))
		})
	}
}

func TestCostCalculator_SinCantidadDevuelveCero(t *testing.T) {
	got := inventory.CostCalculator(valueobject.ZeroQuantity, decimal.NewFromInt(4), valueobject.ZeroQuantity, decimal.NewFromInt(4))
	assert.True(t, got.IsZero())
}

func TestWeightedAverage_Exacto(t *testing.T) {
	lines := []inventory.PlanLine{
		{Quantity: valueobject.MustQuantity("0.1"), UnitCost: decimal.RequireFromString("3")},
		{Quantity: valueobject.MustQuantity("0.2"), UnitCost: decimal.RequireFromString("6")},
	}
	assert.Equal(t, "5.0000", inventory.WeightedAverage(lines).StringFixed(4))
	assert.True(t, inventory.WeightedAverage(nil).IsZero())
}
