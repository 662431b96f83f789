package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

// tresLotes: A (más antiguo, vence 2027-06), B (vence primero), C (más nuevo, sin vencimiento).
func tresLotes() []*entity.Batch {
	return []*entity.Batch{
		{ID: "c", StockItemID: "s1", BatchNumber: "C", MovementDate: day("2026-03-01"), CreatedAt: day("2026-03-01"),
			Quantity: valueobject.QuantityFromInt(10), CostPrice: decimal.NewFromInt(7)},
		{ID: "a", StockItemID: "s1", BatchNumber: "A", MovementDate: day("2026-01-01"), CreatedAt: day("2026-01-01"),
			ExpiryDate: dayPtr("2027-06-01"), Quantity: valueobject.QuantityFromInt(10), CostPrice: decimal.NewFromInt(5)},
		{ID: "b", StockItemID: "s1", BatchNumber: "B", MovementDate: day("2026-02-01"), CreatedAt: day("2026-02-01"),
			ExpiryDate: dayPtr("2026-12-01"), Quantity: valueobject.QuantityFromInt(10), CostPrice: decimal.NewFromInt(6)},
	}
}

func numeros(p *inventory.Plan) []string {
	out := make([]string, 0, len(p.Lines))
	for _, l := range p.Lines {
		out = append(out, l.Batch.BatchNumber+":"+l.Quantity.String())
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Orden por estrategia
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_OrdenPorEstrategia(t *testing.T) {
	cases := []struct {
		name     string
		strategy inventory.Strategy
		lines    []string
		weighted string
	}{
		{"fifo consume el recibo más antiguo", inventory.StrategyFIFO, []string{"A:10.0000", "B:5.0000"}, "5.3333"},
		{"lifo consume el recibo más nuevo", inventory.StrategyLIFO, []string{"C:10.0000", "B:5.0000"}, "6.6667"},
		{"fefo consume el que vence primero", inventory.StrategyFEFO, []string{"B:10.0000", "A:5.0000"}, "5.6667"},
		{"manual usa orden fifo", inventory.StrategyManual, []string{"A:10.0000", "B:5.0000"}, "5.3333"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batches := tresLotes()
			inventory.SortBatches(tc.strategy, batches)

			plan, err := inventory.Resolve(batches, valueobject.QuantityFromInt(15), nil)
			require.NoError(t, err)
			assert.Equal(t, tc.lines, numeros(plan))
			assert.Equal(t, "15.0000", plan.Total.String())
			assert.Equal(t, tc.weighted, plan.WeightedCost.StringFixed(4))

			sum := valueobject.ZeroQuantity
			for _, l := range plan.Lines {
				sum = sum.Add(l.Quantity)
			}
			assert.True(t, sum.Equal(plan.Total), "la suma de líneas debe igualar lo solicitado")
		})
	}
}

func TestSortBatches_FEFOSinVencimientoAlFinal(t *testing.T) {
	batches := tresLotes()
	inventory.SortBatches(inventory.StrategyFEFO, batches)
	assert.Equal(t, "B", batches[0].BatchNumber)
	assert.Equal(t, "A", batches[1].BatchNumber)
	assert.Equal(t, "C", batches[2].BatchNumber)
}

func TestSortBatches_EmpateUsaCreatedAt(t *testing.T) {
	same := day("2026-01-01")
	batches := []*entity.Batch{
		{ID: "2", BatchNumber: "late", MovementDate: same, CreatedAt: same.Add(time.Hour)},
		{ID: "1", BatchNumber: "early", MovementDate: same, CreatedAt: same},
	}
	inventory.SortBatches(inventory.StrategyFIFO, batches)
	assert.Equal(t, "early", batches[0].BatchNumber)

	inventory.SortBatches(inventory.StrategyLIFO, batches)
	assert.Equal(t, "late", batches[0].BatchNumber)
}

func TestSortStockItemsFEFO_EsEstable(t *testing.T) {
	items := []*entity.StockItem{
		{ID: "x", BatchNumber: "sin-vencimiento"},
		{ID: "y", BatchNumber: "tarde", ExpiryDate: dayPtr("2027-01-01")},
		{ID: "z", BatchNumber: "pronto", ExpiryDate: dayPtr("2026-06-01")},
	}
	inventory.SortStockItemsFEFO(items)
	first := []string{items[0].ID, items[1].ID, items[2].ID}
	inventory.SortStockItemsFEFO(items)
	assert.Equal(t, []string{"z", "y", "x"}, first)
	assert.Equal(t, first, []string{items[0].ID, items[1].ID, items[2].ID})
}

// ──────────────────────────────────────────────────────────────────────────────
// Faltantes y presupuesto
// ──────────────────────────────────────────────────────────────────────────────

func TestResolve_StockInsuficiente(t *testing.T) {
	batches := tresLotes()
	inventory.SortBatches(inventory.StrategyFIFO, batches)

	_, err := inventory.Resolve(batches, valueobject.QuantityFromInt(31), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Contains(t, err.Error(), "requested 31.0000, available 30.0000")
}

func TestResolve_NoConsumeLoReservado(t *testing.T) {
	batches := tresLotes()
	inventory.SortBatches(inventory.StrategyFIFO, batches)
	budget := map[string]valueobject.Quantity{"s1": valueobject.QuantityFromInt(12)}

	plan, err := inventory.Resolve(batches, valueobject.QuantityFromInt(12), budget)
	require.NoError(t, err)
	assert.Equal(t, []string{"A:10.0000", "B:2.0000"}, numeros(plan))
	assert.Equal(t, "12.0000", budget["s1"].String(), "el presupuesto del llamador no se muta")

	_, err = inventory.Resolve(batches, valueobject.QuantityFromInt(13), budget)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
}

func TestResolve_RechazaCantidadNoPositiva(t *testing.T) {
	_, err := inventory.Resolve(tresLotes(), valueobject.ZeroQuantity, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
}

func TestResolve_NoMutaLosLotes(t *testing.T) {
	batches := tresLotes()
	_, err := inventory.Resolve(batches, valueobject.QuantityFromInt(25), nil)
	require.NoError(t, err)
	for _, b := range batches {
		assert.Equal(t, "10.0000", b.Quantity.String())
	}
}

func TestPlan_TakenByStockItem(t *testing.T) {
	batches := tresLotes()
	batches[0].StockItemID = "s2"
	plan, err := inventory.Resolve(batches, valueobject.QuantityFromInt(25), nil)
	require.NoError(t, err)
	taken := plan.TakenByStockItem()
	assert.Equal(t, "10.0000", taken["s2"].String())
	assert.Equal(t, "15.0000", taken["s1"].String())
}

func TestPlan_FillZeroCostRecalculaTotales(t *testing.T) {
	batches := tresLotes()
	batches[1].CostPrice = decimal.Zero // A sin costo
	inventory.SortBatches(inventory.StrategyFIFO, batches)
	plan, err := inventory.Resolve(batches, valueobject.QuantityFromInt(15), nil)
	require.NoError(t, err)
	require.Equal(t, "0.0000", plan.Lines[0].UnitCost.StringFixed(4))

	plan.FillZeroCost(decimal.NewFromInt(4))

	assert.Equal(t, "4", plan.Lines[0].UnitCost.String())
	assert.Equal(t, "6", plan.Lines[1].UnitCost.String(), "las capas con costo no cambian")
	// 10×4 + 5×6 = 70; 70/15
	assert.Equal(t, "70.0000", plan.TotalCost.StringFixed(4))
	assert.Equal(t, inventory.WeightedAverage(plan.Lines).String(), plan.WeightedCost.String())
	assert.Equal(t, "4.6667", plan.WeightedCost.StringFixed(4))
}
