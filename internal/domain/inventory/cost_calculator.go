package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// CostCalculator implementa el costo promedio móvil (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Pasos intermedios a 8 decimales, resultado half-up a 4.
func CostCalculator(stockActual valueobject.Quantity, costoActual decimal.Decimal, cantEntrada valueobject.Quantity, costoEntrada decimal.Decimal) decimal.Decimal {
	if stockActual.IsNegative() {
		stockActual = valueobject.ZeroQuantity
	}
	sum := stockActual.Add(cantEntrada)
	if !sum.IsPositive() {
		return decimal.Zero
	}
	num := stockActual.Decimal().Mul(costoActual).Round(valueobject.IntermediateScale).
		Add(cantEntrada.Decimal().Mul(costoEntrada).Round(valueobject.IntermediateScale))
	return num.DivRound(sum.Decimal(), valueobject.IntermediateScale).Round(valueobject.QuantityScale)
}

// WeightedAverage Σ(q_i × c_i) / Σ(q_i) sobre las líneas consumidas; cero si no hay cantidad.
func WeightedAverage(lines []PlanLine) decimal.Decimal {
	total := decimal.Zero
	qty := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity.Decimal().Mul(l.UnitCost))
		qty = qty.Add(l.Quantity.Decimal())
	}
	if qty.IsZero() {
		return decimal.Zero
	}
	return total.DivRound(qty, valueobject.IntermediateScale).Round(valueobject.QuantityScale)
}

// LinesTotalCost Σ(q_i × c_i) a 4 decimales.
func LinesTotalCost(lines []PlanLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Quantity.Decimal().Mul(l.UnitCost))
	}
	return total.Round(valueobject.QuantityScale)
}
