package inventory

import (
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// PlanLine una línea del plan de consumo: cuánto se toma de qué lote y a qué costo.
type PlanLine struct {
	Batch    *entity.Batch
	Quantity valueobject.Quantity
	UnitCost decimal.Decimal
}

// Plan resultado del resolvedor de deducción.
type Plan struct {
	Lines        []PlanLine
	Total        valueobject.Quantity
	WeightedCost decimal.Decimal
	TotalCost    decimal.Decimal
}

// Resolve recorre los candidatos en el orden recibido y toma min(restante del lote, lo que falta)
// hasta cubrir lo solicitado. budget limita lo consumible por StockItemID (disponible, no reservado);
// con budget nil no hay límite. No muta los lotes.
func Resolve(candidates []*entity.Batch, requested valueobject.Quantity, budget map[string]valueobject.Quantity) (*Plan, error) {
	if !requested.IsPositive() {
		return nil, domain.InvalidArgument("quantity", "quantity must be greater than zero")
	}
	var left map[string]valueobject.Quantity
	if budget != nil {
		left = make(map[string]valueobject.Quantity, len(budget))
		for k, v := range budget {
			left[k] = v
		}
	}

	plan := &Plan{}
	need := requested
	for _, b := range candidates {
		if !need.IsPositive() {
			break
		}
		take := valueobject.MinQuantity(b.Quantity, need)
		if left != nil {
			take = valueobject.MinQuantity(take, left[b.StockItemID])
		}
		if !take.IsPositive() {
			continue
		}
		plan.Lines = append(plan.Lines, PlanLine{Batch: b, Quantity: take, UnitCost: b.CostPrice})
		need = need.Sub(take)
		if left != nil {
			left[b.StockItemID] = left[b.StockItemID].Sub(take)
		}
	}
	if need.IsPositive() {
		return nil, domain.InsufficientStock(requested.Decimal(), requested.Sub(need).Decimal())
	}

	plan.Total = requested
	plan.recompute()
	return plan, nil
}

func (p *Plan) recompute() {
	p.WeightedCost = WeightedAverage(p.Lines)
	p.TotalCost = LinesTotalCost(p.Lines)
}

// FillZeroCost valoriza con cost las líneas cuya capa no tiene costo y recalcula los totales.
func (p *Plan) FillZeroCost(cost decimal.Decimal) {
	for i := range p.Lines {
		if p.Lines[i].UnitCost.IsZero() {
			p.Lines[i].UnitCost = cost
		}
	}
	p.recompute()
}

// TakenByStockItem suma lo consumido por StockItemID.
func (p *Plan) TakenByStockItem() map[string]valueobject.Quantity {
	out := make(map[string]valueobject.Quantity)
	for _, l := range p.Lines {
		out[l.Batch.StockItemID] = out[l.Batch.StockItemID].Add(l.Quantity)
	}
	return out
}
