package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// ReplenishmentSuggestion sugerencia de reposición para un saldo bajo su punto de reorden.
type ReplenishmentSuggestion struct {
	StockItemID        string
	ProductID          string
	WarehouseID        string
	BatchNumber        string
	CurrentStock       valueobject.Quantity
	ReorderPoint       valueobject.Quantity
	IdealStock         valueobject.Quantity // maximum_quantity, o ReorderPoint * 1.5 si no hay máximo
	SuggestedOrderQty  valueobject.Quantity // IdealStock - CurrentStock
	UnitCost           decimal.Decimal      // costo promedio móvil
	EstimatedOrderCost valueobject.Money    // SuggestedOrderQty * UnitCost
	Priority           int                  // 1 = más urgente
}

var idealFactor = decimal.RequireFromString("1.5")

// ReplenishmentList devuelve los saldos bajo punto de reorden con la cantidad sugerida de pedido,
// priorizados por déficit relativo. warehouseID vacío considera todas las bodegas del tenant.
func (s *Service) ReplenishmentList(ctx context.Context, tenantID, warehouseID string) ([]ReplenishmentSuggestion, error) {
	if err := requireIDs("tenant_id", tenantID); err != nil {
		return nil, err
	}

	suggestions := []ReplenishmentSuggestion{}
	for page := 1; ; page++ {
		res, err := s.reader.StockItems.Paginate(ctx, repository.StockItemFilter{
			TenantID:          tenantID,
			WarehouseID:       warehouseID,
			BelowReorderPoint: true,
			Page:              page,
			PerPage:           maxPerPage,
		})
		if err != nil {
			return nil, err
		}
		for _, item := range res.Items {
			if !item.IsBelowReorderPoint() {
				continue
			}
			ideal := item.MaximumQuantity
			if !ideal.IsPositive() {
				ideal = item.ReorderPoint.Mul(idealFactor)
			}
			suggested := ideal.Sub(item.QuantityOnHand)
			if suggested.IsNegative() {
				suggested = valueobject.ZeroQuantity
			}
			suggestions = append(suggestions, ReplenishmentSuggestion{
				StockItemID:        item.ID,
				ProductID:          item.ProductID,
				WarehouseID:        item.WarehouseID,
				BatchNumber:        item.BatchNumber,
				CurrentStock:       item.QuantityOnHand,
				ReorderPoint:       item.ReorderPoint,
				IdealStock:         ideal,
				SuggestedOrderQty:  suggested,
				UnitCost:           item.AverageCost,
				EstimatedOrderCost: s.money(item.AverageCost).MulQuantity(suggested),
			})
		}
		if page >= res.LastPage {
			break
		}
	}

	// Mayor déficit relativo primero; desempate por déficit absoluto.
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		ra := deficitRatio(a)
		rb := deficitRatio(b)
		if !ra.Equal(rb) {
			return ra.GreaterThan(rb)
		}
		return a.ReorderPoint.Sub(a.CurrentStock).GreaterThan(b.ReorderPoint.Sub(b.CurrentStock))
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}

func deficitRatio(s ReplenishmentSuggestion) decimal.Decimal {
	if !s.ReorderPoint.IsPositive() {
		return decimal.Zero
	}
	return s.ReorderPoint.Sub(s.CurrentStock).Decimal().DivRound(s.ReorderPoint.Decimal(), valueobject.IntermediateScale)
}
