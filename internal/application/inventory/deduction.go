package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// DeductInput entrada de DeductByStrategy. Strategy vacía = fifo (fefo en modo farmacéutico).
// TransactionType vacío = issue; debe ser un tipo de salida.
// ReservationID opcional: la reserva se libera en la misma unidad de trabajo (cumplimiento del documento).
// UnitCost opcional valoriza las capas sin costo; el costo ponderado y el total lo incluyen.
type DeductInput struct {
	TenantID                  string
	ActorID                   string
	IdempotencyKey            string
	ProductID                 string
	WarehouseID               string
	UomID                     string
	Quantity                  valueobject.Quantity
	UnitCost                  *decimal.Decimal
	Strategy                  inventory.Strategy
	BatchNumber               string
	TransactionType           entity.TransactionType
	IsPharmaceuticalCompliant bool
	ReservationID             string
	ReferenceType             string
	ReferenceID               string
	Notes                     string
}

// DeductionLine una línea consumida: lote, cantidad y costo.
type DeductionLine struct {
	LedgerEntryID string
	StockItemID   string
	BatchID       string
	BatchNumber   string
	ExpiryDate    *time.Time
	Quantity      valueobject.Quantity
	UnitCost      decimal.Decimal
}

// DeductionResult resumen de la deducción.
type DeductionResult struct {
	Strategy      inventory.Strategy
	Lines         []DeductionLine
	TotalQuantity valueobject.Quantity
	WeightedCost  valueobject.Money
	TotalCost     valueobject.Money
	Entries       []*entity.LedgerEntry
}

// DeductByStrategy consume lotes según la estrategia, todo o nada. Emite un asiento de salida por
// línea del plan y reduce on-hand/available del StockItem padre. Nunca consume stock reservado.
func (s *Service) DeductByStrategy(ctx context.Context, in DeductInput) (*DeductionResult, error) {
	if err := inventory.CheckManual(in.Strategy, in.BatchNumber); err != nil {
		return nil, err
	}
	if err := requireIDs("tenant_id", in.TenantID, "actor_id", in.ActorID,
		"product_id", in.ProductID, "warehouse_id", in.WarehouseID); err != nil {
		return nil, err
	}
	if err := requirePositive(in.Quantity); err != nil {
		return nil, err
	}
	typ := in.TransactionType
	if typ == "" {
		typ = entity.TransactionTypeIssue
	}
	if !typ.IsOutbound() {
		return nil, domain.InvalidArgument("transaction_type", "deduction requires an outbound transaction type: "+string(typ))
	}
	compliant := s.isCompliant(in.TenantID, in.ProductID, in.IsPharmaceuticalCompliant)
	strategy, err := inventory.ResolveStrategy(compliant, in.Strategy)
	if err != nil {
		return nil, err
	}

	done, err := s.claim(ctx, in.TenantID, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	var res *DeductionResult
	err = s.tx.Run(ctx, func(r Repos) error {
		now := s.now()
		var reservation *entity.Reservation
		if in.ReservationID != "" {
			held, err := s.lockReservation(ctx, r, in)
			if err != nil {
				return err
			}
			reservation = held
		}
		items, err := r.StockItems.ListForUpdate(ctx, in.TenantID, in.ProductID, in.WarehouseID)
		if err != nil {
			return err
		}
		if reservation != nil {
			if err := s.fulfilReservation(ctx, r, reservation, items, now); err != nil {
				return err
			}
		}
		d, err := s.draw(ctx, r, items, repository.BatchQuery{
			TenantID:    in.TenantID,
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			UomID:       in.UomID,
			BatchNumber: in.BatchNumber,
		}, strategy, in.Quantity, now)
		if err != nil {
			return err
		}
		if in.UnitCost != nil {
			d.plan.FillZeroCost(in.UnitCost.Round(valueobject.QuantityScale))
		}

		res = &DeductionResult{
			Strategy:      strategy,
			TotalQuantity: d.plan.Total,
			WeightedCost:  s.money(d.plan.WeightedCost),
			TotalCost:     s.money(d.plan.TotalCost),
		}
		for i, l := range d.plan.Lines {
			e := s.batchEntry(typ, l, d.balances[i], in.UomID, l.UnitCost, compliant, now)
			e.ReferenceType, e.ReferenceID, e.Notes, e.CreatedBy = in.ReferenceType, in.ReferenceID, in.Notes, in.ActorID
			res.Entries = append(res.Entries, e)
			res.Lines = append(res.Lines, DeductionLine{
				LedgerEntryID: e.ID,
				StockItemID:   l.Batch.StockItemID,
				BatchID:       l.Batch.ID,
				BatchNumber:   l.Batch.BatchNumber,
				ExpiryDate:    l.Batch.ExpiryDate,
				Quantity:      l.Quantity,
				UnitCost:      l.UnitCost,
			})
		}
		return r.Ledger.Append(ctx, res.Entries...)
	})
	done(err)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("tenant_id", in.TenantID).
		Str("strategy", string(strategy)).
		Str("product_id", in.ProductID).
		Str("quantity", res.TotalQuantity.String()).
		Int("lines", len(res.Lines)).
		Msg("inventory: deducción aplicada")
	s.publish(ctx, res.Entries...)
	return res, nil
}

// drawn plan aplicado y saldo on-hand del item tras cada línea.
type drawn struct {
	plan     *inventory.Plan
	balances []valueobject.Quantity
}

// draw resuelve el plan sobre los items ya bloqueados (presupuesto = disponible de cada item),
// descuenta los lotes y luego los items.
func (s *Service) draw(ctx context.Context, r Repos, items []*entity.StockItem, q repository.BatchQuery, st inventory.Strategy, qty valueobject.Quantity, now time.Time) (*drawn, error) {
	budget := make(map[string]valueobject.Quantity, len(items))
	for _, it := range items {
		budget[it.ID] = it.QuantityAvailable
	}

	batches, err := findCandidates(ctx, r, st, q)
	if err != nil {
		return nil, err
	}
	if st == inventory.StrategyManual && len(batches) == 0 {
		return nil, domain.NotFound("batch", q.BatchNumber)
	}
	plan, err := inventory.Resolve(batches, qty, budget)
	if err != nil {
		return nil, err
	}

	running := make(map[string]valueobject.Quantity, len(items))
	for _, it := range items {
		running[it.ID] = it.QuantityOnHand
	}
	out := &drawn{plan: plan, balances: make([]valueobject.Quantity, 0, len(plan.Lines))}
	for _, l := range plan.Lines {
		if err := l.Batch.Take(l.Quantity, now); err != nil {
			return nil, err
		}
		if err := r.Batches.Update(ctx, l.Batch); err != nil {
			return nil, err
		}
		running[l.Batch.StockItemID] = running[l.Batch.StockItemID].Sub(l.Quantity)
		out.balances = append(out.balances, running[l.Batch.StockItemID])
	}

	taken := plan.TakenByStockItem()
	for _, it := range items {
		n, ok := taken[it.ID]
		if !ok {
			continue
		}
		if err := it.Decrease(n, now); err != nil {
			return nil, err
		}
		if err := r.StockItems.Update(ctx, it); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Service) batchEntry(typ entity.TransactionType, l inventory.PlanLine, balance valueobject.Quantity, uomID string, unitCost decimal.Decimal, compliant bool, now time.Time) *entity.LedgerEntry {
	b := l.Batch
	uom := uomID
	if uom == "" {
		uom = b.UomID
	}
	batchNumber := b.BatchNumber
	if b.SystemGenerated {
		batchNumber = ""
	}
	return &entity.LedgerEntry{
		ID:                        s.newID(),
		TenantID:                  b.TenantID,
		StockItemID:               b.StockItemID,
		BatchID:                   b.ID,
		TransactionType:           typ,
		WarehouseID:               b.WarehouseID,
		ProductID:                 b.ProductID,
		UomID:                     uom,
		Quantity:                  l.Quantity,
		UnitCost:                  unitCost,
		TotalCost:                 s.money(unitCost).MulQuantity(l.Quantity).Amount(),
		BalanceAfter:              balance,
		BatchNumber:               batchNumber,
		LotNumber:                 b.LotNumber,
		SerialNumber:              b.SerialNumber,
		ExpiryDate:                b.ExpiryDate,
		IsPharmaceuticalCompliant: compliant,
		CreatedAt:                 now,
	}
}
