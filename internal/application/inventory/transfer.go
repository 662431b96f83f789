package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

// TransferInput traslado de un producto entre dos bodegas del mismo tenant.
type TransferInput struct {
	TenantID                  string
	ActorID                   string
	IdempotencyKey            string
	ProductID                 string
	FromWarehouseID           string
	ToWarehouseID             string
	UomID                     string
	Quantity                  valueobject.Quantity
	Strategy                  inventory.Strategy
	BatchNumber               string
	IsPharmaceuticalCompliant bool
	ReferenceType             string
	ReferenceID               string
	Notes                     string
}

// Transfer resta de la bodega origen y suma en la destino en una sola transacción.
// Por cada capa consumida en origen se emite un transfer_out y se recrea la capa en destino
// (mismo costo, lote y vencimiento) con un transfer_in.
func (s *Service) Transfer(ctx context.Context, in TransferInput) ([]*entity.LedgerEntry, error) {
	if err := inventory.CheckManual(in.Strategy, in.BatchNumber); err != nil {
		return nil, err
	}
	if err := requireIDs("tenant_id", in.TenantID, "actor_id", in.ActorID, "product_id", in.ProductID,
		"from_warehouse_id", in.FromWarehouseID, "to_warehouse_id", in.ToWarehouseID); err != nil {
		return nil, err
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, domain.InvalidArgument("to_warehouse_id", "source and destination warehouses must differ")
	}
	if err := requirePositive(in.Quantity); err != nil {
		return nil, err
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
	var entries []*entity.LedgerEntry
	err = s.tx.Run(ctx, func(r Repos) error {
		now := s.now()
		// Orden de bloqueo determinista por id de bodega.
		var source []*entity.StockItem
		for _, wh := range sortedPair(in.FromWarehouseID, in.ToWarehouseID) {
			items, err := r.StockItems.ListForUpdate(ctx, in.TenantID, in.ProductID, wh)
			if err != nil {
				return err
			}
			if wh == in.FromWarehouseID {
				source = items
			}
		}

		d, err := s.draw(ctx, r, source, repository.BatchQuery{
			TenantID:    in.TenantID,
			ProductID:   in.ProductID,
			WarehouseID: in.FromWarehouseID,
			UomID:       in.UomID,
			BatchNumber: in.BatchNumber,
		}, strategy, in.Quantity, now)
		if err != nil {
			return err
		}

		for i, l := range d.plan.Lines {
			out := s.batchEntry(entity.TransactionTypeTransferOut, l, d.balances[i], in.UomID, l.UnitCost, compliant, now)
			out.ReferenceType, out.ReferenceID, out.Notes, out.CreatedBy = in.ReferenceType, in.ReferenceID, in.Notes, in.ActorID
			if err := r.Ledger.Append(ctx, out); err != nil {
				return err
			}
			entries = append(entries, out)

			b := l.Batch
			batchNumber := ""
			if !b.SystemGenerated {
				batchNumber = b.BatchNumber
			}
			cost := l.UnitCost
			movementDate := b.MovementDate
			uom := in.UomID
			if uom == "" {
				uom = b.UomID
			}
			inEntry, _, err := s.receive(ctx, r, receipt{
				key: entity.StockKey{
					TenantID:    in.TenantID,
					ProductID:   in.ProductID,
					WarehouseID: in.ToWarehouseID,
					BatchNumber: batchNumber,
				},
				typ:           entity.TransactionTypeTransferIn,
				uomID:         uom,
				qty:           l.Quantity,
				unitCost:      &cost,
				lot:           b.LotNumber,
				serial:        b.SerialNumber,
				expiry:        b.ExpiryDate,
				costing:       b.CostingMethod,
				movementDate:  &movementDate,
				compliant:     compliant,
				referenceType: in.ReferenceType,
				referenceID:   in.ReferenceID,
				notes:         in.Notes,
				actorID:       in.ActorID,
			}, now)
			if err != nil {
				return err
			}
			entries = append(entries, inEntry)
		}
		return nil
	})
	done(err)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("tenant_id", in.TenantID).
		Str("product_id", in.ProductID).
		Str("from", in.FromWarehouseID).
		Str("to", in.ToWarehouseID).
		Str("quantity", in.Quantity.String()).
		Msg("inventory: traslado registrado")
	s.publish(ctx, entries...)
	return entries, nil
}

func sortedPair(a, b string) [2]string {
	if b < a {
		return [2]string{b, a}
	}
	return [2]string{a, b}
}
