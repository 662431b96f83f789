package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// CreateBatchInput alta de lote: suma al saldo del item del lote y registra una entrada.
type CreateBatchInput struct {
	TenantID                  string
	ActorID                   string
	WarehouseID               string
	ProductID                 string
	UomID                     string
	BatchNumber               string
	LotNumber                 string
	SerialNumber              string
	ExpiryDate                *time.Time
	Quantity                  valueobject.Quantity
	CostPrice                 decimal.Decimal
	CostingMethod             entity.CostingMethod
	StockLocationID           string
	MovementDate              *time.Time
	IsPharmaceuticalCompliant bool
	ReferenceType             string
	ReferenceID               string
	Notes                     string
}

// CreateBatch valida cantidad > 0 antes de persistir. costing_method por defecto fifo.
func (s *Service) CreateBatch(ctx context.Context, in CreateBatchInput) (*entity.Batch, error) {
	if err := requirePositive(in.Quantity); err != nil {
		return nil, err
	}
	if err := requireIDs("tenant_id", in.TenantID, "actor_id", in.ActorID,
		"warehouse_id", in.WarehouseID, "product_id", in.ProductID); err != nil {
		return nil, err
	}
	if in.CostPrice.IsNegative() {
		return nil, domain.InvalidArgument("cost_price", "cost_price must not be negative")
	}
	costing := in.CostingMethod
	if costing == "" {
		costing = entity.CostingMethodFIFO
	}
	if !costing.IsValid() {
		return nil, domain.InvalidArgument("costing_method", "unknown costing method: "+string(costing))
	}
	compliant := s.isCompliant(in.TenantID, in.ProductID, in.IsPharmaceuticalCompliant)
	if err := inventory.CheckBatchFields(compliant, in.BatchNumber, in.ExpiryDate); err != nil {
		return nil, err
	}

	var (
		batch *entity.Batch
		entry *entity.LedgerEntry
	)
	err := s.tx.Run(ctx, func(r Repos) error {
		cost := in.CostPrice
		e, b, err := s.receive(ctx, r, receipt{
			key: entity.StockKey{
				TenantID:    in.TenantID,
				ProductID:   in.ProductID,
				WarehouseID: in.WarehouseID,
				LocationID:  in.StockLocationID,
				BatchNumber: in.BatchNumber,
			},
			typ:           entity.TransactionTypeReceipt,
			uomID:         in.UomID,
			qty:           in.Quantity,
			unitCost:      &cost,
			lot:           in.LotNumber,
			serial:        in.SerialNumber,
			expiry:        in.ExpiryDate,
			costing:       costing,
			movementDate:  in.MovementDate,
			compliant:     compliant,
			referenceType: in.ReferenceType,
			referenceID:   in.ReferenceID,
			notes:         in.Notes,
			actorID:       in.ActorID,
		}, s.now())
		batch, entry = b, e
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("tenant_id", in.TenantID).Str("batch_id", batch.ID).Str("batch_number", batch.BatchNumber).
		Msg("inventory: lote creado")
	s.publish(ctx, entry)
	return batch, nil
}

// ShowBatch busca un lote por id.
func (s *Service) ShowBatch(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	b, err := s.reader.Batches.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, domain.NotFound("batch", id)
	}
	return b, nil
}

// UpdateBatchInput campos editables de un lote; nil = sin cambio.
// Un cambio de Quantity se registra como ajuste (adjustment_add / adjustment_remove) sobre el item.
type UpdateBatchInput struct {
	TenantID        string
	ActorID         string
	ID              string
	LotNumber       *string
	SerialNumber    *string
	ExpiryDate      *time.Time
	CostPrice       *decimal.Decimal
	CostingMethod   *entity.CostingMethod
	StockLocationID *string
	Quantity        *valueobject.Quantity
	Notes           string
}

// UpdateBatch bloquea primero el StockItem padre y luego el lote.
func (s *Service) UpdateBatch(ctx context.Context, in UpdateBatchInput) (*entity.Batch, error) {
	if err := requireIDs("tenant_id", in.TenantID, "actor_id", in.ActorID, "id", in.ID); err != nil {
		return nil, err
	}
	if in.Quantity != nil && in.Quantity.IsNegative() {
		return nil, domain.InvalidArgument("quantity", "quantity must not be negative")
	}
	if in.CostPrice != nil && in.CostPrice.IsNegative() {
		return nil, domain.InvalidArgument("cost_price", "cost_price must not be negative")
	}
	if in.CostingMethod != nil && !in.CostingMethod.IsValid() {
		return nil, domain.InvalidArgument("costing_method", "unknown costing method: "+string(*in.CostingMethod))
	}

	var (
		batch *entity.Batch
		entry *entity.LedgerEntry
	)
	err := s.tx.Run(ctx, func(r Repos) error {
		now := s.now()
		item, b, err := lockBatch(ctx, r, in.TenantID, in.ID)
		if err != nil {
			return err
		}
		if in.LotNumber != nil {
			b.LotNumber = *in.LotNumber
		}
		if in.SerialNumber != nil {
			b.SerialNumber = *in.SerialNumber
		}
		if in.ExpiryDate != nil {
			b.ExpiryDate = in.ExpiryDate
			if item.BatchNumber != "" && item.BatchNumber == b.BatchNumber {
				item.ExpiryDate = in.ExpiryDate
			}
		}
		if in.CostPrice != nil {
			b.CostPrice = in.CostPrice.Round(valueobject.QuantityScale)
		}
		if in.CostingMethod != nil {
			b.CostingMethod = *in.CostingMethod
		}
		if in.StockLocationID != nil {
			b.StockLocationID = *in.StockLocationID
		}

		if in.Quantity != nil && !in.Quantity.Equal(b.Quantity) {
			delta := in.Quantity.Sub(b.Quantity)
			typ := entity.TransactionTypeAdjustmentAdd
			if delta.IsNegative() {
				typ = entity.TransactionTypeAdjustmentRemove
				if err := item.Decrease(delta.Neg(), now); err != nil {
					return err
				}
			} else {
				item.AverageCost = inventory.CostCalculator(item.QuantityOnHand, item.AverageCost, delta, b.CostPrice)
				item.Increase(delta, now)
				b.ReceivedQty = b.ReceivedQty.Add(delta)
			}
			b.Quantity = *in.Quantity
			mag := delta
			if mag.IsNegative() {
				mag = mag.Neg()
			}
			entry = s.batchEntry(typ, inventory.PlanLine{Batch: b, Quantity: mag, UnitCost: b.CostPrice},
				item.QuantityOnHand, "", b.CostPrice, false, now)
			entry.Notes, entry.CreatedBy = in.Notes, in.ActorID
			entry.ReferenceType, entry.ReferenceID = "batch", b.ID
		}
		b.UpdatedAt = now
		item.UpdatedAt = now
		if err := r.StockItems.Update(ctx, item); err != nil {
			return err
		}
		if err := r.Batches.Update(ctx, b); err != nil {
			return err
		}
		batch = b
		if entry != nil {
			return r.Ledger.Append(ctx, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entryList(entry)...)
	return batch, nil
}

// DeleteBatch borrado lógico; solo con cantidad remanente cero. Los asientos que lo citan se conservan.
func (s *Service) DeleteBatch(ctx context.Context, tenantID, actorID, id string) (bool, error) {
	if err := requireIDs("tenant_id", tenantID, "actor_id", actorID, "id", id); err != nil {
		return false, err
	}
	err := s.tx.Run(ctx, func(r Repos) error {
		_, b, err := lockBatch(ctx, r, tenantID, id)
		if err != nil {
			return err
		}
		if !b.Quantity.IsZero() {
			return &domain.Error{
				Kind:    domain.ErrInvalidArgument,
				Field:   "quantity",
				Message: "batch with remaining quantity " + b.Quantity.String() + " cannot be deleted",
			}
		}
		return r.Batches.SoftDelete(ctx, tenantID, id, s.now())
	})
	if err != nil {
		return false, err
	}
	s.log.Debug().Str("tenant_id", tenantID).Str("batch_id", id).Str("actor_id", actorID).Msg("inventory: lote eliminado")
	return true, nil
}

// lockBatch respeta el orden de bloqueo StockItem -> Batch.
func lockBatch(ctx context.Context, r Repos, tenantID, id string) (*entity.StockItem, *entity.Batch, error) {
	peek, err := r.Batches.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if peek == nil {
		return nil, nil, domain.NotFound("batch", id)
	}
	item, err := r.StockItems.GetByIDForUpdate(ctx, tenantID, peek.StockItemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, domain.NotFound("stock item", peek.StockItemID)
	}
	b, err := r.Batches.GetByIDForUpdate(ctx, tenantID, id)
	if err != nil {
		return nil, nil, err
	}
	if b == nil {
		return nil, nil, domain.NotFound("batch", id)
	}
	return item, b, nil
}

func entryList(e *entity.LedgerEntry) []*entity.LedgerEntry {
	if e == nil {
		return nil
	}
	return []*entity.LedgerEntry{e}
}
