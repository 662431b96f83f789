package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

// TransactionInput entrada de RecordTransaction. Quantity es magnitud positiva; la dirección la da Type.
// UnitCost nil en una entrada usa el costo promedio actual del item.
type TransactionInput struct {
	TenantID                  string
	ActorID                   string
	IdempotencyKey            string
	Type                      entity.TransactionType
	WarehouseID               string
	ProductID                 string
	UomID                     string
	LocationID                string
	Quantity                  valueobject.Quantity
	UnitCost                  *decimal.Decimal
	BatchNumber               string
	LotNumber                 string
	SerialNumber              string
	ExpiryDate                *time.Time
	CostingMethod             entity.CostingMethod
	IsPharmaceuticalCompliant bool
	Strategy                  inventory.Strategy // solo salidas
	ReferenceType             string
	ReferenceID               string
	Notes                     string
}

func (in TransactionInput) key() entity.StockKey {
	return entity.StockKey{
		TenantID:    in.TenantID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		LocationID:  in.LocationID,
		BatchNumber: in.BatchNumber,
	}
}

// RecordTransaction registra un movimiento: guarda de cumplimiento fuera de la tx, luego bloquea
// el StockItem, valida stock negativo, aplica el delta y agrega el asiento. Una salida sin lote que
// abarca varios items asienta un movimiento por item; se devuelve el primero.
func (s *Service) RecordTransaction(ctx context.Context, in TransactionInput) (*entity.LedgerEntry, error) {
	if err := requireIDs("tenant_id", in.TenantID, "actor_id", in.ActorID,
		"warehouse_id", in.WarehouseID, "product_id", in.ProductID); err != nil {
		return nil, err
	}
	dir, ok := in.Type.Direction()
	if !ok {
		return nil, domain.InvalidArgument("transaction_type", "unknown transaction type: "+string(in.Type))
	}
	if err := requirePositive(in.Quantity); err != nil {
		return nil, err
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.InvalidArgument("unit_cost", "unit_cost must not be negative")
	}
	if in.CostingMethod != "" && !in.CostingMethod.IsValid() {
		return nil, domain.InvalidArgument("costing_method", "unknown costing method: "+string(in.CostingMethod))
	}

	compliant := s.isCompliant(in.TenantID, in.ProductID, in.IsPharmaceuticalCompliant)
	if err := inventory.CheckBatchFields(compliant, in.BatchNumber, in.ExpiryDate); err != nil {
		return nil, err
	}
	var strategy inventory.Strategy
	if dir == entity.DirectionOutbound {
		if err := inventory.CheckManual(in.Strategy, in.BatchNumber); err != nil {
			return nil, err
		}
		st, err := inventory.ResolveStrategy(compliant, in.Strategy)
		if err != nil {
			return nil, err
		}
		strategy = st
	}

	done, err := s.claim(ctx, in.TenantID, in.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	var entries []*entity.LedgerEntry
	err = s.tx.Run(ctx, func(r Repos) error {
		now := s.now()
		if dir == entity.DirectionInbound {
			e, _, err := s.receive(ctx, r, receiptFromTransaction(in, compliant), now)
			entries = []*entity.LedgerEntry{e}
			return err
		}
		es, err := s.issue(ctx, r, in, compliant, strategy, now)
		entries = es
		return err
	})
	done(err)
	if err != nil {
		return nil, err
	}
	entry := entries[0]

	s.log.Debug().
		Str("tenant_id", in.TenantID).
		Str("type", string(in.Type)).
		Str("product_id", in.ProductID).
		Str("warehouse_id", in.WarehouseID).
		Str("quantity", in.Quantity.String()).
		Str("balance_after", entry.BalanceAfter.String()).
		Int("entries", len(entries)).
		Msg("inventory: movimiento registrado")
	s.publish(ctx, entries...)
	return entry, nil
}

// receipt describe una entrada (recepción, ajuste positivo, transferencia entrante, lote nuevo).
type receipt struct {
	key           entity.StockKey
	typ           entity.TransactionType
	uomID         string
	qty           valueobject.Quantity
	unitCost      *decimal.Decimal
	lot           string
	serial        string
	expiry        *time.Time
	costing       entity.CostingMethod
	movementDate  *time.Time
	compliant     bool
	referenceType string
	referenceID   string
	notes         string
	actorID       string
}

func receiptFromTransaction(in TransactionInput, compliant bool) receipt {
	return receipt{
		key:           in.key(),
		typ:           in.Type,
		uomID:         in.UomID,
		qty:           in.Quantity,
		unitCost:      in.UnitCost,
		lot:           in.LotNumber,
		serial:        in.SerialNumber,
		expiry:        in.ExpiryDate,
		costing:       in.CostingMethod,
		compliant:     compliant,
		referenceType: in.ReferenceType,
		referenceID:   in.ReferenceID,
		notes:         in.Notes,
		actorID:       in.ActorID,
	}
}

// receive localiza o crea el StockItem (bloqueado), recalcula el costo promedio móvil, suma
// el on-hand, crea o amplía la capa de costo y agrega el asiento de entrada.
func (s *Service) receive(ctx context.Context, r Repos, rc receipt, now time.Time) (*entity.LedgerEntry, *entity.Batch, error) {
	item, err := r.StockItems.LocateOrCreateForUpdate(ctx, rc.key, now)
	if err != nil {
		return nil, nil, err
	}
	cost := item.AverageCost
	if rc.unitCost != nil {
		cost = rc.unitCost.Round(valueobject.QuantityScale)
	}
	item.AverageCost = inventory.CostCalculator(item.QuantityOnHand, item.AverageCost, rc.qty, cost)
	if item.ExpiryDate == nil && rc.expiry != nil && item.BatchNumber != "" {
		item.ExpiryDate = rc.expiry
	}
	item.Increase(rc.qty, now)
	if err := r.StockItems.Update(ctx, item); err != nil {
		return nil, nil, err
	}

	batch, err := s.addLayer(ctx, r, item, rc, cost, now)
	if err != nil {
		return nil, nil, err
	}

	entry := &entity.LedgerEntry{
		ID:                        s.newID(),
		TenantID:                  item.TenantID,
		StockItemID:               item.ID,
		BatchID:                   batch.ID,
		TransactionType:           rc.typ,
		WarehouseID:               item.WarehouseID,
		ProductID:                 item.ProductID,
		UomID:                     rc.uomID,
		Quantity:                  rc.qty,
		UnitCost:                  cost,
		TotalCost:                 s.money(cost).MulQuantity(rc.qty).Amount(),
		BalanceAfter:              item.QuantityOnHand,
		BatchNumber:               item.BatchNumber,
		LotNumber:                 rc.lot,
		SerialNumber:              rc.serial,
		ExpiryDate:                rc.expiry,
		IsPharmaceuticalCompliant: rc.compliant,
		ReferenceType:             rc.referenceType,
		ReferenceID:               rc.referenceID,
		Notes:                     rc.notes,
		CreatedBy:                 rc.actorID,
		CreatedAt:                 now,
	}
	if err := r.Ledger.Append(ctx, entry); err != nil {
		return nil, nil, err
	}
	return entry, batch, nil
}

// addLayer agrega la cantidad a la capa del lote (si ya existe ese número en el item) o crea una nueva.
// Las entradas sin lote generan una capa con clave RCV-<id>.
func (s *Service) addLayer(ctx context.Context, r Repos, item *entity.StockItem, rc receipt, cost decimal.Decimal, now time.Time) (*entity.Batch, error) {
	if item.BatchNumber != "" {
		existing, err := r.Batches.FindByNumberForUpdate(ctx, item.TenantID, item.ID, item.BatchNumber)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			existing.CostPrice = inventory.CostCalculator(existing.Quantity, existing.CostPrice, rc.qty, cost)
			existing.Quantity = existing.Quantity.Add(rc.qty)
			existing.ReceivedQty = existing.ReceivedQty.Add(rc.qty)
			if existing.ExpiryDate == nil {
				existing.ExpiryDate = rc.expiry
			}
			if existing.LotNumber == "" {
				existing.LotNumber = rc.lot
			}
			existing.UpdatedAt = now
			if err := r.Batches.Update(ctx, existing); err != nil {
				return nil, err
			}
			return existing, nil
		}
	}

	costing := rc.costing
	if costing == "" {
		costing = entity.CostingMethodFIFO
	}
	movementDate := now
	if rc.movementDate != nil {
		movementDate = *rc.movementDate
	}
	id := s.newID()
	b := &entity.Batch{
		ID:              id,
		TenantID:        item.TenantID,
		StockItemID:     item.ID,
		WarehouseID:     item.WarehouseID,
		ProductID:       item.ProductID,
		UomID:           rc.uomID,
		BatchNumber:     item.BatchNumber,
		LotNumber:       rc.lot,
		SerialNumber:    rc.serial,
		ExpiryDate:      rc.expiry,
		Quantity:        rc.qty,
		ReceivedQty:     rc.qty,
		CostPrice:       cost,
		CostingMethod:   costing,
		StockLocationID: item.LocationID,
		MovementDate:    movementDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if b.BatchNumber == "" {
		b.BatchNumber = "RCV-" + id
		b.SystemGenerated = true
	}
	if err := r.Batches.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// issue salida por RecordTransaction. Con lote consume las capas de ese item; sin lote bloquea los
// items del producto en la bodega (filtrando por ubicación) y reparte según la estrategia.
// Asienta un movimiento por item tocado.
func (s *Service) issue(ctx context.Context, r Repos, in TransactionInput, compliant bool, st inventory.Strategy, now time.Time) ([]*entity.LedgerEntry, error) {
	items, err := s.issueSources(ctx, r, in)
	if err != nil {
		return nil, err
	}
	avail := valueobject.ZeroQuantity
	for _, it := range items {
		avail = avail.Add(it.QuantityAvailable)
	}
	if in.Quantity.GreaterThan(avail) {
		return nil, domain.NegativeStock(in.Quantity.Decimal(), avail.Decimal())
	}

	q := repository.BatchQuery{
		TenantID:    in.TenantID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
	}
	if in.BatchNumber != "" {
		q.StockItemID = items[0].ID
	}
	d, err := s.draw(ctx, r, items, q, st, in.Quantity, now)
	if err != nil {
		return nil, asNegativeStock(err)
	}
	if in.UnitCost != nil {
		d.plan.FillZeroCost(in.UnitCost.Round(valueobject.QuantityScale))
	}

	itemByID := make(map[string]*entity.StockItem, len(items))
	for _, it := range items {
		itemByID[it.ID] = it
	}
	// items en el orden en que el plan los consume
	var order []string
	byItem := make(map[string][]inventory.PlanLine, len(items))
	for _, l := range d.plan.Lines {
		id := l.Batch.StockItemID
		if _, seen := byItem[id]; !seen {
			order = append(order, id)
		}
		byItem[id] = append(byItem[id], l)
	}
	entries := make([]*entity.LedgerEntry, 0, len(order))
	for _, id := range order {
		item, lines := itemByID[id], byItem[id]
		taken := valueobject.ZeroQuantity
		for _, l := range lines {
			taken = taken.Add(l.Quantity)
		}
		expiry := in.ExpiryDate
		if expiry == nil {
			expiry = item.ExpiryDate
		}
		entry := &entity.LedgerEntry{
			ID:                        s.newID(),
			TenantID:                  in.TenantID,
			StockItemID:               item.ID,
			TransactionType:           in.Type,
			WarehouseID:               in.WarehouseID,
			ProductID:                 in.ProductID,
			UomID:                     in.UomID,
			Quantity:                  taken,
			UnitCost:                  inventory.WeightedAverage(lines),
			TotalCost:                 inventory.LinesTotalCost(lines),
			BalanceAfter:              item.QuantityOnHand,
			BatchNumber:               item.BatchNumber,
			LotNumber:                 in.LotNumber,
			SerialNumber:              in.SerialNumber,
			ExpiryDate:                expiry,
			IsPharmaceuticalCompliant: compliant,
			ReferenceType:             in.ReferenceType,
			ReferenceID:               in.ReferenceID,
			Notes:                     in.Notes,
			CreatedBy:                 in.ActorID,
			CreatedAt:                 now,
		}
		if len(lines) == 1 {
			entry.BatchID = lines[0].Batch.ID
		}
		entries = append(entries, entry)
	}
	if err := r.Ledger.Append(ctx, entries...); err != nil {
		return nil, err
	}
	return entries, nil
}

// issueSources bloquea los items de los que puede salir la mercancía.
func (s *Service) issueSources(ctx context.Context, r Repos, in TransactionInput) ([]*entity.StockItem, error) {
	if in.BatchNumber != "" {
		item, err := r.StockItems.FindByKeyForUpdate(ctx, in.key())
		if err != nil || item == nil {
			return nil, err
		}
		return []*entity.StockItem{item}, nil
	}
	all, err := r.StockItems.ListForUpdate(ctx, in.TenantID, in.ProductID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	if in.LocationID == "" {
		return all, nil
	}
	items := all[:0:0]
	for _, it := range all {
		if it.LocationID == in.LocationID {
			items = append(items, it)
		}
	}
	return items, nil
}

// asNegativeStock reclasifica un faltante de capas como violación de la guarda de stock negativo.
func asNegativeStock(err error) error {
	var de *domain.Error
	if errors.As(err, &de) && errors.Is(err, domain.ErrInsufficientStock) && de.Requested != nil && de.Available != nil {
		return domain.NegativeStock(*de.Requested, *de.Available)
	}
	return err
}
