package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

// ReserveInput retención de disponible para un documento (reference_type, reference_id).
// Con StockItemID se reserva sobre ese item; si no, sobre el primer item (orden FEFO) del producto
// en la bodega que cubra la cantidad, filtrando por lote/ubicación si vienen.
type ReserveInput struct {
	TenantID      string
	ActorID       string
	ProductID     string
	WarehouseID   string
	StockItemID   string
	BatchNumber   string
	LocationID    string
	Quantity      valueobject.Quantity
	ReferenceType string
	ReferenceID   string
	ExpiresAt     *time.Time
}

// Reserve verifica quantity_available >= solicitada bajo bloqueo y persiste la reserva.
func (s *Service) Reserve(ctx context.Context, in ReserveInput) (*entity.Reservation, error) {
	if err := requireIDs("tenant_id", in.TenantID, "actor_id", in.ActorID,
		"reference_type", in.ReferenceType, "reference_id", in.ReferenceID); err != nil {
		return nil, err
	}
	if in.StockItemID == "" {
		if err := requireIDs("product_id", in.ProductID, "warehouse_id", in.WarehouseID); err != nil {
			return nil, err
		}
	}
	if err := requirePositive(in.Quantity); err != nil {
		return nil, err
	}
	if in.ExpiresAt != nil && !in.ExpiresAt.After(s.now()) {
		return nil, domain.InvalidArgument("expires_at", "expires_at must be in the future")
	}

	var res *entity.Reservation
	err := s.tx.Run(ctx, func(r Repos) error {
		now := s.now()
		item, err := s.pickReservable(ctx, r, in)
		if err != nil {
			return err
		}
		if err := item.Reserve(in.Quantity, now); err != nil {
			return err
		}
		if err := r.StockItems.Update(ctx, item); err != nil {
			return err
		}
		res = &entity.Reservation{
			ID:               s.newID(),
			TenantID:         in.TenantID,
			StockItemID:      item.ID,
			WarehouseID:      item.WarehouseID,
			ProductID:        item.ProductID,
			ReferenceType:    in.ReferenceType,
			ReferenceID:      in.ReferenceID,
			QuantityReserved: in.Quantity,
			ExpiresAt:        in.ExpiresAt,
			CreatedBy:        in.ActorID,
			CreatedAt:        now,
		}
		return r.Reservations.Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Str("tenant_id", in.TenantID).
		Str("reservation_id", res.ID).
		Str("stock_item_id", res.StockItemID).
		Str("quantity", in.Quantity.String()).
		Msg("inventory: reserva creada")
	return res, nil
}

func (s *Service) pickReservable(ctx context.Context, r Repos, in ReserveInput) (*entity.StockItem, error) {
	if in.StockItemID != "" {
		item, err := r.StockItems.GetByIDForUpdate(ctx, in.TenantID, in.StockItemID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, domain.NotFound("stock item", in.StockItemID)
		}
		return item, nil
	}

	items, err := r.StockItems.ListForUpdate(ctx, in.TenantID, in.ProductID, in.WarehouseID)
	if err != nil {
		return nil, err
	}
	inventory.SortStockItemsFEFO(items)
	best := valueobject.ZeroQuantity
	for _, it := range items {
		if in.BatchNumber != "" && it.BatchNumber != in.BatchNumber {
			continue
		}
		if in.LocationID != "" && it.LocationID != in.LocationID {
			continue
		}
		if it.QuantityAvailable.GreaterThanOrEqual(in.Quantity) {
			return it, nil
		}
		if it.QuantityAvailable.GreaterThan(best) {
			best = it.QuantityAvailable
		}
	}
	return nil, domain.NegativeStock(in.Quantity.Decimal(), best.Decimal())
}

// ReleaseReservation devuelve la cantidad reservada al disponible y borra la reserva.
// Una reserva inexistente o ya liberada devuelve false sin error.
func (s *Service) ReleaseReservation(ctx context.Context, tenantID, actorID, reservationID string) (bool, error) {
	if err := requireIDs("tenant_id", tenantID, "actor_id", actorID); err != nil {
		return false, err
	}
	if reservationID == "" {
		return false, nil
	}
	released := false
	err := s.tx.Run(ctx, func(r Repos) error {
		res, err := r.Reservations.GetByIDForUpdate(ctx, tenantID, reservationID)
		if err != nil || res == nil {
			return err
		}
		if err := s.releaseLocked(ctx, r, res, s.now()); err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if released {
		s.log.Debug().Str("tenant_id", tenantID).Str("reservation_id", reservationID).Str("actor_id", actorID).
			Msg("inventory: reserva liberada")
	}
	return released, nil
}

func (s *Service) releaseLocked(ctx context.Context, r Repos, res *entity.Reservation, now time.Time) error {
	item, err := r.StockItems.GetByIDForUpdate(ctx, res.TenantID, res.StockItemID)
	if err != nil {
		return err
	}
	return s.releaseOn(ctx, r, res, item, now)
}

// releaseOn devuelve la reserva al item ya bloqueado (nil si el item no existe) y la borra.
func (s *Service) releaseOn(ctx context.Context, r Repos, res *entity.Reservation, item *entity.StockItem, now time.Time) error {
	if item != nil {
		if err := item.Release(res.QuantityReserved, now); err != nil {
			return err
		}
		if err := r.StockItems.Update(ctx, item); err != nil {
			return err
		}
	}
	return r.Reservations.Delete(ctx, res.TenantID, res.ID)
}

// lockReservation bloquea la reserva que cubre la deducción (mismo producto y bodega).
// Orden de bloqueo: reserva, luego items del producto, luego lotes; igual que ReleaseReservation.
func (s *Service) lockReservation(ctx context.Context, r Repos, in DeductInput) (*entity.Reservation, error) {
	res, err := r.Reservations.GetByIDForUpdate(ctx, in.TenantID, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.NotFound("reservation", in.ReservationID)
	}
	if res.ProductID != in.ProductID || res.WarehouseID != in.WarehouseID {
		return nil, domain.InvalidArgument("reservation_id", "reservation does not belong to this product and warehouse")
	}
	return res, nil
}

// fulfilReservation libera la reserva sobre su item, tomado de los ya bloqueados por ListForUpdate.
func (s *Service) fulfilReservation(ctx context.Context, r Repos, res *entity.Reservation, items []*entity.StockItem, now time.Time) error {
	var item *entity.StockItem
	for _, it := range items {
		if it.ID == res.StockItemID {
			item = it
			break
		}
	}
	return s.releaseOn(ctx, r, res, item, now)
}

// ReleaseExpiredReservations libera hasta limit reservas vencidas. Devuelve cuántas liberó.
func (s *Service) ReleaseExpiredReservations(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 500
	}
	now := s.now()
	expired, err := s.reader.Reservations.ListExpired(ctx, now, limit)
	if err != nil {
		return 0, err
	}
	released := 0
	var errs []error
	for _, res := range expired {
		ok, err := s.ReleaseReservation(ctx, res.TenantID, "system:reservation-expiry", res.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("reservation_id", res.ID).Msg("inventory: no se pudo liberar reserva vencida")
			errs = append(errs, err)
			continue
		}
		if ok {
			released++
		}
	}
	if released > 0 {
		s.log.Info().Int("released", released).Msg("inventory: reservas vencidas liberadas")
	}
	return released, errors.Join(errs...)
}

