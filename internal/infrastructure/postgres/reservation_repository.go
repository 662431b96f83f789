package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo reservas sobre stock_reservations. Liberar = borrar la fila.
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador de reservas.
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, tenant_id, stock_item_id, warehouse_id, product_id, reference_type, reference_id,
	quantity_reserved, expires_at, created_by, created_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var (
		res entity.Reservation
		qty decimal.Decimal
	)
	if err := row.Scan(
		&res.ID, &res.TenantID, &res.StockItemID, &res.WarehouseID, &res.ProductID, &res.ReferenceType, &res.ReferenceID,
		&qty, &res.ExpiresAt, &res.CreatedBy, &res.CreatedAt,
	); err != nil {
		return nil, err
	}
	res.QuantityReserved = valueobject.QuantityFromDecimal(qty)
	return &res, nil
}

// Create inserta la reserva.
func (r *ReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_reservations (`+reservationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		res.ID, res.TenantID, res.StockItemID, res.WarehouseID, res.ProductID, res.ReferenceType, res.ReferenceID,
		res.QuantityReserved.Decimal(), res.ExpiresAt, res.CreatedBy, res.CreatedAt)
	if err != nil {
		return fmt.Errorf("create reservation: %w", mapError(err))
	}
	return nil
}

// GetByIDForUpdate bloquea la reserva; (nil, nil) si ya fue liberada.
func (r *ReservationRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.Reservation, error) {
	if !validID(id) {
		return nil, nil
	}
	res, err := scanReservation(r.q.QueryRow(ctx, `
		SELECT `+reservationColumns+` FROM stock_reservations
		WHERE id = $1 AND tenant_id = $2
		FOR UPDATE`, id, tenantID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation: %w", mapError(err))
	}
	return res, nil
}

// Delete elimina la reserva.
func (r *ReservationRepo) Delete(ctx context.Context, tenantID, id string) error {
	if !validID(id) {
		return domain.NotFound("reservation", id)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_reservations WHERE id = $1 AND tenant_id = $2`, id, tenantID)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("reservation", id)
	}
	return nil
}

// CountByStockItem reservas abiertas sobre el saldo.
func (r *ReservationRepo) CountByStockItem(ctx context.Context, tenantID, stockItemID string) (int, error) {
	if !validID(stockItemID) {
		return 0, nil
	}
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM stock_reservations WHERE tenant_id = $1 AND stock_item_id = $2`,
		tenantID, stockItemID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count reservations: %w", mapError(err))
	}
	return n, nil
}

// ListExpired reservas vencidas de todos los tenants, las más antiguas primero.
func (r *ReservationRepo) ListExpired(ctx context.Context, at time.Time, limit int) ([]*entity.Reservation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+reservationColumns+` FROM stock_reservations
		WHERE expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY expires_at, id
		LIMIT $2`, at, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", mapError(err))
	}
	defer rows.Close()
	var out []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", mapError(err))
	}
	return out, nil
}
