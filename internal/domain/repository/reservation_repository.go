package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ReservationRepository puerto de persistencia de reservas.
type ReservationRepository interface {
	Create(ctx context.Context, r *entity.Reservation) error
	// GetByIDForUpdate devuelve (nil, nil) si la reserva no existe o ya fue liberada.
	GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.Reservation, error)
	Delete(ctx context.Context, tenantID, id string) error
	CountByStockItem(ctx context.Context, tenantID, stockItemID string) (int, error)
	// ListExpired reservas de todos los tenants con expires_at <= at.
	ListExpired(ctx context.Context, at time.Time, limit int) ([]*entity.Reservation, error)
}
