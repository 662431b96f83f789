package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.ReservationRepository = (*reservationRepo)(nil)

type reservationRepo struct{ base }

func (r *reservationRepo) Create(_ context.Context, res *entity.Reservation) error {
	return r.write(func(st *state) error {
		cp := *res
		st.reservations[res.ID] = &cp
		return nil
	})
}

func (r *reservationRepo) GetByIDForUpdate(_ context.Context, tenantID, id string) (*entity.Reservation, error) {
	var out *entity.Reservation
	err := r.access(func(st *state) error {
		if res, ok := st.reservations[id]; ok && res.TenantID == tenantID {
			cp := *res
			out = &cp
		}
		return nil
	})
	return out, err
}

func (r *reservationRepo) Delete(_ context.Context, tenantID, id string) error {
	return r.write(func(st *state) error {
		if res, ok := st.reservations[id]; ok && res.TenantID == tenantID {
			delete(st.reservations, id)
		}
		return nil
	})
}

func (r *reservationRepo) CountByStockItem(_ context.Context, tenantID, stockItemID string) (int, error) {
	n := 0
	err := r.access(func(st *state) error {
		for _, res := range st.reservations {
			if res.TenantID == tenantID && res.StockItemID == stockItemID {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *reservationRepo) ListExpired(_ context.Context, at time.Time, limit int) ([]*entity.Reservation, error) {
	var out []*entity.Reservation
	err := r.access(func(st *state) error {
		for _, res := range st.reservations {
			if res.IsExpired(at) {
				cp := *res
				out = append(out, &cp)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(*out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}
