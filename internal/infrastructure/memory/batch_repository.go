package memory

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.BatchRepository = (*batchRepo)(nil)

type batchRepo struct{ base }

func copyBatch(b *entity.Batch) *entity.Batch {
	cp := *b
	return &cp
}

func (r *batchRepo) Create(_ context.Context, b *entity.Batch) error {
	return r.write(func(st *state) error {
		for _, cur := range st.batches {
			if cur.DeletedAt == nil && cur.StockItemID == b.StockItemID && cur.BatchNumber == b.BatchNumber {
				return &domain.Error{Kind: domain.ErrConflict, Field: "batch_number", Message: "batch already exists: " + b.BatchNumber}
			}
		}
		st.batches[b.ID] = copyBatch(b)
		return nil
	})
}

func (r *batchRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.access(func(st *state) error {
		if b, ok := st.batches[id]; ok && b.DeletedAt == nil && b.TenantID == tenantID {
			out = copyBatch(b)
		}
		return nil
	})
	return out, err
}

func (r *batchRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *batchRepo) FindByNumberForUpdate(_ context.Context, tenantID, stockItemID, batchNumber string) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.access(func(st *state) error {
		for _, b := range st.batches {
			if b.DeletedAt == nil && b.TenantID == tenantID && b.StockItemID == stockItemID && b.BatchNumber == batchNumber {
				out = copyBatch(b)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func matches(b *entity.Batch, q repository.BatchQuery) bool {
	switch {
	case b.DeletedAt != nil, !b.HasStock():
		return false
	case b.TenantID != q.TenantID, b.ProductID != q.ProductID, b.WarehouseID != q.WarehouseID:
		return false
	case q.UomID != "" && b.UomID != "" && b.UomID != q.UomID:
		return false
	case q.BatchNumber != "" && b.BatchNumber != q.BatchNumber:
		return false
	case q.StockItemID != "" && b.StockItemID != q.StockItemID:
		return false
	}
	return true
}

func (r *batchRepo) find(q repository.BatchQuery, st inventory.Strategy) ([]*entity.Batch, error) {
	var out []*entity.Batch
	err := r.access(func(s *state) error {
		for _, b := range s.batches {
			if matches(b, q) {
				out = append(out, copyBatch(b))
			}
		}
		return nil
	})
	inventory.SortBatches(st, out)
	return out, err
}

func (r *batchRepo) FindByFIFO(_ context.Context, q repository.BatchQuery) ([]*entity.Batch, error) {
	return r.find(q, inventory.StrategyFIFO)
}

func (r *batchRepo) FindByLIFO(_ context.Context, q repository.BatchQuery) ([]*entity.Batch, error) {
	return r.find(q, inventory.StrategyLIFO)
}

func (r *batchRepo) FindByFEFO(_ context.Context, q repository.BatchQuery) ([]*entity.Batch, error) {
	return r.find(q, inventory.StrategyFEFO)
}

func (r *batchRepo) Update(_ context.Context, b *entity.Batch) error {
	return r.write(func(st *state) error {
		cur, ok := st.batches[b.ID]
		if !ok || cur.DeletedAt != nil || cur.TenantID != b.TenantID {
			return domain.NotFound("batch", b.ID)
		}
		if b.Quantity.IsNegative() {
			return domain.InvalidArgument("quantity", "batch quantity must not be negative")
		}
		st.batches[b.ID] = copyBatch(b)
		return nil
	})
}

func (r *batchRepo) SoftDelete(_ context.Context, tenantID, id string, at time.Time) error {
	return r.write(func(st *state) error {
		cur, ok := st.batches[id]
		if !ok || cur.DeletedAt != nil || cur.TenantID != tenantID {
			return domain.NotFound("batch", id)
		}
		cur.DeletedAt = &at
		return nil
	})
}
