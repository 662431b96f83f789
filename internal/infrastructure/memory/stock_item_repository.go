package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.StockItemRepository = (*stockItemRepo)(nil)

type stockItemRepo struct{ base }

func copyItem(it *entity.StockItem) *entity.StockItem {
	cp := *it
	return &cp
}

func live(it *entity.StockItem, tenantID string) bool {
	return it.DeletedAt == nil && it.TenantID == tenantID
}

func (r *stockItemRepo) GetByID(_ context.Context, tenantID, id string) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.access(func(st *state) error {
		if it, ok := st.items[id]; ok && live(it, tenantID) {
			out = copyItem(it)
		}
		return nil
	})
	return out, err
}

func (r *stockItemRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	return r.GetByID(ctx, tenantID, id)
}

func (r *stockItemRepo) FindByKeyForUpdate(_ context.Context, key entity.StockKey) (*entity.StockItem, error) {
	var out *entity.StockItem
	err := r.access(func(st *state) error {
		for _, it := range st.items {
			if live(it, key.TenantID) && it.Key() == key {
				out = copyItem(it)
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *stockItemRepo) LocateOrCreateForUpdate(ctx context.Context, key entity.StockKey, now time.Time) (*entity.StockItem, error) {
	it, err := r.FindByKeyForUpdate(ctx, key)
	if err != nil || it != nil {
		return it, err
	}
	created := entity.NewStockItem(r.newID(), key, now)
	err = r.write(func(st *state) error {
		st.items[created.ID] = copyItem(created)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *stockItemRepo) list(tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	var out []*entity.StockItem
	err := r.access(func(st *state) error {
		for _, it := range st.items {
			if live(it, tenantID) && it.ProductID == productID && it.WarehouseID == warehouseID {
				out = append(out, copyItem(it))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *stockItemRepo) ListForUpdate(_ context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	return r.list(tenantID, productID, warehouseID)
}

func (r *stockItemRepo) ListByProductWarehouse(_ context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	return r.list(tenantID, productID, warehouseID)
}

func (r *stockItemRepo) ListByFEFO(_ context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	out, err := r.list(tenantID, productID, warehouseID)
	inventory.SortStockItemsFEFO(out)
	return out, err
}

func (r *stockItemRepo) Update(_ context.Context, item *entity.StockItem) error {
	return r.write(func(st *state) error {
		cur, ok := st.items[item.ID]
		if !ok || !live(cur, item.TenantID) {
			return domain.NotFound("stock item", item.ID)
		}
		st.items[item.ID] = copyItem(item)
		return nil
	})
}

func (r *stockItemRepo) SoftDelete(_ context.Context, tenantID, id string, at time.Time) error {
	return r.write(func(st *state) error {
		cur, ok := st.items[id]
		if !ok || !live(cur, tenantID) {
			return domain.NotFound("stock item", id)
		}
		cur.DeletedAt = &at
		return nil
	})
}

func (r *stockItemRepo) Paginate(_ context.Context, f repository.StockItemFilter) (*repository.Page[entity.StockItem], error) {
	var all []*entity.StockItem
	err := r.access(func(st *state) error {
		for _, it := range st.items {
			if !live(it, f.TenantID) {
				continue
			}
			if f.ProductID != "" && it.ProductID != f.ProductID {
				continue
			}
			if f.WarehouseID != "" && it.WarehouseID != f.WarehouseID {
				continue
			}
			if f.BelowReorderPoint && !it.IsBelowReorderPoint() {
				continue
			}
			all = append(all, copyItem(it))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.WarehouseID != b.WarehouseID {
			return a.WarehouseID < b.WarehouseID
		}
		return a.ID < b.ID
	})
	return paginate(all, f.Page, f.PerPage), nil
}

func paginate[T any](all []*T, page, perPage int) *repository.Page[T] {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 15
	}
	from := repository.Offset(page, perPage)
	if from > len(all) {
		from = len(all)
	}
	to := from + perPage
	if to > len(all) {
		to = len(all)
	}
	return repository.NewPage(all[from:to], len(all), page, perPage)
}
