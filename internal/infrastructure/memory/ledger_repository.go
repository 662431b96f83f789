package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.LedgerRepository = (*ledgerRepo)(nil)

type ledgerRepo struct{ base }

func (r *ledgerRepo) Append(_ context.Context, entries ...*entity.LedgerEntry) error {
	return r.write(func(st *state) error {
		for _, e := range entries {
			cp := *e
			st.ledger = append(st.ledger, &cp)
		}
		return nil
	})
}

// Paginate recorre el libro desde el final: más recientes primero.
func (r *ledgerRepo) Paginate(_ context.Context, f repository.LedgerFilter) (*repository.Page[entity.LedgerEntry], error) {
	var all []*entity.LedgerEntry
	err := r.access(func(st *state) error {
		for i := len(st.ledger) - 1; i >= 0; i-- {
			e := st.ledger[i]
			if e.TenantID != f.TenantID {
				continue
			}
			if f.ProductID != "" && e.ProductID != f.ProductID {
				continue
			}
			if f.WarehouseID != "" && e.WarehouseID != f.WarehouseID {
				continue
			}
			if f.TransactionType != "" && e.TransactionType != f.TransactionType {
				continue
			}
			cp := *e
			all = append(all, &cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(all, f.Page, f.PerPage), nil
}
