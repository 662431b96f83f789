package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo ledger append-only en stock_transactions. Un trigger rechaza UPDATE/DELETE.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del ledger.
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerColumns = `id, tenant_id, stock_item_id, batch_id, transaction_type, warehouse_id, product_id, uom_id,
	quantity, unit_cost, total_cost, balance_after, batch_number, lot_number, serial_number, expiry_date,
	is_pharmaceutical_compliant, reference_type, reference_id, notes, created_by, created_at`

// Append inserta los movimientos en un solo batch de pgx, en orden.
func (r *LedgerRepo) Append(ctx context.Context, entries ...*entity.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO stock_transactions (`+ledgerColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`,
			e.ID, e.TenantID, e.StockItemID, nullUUID(e.BatchID), string(e.TransactionType), e.WarehouseID, e.ProductID, e.UomID,
			e.Quantity.Decimal(), e.UnitCost, e.TotalCost, e.BalanceAfter.Decimal(), e.BatchNumber, e.LotNumber, e.SerialNumber,
			dateOnly(e.ExpiryDate), e.IsPharmaceuticalCompliant, e.ReferenceType, e.ReferenceID, e.Notes, e.CreatedBy, e.CreatedAt)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("append ledger entry: %w", mapError(err))
		}
	}
	return nil
}

// Paginate más recientes primero (orden de inserción inverso).
func (r *LedgerRepo) Paginate(ctx context.Context, f repository.LedgerFilter) (*repository.Page[entity.LedgerEntry], error) {
	page, perPage := normalizePage(f.Page, f.PerPage)
	where := []string{"tenant_id = $1"}
	args := []any{f.TenantID}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		where = append(where, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	if f.TransactionType != "" {
		args = append(args, string(f.TransactionType))
		where = append(where, fmt.Sprintf("transaction_type = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM stock_transactions WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count ledger: %w", mapError(err))
	}
	args = append(args, perPage, repository.Offset(page, perPage))
	rows, err := r.q.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM stock_transactions WHERE %s
		ORDER BY seq DESC
		LIMIT $%d OFFSET $%d`, ledgerColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("paginate ledger: %w", mapError(err))
	}
	defer rows.Close()

	var items []*entity.LedgerEntry
	for rows.Next() {
		var (
			e            entity.LedgerEntry
			batchID      *string
			typ          string
			qty, balance decimal.Decimal
		)
		if err := rows.Scan(
			&e.ID, &e.TenantID, &e.StockItemID, &batchID, &typ, &e.WarehouseID, &e.ProductID, &e.UomID,
			&qty, &e.UnitCost, &e.TotalCost, &balance, &e.BatchNumber, &e.LotNumber, &e.SerialNumber, &e.ExpiryDate,
			&e.IsPharmaceuticalCompliant, &e.ReferenceType, &e.ReferenceID, &e.Notes, &e.CreatedBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.BatchID = deref(batchID)
		e.TransactionType = entity.TransactionType(typ)
		e.Quantity = valueobject.QuantityFromDecimal(qty)
		e.BalanceAfter = valueobject.QuantityFromDecimal(balance)
		items = append(items, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("paginate ledger: %w", mapError(err))
	}
	return repository.NewPage(items, total, page, perPage), nil
}
