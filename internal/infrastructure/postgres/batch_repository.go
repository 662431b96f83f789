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

var _ repository.BatchRepository = (*BatchRepo)(nil)

// BatchRepo implementación de BatchRepository sobre PostgreSQL.
type BatchRepo struct {
	q Querier
}

// NewBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewBatchRepository(q Querier) *BatchRepo {
	return &BatchRepo{q: q}
}

const batchColumns = `id, tenant_id, stock_item_id, warehouse_id, product_id, uom_id, batch_number, system_generated,
	lot_number, serial_number, expiry_date, quantity, received_quantity, cost_price, costing_method,
	stock_location_id, movement_date, created_at, updated_at, deleted_at`

// Candidatos de deducción: lotes vivos con saldo; uom, lote y stock item son filtros opcionales.
const batchCandidates = `
	SELECT ` + batchColumns + ` FROM batches
	WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3
	  AND deleted_at IS NULL AND quantity > 0
	  AND ($4::text = '' OR uom_id = '' OR uom_id = $4::text)
	  AND ($5::text = '' OR batch_number = $5::text)
	  AND ($6::text = '' OR stock_item_id::text = $6::text)`

const (
	orderFIFO = ` ORDER BY movement_date ASC, created_at ASC, id ASC FOR UPDATE`
	orderLIFO = ` ORDER BY movement_date DESC, created_at DESC, id DESC FOR UPDATE`
	orderFEFO = ` ORDER BY expiry_date ASC NULLS LAST, movement_date ASC, created_at ASC, id ASC FOR UPDATE`
)

func scanBatch(row pgx.Row) (*entity.Batch, error) {
	var (
		b             entity.Batch
		qty, received decimal.Decimal
		method        string
	)
	err := row.Scan(
		&b.ID, &b.TenantID, &b.StockItemID, &b.WarehouseID, &b.ProductID, &b.UomID, &b.BatchNumber, &b.SystemGenerated,
		&b.LotNumber, &b.SerialNumber, &b.ExpiryDate, &qty, &received, &b.CostPrice, &method,
		&b.StockLocationID, &b.MovementDate, &b.CreatedAt, &b.UpdatedAt, &b.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	b.Quantity = valueobject.QuantityFromDecimal(qty)
	b.ReceivedQty = valueobject.QuantityFromDecimal(received)
	b.CostingMethod = entity.CostingMethod(method)
	return &b, nil
}

func (r *BatchRepo) one(ctx context.Context, op, query string, args ...any) (*entity.Batch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return b, nil
}

func (r *BatchRepo) many(ctx context.Context, op, query string, q repository.BatchQuery) ([]*entity.Batch, error) {
	if q.StockItemID != "" && !validID(q.StockItemID) {
		return nil, nil
	}
	rows, err := r.q.Query(ctx, query, q.TenantID, q.ProductID, q.WarehouseID, q.UomID, q.BatchNumber, q.StockItemID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()
	var out []*entity.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, nil
}

// Create inserta un lote. Un número repetido en el mismo stock item es conflicto (índice único parcial).
func (r *BatchRepo) Create(ctx context.Context, b *entity.Batch) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO batches (`+batchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NULL)`,
		b.ID, b.TenantID, b.StockItemID, b.WarehouseID, b.ProductID, b.UomID, b.BatchNumber, b.SystemGenerated,
		b.LotNumber, b.SerialNumber, dateOnly(b.ExpiryDate), b.Quantity.Decimal(), b.ReceivedQty.Decimal(),
		b.CostPrice, string(b.CostingMethod), b.StockLocationID, b.MovementDate, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.Error{Kind: domain.ErrConflict, Field: "batch_number", Message: "batch already exists: " + b.BatchNumber}
		}
		return fmt.Errorf("create batch: %w", mapError(err))
	}
	return nil
}

// GetByID obtiene un lote vivo del tenant.
func (r *BatchRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.one(ctx, "get batch", `
		SELECT `+batchColumns+` FROM batches
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
}

// GetByIDForUpdate bloquea el lote.
func (r *BatchRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.Batch, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.one(ctx, "get batch for update", `
		SELECT `+batchColumns+` FROM batches
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		FOR UPDATE`, id, tenantID)
}

// FindByNumberForUpdate bloquea el lote vivo con ese número dentro del stock item.
func (r *BatchRepo) FindByNumberForUpdate(ctx context.Context, tenantID, stockItemID, batchNumber string) (*entity.Batch, error) {
	if !validID(stockItemID) {
		return nil, nil
	}
	return r.one(ctx, "find batch by number", `
		SELECT `+batchColumns+` FROM batches
		WHERE tenant_id = $1 AND stock_item_id = $2 AND batch_number = $3 AND deleted_at IS NULL
		FOR UPDATE`, tenantID, stockItemID, batchNumber)
}

// FindByFIFO: más antiguo primero.
func (r *BatchRepo) FindByFIFO(ctx context.Context, q repository.BatchQuery) ([]*entity.Batch, error) {
	return r.many(ctx, "find batches fifo", batchCandidates+orderFIFO, q)
}

// FindByLIFO: más reciente primero.
func (r *BatchRepo) FindByLIFO(ctx context.Context, q repository.BatchQuery) ([]*entity.Batch, error) {
	return r.many(ctx, "find batches lifo", batchCandidates+orderLIFO, q)
}

// FindByFEFO: vence primero; sin vencimiento al final y desempate FIFO.
func (r *BatchRepo) FindByFEFO(ctx context.Context, q repository.BatchQuery) ([]*entity.Batch, error) {
	return r.many(ctx, "find batches fefo", batchCandidates+orderFEFO, q)
}

// Update persiste cantidad, costo y metadatos editables del lote.
func (r *BatchRepo) Update(ctx context.Context, b *entity.Batch) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE batches SET
			lot_number = $3, serial_number = $4, expiry_date = $5, quantity = $6, received_quantity = $7,
			cost_price = $8, costing_method = $9, stock_location_id = $10, updated_at = $11
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		b.ID, b.TenantID, b.LotNumber, b.SerialNumber, dateOnly(b.ExpiryDate), b.Quantity.Decimal(),
		b.ReceivedQty.Decimal(), b.CostPrice, string(b.CostingMethod), b.StockLocationID, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update batch: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("batch", b.ID)
	}
	return nil
}

// SoftDelete marca deleted_at; el ledger conserva la referencia.
func (r *BatchRepo) SoftDelete(ctx context.Context, tenantID, id string, at time.Time) error {
	if !validID(id) {
		return domain.NotFound("batch", id)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE batches SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID, at)
	if err != nil {
		return fmt.Errorf("delete batch: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("batch", id)
	}
	return nil
}
