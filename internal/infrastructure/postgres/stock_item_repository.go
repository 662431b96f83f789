package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
	"github.com/shopspring/decimal"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de saldos. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const stockItemColumns = `id, tenant_id, product_id, warehouse_id, location_id, batch_number, expiry_date,
	quantity_on_hand, quantity_reserved, quantity_available, average_cost,
	reorder_point, maximum_quantity, created_at, updated_at, deleted_at`

func scanStockItem(row pgx.Row) (*entity.StockItem, error) {
	var (
		it                          entity.StockItem
		onHand, reserved, available decimal.Decimal
		reorder, maximum            decimal.Decimal
	)
	err := row.Scan(
		&it.ID, &it.TenantID, &it.ProductID, &it.WarehouseID, &it.LocationID, &it.BatchNumber, &it.ExpiryDate,
		&onHand, &reserved, &available, &it.AverageCost,
		&reorder, &maximum, &it.CreatedAt, &it.UpdatedAt, &it.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	it.QuantityOnHand = valueobject.QuantityFromDecimal(onHand)
	it.QuantityReserved = valueobject.QuantityFromDecimal(reserved)
	it.QuantityAvailable = valueobject.QuantityFromDecimal(available)
	it.ReorderPoint = valueobject.QuantityFromDecimal(reorder)
	it.MaximumQuantity = valueobject.QuantityFromDecimal(maximum)
	return &it, nil
}

func (r *StockItemRepo) one(ctx context.Context, op, query string, args ...any) (*entity.StockItem, error) {
	it, err := scanStockItem(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return it, nil
}

func (r *StockItemRepo) many(ctx context.Context, op, query string, args ...any) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()
	var out []*entity.StockItem
	for rows.Next() {
		it, err := scanStockItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return out, nil
}

// GetByID obtiene un saldo vivo del tenant.
func (r *StockItemRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.one(ctx, "get stock item", `
		SELECT `+stockItemColumns+` FROM stock_items
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID)
}

// GetByIDForUpdate igual que GetByID pero bloquea la fila (SELECT FOR UPDATE).
func (r *StockItemRepo) GetByIDForUpdate(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	if !validID(id) {
		return nil, nil
	}
	return r.one(ctx, "get stock item for update", `
		SELECT `+stockItemColumns+` FROM stock_items
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
		FOR UPDATE`, id, tenantID)
}

// FindByKeyForUpdate bloquea el saldo de la llave si existe.
func (r *StockItemRepo) FindByKeyForUpdate(ctx context.Context, key entity.StockKey) (*entity.StockItem, error) {
	return r.one(ctx, "find stock item by key", `
		SELECT `+stockItemColumns+` FROM stock_items
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3
		  AND location_id = $4 AND batch_number = $5 AND deleted_at IS NULL
		FOR UPDATE`,
		key.TenantID, key.ProductID, key.WarehouseID, key.LocationID, key.BatchNumber)
}

// LocateOrCreateForUpdate inserta el saldo en cero si no existe (ON CONFLICT DO NOTHING) y lo bloquea.
// Dos recepciones concurrentes sobre una llave nueva terminan en la misma fila.
func (r *StockItemRepo) LocateOrCreateForUpdate(ctx context.Context, key entity.StockKey, now time.Time) (*entity.StockItem, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_items (id, tenant_id, product_id, warehouse_id, location_id, batch_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (tenant_id, product_id, warehouse_id, location_id, batch_number)
		WHERE deleted_at IS NULL DO NOTHING`,
		uuid.NewString(), key.TenantID, key.ProductID, key.WarehouseID, key.LocationID, key.BatchNumber, now)
	if err != nil {
		return nil, fmt.Errorf("locate stock item: %w", mapError(err))
	}
	it, err := r.FindByKeyForUpdate(ctx, key)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("locate stock item: row vanished for %s/%s", key.ProductID, key.WarehouseID)
	}
	return it, nil
}

// ListForUpdate bloquea todos los saldos del producto en la bodega en orden de id.
func (r *StockItemRepo) ListForUpdate(ctx context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	return r.many(ctx, "list stock items for update", `
		SELECT `+stockItemColumns+` FROM stock_items
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3 AND deleted_at IS NULL
		ORDER BY id
		FOR UPDATE`, tenantID, productID, warehouseID)
}

// ListByProductWarehouse lectura sin bloqueo.
func (r *StockItemRepo) ListByProductWarehouse(ctx context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	return r.many(ctx, "list stock items", `
		SELECT `+stockItemColumns+` FROM stock_items
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3 AND deleted_at IS NULL
		ORDER BY id`, tenantID, productID, warehouseID)
}

// ListByFEFO ordena por vencimiento; sin vencimiento al final.
func (r *StockItemRepo) ListByFEFO(ctx context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	return r.many(ctx, "list stock items by fefo", `
		SELECT `+stockItemColumns+` FROM stock_items
		WHERE tenant_id = $1 AND product_id = $2 AND warehouse_id = $3 AND deleted_at IS NULL
		ORDER BY expiry_date ASC NULLS LAST, created_at ASC, id ASC`, tenantID, productID, warehouseID)
}

// Update persiste cantidades, costo y parámetros de reposición.
func (r *StockItemRepo) Update(ctx context.Context, it *entity.StockItem) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_items SET
			expiry_date = $3, quantity_on_hand = $4, quantity_reserved = $5, quantity_available = $6,
			average_cost = $7, reorder_point = $8, maximum_quantity = $9, updated_at = $10
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`,
		it.ID, it.TenantID, dateOnly(it.ExpiryDate),
		it.QuantityOnHand.Decimal(), it.QuantityReserved.Decimal(), it.QuantityAvailable.Decimal(),
		it.AverageCost, it.ReorderPoint.Decimal(), it.MaximumQuantity.Decimal(), it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock item: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("stock item", it.ID)
	}
	return nil
}

// SoftDelete marca deleted_at.
func (r *StockItemRepo) SoftDelete(ctx context.Context, tenantID, id string, at time.Time) error {
	if !validID(id) {
		return domain.NotFound("stock item", id)
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE stock_items SET deleted_at = $3, updated_at = $3
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL`, id, tenantID, at)
	if err != nil {
		return fmt.Errorf("delete stock item: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound("stock item", id)
	}
	return nil
}

// Paginate lista saldos con filtros opcionales, ordenados por producto, bodega e id.
func (r *StockItemRepo) Paginate(ctx context.Context, f repository.StockItemFilter) (*repository.Page[entity.StockItem], error) {
	page, perPage := normalizePage(f.Page, f.PerPage)
	where := []string{"tenant_id = $1", "deleted_at IS NULL"}
	args := []any{f.TenantID}
	if f.ProductID != "" {
		args = append(args, f.ProductID)
		where = append(where, fmt.Sprintf("product_id = $%d", len(args)))
	}
	if f.WarehouseID != "" {
		args = append(args, f.WarehouseID)
		where = append(where, fmt.Sprintf("warehouse_id = $%d", len(args)))
	}
	if f.BelowReorderPoint {
		where = append(where, "reorder_point > 0 AND quantity_on_hand < reorder_point")
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.q.QueryRow(ctx, "SELECT COUNT(*) FROM stock_items WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count stock items: %w", mapError(err))
	}
	args = append(args, perPage, repository.Offset(page, perPage))
	items, err := r.many(ctx, "paginate stock items", fmt.Sprintf(`
		SELECT %s FROM stock_items WHERE %s
		ORDER BY product_id, warehouse_id, id
		LIMIT $%d OFFSET $%d`, stockItemColumns, cond, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, err
	}
	return repository.NewPage(items, total, page, perPage), nil
}

func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 15
	}
	return page, perPage
}
