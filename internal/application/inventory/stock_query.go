package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

// StockLevel saldo agregado de un producto en una bodega (todos los lotes y ubicaciones).
type StockLevel struct {
	ProductID         string
	WarehouseID       string
	QuantityOnHand    valueobject.Quantity
	QuantityReserved  valueobject.Quantity
	QuantityAvailable valueobject.Quantity
	Valuation         valueobject.Money // Σ on_hand × average_cost
	Items             int
}

// GetStockLevel suma los items con aritmética decimal exacta. Sin items devuelve ceros.
// Lectura sin bloqueo.
func (s *Service) GetStockLevel(ctx context.Context, tenantID, productID, warehouseID string) (StockLevel, error) {
	lvl := StockLevel{ProductID: productID, WarehouseID: warehouseID, Valuation: valueobject.ZeroMoney(s.currency)}
	if err := requireIDs("tenant_id", tenantID, "product_id", productID, "warehouse_id", warehouseID); err != nil {
		return lvl, err
	}
	items, err := s.reader.StockItems.ListByProductWarehouse(ctx, tenantID, productID, warehouseID)
	if err != nil {
		return lvl, err
	}
	for _, it := range items {
		lvl.QuantityOnHand = lvl.QuantityOnHand.Add(it.QuantityOnHand)
		lvl.QuantityReserved = lvl.QuantityReserved.Add(it.QuantityReserved)
		lvl.QuantityAvailable = lvl.QuantityAvailable.Add(it.QuantityAvailable)
		v, err := lvl.Valuation.Add(s.money(it.AverageCost).MulQuantity(it.QuantityOnHand))
		if err != nil {
			return lvl, err
		}
		lvl.Valuation = v
	}
	lvl.Items = len(items)
	return lvl, nil
}

// GetStockByFEFO items del producto en la bodega ordenados por vencimiento (sin vencimiento al final).
func (s *Service) GetStockByFEFO(ctx context.Context, tenantID, productID, warehouseID string) ([]*entity.StockItem, error) {
	if err := requireIDs("tenant_id", tenantID, "product_id", productID, "warehouse_id", warehouseID); err != nil {
		return nil, err
	}
	items, err := s.reader.StockItems.ListByFEFO(ctx, tenantID, productID, warehouseID)
	if err != nil {
		return nil, err
	}
	inventory.SortStockItemsFEFO(items)
	return items, nil
}

// TransactionFilter filtro de ListTransactions. PerPage 0 = valor por defecto (15).
type TransactionFilter struct {
	TenantID        string
	ProductID       string
	WarehouseID     string
	TransactionType entity.TransactionType
	Page            int
	PerPage         int
}

// ListTransactions pagina los asientos del producto, más recientes primero.
func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter) (*repository.Page[entity.LedgerEntry], error) {
	if err := requireIDs("tenant_id", f.TenantID, "product_id", f.ProductID); err != nil {
		return nil, err
	}
	if f.TransactionType != "" && !f.TransactionType.IsValid() {
		return nil, domain.InvalidArgument("transaction_type", "unknown transaction type: "+string(f.TransactionType))
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return s.reader.Ledger.Paginate(ctx, repository.LedgerFilter{
		TenantID:        f.TenantID,
		ProductID:       f.ProductID,
		WarehouseID:     f.WarehouseID,
		TransactionType: f.TransactionType,
		Page:            f.Page,
		PerPage:         s.pageSize(f.PerPage),
	})
}

// GetStockItem busca un saldo por id.
func (s *Service) GetStockItem(ctx context.Context, tenantID, id string) (*entity.StockItem, error) {
	item, err := s.reader.StockItems.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFound("stock item", id)
	}
	return item, nil
}

// ListStockItems paginado de saldos del tenant.
func (s *Service) ListStockItems(ctx context.Context, f repository.StockItemFilter) (*repository.Page[entity.StockItem], error) {
	if err := requireIDs("tenant_id", f.TenantID); err != nil {
		return nil, err
	}
	if f.Page < 1 {
		f.Page = 1
	}
	f.PerPage = s.pageSize(f.PerPage)
	return s.reader.StockItems.Paginate(ctx, f)
}

// StockItemSettingsInput parámetros de reposición; nunca toca saldos.
type StockItemSettingsInput struct {
	TenantID        string
	ActorID         string
	ID              string
	ReorderPoint    *valueobject.Quantity
	MaximumQuantity *valueobject.Quantity
}

// UpdateStockItemSettings actualiza reorder_point / maximum_quantity.
func (s *Service) UpdateStockItemSettings(ctx context.Context, in StockItemSettingsInput) (*entity.StockItem, error) {
	if err := requireIDs("tenant_id", in.TenantID, "actor_id", in.ActorID, "id", in.ID); err != nil {
		return nil, err
	}
	if in.ReorderPoint != nil && in.ReorderPoint.IsNegative() {
		return nil, domain.InvalidArgument("reorder_point", "reorder_point must not be negative")
	}
	if in.MaximumQuantity != nil && in.MaximumQuantity.IsNegative() {
		return nil, domain.InvalidArgument("maximum_quantity", "maximum_quantity must not be negative")
	}

	var out *entity.StockItem
	err := s.tx.Run(ctx, func(r Repos) error {
		item, err := r.StockItems.GetByIDForUpdate(ctx, in.TenantID, in.ID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NotFound("stock item", in.ID)
		}
		if in.ReorderPoint != nil {
			item.ReorderPoint = *in.ReorderPoint
		}
		if in.MaximumQuantity != nil {
			item.MaximumQuantity = *in.MaximumQuantity
		}
		if item.MaximumQuantity.IsPositive() && item.ReorderPoint.GreaterThan(item.MaximumQuantity) {
			return domain.InvalidArgument("maximum_quantity", "maximum_quantity must be greater than or equal to reorder_point")
		}
		item.UpdatedAt = s.now()
		out = item
		return r.StockItems.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteStockItem borrado lógico de un saldo en cero y sin reservas abiertas.
func (s *Service) DeleteStockItem(ctx context.Context, tenantID, actorID, id string) (bool, error) {
	if err := requireIDs("tenant_id", tenantID, "actor_id", actorID, "id", id); err != nil {
		return false, err
	}
	err := s.tx.Run(ctx, func(r Repos) error {
		item, err := r.StockItems.GetByIDForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NotFound("stock item", id)
		}
		if !item.IsEmpty() {
			return domain.InvalidArgument("quantity_on_hand", "stock item with a non-zero balance cannot be deleted")
		}
		open, err := r.Reservations.CountByStockItem(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if open > 0 {
			return domain.InvalidArgument("reservations", "stock item with open reservations cannot be deleted")
		}
		return r.StockItems.SoftDelete(ctx, tenantID, id, s.now())
	})
	if err != nil {
		return false, err
	}
	s.log.Debug().Str("tenant_id", tenantID).Str("stock_item_id", id).Str("actor_id", actorID).Msg("inventory: saldo eliminado")
	return true, nil
}
