package dto

import (
	"time"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/domain/valueobject"
)

// LedgerEntryResponse movimiento del ledger. Cantidades y costos como texto decimal (4 decimales).
type LedgerEntryResponse struct {
	ID                        string    `json:"id"`
	StockItemID               string    `json:"stock_item_id"`
	BatchID                   string    `json:"batch_id,omitempty"`
	TransactionType           string    `json:"transaction_type"`
	TransactionLabel          string    `json:"transaction_label"`
	WarehouseID               string    `json:"warehouse_id"`
	ProductID                 string    `json:"product_id"`
	UomID                     string    `json:"uom_id,omitempty"`
	Quantity                  string    `json:"quantity"`
	UnitCost                  string    `json:"unit_cost"`
	TotalCost                 string    `json:"total_cost"`
	BalanceAfter              string    `json:"balance_after"`
	BatchNumber               string    `json:"batch_number,omitempty"`
	LotNumber                 string    `json:"lot_number,omitempty"`
	SerialNumber              string    `json:"serial_number,omitempty"`
	ExpiryDate                string    `json:"expiry_date,omitempty"`
	IsPharmaceuticalCompliant bool      `json:"is_pharmaceutical_compliant"`
	ReferenceType             string    `json:"reference_type,omitempty"`
	ReferenceID               string    `json:"reference_id,omitempty"`
	Notes                     string    `json:"notes,omitempty"`
	CreatedBy                 string    `json:"created_by"`
	CreatedAt                 time.Time `json:"created_at"`
}

// FromLedgerEntry mapea la entidad a la respuesta.
func FromLedgerEntry(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                        e.ID,
		StockItemID:               e.StockItemID,
		BatchID:                   e.BatchID,
		TransactionType:           string(e.TransactionType),
		TransactionLabel:          e.TransactionType.Label(),
		WarehouseID:               e.WarehouseID,
		ProductID:                 e.ProductID,
		UomID:                     e.UomID,
		Quantity:                  e.Quantity.String(),
		UnitCost:                  e.UnitCost.StringFixed(valueobject.QuantityScale),
		TotalCost:                 e.TotalCost.StringFixed(valueobject.QuantityScale),
		BalanceAfter:              e.BalanceAfter.String(),
		BatchNumber:               e.BatchNumber,
		LotNumber:                 e.LotNumber,
		SerialNumber:              e.SerialNumber,
		ExpiryDate:                formatDate(e.ExpiryDate),
		IsPharmaceuticalCompliant: e.IsPharmaceuticalCompliant,
		ReferenceType:             e.ReferenceType,
		ReferenceID:               e.ReferenceID,
		Notes:                     e.Notes,
		CreatedBy:                 e.CreatedBy,
		CreatedAt:                 e.CreatedAt,
	}
}

// FromLedgerEntries mapea una lista de movimientos.
func FromLedgerEntries(entries []*entity.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, FromLedgerEntry(e))
	}
	return out
}

// LedgerPageResponse listado paginado de movimientos.
type LedgerPageResponse struct {
	Data []LedgerEntryResponse `json:"data"`
	Meta PageResponse          `json:"meta"`
}

// FromLedgerPage mapea la página del repositorio.
func FromLedgerPage(p *repository.Page[entity.LedgerEntry]) LedgerPageResponse {
	return LedgerPageResponse{Data: FromLedgerEntries(p.Items), Meta: pageMeta(p.Total, p.Page, p.PerPage, p.LastPage)}
}

func pageMeta(total, page, perPage, last int) PageResponse {
	return PageResponse{Total: total, Page: page, PerPage: perPage, LastPage: last}
}

// BatchResponse lote / capa de costo.
type BatchResponse struct {
	ID              string    `json:"id"`
	StockItemID     string    `json:"stock_item_id"`
	WarehouseID     string    `json:"warehouse_id"`
	ProductID       string    `json:"product_id"`
	UomID           string    `json:"uom_id,omitempty"`
	BatchNumber     string    `json:"batch_number"`
	SystemGenerated bool      `json:"system_generated"`
	LotNumber       string    `json:"lot_number,omitempty"`
	SerialNumber    string    `json:"serial_number,omitempty"`
	ExpiryDate      string    `json:"expiry_date,omitempty"`
	Quantity        string    `json:"quantity"`
	ReceivedQty     string    `json:"received_quantity"`
	CostPrice       string    `json:"cost_price"`
	CostingMethod   string    `json:"costing_method"`
	StockLocationID string    `json:"stock_location_id,omitempty"`
	MovementDate    time.Time `json:"movement_date"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FromBatch mapea la entidad a la respuesta.
func FromBatch(b *entity.Batch) BatchResponse {
	return BatchResponse{
		ID:              b.ID,
		StockItemID:     b.StockItemID,
		WarehouseID:     b.WarehouseID,
		ProductID:       b.ProductID,
		UomID:           b.UomID,
		BatchNumber:     b.BatchNumber,
		SystemGenerated: b.SystemGenerated,
		LotNumber:       b.LotNumber,
		SerialNumber:    b.SerialNumber,
		ExpiryDate:      formatDate(b.ExpiryDate),
		Quantity:        b.Quantity.String(),
		ReceivedQty:     b.ReceivedQty.String(),
		CostPrice:       b.CostPrice.StringFixed(valueobject.QuantityScale),
		CostingMethod:   string(b.CostingMethod),
		StockLocationID: b.StockLocationID,
		MovementDate:    b.MovementDate,
		UpdatedAt:       b.UpdatedAt,
	}
}

// StockItemResponse saldo por llave.
type StockItemResponse struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	WarehouseID       string    `json:"warehouse_id"`
	LocationID        string    `json:"location_id,omitempty"`
	BatchNumber       string    `json:"batch_number,omitempty"`
	ExpiryDate        string    `json:"expiry_date,omitempty"`
	QuantityOnHand    string    `json:"quantity_on_hand"`
	QuantityReserved  string    `json:"quantity_reserved"`
	QuantityAvailable string    `json:"quantity_available"`
	AverageCost       string    `json:"average_cost"`
	ReorderPoint      string    `json:"reorder_point"`
	MaximumQuantity   string    `json:"maximum_quantity"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FromStockItem mapea la entidad a la respuesta.
func FromStockItem(it *entity.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:                it.ID,
		ProductID:         it.ProductID,
		WarehouseID:       it.WarehouseID,
		LocationID:        it.LocationID,
		BatchNumber:       it.BatchNumber,
		ExpiryDate:        formatDate(it.ExpiryDate),
		QuantityOnHand:    it.QuantityOnHand.String(),
		QuantityReserved:  it.QuantityReserved.String(),
		QuantityAvailable: it.QuantityAvailable.String(),
		AverageCost:       it.AverageCost.StringFixed(valueobject.QuantityScale),
		ReorderPoint:      it.ReorderPoint.String(),
		MaximumQuantity:   it.MaximumQuantity.String(),
		UpdatedAt:         it.UpdatedAt,
	}
}

// FromStockItems mapea una lista de saldos.
func FromStockItems(items []*entity.StockItem) []StockItemResponse {
	out := make([]StockItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, FromStockItem(it))
	}
	return out
}

// StockItemPageResponse listado paginado de saldos.
type StockItemPageResponse struct {
	Data []StockItemResponse `json:"data"`
	Meta PageResponse        `json:"meta"`
}

// FromStockItemPage mapea la página del repositorio.
func FromStockItemPage(p *repository.Page[entity.StockItem]) StockItemPageResponse {
	return StockItemPageResponse{Data: FromStockItems(p.Items), Meta: pageMeta(p.Total, p.Page, p.PerPage, p.LastPage)}
}

// StockLevelResponse saldo agregado de producto/bodega.
type StockLevelResponse struct {
	ProductID         string            `json:"product_id"`
	WarehouseID       string            `json:"warehouse_id"`
	QuantityOnHand    string            `json:"quantity_on_hand"`
	QuantityReserved  string            `json:"quantity_reserved"`
	QuantityAvailable string            `json:"quantity_available"`
	Valuation         valueobject.Money `json:"valuation"`
	Items             int               `json:"items"`
}

// FromStockLevel mapea el agregado.
func FromStockLevel(l appinv.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ProductID:         l.ProductID,
		WarehouseID:       l.WarehouseID,
		QuantityOnHand:    l.QuantityOnHand.String(),
		QuantityReserved:  l.QuantityReserved.String(),
		QuantityAvailable: l.QuantityAvailable.String(),
		Valuation:         l.Valuation,
		Items:             l.Items,
	}
}

// ReservationResponse reserva creada.
type ReservationResponse struct {
	ID               string     `json:"id"`
	StockItemID      string     `json:"stock_item_id"`
	WarehouseID      string     `json:"warehouse_id"`
	ProductID        string     `json:"product_id"`
	ReferenceType    string     `json:"reference_type"`
	ReferenceID      string     `json:"reference_id"`
	QuantityReserved string     `json:"quantity_reserved"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// FromReservation mapea la entidad a la respuesta.
func FromReservation(r *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:               r.ID,
		StockItemID:      r.StockItemID,
		WarehouseID:      r.WarehouseID,
		ProductID:        r.ProductID,
		ReferenceType:    r.ReferenceType,
		ReferenceID:      r.ReferenceID,
		QuantityReserved: r.QuantityReserved.String(),
		ExpiresAt:        r.ExpiresAt,
		CreatedAt:        r.CreatedAt,
	}
}

// DeductionLineResponse línea consumida de un lote.
type DeductionLineResponse struct {
	LedgerEntryID string `json:"ledger_entry_id"`
	StockItemID   string `json:"stock_item_id"`
	BatchID       string `json:"batch_id"`
	BatchNumber   string `json:"batch_number,omitempty"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
	Quantity      string `json:"quantity"`
	UnitCost      string `json:"unit_cost"`
}

// DeductionResponse resultado de DeductByStrategy.
type DeductionResponse struct {
	Strategy      string                  `json:"strategy"`
	TotalQuantity string                  `json:"total_quantity"`
	WeightedCost  valueobject.Money       `json:"weighted_cost"`
	TotalCost     valueobject.Money       `json:"total_cost"`
	Lines         []DeductionLineResponse `json:"lines"`
}

// FromDeduction mapea el resultado.
func FromDeduction(r *appinv.DeductionResult) DeductionResponse {
	lines := make([]DeductionLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, DeductionLineResponse{
			LedgerEntryID: l.LedgerEntryID,
			StockItemID:   l.StockItemID,
			BatchID:       l.BatchID,
			BatchNumber:   l.BatchNumber,
			ExpiryDate:    formatDate(l.ExpiryDate),
			Quantity:      l.Quantity.String(),
			UnitCost:      l.UnitCost.StringFixed(valueobject.QuantityScale),
		})
	}
	return DeductionResponse{
		Strategy:      string(r.Strategy),
		TotalQuantity: r.TotalQuantity.String(),
		WeightedCost:  r.WeightedCost,
		TotalCost:     r.TotalCost,
		Lines:         lines,
	}
}

// ReplenishmentSuggestionDTO SKU bajo su punto de reorden con la cantidad sugerida de pedido.
type ReplenishmentSuggestionDTO struct {
	StockItemID        string            `json:"stock_item_id"`
	ProductID          string            `json:"product_id"`
	WarehouseID        string            `json:"warehouse_id"`
	BatchNumber        string            `json:"batch_number,omitempty"`
	CurrentStock       string            `json:"current_stock"`
	ReorderPoint       string            `json:"reorder_point"`
	IdealStock         string            `json:"ideal_stock"`
	SuggestedOrderQty  string            `json:"suggested_order_qty"`
	UnitCost           string            `json:"unit_cost"`
	EstimatedOrderCost valueobject.Money `json:"estimated_order_cost"`
	Priority           int               `json:"priority"` // 1 = más urgente
}

// FromReplenishment mapea la lista de sugerencias.
func FromReplenishment(list []appinv.ReplenishmentSuggestion) []ReplenishmentSuggestionDTO {
	out := make([]ReplenishmentSuggestionDTO, 0, len(list))
	for _, s := range list {
		out = append(out, ReplenishmentSuggestionDTO{
			StockItemID:        s.StockItemID,
			ProductID:          s.ProductID,
			WarehouseID:        s.WarehouseID,
			BatchNumber:        s.BatchNumber,
			CurrentStock:       s.CurrentStock.String(),
			ReorderPoint:       s.ReorderPoint.String(),
			IdealStock:         s.IdealStock.String(),
			SuggestedOrderQty:  s.SuggestedOrderQty.String(),
			UnitCost:           s.UnitCost.StringFixed(valueobject.QuantityScale),
			EstimatedOrderCost: s.EstimatedOrderCost,
			Priority:           s.Priority,
		})
	}
	return out
}

// ReplenishmentListResponse respuesta de GET /api/inventory/replenishment-list.
type ReplenishmentListResponse struct {
	Total          int                          `json:"total"`
	Replenishments []ReplenishmentSuggestionDTO `json:"replenishments"`
}
