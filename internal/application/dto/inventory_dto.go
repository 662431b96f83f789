package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	appinv "github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
)

// RecordTransactionRequest body para POST /api/inventory/transactions.
type RecordTransactionRequest struct {
	TransactionType           string           `json:"transaction_type" validate:"required"`
	WarehouseID               string           `json:"warehouse_id" validate:"required"`
	ProductID                 string           `json:"product_id" validate:"required"`
	UomID                     string           `json:"uom_id"`
	LocationID                string           `json:"location_id"`
	Quantity                  json.Number      `json:"quantity" validate:"required,numeric"`
	UnitCost                  *decimal.Decimal `json:"unit_cost,omitempty"`
	BatchNumber               string           `json:"batch_number" validate:"max=100"`
	LotNumber                 string           `json:"lot_number" validate:"max=100"`
	SerialNumber              string           `json:"serial_number" validate:"max=100"`
	ExpiryDate                string           `json:"expiry_date"`
	CostingMethod             string           `json:"costing_method" validate:"omitempty,oneof=fifo lifo manual"`
	IsPharmaceuticalCompliant bool             `json:"is_pharmaceutical_compliant"`
	Strategy                  string           `json:"strategy" validate:"omitempty,oneof=fifo lifo fefo manual FIFO LIFO FEFO MANUAL"`
	ReferenceType             string           `json:"reference_type"`
	ReferenceID               string           `json:"reference_id"`
	Notes                     string           `json:"notes" validate:"max=1000"`
}

// ToInput arma la entrada del servicio con el tenant/actor del token.
func (r RecordTransactionRequest) ToInput(tenantID, actorID, idempotencyKey string) (appinv.TransactionInput, error) {
	typ, err := entity.ParseTransactionType(r.TransactionType)
	if err != nil {
		return appinv.TransactionInput{}, err
	}
	qty, err := parseQuantity("quantity", r.Quantity)
	if err != nil {
		return appinv.TransactionInput{}, err
	}
	expiry, err := parseDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return appinv.TransactionInput{}, err
	}
	st, err := inventory.ParseStrategy(r.Strategy)
	if err != nil {
		return appinv.TransactionInput{}, err
	}
	return appinv.TransactionInput{
		TenantID:                  tenantID,
		ActorID:                   actorID,
		IdempotencyKey:            idempotencyKey,
		Type:                      typ,
		WarehouseID:               r.WarehouseID,
		ProductID:                 r.ProductID,
		UomID:                     r.UomID,
		LocationID:                r.LocationID,
		Quantity:                  qty,
		UnitCost:                  r.UnitCost,
		BatchNumber:               r.BatchNumber,
		LotNumber:                 r.LotNumber,
		SerialNumber:              r.SerialNumber,
		ExpiryDate:                expiry,
		CostingMethod:             entity.CostingMethod(r.CostingMethod),
		IsPharmaceuticalCompliant: r.IsPharmaceuticalCompliant,
		Strategy:                  st,
		ReferenceType:             r.ReferenceType,
		ReferenceID:               r.ReferenceID,
		Notes:                     r.Notes,
	}, nil
}

// DeductRequest body para POST /api/inventory/deductions.
type DeductRequest struct {
	ProductID                 string           `json:"product_id" validate:"required"`
	WarehouseID               string           `json:"warehouse_id" validate:"required"`
	UomID                     string           `json:"uom_id"`
	Quantity                  json.Number      `json:"quantity" validate:"required,numeric"`
	UnitCost                  *decimal.Decimal `json:"unit_cost,omitempty"`
	Strategy                  string           `json:"strategy" validate:"omitempty,oneof=fifo lifo fefo manual FIFO LIFO FEFO MANUAL"`
	BatchNumber               string           `json:"batch_number"`
	TransactionType           string           `json:"transaction_type"`
	IsPharmaceuticalCompliant bool             `json:"is_pharmaceutical_compliant"`
	ReservationID             string           `json:"reservation_id"`
	ReferenceType             string           `json:"reference_type"`
	ReferenceID               string           `json:"reference_id"`
	Notes                     string           `json:"notes" validate:"max=1000"`
}

// ToInput arma la entrada de DeductByStrategy.
func (r DeductRequest) ToInput(tenantID, actorID, idempotencyKey string) (appinv.DeductInput, error) {
	qty, err := parseQuantity("quantity", r.Quantity)
	if err != nil {
		return appinv.DeductInput{}, err
	}
	st, err := inventory.ParseStrategy(r.Strategy)
	if err != nil {
		return appinv.DeductInput{}, err
	}
	var typ entity.TransactionType
	if r.TransactionType != "" {
		if typ, err = entity.ParseTransactionType(r.TransactionType); err != nil {
			return appinv.DeductInput{}, err
		}
	}
	return appinv.DeductInput{
		TenantID:                  tenantID,
		ActorID:                   actorID,
		IdempotencyKey:            idempotencyKey,
		ProductID:                 r.ProductID,
		WarehouseID:               r.WarehouseID,
		UomID:                     r.UomID,
		Quantity:                  qty,
		UnitCost:                  r.UnitCost,
		Strategy:                  st,
		BatchNumber:               r.BatchNumber,
		TransactionType:           typ,
		IsPharmaceuticalCompliant: r.IsPharmaceuticalCompliant,
		ReservationID:             r.ReservationID,
		ReferenceType:             r.ReferenceType,
		ReferenceID:               r.ReferenceID,
		Notes:                     r.Notes,
	}, nil
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID                 string      `json:"product_id" validate:"required"`
	FromWarehouseID           string      `json:"from_warehouse_id" validate:"required"`
	ToWarehouseID             string      `json:"to_warehouse_id" validate:"required,nefield=FromWarehouseID"`
	UomID                     string      `json:"uom_id"`
	Quantity                  json.Number `json:"quantity" validate:"required,numeric"`
	Strategy                  string      `json:"strategy" validate:"omitempty,oneof=fifo lifo fefo manual FIFO LIFO FEFO MANUAL"`
	BatchNumber               string      `json:"batch_number"`
	IsPharmaceuticalCompliant bool        `json:"is_pharmaceutical_compliant"`
	ReferenceType             string      `json:"reference_type"`
	ReferenceID               string      `json:"reference_id"`
	Notes                     string      `json:"notes" validate:"max=1000"`
}

// ToInput arma la entrada de Transfer.
func (r TransferRequest) ToInput(tenantID, actorID, idempotencyKey string) (appinv.TransferInput, error) {
	qty, err := parseQuantity("quantity", r.Quantity)
	if err != nil {
		return appinv.TransferInput{}, err
	}
	st, err := inventory.ParseStrategy(r.Strategy)
	if err != nil {
		return appinv.TransferInput{}, err
	}
	return appinv.TransferInput{
		TenantID:                  tenantID,
		ActorID:                   actorID,
		IdempotencyKey:            idempotencyKey,
		ProductID:                 r.ProductID,
		FromWarehouseID:           r.FromWarehouseID,
		ToWarehouseID:             r.ToWarehouseID,
		UomID:                     r.UomID,
		Quantity:                  qty,
		Strategy:                  st,
		BatchNumber:               r.BatchNumber,
		IsPharmaceuticalCompliant: r.IsPharmaceuticalCompliant,
		ReferenceType:             r.ReferenceType,
		ReferenceID:               r.ReferenceID,
		Notes:                     r.Notes,
	}, nil
}

// CreateBatchRequest body para POST /api/inventory/batches.
type CreateBatchRequest struct {
	WarehouseID               string          `json:"warehouse_id" validate:"required"`
	ProductID                 string          `json:"product_id" validate:"required"`
	UomID                     string          `json:"uom_id"`
	BatchNumber               string          `json:"batch_number" validate:"max=100"`
	LotNumber                 string          `json:"lot_number" validate:"max=100"`
	SerialNumber              string          `json:"serial_number" validate:"max=100"`
	ExpiryDate                string          `json:"expiry_date"`
	Quantity                  json.Number     `json:"quantity" validate:"required,numeric"`
	CostPrice                 decimal.Decimal `json:"cost_price"`
	CostingMethod             string          `json:"costing_method" validate:"omitempty,oneof=fifo lifo manual"`
	StockLocationID           string          `json:"stock_location_id"`
	MovementDate              *time.Time      `json:"movement_date,omitempty"`
	IsPharmaceuticalCompliant bool            `json:"is_pharmaceutical_compliant"`
	ReferenceType             string          `json:"reference_type"`
	ReferenceID               string          `json:"reference_id"`
	Notes                     string          `json:"notes" validate:"max=1000"`
}

// ToInput arma la entrada de CreateBatch.
func (r CreateBatchRequest) ToInput(tenantID, actorID string) (appinv.CreateBatchInput, error) {
	qty, err := parseQuantity("quantity", r.Quantity)
	if err != nil {
		return appinv.CreateBatchInput{}, err
	}
	expiry, err := parseDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return appinv.CreateBatchInput{}, err
	}
	return appinv.CreateBatchInput{
		TenantID:                  tenantID,
		ActorID:                   actorID,
		WarehouseID:               r.WarehouseID,
		ProductID:                 r.ProductID,
		UomID:                     r.UomID,
		BatchNumber:               r.BatchNumber,
		LotNumber:                 r.LotNumber,
		SerialNumber:              r.SerialNumber,
		ExpiryDate:                expiry,
		Quantity:                  qty,
		CostPrice:                 r.CostPrice,
		CostingMethod:             entity.CostingMethod(r.CostingMethod),
		StockLocationID:           r.StockLocationID,
		MovementDate:              r.MovementDate,
		IsPharmaceuticalCompliant: r.IsPharmaceuticalCompliant,
		ReferenceType:             r.ReferenceType,
		ReferenceID:               r.ReferenceID,
		Notes:                     r.Notes,
	}, nil
}

// UpdateBatchRequest body para PUT /api/inventory/batches/:id. Solo se aplican los campos presentes.
type UpdateBatchRequest struct {
	LotNumber       *string          `json:"lot_number,omitempty" validate:"omitempty,max=100"`
	SerialNumber    *string          `json:"serial_number,omitempty" validate:"omitempty,max=100"`
	ExpiryDate      *string          `json:"expiry_date,omitempty"`
	CostPrice       *decimal.Decimal `json:"cost_price,omitempty"`
	CostingMethod   *string          `json:"costing_method,omitempty" validate:"omitempty,oneof=fifo lifo manual"`
	StockLocationID *string          `json:"stock_location_id,omitempty"`
	Quantity        *json.Number     `json:"quantity,omitempty" validate:"omitempty,numeric"`
	Notes           string           `json:"notes" validate:"max=1000"`
}

// ToInput arma la entrada de UpdateBatch.
func (r UpdateBatchRequest) ToInput(tenantID, actorID, id string) (appinv.UpdateBatchInput, error) {
	in := appinv.UpdateBatchInput{
		TenantID:        tenantID,
		ActorID:         actorID,
		ID:              id,
		LotNumber:       r.LotNumber,
		SerialNumber:    r.SerialNumber,
		CostPrice:       r.CostPrice,
		StockLocationID: r.StockLocationID,
		Notes:           r.Notes,
	}
	if r.ExpiryDate != nil {
		expiry, err := parseDate("expiry_date", *r.ExpiryDate)
		if err != nil {
			return in, err
		}
		in.ExpiryDate = expiry
	}
	if r.CostingMethod != nil {
		m := entity.CostingMethod(*r.CostingMethod)
		in.CostingMethod = &m
	}
	qty, err := parseOptionalQuantity("quantity", r.Quantity)
	if err != nil {
		return in, err
	}
	in.Quantity = qty
	return in, nil
}

// ReserveRequest body para POST /api/inventory/reservations.
type ReserveRequest struct {
	ProductID     string      `json:"product_id" validate:"required_without=StockItemID"`
	WarehouseID   string      `json:"warehouse_id" validate:"required_without=StockItemID"`
	StockItemID   string      `json:"stock_item_id"`
	BatchNumber   string      `json:"batch_number"`
	LocationID    string      `json:"location_id"`
	Quantity      json.Number `json:"quantity" validate:"required,numeric"`
	ReferenceType string      `json:"reference_type" validate:"required"`
	ReferenceID   string      `json:"reference_id" validate:"required"`
	ExpiresAt     *time.Time  `json:"expires_at,omitempty"`
}

// ToInput arma la entrada de Reserve.
func (r ReserveRequest) ToInput(tenantID, actorID string) (appinv.ReserveInput, error) {
	qty, err := parseQuantity("quantity", r.Quantity)
	if err != nil {
		return appinv.ReserveInput{}, err
	}
	return appinv.ReserveInput{
		TenantID:      tenantID,
		ActorID:       actorID,
		ProductID:     r.ProductID,
		WarehouseID:   r.WarehouseID,
		StockItemID:   r.StockItemID,
		BatchNumber:   r.BatchNumber,
		LocationID:    r.LocationID,
		Quantity:      qty,
		ReferenceType: r.ReferenceType,
		ReferenceID:   r.ReferenceID,
		ExpiresAt:     r.ExpiresAt,
	}, nil
}

// StockItemSettingsRequest body para PUT /api/inventory/stock-items/:id/settings.
type StockItemSettingsRequest struct {
	ReorderPoint    *json.Number `json:"reorder_point,omitempty" validate:"omitempty,numeric"`
	MaximumQuantity *json.Number `json:"maximum_quantity,omitempty" validate:"omitempty,numeric"`
}

// ToInput arma la entrada de UpdateStockItemSettings.
func (r StockItemSettingsRequest) ToInput(tenantID, actorID, id string) (appinv.StockItemSettingsInput, error) {
	in := appinv.StockItemSettingsInput{TenantID: tenantID, ActorID: actorID, ID: id}
	var err error
	if in.ReorderPoint, err = parseOptionalQuantity("reorder_point", r.ReorderPoint); err != nil {
		return in, err
	}
	if in.MaximumQuantity, err = parseOptionalQuantity("maximum_quantity", r.MaximumQuantity); err != nil {
		return in, err
	}
	return in, nil
}

// StockQuery query string de consultas por producto/bodega.
type StockQuery struct {
	ProductID   string `query:"product_id" validate:"required"`
	WarehouseID string `query:"warehouse_id" validate:"required"`
}

// TransactionListQuery query string de GET /api/inventory/transactions.
type TransactionListQuery struct {
	Page            int    `query:"page" validate:"omitempty,min=1"`
	PerPage         int    `query:"per_page" validate:"omitempty,min=1,max=100"`
	ProductID       string `query:"product_id" validate:"required"`
	WarehouseID     string `query:"warehouse_id"`
	TransactionType string `query:"transaction_type"`
}

// StockItemListQuery query string de GET /api/inventory/stock-items.
type StockItemListQuery struct {
	Page              int    `query:"page" validate:"omitempty,min=1"`
	PerPage           int    `query:"per_page" validate:"omitempty,min=1,max=100"`
	ProductID         string `query:"product_id"`
	WarehouseID       string `query:"warehouse_id"`
	BelowReorderPoint bool   `query:"below_reorder_point"`
}
