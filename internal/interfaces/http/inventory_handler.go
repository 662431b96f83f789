package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// HeaderIdempotencyKey clave opcional para reintentos seguros de movimientos.
const HeaderIdempotencyKey = "Idempotency-Key"

// InventoryHandler maneja las peticiones HTTP del ledger de inventario (protegido).
type InventoryHandler struct {
	svc *inventory.Service
	log *logger.Logger
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(svc *inventory.Service, log *logger.Logger) *InventoryHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InventoryHandler{svc: svc, log: log.Component("http")}
}

// RecordTransaction godoc
// @Summary      Registrar movimiento de inventario
// @Description  Entradas recalculan el costo promedio y crean una capa de costo; salidas consumen capas (FIFO, o FEFO en modo farmacéutico).
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                        false  "clave de idempotencia"
// @Param        body             body    dto.RecordTransactionRequest  true   "movimiento"
// @Success      201  {object}  dto.LedgerEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [post]
func (h *InventoryHandler) RecordTransaction(c *fiber.Ctx) error {
	var req dto.RecordTransactionRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	in, err := req.ToInput(GetTenantID(c), GetUserID(c), c.Get(HeaderIdempotencyKey))
	if err != nil {
		return writeError(c, h.log, err)
	}
	entry, err := h.svc.RecordTransaction(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromLedgerEntry(entry))
}

// ListTransactions godoc
// @Summary      Movimientos de un producto (más recientes primero)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id        query  string  true   "producto"
// @Param        warehouse_id      query  string  false  "bodega"
// @Param        transaction_type  query  string  false  "tipo de movimiento"
// @Param        page              query  int     false  "página (base 1)"
// @Param        per_page          query  int     false  "tamaño de página (15 por defecto)"
// @Success      200  {object}  dto.LedgerPageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/transactions [get]
func (h *InventoryHandler) ListTransactions(c *fiber.Ctx) error {
	var q dto.TransactionListQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, h.log, err)
	}
	var typ entity.TransactionType
	if q.TransactionType != "" {
		parsed, err := entity.ParseTransactionType(q.TransactionType)
		if err != nil {
			return writeError(c, h.log, err)
		}
		typ = parsed
	}
	page, err := h.svc.ListTransactions(c.Context(), inventory.TransactionFilter{
		TenantID:        GetTenantID(c),
		ProductID:       q.ProductID,
		WarehouseID:     q.WarehouseID,
		TransactionType: typ,
		Page:            q.Page,
		PerPage:         q.PerPage,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromLedgerPage(page))
}

// Deduct godoc
// @Summary      Deducir stock por estrategia (FIFO, LIFO, FEFO o manual)
// @Description  Todo o nada: si los lotes no cubren la cantidad no se modifica nada.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string             false  "clave de idempotencia"
// @Param        body             body    dto.DeductRequest  true   "deducción"
// @Success      201  {object}  dto.DeductionResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/deductions [post]
func (h *InventoryHandler) Deduct(c *fiber.Ctx) error {
	var req dto.DeductRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	in, err := req.ToInput(GetTenantID(c), GetUserID(c), c.Get(HeaderIdempotencyKey))
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.svc.DeductByStrategy(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromDeduction(res))
}

// Transfer godoc
// @Summary      Trasladar stock entre bodegas
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "clave de idempotencia"
// @Param        body             body    dto.TransferRequest  true   "traslado"
// @Success      201  {array}   dto.LedgerEntryResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	var req dto.TransferRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	in, err := req.ToInput(GetTenantID(c), GetUserID(c), c.Get(HeaderIdempotencyKey))
	if err != nil {
		return writeError(c, h.log, err)
	}
	entries, err := h.svc.Transfer(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromLedgerEntries(entries))
}

// CreateBatch godoc
// @Summary      Crear lote
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "lote"
// @Success      201  {object}  dto.BatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches [post]
func (h *InventoryHandler) CreateBatch(c *fiber.Ctx) error {
	var req dto.CreateBatchRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	in, err := req.ToInput(GetTenantID(c), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	batch, err := h.svc.CreateBatch(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromBatch(batch))
}

// ShowBatch godoc
// @Summary      Obtener lote
// @Tags         batches
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "id del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id} [get]
func (h *InventoryHandler) ShowBatch(c *fiber.Ctx) error {
	batch, err := h.svc.ShowBatch(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromBatch(batch))
}

// UpdateBatch godoc
// @Summary      Actualizar lote
// @Description  Un cambio de cantidad registra un ajuste (adjustment_add / adjustment_remove).
// @Tags         batches
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "id del lote"
// @Param        body  body  dto.UpdateBatchRequest  true  "campos a cambiar"
// @Success      200  {object}  dto.BatchResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id} [put]
func (h *InventoryHandler) UpdateBatch(c *fiber.Ctx) error {
	var req dto.UpdateBatchRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	in, err := req.ToInput(GetTenantID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	batch, err := h.svc.UpdateBatch(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromBatch(batch))
}

// DeleteBatch godoc
// @Summary      Eliminar lote sin saldo
// @Tags         batches
// @Security     Bearer
// @Param        id  path  string  true  "id del lote"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/batches/{id} [delete]
func (h *InventoryHandler) DeleteBatch(c *fiber.Ctx) error {
	ok, err := h.svc.DeleteBatch(c.Context(), GetTenantID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "batch not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reserve godoc
// @Summary      Reservar stock disponible para un documento
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "reserva"
// @Success      201  {object}  dto.ReservationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	var req dto.ReserveRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	in, err := req.ToInput(GetTenantID(c), GetUserID(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.svc.Reserve(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromReservation(res))
}

// ReleaseReservation godoc
// @Summary      Liberar reserva
// @Tags         reservations
// @Security     Bearer
// @Param        id  path  string  true  "id de la reserva"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/reservations/{id} [delete]
func (h *InventoryHandler) ReleaseReservation(c *fiber.Ctx) error {
	ok, err := h.svc.ReleaseReservation(c.Context(), GetTenantID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "reservation not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetStockLevel godoc
// @Summary      Saldo agregado de un producto en una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "producto"
// @Param        warehouse_id  query  string  true  "bodega"
// @Success      200  {object}  dto.StockLevelResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-level [get]
func (h *InventoryHandler) GetStockLevel(c *fiber.Ctx) error {
	var q dto.StockQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, h.log, err)
	}
	lvl, err := h.svc.GetStockLevel(c.Context(), GetTenantID(c), q.ProductID, q.WarehouseID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromStockLevel(lvl))
}

// GetStockByFEFO godoc
// @Summary      Saldos ordenados por vencimiento
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id    query  string  true  "producto"
// @Param        warehouse_id  query  string  true  "bodega"
// @Success      200  {array}   dto.StockItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock/fefo [get]
func (h *InventoryHandler) GetStockByFEFO(c *fiber.Ctx) error {
	var q dto.StockQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, h.log, err)
	}
	items, err := h.svc.GetStockByFEFO(c.Context(), GetTenantID(c), q.ProductID, q.WarehouseID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromStockItems(items))
}

// ListStockItems godoc
// @Summary      Listado paginado de saldos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id           query  string  false  "producto"
// @Param        warehouse_id         query  string  false  "bodega"
// @Param        below_reorder_point  query  bool    false  "solo bajo punto de reorden"
// @Param        page                 query  int     false  "página"
// @Param        per_page             query  int     false  "tamaño de página"
// @Success      200  {object}  dto.StockItemPageResponse
// @Router       /api/inventory/stock-items [get]
func (h *InventoryHandler) ListStockItems(c *fiber.Ctx) error {
	var q dto.StockItemListQuery
	if err := bindQuery(c, &q); err != nil {
		return writeError(c, h.log, err)
	}
	page, err := h.svc.ListStockItems(c.Context(), repository.StockItemFilter{
		TenantID:          GetTenantID(c),
		ProductID:         q.ProductID,
		WarehouseID:       q.WarehouseID,
		BelowReorderPoint: q.BelowReorderPoint,
		Page:              q.Page,
		PerPage:           q.PerPage,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromStockItemPage(page))
}

// GetStockItem godoc
// @Summary      Obtener saldo
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "id del saldo"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-items/{id} [get]
func (h *InventoryHandler) GetStockItem(c *fiber.Ctx) error {
	it, err := h.svc.GetStockItem(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromStockItem(it))
}

// UpdateStockItemSettings godoc
// @Summary      Cambiar punto de reorden / cantidad máxima
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true  "id del saldo"
// @Param        body  body  dto.StockItemSettingsRequest  true  "parámetros"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-items/{id}/settings [put]
func (h *InventoryHandler) UpdateStockItemSettings(c *fiber.Ctx) error {
	var req dto.StockItemSettingsRequest
	if err := bindBody(c, &req); err != nil {
		return writeError(c, h.log, err)
	}
	in, err := req.ToInput(GetTenantID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	it, err := h.svc.UpdateStockItemSettings(c.Context(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.FromStockItem(it))
}

// DeleteStockItem godoc
// @Summary      Eliminar saldo en cero sin reservas
// @Tags         stock
// @Security     Bearer
// @Param        id  path  string  true  "id del saldo"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stock-items/{id} [delete]
func (h *InventoryHandler) DeleteStockItem(c *fiber.Ctx) error {
	ok, err := h.svc.DeleteStockItem(c.Context(), GetTenantID(c), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "stock item not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Saldos por debajo del punto de reorden con la cantidad sugerida de pedido, priorizados por déficit.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega. Vacío = todas."
// @Success      200  {object}  dto.ReplenishmentListResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventory/replenishment-list [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.svc.ReplenishmentList(c.Context(), GetTenantID(c), c.Query("warehouse_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.ReplenishmentListResponse{Total: len(list), Replenishments: dto.FromReplenishment(list)})
}
