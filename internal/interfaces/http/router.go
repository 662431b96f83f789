package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/inventory"
	"github.com/jhoicas/stock-ledger/pkg/jwt"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Inventory *inventory.Service
	Logger    *logger.Logger
	JWTSecret string
	JWTIssuer string // vacío = no se valida el emisor
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(jwt.NewVerifier(deps.JWTSecret, deps.JWTIssuer)))

	h := NewInventoryHandler(deps.Inventory, deps.Logger)
	writers := RequireRole(RoleAdmin, RoleBodeguero)
	sellers := RequireRole(RoleAdmin, RoleBodeguero, RoleVendedor)
	admins := RequireRole(RoleAdmin)

	inv := protected.Group("/inventory")

	// Ledger
	inv.Post("/transactions", writers, h.RecordTransaction)
	inv.Get("/transactions", h.ListTransactions)
	inv.Post("/deductions", sellers, h.Deduct)
	inv.Post("/transfers", writers, h.Transfer)

	// Lotes
	inv.Post("/batches", writers, h.CreateBatch)
	inv.Get("/batches/:id", h.ShowBatch)
	inv.Put("/batches/:id", writers, h.UpdateBatch)
	inv.Delete("/batches/:id", admins, h.DeleteBatch)

	// Reservas
	inv.Post("/reservations", sellers, h.Reserve)
	inv.Delete("/reservations/:id", sellers, h.ReleaseReservation)

	// Saldos
	inv.Get("/stock-level", h.GetStockLevel)
	inv.Get("/stock/fefo", h.GetStockByFEFO)
	inv.Get("/stock-items", h.ListStockItems)
	inv.Get("/stock-items/:id", h.GetStockItem)
	inv.Put("/stock-items/:id/settings", admins, h.UpdateStockItemSettings)
	inv.Delete("/stock-items/:id", admins, h.DeleteStockItem)
	inv.Get("/replenishment-list", h.GetReplenishmentList)
}
