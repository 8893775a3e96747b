package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/inventario-ledger/internal/application/analytics"
	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/application/report"
	"github.com/jhoicas/inventario-ledger/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	LocationUC    *usecase.LocationUseCase
	ProductUC     *usecase.ProductUseCase
	Ledger        *inventory.StockLedger
	Transfers     *inventory.TransferCoordinator
	Audits        *inventory.AuditReconciler
	Reservations  *inventory.ReservationManager
	Productions   *inventory.ProductionUseCase
	Movements     *inventory.MovementLog
	Projection    *inventory.StockProjection
	DashboardUC   *appanalytics.DashboardUseCase
	Replenishment *appanalytics.ReplenishmentUseCase
	InsightUC     *usecase.InsightUseCase
	ReportUC      *report.ReportUseCase
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Todo /api requiere Bearer Token con rol.
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret), RequireRole())

	stockRoles := RequireRole(RoleAdmin, RoleBodeguero)
	saleRoles := RequireRole(RoleAdmin, RoleVendedor)

	// Locations
	locations := api.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Get("/", locationHandler.List)
	locations.Post("/", RequireRole(RoleAdmin), locationHandler.Create)
	locations.Put("/:id", RequireRole(RoleAdmin), locationHandler.Rename)

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Post("/", stockRoles, productHandler.Create)
	products.Put("/:id", stockRoles, productHandler.Update)

	// Inventory: ledger, historial y foto de stock
	inv := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.Transfers, deps.Audits, deps.Movements, deps.Projection, deps.ReportUC)
	inv.Get("/movements", inventoryHandler.History)
	inv.Get("/movements/export", inventoryHandler.Export)
	inv.Get("/snapshot", inventoryHandler.Snapshot)
	inv.Post("/movements", stockRoles, inventoryHandler.RegisterMovement)
	inv.Post("/transfers", stockRoles, inventoryHandler.Transfer)
	inv.Post("/audits", stockRoles, inventoryHandler.Audit)
	inv.Get("/products/:id/verify", RequireRole(RoleAdmin), inventoryHandler.Verify)

	// Sales: reserva, despacho, cancelación
	sales := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.Reservations)
	sales.Get("/", saleHandler.List)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Post("/", saleRoles, saleHandler.Create)
	sales.Post("/recalculate/:product_id", RequireRole(RoleAdmin), saleHandler.Recalculate)
	sales.Post("/:id/fulfill", RequireRole(RoleAdmin, RoleVendedor, RoleBodeguero), saleHandler.Fulfill)
	sales.Post("/:id/cancel", saleRoles, saleHandler.Cancel)

	// Productions
	productions := api.Group("/productions")
	productionHandler := NewProductionHandler(deps.Productions)
	productions.Get("/", productionHandler.List)
	productions.Post("/", stockRoles, productionHandler.Create)
	productions.Post("/:id/process", stockRoles, productionHandler.Process)

	// Dashboard, IA y reportes (solo lectura)
	dashboardHandler := NewDashboardHandler(deps.DashboardUC, deps.Replenishment)
	api.Get("/dashboard/summary", dashboardHandler.GetSummary)
	api.Get("/dashboard/replenishment", dashboardHandler.GetReplenishment)

	aiHandler := NewAIHandler(deps.InsightUC)
	api.Post("/ai/insights", aiHandler.Insights)

	reportHandler := NewReportHandler(deps.ReportUC)
	api.Get("/reports/stock.pdf", reportHandler.StockPDF)
}
