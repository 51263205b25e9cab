package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger       *inventory.RegisterMovementUseCase
	StockQuery   *inventory.StockQueryUseCase
	Reconciler   *inventory.ReconcileUseCase
	Allocator    *inventory.AllocateDoseUseCase
	Binder       *inventory.BindAssignmentsUseCase
	Verifier     *inventory.VerifyContractUseCase
	ReportExport *inventory.ReportExportUseCase // nil = sin PDF ni archivo
	// Metrics si no es nil expone GET /metrics.
	Metrics   prometheus.Gatherer
	JWTSecret string
	JWTIssuer string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	anyRole := RequireRole(RoleAdmin, RoleBodeguero, RoleVeterinario)
	warehouse := RequireRole(RoleAdmin, RoleBodeguero)

	// Stock: libro de movimientos, lotes, conciliación
	stock := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger, deps.StockQuery, deps.Reconciler, deps.Log)
	stock.Post("/movements", warehouse, stockHandler.RegisterMovement)
	stock.Get("/movements", anyRole, stockHandler.ListMovements)
	stock.Get("/products/:productId", anyRole, stockHandler.GetStock)
	stock.Get("/products/:productId/allocation-preview", anyRole, stockHandler.PreviewAllocation)
	stock.Post("/products/:productId/reconcile", RequireRole(RoleAdmin), stockHandler.Reconcile)

	// Calendario de vacunación: asignación de lotes a dosis
	items := protected.Group("/calendar-items")
	calendarHandler := NewCalendarHandler(deps.Allocator, deps.Binder, deps.Log)
	items.Post("/:id/allocation", anyRole, calendarHandler.Allocate)
	items.Put("/:id/assignments", warehouse, calendarHandler.BindAssignments)
	items.Get("/:id/assignments", anyRole, calendarHandler.GetAssignments)

	// Diagnóstico por contrato
	contracts := protected.Group("/contracts")
	diagHandler := NewDiagnosticsHandler(deps.Verifier, deps.ReportExport, deps.Log)
	contracts.Get("/:id/verification", anyRole, diagHandler.Verify)
	contracts.Get("/:id/verification/last", anyRole, diagHandler.LastReport)
	contracts.Get("/:id/verification/pdf", anyRole, diagHandler.PDF)
	contracts.Post("/:id/verification/archive", warehouse, diagHandler.Archive)
}
