package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/application/dto"
	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// StockHandler libro de movimientos, stock actual y conciliación (protegido).
type StockHandler struct {
	ledger     *inventory.RegisterMovementUseCase
	query      *inventory.StockQueryUseCase
	reconciler *inventory.ReconcileUseCase
	log        zerolog.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.RegisterMovementUseCase, query *inventory.StockQueryUseCase, reconciler *inventory.ReconcileUseCase, log zerolog.Logger) *StockHandler {
	return &StockHandler{ledger: ledger, query: query, reconciler: reconciler, log: log}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de stock
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, quantity; lot_id o lot según el tipo"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      423   {object}  dto.ErrorResponse
// @Router       /api/stock/movements [post]
func (h *StockHandler) RegisterMovement(c *fiber.Ctx) error {
	actor := GetUserID(c)
	if actor == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.ledger.RegisterMovementFromRequest(c.UserContext(), actor, in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(mov))
}

// ListMovements godoc
// @Summary      Consultar el libro de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  query  string  false  "Producto"
// @Param        lot_id      query  string  false  "Lote"
// @Param        type        query  string  false  "ingreso, egreso, ajuste_positivo, ajuste_negativo, reserva, liberacion_reserva"
// @Param        date_from   query  string  false  "AAAA-MM-DD"
// @Param        date_to     query  string  false  "AAAA-MM-DD (inclusive)"
// @Param        limit       query  int     false  "Máximo 500"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.ListMovementsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	filter := entity.MovementFilter{
		ProductID: c.Query("product_id"),
		LotID:     c.Query("lot_id"),
		Type:      entity.MovementType(c.Query("type")),
		Limit:     c.QueryInt("limit", 0),
		Offset:    c.QueryInt("offset", 0),
	}
	if s := c.Query("date_from"); s != "" {
		from, err := inventory.ParseDate(s)
		if err != nil {
			return respondError(c, h.log, err)
		}
		filter.DateFrom = &from
	}
	if s := c.Query("date_to"); s != "" {
		to, err := inventory.ParseDate(s)
		if err != nil {
			return respondError(c, h.log, err)
		}
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.DateTo = &end
	}
	list, err := h.query.ListMovements(c.UserContext(), filter)
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := dto.ListMovementsResponse{Movements: make([]dto.MovementResponse, 0, len(list))}
	for _, m := range list {
		out.Movements = append(out.Movements, dto.ToMovementResponse(m))
	}
	out.Page = dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset}
	if out.Page.Limit <= 0 {
		out.Page.Limit = len(list)
	}
	return c.JSON(out)
}

// GetStock godoc
// @Summary      Stock actual de un producto con sus lotes (orden FEFO) y valorización
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "Producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{productId} [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	view, err := h.query.GetCurrentStock(c.UserContext(), c.Params("productId"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := dto.StockResponse{
		ProductID:      view.Product.ID,
		ProductName:    view.Product.Name,
		StockControl:   view.Product.RequiresStockControl,
		Quantity:       view.Quantity,
		Reserved:       view.Reserved,
		Available:      view.Available,
		AverageCost:    view.AverageCost,
		InventoryValue: view.InventoryValue,
		Lots:           make([]dto.LotResponse, 0, len(view.Lots)),
	}
	for _, l := range view.Lots {
		out.Lots = append(out.Lots, dto.ToLotResponse(l))
	}
	return c.JSON(out)
}

// PreviewAllocation godoc
// @Summary      Simular la selección FEFO sin reservar
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path   string  true  "Producto"
// @Param        quantity   query  int     true  "Dosis a cubrir"
// @Success      200  {object}  dto.AllocationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{productId}/allocation-preview [get]
func (h *StockHandler) PreviewAllocation(c *fiber.Ctx) error {
	res, err := h.query.PreviewAllocation(c.UserContext(), c.Params("productId"), int64(c.QueryInt("quantity", 0)))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toAllocationResponse(res))
}

// Reconcile godoc
// @Summary      Conciliar stock agregado, lotes y libro de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "Producto"
// @Success      200  {object}  dto.ReconcileResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ReconcileResponse
// @Router       /api/stock/products/{productId}/reconcile [post]
func (h *StockHandler) Reconcile(c *fiber.Ctx) error {
	res, err := h.reconciler.Reconcile(c.UserContext(), c.Params("productId"))
	if err != nil && (res == nil || !errors.Is(err, domain.ErrInconsistentState)) {
		return respondError(c, h.log, err)
	}
	out := dto.ReconcileResponse{
		ProductID:      res.ProductID,
		AggregateStock: res.Aggregate,
		LotsOnHand:     res.LotsOnHand,
		LedgerTotal:    res.LedgerBalance,
		Consistent:     res.Consistent(),
		Violations:     res.Issues,
	}
	if !out.Consistent {
		return c.Status(fiber.StatusInternalServerError).JSON(out)
	}
	return c.JSON(out)
}

func toAllocationResponse(res *inventory.AllocationResult) dto.AllocationResponse {
	out := dto.AllocationResponse{
		CalendarItemID:  res.CalendarItemID,
		ProductID:       res.ProductID,
		Required:        res.Required,
		Assignments:     make([]dto.AllocationLineResponse, 0, len(res.Assignments)),
		Shortfall:       res.Shortfall,
		ExpiredLotIDs:   res.ExpiredLotIDs,
		StockControlled: res.StockControlled,
	}
	for _, a := range res.Assignments {
		out.Assignments = append(out.Assignments, dto.AllocationLineResponse{
			LotID:          a.LotID,
			LotCode:        a.LotCode,
			ExpirationDate: dto.FormatDate(a.ExpirationDate),
			Quantity:       a.Quantity,
		})
	}
	return out
}
