package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/application/dto"
	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
)

// CalendarHandler asignación de lotes a las dosis del plan de vacunación.
type CalendarHandler struct {
	allocator *inventory.AllocateDoseUseCase
	binder    *inventory.BindAssignmentsUseCase
	log       zerolog.Logger
}

// NewCalendarHandler construye el handler.
func NewCalendarHandler(allocator *inventory.AllocateDoseUseCase, binder *inventory.BindAssignmentsUseCase, log zerolog.Logger) *CalendarHandler {
	return &CalendarHandler{allocator: allocator, binder: binder, log: log}
}

// Allocate godoc
// @Summary      Asignar lotes a una dosis por FEFO (reserva el stock)
// @Description  Reemplaza la asignación previa del ítem liberando sus reservas.
// @Tags         calendar
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true   "Ítem de calendario"
// @Param        body  body  dto.AllocateDoseRequest  false  "quantity 0 = dosis requerida"
// @Success      200  {object}  dto.AllocationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      423  {object}  dto.ErrorResponse
// @Router       /api/calendar-items/{id}/allocation [post]
func (h *CalendarHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocateDoseRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	res, err := h.allocator.AllocateDose(c.UserContext(), inventory.AllocateDoseInput{
		CalendarItemID: c.Params("id"),
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
		Actor:          GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toAllocationResponse(res))
}

// BindAssignments godoc
// @Summary      Vincular lotes manualmente a una dosis
// @Tags         calendar
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "Ítem de calendario"
// @Param        body  body  dto.BindAssignmentsRequest  true  "lotes y cantidades"
// @Success      200  {object}  dto.AssignmentsResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/calendar-items/{id}/assignments [put]
func (h *CalendarHandler) BindAssignments(c *fiber.Ctx) error {
	var in dto.BindAssignmentsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]inventory.BindLine, 0, len(in.Assignments))
	for _, a := range in.Assignments {
		lines = append(lines, inventory.BindLine{LotID: a.LotID, Quantity: a.Quantity})
	}
	itemID := c.Params("id")
	details, err := h.binder.BindAssignments(c.UserContext(), itemID, lines, GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToAssignmentsResponse(itemID, details))
}

// GetAssignments godoc
// @Summary      Lotes asignados a una dosis (orden FEFO)
// @Tags         calendar
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Ítem de calendario"
// @Success      200  {object}  dto.AssignmentsResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/calendar-items/{id}/assignments [get]
func (h *CalendarHandler) GetAssignments(c *fiber.Ctx) error {
	itemID := c.Params("id")
	details, err := h.binder.GetAssignments(c.UserContext(), itemID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToAssignmentsResponse(itemID, details))
}
