package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/application/dto"
	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// El orden importa: un error envuelto puede cumplir más de un errors.Is.
var errorMappings = []errorMapping{
	{domain.ErrLockTimeout, fiber.StatusLocked, "LOCK_TIMEOUT"},
	{domain.ErrInconsistentState, fiber.StatusInternalServerError, "INCONSISTENT_STATE"},

	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrInvalidMovementType, fiber.StatusBadRequest, "INVALID_MOVEMENT_TYPE"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},

	{domain.ErrProductNotFound, fiber.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{domain.ErrLotNotFound, fiber.StatusNotFound, "LOT_NOT_FOUND"},
	{domain.ErrCalendarItemNotFound, fiber.StatusNotFound, "CALENDAR_ITEM_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},

	{domain.ErrOverCommit, fiber.StatusConflict, "OVER_COMMIT"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrReservationExceedsStock, fiber.StatusConflict, "RESERVATION_EXCEEDS_STOCK"},
	{domain.ErrReleaseExceedsReserved, fiber.StatusConflict, "RELEASE_EXCEEDS_RESERVED"},

	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{inventory.ErrArchiveDisabled, fiber.StatusServiceUnavailable, "ARCHIVE_DISABLED"},
}

// statusFor traduce un error de dominio a status HTTP y código de la API.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// respondError escribe el cuerpo dto.ErrorResponse. Los 5xx se registran en el log y no exponen detalles
// internos, salvo el estado inconsistente que debe llegar al operador.
func respondError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	status, code := statusFor(err)
	msg := err.Error()
	switch {
	case status == fiber.StatusLocked:
		c.Set(fiber.HeaderRetryAfter, "1")
		log.Warn().Err(err).Str("path", c.Path()).Msg("bloqueo no obtenido")
	case code == "INTERNAL":
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
		msg = "error interno"
	case status >= fiber.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Path()).Msg(code)
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// ErrorHandler manejador de errores de fiber para rutas no encontradas, cuerpos inválidos y pánicos recuperados.
func ErrorHandler(log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: "HTTP_ERROR", Message: fe.Message})
		}
		return respondError(c, log, err)
	}
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
