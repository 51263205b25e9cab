package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-vacunas/internal/application/dto"
	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
)

// DiagnosticsHandler verificación de contratos y exportación del reporte.
type DiagnosticsHandler struct {
	verifier *inventory.VerifyContractUseCase
	exporter *inventory.ReportExportUseCase
	log      zerolog.Logger
}

// NewDiagnosticsHandler construye el handler. exporter puede ser nil (sin PDF).
func NewDiagnosticsHandler(verifier *inventory.VerifyContractUseCase, exporter *inventory.ReportExportUseCase, log zerolog.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{verifier: verifier, exporter: exporter, log: log}
}

// Verify godoc
// @Summary      Verificar el stock de todas las dosis de un contrato
// @Tags         diagnostics
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Contrato"
// @Success      200  {object}  dto.ReportResponse
// @Router       /api/contracts/{id}/verification [get]
func (h *DiagnosticsHandler) Verify(c *fiber.Ctx) error {
	report, err := h.verifier.VerifyContract(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToReportResponse(report))
}

// LastReport godoc
// @Summary      Último reporte de verificación (caché; si no hay, se calcula)
// @Tags         diagnostics
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Contrato"
// @Success      200  {object}  dto.ReportResponse
// @Router       /api/contracts/{id}/verification/last [get]
func (h *DiagnosticsHandler) LastReport(c *fiber.Ctx) error {
	report, err := h.verifier.LastReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.ToReportResponse(report))
}

// PDF godoc
// @Summary      Reporte de verificación en PDF
// @Tags         diagnostics
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "Contrato"
// @Success      200  {file}  binary
// @Router       /api/contracts/{id}/verification/pdf [get]
func (h *DiagnosticsHandler) PDF(c *fiber.Ctx) error {
	if h.exporter == nil {
		return respondError(c, h.log, fmt.Errorf("%w: exportación PDF no configurada", domain.ErrNotFound))
	}
	contractID := c.Params("id")
	pdf, err := h.exporter.RenderPDF(c.UserContext(), contractID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="verificacion-%s.pdf"`, contractID))
	return c.Send(pdf)
}

// Archive godoc
// @Summary      Archivar el PDF del reporte en almacenamiento de objetos
// @Tags         diagnostics
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Contrato"
// @Success      201  {object}  dto.ArchiveReportResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/contracts/{id}/verification/archive [post]
func (h *DiagnosticsHandler) Archive(c *fiber.Ctx) error {
	if h.exporter == nil {
		return respondError(c, h.log, inventory.ErrArchiveDisabled)
	}
	contractID := c.Params("id")
	url, err := h.exporter.Archive(c.UserContext(), contractID)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ArchiveReportResponse{ContractID: contractID, URL: url})
}
