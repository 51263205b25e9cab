package inventory

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// ReportExportUseCase genera el PDF del reporte de verificación y, si hay almacenamiento
// configurado, lo archiva devolviendo una URL temporal.
type ReportExportUseCase struct {
	verifier *VerifyContractUseCase
	renderer ReportRenderer
	archive  ReportArchive
	log      zerolog.Logger
}

// NewReportExportUseCase archive puede ser nil (archivo deshabilitado).
func NewReportExportUseCase(verifier *VerifyContractUseCase, renderer ReportRenderer, archive ReportArchive, log zerolog.Logger) *ReportExportUseCase {
	return &ReportExportUseCase{
		verifier: verifier,
		renderer: renderer,
		archive:  archive,
		log:      log.With().Str("component", "report_export").Logger(),
	}
}

// RenderPDF verifica el contrato y devuelve el PDF del reporte.
func (uc *ReportExportUseCase) RenderPDF(ctx context.Context, contractID string) ([]byte, error) {
	report, err := uc.verifier.VerifyContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.renderer.RenderReportPDF(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("generar pdf del reporte: %w", err)
	}
	return pdf, nil
}

// Archive genera el PDF y lo guarda en el almacenamiento de objetos.
func (uc *ReportExportUseCase) Archive(ctx context.Context, contractID string) (string, error) {
	if uc.archive == nil {
		return "", ErrArchiveDisabled
	}
	report, err := uc.verifier.VerifyContract(ctx, contractID)
	if err != nil {
		return "", err
	}
	pdf, err := uc.renderer.RenderReportPDF(ctx, report)
	if err != nil {
		return "", fmt.Errorf("generar pdf del reporte: %w", err)
	}
	name := fmt.Sprintf("verificaciones/%s/%s.pdf", contractID, report.ReferenceDate.Format("20060102"))
	url, err := uc.archive.StoreReport(ctx, name, pdf)
	if err != nil {
		return "", fmt.Errorf("archivar reporte: %w", err)
	}
	uc.log.Info().Str("contract_id", contractID).Str("object", name).Msg("reporte archivado")
	return url, nil
}
