package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/repository"
)

// Repos agrupa los repositorios del motor de stock. Dentro de TxRunner.Run todos están
// atados a la misma transacción.
type Repos struct {
	Movements repository.MovementRepository
	Lots      repository.LotRepository
	Stock     repository.StockRepository
	Products  repository.ProductRepository
	Calendar  repository.CalendarRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad: el movimiento y el cambio de saldo se confirman juntos o ninguno.
// Si no se obtiene un bloqueo a tiempo devuelve domain.ErrLockTimeout.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}

// MovementPublisher notifica movimientos confirmados (refresco casi en tiempo real del diagnóstico).
// Es opcional: un fallo al publicar no revierte el movimiento.
type MovementPublisher interface {
	PublishMovement(ctx context.Context, m *entity.Movement) error
}

// ReportCache guarda el último reporte de verificación por contrato, solo para visualización.
type ReportCache interface {
	SaveReport(ctx context.Context, report *entity.Report) error
	// LastReport devuelve nil, nil si no hay reporte en caché.
	LastReport(ctx context.Context, contractID string) (*entity.Report, error)
}

// ReportRenderer genera la representación imprimible del reporte.
type ReportRenderer interface {
	RenderReportPDF(ctx context.Context, report *entity.Report) ([]byte, error)
}

// ReportArchive almacena reportes exportados y devuelve una URL temporal de descarga.
type ReportArchive interface {
	StoreReport(ctx context.Context, objectName string, pdf []byte) (string, error)
}

// Metrics instrumentación del motor.
type Metrics interface {
	MovementApplied(t entity.MovementType)
	MovementRejected(t entity.MovementType, err error)
	AllocationDone(shortfall int64)
	VerificationDone(d time.Duration, report *entity.Report)
}

// ErrArchiveDisabled el archivo de reportes no está configurado.
var ErrArchiveDisabled = errors.New("archivo de reportes no configurado")

type nopPublisher struct{}

func (nopPublisher) PublishMovement(context.Context, *entity.Movement) error { return nil }

type nopCache struct{}

func (nopCache) SaveReport(context.Context, *entity.Report) error { return nil }
func (nopCache) LastReport(context.Context, string) (*entity.Report, error) {
	return nil, nil
}

type nopMetrics struct{}

func (nopMetrics) MovementApplied(entity.MovementType) {}
func (nopMetrics) MovementRejected(entity.MovementType, error) {}
func (nopMetrics) AllocationDone(int64) {}
func (nopMetrics) VerificationDone(time.Duration, *entity.Report) {}

// NopPublisher, NopCache y NopMetrics se usan cuando el colaborador no está configurado.
var (
	NopPublisher MovementPublisher = nopPublisher{}
	NopCache     ReportCache       = nopCache{}
	NopMetrics   Metrics           = nopMetrics{}
)

// Options parámetros comunes de los casos de uso.
type Options struct {
	// NearExpiryWindow ventana para vencimiento_proximo (configurable, 30 días por defecto).
	NearExpiryWindow time.Duration
	// Now reloj inyectable; por defecto time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.NearExpiryWindow <= 0 {
		o.NearExpiryWindow = 30 * 24 * time.Hour
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
