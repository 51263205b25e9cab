// Package jobs tareas periódicas de la aplicación. El motor de stock no programa nada por sí mismo;
// estas tareas solo las registra el bootstrap.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// ReportRefresher recalcula los reportes de los contratos con dosis próximas.
type ReportRefresher interface {
	RefreshUpcoming(ctx context.Context, horizon time.Duration) (int, error)
}

// Scheduler envuelve gocron con el job de refresco del diagnóstico.
type Scheduler struct {
	scheduler gocron.Scheduler
	log       zerolog.Logger
}

// NewDiagnosticsScheduler registra el refresco cada interval para dosis dentro de horizon.
func NewDiagnosticsScheduler(refresher ReportRefresher, interval, horizon time.Duration, log zerolog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("intervalo de refresco inválido: %s", interval)
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("crear scheduler: %w", err)
	}
	js := &Scheduler{scheduler: s, log: log.With().Str("component", "jobs").Logger()}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(js.refresh, refresher, horizon, interval),
		gocron.WithName("diagnostics-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("registrar job de diagnóstico: %w", err)
	}
	return js, nil
}

func (js *Scheduler) refresh(refresher ReportRefresher, horizon, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	start := time.Now()
	n, err := refresher.RefreshUpcoming(ctx, horizon)
	if err != nil {
		js.log.Warn().Err(err).Int("contracts", n).Msg("refresco de diagnóstico incompleto")
		return
	}
	js.log.Info().Int("contracts", n).Dur("elapsed", time.Since(start)).Msg("diagnóstico refrescado")
}

func (js *Scheduler) Start() {
	js.log.Info().Msg("iniciando jobs")
	js.scheduler.Start()
}

func (js *Scheduler) Stop() error {
	return js.scheduler.Shutdown()
}
