package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

var _ inventory.ReportCache = (*ReportCache)(nil)

const reportKeyPrefix = "vacunas:verificacion:"

// ReportCache copia del último reporte por contrato, solo para mostrar. Nunca es estado autoritativo.
type ReportCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewReportCache ttl <= 0 guarda sin expiración.
func NewReportCache(client redis.Cmdable, ttl time.Duration) *ReportCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ReportCache{client: client, ttl: ttl}
}

func reportKey(contractID string) string { return reportKeyPrefix + contractID }

// SaveReport serializa el reporte en JSON.
func (c *ReportCache) SaveReport(ctx context.Context, report *entity.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("serializar reporte: %w", err)
	}
	return c.client.Set(ctx, reportKey(report.ContractID), data, c.ttl).Err()
}

// LastReport devuelve nil, nil si no hay reporte guardado.
func (c *ReportCache) LastReport(ctx context.Context, contractID string) (*entity.Report, error) {
	data, err := c.client.Get(ctx, reportKey(contractID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("leer reporte: %w", err)
	}
	var report entity.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("deserializar reporte: %w", err)
	}
	return &report, nil
}
