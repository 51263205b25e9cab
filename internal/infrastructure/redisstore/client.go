// Package redisstore guarda el último reporte de verificación por contrato y publica los
// movimientos confirmados en un canal Pub/Sub.
package redisstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// NewClient crea el cliente y verifica la conexión. Acepta host:port o redis://host:port.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	addr = strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}
