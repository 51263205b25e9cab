package main

import (
	"context"
	"time"

	"github.com/jhoicas/Inventario-vacunas/internal/infrastructure/postgres"
	"github.com/jhoicas/Inventario-vacunas/pkg/config"
	"github.com/jhoicas/Inventario-vacunas/pkg/logger"
)

// Aplica schema.sql sobre la base configurada (DATABASE_URL o DB_*). Idempotente.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-migrate"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB, postgres.PoolOptions{AppName: cfg.App.Name + "-migrate", MaxConns: 2, MinConns: 1, PreferIPv4: true})
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migración")
	}
	log.Info().Msg("esquema aplicado")
}
