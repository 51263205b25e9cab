package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
)

// Ensure TxRunner implements inventory.TxRunner.
var _ inventory.TxRunner = (*TxRunner)(nil)

// TxBeginner lo cumplen pgxpool.Pool y pgxmock.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db          TxBeginner
	lockTimeout time.Duration
}

// NewTxRunner construye el runner. lockTimeout acota la espera de cada bloqueo de fila
// (SET LOCAL lock_timeout); 0 deja el valor del servidor.
func NewTxRunner(db TxBeginner, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{db: db, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Un bloqueo no obtenido a tiempo se devuelve como domain.ErrLockTimeout; nada se aplica.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.Repos) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return mapTxError(fmt.Errorf("begin transaction: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		ms := strconv.FormatInt(r.lockTimeout.Milliseconds(), 10) + "ms"
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", ms); err != nil {
			return mapTxError(fmt.Errorf("set lock_timeout: %w", err))
		}
	}

	if err := fn(ReposFor(tx)); err != nil {
		return mapTxError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapTxError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}

// ReposFor construye los repositorios sobre un pool o una tx.
func ReposFor(q Querier) inventory.Repos {
	return inventory.Repos{
		Movements: NewMovementRepository(q),
		Lots:      NewLotRepository(q),
		Stock:     NewStockRepository(q),
		Products:  NewProductRepository(q),
		Calendar:  NewCalendarRepository(q),
	}
}

func mapTxError(err error) error {
	if isLockTimeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrLockTimeout, err)
	}
	return err
}
