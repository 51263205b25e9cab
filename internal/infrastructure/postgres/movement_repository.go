package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

const movementColumns = `id, product_id, lot_id, type, quantity, stock_before, stock_after, reason, notes, actor, created_at`

// MovementRepo libro de movimientos sobre PostgreSQL. Solo INSERT: la tabla no admite UPDATE ni DELETE.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

// Create persiste un movimiento.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	var lotID *string
	if m.LotID != "" {
		lotID = &m.LotID
	}
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, lotID, string(m.Type), m.Quantity, m.StockBefore, m.StockAfter,
		m.Reason, m.Notes, m.Actor, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

func scanMovement(row pgx.Row) (*entity.Movement, error) {
	var m entity.Movement
	var lotID *string
	var t string
	if err := row.Scan(&m.ID, &m.ProductID, &lotID, &t, &m.Quantity, &m.StockBefore, &m.StockAfter,
		&m.Reason, &m.Notes, &m.Actor, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(t)
	if lotID != nil {
		m.LotID = *lotID
	}
	return &m, nil
}

// GetByID obtiene un movimiento por ID.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List lista movimientos con filtros opcionales, del más reciente al más antiguo.
func (r *MovementRepo) List(ctx context.Context, f entity.MovementFilter) ([]*entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE true`
	var args []any
	pos := 1
	add := func(cond string, v any) {
		query += fmt.Sprintf(" AND "+cond, pos)
		args = append(args, v)
		pos++
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.LotID != "" {
		add("lot_id = $%d", f.LotID)
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.DateFrom != nil {
		add("created_at >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("created_at <= $%d", *f.DateTo)
	}
	query += fmt.Sprintf(" ORDER BY seq DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	list := []*entity.Movement{}
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// SumDelta reproduce el libro del producto: entradas suman, salidas restan, reservas no cambian el saldo.
func (r *MovementRepo) SumDelta(ctx context.Context, productID string) (int64, error) {
	query := `
		SELECT COALESCE(SUM(CASE
			WHEN type IN ('ingreso', 'ajuste_positivo') THEN quantity
			WHEN type IN ('egreso', 'ajuste_negativo') THEN -quantity
			ELSE 0 END), 0)::bigint
		FROM stock_movements WHERE product_id = $1`
	var total int64
	if err := r.q.QueryRow(ctx, query, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum movements: %w", err)
	}
	return total, nil
}
