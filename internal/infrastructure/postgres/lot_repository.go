package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

const lotColumns = `id, product_id, code, quantity_on_hand, quantity_reserved, expiration_date,
		location, unit_cost, retired, created_at, updated_at`

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	err := row.Scan(&l.ID, &l.ProductID, &l.Code, &l.QuantityOnHand, &l.QuantityReserved, &l.ExpirationDate,
		&l.Location, &l.UnitCost, &l.Retired, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create persiste un lote nuevo.
func (r *LotRepo) Create(ctx context.Context, lot *entity.Lot) error {
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		lot.ID, lot.ProductID, lot.Code, lot.QuantityOnHand, lot.QuantityReserved, lot.ExpirationDate,
		lot.Location, lot.UnitCost, lot.Retired, lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: el código de lote %q ya existe para el producto", domain.ErrInvalidInput, lot.Code)
		}
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID; nil, nil si no existe.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	return r.get(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

// GetForUpdate obtiene el lote bloqueando su fila.
func (r *LotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.get(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id)
}

func (r *LotRepo) get(ctx context.Context, query, id string) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

// Update guarda cantidades, metadatos y estado de retiro del lote.
func (r *LotRepo) Update(ctx context.Context, lot *entity.Lot) error {
	query := `
		UPDATE lots SET quantity_on_hand = $2, quantity_reserved = $3, expiration_date = $4,
			location = $5, unit_cost = $6, retired = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		lot.ID, lot.QuantityOnHand, lot.QuantityReserved, lot.ExpirationDate,
		lot.Location, lot.UnitCost, lot.Retired, lot.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("%w: lote %s: %v", domain.ErrInconsistentState, lot.ID, err)
		}
		return fmt.Errorf("update lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLotNotFound
	}
	return nil
}

// ListByProduct devuelve todos los lotes del producto ordenados por ID.
func (r *LotRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE product_id = $1 ORDER BY id`, productID)
}

// ListByProductForUpdate igual que ListByProduct bloqueando las filas.
func (r *LotRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE product_id = $1 ORDER BY id FOR UPDATE`, productID)
}

// ListByIDs devuelve los lotes existentes entre ids, ordenados por ID.
func (r *LotRepo) ListByIDs(ctx context.Context, ids []string) ([]*entity.Lot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = ANY($1) ORDER BY id`, ids)
}

func (r *LotRepo) list(ctx context.Context, query string, arg any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// SumOnHand suma las existencias de los lotes del producto.
func (r *LotRepo) SumOnHand(ctx context.Context, productID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity_on_hand), 0)::bigint FROM lots WHERE product_id = $1`, productID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum lots on hand: %w", err)
	}
	return total, nil
}
