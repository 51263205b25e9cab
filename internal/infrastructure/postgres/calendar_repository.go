package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/repository"
)

var _ repository.CalendarRepository = (*CalendarRepo)(nil)

// CalendarRepo lee calendar_items (plan de vacunación, CRUD externo) y mantiene lot_assignments.
type CalendarRepo struct {
	q Querier
}

// NewCalendarRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCalendarRepository(q Querier) *CalendarRepo {
	return &CalendarRepo{q: q}
}

// GetItem obtiene el ítem con sus asignaciones; nil, nil si no existe.
func (r *CalendarRepo) GetItem(ctx context.Context, id string) (*entity.CalendarItem, error) {
	query := `
		SELECT id, contract_id, product_id, dose_quantity_required, scheduled_date
		FROM calendar_items WHERE id = $1`
	var it entity.CalendarItem
	err := r.q.QueryRow(ctx, query, id).Scan(&it.ID, &it.ContractID, &it.ProductID, &it.DoseQuantityRequired, &it.ScheduledDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get calendar item: %w", err)
	}
	rows, err := r.q.Query(ctx, `
		SELECT calendar_item_id, lot_id, quantity_assigned, created_at
		FROM lot_assignments WHERE calendar_item_id = $1 ORDER BY lot_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a entity.Assignment
		if err := rows.Scan(&a.CalendarItemID, &a.LotID, &a.QuantityAssigned, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		it.Assignments = append(it.Assignments, a)
	}
	return &it, rows.Err()
}

// ListByContract devuelve los ítems del contrato (ordenados por ID) con sus asignaciones.
func (r *CalendarRepo) ListByContract(ctx context.Context, contractID string) ([]*entity.CalendarItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, contract_id, product_id, dose_quantity_required, scheduled_date
		FROM calendar_items WHERE contract_id = $1 ORDER BY id`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list calendar items: %w", err)
	}
	var items []*entity.CalendarItem
	byID := make(map[string]*entity.CalendarItem)
	for rows.Next() {
		var it entity.CalendarItem
		if err := rows.Scan(&it.ID, &it.ContractID, &it.ProductID, &it.DoseQuantityRequired, &it.ScheduledDate); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan calendar item: %w", err)
		}
		items = append(items, &it)
		byID[it.ID] = &it
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list calendar items: %w", err)
	}
	if len(items) == 0 {
		return items, nil
	}

	rows, err = r.q.Query(ctx, `
		SELECT a.calendar_item_id, a.lot_id, a.quantity_assigned, a.created_at
		FROM lot_assignments a
		JOIN calendar_items c ON c.id = a.calendar_item_id
		WHERE c.contract_id = $1
		ORDER BY a.calendar_item_id, a.lot_id`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list contract assignments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a entity.Assignment
		if err := rows.Scan(&a.CalendarItemID, &a.LotID, &a.QuantityAssigned, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		if it, ok := byID[a.CalendarItemID]; ok {
			it.Assignments = append(it.Assignments, a)
		}
	}
	return items, rows.Err()
}

// ListContractsWithDosesBetween contratos con al menos una dosis programada en [from, to].
func (r *CalendarRepo) ListContractsWithDosesBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		SELECT DISTINCT contract_id FROM calendar_items
		WHERE scheduled_date BETWEEN $1 AND $2
		ORDER BY contract_id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contract: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReplaceAssignments borra e inserta el conjunto de asignaciones del ítem (usar dentro de una tx).
func (r *CalendarRepo) ReplaceAssignments(ctx context.Context, calendarItemID string, assignments []entity.Assignment) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM lot_assignments WHERE calendar_item_id = $1`, calendarItemID); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}
	for _, a := range assignments {
		_, err := r.q.Exec(ctx, `
			INSERT INTO lot_assignments (calendar_item_id, lot_id, quantity_assigned, created_at)
			VALUES ($1, $2, $3, $4)`,
			calendarItemID, a.LotID, a.QuantityAssigned, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return nil
}

// ListAssignments asignaciones del ítem con metadatos del lote, en orden FEFO.
func (r *CalendarRepo) ListAssignments(ctx context.Context, calendarItemID string) ([]entity.AssignmentDetail, error) {
	rows, err := r.q.Query(ctx, `
		SELECT a.calendar_item_id, a.lot_id, a.quantity_assigned, a.created_at,
			l.code, l.expiration_date, l.location
		FROM lot_assignments a
		JOIN lots l ON l.id = a.lot_id
		WHERE a.calendar_item_id = $1
		ORDER BY l.expiration_date ASC NULLS LAST, l.id`, calendarItemID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()
	out := []entity.AssignmentDetail{}
	for rows.Next() {
		var d entity.AssignmentDetail
		if err := rows.Scan(&d.CalendarItemID, &d.LotID, &d.QuantityAssigned, &d.CreatedAt,
			&d.LotCode, &d.ExpirationDate, &d.Location); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// SumAssignedByLot suma lo asignado al lote, excluyendo un ítem (vacío = ninguno).
func (r *CalendarRepo) SumAssignedByLot(ctx context.Context, lotID, excludeItemID string) (int64, error) {
	var total int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_assigned), 0)::bigint
		FROM lot_assignments WHERE lot_id = $1 AND calendar_item_id <> $2`, lotID, excludeItemID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum assigned by lot: %w", err)
	}
	return total, nil
}
