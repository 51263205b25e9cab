package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*productRepo)(nil)
	_ repository.StockRepository    = (*stockRepo)(nil)
	_ repository.LotRepository      = (*lotRepo)(nil)
	_ repository.MovementRepository = (*movementRepo)(nil)
	_ repository.CalendarRepository = (*calendarRepo)(nil)
)

type productRepo struct{ st *state }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := r.st.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

type stockRepo struct{ st *state }

func (r *stockRepo) Get(_ context.Context, productID string) (*entity.Stock, error) {
	s, ok := r.st.stock[productID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// GetForUpdate crea el agregado en cero si no existe, igual que el INSERT previo al bloqueo en postgres.
func (r *stockRepo) GetForUpdate(_ context.Context, productID string) (*entity.Stock, error) {
	s, ok := r.st.stock[productID]
	if !ok {
		s = entity.Stock{ProductID: productID}
		r.st.stock[productID] = s
	}
	return &s, nil
}

func (r *stockRepo) Upsert(_ context.Context, stock *entity.Stock) error {
	r.st.stock[stock.ProductID] = *stock
	return nil
}

type lotRepo struct{ st *state }

func (r *lotRepo) Create(_ context.Context, lot *entity.Lot) error {
	r.st.lots[lot.ID] = cloneLot(*lot)
	return nil
}

func (r *lotRepo) GetByID(_ context.Context, id string) (*entity.Lot, error) {
	l, ok := r.st.lots[id]
	if !ok {
		return nil, nil
	}
	out := cloneLot(l)
	return &out, nil
}

func (r *lotRepo) GetForUpdate(ctx context.Context, id string) (*entity.Lot, error) {
	return r.GetByID(ctx, id)
}

func (r *lotRepo) Update(_ context.Context, lot *entity.Lot) error {
	r.st.lots[lot.ID] = cloneLot(*lot)
	return nil
}

func (r *lotRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Lot, error) {
	var out []*entity.Lot
	for _, id := range sortedKeys(r.st.lots) {
		l := r.st.lots[id]
		if l.ProductID != productID {
			continue
		}
		c := cloneLot(l)
		out = append(out, &c)
	}
	return out, nil
}

func (r *lotRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.Lot, error) {
	return r.ListByProduct(ctx, productID)
}

func (r *lotRepo) ListByIDs(_ context.Context, ids []string) ([]*entity.Lot, error) {
	out := make([]*entity.Lot, 0, len(ids))
	for _, id := range ids {
		if l, ok := r.st.lots[id]; ok {
			c := cloneLot(l)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *lotRepo) SumOnHand(_ context.Context, productID string) (int64, error) {
	var total int64
	for _, l := range r.st.lots {
		if l.ProductID == productID {
			total += l.QuantityOnHand
		}
	}
	return total, nil
}

type movementRepo struct{ st *state }

func (r *movementRepo) Create(_ context.Context, m *entity.Movement) error {
	r.st.movements = append(r.st.movements, *m)
	return nil
}

func (r *movementRepo) GetByID(_ context.Context, id string) (*entity.Movement, error) {
	for i := range r.st.movements {
		if r.st.movements[i].ID == id {
			m := r.st.movements[i]
			return &m, nil
		}
	}
	return nil, nil
}

// List recorre el libro del más reciente al más antiguo.
func (r *movementRepo) List(_ context.Context, f entity.MovementFilter) ([]*entity.Movement, error) {
	out := []*entity.Movement{}
	skipped := 0
	for i := len(r.st.movements) - 1; i >= 0; i-- {
		m := r.st.movements[i]
		switch {
		case f.ProductID != "" && m.ProductID != f.ProductID,
			f.LotID != "" && m.LotID != f.LotID,
			f.Type != "" && m.Type != f.Type,
			f.DateFrom != nil && m.CreatedAt.Before(*f.DateFrom),
			f.DateTo != nil && m.CreatedAt.After(*f.DateTo):
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		out = append(out, &m)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (r *movementRepo) SumDelta(_ context.Context, productID string) (int64, error) {
	var total int64
	for _, m := range r.st.movements {
		if m.ProductID == productID {
			total += m.Type.StockDelta(m.Quantity)
		}
	}
	return total, nil
}

type calendarRepo struct{ st *state }

func (r *calendarRepo) withAssignments(item entity.CalendarItem) *entity.CalendarItem {
	item.Assignments = append([]entity.Assignment(nil), r.st.assignments[item.ID]...)
	return &item
}

func (r *calendarRepo) GetItem(_ context.Context, id string) (*entity.CalendarItem, error) {
	item, ok := r.st.items[id]
	if !ok {
		return nil, nil
	}
	return r.withAssignments(item), nil
}

func (r *calendarRepo) ListByContract(_ context.Context, contractID string) ([]*entity.CalendarItem, error) {
	var out []*entity.CalendarItem
	for _, id := range sortedKeys(r.st.items) {
		item := r.st.items[id]
		if item.ContractID == contractID {
			out = append(out, r.withAssignments(item))
		}
	}
	return out, nil
}

func (r *calendarRepo) ListContractsWithDosesBetween(_ context.Context, from, to time.Time) ([]string, error) {
	seen := make(map[string]struct{})
	for _, item := range r.st.items {
		if item.ScheduledDate.Before(from) || item.ScheduledDate.After(to) {
			continue
		}
		seen[item.ContractID] = struct{}{}
	}
	return sortedKeys(seen), nil
}

func (r *calendarRepo) ReplaceAssignments(_ context.Context, calendarItemID string, assignments []entity.Assignment) error {
	if len(assignments) == 0 {
		delete(r.st.assignments, calendarItemID)
		return nil
	}
	r.st.assignments[calendarItemID] = append([]entity.Assignment(nil), assignments...)
	return nil
}

// ListAssignments en orden FEFO de los lotes vinculados.
func (r *calendarRepo) ListAssignments(_ context.Context, calendarItemID string) ([]entity.AssignmentDetail, error) {
	byLot := make(map[string]entity.Assignment)
	lots := make([]*entity.Lot, 0, len(r.st.assignments[calendarItemID]))
	for _, a := range r.st.assignments[calendarItemID] {
		byLot[a.LotID] = a
		l, ok := r.st.lots[a.LotID]
		if !ok {
			l = entity.Lot{ID: a.LotID}
		}
		c := cloneLot(l)
		lots = append(lots, &c)
	}
	inventory.SortFEFO(lots)
	out := make([]entity.AssignmentDetail, 0, len(lots))
	for _, l := range lots {
		out = append(out, entity.AssignmentDetail{
			Assignment:     byLot[l.ID],
			LotCode:        l.Code,
			ExpirationDate: l.ExpirationDate,
			Location:       l.Location,
		})
	}
	return out, nil
}

func (r *calendarRepo) SumAssignedByLot(_ context.Context, lotID, excludeItemID string) (int64, error) {
	var total int64
	for itemID, as := range r.st.assignments {
		if itemID == excludeItemID {
			continue
		}
		for _, a := range as {
			if a.LotID == lotID {
				total += a.QuantityAssigned
			}
		}
	}
	return total, nil
}
