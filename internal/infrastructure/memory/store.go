// Package memory implementa los puertos del motor de stock en memoria. Cada transacción trabaja
// sobre una copia del estado que solo reemplaza al original si la función termina sin error.
package memory

import (
	"context"
	"sort"
	"time"

	appinv "github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/repository"
)

const defaultLockTimeout = 5 * time.Second

type state struct {
	products    map[string]entity.Product
	stock       map[string]entity.Stock
	lots        map[string]entity.Lot
	movements   []entity.Movement
	items       map[string]entity.CalendarItem
	assignments map[string][]entity.Assignment
}

func newState() state {
	return state{
		products:    make(map[string]entity.Product),
		stock:       make(map[string]entity.Stock),
		lots:        make(map[string]entity.Lot),
		items:       make(map[string]entity.CalendarItem),
		assignments: make(map[string][]entity.Assignment),
	}
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.stock {
		out.stock[k] = v
	}
	for k, v := range s.lots {
		out.lots[k] = cloneLot(v)
	}
	out.movements = append(make([]entity.Movement, 0, len(s.movements)+8), s.movements...)
	for k, v := range s.items {
		v.Assignments = nil
		out.items[k] = v
	}
	for k, v := range s.assignments {
		out.assignments[k] = append([]entity.Assignment(nil), v...)
	}
	return out
}

func cloneLot(l entity.Lot) entity.Lot {
	if l.ExpirationDate != nil {
		exp := *l.ExpirationDate
		l.ExpirationDate = &exp
	}
	return l
}

// Store almacén en memoria. Un único semáforo serializa las transacciones; esperar más de
// lockTimeout por él devuelve domain.ErrLockTimeout.
type Store struct {
	sem         chan struct{}
	lockTimeout time.Duration
	state       state
}

// NewStore crea un almacén vacío. lockTimeout <= 0 usa 5s.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = defaultLockTimeout
	}
	return &Store{
		sem:         make(chan struct{}, 1),
		lockTimeout: lockTimeout,
		state:       newState(),
	}
}

var _ appinv.TxRunner = (*Store)(nil)

func (s *Store) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrLockTimeout
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return domain.ErrLockTimeout
		}
		return ctx.Err()
	}
}

func (s *Store) release() { <-s.sem }

// Run ejecuta fn sobre una copia del estado y la confirma solo si fn no devuelve error.
func (s *Store) Run(ctx context.Context, fn func(r appinv.Repos) error) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()

	tx := s.state.clone()
	if err := fn(reposFor(&tx)); err != nil {
		return err
	}
	s.state = tx
	return nil
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() repository.ProductRepository { return storeProducts{s: s} }

type storeProducts struct{ s *Store }

func (p storeProducts) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := p.s.Run(ctx, func(r appinv.Repos) error {
		var err error
		out, err = r.Products.GetByID(ctx, id)
		return err
	})
	return out, err
}

// PutProduct carga un producto del catálogo (CRUD externo).
func (s *Store) PutProduct(ctx context.Context, p entity.Product) error {
	return s.mutate(ctx, func(st *state) { st.products[p.ID] = p })
}

// PutCalendarItem carga un ítem del plan de vacunación. Las asignaciones se ignoran: solo se
// escriben por el asignador o el binder.
func (s *Store) PutCalendarItem(ctx context.Context, item entity.CalendarItem) error {
	item.Assignments = nil
	return s.mutate(ctx, func(st *state) { st.items[item.ID] = item })
}

// PutStock sobrescribe el agregado de un producto (importación de saldos iniciales).
func (s *Store) PutStock(ctx context.Context, stock entity.Stock) error {
	return s.mutate(ctx, func(st *state) { st.stock[stock.ProductID] = stock })
}

func (s *Store) mutate(ctx context.Context, fn func(st *state)) error {
	if err := s.acquire(ctx); err != nil {
		return err
	}
	defer s.release()
	fn(&s.state)
	return nil
}

func reposFor(st *state) appinv.Repos {
	return appinv.Repos{
		Movements: &movementRepo{st: st},
		Lots:      &lotRepo{st: st},
		Stock:     &stockRepo{st: st},
		Products:  &productRepo{st: st},
		Calendar:  &calendarRepo{st: st},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
