package inventory_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
	"github.com/jhoicas/Inventario-vacunas/internal/infrastructure/memory"
)

const (
	prodRabia = "vac-rabia"
	prodLibre = "vac-libre" // sin control de stock
	contrato  = "ct-1"
	actor     = "u-bodega"
)

type publisherMock struct{ mock.Mock }

func (m *publisherMock) PublishMovement(ctx context.Context, mov *entity.Movement) error {
	return m.Called(ctx, mov).Error(0)
}

type cacheMock struct{ mock.Mock }

func (m *cacheMock) SaveReport(ctx context.Context, r *entity.Report) error {
	return m.Called(ctx, r).Error(0)
}

func (m *cacheMock) LastReport(ctx context.Context, contractID string) (*entity.Report, error) {
	args := m.Called(ctx, contractID)
	r, _ := args.Get(0).(*entity.Report)
	return r, args.Error(1)
}

type fixture struct {
	t          *testing.T
	ctx        context.Context
	now        time.Time
	store      *memory.Store
	pub        *publisherMock
	ledger     *inventory.RegisterMovementUseCase
	allocator  *inventory.AllocateDoseUseCase
	binder     *inventory.BindAssignmentsUseCase
	verifier   *inventory.VerifyContractUseCase
	query      *inventory.StockQueryUseCase
	reconciler *inventory.ReconcileUseCase
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		now:   now,
		store: memory.NewStore(time.Second),
		pub:   &publisherMock{},
	}
	f.pub.On("PublishMovement", mock.Anything, mock.Anything).Return(nil)

	log := zerolog.Nop()
	opts := inventory.Options{Now: func() time.Time { return f.now }, NearExpiryWindow: 30 * 24 * time.Hour}
	f.ledger = inventory.NewRegisterMovementUseCase(f.store, f.store.Products(), f.pub, nil, log, opts)
	f.allocator = inventory.NewAllocateDoseUseCase(f.store, f.ledger, nil, log, opts)
	f.binder = inventory.NewBindAssignmentsUseCase(f.store, f.ledger, log, opts)
	f.verifier = inventory.NewVerifyContractUseCase(f.store, nil, nil, log, opts)
	f.query = inventory.NewStockQueryUseCase(f.store, opts)
	f.reconciler = inventory.NewReconcileUseCase(f.store, log)

	f.product(prodRabia, true)
	f.product(prodLibre, false)
	return f
}

func (f *fixture) product(id string, controlled bool) {
	f.t.Helper()
	require.NoError(f.t, f.store.PutProduct(f.ctx, entity.Product{ID: id, Name: id, RequiresStockControl: controlled}))
}

func (f *fixture) item(id, productID string, required int64) {
	f.t.Helper()
	require.NoError(f.t, f.store.PutCalendarItem(f.ctx, entity.CalendarItem{
		ID: id, ContractID: contrato, ProductID: productID,
		DoseQuantityRequired: required, ScheduledDate: f.now.AddDate(0, 0, 7),
	}))
}

// ingreso crea un lote nuevo con qty unidades y devuelve su ID.
func (f *fixture) ingreso(code string, exp *time.Time, qty int64) string {
	f.t.Helper()
	mov, err := f.ledger.RegisterMovement(f.ctx, inventory.MovementInputDTO{
		ProductID: prodRabia, Type: "ingreso", Quantity: qty, Actor: actor,
		NewLot: &inventory.NewLotInput{Code: code, ExpirationDate: exp},
	})
	require.NoError(f.t, err)
	return mov.LotID
}

func (f *fixture) lot(id string) *entity.Lot {
	f.t.Helper()
	var out *entity.Lot
	require.NoError(f.t, f.store.Run(f.ctx, func(r inventory.Repos) error {
		var err error
		out, err = r.Lots.GetByID(f.ctx, id)
		return err
	}))
	require.NotNil(f.t, out, "lote %s", id)
	return out
}

func (f *fixture) stock(productID string) *inventory.StockView {
	f.t.Helper()
	v, err := f.query.GetCurrentStock(f.ctx, productID)
	require.NoError(f.t, err)
	return v
}

// requireConsistent verifica que agregado, suma de lotes y libro coincidan.
func (f *fixture) requireConsistent(productID string) {
	f.t.Helper()
	res, err := f.reconciler.Reconcile(f.ctx, productID)
	require.NoError(f.t, err)
	require.True(f.t, res.Consistent(), res.Issues)
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
