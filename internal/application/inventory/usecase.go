package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-vacunas/internal/application/dto"
	"github.com/jhoicas/Inventario-vacunas/internal/domain"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement(ctx, MovementInputDTO).
// actor es el usuario autenticado (lo entrega el middleware de sesión, no se valida aquí).
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, actor string, in dto.RegisterMovementRequest) (*entity.Movement, error) {
	input := MovementInputDTO{
		ProductID:          in.ProductID,
		LotID:              in.LotID,
		Type:               in.Type,
		Quantity:           in.Quantity,
		Reason:             in.Reason,
		Notes:              in.Notes,
		Actor:              actor,
		ConsumeReservation: in.ConsumeReservation,
		CalendarItemID:     in.CalendarItemID,
	}
	if in.Lot != nil {
		lot := &NewLotInput{Code: in.Lot.Code, Location: in.Lot.Location, UnitCost: decimal.Zero}
		if in.Lot.UnitCost != nil {
			lot.UnitCost = *in.Lot.UnitCost
		}
		if in.Lot.ExpirationDate != "" {
			exp, err := ParseDate(in.Lot.ExpirationDate)
			if err != nil {
				return nil, err
			}
			lot.ExpirationDate = &exp
		}
		input.NewLot = lot
	}
	return uc.RegisterMovement(ctx, input)
}

// ParseDate interpreta una fecha YYYY-MM-DD en UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dto.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha %q, formato esperado AAAA-MM-DD", domain.ErrInvalidInput, s)
	}
	return t, nil
}
