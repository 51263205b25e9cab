package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Inventario-vacunas/internal/application/inventory"
	"github.com/jhoicas/Inventario-vacunas/internal/domain/entity"
)

var _ inventory.MovementPublisher = (*MovementPublisher)(nil)

// DefaultMovementsChannel canal por defecto de los eventos de movimiento.
const DefaultMovementsChannel = "vacunas:movimientos"

// MovementEvent mensaje publicado por cada movimiento confirmado.
type MovementEvent struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	LotID       string    `json:"lot_id,omitempty"`
	Type        string    `json:"type"`
	Quantity    int64     `json:"quantity"`
	StockBefore int64     `json:"stock_before"`
	StockAfter  int64     `json:"stock_after"`
	Actor       string    `json:"actor,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MovementPublisher publica movimientos en Redis Pub/Sub.
type MovementPublisher struct {
	client  redis.Cmdable
	channel string
}

func NewMovementPublisher(client redis.Cmdable, channel string) *MovementPublisher {
	if channel == "" {
		channel = DefaultMovementsChannel
	}
	return &MovementPublisher{client: client, channel: channel}
}

// EncodeMovement arma el payload JSON del evento.
func EncodeMovement(m *entity.Movement) ([]byte, error) {
	return json.Marshal(MovementEvent{
		ID:          m.ID,
		ProductID:   m.ProductID,
		LotID:       m.LotID,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		StockBefore: m.StockBefore,
		StockAfter:  m.StockAfter,
		Actor:       m.Actor,
		CreatedAt:   m.CreatedAt,
	})
}

func (p *MovementPublisher) PublishMovement(ctx context.Context, m *entity.Movement) error {
	payload, err := EncodeMovement(m)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, payload).Err()
}
