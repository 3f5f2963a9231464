package transfer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// EventChannel is the Redis channel the push layer subscribes to for cached
// partner-list refreshes.
const EventChannel = "partner.balance.changed"

// BalanceChangedEvent is published after a transfer commits.
type BalanceChangedEvent struct {
	TransferID uuid.UUID `json:"transfer_id"`
	SenderID   uuid.UUID `json:"sender_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Kind       Type      `json:"kind"`
	Amount     int64     `json:"amount"`
	Forced     bool      `json:"forced"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher emits committed-transfer events. Delivery is best effort; a
// failed publish never fails the transfer.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb}
}

func (p *Publisher) BalanceChanged(ctx context.Context, ev BalanceChangedEvent) {
	if p == nil || p.rdb == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode balance event")
		return
	}

	if err := p.rdb.Publish(ctx, EventChannel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("transfer_id", ev.TransferID.String()).Msg("failed to publish balance event")
	}
}
