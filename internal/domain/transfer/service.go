package transfer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/partnerdesk/partner-api/internal/domain/partner"
	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

// Directory resolves partners. The partner-tree store is authoritative; this
// engine only reads it.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*partner.Partner, error)
}

// Applier commits a validated plan atomically.
type Applier interface {
	Apply(ctx context.Context, plan *Plan) (*Applied, error)
}

// Service is the transfer engine: it resolves both parties, validates the
// proposed transfer against the tier-pair rules, applies the two-sided
// mutation atomically and emits the external-event hook.
type Service struct {
	directory Directory
	repo      Applier
	events    *Publisher
	enabled   []wallet.Channel
}

func NewService(directory Directory, repo Applier, events *Publisher, enabled []wallet.Channel) *Service {
	return &Service{
		directory: directory,
		repo:      repo,
		events:    events,
		enabled:   enabled,
	}
}

// Execute runs an ordinary transfer on behalf of the acting admin.
func (s *Service) Execute(ctx context.Context, actor uuid.UUID, req Request) (*Result, error) {
	return s.execute(ctx, actor, req, false)
}

// ExecuteForced runs the privileged variant: same validator, the forced
// tier-pair policy table, and the explicit admin identity on every log row.
func (s *Service) ExecuteForced(ctx context.Context, adminID uuid.UUID, req Request) (*Result, error) {
	return s.execute(ctx, adminID, req, true)
}

func (s *Service) execute(ctx context.Context, actor uuid.UUID, req Request, forced bool) (*Result, error) {
	sender, err := s.directory.Get(ctx, req.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.directory.Get(ctx, req.ReceiverID)
	if err != nil {
		return nil, err
	}

	appr, rej := Validate(sender, receiver, req.Type, req.Amount, req.Channel, s.enabled)
	if rej != nil {
		return nil, rej
	}

	plan, rej := BuildPlan(sender, receiver, req.Type, req.Amount, appr, req.Channel, s.enabled, forced, actor, req.Memo)
	if rej != nil {
		return nil, rej
	}

	applied, err := s.repo.Apply(ctx, plan)
	if err != nil {
		return nil, err
	}

	result := &Result{
		TransferID:           plan.TransferID,
		SenderBalanceAfter:   s.balanceAfter(applied, sender, req.Channel),
		ReceiverBalanceAfter: s.balanceAfter(applied, receiver, req.Channel),
	}

	log.Info().
		Str("transfer_id", plan.TransferID.String()).
		Str("sender_id", sender.ID.String()).
		Str("receiver_id", receiver.ID.String()).
		Str("kind", string(req.Type)).
		Int64("amount", req.Amount).
		Bool("forced", forced).
		Str("processed_by", actor.String()).
		Msg("transfer committed")

	s.events.BalanceChanged(ctx, BalanceChangedEvent{
		TransferID: plan.TransferID,
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		Kind:       req.Type,
		Amount:     req.Amount,
		Forced:     forced,
		OccurredAt: time.Now().UTC(),
	})

	return result, nil
}

// balanceAfter reports the post-transfer authoritative balance of one side.
// A side left untouched by the tier-pair policy reports its unchanged value.
func (s *Service) balanceAfter(applied *Applied, p *partner.Partner, explicit *wallet.Channel) int64 {
	if after, ok := applied.After[p.ID]; ok {
		return after
	}

	acct := p.Account()
	if p.Tier >= 3 {
		return acct.Ledger
	}
	if explicit != nil {
		return acct.ChannelBalance(*explicit)
	}
	if _, min, err := wallet.MinEnabled(acct, s.enabled); err == nil {
		return min
	}
	return 0
}
