package transfer

import (
	"time"

	"github.com/google/uuid"

	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

// Type is the operation direction. Deposit moves funds down the hierarchy,
// withdrawal recovers funds from a subordinate back up.
type Type string

const (
	TypeDeposit    Type = "deposit"
	TypeWithdrawal Type = "withdrawal"
)

// SubKind is the tier-pair derived reporting classifier on a log row.
type SubKind string

const (
	SubKindPool    SubKind = "pool"    // tier-1 credit-pool side
	SubKindChannel SubKind = "channel" // tier-2 channel side
	SubKindLedger  SubKind = "ledger"  // tier 3-7 ledger side
)

// Request is one proposed transfer between two partners.
type Request struct {
	SenderID   uuid.UUID       `json:"sender_id" validate:"required"`
	ReceiverID uuid.UUID       `json:"receiver_id" validate:"required"`
	Type       Type            `json:"type" validate:"required,transfer_type"`
	Amount     int64           `json:"amount"`
	Memo       string          `json:"memo" validate:"max=255"`
	Channel    *wallet.Channel `json:"channel,omitempty" validate:"omitempty,channel_slot"`
}

// Result reports the committed outcome of a transfer.
type Result struct {
	TransferID           uuid.UUID `json:"transfer_id"`
	SenderBalanceAfter   int64     `json:"sender_balance_after"`
	ReceiverBalanceAfter int64     `json:"receiver_balance_after"`
}

// Record is one append-only balance_log row. A transfer writes one row per
// mutated side; both rows share TransferID as the correlation key.
type Record struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	TransferID     uuid.UUID       `db:"transfer_id" json:"transfer_id"`
	PartnerID      uuid.UUID       `db:"partner_id" json:"partner_id"`
	BalanceBefore  int64           `db:"balance_before" json:"balance_before"`
	BalanceAfter   int64           `db:"balance_after" json:"balance_after"`
	SignedAmount   int64           `db:"signed_amount" json:"signed_amount"`
	Kind           Type            `db:"kind" json:"kind"`
	SubKind        SubKind         `db:"sub_kind" json:"sub_kind"`
	Forced         bool            `db:"forced" json:"forced"`
	CounterpartyID *uuid.UUID      `db:"counterparty_id" json:"counterparty_id,omitempty"`
	ProcessedBy    uuid.UUID       `db:"processed_by" json:"processed_by"`
	Channel        *wallet.Channel `db:"channel" json:"channel,omitempty"`
	Memo           string          `db:"memo" json:"memo"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// Mutation is one planned single-field balance change.
type Mutation struct {
	PartnerID      uuid.UUID
	Tier           int
	Field          wallet.Field
	Delta          int64
	Channel        *wallet.Channel
	CounterpartyID *uuid.UUID
}

// Plan is a validated transfer ready to be applied atomically.
type Plan struct {
	TransferID  uuid.UUID
	Kind        Type
	Forced      bool
	Memo        string
	ProcessedBy uuid.UUID
	Mutations   []Mutation
}

func subKindFor(tier int, field wallet.Field) SubKind {
	if tier == 1 {
		return SubKindPool
	}
	if field == wallet.FieldChannelA || field == wallet.FieldChannelB {
		return SubKindChannel
	}
	return SubKindLedger
}
