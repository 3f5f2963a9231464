package partner

import (
	"time"

	"github.com/google/uuid"

	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

// Kind is the partner role, one per hierarchy tier.
type Kind string

const (
	KindSystemAdmin Kind = "system_admin" // tier 1
	KindOperator    Kind = "operator"     // tier 2
	KindHeadOffice  Kind = "head_office"  // tier 3
	KindSubOffice   Kind = "sub_office"   // tier 4
	KindDistributor Kind = "distributor"  // tier 5
	KindStore       Kind = "store"        // tier 6
	KindEndUser     Kind = "end_user"     // tier 7
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

// Partner is a node in the operator hierarchy. Balance columns are owned by
// the transfer engine; everything else is maintained by the external
// partner-tree store.
type Partner struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Tier            int        `db:"tier" json:"tier"`
	ParentID        *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	Kind            Kind       `db:"kind" json:"kind"`
	Status          Status     `db:"status" json:"status"`
	LedgerBalance   int64      `db:"ledger_balance" json:"ledger_balance"`
	ChannelBalanceA int64      `db:"channel_balance_a" json:"channel_balance_a"`
	ChannelBalanceB int64      `db:"channel_balance_b" json:"channel_balance_b"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// KindForTier returns the role that belongs to a tier.
func KindForTier(tier int) Kind {
	switch tier {
	case 1:
		return KindSystemAdmin
	case 2:
		return KindOperator
	case 3:
		return KindHeadOffice
	case 4:
		return KindSubOffice
	case 5:
		return KindDistributor
	case 6:
		return KindStore
	default:
		return KindEndUser
	}
}

// Account returns the balance view consumed by the wallet model.
func (p *Partner) Account() wallet.Account {
	return wallet.Account{
		Tier:     p.Tier,
		Ledger:   p.LedgerBalance,
		ChannelA: p.ChannelBalanceA,
		ChannelB: p.ChannelBalanceB,
	}
}
