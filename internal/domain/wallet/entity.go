package wallet

// Kind is the tier-dependent wallet shape.
type Kind string

const (
	// KindCreditPool is the tier-1 wallet: one balance per funding channel,
	// standing in for funds held at the external providers. No ledger.
	KindCreditPool Kind = "credit_pool"
	// KindDualChannel is the tier-2 wallet: two channel balances mirroring
	// the tier-1 pool, plus a ledger field kept at zero for schema uniformity.
	KindDualChannel Kind = "dual_channel"
	// KindSingleLedger is the tier 3-7 wallet: one generic ledger balance.
	KindSingleLedger Kind = "single_ledger"
)

// Channel is a funding-channel slot. The schema fixes two slots; provider
// names for each slot are deployment configuration.
type Channel string

const (
	ChannelA Channel = "a"
	ChannelB Channel = "b"
)

// Field addresses one balance column on a partner row.
type Field string

const (
	FieldLedger   Field = "ledger_balance"
	FieldChannelA Field = "channel_balance_a"
	FieldChannelB Field = "channel_balance_b"
)

// Account is the balance view of a partner, detached from directory data so
// this package stays pure and I/O free.
type Account struct {
	Tier     int
	Ledger   int64
	ChannelA int64
	ChannelB int64
}

// Entry is one readable balance line. Channel is nil for the ledger line;
// Provider is the deployment-configured name behind the slot.
type Entry struct {
	Channel  *Channel `json:"channel,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Amount   int64    `json:"amount"`
}

// Snapshot is the display form of a wallet.
type Snapshot struct {
	Kind     Kind    `json:"kind"`
	Balances []Entry `json:"balances"`
}

// KindForTier maps a hierarchy tier to its wallet shape.
func KindForTier(tier int) Kind {
	switch tier {
	case 1:
		return KindCreditPool
	case 2:
		return KindDualChannel
	default:
		return KindSingleLedger
	}
}

// FieldForChannel maps a channel slot to its balance column.
func FieldForChannel(ch Channel) Field {
	if ch == ChannelB {
		return FieldChannelB
	}
	return FieldChannelA
}

// Get returns the balance stored in the given field.
func (a Account) Get(f Field) int64 {
	switch f {
	case FieldChannelA:
		return a.ChannelA
	case FieldChannelB:
		return a.ChannelB
	default:
		return a.Ledger
	}
}

// ChannelBalance returns the balance of one channel slot.
func (a Account) ChannelBalance(ch Channel) int64 {
	return a.Get(FieldForChannel(ch))
}
