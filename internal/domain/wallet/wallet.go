package wallet

// Balances returns the readable balance lines for an account, ordered:
// channel lines first (slot a then b) for pool and dual-channel wallets,
// a single ledger line for everything else.
func Balances(a Account) []Entry {
	switch KindForTier(a.Tier) {
	case KindCreditPool:
		chA, chB := ChannelA, ChannelB
		return []Entry{
			{Channel: &chA, Amount: a.ChannelA},
			{Channel: &chB, Amount: a.ChannelB},
		}
	case KindDualChannel:
		chA, chB := ChannelA, ChannelB
		return []Entry{
			{Channel: &chA, Amount: a.ChannelA},
			{Channel: &chB, Amount: a.ChannelB},
			{Amount: a.Ledger},
		}
	default:
		return []Entry{{Amount: a.Ledger}}
	}
}

// NewSnapshot builds the display form of an account's wallet. The providers
// map carries the configured provider name per channel slot.
func NewSnapshot(a Account, providers map[Channel]string) Snapshot {
	entries := Balances(a)
	for i := range entries {
		if entries[i].Channel != nil {
			entries[i].Provider = providers[*entries[i].Channel]
		}
	}
	return Snapshot{
		Kind:     KindForTier(a.Tier),
		Balances: entries,
	}
}

// MinEnabled returns the minimum balance across the enabled channel slots
// and the slot holding it. ErrNoChannels when no channel is enabled.
func MinEnabled(a Account, enabled []Channel) (Channel, int64, error) {
	found := false
	var minCh Channel
	var min int64
	for _, ch := range enabled {
		bal := a.ChannelBalance(ch)
		if !found || bal < min {
			found = true
			minCh = ch
			min = bal
		}
	}
	if !found {
		return "", 0, ErrNoChannels
	}
	return minCh, min, nil
}

// MinEnabledNonZero returns the minimum among enabled channels whose balance
// is individually non-zero, and the slot holding it. ErrNoChannels when every
// enabled channel is zero (or none are enabled).
func MinEnabledNonZero(a Account, enabled []Channel) (Channel, int64, error) {
	found := false
	var minCh Channel
	var min int64
	for _, ch := range enabled {
		bal := a.ChannelBalance(ch)
		if bal == 0 {
			continue
		}
		if !found || bal < min {
			found = true
			minCh = ch
			min = bal
		}
	}
	if !found {
		return "", 0, ErrNoChannels
	}
	return minCh, min, nil
}

// ApplyDelta returns a copy of the account with the signed amount applied to
// the given field. Pure function, the caller commits the result.
func ApplyDelta(a Account, f Field, delta int64) (Account, error) {
	next := a.Get(f) + delta
	if next < 0 {
		return a, ErrWouldGoNegative
	}
	switch f {
	case FieldChannelA:
		a.ChannelA = next
	case FieldChannelB:
		a.ChannelB = next
	default:
		a.Ledger = next
	}
	return a, nil
}
