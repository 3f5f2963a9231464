package transfer

import (
	"github.com/partnerdesk/partner-api/internal/domain/partner"
	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

// Approval is a passed validation. Limit is the balance the amount was
// checked against; SourceChannel is the channel slot resolved as the debit
// source, nil when the debit side uses its ledger.
type Approval struct {
	Limit         int64
	SourceChannel *wallet.Channel
}

// Validate decides whether a proposed transfer is permissible. Pure function:
// it inspects the two partners and the enabled-channel configuration, nothing
// else. A nil Rejection means the transfer may proceed.
//
// The tier-pair rules, evaluated in order:
//  1. amount must be positive
//  2. withdrawal: checked against the subordinate's authoritative balance
//     only (explicit channel for tier-1/tier-2 pairs, ledger otherwise)
//  3. deposit tier1->tier2: explicit channel, checked against that pool slot
//  4. deposit tier1->tier3+: minimum across enabled pool channels
//  5. deposit tier2->tier3+: minimum of the individually non-zero enabled
//     channel balances
//  6. deposit from tier3+: sender's ledger
//
// Tier-1 rows never consult a ledger balance; tier 1 has none.
func Validate(sender, receiver *partner.Partner, typ Type, amount int64, ch *wallet.Channel, enabled []wallet.Channel) (*Approval, *Rejection) {
	if sender.ID == receiver.ID {
		return nil, reject(ErrSamePartner, 0)
	}
	if sender.Status == partner.StatusBlocked || receiver.Status == partner.StatusBlocked {
		return nil, reject(ErrPartnerBlocked, 0)
	}
	if amount <= 0 {
		return nil, reject(ErrInvalidAmount, 0)
	}
	if receiver.Tier <= sender.Tier {
		return nil, reject(ErrInvalidTierPair, 0)
	}

	if typ == TypeWithdrawal {
		return validateWithdrawal(sender, receiver, amount, ch)
	}
	return validateDeposit(sender, receiver, amount, ch, enabled)
}

// Withdrawals recover funds from the subordinate, so only the subordinate's
// authoritative balance matters.
func validateWithdrawal(sender, receiver *partner.Partner, amount int64, ch *wallet.Channel) (*Approval, *Rejection) {
	sub := receiver.Account()

	if sender.Tier == 1 && receiver.Tier == 2 {
		if ch == nil {
			return nil, reject(ErrChannelRequired, 0)
		}
		limit := sub.ChannelBalance(*ch)
		if amount > limit {
			return nil, rejectChannel(ErrInsufficientBalance, limit, *ch)
		}
		return &Approval{Limit: limit, SourceChannel: ch}, nil
	}

	limit := sub.Ledger
	if amount > limit {
		return nil, reject(ErrInsufficientBalance, limit)
	}
	return &Approval{Limit: limit}, nil
}

func validateDeposit(sender, receiver *partner.Partner, amount int64, ch *wallet.Channel, enabled []wallet.Channel) (*Approval, *Rejection) {
	src := sender.Account()

	switch {
	case sender.Tier == 1 && receiver.Tier == 2:
		if ch == nil {
			return nil, reject(ErrChannelRequired, 0)
		}
		limit := src.ChannelBalance(*ch)
		if amount > limit {
			return nil, rejectChannel(ErrInsufficientChannelFunds, limit, *ch)
		}
		return &Approval{Limit: limit, SourceChannel: ch}, nil

	case sender.Tier == 1:
		// A downstream deposit must be coverable regardless of which pool
		// channel eventually settles it, hence the minimum.
		minCh, min, err := wallet.MinEnabled(src, enabled)
		if err != nil {
			return nil, reject(ErrNoEnabledChannels, 0)
		}
		if jointlyZero(src, enabled) {
			return nil, reject(ErrNoEnabledChannels, 0)
		}
		if amount > min {
			return nil, rejectChannel(ErrInsufficientChannelFunds, min, minCh)
		}
		return &Approval{Limit: min, SourceChannel: &minCh}, nil

	case sender.Tier == 2:
		minCh, min, err := wallet.MinEnabledNonZero(src, enabled)
		if err != nil {
			return nil, reject(ErrInsufficientChannelFunds, 0)
		}
		if amount > min {
			return nil, rejectChannel(ErrInsufficientChannelFunds, min, minCh)
		}
		return &Approval{Limit: min, SourceChannel: &minCh}, nil

	default:
		limit := src.Ledger
		if amount > limit {
			return nil, reject(ErrInsufficientBalance, limit)
		}
		return &Approval{Limit: limit}, nil
	}
}

func jointlyZero(a wallet.Account, enabled []wallet.Channel) bool {
	for _, ch := range enabled {
		if a.ChannelBalance(ch) != 0 {
			return false
		}
	}
	return true
}
