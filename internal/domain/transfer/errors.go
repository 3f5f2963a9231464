package transfer

import (
	"errors"
	"fmt"

	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

var (
	// ErrInvalidAmount is returned when the amount is not a positive value.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrSamePartner is returned when sender and receiver are the same node.
	ErrSamePartner = errors.New("sender and receiver must differ")

	// ErrPartnerBlocked is returned when either party has blocked status.
	ErrPartnerBlocked = errors.New("partner is blocked")

	// ErrInvalidTierPair is returned when the receiver does not sit below the
	// sender in the hierarchy. Funds always originate from the superior side.
	ErrInvalidTierPair = errors.New("receiver must be below sender in the hierarchy")

	// ErrChannelRequired is returned when a tier-1/tier-2 transfer is missing
	// its channel selector.
	ErrChannelRequired = errors.New("channel selector required")

	// ErrInsufficientBalance is returned when a ledger balance cannot cover
	// the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientChannelFunds is returned when no channel balance can
	// cover the amount.
	ErrInsufficientChannelFunds = errors.New("insufficient channel funds")

	// ErrNoEnabledChannels is returned when a pool transfer finds no enabled
	// channel to validate against.
	ErrNoEnabledChannels = errors.New("no enabled funding channels")

	// ErrConcurrentModification is returned when a balance changed between
	// validation and commit. The caller must re-fetch before retrying.
	ErrConcurrentModification = errors.New("balance changed concurrently")

	// ErrPartialFailure is returned when the commit outcome is unknown.
	// The caller must re-fetch balances; the engine never retries on its own.
	ErrPartialFailure = errors.New("transfer partially committed")
)

// Rejection is a validation failure carrying the limiting balance, so the
// operator can see exactly how much headroom exists.
type Rejection struct {
	Reason  error
	Limit   int64
	Channel *wallet.Channel
}

func (r *Rejection) Error() string {
	if r.Channel != nil {
		return fmt.Sprintf("%v (channel %s, limit %d)", r.Reason, *r.Channel, r.Limit)
	}
	return fmt.Sprintf("%v (limit %d)", r.Reason, r.Limit)
}

func (r *Rejection) Unwrap() error {
	return r.Reason
}

func reject(reason error, limit int64) *Rejection {
	return &Rejection{Reason: reason, Limit: limit}
}

func rejectChannel(reason error, limit int64, ch wallet.Channel) *Rejection {
	return &Rejection{Reason: reason, Limit: limit, Channel: &ch}
}
