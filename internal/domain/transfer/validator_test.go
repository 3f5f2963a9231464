package transfer_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/partnerdesk/partner-api/internal/domain/partner"
	"github.com/partnerdesk/partner-api/internal/domain/transfer"
	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

var bothChannels = []wallet.Channel{wallet.ChannelA, wallet.ChannelB}

func makePartner(tier int, ledger, chA, chB int64) *partner.Partner {
	return &partner.Partner{
		ID:              uuid.New(),
		Tier:            tier,
		Kind:            partner.KindForTier(tier),
		Status:          partner.StatusActive,
		LedgerBalance:   ledger,
		ChannelBalanceA: chA,
		ChannelBalanceB: chB,
	}
}

func chPtr(ch wallet.Channel) *wallet.Channel {
	return &ch
}

func TestValidateInvalidAmount(t *testing.T) {
	root := makePartner(1, 0, 1000, 1000)
	office := makePartner(3, 500, 0, 0)

	for _, amount := range []int64{0, -1, -5000} {
		_, rej := transfer.Validate(root, office, transfer.TypeDeposit, amount, nil, bothChannels)
		if rej == nil || !errors.Is(rej, transfer.ErrInvalidAmount) {
			t.Fatalf("amount %d: expected ErrInvalidAmount, got %v", amount, rej)
		}
	}
}

func TestValidateSamePartnerAndTierPair(t *testing.T) {
	office := makePartner(3, 500, 0, 0)

	_, rej := transfer.Validate(office, office, transfer.TypeDeposit, 100, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrSamePartner) {
		t.Fatalf("expected ErrSamePartner, got %v", rej)
	}

	operator := makePartner(2, 0, 100, 100)
	_, rej = transfer.Validate(office, operator, transfer.TypeDeposit, 100, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrInvalidTierPair) {
		t.Fatalf("expected ErrInvalidTierPair, got %v", rej)
	}
}

func TestValidateBlockedPartner(t *testing.T) {
	root := makePartner(1, 0, 1000, 1000)
	office := makePartner(3, 500, 0, 0)
	office.Status = partner.StatusBlocked

	_, rej := transfer.Validate(root, office, transfer.TypeDeposit, 100, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrPartnerBlocked) {
		t.Fatalf("expected ErrPartnerBlocked, got %v", rej)
	}
}

func TestValidateChannelMinimumRule(t *testing.T) {
	// Pool {a: 100, b: 50}: a downstream deposit must be coverable on every
	// enabled channel, so the minimum (50) is the limit.
	root := makePartner(1, 0, 100, 50)
	office := makePartner(3, 0, 0, 0)

	_, rej := transfer.Validate(root, office, transfer.TypeDeposit, 60, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrInsufficientChannelFunds) {
		t.Fatalf("deposit 60: expected ErrInsufficientChannelFunds, got %v", rej)
	}
	if rej.Limit != 50 {
		t.Fatalf("expected limiting balance 50 in rejection, got %d", rej.Limit)
	}
	if rej.Channel == nil || *rej.Channel != wallet.ChannelB {
		t.Fatalf("expected limiting channel b, got %v", rej.Channel)
	}

	appr, rej := transfer.Validate(root, office, transfer.TypeDeposit, 40, nil, bothChannels)
	if rej != nil {
		t.Fatalf("deposit 40: unexpected rejection %v", rej)
	}
	if appr.Limit != 50 {
		t.Fatalf("expected limit 50, got %d", appr.Limit)
	}
	if appr.SourceChannel == nil || *appr.SourceChannel != wallet.ChannelB {
		t.Fatalf("expected source channel b, got %v", appr.SourceChannel)
	}
}

func TestValidatePoolDepositSingleEnabledChannel(t *testing.T) {
	root := makePartner(1, 0, 100, 50)
	office := makePartner(3, 0, 0, 0)

	// Only channel a enabled: its full balance is the limit.
	appr, rej := transfer.Validate(root, office, transfer.TypeDeposit, 80, nil, []wallet.Channel{wallet.ChannelA})
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if appr.Limit != 100 || *appr.SourceChannel != wallet.ChannelA {
		t.Fatalf("expected (100, a), got (%d, %v)", appr.Limit, appr.SourceChannel)
	}
}

func TestValidateNoEnabledChannels(t *testing.T) {
	office := makePartner(3, 0, 0, 0)

	drained := makePartner(1, 0, 0, 0)
	_, rej := transfer.Validate(drained, office, transfer.TypeDeposit, 10, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrNoEnabledChannels) {
		t.Fatalf("jointly zero pool: expected ErrNoEnabledChannels, got %v", rej)
	}

	funded := makePartner(1, 0, 1000, 1000)
	_, rej = transfer.Validate(funded, office, transfer.TypeDeposit, 10, nil, nil)
	if rej == nil || !errors.Is(rej, transfer.ErrNoEnabledChannels) {
		t.Fatalf("no enabled channels: expected ErrNoEnabledChannels, got %v", rej)
	}
}

func TestValidateRootToOperatorDeposit(t *testing.T) {
	root := makePartner(1, 0, 10000, 8000)
	operator := makePartner(2, 0, 500, 500)

	_, rej := transfer.Validate(root, operator, transfer.TypeDeposit, 3000, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrChannelRequired) {
		t.Fatalf("expected ErrChannelRequired, got %v", rej)
	}

	appr, rej := transfer.Validate(root, operator, transfer.TypeDeposit, 3000, chPtr(wallet.ChannelA), bothChannels)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if appr.Limit != 10000 || *appr.SourceChannel != wallet.ChannelA {
		t.Fatalf("expected (10000, a), got (%d, %v)", appr.Limit, appr.SourceChannel)
	}

	_, rej = transfer.Validate(root, operator, transfer.TypeDeposit, 8001, chPtr(wallet.ChannelB), bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrInsufficientChannelFunds) {
		t.Fatalf("expected ErrInsufficientChannelFunds, got %v", rej)
	}
	if rej.Limit != 8000 {
		t.Fatalf("expected limiting balance 8000, got %d", rej.Limit)
	}
}

func TestValidateOperatorDownstreamDeposit(t *testing.T) {
	// Tier-2 downstream sends use the minimum of the individually non-zero
	// enabled channels, never the always-zero ledger.
	operator := makePartner(2, 0, 0, 70)
	office := makePartner(3, 0, 0, 0)

	appr, rej := transfer.Validate(operator, office, transfer.TypeDeposit, 50, nil, bothChannels)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if appr.Limit != 70 || *appr.SourceChannel != wallet.ChannelB {
		t.Fatalf("expected (70, b), got (%d, %v)", appr.Limit, appr.SourceChannel)
	}

	_, rej = transfer.Validate(operator, office, transfer.TypeDeposit, 80, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrInsufficientChannelFunds) {
		t.Fatalf("expected ErrInsufficientChannelFunds, got %v", rej)
	}

	drained := makePartner(2, 0, 0, 0)
	_, rej = transfer.Validate(drained, office, transfer.TypeDeposit, 1, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrInsufficientChannelFunds) {
		t.Fatalf("drained operator: expected ErrInsufficientChannelFunds, got %v", rej)
	}
	if rej.Limit != 0 {
		t.Fatalf("expected limit 0, got %d", rej.Limit)
	}
}

func TestValidateLedgerDeposit(t *testing.T) {
	office := makePartner(3, 500, 0, 0)
	sub := makePartner(4, 0, 0, 0)

	appr, rej := transfer.Validate(office, sub, transfer.TypeDeposit, 500, nil, bothChannels)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if appr.Limit != 500 || appr.SourceChannel != nil {
		t.Fatalf("expected ledger approval with limit 500, got %+v", appr)
	}

	_, rej = transfer.Validate(office, sub, transfer.TypeDeposit, 501, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", rej)
	}
	if rej.Limit != 500 {
		t.Fatalf("expected limiting balance 500, got %d", rej.Limit)
	}
}

func TestValidateWithdrawalChecksSubordinateOnly(t *testing.T) {
	// The operator's own channel funds are irrelevant: withdrawing 5000 from
	// a receiver holding 0 must fail with the receiver's limit.
	operator := makePartner(2, 0, 5000, 5000)
	office := makePartner(3, 0, 0, 0)

	_, rej := transfer.Validate(operator, office, transfer.TypeWithdrawal, 5000, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", rej)
	}
	if rej.Limit != 0 {
		t.Fatalf("expected limiting balance 0, got %d", rej.Limit)
	}

	office.LedgerBalance = 5000
	appr, rej := transfer.Validate(operator, office, transfer.TypeWithdrawal, 5000, nil, bothChannels)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if appr.Limit != 5000 || appr.SourceChannel != nil {
		t.Fatalf("expected ledger approval with limit 5000, got %+v", appr)
	}
}

func TestValidateRootOperatorWithdrawal(t *testing.T) {
	root := makePartner(1, 0, 100, 100)
	operator := makePartner(2, 0, 800, 300)

	_, rej := transfer.Validate(root, operator, transfer.TypeWithdrawal, 100, nil, bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrChannelRequired) {
		t.Fatalf("expected ErrChannelRequired, got %v", rej)
	}

	appr, rej := transfer.Validate(root, operator, transfer.TypeWithdrawal, 800, chPtr(wallet.ChannelA), bothChannels)
	if rej != nil {
		t.Fatalf("unexpected rejection: %v", rej)
	}
	if appr.Limit != 800 || *appr.SourceChannel != wallet.ChannelA {
		t.Fatalf("expected (800, a), got (%d, %v)", appr.Limit, appr.SourceChannel)
	}

	_, rej = transfer.Validate(root, operator, transfer.TypeWithdrawal, 301, chPtr(wallet.ChannelB), bothChannels)
	if rej == nil || !errors.Is(rej, transfer.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", rej)
	}
}

func TestValidateRejectsOverdraftRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		balance := rng.Int63n(100_000)
		amount := rng.Int63n(100_000) + 1

		office := makePartner(3, balance, 0, 0)
		sub := makePartner(4, 0, 0, 0)

		_, rej := transfer.Validate(office, sub, transfer.TypeDeposit, amount, nil, bothChannels)
		if amount > balance {
			if rej == nil || !errors.Is(rej, transfer.ErrInsufficientBalance) {
				t.Fatalf("balance=%d amount=%d: expected rejection, got %v", balance, amount, rej)
			}
		} else if rej != nil {
			t.Fatalf("balance=%d amount=%d: unexpected rejection %v", balance, amount, rej)
		}
	}
}
