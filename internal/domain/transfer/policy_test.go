package transfer_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/partnerdesk/partner-api/internal/domain/partner"
	"github.com/partnerdesk/partner-api/internal/domain/transfer"
	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

func TestPolicyFor(t *testing.T) {
	cases := []struct {
		name         string
		senderTier   int
		receiverTier int
		typ          transfer.Type
		forced       bool
		want         transfer.PolicyKind
	}{
		{"root to operator", 1, 2, transfer.TypeDeposit, false, transfer.MutateBothSides},
		{"root to office forced", 1, 3, transfer.TypeDeposit, true, transfer.MutateBothSides},
		{"operator to office", 2, 3, transfer.TypeDeposit, false, transfer.MutateBothSides},
		{"operator skip-level", 2, 4, transfer.TypeDeposit, false, transfer.MutateBothSides},
		{"operator skip-level forced", 2, 4, transfer.TypeDeposit, true, transfer.MutateReceiverOnly},
		{"operator deep forced withdrawal", 2, 6, transfer.TypeWithdrawal, true, transfer.MutateReceiverOnly},
		{"office to sub-office forced", 3, 4, transfer.TypeDeposit, true, transfer.MutateBothSides},
	}

	for _, c := range cases {
		if got := transfer.PolicyFor(c.senderTier, c.receiverTier, c.typ, c.forced); got != c.want {
			t.Errorf("%s: expected policy %v, got %v", c.name, c.want, got)
		}
	}
}

func mustPlan(t *testing.T, sender, receiver *partner.Partner, typ transfer.Type, amount int64, ch *wallet.Channel, forced bool) *transfer.Plan {
	t.Helper()
	appr, rej := transfer.Validate(sender, receiver, typ, amount, ch, bothChannels)
	if rej != nil {
		t.Fatalf("validation failed: %v", rej)
	}
	plan, rej := transfer.BuildPlan(sender, receiver, typ, amount, appr, ch, bothChannels, forced, uuid.New(), "test")
	if rej != nil {
		t.Fatalf("plan build failed: %v", rej)
	}
	return plan
}

func TestBuildPlanRootOperatorDepositTouchesOnlyChannels(t *testing.T) {
	root := makePartner(1, 0, 10000, 8000)
	operator := makePartner(2, 0, 500, 500)

	plan := mustPlan(t, root, operator, transfer.TypeDeposit, 3000, chPtr(wallet.ChannelA), false)

	if len(plan.Mutations) != 2 {
		t.Fatalf("expected 2 mutations, got %d", len(plan.Mutations))
	}
	for _, m := range plan.Mutations {
		if m.Field == wallet.FieldLedger {
			t.Fatalf("pool/operator transfer must not touch a ledger field, got %+v", m)
		}
		if m.Field != wallet.FieldChannelA {
			t.Fatalf("expected channel a on both sides, got %s", m.Field)
		}
		if m.CounterpartyID != nil {
			t.Fatalf("credit-pool interaction must carry no counterparty, got %v", m.CounterpartyID)
		}
	}

	debit := plan.Mutations[0]
	if debit.PartnerID != root.ID || debit.Delta != -3000 {
		t.Fatalf("expected pool debit of 3000, got %+v", debit)
	}
	credit := plan.Mutations[1]
	if credit.PartnerID != operator.ID || credit.Delta != 3000 {
		t.Fatalf("expected operator credit of 3000, got %+v", credit)
	}
}

func TestBuildPlanSkipLevelDeposit(t *testing.T) {
	operator := makePartner(2, 0, 400, 900)
	store := makePartner(6, 100, 0, 0)

	plan := mustPlan(t, operator, store, transfer.TypeDeposit, 200, nil, false)

	if len(plan.Mutations) != 2 {
		t.Fatalf("expected 2 mutations, got %d", len(plan.Mutations))
	}

	debit := plan.Mutations[0]
	if debit.PartnerID != operator.ID || debit.Field != wallet.FieldChannelA || debit.Delta != -200 {
		t.Fatalf("expected channel-a debit on operator, got %+v", debit)
	}
	credit := plan.Mutations[1]
	if credit.PartnerID != store.ID || credit.Field != wallet.FieldLedger || credit.Delta != 200 {
		t.Fatalf("expected ledger credit on store, got %+v", credit)
	}
	if credit.CounterpartyID == nil || *credit.CounterpartyID != operator.ID {
		t.Fatalf("expected operator as counterparty on store row, got %v", credit.CounterpartyID)
	}
}

func TestBuildPlanForcedSkipLevelLeavesOperatorUntouched(t *testing.T) {
	operator := makePartner(2, 0, 400, 900)
	sub := makePartner(4, 0, 0, 0)

	plan := mustPlan(t, operator, sub, transfer.TypeDeposit, 200, nil, true)

	if len(plan.Mutations) != 1 {
		t.Fatalf("expected a single receiver-side mutation, got %d", len(plan.Mutations))
	}
	m := plan.Mutations[0]
	if m.PartnerID != sub.ID || m.Field != wallet.FieldLedger || m.Delta != 200 {
		t.Fatalf("expected ledger credit on receiver only, got %+v", m)
	}
	if !plan.Forced {
		t.Fatal("expected plan marked forced")
	}
}

func TestBuildPlanWithdrawalCreditsSuperior(t *testing.T) {
	office := makePartner(3, 100, 0, 0)
	sub := makePartner(4, 700, 0, 0)

	plan := mustPlan(t, office, sub, transfer.TypeWithdrawal, 700, nil, false)

	debit := plan.Mutations[0]
	if debit.PartnerID != sub.ID || debit.Delta != -700 || debit.Field != wallet.FieldLedger {
		t.Fatalf("expected ledger debit on subordinate, got %+v", debit)
	}
	credit := plan.Mutations[1]
	if credit.PartnerID != office.ID || credit.Delta != 700 || credit.Field != wallet.FieldLedger {
		t.Fatalf("expected ledger credit on superior, got %+v", credit)
	}
}

func TestBuildPlanDeltasConserve(t *testing.T) {
	root := makePartner(1, 0, 5000, 5000)
	operator := makePartner(2, 0, 0, 0)

	plan := mustPlan(t, root, operator, transfer.TypeDeposit, 1250, chPtr(wallet.ChannelB), true)

	var sum int64
	for _, m := range plan.Mutations {
		sum += m.Delta
	}
	if sum != 0 {
		t.Fatalf("two-sided transfer deltas must net to zero, got %d", sum)
	}
}
