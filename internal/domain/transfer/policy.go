package transfer

import (
	"github.com/google/uuid"

	"github.com/partnerdesk/partner-api/internal/domain/partner"
	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

// PolicyKind says which sides of a transfer get their balance mutated.
type PolicyKind int

const (
	MutateBothSides PolicyKind = iota
	MutateSenderOnly
	MutateReceiverOnly
)

// PolicyFor is the single tier-pair rule table. All special-casing of tier
// pairs lives here; new tiers or pairs are added in one place.
//
// Tier-1/tier-2 transfers move between the channel pool and the operator's
// channel balance on both sides; no ledger is touched and no payment gateway
// is called. Forced tier-2 to tier-4-or-deeper transfers skip tier 2's own
// balance entirely: tier 2 is reconciled by periodic external sync, not by
// forced transactions.
func PolicyFor(senderTier, receiverTier int, typ Type, forced bool) PolicyKind {
	if forced && senderTier == 2 && receiverTier >= 4 {
		return MutateReceiverOnly
	}
	return MutateBothSides
}

// BuildPlan turns a validated request into the concrete per-field mutations
// the repository applies atomically.
func BuildPlan(sender, receiver *partner.Partner, typ Type, amount int64, appr *Approval, explicit *wallet.Channel, enabled []wallet.Channel, forced bool, processedBy uuid.UUID, memo string) (*Plan, *Rejection) {
	// Conceptual flow: deposits debit the sender, withdrawals debit the
	// subordinate receiver and credit the superior sender.
	debit, credit := sender, receiver
	if typ == TypeWithdrawal {
		debit, credit = receiver, sender
	}

	debitField := wallet.FieldLedger
	var debitChannel *wallet.Channel
	if appr.SourceChannel != nil {
		debitField = wallet.FieldForChannel(*appr.SourceChannel)
		debitChannel = appr.SourceChannel
	}

	creditField, creditChannel, rej := creditTarget(credit, explicit, appr.SourceChannel, enabled)
	if rej != nil {
		return nil, rej
	}

	plan := &Plan{
		TransferID:  uuid.New(),
		Kind:        typ,
		Forced:      forced,
		Memo:        memo,
		ProcessedBy: processedBy,
	}

	mutations := []Mutation{
		{
			PartnerID:      debit.ID,
			Tier:           debit.Tier,
			Field:          debitField,
			Delta:          -amount,
			Channel:        debitChannel,
			CounterpartyID: counterpartyRef(debit, credit),
		},
		{
			PartnerID:      credit.ID,
			Tier:           credit.Tier,
			Field:          creditField,
			Delta:          amount,
			Channel:        creditChannel,
			CounterpartyID: counterpartyRef(credit, debit),
		},
	}

	switch PolicyFor(sender.Tier, receiver.Tier, typ, forced) {
	case MutateSenderOnly:
		plan.Mutations = keepSide(mutations, sender.ID)
	case MutateReceiverOnly:
		plan.Mutations = keepSide(mutations, receiver.ID)
	default:
		plan.Mutations = mutations
	}
	return plan, nil
}

// creditTarget resolves which balance field receives the funds. Tiers 3-7
// credit the ledger. Tiers 1 and 2 credit a channel slot: the explicit
// selector when given, the slot the debit side used, or the minimum-balance
// enabled slot as the conservative fallback.
func creditTarget(credit *partner.Partner, explicit, source *wallet.Channel, enabled []wallet.Channel) (wallet.Field, *wallet.Channel, *Rejection) {
	if credit.Tier >= 3 {
		return wallet.FieldLedger, nil, nil
	}

	ch := explicit
	if ch == nil {
		ch = source
	}
	if ch == nil {
		minCh, _, err := wallet.MinEnabled(credit.Account(), enabled)
		if err != nil {
			return "", nil, reject(ErrNoEnabledChannels, 0)
		}
		ch = &minCh
	}
	return wallet.FieldForChannel(*ch), ch, nil
}

// counterpartyRef returns the counterparty id for a log row. Rows touching
// the tier-1 credit pool on either end carry no counterparty: the pool is
// not a peer, and linking it would imply a relationship that does not exist.
func counterpartyRef(self, other *partner.Partner) *uuid.UUID {
	if self.Tier == 1 || other.Tier == 1 {
		return nil
	}
	id := other.ID
	return &id
}

func keepSide(mutations []Mutation, id uuid.UUID) []Mutation {
	kept := make([]Mutation, 0, 1)
	for _, m := range mutations {
		if m.PartnerID == id {
			kept = append(kept, m)
		}
	}
	return kept
}
