package transfer

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Applied reports the committed outcome of a plan: the before/after value of
// every mutated field, keyed by partner id.
type Applied struct {
	Records []Record
	After   map[uuid.UUID]int64
}

type lockedRow struct {
	ID              uuid.UUID `db:"id"`
	LedgerBalance   int64     `db:"ledger_balance"`
	ChannelBalanceA int64     `db:"channel_balance_a"`
	ChannelBalanceB int64     `db:"channel_balance_b"`
}

// Apply commits a plan in a single transaction: both partner rows are locked
// FOR UPDATE in deterministic id order, every balance change goes through a
// guarded in-place UPDATE, and one balance_log row is written per mutated
// side. Either everything commits or nothing does.
func (r *Repository) Apply(ctx context.Context, plan *Plan) (*Applied, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := lockPartners(ctx, tx, plan.Mutations)
	if err != nil {
		return nil, err
	}

	applied := &Applied{After: make(map[uuid.UUID]int64, len(plan.Mutations))}
	now := time.Now().UTC()

	for _, m := range plan.Mutations {
		row, ok := locked[m.PartnerID]
		if !ok {
			return nil, fmt.Errorf("%w: partner %s disappeared before commit", ErrConcurrentModification, m.PartnerID)
		}

		before := fieldValue(row, m.Field)
		if before+m.Delta < 0 {
			// Validation passed on an earlier snapshot; the locked row no
			// longer covers the delta.
			return nil, fmt.Errorf("%w: partner %s has %d available", ErrConcurrentModification, m.PartnerID, before)
		}

		after, err := applyDelta(ctx, tx, m.PartnerID, m.Field, m.Delta)
		if err != nil {
			return nil, err
		}

		rec := Record{
			ID:             uuid.New(),
			TransferID:     plan.TransferID,
			PartnerID:      m.PartnerID,
			BalanceBefore:  before,
			BalanceAfter:   after,
			SignedAmount:   m.Delta,
			Kind:           plan.Kind,
			SubKind:        subKindFor(m.Tier, m.Field),
			Forced:         plan.Forced,
			CounterpartyID: m.CounterpartyID,
			ProcessedBy:    plan.ProcessedBy,
			Channel:        m.Channel,
			Memo:           plan.Memo,
			CreatedAt:      now,
		}
		if err := insertRecord(ctx, tx, rec); err != nil {
			return nil, err
		}

		applied.Records = append(applied.Records, rec)
		applied.After[m.PartnerID] = after
	}

	if err := tx.Commit(); err != nil {
		// The driver cannot tell us whether the commit landed. Surface the
		// ambiguity; the caller must re-fetch, never blind-retry.
		return nil, fmt.Errorf("%w: commit outcome unknown: %v", ErrPartialFailure, err)
	}
	return applied, nil
}

// lockPartners takes FOR UPDATE locks on every involved row in ascending id
// order so two concurrent transfers over the same pair cannot deadlock.
func lockPartners(ctx context.Context, tx *sqlx.Tx, mutations []Mutation) (map[uuid.UUID]lockedRow, error) {
	seen := make(map[uuid.UUID]bool, len(mutations))
	ids := make([]uuid.UUID, 0, len(mutations))
	for _, m := range mutations {
		if !seen[m.PartnerID] {
			seen[m.PartnerID] = true
			ids = append(ids, m.PartnerID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = id.String()
	}

	var rows []lockedRow
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, ledger_balance, channel_balance_a, channel_balance_b
		FROM partners
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, pq.Array(strIDs))
	if err != nil {
		return nil, err
	}

	locked := make(map[uuid.UUID]lockedRow, len(rows))
	for _, row := range rows {
		locked[row.ID] = row
	}
	return locked, nil
}

// applyDelta performs the guarded in-place update. The WHERE clause re-checks
// non-negativity at the storage layer so no code path can drive a balance
// below zero.
func applyDelta(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, field wallet.Field, delta int64) (int64, error) {
	col, err := columnFor(field)
	if err != nil {
		return 0, err
	}

	var after int64
	query := fmt.Sprintf(`
		UPDATE partners
		SET %s = %s + $1, updated_at = now()
		WHERE id = $2 AND %s + $1 >= 0
		RETURNING %s
	`, col, col, col, col)
	err = tx.GetContext(ctx, &after, query, delta, id)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: guarded update matched no row for partner %s", ErrConcurrentModification, id)
	}
	if err != nil {
		return 0, err
	}
	return after, nil
}

func insertRecord(ctx context.Context, tx *sqlx.Tx, rec Record) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balance_log (
			id, transfer_id, partner_id, balance_before, balance_after,
			signed_amount, kind, sub_kind, forced, counterparty_id,
			processed_by, channel, memo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, rec.ID, rec.TransferID, rec.PartnerID, rec.BalanceBefore, rec.BalanceAfter,
		rec.SignedAmount, string(rec.Kind), string(rec.SubKind), rec.Forced, rec.CounterpartyID,
		rec.ProcessedBy, channelValue(rec.Channel), rec.Memo, rec.CreatedAt)
	return err
}

// ListByPartner returns a partner's balance history, newest first.
func (r *Repository) ListByPartner(ctx context.Context, partnerID uuid.UUID, limit, offset int) ([]Record, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var records []Record
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, transfer_id, partner_id, balance_before, balance_after,
		       signed_amount, kind, sub_kind, forced, counterparty_id,
		       processed_by, channel, memo, created_at
		FROM balance_log
		WHERE partner_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, partnerID, limit, offset)
	return records, err
}

// ListSince returns log rows committed strictly after the watermark, oldest
// first. Used by the archive worker.
func (r *Repository) ListSince(ctx context.Context, since time.Time, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 500
	}
	var records []Record
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, transfer_id, partner_id, balance_before, balance_after,
		       signed_amount, kind, sub_kind, forced, counterparty_id,
		       processed_by, channel, memo, created_at
		FROM balance_log
		WHERE created_at > $1
		ORDER BY created_at, id
		LIMIT $2
	`, since, limit)
	return records, err
}

func fieldValue(row lockedRow, field wallet.Field) int64 {
	switch field {
	case wallet.FieldChannelA:
		return row.ChannelBalanceA
	case wallet.FieldChannelB:
		return row.ChannelBalanceB
	default:
		return row.LedgerBalance
	}
}

func columnFor(field wallet.Field) (string, error) {
	switch field {
	case wallet.FieldLedger:
		return "ledger_balance", nil
	case wallet.FieldChannelA:
		return "channel_balance_a", nil
	case wallet.FieldChannelB:
		return "channel_balance_b", nil
	default:
		return "", fmt.Errorf("unknown balance field %q", field)
	}
}

func channelValue(ch *wallet.Channel) interface{} {
	if ch == nil {
		return nil
	}
	return string(*ch)
}
