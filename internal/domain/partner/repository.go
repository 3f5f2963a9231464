package partner

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const partnerColumns = `id, tier, parent_id, kind, status, ledger_balance, channel_balance_a, channel_balance_b, created_at, updated_at`

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Partner, error) {
	var p Partner
	err := r.db.GetContext(ctx, &p, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DescendantsOf returns the transitive closure below a partner, shallowest
// first. A single recursive query, not one round-trip per level.
func (r *Repository) DescendantsOf(ctx context.Context, id uuid.UUID) ([]*Partner, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT ` + partnerColumns + `, 0 AS depth
			FROM partners
			WHERE parent_id = $1
			UNION ALL
			SELECT p.id, p.tier, p.parent_id, p.kind, p.status,
			       p.ledger_balance, p.channel_balance_a, p.channel_balance_b,
			       p.created_at, p.updated_at, s.depth + 1
			FROM partners p
			JOIN subtree s ON p.parent_id = s.id
		)
		SELECT ` + partnerColumns + ` FROM subtree ORDER BY depth, created_at
	`
	var partners []*Partner
	err := r.db.SelectContext(ctx, &partners, query, id)
	return partners, err
}

// AncestorChain returns the root-to-self path for a partner.
func (r *Repository) AncestorChain(ctx context.Context, id uuid.UUID) ([]*Partner, error) {
	query := `
		WITH RECURSIVE chain AS (
			SELECT ` + partnerColumns + `, 0 AS depth
			FROM partners
			WHERE id = $1
			UNION ALL
			SELECT p.id, p.tier, p.parent_id, p.kind, p.status,
			       p.ledger_balance, p.channel_balance_a, p.channel_balance_b,
			       p.created_at, p.updated_at, c.depth + 1
			FROM partners p
			JOIN chain c ON p.id = c.parent_id
		)
		SELECT ` + partnerColumns + ` FROM chain ORDER BY depth DESC
	`
	var partners []*Partner
	err := r.db.SelectContext(ctx, &partners, query, id)
	if err != nil {
		return nil, err
	}
	if len(partners) == 0 {
		return nil, ErrNotFound
	}
	return partners, nil
}
