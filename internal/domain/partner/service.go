package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/partnerdesk/partner-api/internal/domain/wallet"
)

// Service is the read-only partner directory. Balance mutation lives in the
// transfer engine; nothing here writes.
type Service struct {
	repo      *Repository
	providers map[wallet.Channel]string
}

func NewService(repo *Repository, providers map[wallet.Channel]string) *Service {
	return &Service{repo: repo, providers: providers}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Partner, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) DescendantsOf(ctx context.Context, id uuid.UUID) ([]*Partner, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.DescendantsOf(ctx, id)
}

func (s *Service) AncestorChain(ctx context.Context, id uuid.UUID) ([]*Partner, error) {
	return s.repo.AncestorChain(ctx, id)
}

// SnapshotWallet returns the tier-shaped wallet view for display.
func (s *Service) SnapshotWallet(ctx context.Context, id uuid.UUID) (*wallet.Snapshot, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	snap := wallet.NewSnapshot(p.Account(), s.providers)
	return &snap, nil
}
