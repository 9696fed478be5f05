package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
)

const defaultSearchLimit = 20

// ProfileService is the read/search façade over profile rows. Writes go
// through the session store, which owns the current profile copy.
type ProfileService struct {
	gateway ports.ProfileGateway
	log     zerolog.Logger
}

func NewProfileService(gateway ports.ProfileGateway, log zerolog.Logger) *ProfileService {
	return &ProfileService{gateway: gateway, log: log}
}

// Get fetches one profile by id.
func (s *ProfileService) Get(ctx context.Context, id string) (*domain.Profile, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: profile id is required", domain.ErrInvalidInput)
	}
	profile, err := s.gateway.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// Search forwards a trimmed term to the gateway, which matches handle OR
// display name case-insensitively. A whitespace-only term selects the
// suggested-users branch: the gateway returns its first-N selection instead
// of an empty result.
func (s *ProfileService) Search(ctx context.Context, term string, limit int) ([]domain.ProfileSummary, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	term = strings.TrimSpace(term)
	profiles, err := s.gateway.Search(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	if profiles == nil {
		profiles = []domain.ProfileSummary{}
	}
	return profiles, nil
}
