package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
)

// FollowService is the follow-edge façade. Write operations act as the
// current session's identity, resolved at call time.
type FollowService struct {
	gateway ports.FollowGateway
	session ports.SessionReader
	log     zerolog.Logger
}

func NewFollowService(gateway ports.FollowGateway, session ports.SessionReader, log zerolog.Logger) *FollowService {
	return &FollowService{gateway: gateway, session: session, log: log}
}

// Follow creates the (viewer, target) edge. Self-follow is rejected here, not
// just hidden in the UI.
func (s *FollowService) Follow(ctx context.Context, targetID string) error {
	identity, ok := s.session.Identity()
	if !ok {
		return domain.ErrUnauthenticated
	}
	if identity.ID == targetID {
		return fmt.Errorf("%w: cannot follow yourself", domain.ErrConflict)
	}
	if err := s.gateway.Follow(ctx, targetID); err != nil {
		return fmt.Errorf("follow %s: %w", targetID, err)
	}
	s.log.Debug().Str("target_id", targetID).Msg("followed user")
	return nil
}

// Unfollow removes the (viewer, target) edge. Removing an edge that does not
// exist is a no-op, not an error.
func (s *FollowService) Unfollow(ctx context.Context, targetID string) error {
	if _, ok := s.session.Identity(); !ok {
		return domain.ErrUnauthenticated
	}
	if err := s.gateway.Unfollow(ctx, targetID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("unfollow %s: %w", targetID, err)
	}
	s.log.Debug().Str("target_id", targetID).Msg("unfollowed user")
	return nil
}

// IsFollowing reports whether the viewer follows target. A missing edge is a
// negative result: (false, nil), never an error.
func (s *FollowService) IsFollowing(ctx context.Context, targetID string) (bool, error) {
	if _, ok := s.session.Identity(); !ok {
		return false, domain.ErrUnauthenticated
	}
	following, err := s.gateway.IsFollowing(ctx, targetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("is following %s: %w", targetID, err)
	}
	return following, nil
}

// FollowersCount returns how many users follow id.
func (s *FollowService) FollowersCount(ctx context.Context, id string) (int, error) {
	n, err := s.gateway.FollowersCount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("followers count: %w", err)
	}
	return n, nil
}

// FollowingCount returns how many users id follows.
func (s *FollowService) FollowingCount(ctx context.Context, id string) (int, error) {
	n, err := s.gateway.FollowingCount(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("following count: %w", err)
	}
	return n, nil
}

// Following lists the users id follows, each edge joined with the followed
// user's profile summary. An empty result is an empty slice.
func (s *FollowService) Following(ctx context.Context, id string) ([]domain.FollowEdge, error) {
	edges, err := s.gateway.ListFollowing(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	if edges == nil {
		edges = []domain.FollowEdge{}
	}
	return edges, nil
}
