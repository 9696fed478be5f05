package supabase

import (
	"context"
	"time"

	"github.com/fitstride/fitstride/internal/core/domain"
)

// FollowStore implements ports.FollowGateway against the follows table.
// Writes act as the current session's identity; the table's composite unique
// key on (follower_id, following_id) is the integrity backstop.
type FollowStore struct {
	client *Client
}

func (s *FollowStore) Follow(ctx context.Context, targetID string) error {
	me, ok := s.client.auth.identity()
	if !ok {
		return domain.ErrUnauthenticated
	}
	return s.client.from("follows").insert(ctx, "follow_user", map[string]any{
		"follower_id":  me.ID,
		"following_id": targetID,
	}, nil)
}

func (s *FollowStore) Unfollow(ctx context.Context, targetID string) error {
	me, ok := s.client.auth.identity()
	if !ok {
		return domain.ErrUnauthenticated
	}
	return s.client.from("follows").
		eq("follower_id", me.ID).
		eq("following_id", targetID).
		delete(ctx, "unfollow_user")
}

// IsFollowing is a single-row existence check; a missing edge surfaces as
// domain.ErrNotFound for the façade to normalize.
func (s *FollowStore) IsFollowing(ctx context.Context, targetID string) (bool, error) {
	me, ok := s.client.auth.identity()
	if !ok {
		return false, domain.ErrUnauthenticated
	}
	var row struct {
		FollowerID string `json:"follower_id"`
	}
	err := s.client.from("follows").
		sel("follower_id").
		eq("follower_id", me.ID).
		eq("following_id", targetID).
		one().
		get(ctx, "is_following", &row)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *FollowStore) FollowersCount(ctx context.Context, id string) (int, error) {
	return s.client.from("follows").
		eq("following_id", id).
		count(ctx, "followers_count")
}

func (s *FollowStore) FollowingCount(ctx context.Context, id string) (int, error) {
	return s.client.from("follows").
		eq("follower_id", id).
		count(ctx, "following_count")
}

type followRow struct {
	FollowerID  string                `json:"follower_id"`
	FollowingID string                `json:"following_id"`
	CreatedAt   time.Time             `json:"created_at"`
	Profile     domain.ProfileSummary `json:"profile"`
}

// ListFollowing returns the edges id has created, each joined with the
// followed user's profile summary.
func (s *FollowStore) ListFollowing(ctx context.Context, id string) ([]domain.FollowEdge, error) {
	var rows []followRow
	err := s.client.from("follows").
		sel("follower_id,following_id,created_at,profile:profiles!follows_following_id_fkey("+summaryColumns+")").
		eq("follower_id", id).
		order("created_at", false).
		get(ctx, "list_following", &rows)
	if err != nil {
		return nil, err
	}

	edges := make([]domain.FollowEdge, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, domain.FollowEdge{
			FollowerID:  r.FollowerID,
			FollowingID: r.FollowingID,
			CreatedAt:   r.CreatedAt,
			Profile:     r.Profile,
		})
	}
	return edges, nil
}
