package ports

import (
	"context"

	"github.com/fitstride/fitstride/internal/core/domain"
)

// SessionReader exposes the current authenticated identity to façade services.
// Implemented by the session store; write operations resolve the acting
// identity through it at call time rather than from caller parameters.
type SessionReader interface {
	// Identity returns the signed-in identity and true, or a zero value and
	// false when no session exists.
	Identity() (domain.Identity, bool)
}

// ProfileService is the read/search façade over profile rows.
type ProfileService interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	// Search forwards a trimmed term. A whitespace-only term selects the
	// suggested-users branch (first N profiles) instead of an empty result.
	Search(ctx context.Context, term string, limit int) ([]domain.ProfileSummary, error)
}

// FollowService is the follow façade. IsFollowing reports a missing edge as
// (false, nil) — "no row" is a negative result, never an error.
type FollowService interface {
	Follow(ctx context.Context, targetID string) error
	Unfollow(ctx context.Context, targetID string) error
	IsFollowing(ctx context.Context, targetID string) (bool, error)
	FollowersCount(ctx context.Context, id string) (int, error)
	FollowingCount(ctx context.Context, id string) (int, error)
	Following(ctx context.Context, id string) ([]domain.FollowEdge, error)
}

// WorkoutService is the workout façade. ToggleLike re-derives the liked state
// remotely before acting and returns the state after the toggle.
type WorkoutService interface {
	Create(ctx context.Context, draft WorkoutDraft) (*domain.Workout, error)
	UserFeed(ctx context.Context, ownerID string) ([]domain.Workout, error)
	PublicFeed(ctx context.Context, limit int) ([]domain.Workout, error)
	FollowedFeed(ctx context.Context) ([]domain.Workout, error)
	ToggleLike(ctx context.Context, workoutID string) (bool, error)
}
