package ports

import (
	"context"

	"github.com/fitstride/fitstride/internal/core/domain"
)

// AuthGateway is the auth surface of the remote backend. Token issuance,
// refresh, and account storage all live on the other side of it.
type AuthGateway interface {
	// SignUp creates an identity plus a default profile and starts a session.
	SignUp(ctx context.Context, email, password, displayName string) (*domain.Session, error)
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	// SignOut revokes the remote session. The local session is dropped by the
	// gateway regardless of the remote outcome.
	SignOut(ctx context.Context) error
	// CurrentSession returns the active session, or (nil, nil) when signed out.
	CurrentSession(ctx context.Context) (*domain.Session, error)
	// SessionEvents registers a standing subscriber on the session-change feed
	// (sign-in, token refresh, sign-out, including events originated remotely).
	// The returned function cancels the subscription.
	SessionEvents(handler func(domain.SessionEvent)) (unsubscribe func())
}

// ProfileUpdate is a partial profile write. Nil fields are left untouched.
type ProfileUpdate struct {
	Handle      *string
	DisplayName *string
	AvatarURL   *string
	Bio         *string
	BirthDate   *string
	HeightCm    *float64
	WeightKg    *float64
	Goal        *string
}

// ProfileGateway reads and writes profile rows. Handle uniqueness is enforced
// remotely; CheckHandleAvailable exists so writers can fail early.
type ProfileGateway interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
	// Update patches the row with the given id and returns the server's row,
	// including server-computed fields such as timestamps.
	Update(ctx context.Context, id string, update ProfileUpdate) (*domain.Profile, error)
	CheckHandleAvailable(ctx context.Context, handle, excludeID string) (bool, error)
	// Search matches handle OR display name, case-insensitive substring.
	// An empty term returns the suggested-users selection instead.
	Search(ctx context.Context, term string, limit int) ([]domain.ProfileSummary, error)
}

// FollowGateway manages directed follow edges. Write operations act as the
// current session's identity and fail with domain.ErrUnauthenticated when
// there is none. IsFollowing returns domain.ErrNotFound when no edge exists;
// normalizing that into a negative result is the façade's job.
type FollowGateway interface {
	Follow(ctx context.Context, targetID string) error
	Unfollow(ctx context.Context, targetID string) error
	IsFollowing(ctx context.Context, targetID string) (bool, error)
	FollowersCount(ctx context.Context, id string) (int, error)
	FollowingCount(ctx context.Context, id string) (int, error)
	ListFollowing(ctx context.Context, id string) ([]domain.FollowEdge, error)
}

// ExerciseDraft is one movement inside a workout draft.
type ExerciseDraft struct {
	Name     string  `validate:"required,max=80"`
	Sets     int     `validate:"gte=0,lte=100"`
	Reps     int     `validate:"gte=0,lte=1000"`
	WeightKg float64 `validate:"gte=0,lte=1000"`
}

// WorkoutDraft carries everything needed to create a workout. The owner is
// never part of the draft; it is resolved from the current session.
type WorkoutDraft struct {
	Title       string `validate:"required,max=120"`
	Public      bool
	Date        string `validate:"required,datetime=2006-01-02"`
	DurationMin int    `validate:"gte=0,lte=1440"`
	Calories    int    `validate:"gte=0,lte=20000"`
	Notes       string `validate:"max=2000"`
	Exercises   []ExerciseDraft `validate:"dive"`
}

// WorkoutGateway reads and writes workouts, their exercises, and likes.
// List results come back enriched with the owner summary, exercises in
// insertion order, and like aggregates; missing children are empty slices.
type WorkoutGateway interface {
	Create(ctx context.Context, draft WorkoutDraft) (*domain.Workout, error)
	ListByUser(ctx context.Context, ownerID string) ([]domain.Workout, error)
	ListPublic(ctx context.Context, limit int) ([]domain.Workout, error)
	// ListFollowed returns workouts by users the current session follows.
	ListFollowed(ctx context.Context) ([]domain.Workout, error)
	// IsLiked is a single-row existence check for (current user, workout);
	// domain.ErrNotFound means "not liked".
	IsLiked(ctx context.Context, workoutID string) (bool, error)
	Like(ctx context.Context, workoutID string) error
	Unlike(ctx context.Context, workoutID string) error
}
