package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
	"github.com/fitstride/fitstride/internal/metrics"
)

const defaultPublicFeedLimit = 50

// WorkoutService is the workout façade: creation, the three feed reads, and
// the like toggle.
type WorkoutService struct {
	gateway ports.WorkoutGateway
	session ports.SessionReader
	log     zerolog.Logger
}

func NewWorkoutService(gateway ports.WorkoutGateway, session ports.SessionReader, log zerolog.Logger) *WorkoutService {
	return &WorkoutService{gateway: gateway, session: session, log: log}
}

// Create validates the draft and creates a workout owned by the current
// session's identity.
func (s *WorkoutService) Create(ctx context.Context, draft ports.WorkoutDraft) (*domain.Workout, error) {
	if _, ok := s.session.Identity(); !ok {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateStruct(draft); err != nil {
		return nil, err
	}
	workout, err := s.gateway.Create(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}
	s.log.Info().Str("workout_id", workout.ID).Int("exercises", len(workout.Exercises)).Msg("workout created")
	return workout, nil
}

// UserFeed lists one user's workouts, enriched with owner, exercises, and
// like aggregates.
func (s *WorkoutService) UserFeed(ctx context.Context, ownerID string) ([]domain.Workout, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}
	workouts, err := s.gateway.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("user feed: %w", err)
	}
	return nonNil(workouts), nil
}

// PublicFeed lists the most recent public workouts.
func (s *WorkoutService) PublicFeed(ctx context.Context, limit int) ([]domain.Workout, error) {
	if limit <= 0 {
		limit = defaultPublicFeedLimit
	}
	workouts, err := s.gateway.ListPublic(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("public feed: %w", err)
	}
	return nonNil(workouts), nil
}

// FollowedFeed lists workouts by users the viewer follows.
func (s *WorkoutService) FollowedFeed(ctx context.Context) ([]domain.Workout, error) {
	if _, ok := s.session.Identity(); !ok {
		return nil, domain.ErrUnauthenticated
	}
	workouts, err := s.gateway.ListFollowed(ctx)
	if err != nil {
		return nil, fmt.Errorf("followed feed: %w", err)
	}
	return nonNil(workouts), nil
}

// ToggleLike re-derives the current liked state remotely, then inserts or
// deletes the like row, returning the state after the toggle. The check and
// the write are not transactional; a concurrent toggle on the same pair can
// surface as domain.ErrConflict, which is recoverable and safe to retry.
func (s *WorkoutService) ToggleLike(ctx context.Context, workoutID string) (bool, error) {
	if _, ok := s.session.Identity(); !ok {
		return false, domain.ErrUnauthenticated
	}

	liked, err := s.gateway.IsLiked(ctx, workoutID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		metrics.LikeTogglesTotal.WithLabelValues("error").Inc()
		return false, fmt.Errorf("check like: %w", err)
	}

	if liked {
		if err := s.gateway.Unlike(ctx, workoutID); err != nil {
			return false, s.toggleFailure("unlike", workoutID, err)
		}
		metrics.LikeTogglesTotal.WithLabelValues("unliked").Inc()
		return false, nil
	}

	if err := s.gateway.Like(ctx, workoutID); err != nil {
		return false, s.toggleFailure("like", workoutID, err)
	}
	metrics.LikeTogglesTotal.WithLabelValues("liked").Inc()
	return true, nil
}

func (s *WorkoutService) toggleFailure(op, workoutID string, err error) error {
	if errors.Is(err, domain.ErrConflict) {
		// Lost a race against another session toggling the same pair; the
		// remote unique constraint is the backstop.
		metrics.LikeTogglesTotal.WithLabelValues("conflict").Inc()
		s.log.Debug().Str("workout_id", workoutID).Msg("like toggle conflict")
	} else {
		metrics.LikeTogglesTotal.WithLabelValues("error").Inc()
	}
	return fmt.Errorf("%s workout %s: %w", op, workoutID, err)
}

func nonNil(workouts []domain.Workout) []domain.Workout {
	if workouts == nil {
		return []domain.Workout{}
	}
	return workouts
}
