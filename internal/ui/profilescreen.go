package ui

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
	"github.com/fitstride/fitstride/internal/metrics"
)

// ProfileScreenState is the renderable state of a profile screen.
type ProfileScreenState struct {
	Loading    bool
	Refreshing bool
	Profile    *domain.Profile
	Followers  int
	Following  int
	Workouts   []domain.Workout
	Err        error
}

// ProfileScreen loads one user's profile together with their follow counts
// and workout history. The profile itself is required; counts and workouts
// are decorations that degrade to defaults when their fetch fails.
type ProfileScreen struct {
	profiles ports.ProfileService
	follows  ports.FollowService
	workouts ports.WorkoutService
	log      zerolog.Logger

	mu       sync.Mutex
	inflight string
	state    ProfileScreenState
	onChange func(ProfileScreenState)
}

func NewProfileScreen(profiles ports.ProfileService, follows ports.FollowService, workouts ports.WorkoutService, log zerolog.Logger) *ProfileScreen {
	return &ProfileScreen{
		profiles: profiles,
		follows:  follows,
		workouts: workouts,
		log:      log.With().Str("screen", "profile").Logger(),
		state:    ProfileScreenState{Workouts: []domain.Workout{}},
	}
}

// OnChange registers the single state watcher. Call before Load.
func (s *ProfileScreen) OnChange(fn func(ProfileScreenState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// State returns a copy of the current state.
func (s *ProfileScreen) State() ProfileScreenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Load fetches the profile, counts, and workouts concurrently. A Load issued
// while an earlier one runs supersedes it; the earlier result is discarded.
// A profile fetch failure fails the whole load; count or workout failures are
// logged and their fields keep zero values.
func (s *ProfileScreen) Load(ctx context.Context, userID string) {
	s.mu.Lock()
	token := uuid.NewString()
	s.inflight = token
	if s.state.Profile == nil {
		s.state.Loading = true
	} else {
		s.state.Refreshing = true
	}
	s.mu.Unlock()
	s.notify()

	go s.run(ctx, token, userID)
}

func (s *ProfileScreen) run(ctx context.Context, token, userID string) {
	var (
		profile   *domain.Profile
		followers int
		following int
		workouts  []domain.Workout
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.Get(gctx, userID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		n, err := s.follows.FollowersCount(gctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("followers count fetch failed")
			return nil
		}
		followers = n
		return nil
	})
	g.Go(func() error {
		n, err := s.follows.FollowingCount(gctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("following count fetch failed")
			return nil
		}
		following = n
		return nil
	})
	g.Go(func() error {
		list, err := s.workouts.UserFeed(gctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("workout history fetch failed")
			return nil
		}
		workouts = list
		return nil
	})
	err := g.Wait()

	s.mu.Lock()
	if s.inflight != token {
		s.mu.Unlock()
		metrics.ScreenFetchesTotal.WithLabelValues("profile", string(TriggerMount), "discarded").Inc()
		return
	}
	s.inflight = ""
	s.state.Loading = false
	s.state.Refreshing = false
	if err != nil {
		s.state.Err = err
		s.mu.Unlock()
		metrics.ScreenFetchesTotal.WithLabelValues("profile", string(TriggerMount), "error").Inc()
		s.log.Warn().Err(err).Str("user_id", userID).Msg("profile load failed")
		s.notify()
		return
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	s.state.Profile = profile
	s.state.Followers = followers
	s.state.Following = following
	s.state.Workouts = workouts
	s.state.Err = nil
	s.mu.Unlock()
	metrics.ScreenFetchesTotal.WithLabelValues("profile", string(TriggerMount), "ok").Inc()
	s.notify()
}

// ApplyFollowChange adjusts the follower count locally after the viewer's
// follow button toggles, so the number tracks the action without a refetch.
func (s *ProfileScreen) ApplyFollowChange(nowFollowing bool) {
	s.mu.Lock()
	if nowFollowing {
		s.state.Followers++
	} else if s.state.Followers > 0 {
		s.state.Followers--
	}
	s.mu.Unlock()
	s.notify()
}

func (s *ProfileScreen) notify() {
	s.mu.Lock()
	fn := s.onChange
	state := s.state
	s.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}
