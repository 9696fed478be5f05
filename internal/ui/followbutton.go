package ui

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/ports"
)

// FollowState is the follow button's rendered state.
type FollowState string

const (
	// FollowHidden means the button must not render: no viewer, or the
	// target is the viewer themself.
	FollowHidden FollowState = "hidden"
	// FollowChecking means the edge lookup is still running.
	FollowChecking     FollowState = "checking"
	FollowNotFollowing FollowState = "not_following"
	FollowFollowing    FollowState = "following"
)

// FollowButton is the state machine behind the follow/unfollow control on a
// profile. The rendered state flips only after the remote write succeeds; a
// failed toggle leaves it where it was.
type FollowButton struct {
	follows ports.FollowService
	session ports.SessionReader
	log     zerolog.Logger

	mu       sync.Mutex
	targetID string
	token    string
	state    FollowState
	busy     bool
	onChange func(FollowState, bool)
}

// NewFollowButton builds a hidden button; call SetTarget to bind it.
func NewFollowButton(follows ports.FollowService, session ports.SessionReader, log zerolog.Logger) *FollowButton {
	return &FollowButton{
		follows: follows,
		session: session,
		log:     log,
		state:   FollowHidden,
	}
}

// OnChange registers the single watcher, invoked with (state, busy) after
// every transition. Call before SetTarget.
func (b *FollowButton) OnChange(fn func(FollowState, bool)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// State returns the current rendered state and busy flag.
func (b *FollowButton) State() (FollowState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.busy
}

// SetTarget binds the button to a profile and resolves its state. The viewer's
// own profile and the signed-out case both hide the button without a remote
// call. A SetTarget issued while a previous lookup runs supersedes it.
func (b *FollowButton) SetTarget(ctx context.Context, targetID string) error {
	me, signedIn := b.session.Identity()

	b.mu.Lock()
	b.targetID = targetID
	token := uuid.NewString()
	b.token = token
	if !signedIn || targetID == "" || targetID == me.ID {
		b.state = FollowHidden
		b.busy = false
		b.mu.Unlock()
		b.notify()
		return nil
	}
	b.state = FollowChecking
	b.mu.Unlock()
	b.notify()

	following, err := b.follows.IsFollowing(ctx, targetID)

	b.mu.Lock()
	if b.token != token {
		b.mu.Unlock()
		return nil
	}
	if err != nil {
		// Leave it checking; the screen's retry path calls SetTarget again.
		b.mu.Unlock()
		b.log.Warn().Err(err).Str("target_id", targetID).Msg("follow state lookup failed")
		return fmt.Errorf("resolve follow state: %w", err)
	}
	if following {
		b.state = FollowFollowing
	} else {
		b.state = FollowNotFollowing
	}
	b.mu.Unlock()
	b.notify()
	return nil
}

// Toggle follows or unfollows the bound target. While the write runs the
// button is busy and further toggles are ignored.
func (b *FollowButton) Toggle(ctx context.Context) error {
	b.mu.Lock()
	if b.busy || (b.state != FollowFollowing && b.state != FollowNotFollowing) {
		b.mu.Unlock()
		return nil
	}
	b.busy = true
	state := b.state
	target := b.targetID
	token := b.token
	b.mu.Unlock()
	b.notify()

	var err error
	if state == FollowFollowing {
		err = b.follows.Unfollow(ctx, target)
	} else {
		err = b.follows.Follow(ctx, target)
	}

	b.mu.Lock()
	if b.token != token {
		b.mu.Unlock()
		return nil
	}
	b.busy = false
	if err == nil {
		if state == FollowFollowing {
			b.state = FollowNotFollowing
		} else {
			b.state = FollowFollowing
		}
	}
	b.mu.Unlock()
	b.notify()
	if err != nil {
		b.log.Warn().Err(err).Str("target_id", target).Msg("follow toggle failed")
		return fmt.Errorf("toggle follow: %w", err)
	}
	return nil
}

func (b *FollowButton) notify() {
	b.mu.Lock()
	fn := b.onChange
	state, busy := b.state, b.busy
	b.mu.Unlock()
	if fn != nil {
		fn(state, busy)
	}
}
