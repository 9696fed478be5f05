package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
	"github.com/fitstride/fitstride/internal/metrics"
)

const profileFetchTimeout = 15 * time.Second

// Snapshot is an immutable view of the session state handed to readers.
// Pointer fields are copies; mutating them has no effect on the store.
type Snapshot struct {
	Identity     *domain.Identity
	Session      *domain.Session
	Profile      *domain.Profile
	Initializing bool
	Busy         bool
}

// SignedIn reports whether the snapshot carries an authenticated identity.
func (s Snapshot) SignedIn() bool { return s.Identity != nil }

type applyMsg struct {
	event domain.SessionEvent
	// applied is closed once the event has been fully absorbed, profile fetch
	// included. Nil for feed events, set by Bootstrap.
	applied chan struct{}
}

// SessionStore is the single source of truth for "who is the current user".
// All four state fields mutate only through its operations; feed events are
// applied one at a time by a dedicated goroutine so no event can leave the
// store half-updated.
type SessionStore struct {
	auth     ports.AuthGateway
	profiles ports.ProfileGateway
	log      zerolog.Logger

	mu           sync.RWMutex
	identity     *domain.Identity
	session      *domain.Session
	profile      *domain.Profile
	initializing bool
	busy         bool
	watchers     map[int]func(Snapshot)
	nextWatcher  int

	applyCh     chan applyMsg
	done        chan struct{}
	unsubscribe func()
	initOnce    sync.Once
	closeOnce   sync.Once
}

// NewSessionStore builds a store in the initializing state. Call Bootstrap to
// restore any existing session and start the feed subscription.
func NewSessionStore(auth ports.AuthGateway, profiles ports.ProfileGateway, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		auth:         auth,
		profiles:     profiles,
		log:          log,
		initializing: true,
		watchers:     make(map[int]func(Snapshot)),
		applyCh:      make(chan applyMsg, 8),
		done:         make(chan struct{}),
	}
}

// Bootstrap restores the current session from the gateway, registers the
// standing session-change subscription, and clears the initializing flag
// exactly once regardless of outcome. Events that race with bootstrap are
// serialized through the same apply queue, so the last consistent write wins.
func (s *SessionStore) Bootstrap(ctx context.Context) error {
	go s.applyLoop()
	s.unsubscribe = s.auth.SessionEvents(func(ev domain.SessionEvent) {
		s.enqueue(applyMsg{event: ev})
	})

	sess, err := s.auth.CurrentSession(ctx)
	if err != nil {
		s.finishInit()
		return fmt.Errorf("bootstrap: %w", err)
	}
	if sess != nil {
		applied := make(chan struct{})
		s.enqueue(applyMsg{
			event:   domain.SessionEvent{Type: domain.SessionSignedIn, Session: sess},
			applied: applied,
		})
		select {
		case <-applied:
		case <-ctx.Done():
		case <-s.done:
		}
	}
	s.finishInit()
	return nil
}

// SignIn delegates to the auth gateway. On success the session-change feed,
// not this call, populates identity and profile; callers must not assume
// synchronous population.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	if err := validateStruct(credentialsInput{Email: email, Password: password}); err != nil {
		return err
	}
	s.setBusy(true)
	defer s.setBusy(false)
	if _, err := s.auth.SignIn(ctx, email, password); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return nil
}

// SignUp creates a new identity with a default profile. Same population
// contract as SignIn.
func (s *SessionStore) SignUp(ctx context.Context, email, password, displayName string) error {
	if err := validateStruct(signUpInput{Email: email, Password: password, DisplayName: displayName}); err != nil {
		return err
	}
	s.setBusy(true)
	defer s.setBusy(false)
	if _, err := s.auth.SignUp(ctx, email, password, displayName); err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	return nil
}

// SignOut revokes the remote session and clears local state unconditionally.
// After this call returns the store never looks signed in, even when the
// remote sign-out failed.
func (s *SessionStore) SignOut(ctx context.Context) error {
	s.setBusy(true)
	defer s.setBusy(false)

	err := s.auth.SignOut(ctx)

	s.mu.Lock()
	s.identity, s.session, s.profile = nil, nil, nil
	s.mu.Unlock()
	s.notifyWatchers()

	if err != nil {
		s.log.Warn().Err(err).Msg("remote sign-out failed, local session cleared anyway")
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// UpdateProfile patches the current identity's profile and replaces the local
// copy with the server's returned row. Handle changes are checked for
// availability first; a taken handle is a domain.ErrConflict.
func (s *SessionStore) UpdateProfile(ctx context.Context, update ports.ProfileUpdate) (*domain.Profile, error) {
	identity, ok := s.Identity()
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	if err := validateStruct(profileUpdateInput{
		Handle:      update.Handle,
		DisplayName: update.DisplayName,
		Bio:         update.Bio,
		BirthDate:   update.BirthDate,
		HeightCm:    update.HeightCm,
		WeightKg:    update.WeightKg,
		Goal:        update.Goal,
	}); err != nil {
		return nil, err
	}

	if update.Handle != nil {
		available, err := s.profiles.CheckHandleAvailable(ctx, *update.Handle, identity.ID)
		if err != nil {
			return nil, fmt.Errorf("check handle: %w", err)
		}
		if !available {
			return nil, fmt.Errorf("%w: handle %q is taken", domain.ErrConflict, *update.Handle)
		}
	}

	updated, err := s.profiles.Update(ctx, identity.ID, update)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.mu.Lock()
	p := *updated
	s.profile = &p
	s.mu.Unlock()
	s.notifyWatchers()
	return updated, nil
}

// RefreshProfile re-fetches the current identity's profile. No-op when
// signed out.
func (s *SessionStore) RefreshProfile(ctx context.Context) error {
	identity, ok := s.Identity()
	if !ok {
		return nil
	}
	profile, err := s.profiles.Get(ctx, identity.ID)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	s.notifyWatchers()
	return nil
}

// Identity implements ports.SessionReader.
func (s *SessionStore) Identity() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return domain.Identity{}, false
	}
	return *s.identity, true
}

// Snapshot returns a consistent copy of the store's state.
func (s *SessionStore) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// OnChange registers a watcher invoked after every state change. The returned
// function removes it.
func (s *SessionStore) OnChange(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// Close tears down the feed subscription and stops the apply loop. Safe to
// call more than once.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.done)
	})
}

func (s *SessionStore) enqueue(msg applyMsg) {
	select {
	case s.applyCh <- msg:
	case <-s.done:
		if msg.applied != nil {
			close(msg.applied)
		}
	}
}

// applyLoop is the single writer for feed-driven state. One event is fully
// absorbed, profile fetch included, before the next is looked at.
func (s *SessionStore) applyLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.applyCh:
			s.apply(msg.event)
			if msg.applied != nil {
				close(msg.applied)
			}
		}
	}
}

func (s *SessionStore) apply(ev domain.SessionEvent) {
	metrics.SessionEventsTotal.WithLabelValues(string(ev.Type)).Inc()

	if ev.Session == nil {
		s.mu.Lock()
		s.identity, s.session, s.profile = nil, nil, nil
		s.mu.Unlock()
		s.notifyWatchers()
		return
	}

	sess := *ev.Session
	ident := sess.Identity

	ctx, cancel := context.WithTimeout(context.Background(), profileFetchTimeout)
	profile, err := s.profiles.Get(ctx, ident.ID)
	cancel()
	if err != nil {
		// The identity is still usable; the profile stays absent until a
		// later refresh succeeds.
		s.log.Warn().Err(err).Str("user_id", ident.ID).Msg("profile fetch failed during session apply")
		profile = nil
	}

	s.mu.Lock()
	s.identity = &ident
	s.session = &sess
	s.profile = profile
	s.mu.Unlock()
	s.notifyWatchers()
}

func (s *SessionStore) finishInit() {
	s.initOnce.Do(func() {
		s.mu.Lock()
		s.initializing = false
		s.mu.Unlock()
		s.notifyWatchers()
	})
}

func (s *SessionStore) setBusy(b bool) {
	s.mu.Lock()
	s.busy = b
	s.mu.Unlock()
	s.notifyWatchers()
}

func (s *SessionStore) snapshotLocked() Snapshot {
	snap := Snapshot{Initializing: s.initializing, Busy: s.busy}
	if s.identity != nil {
		ident := *s.identity
		snap.Identity = &ident
	}
	if s.session != nil {
		sess := *s.session
		snap.Session = &sess
	}
	if s.profile != nil {
		p := *s.profile
		snap.Profile = &p
	}
	return snap
}

func (s *SessionStore) notifyWatchers() {
	s.mu.RLock()
	snap := s.snapshotLocked()
	fns := make([]func(Snapshot), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(snap)
	}
}
