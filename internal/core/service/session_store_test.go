package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
)

type stubAuthGateway struct {
	mu          sync.Mutex
	session     *domain.Session
	handlers    map[int]func(domain.SessionEvent)
	nextHandler int

	signInErr    error
	signOutErr   error
	currentErr   error
	signInCalls  int
	signOutCalls int
}

func newStubAuthGateway() *stubAuthGateway {
	return &stubAuthGateway{handlers: make(map[int]func(domain.SessionEvent))}
}

func (g *stubAuthGateway) emit(ev domain.SessionEvent) {
	g.mu.Lock()
	hs := make([]func(domain.SessionEvent), 0, len(g.handlers))
	for _, h := range g.handlers {
		hs = append(hs, h)
	}
	g.mu.Unlock()
	for _, h := range hs {
		h(ev)
	}
}

func (g *stubAuthGateway) SignUp(_ context.Context, email, _, _ string) (*domain.Session, error) {
	sess := testSession("u-new", email)
	g.mu.Lock()
	g.session = sess
	g.mu.Unlock()
	g.emit(domain.SessionEvent{Type: domain.SessionSignedIn, Session: sess})
	return sess, nil
}

func (g *stubAuthGateway) SignIn(_ context.Context, email, _ string) (*domain.Session, error) {
	g.mu.Lock()
	g.signInCalls++
	err := g.signInErr
	g.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sess := testSession("u-1", email)
	g.mu.Lock()
	g.session = sess
	g.mu.Unlock()
	g.emit(domain.SessionEvent{Type: domain.SessionSignedIn, Session: sess})
	return sess, nil
}

func (g *stubAuthGateway) SignOut(_ context.Context) error {
	g.mu.Lock()
	g.signOutCalls++
	err := g.signOutErr
	g.mu.Unlock()
	if err != nil {
		return err
	}
	g.mu.Lock()
	g.session = nil
	g.mu.Unlock()
	g.emit(domain.SessionEvent{Type: domain.SessionSignedOut})
	return nil
}

func (g *stubAuthGateway) CurrentSession(_ context.Context) (*domain.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentErr != nil {
		return nil, g.currentErr
	}
	return g.session, nil
}

func (g *stubAuthGateway) SessionEvents(handler func(domain.SessionEvent)) func() {
	g.mu.Lock()
	id := g.nextHandler
	g.nextHandler++
	g.handlers[id] = handler
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.handlers, id)
		g.mu.Unlock()
	}
}

type stubProfileGateway struct {
	mu          sync.Mutex
	profiles    map[string]*domain.Profile
	getErr      error
	handleTaken bool
	getCalls    int
}

func newStubProfileGateway() *stubProfileGateway {
	return &stubProfileGateway{profiles: make(map[string]*domain.Profile)}
}

func (g *stubProfileGateway) put(p domain.Profile) {
	g.mu.Lock()
	copy := p
	g.profiles[p.ID] = &copy
	g.mu.Unlock()
}

func (g *stubProfileGateway) Get(_ context.Context, id string) (*domain.Profile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.getCalls++
	if g.getErr != nil {
		return nil, g.getErr
	}
	p, ok := g.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (g *stubProfileGateway) Update(_ context.Context, id string, update ports.ProfileUpdate) (*domain.Profile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if update.Handle != nil {
		p.Handle = *update.Handle
	}
	if update.DisplayName != nil {
		p.DisplayName = *update.DisplayName
	}
	if update.Bio != nil {
		p.Bio = *update.Bio
	}
	clone := *p
	return &clone, nil
}

func (g *stubProfileGateway) CheckHandleAvailable(_ context.Context, _, _ string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.handleTaken, nil
}

func (g *stubProfileGateway) Search(_ context.Context, _ string, _ int) ([]domain.ProfileSummary, error) {
	return nil, nil
}

func testSession(id, email string) *domain.Session {
	return &domain.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Now().Add(time.Hour),
		Identity:     domain.Identity{ID: id, Email: email},
	}
}

func newTestStore(auth *stubAuthGateway, profiles *stubProfileGateway) *SessionStore {
	return NewSessionStore(auth, profiles, zerolog.Nop())
}

// waitForSnapshot blocks until the store publishes a snapshot matching cond.
func waitForSnapshot(t *testing.T, store *SessionStore, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	ch := make(chan Snapshot, 32)
	remove := store.OnChange(func(s Snapshot) {
		select {
		case ch <- s:
		default:
		}
	})
	defer remove()

	if s := store.Snapshot(); cond(s) {
		return s
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot, last: %+v", store.Snapshot())
		}
	}
}

func TestSessionStore_Bootstrap_RestoresSession(t *testing.T) {
	auth := newStubAuthGateway()
	auth.session = testSession("u-1", "alice@example.com")
	profiles := newStubProfileGateway()
	profiles.put(domain.Profile{ID: "u-1", Handle: "alice", DisplayName: "Alice"})

	store := newTestStore(auth, profiles)
	defer store.Close()

	if !store.Snapshot().Initializing {
		t.Fatalf("expected initializing before bootstrap")
	}
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	snap := store.Snapshot()
	if snap.Initializing {
		t.Fatalf("expected initializing cleared after bootstrap")
	}
	if !snap.SignedIn() || snap.Identity.ID != "u-1" {
		t.Fatalf("expected signed-in snapshot, got %+v", snap)
	}
	if snap.Profile == nil || snap.Profile.Handle != "alice" {
		t.Fatalf("expected profile populated, got %+v", snap.Profile)
	}
}

func TestSessionStore_Bootstrap_NoSession(t *testing.T) {
	store := newTestStore(newStubAuthGateway(), newStubProfileGateway())
	defer store.Close()

	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	snap := store.Snapshot()
	if snap.Initializing || snap.SignedIn() {
		t.Fatalf("expected settled signed-out snapshot, got %+v", snap)
	}
}

func TestSessionStore_Bootstrap_GatewayError(t *testing.T) {
	auth := newStubAuthGateway()
	auth.currentErr = domain.ErrRemote
	store := newTestStore(auth, newStubProfileGateway())
	defer store.Close()

	err := store.Bootstrap(context.Background())
	if !errors.Is(err, domain.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	// The app must still leave the splash screen.
	if store.Snapshot().Initializing {
		t.Fatalf("expected initializing cleared even on bootstrap failure")
	}
}

func TestSessionStore_SignIn_PopulatesViaFeed(t *testing.T) {
	auth := newStubAuthGateway()
	profiles := newStubProfileGateway()
	profiles.put(domain.Profile{ID: "u-1", Handle: "alice"})

	store := newTestStore(auth, profiles)
	defer store.Close()
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	if err := store.SignIn(context.Background(), "alice@example.com", "password123"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}

	snap := waitForSnapshot(t, store, func(s Snapshot) bool {
		return s.SignedIn() && s.Profile != nil
	})
	if snap.Identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity: %+v", snap.Identity)
	}
	if snap.Profile.Handle != "alice" {
		t.Fatalf("unexpected profile: %+v", snap.Profile)
	}
}

func TestSessionStore_SignIn_Validation(t *testing.T) {
	auth := newStubAuthGateway()
	store := newTestStore(auth, newStubProfileGateway())
	defer store.Close()

	err := store.SignIn(context.Background(), "not-an-email", "password123")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	err = store.SignIn(context.Background(), "alice@example.com", "short")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for short password, got %v", err)
	}
	if auth.signInCalls != 0 {
		t.Fatalf("expected no gateway calls for invalid input, got %d", auth.signInCalls)
	}
}

func TestSessionStore_SignOut_ClearsLocallyOnRemoteFailure(t *testing.T) {
	auth := newStubAuthGateway()
	profiles := newStubProfileGateway()
	profiles.put(domain.Profile{ID: "u-1", Handle: "alice"})
	auth.session = testSession("u-1", "alice@example.com")

	store := newTestStore(auth, profiles)
	defer store.Close()
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	auth.signOutErr = domain.ErrRemote
	err := store.SignOut(context.Background())
	if !errors.Is(err, domain.ErrRemote) {
		t.Fatalf("expected ErrRemote, got %v", err)
	}
	snap := store.Snapshot()
	if snap.SignedIn() || snap.Session != nil || snap.Profile != nil {
		t.Fatalf("expected local state cleared despite remote failure, got %+v", snap)
	}
}

func TestSessionStore_RemoteSignOutEventClearsState(t *testing.T) {
	auth := newStubAuthGateway()
	profiles := newStubProfileGateway()
	profiles.put(domain.Profile{ID: "u-1", Handle: "alice"})
	auth.session = testSession("u-1", "alice@example.com")

	store := newTestStore(auth, profiles)
	defer store.Close()
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if !store.Snapshot().SignedIn() {
		t.Fatalf("expected signed in after bootstrap")
	}

	// A sign-out on another device arrives over the session feed.
	auth.emit(domain.SessionEvent{Type: domain.SessionSignedOut})

	waitForSnapshot(t, store, func(s Snapshot) bool {
		return !s.SignedIn() && s.Profile == nil
	})
}

func TestSessionStore_ProfileFetchFailureKeepsIdentity(t *testing.T) {
	auth := newStubAuthGateway()
	profiles := newStubProfileGateway()
	profiles.getErr = domain.ErrRemote
	auth.session = testSession("u-1", "alice@example.com")

	store := newTestStore(auth, profiles)
	defer store.Close()
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	snap := store.Snapshot()
	if !snap.SignedIn() {
		t.Fatalf("expected identity despite profile fetch failure, got %+v", snap)
	}
	if snap.Profile != nil {
		t.Fatalf("expected nil profile, got %+v", snap.Profile)
	}

	// A later refresh recovers the profile.
	profiles.mu.Lock()
	profiles.getErr = nil
	profiles.mu.Unlock()
	profiles.put(domain.Profile{ID: "u-1", Handle: "alice"})
	if err := store.RefreshProfile(context.Background()); err != nil {
		t.Fatalf("refresh profile failed: %v", err)
	}
	if store.Snapshot().Profile == nil {
		t.Fatalf("expected profile after refresh")
	}
}

func TestSessionStore_UpdateProfile_TakenHandle(t *testing.T) {
	auth := newStubAuthGateway()
	profiles := newStubProfileGateway()
	profiles.put(domain.Profile{ID: "u-1", Handle: "alice"})
	profiles.handleTaken = true
	auth.session = testSession("u-1", "alice@example.com")

	store := newTestStore(auth, profiles)
	defer store.Close()
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	handle := "taken_handle"
	_, err := store.UpdateProfile(context.Background(), ports.ProfileUpdate{Handle: &handle})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	// The local profile keeps the old handle.
	if got := store.Snapshot().Profile.Handle; got != "alice" {
		t.Fatalf("expected handle unchanged, got %q", got)
	}
}

func TestSessionStore_UpdateProfile_ReplacesLocalCopy(t *testing.T) {
	auth := newStubAuthGateway()
	profiles := newStubProfileGateway()
	profiles.put(domain.Profile{ID: "u-1", Handle: "alice", DisplayName: "Alice"})
	auth.session = testSession("u-1", "alice@example.com")

	store := newTestStore(auth, profiles)
	defer store.Close()
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	name := "Alice Runs"
	updated, err := store.UpdateProfile(context.Background(), ports.ProfileUpdate{DisplayName: &name})
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.DisplayName != "Alice Runs" {
		t.Fatalf("unexpected returned profile: %+v", updated)
	}
	if got := store.Snapshot().Profile.DisplayName; got != "Alice Runs" {
		t.Fatalf("expected local copy replaced, got %q", got)
	}
}

func TestSessionStore_UpdateProfile_Unauthenticated(t *testing.T) {
	store := newTestStore(newStubAuthGateway(), newStubProfileGateway())
	defer store.Close()
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	name := "Nobody"
	_, err := store.UpdateProfile(context.Background(), ports.ProfileUpdate{DisplayName: &name})
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestSessionStore_UpdateProfile_InvalidHandle(t *testing.T) {
	auth := newStubAuthGateway()
	profiles := newStubProfileGateway()
	profiles.put(domain.Profile{ID: "u-1", Handle: "alice"})
	auth.session = testSession("u-1", "alice@example.com")

	store := newTestStore(auth, profiles)
	defer store.Close()
	if err := store.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	handle := "Not A Handle!"
	_, err := store.UpdateProfile(context.Background(), ports.ProfileUpdate{Handle: &handle})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
