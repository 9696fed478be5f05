package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
)

type stubSessionReader struct {
	identity *domain.Identity
}

func (r *stubSessionReader) Identity() (domain.Identity, bool) {
	if r.identity == nil {
		return domain.Identity{}, false
	}
	return *r.identity, true
}

func signedInAs(id string) *stubSessionReader {
	return &stubSessionReader{identity: &domain.Identity{ID: id, Email: id + "@example.com"}}
}

type followKey struct{ follower, following string }

type stubFollowGateway struct {
	mu        sync.Mutex
	edges     map[followKey]bool
	followers map[string]int
	following map[string]int
	failWith  error
}

func newStubFollowGateway() *stubFollowGateway {
	return &stubFollowGateway{
		edges:     make(map[followKey]bool),
		followers: make(map[string]int),
		following: make(map[string]int),
	}
}

func (g *stubFollowGateway) Follow(_ context.Context, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return g.failWith
	}
	key := followKey{follower: "viewer", following: targetID}
	if g.edges[key] {
		return domain.ErrConflict
	}
	g.edges[key] = true
	return nil
}

func (g *stubFollowGateway) Unfollow(_ context.Context, targetID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return g.failWith
	}
	key := followKey{follower: "viewer", following: targetID}
	if !g.edges[key] {
		return domain.ErrNotFound
	}
	delete(g.edges, key)
	return nil
}

func (g *stubFollowGateway) IsFollowing(_ context.Context, targetID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return false, g.failWith
	}
	if !g.edges[followKey{follower: "viewer", following: targetID}] {
		return false, domain.ErrNotFound
	}
	return true, nil
}

func (g *stubFollowGateway) FollowersCount(_ context.Context, id string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.followers[id], nil
}

func (g *stubFollowGateway) FollowingCount(_ context.Context, id string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.following[id], nil
}

func (g *stubFollowGateway) ListFollowing(_ context.Context, _ string) ([]domain.FollowEdge, error) {
	return nil, nil
}

func TestFollowService_Follow_Success(t *testing.T) {
	gw := newStubFollowGateway()
	svc := NewFollowService(gw, signedInAs("viewer"), zerolog.Nop())

	if err := svc.Follow(context.Background(), "other"); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	following, err := svc.IsFollowing(context.Background(), "other")
	if err != nil {
		t.Fatalf("is following failed: %v", err)
	}
	if !following {
		t.Fatalf("expected edge to exist after follow")
	}
}

func TestFollowService_Follow_Self(t *testing.T) {
	gw := newStubFollowGateway()
	svc := NewFollowService(gw, signedInAs("viewer"), zerolog.Nop())

	err := svc.Follow(context.Background(), "viewer")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for self-follow, got %v", err)
	}
	if len(gw.edges) != 0 {
		t.Fatalf("expected no edge created, got %d", len(gw.edges))
	}
}

func TestFollowService_Follow_Unauthenticated(t *testing.T) {
	svc := NewFollowService(newStubFollowGateway(), &stubSessionReader{}, zerolog.Nop())

	if err := svc.Follow(context.Background(), "other"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestFollowService_Follow_Duplicate(t *testing.T) {
	gw := newStubFollowGateway()
	svc := NewFollowService(gw, signedInAs("viewer"), zerolog.Nop())

	if err := svc.Follow(context.Background(), "other"); err != nil {
		t.Fatalf("first follow failed: %v", err)
	}
	err := svc.Follow(context.Background(), "other")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate follow, got %v", err)
	}
}

func TestFollowService_Unfollow_MissingEdgeIsNoOp(t *testing.T) {
	gw := newStubFollowGateway()
	svc := NewFollowService(gw, signedInAs("viewer"), zerolog.Nop())

	if err := svc.Unfollow(context.Background(), "other"); err != nil {
		t.Fatalf("expected missing edge to be a no-op, got %v", err)
	}
}

func TestFollowService_IsFollowing_MissingEdge(t *testing.T) {
	gw := newStubFollowGateway()
	svc := NewFollowService(gw, signedInAs("viewer"), zerolog.Nop())

	following, err := svc.IsFollowing(context.Background(), "other")
	if err != nil {
		t.Fatalf("expected (false, nil) for missing edge, got error %v", err)
	}
	if following {
		t.Fatalf("expected false for missing edge")
	}
}

func TestFollowService_IsFollowing_RemoteFailure(t *testing.T) {
	gw := newStubFollowGateway()
	gw.failWith = domain.ErrRemote
	svc := NewFollowService(gw, signedInAs("viewer"), zerolog.Nop())

	_, err := svc.IsFollowing(context.Background(), "other")
	if !errors.Is(err, domain.ErrRemote) {
		t.Fatalf("expected ErrRemote to propagate, got %v", err)
	}
}

func TestFollowService_FollowThenUnfollow(t *testing.T) {
	gw := newStubFollowGateway()
	svc := NewFollowService(gw, signedInAs("viewer"), zerolog.Nop())

	if err := svc.Follow(context.Background(), "other"); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	if err := svc.Unfollow(context.Background(), "other"); err != nil {
		t.Fatalf("unfollow failed: %v", err)
	}
	following, err := svc.IsFollowing(context.Background(), "other")
	if err != nil || following {
		t.Fatalf("expected edge gone, got following=%v err=%v", following, err)
	}
}
