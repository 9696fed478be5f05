package ui

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
)

// collectStates funnels controller state changes into a channel the test can
// drain without missing transitions.
func collectStates[T any](ctrl *ListController[T]) <-chan ListState[T] {
	ch := make(chan ListState[T], 32)
	ctrl.OnChange(func(s ListState[T]) {
		select {
		case ch <- s:
		default:
		}
	})
	return ch
}

func waitState[T any](t *testing.T, ch <-chan ListState[T], cond func(ListState[T]) bool) ListState[T] {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for controller state")
		}
	}
}

func TestListController_MountLoadsItems(t *testing.T) {
	ctrl := NewListController("feed", func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}, zerolog.Nop())
	states := collectStates(ctrl)

	ctrl.Mount(context.Background())

	s := waitState(t, states, func(s ListState[string]) bool { return !s.Loading && len(s.Items) == 2 })
	if s.Err != nil || s.Refreshing {
		t.Fatalf("unexpected settled state: %+v", s)
	}
}

func TestListController_LoadingOnlyWhenEmpty(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	ctrl := NewListController("feed", func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"a"}, nil
		}
		<-release
		return []string{"a", "b"}, nil
	}, zerolog.Nop())
	states := collectStates(ctrl)

	ctrl.Mount(context.Background())
	waitState(t, states, func(s ListState[string]) bool { return !s.Loading && len(s.Items) == 1 })

	ctrl.Refresh(context.Background())
	s := waitState(t, states, func(s ListState[string]) bool { return s.Refreshing })
	if s.Loading {
		t.Fatalf("expected refreshing without loading once items exist, got %+v", s)
	}
	if len(s.Items) != 1 {
		t.Fatalf("expected items to stay visible during refresh, got %d", len(s.Items))
	}
	close(release)
	waitState(t, states, func(s ListState[string]) bool { return !s.Refreshing && len(s.Items) == 2 })
}

func TestListController_RefreshFailureKeepsItems(t *testing.T) {
	var calls atomic.Int32
	ctrl := NewListController("feed", func(context.Context) ([]string, error) {
		if calls.Add(1) == 1 {
			return []string{"a", "b"}, nil
		}
		return nil, domain.ErrRemote
	}, zerolog.Nop())
	states := collectStates(ctrl)

	ctrl.Mount(context.Background())
	waitState(t, states, func(s ListState[string]) bool { return len(s.Items) == 2 })

	ctrl.Refresh(context.Background())
	s := waitState(t, states, func(s ListState[string]) bool { return s.Err != nil })
	if len(s.Items) != 2 {
		t.Fatalf("expected stale items retained on refresh failure, got %d", len(s.Items))
	}
	if s.Loading || s.Refreshing {
		t.Fatalf("expected flags cleared after failure, got %+v", s)
	}
}

func TestListController_CoalescesTriggersWhileInFlight(t *testing.T) {
	release := make(chan struct{})
	var calls atomic.Int32
	ctrl := NewListController("feed", func(context.Context) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"a"}, nil
	}, zerolog.Nop())
	states := collectStates(ctrl)

	ctrl.Mount(context.Background())
	waitState(t, states, func(s ListState[string]) bool { return s.Loading })

	// These arrive while the mount fetch is still running.
	ctrl.Refresh(context.Background())
	ctrl.Focus(context.Background())

	close(release)
	waitState(t, states, func(s ListState[string]) bool { return !s.Loading && len(s.Items) == 1 })
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected one fetch, got %d", got)
	}
}

func TestListController_UnmountDiscardsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	done := make(chan struct{})
	ctrl := NewListController("feed", func(context.Context) ([]string, error) {
		defer close(done)
		<-release
		return []string{"a"}, nil
	}, zerolog.Nop())
	states := collectStates(ctrl)

	ctrl.Mount(context.Background())
	waitState(t, states, func(s ListState[string]) bool { return s.Loading })

	ctrl.Unmount()
	close(release)
	<-done
	time.Sleep(20 * time.Millisecond)

	s := ctrl.State()
	if len(s.Items) != 0 {
		t.Fatalf("expected result of unmounted fetch discarded, got %d items", len(s.Items))
	}
	if s.Loading || s.Refreshing {
		t.Fatalf("expected flags cleared on unmount, got %+v", s)
	}
}

func TestListController_TriggersIgnoredWhileUnmounted(t *testing.T) {
	var calls atomic.Int32
	ctrl := NewListController("feed", func(context.Context) ([]string, error) {
		calls.Add(1)
		return nil, nil
	}, zerolog.Nop())

	ctrl.Refresh(context.Background())
	ctrl.Focus(context.Background())
	time.Sleep(20 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Fatalf("expected no fetches before mount, got %d", got)
	}
}

func TestListController_NilResultBecomesEmptySlice(t *testing.T) {
	ctrl := NewListController("feed", func(context.Context) ([]string, error) {
		return nil, nil
	}, zerolog.Nop())
	states := collectStates(ctrl)

	ctrl.Mount(context.Background())
	s := waitState(t, states, func(s ListState[string]) bool { return !s.Loading })
	if s.Items == nil {
		t.Fatalf("expected empty slice, got nil")
	}
}
