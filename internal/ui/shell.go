package ui

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/service"
)

// Route is the shell's top-level destination.
type Route string

const (
	// RouteLoading shows the splash while the session store initializes.
	RouteLoading Route = "loading"
	// RouteAuth shows the sign-in/sign-up flow.
	RouteAuth Route = "auth"
	// RouteTabs shows the signed-in tab navigator.
	RouteTabs Route = "tabs"
)

// Tab is one of the signed-in bottom tabs.
type Tab string

const (
	TabFeed    Tab = "feed"
	TabSearch  Tab = "search"
	TabCreate  Tab = "create"
	TabProfile Tab = "profile"
)

// Shell derives the top-level route from session store snapshots: loading
// while initializing, auth when signed out, tabs when signed in. It never
// asks the user anything; the store is the sole input.
type Shell struct {
	store *service.SessionStore
	log   zerolog.Logger

	mu       sync.Mutex
	route    Route
	tab      Tab
	detach   func()
	onChange func(Route, Tab)
}

func NewShell(store *service.SessionStore, log zerolog.Logger) *Shell {
	return &Shell{
		store: store,
		log:   log,
		route: RouteLoading,
		tab:   TabFeed,
	}
}

// OnChange registers the single route watcher. Call before Attach.
func (s *Shell) OnChange(fn func(Route, Tab)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Attach subscribes to the session store and applies its current snapshot.
func (s *Shell) Attach() {
	s.detach = s.store.OnChange(s.apply)
	s.apply(s.store.Snapshot())
}

// Detach removes the store subscription. Safe when never attached.
func (s *Shell) Detach() {
	if s.detach != nil {
		s.detach()
		s.detach = nil
	}
}

// Route returns the current route and selected tab.
func (s *Shell) Route() (Route, Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route, s.tab
}

// SelectTab switches the active tab. Ignored outside the tabs route.
func (s *Shell) SelectTab(tab Tab) {
	s.mu.Lock()
	if s.route != RouteTabs || s.tab == tab {
		s.mu.Unlock()
		return
	}
	s.tab = tab
	s.mu.Unlock()
	s.notify()
}

func (s *Shell) apply(snap service.Snapshot) {
	next := RouteTabs
	switch {
	case snap.Initializing:
		next = RouteLoading
	case !snap.SignedIn():
		next = RouteAuth
	}

	s.mu.Lock()
	if s.route == next {
		s.mu.Unlock()
		return
	}
	prev := s.route
	s.route = next
	if next == RouteTabs && prev != RouteTabs {
		// Every fresh sign-in lands on the feed.
		s.tab = TabFeed
	}
	s.mu.Unlock()
	s.log.Debug().Str("from", string(prev)).Str("to", string(next)).Msg("route changed")
	s.notify()
}

func (s *Shell) notify() {
	s.mu.Lock()
	fn := s.onChange
	route, tab := s.route, s.tab
	s.mu.Unlock()
	if fn != nil {
		fn(route, tab)
	}
}
