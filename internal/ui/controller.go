package ui

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/metrics"
)

// Trigger names what caused a fetch.
type Trigger string

const (
	TriggerMount   Trigger = "mount"
	TriggerFocus   Trigger = "focus"
	TriggerRefresh Trigger = "refresh"
)

// ListState is the renderable state of a list screen. Loading is set only
// while there is nothing to show; once items exist, later fetches raise
// Refreshing instead so the list stays on screen.
type ListState[T any] struct {
	Loading    bool
	Refreshing bool
	Items      []T
	Err        error
}

// ListController drives the fetch lifecycle of one list screen. Triggers
// arriving while a fetch is in flight are coalesced into the running one;
// results of a fetch superseded by Unmount are discarded. All remote work
// runs off the caller's goroutine.
type ListController[T any] struct {
	screen string
	fetch  func(context.Context) ([]T, error)
	log    zerolog.Logger

	mu       sync.Mutex
	mounted  bool
	inflight string
	state    ListState[T]
	onChange func(ListState[T])
}

// NewListController builds a controller for one screen. fetch is invoked on
// every accepted trigger and must be safe for concurrent use.
func NewListController[T any](screen string, fetch func(context.Context) ([]T, error), log zerolog.Logger) *ListController[T] {
	return &ListController[T]{
		screen: screen,
		fetch:  fetch,
		log:    log.With().Str("screen", screen).Logger(),
		state:  ListState[T]{Items: []T{}},
	}
}

// OnChange registers the single state watcher. Call before Mount.
func (c *ListController[T]) OnChange(fn func(ListState[T])) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// State returns a copy of the current state.
func (c *ListController[T]) State() ListState[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Mount marks the screen visible and starts the initial fetch.
func (c *ListController[T]) Mount(ctx context.Context) {
	c.mu.Lock()
	c.mounted = true
	c.mu.Unlock()
	c.start(ctx, TriggerMount)
}

// Unmount marks the screen gone. Any in-flight fetch keeps running but its
// result is discarded on arrival.
func (c *ListController[T]) Unmount() {
	c.mu.Lock()
	c.mounted = false
	c.inflight = ""
	c.state.Loading = false
	c.state.Refreshing = false
	c.mu.Unlock()
}

// Focus re-fetches when the screen returns to the foreground.
func (c *ListController[T]) Focus(ctx context.Context) {
	c.start(ctx, TriggerFocus)
}

// Refresh is the explicit pull-to-refresh entry point.
func (c *ListController[T]) Refresh(ctx context.Context) {
	c.start(ctx, TriggerRefresh)
}

func (c *ListController[T]) start(ctx context.Context, trigger Trigger) {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	if c.inflight != "" {
		c.mu.Unlock()
		metrics.ScreenFetchesTotal.WithLabelValues(c.screen, string(trigger), "coalesced").Inc()
		c.log.Debug().Str("trigger", string(trigger)).Msg("fetch already in flight, trigger coalesced")
		return
	}
	token := uuid.NewString()
	c.inflight = token
	if len(c.state.Items) == 0 {
		c.state.Loading = true
	} else {
		c.state.Refreshing = true
	}
	c.mu.Unlock()
	c.notify()

	go func() {
		items, err := c.fetch(ctx)
		c.complete(token, trigger, items, err)
	}()
}

func (c *ListController[T]) complete(token string, trigger Trigger, items []T, err error) {
	c.mu.Lock()
	if c.inflight != token {
		c.mu.Unlock()
		metrics.ScreenFetchesTotal.WithLabelValues(c.screen, string(trigger), "discarded").Inc()
		c.log.Debug().Str("trigger", string(trigger)).Msg("stale fetch result discarded")
		return
	}
	c.inflight = ""
	c.state.Loading = false
	c.state.Refreshing = false
	if err != nil {
		// Items already on screen survive a failed refresh.
		c.state.Err = err
		c.mu.Unlock()
		metrics.ScreenFetchesTotal.WithLabelValues(c.screen, string(trigger), "error").Inc()
		c.log.Warn().Err(err).Str("trigger", string(trigger)).Msg("fetch failed")
		c.notify()
		return
	}
	if items == nil {
		items = []T{}
	}
	c.state.Items = items
	c.state.Err = nil
	c.mu.Unlock()
	metrics.ScreenFetchesTotal.WithLabelValues(c.screen, string(trigger), "ok").Inc()
	c.notify()
}

func (c *ListController[T]) notify() {
	c.mu.Lock()
	fn := c.onChange
	state := c.state
	c.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}
