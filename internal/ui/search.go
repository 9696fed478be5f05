package ui

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fitstride/fitstride/internal/core/domain"
	"github.com/fitstride/fitstride/internal/core/ports"
	"github.com/fitstride/fitstride/internal/metrics"
)

const defaultSearchPageSize = 20

// SearchState is the renderable state of the people-search screen. Term is
// the trimmed term the visible Results answer, not whatever the input box
// currently holds.
type SearchState struct {
	Loading bool
	Term    string
	Results []domain.ProfileSummary
	Err     error
}

// SearchController runs people search. Every keystroke may issue a Query;
// only the most recent one is allowed to publish results, so a slow early
// response can never overwrite a newer one. An empty or whitespace-only term
// shows the suggested-users selection.
type SearchController struct {
	profiles ports.ProfileService
	log      zerolog.Logger
	limit    int

	mu       sync.Mutex
	token    string
	state    SearchState
	onChange func(SearchState)
}

func NewSearchController(profiles ports.ProfileService, log zerolog.Logger) *SearchController {
	return &SearchController{
		profiles: profiles,
		log:      log.With().Str("screen", "search").Logger(),
		limit:    defaultSearchPageSize,
		state:    SearchState{Results: []domain.ProfileSummary{}},
	}
}

// OnChange registers the single state watcher. Call before Query.
func (c *SearchController) OnChange(fn func(SearchState)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// State returns a copy of the current state.
func (c *SearchController) State() SearchState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Query starts a search for term, superseding any query still in flight.
func (c *SearchController) Query(ctx context.Context, term string) {
	trimmed := strings.TrimSpace(term)

	c.mu.Lock()
	token := uuid.NewString()
	c.token = token
	c.state.Loading = true
	c.state.Term = trimmed
	c.mu.Unlock()
	c.notify()

	go func() {
		results, err := c.profiles.Search(ctx, trimmed, c.limit)
		c.complete(token, trimmed, results, err)
	}()
}

func (c *SearchController) complete(token, term string, results []domain.ProfileSummary, err error) {
	c.mu.Lock()
	if c.token != token {
		c.mu.Unlock()
		metrics.ScreenFetchesTotal.WithLabelValues("search", "query", "discarded").Inc()
		c.log.Debug().Str("term", term).Msg("superseded search result discarded")
		return
	}
	c.token = ""
	c.state.Loading = false
	if err != nil {
		c.state.Err = err
		c.mu.Unlock()
		metrics.ScreenFetchesTotal.WithLabelValues("search", "query", "error").Inc()
		c.log.Warn().Err(err).Str("term", term).Msg("search failed")
		c.notify()
		return
	}
	if results == nil {
		results = []domain.ProfileSummary{}
	}
	c.state.Results = results
	c.state.Err = nil
	c.mu.Unlock()
	metrics.ScreenFetchesTotal.WithLabelValues("search", "query", "ok").Inc()
	c.notify()
}

func (c *SearchController) notify() {
	c.mu.Lock()
	fn := c.onChange
	state := c.state
	c.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}
