// Package supabase implements the remote data gateway over a hosted
// Supabase-compatible backend: GoTrue for auth token issuance, PostgREST for
// table reads/writes, and the realtime websocket for out-of-band session
// events. All relational integrity, uniqueness constraints, and query
// execution live on the remote side; this package only shapes requests and
// normalizes failures into the domain error taxonomy.
package supabase

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultTimeout = 15 * time.Second

// Config holds gateway connection settings.
type Config struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co.
	URL string
	// AnonKey is the public API key sent with every request.
	AnonKey string
	// HTTPClient overrides the default client (used by tests).
	HTTPClient *http.Client
	// Realtime enables the websocket session feed. Off, session events are
	// limited to ones this process originates.
	Realtime bool
}

// Client is the gateway entry point. Auth state (the current session) lives
// on the AuthClient; the table stores borrow its access token per request.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	log        zerolog.Logger
	auth       *AuthClient
}

// New validates config and builds a Client.
func New(cfg Config, log zerolog.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase: URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("supabase: anon key is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: httpClient,
		log:        log,
	}
	c.auth = newAuthClient(c, cfg.Realtime)
	return c, nil
}

// Auth returns the auth gateway.
func (c *Client) Auth() *AuthClient { return c.auth }

// Profiles returns the profile gateway.
func (c *Client) Profiles() *ProfileStore { return &ProfileStore{client: c} }

// Follows returns the follow gateway.
func (c *Client) Follows() *FollowStore { return &FollowStore{client: c} }

// Workouts returns the workout gateway.
func (c *Client) Workouts() *WorkoutStore { return &WorkoutStore{client: c} }

// Close shuts down the realtime feed, if connected.
func (c *Client) Close() {
	c.auth.close()
}
