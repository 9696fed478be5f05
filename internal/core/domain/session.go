package domain

import "time"

// Identity is the authenticated account record, owned by the auth backend.
// The application only ever holds a read-only copy.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the credential set bound to an Identity. Tokens are opaque to the
// application except for the access token's expiry, which drives refresh.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"identity"`
}

// Expired reports whether the access token has passed its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// SessionEventType classifies out-of-band session-change notifications pushed
// by the auth backend.
type SessionEventType string

const (
	SessionSignedIn       SessionEventType = "signed_in"
	SessionTokenRefreshed SessionEventType = "token_refreshed"
	SessionSignedOut      SessionEventType = "signed_out"
)

// SessionEvent is a single entry on the session-change feed. Session is nil
// for events that end the session.
type SessionEvent struct {
	Type    SessionEventType
	Session *Session
}
