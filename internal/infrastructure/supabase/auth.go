package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fitstride/fitstride/internal/core/domain"
)

// refreshLeeway is how long before expiry the access token is refreshed.
const refreshLeeway = time.Minute

// AuthClient implements ports.AuthGateway over GoTrue. It holds the current
// session, refreshes the access token ahead of expiry, and fans session
// events out to subscribers — both events this process originates and remote
// ones arriving over the realtime feed.
type AuthClient struct {
	client          *Client
	realtimeEnabled bool

	mu           sync.Mutex
	session      *domain.Session
	subs         map[int]func(domain.SessionEvent)
	nextSub      int
	refreshTimer *time.Timer
	feed         *realtimeFeed
}

func newAuthClient(c *Client, realtime bool) *AuthClient {
	return &AuthClient{
		client:          c,
		realtimeEnabled: realtime,
		subs:            make(map[int]func(domain.SessionEvent)),
	}
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type authResponse struct {
	AccessToken  string    `json:"access_token"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	User         *authUser `json:"user"`
}

// session converts an auth response into a domain session. Identity and
// expiry fall back to the access token's claims when the response omits them.
func (r authResponse) session(now time.Time) *domain.Session {
	if r.AccessToken == "" {
		return nil
	}
	sess := &domain.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	if r.ExpiresIn > 0 {
		sess.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	if r.User != nil {
		sess.Identity = domain.Identity{ID: r.User.ID, Email: r.User.Email}
	}
	if sess.Identity.ID == "" || sess.ExpiresAt.IsZero() {
		if sub, email, exp, err := claimsFromToken(r.AccessToken); err == nil {
			if sess.Identity.ID == "" {
				sess.Identity = domain.Identity{ID: sub, Email: email}
			}
			if sess.ExpiresAt.IsZero() {
				sess.ExpiresAt = exp
			}
		}
	}
	return sess
}

// claimsFromToken reads subject, email, and expiry from the access token
// without verifying the signature — the signing key belongs to the backend;
// the client only mirrors what it was issued.
func claimsFromToken(token string) (sub, email string, exp time.Time, err error) {
	claims := jwt.MapClaims{}
	if _, _, err = jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", "", time.Time{}, fmt.Errorf("parse access token: %w", err)
	}
	sub, _ = claims["sub"].(string)
	email, _ = claims["email"].(string)
	if expiry, expErr := claims.GetExpirationTime(); expErr == nil && expiry != nil {
		exp = expiry.Time
	}
	return sub, email, exp, nil
}

// SignUp creates an identity (the backend provisions the default profile) and
// starts a session when the project has email confirmation disabled. With
// confirmation on, the returned session is nil and no event is emitted.
func (a *AuthClient) SignUp(ctx context.Context, email, password, displayName string) (*domain.Session, error) {
	payload := map[string]any{"email": email, "password": password}
	if displayName != "" {
		payload["data"] = map[string]any{"display_name": displayName}
	}
	body, err := a.post(ctx, "sign_up", "/auth/v1/signup", payload, "")
	if err != nil {
		return nil, err
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode signup response: %v", domain.ErrRemote, err)
	}
	sess := resp.session(time.Now())
	if sess != nil {
		a.setSession(sess, domain.SessionSignedIn)
	}
	return sess, nil
}

// SignIn exchanges credentials for a session via the password grant.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	body, err := a.post(ctx, "sign_in", "/auth/v1/token?grant_type=password",
		map[string]any{"email": email, "password": password}, "")
	if err != nil {
		return nil, err
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode token response: %v", domain.ErrRemote, err)
	}
	sess := resp.session(time.Now())
	if sess == nil {
		return nil, fmt.Errorf("%w: token response carried no access token", domain.ErrRemote)
	}
	a.setSession(sess, domain.SessionSignedIn)
	return sess, nil
}

// SignOut revokes the session remotely, then drops it locally and emits
// signed_out no matter what the backend answered.
func (a *AuthClient) SignOut(ctx context.Context) error {
	a.mu.Lock()
	token := ""
	if a.session != nil {
		token = a.session.AccessToken
	}
	a.mu.Unlock()

	var remoteErr error
	if token != "" {
		_, remoteErr = a.post(ctx, "sign_out", "/auth/v1/logout", nil, token)
	}
	a.clearSession()
	if remoteErr != nil {
		return fmt.Errorf("remote sign-out: %w", remoteErr)
	}
	return nil
}

// CurrentSession returns the active session, refreshing it first when the
// access token has expired. (nil, nil) means signed out.
func (a *AuthClient) CurrentSession(ctx context.Context) (*domain.Session, error) {
	a.mu.Lock()
	var sess *domain.Session
	if a.session != nil {
		cp := *a.session
		sess = &cp
	}
	a.mu.Unlock()

	if sess == nil {
		return nil, nil
	}
	if sess.Expired(time.Now()) {
		return a.refresh(ctx)
	}
	return sess, nil
}

// SessionEvents registers a feed subscriber; the returned function removes it.
func (a *AuthClient) SessionEvents(handler func(domain.SessionEvent)) func() {
	a.mu.Lock()
	id := a.nextSub
	a.nextSub++
	a.subs[id] = handler
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		delete(a.subs, id)
		a.mu.Unlock()
	}
}

// refresh exchanges the refresh token for a new session. An auth rejection
// means the session is gone for good, so local state is cleared.
func (a *AuthClient) refresh(ctx context.Context) (*domain.Session, error) {
	a.mu.Lock()
	refreshToken := ""
	if a.session != nil {
		refreshToken = a.session.RefreshToken
	}
	a.mu.Unlock()
	if refreshToken == "" {
		return nil, nil
	}

	body, err := a.post(ctx, "refresh_token", "/auth/v1/token?grant_type=refresh_token",
		map[string]any{"refresh_token": refreshToken}, "")
	if err != nil {
		if errorsIsAuthRejection(err) {
			a.client.log.Warn().Err(err).Msg("session refresh rejected, signing out")
			a.clearSession()
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode refresh response: %v", domain.ErrRemote, err)
	}
	sess := resp.session(time.Now())
	if sess == nil {
		return nil, fmt.Errorf("%w: refresh response carried no access token", domain.ErrRemote)
	}
	a.setSession(sess, domain.SessionTokenRefreshed)
	return sess, nil
}

func (a *AuthClient) setSession(sess *domain.Session, eventType domain.SessionEventType) {
	a.mu.Lock()
	cp := *sess
	a.session = &cp
	a.scheduleRefreshLocked(cp.ExpiresAt)
	a.ensureFeedLocked(cp.Identity.ID, cp.AccessToken)
	a.mu.Unlock()

	evSess := *sess
	a.emit(domain.SessionEvent{Type: eventType, Session: &evSess})
}

func (a *AuthClient) clearSession() {
	a.mu.Lock()
	alreadyOut := a.session == nil
	a.session = nil
	if a.refreshTimer != nil {
		a.refreshTimer.Stop()
		a.refreshTimer = nil
	}
	feed := a.feed
	a.feed = nil
	a.mu.Unlock()

	if feed != nil {
		feed.disconnect()
	}
	if !alreadyOut {
		a.emit(domain.SessionEvent{Type: domain.SessionSignedOut})
	}
}

func (a *AuthClient) scheduleRefreshLocked(expiresAt time.Time) {
	if a.refreshTimer != nil {
		a.refreshTimer.Stop()
		a.refreshTimer = nil
	}
	if expiresAt.IsZero() {
		return
	}
	wait := time.Until(expiresAt) - refreshLeeway
	if wait < time.Second {
		wait = time.Second
	}
	a.refreshTimer = time.AfterFunc(wait, func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if _, err := a.refresh(ctx); err != nil {
			a.client.log.Warn().Err(err).Msg("scheduled token refresh failed")
		}
	})
}

// ensureFeedLocked keeps the realtime session feed joined to the signed-in
// user's topic, so a sign-out issued from another device reaches this one.
func (a *AuthClient) ensureFeedLocked(userID, token string) {
	if !a.realtimeEnabled || userID == "" {
		return
	}
	if a.feed != nil && a.feed.topicUser == userID {
		return
	}
	if a.feed != nil {
		go a.feed.disconnect()
	}
	feed := newRealtimeFeed(a.client.baseURL, a.client.anonKey, token, userID, a.handleFeedEvent, a.client.log)
	a.feed = feed
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if err := feed.connect(ctx); err != nil {
			a.client.log.Warn().Err(err).Msg("realtime session feed unavailable")
		}
	}()
}

func (a *AuthClient) handleFeedEvent(event string, payload map[string]any) {
	switch event {
	case "SIGNED_OUT":
		a.client.log.Info().Msg("remote sign-out received")
		a.clearSession()
	case "TOKEN_REFRESHED":
		ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
		defer cancel()
		if _, err := a.refresh(ctx); err != nil {
			a.client.log.Warn().Err(err).Msg("refresh after remote rotation failed")
		}
	}
}

func (a *AuthClient) emit(ev domain.SessionEvent) {
	a.mu.Lock()
	handlers := make([]func(domain.SessionEvent), 0, len(a.subs))
	for _, fn := range a.subs {
		handlers = append(handlers, fn)
	}
	a.mu.Unlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// identity returns the identity backing the current session. The table
// stores use it to scope writes to the acting user.
func (a *AuthClient) identity() (domain.Identity, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return domain.Identity{}, false
	}
	return a.session.Identity, true
}

// accessToken hands the current bearer token to the REST layer; empty when
// signed out.
func (a *AuthClient) accessToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.AccessToken
}

func (a *AuthClient) close() {
	a.mu.Lock()
	if a.refreshTimer != nil {
		a.refreshTimer.Stop()
		a.refreshTimer = nil
	}
	feed := a.feed
	a.feed = nil
	a.mu.Unlock()
	if feed != nil {
		feed.disconnect()
	}
}

func (a *AuthClient) post(ctx context.Context, op, path string, payload any, bearer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode auth payload: %w", err)
		}
		body = bytes.NewReader(encoded)
	}
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if bearer != "" {
		headers.Set("Authorization", "Bearer "+bearer)
	}
	respBody, _, err := a.client.doWith(ctx, op, http.MethodPost, a.client.baseURL+path, body, headers, mapAuthError)
	return respBody, err
}

func errorsIsAuthRejection(err error) bool {
	return errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUnauthenticated)
}
