package supabase

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fitstride/fitstride/internal/core/domain"
)

// apiError is the union of the error envelopes GoTrue and PostgREST emit.
type apiError struct {
	Code             string `json:"code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	ErrorField       string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e apiError) text() string {
	for _, s := range []string{e.Message, e.Msg, e.ErrorDescription, e.ErrorField} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Postgres/PostgREST codes that carry meaning for the application.
const (
	codeUniqueViolation = "23505"    // duplicate key (handle, follow edge, like)
	codeNoSingleRow     = "PGRST116" // single-object request matched no rows
)

// mapResponseError converts a non-2xx gateway response into the closed
// domain error taxonomy. Every REST and auth call funnels through here, so
// callers branch on kind with errors.Is instead of inspecting payloads.
func mapResponseError(status int, body []byte) error {
	var parsed apiError
	_ = json.Unmarshal(body, &parsed)
	msg := parsed.text()

	switch {
	case parsed.Code == codeNoSingleRow:
		return domain.ErrNotFound
	case parsed.Code == codeUniqueViolation:
		return fmt.Errorf("%w: %s", domain.ErrConflict, msg)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return wrapWith(domain.ErrUnauthenticated, msg)
	case status == http.StatusNotFound, status == http.StatusNotAcceptable:
		// PostgREST answers 406 to a single-object request with no rows.
		return domain.ErrNotFound
	case status == http.StatusConflict:
		return wrapWith(domain.ErrConflict, msg)
	default:
		if msg == "" {
			msg = fmt.Sprintf("status %d", status)
		}
		return fmt.Errorf("%w: %s", domain.ErrRemote, msg)
	}
}

// mapAuthError specializes mapping for the token endpoint, where a 400
// invalid_grant means bad credentials rather than a malformed request.
func mapAuthError(status int, body []byte) error {
	var parsed apiError
	_ = json.Unmarshal(body, &parsed)
	if status == http.StatusBadRequest || status == http.StatusUnauthorized {
		return domain.ErrInvalidCredentials
	}
	if status == http.StatusUnprocessableEntity || parsed.Code == codeUniqueViolation {
		return wrapWith(domain.ErrConflict, parsed.text())
	}
	return mapResponseError(status, body)
}

func wrapTransportError(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrRemote, err)
}

func wrapWith(kind error, msg string) error {
	if msg == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, msg)
}
