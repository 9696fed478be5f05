// Package ui holds the screen-side orchestration: controllers that drive
// fetch/refresh cycles, the follow button state machine, and the navigation
// shell. Controllers own presentation state only; all remote work goes
// through the core service façades.
package ui

import (
	"errors"

	"github.com/fitstride/fitstride/internal/core/domain"
)

// Level classifies a Notice for presentation.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a user-facing message emitted by controllers.
type Notice struct {
	Level   Level
	Message string
}

// Notifier receives notices; the host app renders them as toasts or banners.
type Notifier interface {
	Notify(Notice)
}

// ErrorNotice translates a domain error into something a person can read.
// Validation messages pass through verbatim since they name the bad field.
func ErrorNotice(err error) Notice {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return Notice{Level: LevelError, Message: "Email or password is incorrect."}
	case errors.Is(err, domain.ErrUnauthenticated):
		return Notice{Level: LevelWarn, Message: "Please sign in to continue."}
	case errors.Is(err, domain.ErrNotFound):
		return Notice{Level: LevelWarn, Message: "That content is no longer available."}
	case errors.Is(err, domain.ErrConflict):
		return Notice{Level: LevelWarn, Message: "That change conflicts with the current state. Pull to refresh and try again."}
	case errors.Is(err, domain.ErrInvalidInput):
		return Notice{Level: LevelError, Message: err.Error()}
	default:
		return Notice{Level: LevelError, Message: "Something went wrong. Check your connection and try again."}
	}
}
