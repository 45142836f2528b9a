package actions

import (
	"github.com/pkg/errors"

	"expensetrack/companion-bot/internal/clients/expenseapi"
	"expensetrack/companion-bot/internal/validate"
)

var (
	// ErrActionPending rejects re-invocation of an action whose own
	// request is still outstanding. Other actions are unaffected.
	ErrActionPending = errors.New("action already in progress")

	// ErrStale marks a completion that arrived after the session it
	// belonged to was torn down; callers treat it as a silent no-op.
	ErrStale = errors.New("stale action completion")

	// ErrSessionExpired bubbles an auth rejection up to the guard.
	ErrSessionExpired = errors.New("session expired")

	ErrNothingToRetry = errors.New("nothing to retry")
)

// UserMessage maps a failure onto the text shown to the user: field
// errors keep their own messages, server business errors are surfaced
// verbatim, everything else degrades to the generic fallback.
func UserMessage(err error, generic string) string {
	var fields validate.FieldErrors
	if errors.As(err, &fields) {
		return fields.Error()
	}
	var status *expenseapi.StatusError
	if errors.As(err, &status) && status.Message != "" {
		return status.Message
	}
	return generic
}
