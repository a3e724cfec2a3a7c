// package tasks implements the list synchronization flow of the media tracker.
//
// Views drive a [Synchronizer] to mutate list membership and a [ListView] to hold the
// membership set of one list page. Browse and search pages use [CategoryView] and
// [SearchView]. All of them share one [Session].
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
)

// LoginPath is where unauthenticated mutations are redirected.
const LoginPath = "/login"

// Navigator moves the user to another view, remembering where they came from so a
// successful login can send them back.
type Navigator interface {
	Redirect(to, from string)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(to, from string)

func (f NavigatorFunc) Redirect(to, from string) { f(to, from) }

// Recorder persists mutation attempts. Implemented by repositories.ActivityRepository.
//
// Recording is best effort: errors are logged and otherwise ignored.
type Recorder interface {
	Create(activity *models.Activity) error
}

// SessionStore persists the signed in user between runs.
type SessionStore interface {
	SaveSession(ctx context.Context, username string) error
	ClearSession(ctx context.Context) error
}

// MutationResult is the outcome of an add or remove, returned to the view so it can
// decide whether to surface the failure.
type MutationResult struct {
	Op         models.Operation
	List       models.ListKind
	Kind       models.MediaKind
	TmdbID     int64
	Title      string
	Err        error
	Redirected bool // true when the gate sent the user to [LoginPath] and no call was made
}

// OK reports whether the backend accepted the mutation.
func (r MutationResult) OK() bool { return r.Err == nil && !r.Redirected }

// Rejected reports whether the backend answered with a non-2xx status. A rejection is
// definitive; any other failure leaves the server state unknown.
func (r MutationResult) Rejected() bool {
	var apiErr *services.APIError
	return errors.As(r.Err, &apiErr)
}

// Message is a one line summary suitable for a status bar.
func (r MutationResult) Message() string {
	switch {
	case r.Redirected:
		return "Sign in to manage your lists"
	case r.Err != nil:
		return fmt.Sprintf("Could not %s %s: %v", r.Op, r.Title, r.Err)
	case r.Op == models.OpAdd:
		return fmt.Sprintf("Added %s to %s", r.Title, r.List.Label())
	default:
		return fmt.Sprintf("Removed %s from %s", r.Title, r.List.Label())
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func notAuthenticated(op models.Operation) error {
	return fmt.Errorf("%w: sign in to %s list entries", shared.ErrNotAuthenticated, op)
}
