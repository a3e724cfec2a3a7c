// package services defines the HTTP clients the media tracker talks to
//
// TMDB (catalog) and the tracker backend (accounts and lists)
package services

import (
	"context"

	"github.com/desertthunder/mtx/internal/models"
)

// Catalog is the read-only movie and TV catalog.
type Catalog interface {
	// Fetch returns one page of the trending, popular or top rated listing.
	// window only applies to trending.
	Fetch(ctx context.Context, category models.Category, kind models.MediaKind, window models.Window, page int) (models.Page, error)

	// Search returns one page of results for query. A blank query yields an empty page
	// with zero total pages without a network call.
	Search(ctx context.Context, kind models.MediaKind, query string, page int) (models.Page, error)

	// Details fetches a single item by catalog id.
	Details(ctx context.Context, kind models.MediaKind, id int64) (models.CatalogItem, error)

	// ImageURL resolves a relative poster path to an absolute URL.
	ImageURL(path string) string
}

// Backend is the first-party tracker API owning accounts and list memberships.
type Backend interface {
	// Register creates an account. Backend rejections are reported in the
	// [AuthResult]; only transport failures are returned as errors.
	Register(ctx context.Context, username, password string) (AuthResult, error)

	// Login starts a cookie session. Same error contract as Register.
	Login(ctx context.Context, username, password string) (AuthResult, error)

	// Logout ends the cookie session.
	Logout(ctx context.Context) error

	// WhoAmI asks the backend which user owns the current session.
	WhoAmI(ctx context.Context) (models.Identity, error)

	// AddToList stores item under (username, kind, list) keyed by mediaID.
	AddToList(ctx context.Context, username string, mediaID int64, list models.ListKind, kind models.MediaKind, item models.MediaItem) error

	// RemoveFromList deletes the entry keyed by mediaID. Removing an absent entry succeeds.
	RemoveFromList(ctx context.Context, username string, mediaID int64, list models.ListKind, kind models.MediaKind) error

	// FetchList returns the current members of (username, kind, list).
	FetchList(ctx context.Context, username string, list models.ListKind, kind models.MediaKind) ([]models.ListEntry, error)
}

// AuthReason classifies a refused login or registration.
type AuthReason string

const (
	ReasonNone               AuthReason = ""
	ReasonInvalidCredentials AuthReason = "invalid_credentials"
	ReasonUsernameTaken      AuthReason = "username_taken"
	ReasonRejected           AuthReason = "rejected"
)

// AuthResult is the structured outcome of Login or Register.
type AuthResult struct {
	OK       bool
	Username string
	Reason   AuthReason
	Message  string
}
