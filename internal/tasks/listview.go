package tasks

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
)

// ListState is the lifecycle state of a [ListView].
type ListState int

const (
	Unauthenticated ListState = iota
	Loading
	Loaded
	Mutating
)

func (s ListState) String() string {
	switch s {
	case Unauthenticated:
		return "unauthenticated"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Mutating:
		return "mutating"
	default:
		return ""
	}
}

// ListSnapshot is a copy of a [ListView]'s state, safe to render.
type ListSnapshot struct {
	List     models.ListKind
	Filter   models.Filter
	State    ListState
	Entries  []models.ListEntry
	Mutating map[string]bool // keyed by [models.ListEntry.Key]
}

// ListView is the view model of one list page (watchlist, favourites or watched).
//
// The local membership set is never updated in place: after a mutation it is replaced by
// a fresh fetch for the current filter. Each load takes a generation token when issued
// and is applied only if the token is still current, so a slow response can't overwrite
// a newer one. Changing the filter or the signed in user orphans loads in flight.
type ListView struct {
	mu         sync.Mutex
	list       models.ListKind
	filter     models.Filter
	backend    services.Backend
	sync       *Synchronizer
	logger     *log.Logger
	state      ListState
	entries    []models.ListEntry
	mutating   map[string]bool
	generation uint64
	sessionGen uint64
}

// NewListView creates the view for list, sharing syncer's session.
func NewListView(list models.ListKind, backend services.Backend, syncer *Synchronizer, logger *log.Logger) *ListView {
	if logger == nil {
		logger = shared.WithLogger(shared.NewLogger(nil), "component", "list", "list", list)
	}
	return &ListView{
		list:     list,
		filter:   models.FilterAll,
		backend:  backend,
		sync:     syncer,
		logger:   logger,
		state:    Unauthenticated,
		entries:  []models.ListEntry{},
		mutating: map[string]bool{},
	}
}

// List is the list kind this view shows.
func (v *ListView) List() models.ListKind { return v.list }

// Filter returns the current filter.
func (v *ListView) Filter() models.Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// SetFilter changes the filter; the caller then loads. Reports whether it changed.
func (v *ListView) SetFilter(filter models.Filter) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if filter == "" || v.filter == filter {
		return false
	}
	v.filter = filter
	v.generation++
	return true
}

// Load fetches the membership set for the current user and filter.
//
// Signed out, the view shows an empty set and nothing is fetched. Fetch failures are
// logged and degrade to an empty set. Reports whether the result was applied.
func (v *ListView) Load(ctx context.Context) bool {
	session := v.sync.Session()
	username := session.Username()

	v.mu.Lock()
	v.generation++
	gen := v.generation
	filter := v.filter
	v.sessionGen = session.Generation()
	if username == "" {
		v.state = Unauthenticated
		v.entries = []models.ListEntry{}
		clear(v.mutating)
		v.mu.Unlock()
		return true
	}
	v.state = Loading
	v.mu.Unlock()

	entries, err := v.fetch(ctx, username, filter)
	if err != nil {
		v.logger.Warn("list fetch failed", "user", username, "filter", filter, "error", err)
	}
	if entries == nil {
		entries = []models.ListEntry{}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation || session.Generation() != v.sessionGen {
		v.logger.Debug("discarding stale list", "filter", filter)
		return false
	}
	v.entries = entries
	if len(v.mutating) > 0 {
		v.state = Mutating
	} else {
		v.state = Loaded
	}
	return true
}

// fetch gets every kind covered by filter, movies first. With filter All the two fetches
// run concurrently and either failure fails the whole load.
func (v *ListView) fetch(ctx context.Context, username string, filter models.Filter) ([]models.ListEntry, error) {
	parts, err := fanOut(filter.Kinds(), func(kind models.MediaKind) ([]models.ListEntry, error) {
		return v.backend.FetchList(ctx, username, v.list, kind)
	})
	if err != nil {
		return nil, err
	}
	return slices.Concat(parts...), nil
}

// Remove deletes entry from the list and reconciles with the server.
//
// While the call is in flight the entry is marked mutating and the rest of the list stays
// readable. A successful remove is followed by exactly one re-fetch. A definitive backend
// rejection is returned without a re-fetch. A transport failure leaves the outcome
// unknown, so the list is re-fetched to show what the server committed.
func (v *ListView) Remove(ctx context.Context, entry models.ListEntry, from string) MutationResult {
	key := entry.Key()
	if v.sync.Session().Authenticated() {
		v.mu.Lock()
		v.mutating[key] = true
		v.state = Mutating
		v.mu.Unlock()
	}

	kind := entry.Kind
	if kind == "" {
		kind = models.Movie
	}
	res := v.sync.Remove(ctx, entry.TmdbID, entry.Media.Title, kind, v.list, from)

	v.mu.Lock()
	delete(v.mutating, key)
	if v.state == Mutating && len(v.mutating) == 0 {
		v.state = Loaded
	}
	v.mu.Unlock()

	if res.Redirected || (res.Err != nil && res.Rejected()) {
		return res
	}
	v.Load(ctx)
	return res
}

// Stale reports whether the signed in user changed since the last load.
func (v *ListView) Stale() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.sessionGen != v.sync.Session().Generation()
}

// Snapshot copies the current state.
func (v *ListView) Snapshot() ListSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return ListSnapshot{
		List:     v.list,
		Filter:   v.filter,
		State:    v.state,
		Entries:  slices.Clone(v.entries),
		Mutating: maps.Clone(v.mutating),
	}
}
