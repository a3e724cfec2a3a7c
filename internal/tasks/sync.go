package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
)

// Synchronizer adds and removes list entries on behalf of the signed in user.
//
// Every mutation is gated on the session: without a username no backend call is made and
// the [Navigator] is asked to send the user to [LoginPath], carrying the originating path.
// The interrupted action is not replayed after login.
type Synchronizer struct {
	backend  services.Backend
	session  *Session
	nav      Navigator
	recorder Recorder
	imageURL func(string) string
	progress chan<- ProgressUpdate
	logger   *log.Logger
}

// SyncOption configures a [Synchronizer].
type SyncOption func(*Synchronizer)

// WithNavigator sets where the login redirect goes.
func WithNavigator(nav Navigator) SyncOption {
	return func(s *Synchronizer) { s.nav = nav }
}

// WithRecorder logs every attempt that reaches the backend.
func WithRecorder(r Recorder) SyncOption {
	return func(s *Synchronizer) { s.recorder = r }
}

// WithImageResolver sets how poster paths become absolute URLs at capture time.
func WithImageResolver(fn func(string) string) SyncOption {
	return func(s *Synchronizer) { s.imageURL = fn }
}

// WithProgress reports each mutation outcome on ch without blocking.
func WithProgress(ch chan<- ProgressUpdate) SyncOption {
	return func(s *Synchronizer) { s.progress = ch }
}

// WithSyncLogger sets the logger.
func WithSyncLogger(l *log.Logger) SyncOption {
	return func(s *Synchronizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSynchronizer creates a Synchronizer for session.
func NewSynchronizer(backend services.Backend, session *Session, opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{
		backend: backend,
		session: session,
		logger:  shared.WithLogger(shared.NewLogger(nil), "component", "sync"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session returns the session the Synchronizer acts for.
func (s *Synchronizer) Session() *Session { return s.session }

// Add captures item and stores it in list. An empty kind is derived from the item.
func (s *Synchronizer) Add(ctx context.Context, item models.CatalogItem, kind models.MediaKind, list models.ListKind, from string) MutationResult {
	if kind == "" {
		kind = item.Kind()
	}
	res := MutationResult{Op: models.OpAdd, List: list, Kind: kind, TmdbID: item.ID, Title: item.DisplayTitle()}

	username, ok := s.gate(&res, from)
	if !ok {
		return res
	}

	media := models.Capture(item, s.imageURL)
	res.Err = s.backend.AddToList(ctx, username, item.ID, list, kind, media)
	return s.finish(username, res)
}

// Remove deletes the entry keyed by tmdbID from list. Removing an absent entry succeeds.
func (s *Synchronizer) Remove(ctx context.Context, tmdbID int64, title string, kind models.MediaKind, list models.ListKind, from string) MutationResult {
	res := MutationResult{Op: models.OpRemove, List: list, Kind: kind, TmdbID: tmdbID, Title: title}

	username, ok := s.gate(&res, from)
	if !ok {
		return res
	}

	res.Err = s.backend.RemoveFromList(ctx, username, tmdbID, list, kind)
	return s.finish(username, res)
}

func (s *Synchronizer) gate(res *MutationResult, from string) (string, bool) {
	username := s.session.Username()
	if username != "" {
		return username, true
	}

	res.Redirected = true
	res.Err = notAuthenticated(res.Op)
	if s.nav != nil {
		s.nav.Redirect(LoginPath, from)
	}
	s.logger.Debug("mutation needs sign in", "op", res.Op, "from", from)
	return "", false
}

func (s *Synchronizer) finish(username string, res MutationResult) MutationResult {
	if res.Err != nil {
		s.logger.Warn("list mutation failed", "op", res.Op, "list", res.List, "kind", res.Kind, "id", res.TmdbID, "error", res.Err)
	} else {
		s.logger.Info("list mutated", "op", res.Op, "list", res.List, "kind", res.Kind, "id", res.TmdbID)
	}

	s.record(username, res)
	sendProgress(s.progress, mutationUpdate(res))
	return res
}

func (s *Synchronizer) record(username string, res MutationResult) {
	if s.recorder == nil {
		return
	}
	activity := models.NewActivity(username, res.Op, res.List, res.Kind, res.TmdbID, res.Title)
	activity.SetOutcome(res.Err)
	if err := s.recorder.Create(activity); err != nil {
		s.logger.Debug("failed to record activity", "error", err)
	}
}
