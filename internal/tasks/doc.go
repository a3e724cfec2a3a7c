// Package tasks keeps list membership in step with the tracker backend.
//
// # Session
//
// [Session] replaces a global "current username". [Session.Init] derives the user from
// the backend's "who am I" check, [Session.Login] and [Session.Register] validate locally
// before calling the backend, and [Session.Logout] always clears local state. An optional
// [SessionStore] persists the user between runs.
//
// # Synchronizer
//
// [Synchronizer.Add] and [Synchronizer.Remove] perform one mutation scoped to exactly one
// (username, media kind, list kind). Without a signed in user no call is made; the
// [Navigator] is sent to [LoginPath] with the originating path and the action is not
// replayed after login. Each call returns a [MutationResult] so views can choose whether
// to surface a failure. Attempts that reach the backend are offered to a [Recorder].
//
// # Views
//
// [ListView] is the one view model behind every list page. Its states are
// Unauthenticated, Loading, Loaded and Mutating. Filter All fetches movies and shows
// concurrently and concatenates movies then shows. After a mutation the local set is
// replaced by a re-fetch:
//   - success : exactly one re-fetch
//   - transport failure : re-fetch to reconcile with whatever the server committed
//   - backend rejection : no re-fetch, error returned
//
// [CategoryView] and [SearchView] page through the catalog with a clamped [Pager].
// Every view stamps each load with a generation token and drops results whose token is
// no longer current, so superseded responses never overwrite newer state.
//
// # Export
//
// [Export] writes all lists of the signed in user to disk with a rate limited fetcher,
// a small pool of writers and a manifest. Progress is reported through non-blocking
// [ProgressUpdate] channels.
package tasks
