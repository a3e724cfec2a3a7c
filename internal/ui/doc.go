// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the routes of the tracker:
//  1. [BrowseView] : trending, popular and top rated listings with paging
//  2. [SearchView] : catalog search across movies and TV shows
//  3. [WatchlistView], [FavouritesView], [WatchedView] : the signed in user's lists
//  4. [LoginView], [RegisterView] : account forms
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Fetching and list mutations run as commands against the view models in internal/tasks; their
// generation guards make sure a late answer never overwrites a newer one.
//
// Adding to a list while signed out redirects to the sign in form, which returns to the
// originating view once the user has signed in. The attempted add is not replayed.
package ui
