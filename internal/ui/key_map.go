package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up         key.Binding
	down       key.Binding
	prevPage   key.Binding
	nextPage   key.Binding
	nextView   key.Binding
	prevView   key.Binding
	kind       key.Binding
	category   key.Binding
	window     key.Binding
	filter     key.Binding
	search     key.Binding
	watchlist  key.Binding
	favourite  key.Binding
	watched    key.Binding
	remove     key.Binding
	poster     key.Binding
	login      key.Binding
	logout     key.Binding
	reload     key.Binding
	submit     key.Binding
	back       key.Binding
	switchForm key.Binding
	quit       key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		prevPage:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev page")),
		nextPage:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next page")),
		nextView:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		prevView:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev view")),
		kind:       key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "movies/tv")),
		category:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "category")),
		window:     key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "day/week")),
		filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter")),
		search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		watchlist:  key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "+watchlist")),
		favourite:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "+favourite")),
		watched:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "+seen")),
		remove:     key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "remove")),
		poster:     key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "poster")),
		login:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "sign in")),
		logout:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "sign out")),
		reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		submit:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		switchForm: key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "sign in/register")),
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// forView returns the short help bindings relevant to view.
func (k keyMap) forView(view ViewState, searching bool) []key.Binding {
	switch view {
	case BrowseView:
		return []key.Binding{k.prevPage, k.nextPage, k.kind, k.category, k.window, k.watchlist, k.favourite, k.watched, k.poster, k.nextView, k.quit}
	case SearchView:
		if searching {
			return []key.Binding{k.submit, k.back}
		}
		return []key.Binding{k.search, k.filter, k.prevPage, k.nextPage, k.watchlist, k.favourite, k.watched, k.poster, k.nextView, k.quit}
	case WatchlistView, FavouritesView, WatchedView:
		return []key.Binding{k.filter, k.remove, k.poster, k.reload, k.login, k.logout, k.nextView, k.quit}
	case LoginView, RegisterView:
		return []key.Binding{k.submit, k.switchForm, k.back}
	}
	return []key.Binding{k.quit}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.nextView, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.prevPage, k.nextPage},
		{k.kind, k.category, k.window, k.filter, k.search},
		{k.watchlist, k.favourite, k.watched, k.remove, k.poster},
		{k.login, k.logout, k.reload, k.nextView, k.quit},
	}
}
