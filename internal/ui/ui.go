package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	BrowseView ViewState = iota
	SearchView
	WatchlistView
	FavouritesView
	WatchedView
	LoginView
	RegisterView
)

var mainViews = []ViewState{BrowseView, SearchView, WatchlistView, FavouritesView, WatchedView}

// Path is the route of the view, used as the origin of sign in redirects.
func (v ViewState) Path() string {
	switch v {
	case SearchView:
		return "/search"
	case WatchlistView:
		return models.Watchlist.Path()
	case FavouritesView:
		return models.Favourites.Path()
	case WatchedView:
		return models.Watched.Path()
	case LoginView:
		return tasks.LoginPath
	case RegisterView:
		return "/register"
	default:
		return "/"
	}
}

func (v ViewState) Label() string {
	switch v {
	case SearchView:
		return "Search"
	case WatchlistView, FavouritesView, WatchedView:
		list, _ := v.list()
		return list.Label()
	case LoginView:
		return "Sign in"
	case RegisterView:
		return "Register"
	default:
		return "Browse"
	}
}

func (v ViewState) list() (models.ListKind, bool) {
	switch v {
	case WatchlistView:
		return models.Watchlist, true
	case FavouritesView:
		return models.Favourites, true
	case WatchedView:
		return models.Watched, true
	}
	return "", false
}

// ViewForPath maps a route back to its view. Unknown paths land on the browser.
func ViewForPath(path string) ViewState {
	for _, v := range slices.Concat(mainViews, []ViewState{LoginView, RegisterView}) {
		if v.Path() == path {
			return v
		}
	}
	return BrowseView
}

// Deps carries the services the TUI drives.
type Deps struct {
	Catalog  services.Catalog
	Backend  services.Backend
	Session  *tasks.Session
	Recorder tasks.Recorder
	Logger   *log.Logger
	Start    string // initial view path; "/" when empty
}

// programNavigator turns sign in redirects into messages for the running program.
type programNavigator struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (n *programNavigator) attach(send func(tea.Msg)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.send = send
}

func (n *programNavigator) Redirect(to, from string) {
	n.mu.Lock()
	send := n.send
	n.mu.Unlock()
	if send != nil {
		send(redirectMsg(to, from))
	}
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	returnTo  ViewState
	catalog   services.Catalog
	session   *tasks.Session
	sync      *tasks.Synchronizer
	nav       *programNavigator
	browse    *tasks.CategoryView
	search    *tasks.SearchView
	lists     map[models.ListKind]*tasks.ListView
	items     list.Model
	query     textinput.Model
	searching bool
	form      authForm
	status    string
	statusErr bool
	openURL   func(string) error
	width     int
	height    int
	help      help.Model
	keys      keyMap
	logger    *log.Logger
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	component := func(name string) *log.Logger { return shared.WithLogger(logger, "component", name) }

	nav := &programNavigator{}
	opts := []tasks.SyncOption{
		tasks.WithNavigator(nav),
		tasks.WithImageResolver(deps.Catalog.ImageURL),
		tasks.WithSyncLogger(component("sync")),
	}
	if deps.Recorder != nil {
		opts = append(opts, tasks.WithRecorder(deps.Recorder))
	}
	syncer := tasks.NewSynchronizer(deps.Backend, deps.Session, opts...)

	lists := make(map[models.ListKind]*tasks.ListView, len(models.ListKinds))
	for _, kind := range models.ListKinds {
		lists[kind] = tasks.NewListView(kind, deps.Backend, syncer, component("lists"))
	}

	items := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	items.SetFilteringEnabled(false)
	items.SetShowHelp(false)
	items.DisableQuitKeybindings()

	query := newTextInput("Search movies and TV shows", 100)
	query.Prompt = "/ "

	m := &Model{
		ctx:      ctx,
		catalog:  deps.Catalog,
		session:  deps.Session,
		sync:     syncer,
		nav:      nav,
		browse:   tasks.NewCategoryView(deps.Catalog, models.Movie, models.Trending, component("browse")),
		search:   tasks.NewSearchView(deps.Catalog, models.FilterAll, component("search")),
		lists:    lists,
		items:    items,
		query:    query,
		openURL:  shared.OpenBrowser,
		help:     help.New(),
		keys:     newKeyMap(),
		logger:   component("ui"),
		returnTo: BrowseView,
	}

	start := ViewForPath(deps.Start)
	if start == LoginView || start == RegisterView {
		m.openForm(start)
	} else {
		m.view = start
	}
	m.refreshItems()
	return m
}

// Run starts the TUI and blocks until the user quits or ctx is canceled.
func Run(ctx context.Context, deps Deps) error {
	m := NewModel(ctx, deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.nav.attach(p.Send)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init checks the stored session and loads the starting view.
func (m *Model) Init() tea.Cmd {
	session, ctx := m.session, m.ctx
	check := func() tea.Msg { return sessionCheckedMsg(session.Init(ctx)) }
	return tea.Batch(check, m.load(m.view))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.items.SetSize(msg.Width-4, max(msg.Height-8, 4))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChecked:
		if err := asError(msg.data); err != nil {
			m.logger.Warn("session check failed", "error", err)
			m.setStatus(fmt.Sprintf("Could not check session: %v", err), true)
		}
		if lv, ok := m.listView(m.view); ok && lv.Stale() {
			return m, m.load(m.view)
		}

	case MsgLoaded:
		if l := msg.data.(loaded); l.applied && l.view == m.view {
			m.refreshItems()
		}

	case MsgMutated:
		res := msg.data.(tasks.MutationResult)
		m.setStatus(res.Message(), !res.OK())
		if _, ok := m.view.list(); ok {
			m.refreshItems()
		}

	case MsgAuthDone:
		done := msg.data.(authDone)
		m.form.pending = false
		switch {
		case done.err != nil && errors.Is(done.err, shared.ErrInvalidInput):
			m.form.err = shared.ValidationMessage(done.err)
		case done.err != nil:
			m.form.err = done.err.Error()
		case !done.res.OK:
			m.form.err = done.res.Message
			if m.form.err == "" {
				m.form.err = "Request failed."
			}
		default:
			m.setStatus("Signed in as "+done.res.Username, false)
			return m, m.switchTo(m.returnTo)
		}

	case MsgLoggedOut:
		if err := asError(msg.data); err != nil {
			m.setStatus(fmt.Sprintf("Signed out locally (%v)", err), true)
		} else {
			m.setStatus("Signed out", false)
		}
		if _, ok := m.view.list(); ok {
			return m, m.load(m.view)
		}

	case MsgRedirect:
		r := msg.data.(redirect)
		m.returnTo = ViewForPath(r.from)
		m.openForm(ViewForPath(r.to))

	case MsgPosterOpened:
		if err := asError(msg.data); err != nil {
			m.logger.Warn("failed to open poster", "error", err)
			m.setStatus(err.Error(), true)
		}
	}

	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch {
	case m.view == LoginView || m.view == RegisterView:
		return m.handleFormKeys(msg)
	case m.searching:
		return m.handleQueryKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.nextView):
		return m, m.switchTo(m.cycle(1))
	case key.Matches(msg, m.keys.prevView):
		return m, m.switchTo(m.cycle(-1))
	case key.Matches(msg, m.keys.login):
		m.returnTo = m.view
		m.openForm(LoginView)
		return m, nil
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.reload):
		return m, m.load(m.view)
	case key.Matches(msg, m.keys.poster):
		return m, m.openPoster()
	case key.Matches(msg, m.keys.up, m.keys.down):
		var cmd tea.Cmd
		m.items, cmd = m.items.Update(msg)
		return m, cmd
	}

	switch m.view {
	case BrowseView:
		return m, m.handleBrowseKeys(msg)
	case SearchView:
		return m, m.handleSearchKeys(msg)
	default:
		return m, m.handleListKeys(msg)
	}
}

func (m *Model) handleBrowseKeys(msg tea.KeyMsg) tea.Cmd {
	snap := m.browse.Snapshot()
	changed := false

	switch {
	case key.Matches(msg, m.keys.prevPage):
		changed = m.browse.Prev()
	case key.Matches(msg, m.keys.nextPage):
		changed = m.browse.Next()
	case key.Matches(msg, m.keys.kind):
		next := models.Show
		if snap.Kind == models.Show {
			next = models.Movie
		}
		changed = m.browse.SetKind(next)
	case key.Matches(msg, m.keys.category):
		changed = m.browse.SetCategory(snap.Category.Next())
	case key.Matches(msg, m.keys.window):
		if snap.Category == models.Trending {
			next := models.Day
			if snap.Window == models.Day {
				next = models.Week
			}
			changed = m.browse.SetWindow(next)
		}
	default:
		return m.handleAddKeys(msg)
	}

	if !changed {
		return nil
	}
	m.items.ResetSelected()
	return m.load(BrowseView)
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	changed := false

	switch {
	case key.Matches(msg, m.keys.search):
		m.searching = true
		return m.query.Focus()
	case key.Matches(msg, m.keys.filter):
		changed = m.search.SetFilter(m.search.Snapshot().Filter.Next())
	case key.Matches(msg, m.keys.prevPage):
		changed = m.search.Prev()
	case key.Matches(msg, m.keys.nextPage):
		changed = m.search.Next()
	default:
		return m.handleAddKeys(msg)
	}

	if !changed {
		return nil
	}
	m.items.ResetSelected()
	return m.load(SearchView)
}

func (m *Model) handleQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.query.Blur()
		m.search.SetQuery(m.query.Value())
		m.items.ResetSelected()
		return m, m.load(SearchView)
	case tea.KeyEsc:
		m.searching = false
		m.query.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	return m, cmd
}

func (m *Model) handleListKeys(msg tea.KeyMsg) tea.Cmd {
	lv, ok := m.listView(m.view)
	if !ok {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.filter):
		if lv.SetFilter(lv.Filter().Next()) {
			m.items.ResetSelected()
			return m.load(m.view)
		}
	case key.Matches(msg, m.keys.remove):
		selected, ok := m.items.SelectedItem().(entryItem)
		if !ok {
			return nil
		}
		m.setStatus(fmt.Sprintf("Removing %s...", selected.entry.Media.Title), false)
		ctx, from := m.ctx, m.view.Path()
		return func() tea.Msg { return mutatedMsg(lv.Remove(ctx, selected.entry, from)) }
	}
	return nil
}

func (m *Model) handleAddKeys(msg tea.KeyMsg) tea.Cmd {
	var target models.ListKind
	switch {
	case key.Matches(msg, m.keys.watchlist):
		target = models.Watchlist
	case key.Matches(msg, m.keys.favourite):
		target = models.Favourites
	case key.Matches(msg, m.keys.watched):
		target = models.Watched
	default:
		return nil
	}

	selected, ok := m.items.SelectedItem().(catalogItem)
	if !ok {
		return nil
	}

	syncer, ctx, from := m.sync, m.ctx, m.view.Path()
	return func() tea.Msg {
		return mutatedMsg(syncer.Add(ctx, selected.item, selected.kind, target, from))
	}
}

func (m *Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, m.switchTo(m.returnTo)
	case tea.KeyCtrlR:
		if m.view == LoginView {
			m.openForm(RegisterView)
		} else {
			m.openForm(LoginView)
		}
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.form.move(1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.form.move(-1)
		return m, nil
	case tea.KeyEnter:
		if !m.form.onLast() {
			m.form.move(1)
			return m, nil
		}
		return m, m.submitForm()
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m *Model) submitForm() tea.Cmd {
	if m.form.pending {
		return nil
	}
	username, password, confirm := m.form.values()
	m.form.err = ""
	m.form.pending = true

	session, ctx, register := m.session, m.ctx, m.form.register
	return func() tea.Msg {
		if register {
			return authDoneMsg(session.Register(ctx, username, password, confirm))
		}
		return authDoneMsg(session.Login(ctx, username, password))
	}
}

func (m *Model) logout() tea.Cmd {
	session, ctx := m.session, m.ctx
	return func() tea.Msg { return loggedOutMsg(session.Logout(ctx)) }
}

func (m *Model) openPoster() tea.Cmd {
	var url string
	switch selected := m.items.SelectedItem().(type) {
	case catalogItem:
		url = m.catalog.ImageURL(selected.item.PosterPath)
	case entryItem:
		url = selected.entry.Media.ImageURL
	}
	if url == "" {
		m.setStatus("No poster available", true)
		return nil
	}

	open := m.openURL
	return func() tea.Msg { return posterOpenedMsg(open(url)) }
}

// switchTo shows view and loads its content. Form views are opened empty.
func (m *Model) switchTo(view ViewState) tea.Cmd {
	if view == LoginView || view == RegisterView {
		m.openForm(view)
		return nil
	}

	m.view = view
	m.searching = false
	m.items.ResetSelected()
	m.refreshItems()
	return m.load(view)
}

func (m *Model) openForm(view ViewState) {
	if m.returnTo == LoginView || m.returnTo == RegisterView {
		m.returnTo = BrowseView
	}
	m.view = view
	m.form = newAuthForm(view == RegisterView)
}

// cycle returns the main view delta steps away from the current one.
func (m *Model) cycle(delta int) ViewState {
	for i, v := range mainViews {
		if v == m.view {
			return mainViews[(i+delta+len(mainViews))%len(mainViews)]
		}
	}
	return BrowseView
}

func (m *Model) listView(view ViewState) (*tasks.ListView, bool) {
	kind, ok := view.list()
	if !ok {
		return nil, false
	}
	return m.lists[kind], true
}

// load issues the fetch for view. The result is reported by a [MsgLoaded].
func (m *Model) load(view ViewState) tea.Cmd {
	ctx := m.ctx
	switch view {
	case BrowseView:
		v := m.browse
		return func() tea.Msg { return loadedMsg(view, v.Load(ctx)) }
	case SearchView:
		v := m.search
		return func() tea.Msg { return loadedMsg(view, v.Load(ctx)) }
	}

	if lv, ok := m.listView(view); ok {
		return func() tea.Msg { return loadedMsg(view, lv.Load(ctx)) }
	}
	return nil
}

// refreshItems rebuilds the visible list from the current view's snapshot, keeping the cursor in range.
func (m *Model) refreshItems() {
	var items []list.Item

	switch m.view {
	case BrowseView:
		snap := m.browse.Snapshot()
		items = catalogItems(snap.Results, snap.Kind)
		m.items.Title = browseTitle(snap)
	case SearchView:
		snap := m.search.Snapshot()
		items = catalogItems(snap.Results, "")
		m.items.Title = fmt.Sprintf("Results for %q · %s · page %d/%d", snap.Query, snap.Filter, snap.Page, max(snap.TotalPages, 1))
	default:
		lv, ok := m.listView(m.view)
		if !ok {
			return
		}
		snap := lv.Snapshot()
		items = entryItems(snap.Entries, snap.Mutating)
		m.items.Title = fmt.Sprintf("%s · %s", snap.List.Label(), snap.Filter)
	}

	idx := m.items.Index()
	m.items.SetItems(items)
	m.items.Select(min(idx, max(len(items)-1, 0)))
}

func browseTitle(snap tasks.BrowseSnapshot) string {
	title := fmt.Sprintf("%s %s", snap.Category.Label(), snap.Kind.Label())
	if snap.Category == models.Trending {
		title = fmt.Sprintf("%s (%s)", title, snap.Window)
	}
	return fmt.Sprintf("%s · page %d/%d", title, snap.Page, snap.TotalPages)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch m.view {
	case LoginView, RegisterView:
		body = m.form.view()
	case SearchView:
		body = m.query.View() + "\n\n" + m.renderItems()
	default:
		body = m.renderItems()
	}

	var status string
	if m.status != "" {
		style := styles.ok
		if m.statusErr {
			style = styles.err
		}
		status = style.Render(m.status)
	}

	helpView := m.help.ShortHelpView(m.keys.forView(m.view, m.searching))
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), "", body, "", status, helpView)
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(mainViews)+1)
	for _, v := range mainViews {
		style := styles.tab
		if v == m.view {
			style = styles.active
		}
		tabs = append(tabs, style.Render(v.Label()))
	}

	user := styles.help.Render("not signed in")
	if name := m.session.Username(); name != "" {
		user = styles.ok.Render("● " + name)
	}
	tabs = append(tabs, "  "+user)
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderItems() string {
	switch m.view {
	case BrowseView:
		if snap := m.browse.Snapshot(); snap.Loading && len(m.items.Items()) == 0 {
			return styles.help.Render("Loading...")
		}
	case SearchView:
		snap := m.search.Snapshot()
		switch {
		case snap.Loading:
			return styles.help.Render("Searching...")
		case strings.TrimSpace(snap.Query) == "":
			return styles.help.Render("Press / to search the catalog.")
		case len(snap.Results) == 0:
			return styles.warn.Render("No results.")
		}
	default:
		lv, ok := m.listView(m.view)
		if !ok {
			return ""
		}
		snap := lv.Snapshot()
		switch {
		case snap.State == tasks.Unauthenticated:
			return styles.warn.Render(fmt.Sprintf("Sign in to see your %s. Press i to sign in.", strings.ToLower(snap.List.Label())))
		case snap.State == tasks.Loading && len(snap.Entries) == 0:
			return styles.help.Render("Loading...")
		case len(snap.Entries) == 0:
			return styles.help.Render(fmt.Sprintf("Your %s is empty.", strings.ToLower(snap.List.Label())))
		}
	}
	return m.items.View()
}
