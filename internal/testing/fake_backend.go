package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/gorilla/mux"
)

// Route names recorded by [FakeBackend].
const (
	RouteRegister     = "register"
	RouteLogin        = "login"
	RouteLogout       = "logout"
	RouteMe           = "me"
	RouteListFetch    = "list.fetch"
	RouteListAdd      = "list.add"
	RouteListRemove   = "list.remove"
	RouteMirrorSearch = "mirror.search"
	RouteMirrorCreate = "mirror.create"
)

const sessionCookie = "JSESSIONID"

// RecordedRequest is one call received by [FakeBackend].
type RecordedRequest struct {
	Route    string
	Segment  string // movielist, showlist, movies or shows
	List     string
	Username string
	TmdbID   int64
	Body     map[string]any
}

type fakeRow struct {
	id     int64
	tmdbID int64
	media  models.MediaItem
}

// FakeBackend is an in-memory tracker backend for tests.
//
// It follows the real backend's contract: list adds are idempotent, removing an
// absent entry answers 200, unknown users get 404 with a {message} body, and
// sessions are carried by a JSESSIONID cookie.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	users    map[string]string
	sessions map[string]string
	lists    map[string][]fakeRow
	mirror   map[string][]models.MirrorEntry
	nextID   int64
	requests []RecordedRequest
	failures map[string][]failure
	hook     func(r RecordedRequest)
}

type failure struct {
	status int
	body   string
}

// NewFakeBackend starts a fake backend that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	f := &FakeBackend{
		users:    map[string]string{},
		sessions: map[string]string{},
		lists:    map[string][]fakeRow{},
		mirror:   map[string][]models.MirrorEntry{},
		failures: map[string][]failure{},
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/user/register", f.handle(RouteRegister, f.register)).Methods(http.MethodPost)
	api.HandleFunc("/user/login", f.handle(RouteLogin, f.login)).Methods(http.MethodPost)
	api.HandleFunc("/user/logout", f.handle(RouteLogout, f.logout)).Methods(http.MethodPost)
	api.HandleFunc("/user/me", f.handle(RouteMe, f.me)).Methods(http.MethodGet)

	const list = "/user/{segment:movielist|showlist}/{list:watchlist|favourites|watched}"
	api.HandleFunc(list, f.handle(RouteListFetch, f.fetchList)).Methods(http.MethodGet)
	api.HandleFunc(list+"/add", f.handle(RouteListAdd, f.addToList)).Methods(http.MethodPost)
	api.HandleFunc(list+"/remove", f.handle(RouteListRemove, f.removeFromList)).Methods(http.MethodPost)

	api.HandleFunc("/{segment:movies|shows}", f.handle(RouteMirrorSearch, f.searchMirror)).Methods(http.MethodGet)
	api.HandleFunc("/{segment:movies|shows}", f.handle(RouteMirrorCreate, f.createMirror)).Methods(http.MethodPost)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the fake's base URL.
func (f *FakeBackend) URL() string { return f.Server.URL }

// AddUser registers an account directly.
func (f *FakeBackend) AddUser(username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = password
}

// Seed appends entries to (username, kind, list) without recording a request.
func (f *FakeBackend) Seed(username string, kind models.MediaKind, list models.ListKind, entries ...models.ListEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := listKey(username, kind.ListPath(), string(list))
	for _, e := range entries {
		f.nextID++
		f.lists[key] = append(f.lists[key], fakeRow{id: f.nextID, tmdbID: e.TmdbID, media: e.Media})
	}
}

// Members returns the tmdb ids currently stored under (username, kind, list).
func (f *FakeBackend) Members(username string, kind models.MediaKind, list models.ListKind) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, row := range f.lists[listKey(username, kind.ListPath(), string(list))] {
		ids = append(ids, row.tmdbID)
	}
	return ids
}

// Fail makes the next call to route answer status with body instead of being handled.
func (f *FakeBackend) Fail(route string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[route] = append(f.failures[route], failure{status: status, body: body})
}

// Calls counts recorded requests for route.
func (f *FakeBackend) Calls(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Route == route {
			n++
		}
	}
	return n
}

// Requests returns a copy of every recorded request in arrival order.
func (f *FakeBackend) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// OnRequest installs fn to run before each request is handled. It runs outside the
// lock, so tests can delay or block individual calls.
func (f *FakeBackend) OnRequest(fn func(r RecordedRequest)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = fn
}

// Reset forgets recorded requests.
func (f *FakeBackend) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = nil
}

func (f *FakeBackend) handle(route string, next func(w http.ResponseWriter, r *http.Request, rec RecordedRequest)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		rec := RecordedRequest{Route: route, Segment: vars["segment"], List: vars["list"]}

		if r.Method == http.MethodPost && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&rec.Body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"message": "malformed body"})
				return
			}
		}
		rec.Username = r.URL.Query().Get("username")
		if u, ok := rec.Body["username"].(string); ok {
			rec.Username = u
		}
		if id, ok := rec.Body["tmdbId"].(float64); ok {
			rec.TmdbID = int64(id)
		}

		f.mu.Lock()
		hook := f.hook
		f.mu.Unlock()
		if hook != nil {
			hook(rec)
		}

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		if queued := f.failures[route]; len(queued) > 0 {
			f.failures[route] = queued[1:]
			f.mu.Unlock()
			w.WriteHeader(queued[0].status)
			w.Write([]byte(queued[0].body))
			return
		}
		f.mu.Unlock()

		next(w, r, rec)
	}
}

func (f *FakeBackend) register(w http.ResponseWriter, _ *http.Request, rec RecordedRequest) {
	password, _ := rec.Body["password"].(string)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.users[rec.Username]; taken {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Username already taken"})
		return
	}
	f.users[rec.Username] = password
	writeJSON(w, http.StatusOK, map[string]string{"message": "Registration successful", "username": rec.Username})
}

func (f *FakeBackend) login(w http.ResponseWriter, _ *http.Request, rec RecordedRequest) {
	password, _ := rec.Body["password"].(string)

	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.users[rec.Username]
	if !ok || stored != password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
		return
	}

	f.nextID++
	token := "session-" + strconv.FormatInt(f.nextID, 10)
	f.sessions[token] = rec.Username
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful", "username": rec.Username})
}

func (f *FakeBackend) logout(w http.ResponseWriter, r *http.Request, _ RecordedRequest) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		f.mu.Lock()
		delete(f.sessions, c.Value)
		f.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (f *FakeBackend) me(w http.ResponseWriter, r *http.Request, _ RecordedRequest) {
	c, err := r.Cookie(sessionCookie)
	if err == nil {
		f.mu.Lock()
		username, ok := f.sessions[c.Value]
		f.mu.Unlock()
		if ok {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "username": username})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
}

func (f *FakeBackend) fetchList(w http.ResponseWriter, _ *http.Request, rec RecordedRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[rec.Username]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}

	rows := []map[string]any{}
	for _, row := range f.lists[listKey(rec.Username, rec.Segment, rec.List)] {
		rows = append(rows, f.rowJSON(rec, row))
	}
	writeJSON(w, http.StatusOK, rows)
}

func (f *FakeBackend) addToList(w http.ResponseWriter, _ *http.Request, rec RecordedRequest) {
	var media models.MediaItem
	if data, err := json.Marshal(rec.Body); err == nil {
		json.Unmarshal(data, &media)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[rec.Username]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}

	key := listKey(rec.Username, rec.Segment, rec.List)
	for _, row := range f.lists[key] {
		if row.tmdbID == rec.TmdbID {
			writeJSON(w, http.StatusOK, f.rowJSON(rec, row))
			return
		}
	}

	f.nextID++
	row := fakeRow{id: f.nextID, tmdbID: rec.TmdbID, media: media}
	f.lists[key] = append(f.lists[key], row)
	writeJSON(w, http.StatusOK, f.rowJSON(rec, row))
}

func (f *FakeBackend) removeFromList(w http.ResponseWriter, _ *http.Request, rec RecordedRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[rec.Username]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}

	key := listKey(rec.Username, rec.Segment, rec.List)
	kept := f.lists[key][:0]
	for _, row := range f.lists[key] {
		if row.tmdbID != rec.TmdbID {
			kept = append(kept, row)
		}
	}
	f.lists[key] = kept

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "Has been removed from %s", rec.List)
}

func (f *FakeBackend) searchMirror(w http.ResponseWriter, r *http.Request, rec RecordedRequest) {
	title := r.URL.Query().Get("title")

	f.mu.Lock()
	defer f.mu.Unlock()
	found := []models.MirrorEntry{}
	for _, e := range f.mirror[rec.Segment] {
		if title == "" || e.Title == title {
			found = append(found, e)
		}
	}
	writeJSON(w, http.StatusOK, found)
}

func (f *FakeBackend) createMirror(w http.ResponseWriter, _ *http.Request, rec RecordedRequest) {
	var entry models.MirrorEntry
	if data, err := json.Marshal(rec.Body); err == nil {
		json.Unmarshal(data, &entry)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	entry.ID = f.nextID
	f.mirror[rec.Segment] = append(f.mirror[rec.Segment], entry)
	writeJSON(w, http.StatusOK, entry)
}

// rowJSON renders a membership the way the backend's list endpoints do.
func (f *FakeBackend) rowJSON(rec RecordedRequest, row fakeRow) map[string]any {
	field := "movie"
	if rec.Segment == "showlist" {
		field = "show"
	}
	return map[string]any{
		"id":   row.id,
		"user": map[string]string{"username": rec.Username},
		"type": rec.List,
		field:  models.MirrorEntry{ID: row.id, TmdbID: row.tmdbID, MediaItem: row.media},
	}
}

func listKey(username, segment, list string) string {
	return username + "|" + segment + "|" + list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
