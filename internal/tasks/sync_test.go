package tasks

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"testing"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	tu "github.com/desertthunder/mtx/internal/testing"
)

func TestSynchronizer(t *testing.T) {
	ctx := context.Background()
	item := models.CatalogItem{ID: 42, Title: "X", ReleaseDate: "2020-02-02", GenreIDs: []int{18}, PosterPath: "/x.jpg"}

	t.Run("Unauthenticated Add Redirects From Search", func(t *testing.T) {
		h := newHarness(t)

		res := h.sync.Add(ctx, item, "", models.Watchlist, "/search")

		if !res.Redirected {
			t.Error("expected redirect")
		}
		if !errors.Is(res.Err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", res.Err)
		}
		redirects := h.nav.all()
		if len(redirects) != 1 || redirects[0] != (redirect{to: LoginPath, from: "/search"}) {
			t.Errorf("expected one redirect to /login from /search, got %+v", redirects)
		}
		for _, route := range []string{tu.RouteListAdd, tu.RouteListRemove, tu.RouteListFetch} {
			if n := h.fake.Calls(route); n != 0 {
				t.Errorf("expected zero %s calls, got %d", route, n)
			}
		}
	})

	t.Run("Unauthenticated Remove Redirects", func(t *testing.T) {
		h := newHarness(t)

		res := h.sync.Remove(ctx, 7, "Se7en", models.Movie, models.Favourites, "/favourites")

		if !res.Redirected || len(h.nav.all()) != 1 {
			t.Errorf("expected a redirect, got %+v", res)
		}
		if h.fake.Calls(tu.RouteListRemove) != 0 {
			t.Error("remove must not reach the backend")
		}
	})

	t.Run("No Navigator", func(t *testing.T) {
		h := newHarness(t)
		h.sync.nav = nil

		if res := h.sync.Add(ctx, item, "", models.Watchlist, "/"); !res.Redirected {
			t.Error("gate applies without a navigator")
		}
	})

	t.Run("Add Captures Item", func(t *testing.T) {
		h := newHarness(t, WithImageResolver(tu.NewStubCatalog().ImageURL))
		h.signIn(t)

		res := h.sync.Add(ctx, item, "", models.Watchlist, "/")
		if !res.OK() {
			t.Fatalf("expected success, got %v", res.Err)
		}

		reqs := h.fake.Requests()
		if len(reqs) != 1 || reqs[0].Route != tu.RouteListAdd {
			t.Fatalf("expected one add request, got %+v", reqs)
		}
		body := reqs[0].Body
		if body["username"] != testUser || body["tmdbId"] != float64(42) || body["type"] != "watchlist" {
			t.Errorf("unexpected payload keys %v", body)
		}
		if body["title"] != "X" || body["releaseYear"] != float64(2020) || body["genre"] != "18" {
			t.Errorf("unexpected captured media %v", body)
		}
		if body["imageUrl"] != "https://img.test/w300/x.jpg" {
			t.Errorf("expected resolved poster, got %v", body["imageUrl"])
		}
		if body["director"] != "" {
			t.Errorf("director is empty at capture time, got %v", body["director"])
		}
		if reqs[0].Segment != "movielist" {
			t.Errorf("expected movie endpoint, got %s", reqs[0].Segment)
		}
	})

	t.Run("Kind Dispatch", func(t *testing.T) {
		tests := []struct {
			name    string
			item    models.CatalogItem
			kind    models.MediaKind
			segment string
		}{
			{"tagged tv", models.CatalogItem{ID: 1, Title: "Odd", MediaType: "tv"}, "", "showlist"},
			{"title means movie", models.CatalogItem{ID: 2, Title: "Heat"}, "", "movielist"},
			{"name means show", models.CatalogItem{ID: 3, Name: "Dark"}, "", "showlist"},
			{"explicit kind wins", models.CatalogItem{ID: 4, Title: "Heat"}, models.Show, "showlist"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newHarness(t)
				h.signIn(t)

				res := h.sync.Add(ctx, tt.item, tt.kind, models.Favourites, "/")
				if res.Err != nil {
					t.Fatalf("expected no error, got %v", res.Err)
				}
				if reqs := h.fake.Requests(); reqs[0].Segment != tt.segment {
					t.Errorf("expected %s, got %s", tt.segment, reqs[0].Segment)
				}
			})
		}
	})

	t.Run("Add Then Remove", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)

		for _, list := range models.ListKinds {
			if res := h.sync.Add(ctx, item, models.Movie, list, "/"); res.Err != nil {
				t.Fatalf("add to %s failed: %v", list, res.Err)
			}
			if res := h.sync.Remove(ctx, item.ID, item.Title, models.Movie, list, "/"); res.Err != nil {
				t.Fatalf("remove from %s failed: %v", list, res.Err)
			}

			entries, err := h.backend.FetchList(ctx, testUser, list, models.Movie)
			if err != nil {
				t.Fatalf("fetch failed: %v", err)
			}
			if slices.Contains(tmdbIDs(entries), item.ID) {
				t.Errorf("%s still contains %d after remove", list, item.ID)
			}
		}
	})

	t.Run("Remove Absent Succeeds", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)

		if res := h.sync.Remove(ctx, 999, "Nope", models.Show, models.Watched, "/"); !res.OK() {
			t.Errorf("removing an absent entry should succeed, got %v", res.Err)
		}
	})

	t.Run("Backend Rejection Returned", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)
		h.fake.Fail(tu.RouteListAdd, http.StatusBadRequest, "Invalid media")

		res := h.sync.Add(ctx, item, "", models.Watchlist, "/")
		if res.Err == nil || !res.Rejected() {
			t.Fatalf("expected rejection, got %v", res.Err)
		}
		if res.Err.Error() != "Invalid media" {
			t.Errorf("expected body as message, got %q", res.Err.Error())
		}
	})

	t.Run("Recorder", func(t *testing.T) {
		recorder := &memoryRecorder{err: errors.New("db locked")}
		h := newHarness(t, WithRecorder(recorder))

		h.sync.Add(ctx, item, "", models.Watchlist, "/search")
		if len(recorder.activities) != 0 {
			t.Error("redirected attempts are not recorded")
		}

		h.signIn(t)
		h.fake.Fail(tu.RouteListRemove, http.StatusInternalServerError, "boom")
		ok := h.sync.Add(ctx, item, "", models.Watchlist, "/")
		failed := h.sync.Remove(ctx, item.ID, item.Title, models.Movie, models.Watchlist, "/")

		if !ok.OK() || failed.OK() {
			t.Fatalf("recorder errors must not affect results: %+v %+v", ok, failed)
		}
		if len(recorder.activities) != 2 {
			t.Fatalf("expected 2 recorded attempts, got %d", len(recorder.activities))
		}
		add, remove := recorder.activities[0], recorder.activities[1]
		if add.Op() != models.OpAdd || !add.OK() || add.Username() != testUser || add.TmdbID() != 42 {
			t.Errorf("unexpected add activity %+v", add)
		}
		if remove.Op() != models.OpRemove || remove.OK() || remove.ErrorText() != "boom" {
			t.Errorf("unexpected remove activity ok=%v err=%q", remove.OK(), remove.ErrorText())
		}
	})

	t.Run("Progress", func(t *testing.T) {
		ch := make(chan ProgressUpdate, 4)
		h := newHarness(t, WithProgress(ch))
		h.signIn(t)

		h.sync.Add(ctx, item, "", models.Watched, "/")
		update := <-ch
		if update.Phase != MutateList || update.Message != "Added X to Watched" {
			t.Errorf("unexpected update %+v", update)
		}
		if res, ok := update.Data.(MutationResult); !ok || res.TmdbID != 42 {
			t.Errorf("expected MutationResult data, got %#v", update.Data)
		}
	})
}
