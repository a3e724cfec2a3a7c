package repositories

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// every pooled connection to :memory: would be a separate database
	db.SetMaxOpenConns(1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func newActivity(username string, op models.Operation, list models.ListKind, tmdbID int64, err error) *models.Activity {
	a := models.NewActivity(username, op, list, models.Movie, tmdbID, "Heat")
	a.SetOutcome(err)
	return a
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "activities")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	for _, table := range []string{"missing", "activities; DROP TABLE sessions"} {
		if _, err := NextSequence(db, table); err == nil {
			t.Errorf("expected error for sequence table %q", table)
		}
	}
}

func TestActivityRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))
		activity := newActivity("moviebuff1", models.OpAdd, models.Watchlist, 949, nil)

		if err := repo.Create(activity); err != nil {
			t.Fatalf("failed to create activity: %v", err)
		}
		if activity.ID() == "" || activity.Sequence() != 1 {
			t.Errorf("expected id and sequence 1, got %q / %d", activity.ID(), activity.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))
		activity := newActivity("moviebuff1", models.OpRemove, models.Favourites, 7, errors.New("Not your list"))
		if err := repo.Create(activity); err != nil {
			t.Fatal(err)
		}

		got, err := repo.Get(activity.ID())
		if err != nil {
			t.Fatalf("failed to get activity: %v", err)
		}
		if got.Op() != models.OpRemove || got.List() != models.Favourites || got.Kind() != models.Movie || got.TmdbID() != 7 {
			t.Errorf("unexpected activity %+v", got)
		}
		if got.OK() || got.ErrorText() != "Not your list" {
			t.Errorf("expected failed outcome, got ok=%v err=%q", got.OK(), got.ErrorText())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))
		activity := newActivity("moviebuff1", models.OpAdd, models.Watched, 1, errors.New("timeout"))
		if err := repo.Create(activity); err != nil {
			t.Fatal(err)
		}

		activity.SetOutcome(nil)
		if err := repo.Update(activity); err != nil {
			t.Fatalf("failed to update activity: %v", err)
		}

		got, _ := repo.Get(activity.ID())
		if !got.OK() || got.ErrorText() != "" {
			t.Errorf("expected updated outcome, got ok=%v err=%q", got.OK(), got.ErrorText())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))
		activity := newActivity("moviebuff1", models.OpAdd, models.Watched, 1, nil)
		if err := repo.Create(activity); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(activity.ID()); err != nil {
			t.Fatalf("failed to delete activity: %v", err)
		}
		if _, err := repo.Get(activity.ID()); err == nil {
			t.Error("deleted activity should not be returned")
		}
		if err := repo.Delete(activity.ID()); err == nil {
			t.Error("expected error deleting twice")
		}
	})

	t.Run("List", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))
		for i, a := range []*models.Activity{
			newActivity("moviebuff1", models.OpAdd, models.Watchlist, 1, nil),
			newActivity("someone2", models.OpAdd, models.Watchlist, 2, nil),
			newActivity("moviebuff1", models.OpAdd, models.Favourites, 3, errors.New("boom")),
			newActivity("moviebuff1", models.OpRemove, models.Watchlist, 1, nil),
		} {
			if err := repo.Create(a); err != nil {
				t.Fatalf("failed to create activity %d: %v", i, err)
			}
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     []int
		}{
			{"all newest first", nil, []int{4, 3, 2, 1}},
			{"by username", map[string]any{"username": "moviebuff1"}, []int{4, 3, 1}},
			{"by list", map[string]any{"list": models.Watchlist}, []int{4, 2, 1}},
			{"failures", map[string]any{"ok": false}, []int{3}},
			{"limit", map[string]any{"username": "moviebuff1", "limit": 2}, []int{4, 3}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("List failed: %v", err)
				}
				if len(got) != len(tt.want) {
					t.Fatalf("expected %d activities, got %d", len(tt.want), len(got))
				}
				for i, a := range got {
					if a.Sequence() != tt.want[i] {
						t.Errorf("position %d: expected sequence %d, got %d", i, tt.want[i], a.Sequence())
					}
				}
			})
		}

		recent, err := repo.Recent("someone2", 0)
		if err != nil || len(recent) != 1 {
			t.Errorf("expected one recent activity, got %d (%v)", len(recent), err)
		}
	})

	t.Run("Prune", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))
		old := newActivity("moviebuff1", models.OpAdd, models.Watchlist, 1, nil)
		old.SetCreatedAt(time.Now().Add(-48 * time.Hour))
		fresh := newActivity("moviebuff1", models.OpAdd, models.Watchlist, 2, nil)
		for _, a := range []*models.Activity{old, fresh} {
			if err := repo.Create(a); err != nil {
				t.Fatal(err)
			}
		}

		n, err := repo.Prune(time.Now().Add(-24 * time.Hour))
		if err != nil {
			t.Fatalf("Prune failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 pruned, got %d", n)
		}
		left, _ := repo.List(nil)
		if len(left) != 1 || left[0].TmdbID() != 2 {
			t.Errorf("expected only the fresh activity, got %d", len(left))
		}
	})
}

func TestActivityRepositoryErrors(t *testing.T) {
	t.Run("Validation", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))

		tests := []struct {
			name     string
			activity *models.Activity
		}{
			{"no username", models.NewActivity("", models.OpAdd, models.Watchlist, models.Movie, 1, "")},
			{"bad list", models.NewActivity("u", models.OpAdd, "wishlist", models.Movie, 1, "")},
			{"bad kind", models.NewActivity("u", models.OpAdd, models.Watchlist, "anime", 1, "")},
			{"bad op", models.NewActivity("u", "rename", models.Watchlist, models.Movie, 1, "")},
			{"zero id", models.NewActivity("u", models.OpAdd, models.Watchlist, models.Movie, 0, "")},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := repo.Create(tt.activity); err == nil {
					t.Error("expected validation error")
				}
			})
		}

		if all, _ := repo.List(nil); len(all) != 0 {
			t.Errorf("invalid activities must not be stored, got %d", len(all))
		}
	})

	t.Run("Get NotFound", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))
		if _, err := repo.Get("nonexistent-id"); err == nil {
			t.Fatal("expected error when getting nonexistent activity")
		}
	})

	t.Run("Update NotFound", func(t *testing.T) {
		repo := NewActivityRepository(setupTestDB(t))
		a := newActivity("moviebuff1", models.OpAdd, models.Watchlist, 1, nil)
		a.SetID("nonexistent-id")
		if err := repo.Update(a); err == nil {
			t.Fatal("expected error when updating nonexistent activity")
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewActivityRepository(db)
		db.Close()

		if err := repo.Create(newActivity("moviebuff1", models.OpAdd, models.Watchlist, 1, nil)); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error on closed database")
		}
	})
}

func TestSessionRepository(t *testing.T) {
	const backend = "http://localhost:8080"

	t.Run("Upsert Creates Then Updates", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		first := models.NewSessionRecord(backend)
		first.SetUsername("moviebuff1")
		if err := repo.Upsert(first); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		second := models.NewSessionRecord(backend)
		second.SetReturnPath("/watched")
		if err := repo.Upsert(second); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}

		if second.ID() != first.ID() {
			t.Error("upsert should reuse the row for the same backend")
		}
		all, err := repo.List(nil)
		if err != nil || len(all) != 1 {
			t.Fatalf("expected one session, got %d (%v)", len(all), err)
		}
		if all[0].Username() != "" || all[0].ReturnPath() != "/watched" || all[0].Cookies() != "[]" {
			t.Errorf("unexpected stored session %+v", all[0])
		}
	})

	t.Run("GetByBackend Unknown", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))

		got, err := repo.GetByBackend("http://nowhere")
		if err != nil || got != nil {
			t.Errorf("expected (nil, nil), got (%v, %v)", got, err)
		}
	})

	t.Run("List Signed In", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		for url, user := range map[string]string{"http://a": "alice1", "http://b": ""} {
			s := models.NewSessionRecord(url)
			s.SetUsername(user)
			if err := repo.Create(s); err != nil {
				t.Fatal(err)
			}
		}

		got, err := repo.List(map[string]any{"signed_in": true})
		if err != nil || len(got) != 1 || got[0].BackendURL() != "http://a" {
			t.Errorf("expected only the signed in session, got %v (%v)", got, err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		s := models.NewSessionRecord(backend)
		if err := repo.Create(s); err != nil {
			t.Fatal(err)
		}

		if err := repo.Delete(s.ID()); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.Get(s.ID()); err == nil {
			t.Error("expected not found after delete")
		}
	})

	t.Run("Requires Backend URL", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Create(models.NewSessionRecord("")); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Duplicate Backend", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t))
		if err := repo.Create(models.NewSessionRecord(backend)); err != nil {
			t.Fatal(err)
		}
		if err := repo.Create(models.NewSessionRecord(backend)); err == nil {
			t.Error("expected unique constraint error")
		}
	})
}

type fakeCookieSource struct {
	base    string
	cookies []*http.Cookie
}

func (f *fakeCookieSource) BaseURL() string                   { return f.base }
func (f *fakeCookieSource) Cookies() []*http.Cookie           { return f.cookies }
func (f *fakeCookieSource) SetCookies(cookies []*http.Cookie) { f.cookies = cookies }

func TestSessionStoreAdapter(t *testing.T) {
	ctx := context.Background()

	t.Run("Restore Without Record", func(t *testing.T) {
		source := &fakeCookieSource{base: "http://tracker.test"}
		username, err := NewSessionStoreAdapter(NewSessionRepository(setupTestDB(t)), source).Restore()
		if err != nil || username != "" {
			t.Errorf("expected nobody signed in and no error, got %q %v", username, err)
		}
		if len(source.cookies) != 0 {
			t.Errorf("expected no cookies restored, got %v", source.cookies)
		}
	})

	t.Run("Save Then Restore", func(t *testing.T) {
		db := setupTestDB(t)
		source := &fakeCookieSource{base: "http://localhost:8080", cookies: []*http.Cookie{{Name: "connect.sid", Value: "abc"}}}
		store := NewSessionStoreAdapter(NewSessionRepository(db), source)

		if err := store.SaveSession(ctx, "moviebuff1"); err != nil {
			t.Fatalf("SaveSession failed: %v", err)
		}

		next := &fakeCookieSource{base: source.base}
		username, err := NewSessionStoreAdapter(NewSessionRepository(db), next).Restore()
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if username != "moviebuff1" {
			t.Errorf("expected moviebuff1, got %q", username)
		}
		if len(next.cookies) != 1 || next.cookies[0].Name != "connect.sid" || next.cookies[0].Value != "abc" {
			t.Errorf("expected restored cookie, got %+v", next.cookies)
		}
	})

	t.Run("Restore Unknown Backend", func(t *testing.T) {
		source := &fakeCookieSource{base: "http://localhost:9999"}
		username, err := NewSessionStoreAdapter(NewSessionRepository(setupTestDB(t)), source).Restore()
		if err != nil || username != "" || source.cookies != nil {
			t.Errorf("expected nothing restored, got %q %v %v", username, source.cookies, err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		source := &fakeCookieSource{base: "http://localhost:8080", cookies: []*http.Cookie{{Name: "sid", Value: "x"}}}
		store := NewSessionStoreAdapter(NewSessionRepository(setupTestDB(t)), source)
		if err := store.SaveSession(ctx, "moviebuff1"); err != nil {
			t.Fatal(err)
		}

		if err := store.ClearSession(ctx); err != nil {
			t.Fatalf("ClearSession failed: %v", err)
		}
		source.cookies = nil
		username, err := store.Restore()
		if err != nil || username != "" || len(source.cookies) != 0 {
			t.Errorf("expected cleared session, got %q %v %v", username, source.cookies, err)
		}
	})

	t.Run("Return Path", func(t *testing.T) {
		source := &fakeCookieSource{base: "http://localhost:8080"}
		store := NewSessionStoreAdapter(NewSessionRepository(setupTestDB(t)), source)

		if err := store.SetReturnPath("/favourites"); err != nil {
			t.Fatalf("SetReturnPath failed: %v", err)
		}
		if err := store.SaveSession(ctx, "moviebuff1"); err != nil {
			t.Fatal(err)
		}

		path, err := store.TakeReturnPath()
		if err != nil || path != "/favourites" {
			t.Errorf("expected /favourites, got %q (%v)", path, err)
		}
		if again, _ := store.TakeReturnPath(); again != "" {
			t.Errorf("return path should be consumed, got %q", again)
		}
	})

	t.Run("Cookie Encoding", func(t *testing.T) {
		data, err := encodeCookies([]*http.Cookie{{Name: "a", Value: "1", Domain: "x", HttpOnly: true}})
		if err != nil {
			t.Fatal(err)
		}
		if data != `[{"name":"a","value":"1"}]` {
			t.Errorf("unexpected encoding %s", data)
		}
		if _, err := decodeCookies("{"); err == nil {
			t.Error("expected decode error")
		}
		if got, err := decodeCookies(""); err != nil || got != nil {
			t.Errorf("empty data decodes to nothing, got %v %v", got, err)
		}
	})
}
