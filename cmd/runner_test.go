package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
	tu "github.com/desertthunder/mtx/internal/testing"
	"github.com/urfave/cli/v3"
)

const (
	testUser     = "moviebuff1"
	testPassword = "Secret123"
)

type harness struct {
	t       *testing.T
	fake    *tu.FakeBackend
	catalog *tu.StubCatalog
	opts    RunnerOpts
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	fake := tu.NewFakeBackend(t)
	fake.AddUser(testUser, testPassword)

	catalog := tu.NewStubCatalog()
	catalog.Pages[models.Movie] = models.Page{
		Results:    []models.CatalogItem{{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", PosterPath: "/heat.jpg", VoteAverage: 7.9}},
		TotalPages: 3,
	}
	catalog.Pages[models.Show] = models.Page{
		Results:    []models.CatalogItem{{ID: 100, Name: "Dark", FirstAirDate: "2017-12-01"}},
		TotalPages: 1,
	}
	catalog.Items[949] = models.CatalogItem{ID: 949, Title: "Heat", ReleaseDate: "1995-12-15", PosterPath: "/heat.jpg", Overview: "A heist."}

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	config := shared.DefaultConfig()
	config.Backend.BaseURL = fake.URL()

	return &harness{
		t:       t,
		fake:    fake,
		catalog: catalog,
		opts:    RunnerOpts{Config: config, Catalog: catalog, DB: db, Logger: shared.NewLogger(io.Discard)},
	}
}

// runner creates a fresh Runner, as a new process would: its own cookie jar, the shared database.
func (h *harness) runner() (*Runner, *bytes.Buffer) {
	h.t.Helper()

	backend, err := services.NewBackendService(h.fake.URL())
	if err != nil {
		h.t.Fatalf("failed to create backend: %v", err)
	}

	out := &bytes.Buffer{}
	opts := h.opts
	opts.Backend = backend
	opts.Output = out
	return NewRunner(opts), out
}

// run executes one command line in a fresh Runner.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	r, out := h.runner()
	app := &cli.Command{Name: "mtx", Commands: r.register()}
	err := app.Run(context.Background(), append([]string{"mtx"}, args...))
	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	if _, err := h.run("auth", "login", "-u", testUser, "-p", testPassword); err != nil {
		h.t.Fatalf("login failed: %v", err)
	}
	h.fake.Reset()
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			catalog := tu.NewStubCatalog()
			backend, err := services.NewBackendService("http://localhost:8080")
			if err != nil {
				t.Fatalf("failed to create backend: %v", err)
			}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				Catalog:    catalog,
				Backend:    backend,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.backend != backend {
				t.Error("expected backend to be set")
			}
			if runner.api == nil {
				t.Error("expected api client to be derived from backend")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("without backend has no api client", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.api != nil {
				t.Error("expected no api client")
			}
			if err := runner.requireBackend(); !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected missing config error, got %v", err)
			}
			if err := runner.requireCatalog(); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected missing credentials error, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "browse", "search", "lists", "mirror", "history", "api", "tui"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("mutationError", func(t *testing.T) {
		h := newHarness(t)
		r, _ := h.runner()
		session, _ := r.currentSession(context.Background())

		res := r.synchronizer(session).Add(context.Background(), models.CatalogItem{ID: 1, Title: "Alien"}, models.Movie, models.Watchlist, "/watchlist")
		if !res.Redirected {
			t.Fatalf("expected signed out add to redirect, got %+v", res)
		}
		if err := mutationError(res); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected not authenticated, got %v", err)
		}

		path, err := r.store.TakeReturnPath()
		if err != nil || path != "/watchlist" {
			t.Errorf("expected stored return path, got %q %v", path, err)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("Login Persists Session", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run("auth", "login", "-u", testUser, "-p", testPassword)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Signed in as "+testUser) {
			t.Errorf("unexpected output %q", out)
		}

		out, err = h.run("auth", "status")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Signed in as "+testUser) {
			t.Errorf("expected restored session, got %q", out)
		}
	})

	t.Run("Refused Login", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run("auth", "login", "-u", testUser, "-p", "Wrong1234")
		if !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Errorf("expected invalid credentials, got %v", err)
		}
	})

	t.Run("Register Validates Locally", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run("auth", "register", "-u", "abc", "-p", "Passw0rd")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected validation error, got %v", err)
		}
		if h.fake.Calls(tu.RouteRegister) != 0 {
			t.Error("invalid registration must not reach the backend")
		}
	})

	t.Run("Register Taken Username", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run("auth", "register", "-u", testUser, "-p", "Passw0rd")
		if !errors.Is(err, shared.ErrUsernameTaken) {
			t.Errorf("expected username taken, got %v", err)
		}
	})

	t.Run("Logout Forgets Session", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		out, err := h.run("auth", "logout")
		if err != nil || !strings.Contains(out, "Signed out "+testUser) {
			t.Fatalf("unexpected logout result %q %v", out, err)
		}

		out, _ = h.run("auth", "status", "--json")
		var status map[string]any
		if err := json.Unmarshal([]byte(out), &status); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if status["authenticated"] != false {
			t.Errorf("expected signed out, got %v", status)
		}
	})

	t.Run("Login Reports Return Path", func(t *testing.T) {
		h := newHarness(t)

		if _, err := h.run("lists", "show", "favourites"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected not authenticated, got %v", err)
		}

		out, err := h.run("auth", "login", "-u", testUser, "-p", testPassword)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Continue where you left off: /favourites") {
			t.Errorf("expected return path, got %q", out)
		}
	})
}

func TestCatalogCommands(t *testing.T) {
	t.Run("Browse Plain", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run("browse", "--kind", "movie", "--page", "2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if out != "949\tmovie\tHeat\t1995\n" {
			t.Errorf("unexpected output %q", out)
		}

		calls := h.catalog.Calls()
		last := calls[len(calls)-1]
		if last.Category != models.Trending || last.Page != 2 {
			t.Errorf("unexpected call %+v", last)
		}
	})

	t.Run("Browse Rejects Bad Flags", func(t *testing.T) {
		h := newHarness(t)

		for _, args := range [][]string{
			{"browse", "--category", "upcoming"},
			{"browse", "--kind", "anime"},
			{"browse", "--page", "0"},
		} {
			if _, err := h.run(args...); !errors.Is(err, shared.ErrInvalidFlag) {
				t.Errorf("%v: expected invalid flag, got %v", args, err)
			}
		}
	})

	t.Run("Search JSON", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run("search", "heat", "--json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var page models.Page
		if err := json.Unmarshal([]byte(out), &page); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(page.Results) != 2 || page.Results[0].ID != 949 || page.Results[1].ID != 100 {
			t.Errorf("expected movies then shows, got %+v", page.Results)
		}
		if page.TotalPages != 3 {
			t.Errorf("expected larger total, got %d", page.TotalPages)
		}
	})

	t.Run("Search Requires Query", func(t *testing.T) {
		h := newHarness(t)

		if _, err := h.run("search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
	})
}

func TestListsCommands(t *testing.T) {
	t.Run("Add Signed Out Is Refused", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run("lists", "add", "watchlist", "--id", "949")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected not authenticated, got %v", err)
		}
		if h.fake.Calls(tu.RouteListAdd) != 0 {
			t.Error("signed out add must not reach the backend")
		}
	})

	t.Run("Add Signed Out Skips Catalog", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.run("lists", "add", "watched", "--id", "12345")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected not authenticated before any lookup, got %v", err)
		}
		for _, call := range h.catalog.Calls() {
			if call.Op == "details" {
				t.Error("signed out add must not look up the title")
			}
		}

		out, err := h.run("auth", "login", "-u", testUser, "-p", testPassword)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Continue where you left off: /watched") {
			t.Errorf("expected stored return path, got %q", out)
		}
	})

	t.Run("Add Records Activity", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		out, err := h.run("lists", "add", "watched", "--id", "949", "--kind", "movie")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Added Heat to Watched") {
			t.Errorf("unexpected output %q", out)
		}
		if got := h.fake.Members(testUser, models.Movie, models.Watched); len(got) != 1 || got[0] != 949 {
			t.Errorf("expected Heat in watched, got %v", got)
		}

		out, err = h.run("history", "--json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var rows []map[string]any
		if err := json.Unmarshal([]byte(out), &rows); err != nil {
			t.Fatalf("invalid JSON %q: %v", out, err)
		}
		if len(rows) != 1 || rows[0]["title"] != "Heat" || rows[0]["ok"] != true {
			t.Errorf("expected one recorded add, got %v", rows)
		}
	})

	t.Run("Show And Remove", func(t *testing.T) {
		h := newHarness(t)
		h.fake.Seed(testUser, models.Movie, models.Watchlist,
			models.ListEntry{TmdbID: 949, Kind: models.Movie, Media: models.MediaItem{Title: "Heat"}},
			models.ListEntry{TmdbID: 1, Kind: models.Movie, Media: models.MediaItem{Title: "Alien"}},
		)
		h.login()

		out, err := h.run("lists", "show", "watchlist", "--format", "json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var entries []models.ListEntry
		if err := json.Unmarshal([]byte(out), &entries); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %+v", entries)
		}

		out, err = h.run("lists", "rm", "watchlist", "--id", "949")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Removed Heat from Watchlist") || !strings.Contains(out, "Watchlist now holds 1 item(s)") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Remove Absent Entry Succeeds", func(t *testing.T) {
		h := newHarness(t)
		h.login()

		out, err := h.run("lists", "remove", "favourites", "--id", "42", "--kind", "tv")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "Removed #42 from Favourites") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("Export", func(t *testing.T) {
		h := newHarness(t)
		h.fake.Seed(testUser, models.Movie, models.Watched,
			models.ListEntry{TmdbID: 949, Kind: models.Movie, Media: models.MediaItem{Title: "Heat"}},
		)
		h.login()

		dir := filepath.Join(t.TempDir(), "export")
		out, err := h.run("lists", "export", "--format", "csv", "--dir", dir, "--list", "watched", "--kind", "movie")
		if err != nil {
			t.Fatalf("expected no error, got %v (%s)", err, out)
		}
		if !strings.Contains(out, "Exported 1 of 1 list(s)") {
			t.Errorf("unexpected output %q", out)
		}
		tu.AssertFileExists(t, filepath.Join(dir, "watched_movies.csv"))
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))
	})
}

func TestMirrorCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("mirror", "add", "--id", "949")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Mirrored Heat (Movies)") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = h.run("mirror", "search", "Heat")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "949\tHeat\t1995") {
		t.Errorf("expected mirrored row, got %q", out)
	}
}

func TestAPICommands(t *testing.T) {
	h := newHarness(t)
	h.login()

	t.Run("Get Uses Stored Session", func(t *testing.T) {
		out, err := h.run("api", "get", "/api/user/me", "--json")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, testUser) {
			t.Errorf("expected identity in output, got %q", out)
		}
	})

	t.Run("Post Rejects Malformed Data", func(t *testing.T) {
		_, err := h.run("api", "post", "/api/movies", "--data", "{not json")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Dump Saves Every List", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dump.json")
		out, err := h.run("api", "dump", "--save", path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, `"lists"`) || !strings.Contains(out, testUser) {
			t.Errorf("unexpected dump %q", out)
		}
		tu.AssertFileExists(t, path)
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("Config", func(t *testing.T) {
		h := newHarness(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		if _, err := h.run("setup", "config", "--config", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, path)

		if _, err := h.run("setup", "config", "--config", path); err == nil {
			t.Error("expected existing config to be kept")
		}
	})

	t.Run("Status", func(t *testing.T) {
		h := newHarness(t)

		out, err := h.run("setup", "status")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out, "0000  ✓ applied") {
			t.Errorf("unexpected output %q", out)
		}
	})
}
