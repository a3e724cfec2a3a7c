package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/mtx/internal/formatter"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	tu "github.com/desertthunder/mtx/internal/testing"
)

func TestExport(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		format     formatter.Format
		lists      []models.ListKind
		kinds      []models.MediaKind
		wantTotal  int
		wantFile   string
		wantInFile string
	}{
		{
			name:       "all lists json",
			format:     formatter.FormatJSON,
			wantTotal:  6,
			wantFile:   "watchlist_movies.json",
			wantInFile: `"title": "Heat"`,
		},
		{
			name:       "single list csv",
			format:     formatter.FormatCSV,
			lists:      []models.ListKind{models.Watchlist},
			kinds:      []models.MediaKind{models.Movie},
			wantTotal:  1,
			wantFile:   "watchlist_movies.csv",
			wantInFile: "949,movie,Heat",
		},
		{
			name:       "shows markdown",
			format:     formatter.FormatMarkdown,
			kinds:      []models.MediaKind{models.Show},
			wantTotal:  3,
			wantFile:   "favourites_shows.md",
			wantInFile: "# TV Shows Favourites",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.fake.Seed(testUser, models.Movie, models.Watchlist, movieEntry(949, "Heat"))
			h.fake.Seed(testUser, models.Show, models.Favourites, showEntry(100, "Dark"))
			h.signIn(t)
			dir := filepath.Join(t.TempDir(), "out")

			result, err := Export(ctx, nil, h.backend, h.session, ExportOpts{
				Format:    tt.format,
				OutputDir: dir,
				RateLimit: 1000,
				Lists:     tt.lists,
				Kinds:     tt.kinds,
			})
			if err != nil {
				t.Fatalf("Export failed: %v", err)
			}

			if result.Total != tt.wantTotal || result.SuccessfulExports != tt.wantTotal || result.FailedExports != 0 {
				t.Errorf("unexpected counts %+v", result)
			}
			if len(result.Results) != tt.wantTotal {
				t.Errorf("expected %d results, got %d", tt.wantTotal, len(result.Results))
			}
			if h.fake.Calls(tu.RouteListFetch) != tt.wantTotal {
				t.Errorf("expected %d fetches, got %d", tt.wantTotal, h.fake.Calls(tu.RouteListFetch))
			}

			path := filepath.Join(dir, tt.wantFile)
			tu.AssertFileExists(t, path)
			if content := tu.MustReadFile(t, path); !strings.Contains(content, tt.wantInFile) {
				t.Errorf("expected %q in %s:\n%s", tt.wantInFile, tt.wantFile, content)
			}

			tu.AssertFileExists(t, result.ManifestPath)
		})
	}

	t.Run("Requires Sign In", func(t *testing.T) {
		h := newHarness(t)

		_, err := Export(ctx, nil, h.backend, h.session, ExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if len(h.fake.Requests()) != 0 {
			t.Error("no backend calls expected")
		}
	})

	t.Run("Partial Failure", func(t *testing.T) {
		h := newHarness(t)
		h.fake.Seed(testUser, models.Movie, models.Watched, movieEntry(1, "Alien"))
		h.signIn(t)
		h.fake.Fail(tu.RouteListFetch, http.StatusInternalServerError, "db down")
		dir := t.TempDir()

		progress := make(chan ProgressUpdate, 32)
		result, err := Export(ctx, progress, h.backend, h.session, ExportOpts{
			Format:    formatter.FormatText,
			OutputDir: dir,
			RateLimit: 1000,
			Kinds:     []models.MediaKind{models.Movie},
		})
		if err != nil {
			t.Fatalf("a failed list must not fail the export: %v", err)
		}
		if result.SuccessfulExports != 2 || result.FailedExports != 1 {
			t.Errorf("expected 2 ok and 1 failed, got %+v", result)
		}

		data, err := os.ReadFile(result.ManifestPath)
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		var manifest models.ExportManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if manifest.Username != testUser || manifest.Failed != 1 || len(manifest.Lists) != 3 {
			t.Errorf("unexpected manifest %+v", manifest)
		}
		var failed []string
		for _, entry := range manifest.Lists {
			if entry.Error != "" {
				failed = append(failed, entry.Error)
			}
		}
		if len(failed) != 1 || !strings.Contains(failed[0], "db down") {
			t.Errorf("expected the backend body in the manifest error, got %v", failed)
		}

		close(progress)
		phases := map[Phase]int{}
		for u := range progress {
			phases[u.Phase]++
		}
		if phases[LoadList] != 3 || phases[ExportList] != 3 || phases[WriteManifest] != 1 {
			t.Errorf("unexpected progress phases %v", phases)
		}
	})

	t.Run("Canceled", func(t *testing.T) {
		h := newHarness(t)
		h.signIn(t)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		result, err := Export(canceled, nil, h.backend, h.session, ExportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if result == nil || result.ManifestPath != "" {
			t.Error("a canceled export writes no manifest")
		}
	})

	t.Run("Manifest Uses Base Names", func(t *testing.T) {
		res := &ExportResult{
			Username: testUser,
			Total:    1,
			Results: []ListExportResult{
				{List: models.Watched, Kind: models.Show, Count: 2, Files: []string{"/tmp/x/watched_shows.csv"}, Success: true},
			},
			SuccessfulExports: 1,
		}
		m := res.Manifest(formatter.FormatCSV)
		if m.Format != "csv" || len(m.Lists) != 1 || m.Lists[0].Files[0] != "watched_shows.csv" || m.Lists[0].Count != 2 {
			t.Errorf("unexpected manifest %+v", m)
		}
	})
}
