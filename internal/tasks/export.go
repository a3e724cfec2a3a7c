package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/mtx/internal/formatter"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/services"
	"golang.org/x/time/rate"
)

// ExportOpts contains configuration for exporting the signed in user's lists.
type ExportOpts struct {
	Format     formatter.Format   // Export format: json, csv, markdown, txt, table
	OutputDir  string             // Base output directory (default: mtx_export_{epoch})
	NumWorkers int                // Concurrent file writers (default: 3)
	RateLimit  float64            // Backend fetches per second (default: 5)
	Lists      []models.ListKind  // Lists to export (default: all)
	Kinds      []models.MediaKind // Media kinds to export (default: all)
}

// ListExportResult is the outcome of exporting one (list, kind) pair.
type ListExportResult struct {
	List    models.ListKind
	Kind    models.MediaKind
	Count   int
	Files   []string
	Success bool
	Error   error
}

// Name identifies the pair, e.g. "watchlist_movies".
func (r ListExportResult) Name() string {
	return models.ListExport{List: r.List, Kind: r.Kind}.Name()
}

// ExportResult summarizes an [Export] run.
type ExportResult struct {
	Username          string
	OutputDirectory   string
	Total             int
	SuccessfulExports int
	FailedExports     int
	Results           []ListExportResult
	ManifestPath      string
}

type exportJob struct {
	export *models.ListExport
}

// Export writes every requested list of the signed in user to opts.OutputDir.
//
// Fetches are rate limited and issued one at a time; file writing runs on a small worker
// pool. A failed list is reported in the result and does not stop the others. A manifest
// summarizing the run is written last.
func Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	backend services.Backend,
	session *Session,
	opts ExportOpts,
) (*ExportResult, error) {
	username := session.Username()
	if username == "" {
		return nil, notAuthenticated("export")
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("mtx_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 6 {
		opts.NumWorkers = 6
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if len(opts.Lists) == 0 {
		opts.Lists = models.ListKinds
	}
	if len(opts.Kinds) == 0 {
		opts.Kinds = models.MediaKinds
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	type pair struct {
		list models.ListKind
		kind models.MediaKind
	}
	pairs := make([]pair, 0, len(opts.Lists)*len(opts.Kinds))
	for _, list := range opts.Lists {
		for _, kind := range opts.Kinds {
			pairs = append(pairs, pair{list, kind})
		}
	}
	total := len(pairs)

	result := &ExportResult{
		Username:        username,
		OutputDirectory: opts.OutputDir,
		Total:           total,
		Results:         make([]ListExportResult, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, total)
	results := make(chan ListExportResult, total)

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i, p := range pairs {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, loadingListUpdate(i+1, total, p.list, p.kind))
			entries, err := backend.FetchList(ctx, username, p.list, p.kind)
			if err != nil {
				results <- ListExportResult{
					List:  p.list,
					Kind:  p.kind,
					Error: fmt.Errorf("failed to fetch list: %w", err),
				}
				continue
			}

			jobs <- exportJob{export: &models.ListExport{
				Username:   username,
				List:       p.list,
				Kind:       p.kind,
				ExportedAt: time.Now().UTC(),
				Entries:    entries,
			}}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			sendProgress(prog, exportCompletedUpdate(completed, total, res.Name(), len(res.Files)))
		} else {
			result.FailedExports++
			sendProgress(prog, exportFailedUpdate(completed, total, res.Name(), res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result.Manifest(opts.Format), manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))
	return result, nil
}

// Manifest converts the result for [formatter.WriteManifest].
func (r *ExportResult) Manifest(format formatter.Format) *models.ExportManifest {
	m := &models.ExportManifest{
		Username:        r.Username,
		Format:          string(format),
		OutputDirectory: r.OutputDirectory,
		CreatedAt:       time.Now().UTC(),
		Total:           r.Total,
		Successful:      r.SuccessfulExports,
		Failed:          r.FailedExports,
		Lists:           make([]models.ManifestEntry, 0, len(r.Results)),
	}
	for _, res := range r.Results {
		entry := models.ManifestEntry{List: res.List, Kind: res.Kind, Count: res.Count}
		for _, f := range res.Files {
			entry.Files = append(entry.Files, filepath.Base(f))
		}
		if res.Error != nil {
			entry.Error = res.Error.Error()
		}
		m.Lists = append(m.Lists, entry)
	}
	return m
}

// exportWorker writes fetched lists from the jobs channel.
func exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- ListExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- exportSingleList(job, opts)
	}
}

// exportSingleList writes one list in the requested format.
func exportSingleList(j exportJob, opts ExportOpts) ListExportResult {
	result := ListExportResult{
		List:  j.export.List,
		Kind:  j.export.Kind,
		Count: len(j.export.Entries),
		Files: []string{},
	}

	path, err := formatter.WriteExport(j.export, opts.Format, opts.OutputDir)
	if err != nil {
		result.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		return result
	}
	result.Files = append(result.Files, path)
	result.Success = true
	return result
}
