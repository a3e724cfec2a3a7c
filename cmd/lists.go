package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/desertthunder/mtx/internal/formatter"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// ListsShow prints the signed in user's list, movies first.
func (r *Runner) ListsShow(ctx context.Context, cmd *cli.Command) error {
	list, err := models.ParseListKind(cmd.StringArg("list"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	filter, err := models.ParseFilter(cmd.String("filter"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	view, session, err := r.listView(ctx, list)
	if err != nil {
		return err
	}
	view.SetFilter(filter)
	view.Load(ctx)
	snap := view.Snapshot()

	if format == formatter.FormatJSON {
		return r.writeJSON(snap.Entries, true)
	}

	export := &models.ListExport{
		Username:   session.Username(),
		List:       list,
		ExportedAt: time.Now().UTC(),
		Entries:    snap.Entries,
	}
	if kinds := filter.Kinds(); len(kinds) == 1 {
		export.Kind = kinds[0]
	}

	if format == formatter.FormatTable {
		r.writePlainHeader(fmt.Sprintf("%s · %s · %s", session.Username(), list.Label(), filter))
		if len(snap.Entries) == 0 {
			return r.writePlain("Your %s is empty\n", list.Label())
		}
	}

	data, err := formatter.Render(export, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// ListsAdd captures a catalog item and stores it in the list.
func (r *Runner) ListsAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	list, kind, id, err := mutationArgs(cmd)
	if err != nil {
		return err
	}

	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}
	if err := r.requireSignedIn(session, list.Path()); err != nil {
		return err
	}

	item, err := r.catalog.Details(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogRequest, err)
	}

	res := r.synchronizer(session).Add(ctx, item, kind, list, list.Path())
	if err := mutationError(res); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", res.Message())
}

// ListsRemove deletes an entry from the list. Removing an entry that is not there succeeds.
func (r *Runner) ListsRemove(ctx context.Context, cmd *cli.Command) error {
	list, kind, id, err := mutationArgs(cmd)
	if err != nil {
		return err
	}

	view, _, err := r.listView(ctx, list)
	if err != nil {
		return err
	}
	view.Load(ctx)

	entry := models.ListEntry{TmdbID: id, Kind: kind, List: list, Media: models.MediaItem{Title: fmt.Sprintf("#%d", id)}}
	for _, e := range view.Snapshot().Entries {
		if e.TmdbID == id && e.Kind == kind {
			entry = e
			break
		}
	}

	res := view.Remove(ctx, entry, list.Path())
	if err := mutationError(res); err != nil {
		return err
	}
	r.writePlain("✓ %s\n", res.Message())

	remaining := len(view.Snapshot().Entries)
	return r.writePlain("%s now holds %d item(s)\n", list.Label(), remaining)
}

// ListsExport writes every list of the signed in user to disk in the chosen format.
func (r *Runner) ListsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	opts := tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("dir"),
		NumWorkers: int(cmd.Int("workers")),
	}
	for _, name := range cmd.StringSlice("list") {
		list, err := models.ParseListKind(name)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		opts.Lists = append(opts.Lists, list)
	}
	if k := cmd.String("kind"); k != "" {
		kind, err := models.ParseMediaKind(k)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		opts.Kinds = []models.MediaKind{kind}
	}

	session, err := r.currentSession(ctx)
	if err != nil {
		return err
	}
	if !session.Authenticated() {
		return fmt.Errorf("%w: run 'mtx auth login' first", shared.ErrNotAuthenticated)
	}

	r.writePlainHeader(fmt.Sprintf("Exporting lists for %s", session.Username()))

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	result, err := tasks.Export(ctx, progress, r.backend, session, opts)
	close(progress)
	wg.Wait()
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlainln("✓ Exported %d of %d list(s) to %s", result.SuccessfulExports, result.Total, result.OutputDirectory)
	if result.FailedExports > 0 {
		for _, res := range result.Results {
			if !res.Success {
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Name(), res.Error)
			}
		}
		return fmt.Errorf("%d list(s) failed to export", result.FailedExports)
	}
	return r.writePlain("Manifest: %s\n", result.ManifestPath)
}

// listView builds a view over list for the stored session. Signed out is an error here:
// the CLI has no sign in form to redirect to.
func (r *Runner) listView(ctx context.Context, list models.ListKind) (*tasks.ListView, *tasks.Session, error) {
	session, err := r.currentSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := r.requireSignedIn(session, list.Path()); err != nil {
		return nil, nil, err
	}

	logger := shared.WithLogger(r.logger, "component", "list", "list", list)
	return tasks.NewListView(list, r.backend, r.synchronizer(session), logger), session, nil
}

// requireSignedIn stores from as the pending return path when nobody is signed in.
func (r *Runner) requireSignedIn(session *tasks.Session, from string) error {
	if session.Authenticated() {
		return nil
	}
	if r.store != nil {
		if err := r.store.SetReturnPath(from); err != nil {
			r.logger.Warn("failed to store return path", "error", err)
		}
	}
	return fmt.Errorf("%w: run 'mtx auth login' first", shared.ErrNotAuthenticated)
}

func mutationArgs(cmd *cli.Command) (models.ListKind, models.MediaKind, int64, error) {
	list, err := models.ParseListKind(cmd.StringArg("list"))
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	kind, err := models.ParseMediaKind(cmd.String("kind"))
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	id := int64(cmd.Int("id"))
	if id <= 0 {
		return "", "", 0, fmt.Errorf("%w: --id must be a positive TMDB id", shared.ErrInvalidFlag)
	}
	return list, kind, id, nil
}
