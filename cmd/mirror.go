package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/mtx/internal/formatter"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/urfave/cli/v3"
)

// MirrorSearch looks up titles in the backend's copy of the catalog.
func (r *Runner) MirrorSearch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireBackend(); err != nil {
		return err
	}

	kind, err := models.ParseMediaKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	title := cmd.StringArg("title")

	entries, err := r.backend.SearchMirror(ctx, kind, title)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}
	if len(entries) == 0 {
		return r.writePlain("No %s matching %q\n", kind.Label(), title)
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			strconv.FormatInt(e.TmdbID, 10),
			e.Title,
			e.Year(),
			e.Genre,
		})
	}
	return r.writePlain("%s", formatter.PlainLines(rows))
}

// MirrorAdd copies a catalog item into the backend's mirror table.
func (r *Runner) MirrorAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}
	if err := r.requireBackend(); err != nil {
		return err
	}

	kind, err := models.ParseMediaKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	id := int64(cmd.Int("id"))
	if id <= 0 {
		return fmt.Errorf("%w: --id must be a positive TMDB id", shared.ErrInvalidFlag)
	}

	item, err := r.catalog.Details(ctx, kind, id)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogRequest, err)
	}

	created, err := r.backend.CreateMirror(ctx, kind, id, models.Capture(item, r.catalog.ImageURL))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	r.logger.Info("mirrored catalog item", "kind", kind, "tmdb_id", id, "mirror_id", created.ID)
	return r.writePlain("✓ Mirrored %s (%s) as #%d\n", created.Title, kind.Label(), created.ID)
}
