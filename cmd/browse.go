package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/mtx/internal/formatter"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/desertthunder/mtx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Browse prints one page of the trending, popular or top rated listing.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	category, err := models.ParseCategory(cmd.String("category"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	kind, err := models.ParseMediaKind(cmd.String("kind"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	window, err := models.ParseWindow(cmd.String("window"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	page := int(cmd.Int("page"))
	if page < 1 {
		return fmt.Errorf("%w: --page must be at least 1", shared.ErrInvalidFlag)
	}

	r.logger.Debug("browsing catalog", "category", category, "kind", kind, "window", window, "page", page)

	result, err := r.catalog.Fetch(ctx, category, kind, window, page)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogRequest, err)
	}

	title := fmt.Sprintf("%s %s", category.Label(), kind.Label())
	if category == models.Trending {
		title = fmt.Sprintf("%s (%s)", title, window)
	}
	return r.writePage(title, result, page, cmd.Bool("json"))
}

// Search prints one page of results for the query across the kinds the filter covers.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: query", shared.ErrMissingArgument)
	}
	filter, err := models.ParseFilter(cmd.String("filter"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	page := int(cmd.Int("page"))
	if page < 1 {
		return fmt.Errorf("%w: --page must be at least 1", shared.ErrInvalidFlag)
	}

	r.logger.Debug("searching catalog", "query", query, "filter", filter, "page", page)

	result, err := tasks.SearchPage(ctx, r.catalog, query, filter, page)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogRequest, err)
	}
	return r.writePage(fmt.Sprintf("Search %q (%s)", query, filter), result, page, cmd.Bool("json"))
}

// writePage renders a catalog page as JSON, a table on a terminal, or tab separated lines.
func (r *Runner) writePage(title string, page models.Page, number int, useJSON bool) error {
	if useJSON {
		return r.writeJSON(page, true)
	}

	if !formatter.IsTerminal(r.output) {
		rows := make([][]string, 0, len(page.Results))
		for _, item := range page.Results {
			rows = append(rows, []string{
				strconv.FormatInt(item.ID, 10),
				string(item.Kind()),
				item.DisplayTitle(),
				item.Year(),
			})
		}
		return r.writePlain("%s", formatter.PlainLines(rows))
	}

	r.writePlainHeader(fmt.Sprintf("%s · page %d/%d", title, number, max(page.TotalPages, 1)))
	if len(page.Results) == 0 {
		return r.writePlain("No results\n")
	}
	return r.writePlain("%s\n", formatter.PageTable(page))
}
