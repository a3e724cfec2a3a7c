package tasks

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/services"
	"github.com/desertthunder/mtx/internal/shared"
	"github.com/sourcegraph/conc/iter"
)

// fanOut runs fn once per kind with at most two calls in flight and returns the results
// in input order. Every failure is joined into the returned error.
func fanOut[R any](kinds []models.MediaKind, fn func(models.MediaKind) (R, error)) ([]R, error) {
	mapper := iter.Mapper[models.MediaKind, R]{MaxGoroutines: 2}
	return mapper.MapErr(kinds, func(kind *models.MediaKind) (R, error) {
		return fn(*kind)
	})
}

// BrowseSnapshot is a copy of a catalog view's state, safe to render.
type BrowseSnapshot struct {
	Kind       models.MediaKind
	Category   models.Category
	Window     models.Window
	Query      string
	Filter     models.Filter
	Page       int
	TotalPages int
	Results    []models.CatalogItem
	Loading    bool
}

// CategoryView pages through one catalog listing (trending, popular or top rated) for one
// media kind. Changing the kind, category or window resets the cursor to page 1.
type CategoryView struct {
	mu         sync.Mutex
	catalog    services.Catalog
	logger     *log.Logger
	kind       models.MediaKind
	category   models.Category
	window     models.Window
	pager      *Pager
	results    []models.CatalogItem
	loading    bool
	generation uint64
}

// NewCategoryView starts on page 1 of the weekly listing.
func NewCategoryView(catalog services.Catalog, kind models.MediaKind, category models.Category, logger *log.Logger) *CategoryView {
	if logger == nil {
		logger = shared.WithLogger(shared.NewLogger(nil), "component", "browse")
	}
	return &CategoryView{
		catalog:  catalog,
		logger:   logger,
		kind:     kind,
		category: category,
		window:   models.Week,
		pager:    NewPager(),
		results:  []models.CatalogItem{},
	}
}

// SetKind switches media kind; reports whether anything changed.
func (v *CategoryView) SetKind(kind models.MediaKind) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.kind == kind {
		return false
	}
	v.kind = kind
	v.invalidate()
	return true
}

// SetCategory switches listing; reports whether anything changed.
func (v *CategoryView) SetCategory(category models.Category) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.category == category {
		return false
	}
	v.category = category
	v.invalidate()
	return true
}

// SetWindow switches the trending window; reports whether anything changed.
func (v *CategoryView) SetWindow(window models.Window) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if window == "" {
		window = models.Week
	}
	if v.window == window {
		return false
	}
	v.window = window
	v.invalidate()
	return true
}

// Next moves to the following page; false on the last page.
func (v *CategoryView) Next() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Next()
}

// Prev moves to the previous page; false on page 1.
func (v *CategoryView) Prev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Prev()
}

// Load fetches the current page. A failure degrades to an empty page with one total page.
// The result is dropped if another load or a parameter change happened meanwhile; Load
// reports whether it was applied.
func (v *CategoryView) Load(ctx context.Context) bool {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	kind, category, window, page := v.kind, v.category, v.window, v.pager.Page()
	v.loading = true
	v.mu.Unlock()

	result, err := v.catalog.Fetch(ctx, category, kind, window, page)
	if err != nil {
		v.logger.Warn("catalog fetch failed", "category", category, "kind", kind, "page", page, "error", err)
		result = models.Page{Results: []models.CatalogItem{}, TotalPages: 1}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		v.logger.Debug("discarding stale catalog page", "category", category, "kind", kind, "page", page)
		return false
	}
	v.results = result.Results
	v.pager.SetTotal(result.TotalPages)
	v.loading = false
	return true
}

// Snapshot copies the current state.
func (v *CategoryView) Snapshot() BrowseSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return BrowseSnapshot{
		Kind:       v.kind,
		Category:   v.category,
		Window:     v.window,
		Page:       v.pager.Page(),
		TotalPages: v.pager.Total(),
		Results:    slices.Clone(v.results),
		Loading:    v.loading,
	}
}

// invalidate resets paging and orphans any in-flight load. Callers hold mu.
func (v *CategoryView) invalidate() {
	v.pager.Reset()
	v.generation++
	v.loading = false
}

// SearchView pages through search results for one query. With filter All both kinds are
// searched concurrently; results are movies then shows and the page count is the larger
// of the two. Changing the query or the filter resets the cursor to page 1.
type SearchView struct {
	mu         sync.Mutex
	catalog    services.Catalog
	logger     *log.Logger
	query      string
	filter     models.Filter
	pager      *Pager
	results    []models.CatalogItem
	total      int
	loading    bool
	generation uint64
}

// NewSearchView starts with an empty query.
func NewSearchView(catalog services.Catalog, filter models.Filter, logger *log.Logger) *SearchView {
	if logger == nil {
		logger = shared.WithLogger(shared.NewLogger(nil), "component", "search")
	}
	if filter == "" {
		filter = models.FilterAll
	}
	return &SearchView{
		catalog: catalog,
		logger:  logger,
		filter:  filter,
		pager:   NewPager(),
		results: []models.CatalogItem{},
	}
}

// SetQuery replaces the query; reports whether it changed.
func (v *SearchView) SetQuery(query string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.query == query {
		return false
	}
	v.query = query
	v.invalidate()
	return true
}

// SetFilter replaces the filter; reports whether it changed.
func (v *SearchView) SetFilter(filter models.Filter) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.filter == filter {
		return false
	}
	v.filter = filter
	v.invalidate()
	return true
}

// Next moves to the following page; false on the last page.
func (v *SearchView) Next() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Next()
}

// Prev moves to the previous page; false on page 1.
func (v *SearchView) Prev() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pager.Prev()
}

// Load runs the search for the current page. A blank query or a failure yields no
// results and zero total pages. Reports whether the result was applied.
func (v *SearchView) Load(ctx context.Context) bool {
	v.mu.Lock()
	v.generation++
	gen := v.generation
	query, filter, page := v.query, v.filter, v.pager.Page()
	v.loading = true
	v.mu.Unlock()

	result := v.search(ctx, query, filter, page)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.generation {
		v.logger.Debug("discarding stale search page", "query", query, "filter", filter, "page", page)
		return false
	}
	v.results = result.Results
	v.total = result.TotalPages
	v.pager.SetTotal(result.TotalPages)
	v.loading = false
	return true
}

func (v *SearchView) search(ctx context.Context, query string, filter models.Filter, page int) models.Page {
	result, err := SearchPage(ctx, v.catalog, query, filter, page)
	if err != nil {
		v.logger.Warn("search failed", "query", query, "filter", filter, "page", page, "error", err)
		return models.Page{Results: []models.CatalogItem{}, TotalPages: 0}
	}
	return result
}

// SearchPage runs query against every kind the filter covers and concatenates the pages,
// movies first. TotalPages is the larger of the two totals. A blank query returns an
// empty page without calling the catalog; if either search fails the whole page fails.
func SearchPage(ctx context.Context, catalog services.Catalog, query string, filter models.Filter, page int) (models.Page, error) {
	merged := models.Page{Results: []models.CatalogItem{}}
	if strings.TrimSpace(query) == "" {
		return merged, nil
	}

	pages, err := fanOut(filter.Kinds(), func(kind models.MediaKind) (models.Page, error) {
		return catalog.Search(ctx, kind, query, page)
	})
	if err != nil {
		return merged, err
	}

	for _, p := range pages {
		merged.Results = append(merged.Results, p.Results...)
		merged.TotalPages = max(merged.TotalPages, p.TotalPages)
	}
	return merged, nil
}

// Snapshot copies the current state. TotalPages is 0 until a non-blank query loads.
func (v *SearchView) Snapshot() BrowseSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return BrowseSnapshot{
		Query:      v.query,
		Filter:     v.filter,
		Page:       v.pager.Page(),
		TotalPages: v.total,
		Results:    slices.Clone(v.results),
		Loading:    v.loading,
	}
}

// invalidate resets paging and orphans any in-flight load. Callers hold mu.
func (v *SearchView) invalidate() {
	v.pager.Reset()
	v.generation++
	v.loading = false
}
