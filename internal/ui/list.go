package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mtx/internal/models"
)

var (
	_ list.Item = catalogItem{}
	_ list.Item = entryItem{}
)

// catalogItem wraps [models.CatalogItem] to implement [list.Item].
//
// kind is the media kind of the listing it came from; empty when the item's own tag decides.
type catalogItem struct {
	item models.CatalogItem
	kind models.MediaKind
}

func (i catalogItem) FilterValue() string { return i.item.DisplayTitle() }
func (i catalogItem) Title() string {
	if year := i.item.Year(); year != "" {
		return fmt.Sprintf("%s (%s)", i.item.DisplayTitle(), year)
	}
	return i.item.DisplayTitle()
}
func (i catalogItem) Description() string {
	desc := i.mediaKind().Label()
	if i.item.VoteAverage > 0 {
		desc = fmt.Sprintf("%s • ★ %.1f", desc, i.item.VoteAverage)
	}
	if i.item.Overview != "" {
		desc = fmt.Sprintf("%s • %s", desc, oneLine(i.item.Overview))
	}
	return desc
}

func (i catalogItem) mediaKind() models.MediaKind {
	if i.kind != "" {
		return i.kind
	}
	return i.item.Kind()
}

// entryItem wraps [models.ListEntry] to implement [list.Item].
type entryItem struct {
	entry    models.ListEntry
	mutating bool
}

func (i entryItem) FilterValue() string { return i.entry.Media.Title }
func (i entryItem) Title() string {
	title := i.entry.Media.Title
	if year := i.entry.Media.Year(); year != "" {
		title = fmt.Sprintf("%s (%s)", title, year)
	}
	if i.mutating {
		title += " …"
	}
	return title
}
func (i entryItem) Description() string {
	desc := i.entry.Kind.Label()
	if i.entry.Media.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, oneLine(i.entry.Media.Description))
	}
	return desc
}

func catalogItems(results []models.CatalogItem, kind models.MediaKind) []list.Item {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = catalogItem{item: r, kind: kind}
	}
	return items
}

func entryItems(entries []models.ListEntry, mutating map[string]bool) []list.Item {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = entryItem{entry: e, mutating: mutating[e.Key()]}
	}
	return items
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
