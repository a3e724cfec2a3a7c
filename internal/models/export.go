package models

import (
	"fmt"
	"time"
)

// ListExport is a snapshot of one (user, kind, list) membership set written to disk.
type ListExport struct {
	Username   string      `json:"username"`
	List       ListKind    `json:"list"`
	Kind       MediaKind   `json:"kind"`
	ExportedAt time.Time   `json:"exportedAt"`
	Entries    []ListEntry `json:"entries"`
}

// Name is the file stem of the export, e.g. "watchlist_movies".
func (e ListExport) Name() string {
	return fmt.Sprintf("%s_%s", e.List, e.Kind.MirrorPath())
}

// Title is a human readable heading, e.g. "Movies Watchlist".
func (e ListExport) Title() string {
	return fmt.Sprintf("%s %s", e.Kind.Label(), e.List.Label())
}

// ExportManifest summarizes a multi-list export.
type ExportManifest struct {
	Username        string          `json:"username"`
	Format          string          `json:"format"`
	OutputDirectory string          `json:"outputDirectory"`
	CreatedAt       time.Time       `json:"createdAt"`
	Total           int             `json:"total"`
	Successful      int             `json:"successful"`
	Failed          int             `json:"failed"`
	Lists           []ManifestEntry `json:"lists"`
}

// ManifestEntry is one list in an [ExportManifest].
type ManifestEntry struct {
	List  ListKind  `json:"list"`
	Kind  MediaKind `json:"kind"`
	Count int       `json:"count"`
	Files []string  `json:"files,omitempty"`
	Error string    `json:"error,omitempty"`
}
