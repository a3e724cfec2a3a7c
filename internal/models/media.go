package models

import (
	"fmt"
	"strconv"
	"strings"
)

// MediaKind distinguishes movies from TV shows.
type MediaKind string

const (
	Movie MediaKind = "movie"
	Show  MediaKind = "tv"
)

// MediaKinds lists every [MediaKind] in display order (movies before shows).
var MediaKinds = []MediaKind{Movie, Show}

// ParseMediaKind accepts the catalog spelling ("movie", "tv") and the common aliases.
func ParseMediaKind(s string) (MediaKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies", "film":
		return Movie, nil
	case "tv", "show", "shows", "series":
		return Show, nil
	default:
		return "", fmt.Errorf("unknown media kind %q", s)
	}
}

// ListPath returns the backend path segment for list operations.
func (k MediaKind) ListPath() string {
	if k == Movie {
		return "movielist"
	}
	return "showlist"
}

// MirrorPath returns the backend path segment for the catalog mirror.
func (k MediaKind) MirrorPath() string {
	if k == Movie {
		return "movies"
	}
	return "shows"
}

// Label is the human-readable plural ("Movies", "TV Shows").
func (k MediaKind) Label() string {
	if k == Movie {
		return "Movies"
	}
	return "TV Shows"
}

func (k MediaKind) String() string { return string(k) }

// ListKind is one of the three personal lists.
type ListKind string

const (
	Watchlist  ListKind = "watchlist"
	Favourites ListKind = "favourites"
	Watched    ListKind = "watched"
)

// ListKinds lists every [ListKind].
var ListKinds = []ListKind{Watchlist, Favourites, Watched}

// ParseListKind validates a list name.
func ParseListKind(s string) (ListKind, error) {
	switch ListKind(strings.ToLower(strings.TrimSpace(s))) {
	case Watchlist:
		return Watchlist, nil
	case Favourites, "favorites":
		return Favourites, nil
	case Watched:
		return Watched, nil
	default:
		return "", fmt.Errorf("unknown list %q (want watchlist, favourites or watched)", s)
	}
}

// Path is the view path of the list page.
func (l ListKind) Path() string { return "/" + string(l) }

// Label is the display name of the list.
func (l ListKind) Label() string {
	switch l {
	case Watchlist:
		return "Watchlist"
	case Favourites:
		return "Favourites"
	case Watched:
		return "Watched"
	default:
		return string(l)
	}
}

func (l ListKind) String() string { return string(l) }

// Filter selects which media kinds a list or search view shows.
type Filter string

const (
	FilterAll    Filter = "All"
	FilterMovies Filter = "Movies"
	FilterShows  Filter = "TV Shows"
)

var filters = []Filter{FilterAll, FilterMovies, FilterShows}

// ParseFilter accepts display names and CLI spellings.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "movies", "movie":
		return FilterMovies, nil
	case "tv shows", "tv", "shows", "show":
		return FilterShows, nil
	default:
		return "", fmt.Errorf("unknown filter %q (want all, movies or tv)", s)
	}
}

// Kinds returns the media kinds covered by the filter, movies first.
func (f Filter) Kinds() []MediaKind {
	switch f {
	case FilterMovies:
		return []MediaKind{Movie}
	case FilterShows:
		return []MediaKind{Show}
	default:
		return MediaKinds
	}
}

// Next cycles All → Movies → TV Shows → All.
func (f Filter) Next() Filter {
	for i, candidate := range filters {
		if candidate == f {
			return filters[(i+1)%len(filters)]
		}
	}
	return FilterAll
}

// Category is a catalog listing.
type Category string

const (
	Trending Category = "trending"
	Popular  Category = "popular"
	TopRated Category = "toprated"
)

var categories = []Category{Trending, Popular, TopRated}

// ParseCategory validates a catalog category name.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "")) {
	case "trending":
		return Trending, nil
	case "popular":
		return Popular, nil
	case "toprated", "top_rated":
		return TopRated, nil
	default:
		return "", fmt.Errorf("unknown category %q (want trending, popular or toprated)", s)
	}
}

// Next cycles through the categories.
func (c Category) Next() Category {
	for i, candidate := range categories {
		if candidate == c {
			return categories[(i+1)%len(categories)]
		}
	}
	return Trending
}

// Label is the human-readable category name.
func (c Category) Label() string {
	switch c {
	case Popular:
		return "Popular"
	case TopRated:
		return "Top Rated"
	default:
		return "Trending"
	}
}

// Window is the trending time window.
type Window string

const (
	Day  Window = "day"
	Week Window = "week"
)

// ParseWindow accepts "day" or "week"; empty means week.
func ParseWindow(s string) (Window, error) {
	switch Window(strings.ToLower(strings.TrimSpace(s))) {
	case "", Week:
		return Week, nil
	case Day:
		return Day, nil
	default:
		return "", fmt.Errorf("unknown trending window %q (want day or week)", s)
	}
}

// CatalogItem is a single movie or TV result from the catalog.
type CatalogItem struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	MediaType    string  `json:"media_type,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
}

// Kind reports the item's media kind from its type tag, falling back to
// "has a movie title ⇒ movie, else show".
func (c CatalogItem) Kind() MediaKind {
	switch c.MediaType {
	case "movie":
		return Movie
	case "tv":
		return Show
	}
	if c.Title != "" {
		return Movie
	}
	return Show
}

// DisplayTitle returns the movie title or the show name.
func (c CatalogItem) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return c.Name
}

// Date returns the release date for movies or the first air date for shows.
func (c CatalogItem) Date() string {
	if c.ReleaseDate != "" {
		return c.ReleaseDate
	}
	return c.FirstAirDate
}

// Year returns the four-digit year of [CatalogItem.Date], or "" when unknown.
func (c CatalogItem) Year() string {
	date := c.Date()
	if len(date) < 4 {
		return date
	}
	return date[:4]
}

// Key identifies the item across media kinds.
func (c CatalogItem) Key() string {
	return fmt.Sprintf("%s:%d", c.Kind(), c.ID)
}

// Page is one page of catalog results.
type Page struct {
	Results    []CatalogItem `json:"results"`
	TotalPages int           `json:"total_pages"`
}

// MediaItem is the snapshot of a catalog entry captured into a list.
//
// Director is always empty: list endpoints do not carry crew data.
type MediaItem struct {
	Title       string `json:"title"`
	ReleaseYear *int   `json:"releaseYear"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	Director    string `json:"director"`
	ImageURL    string `json:"imageUrl"`
}

// Year renders the release year or "" when unknown.
func (m MediaItem) Year() string {
	if m.ReleaseYear == nil {
		return ""
	}
	return strconv.Itoa(*m.ReleaseYear)
}

// Capture normalizes a catalog result into a [MediaItem].
//
// imageURL resolves the relative poster path; it may be nil when no image is wanted.
func Capture(item CatalogItem, imageURL func(string) string) MediaItem {
	genres := make([]string, len(item.GenreIDs))
	for i, id := range item.GenreIDs {
		genres[i] = strconv.Itoa(id)
	}

	media := MediaItem{
		Title:       item.DisplayTitle(),
		ReleaseYear: parseYear(item.Date()),
		Genre:       strings.Join(genres, ","),
		Description: item.Overview,
	}
	if imageURL != nil {
		media.ImageURL = imageURL(item.PosterPath)
	}
	return media
}

func parseYear(date string) *int {
	if len(date) < 4 {
		return nil
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return nil
	}
	return &year
}

// ListEntry is one membership of a media item in a user list.
type ListEntry struct {
	ID     int64     `json:"id"`
	TmdbID int64     `json:"tmdbId"`
	Kind   MediaKind `json:"kind"`
	List   ListKind  `json:"list"`
	Media  MediaItem `json:"media"`
}

// Key identifies the entry across media kinds (e.g. "movie:42").
func (e ListEntry) Key() string {
	return fmt.Sprintf("%s:%d", e.Kind, e.TmdbID)
}

// Identity is the backend's answer to "who am I".
type Identity struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
}

// MirrorEntry is a row of the backend's copy of the catalog.
type MirrorEntry struct {
	ID     int64 `json:"id,omitempty"`
	TmdbID int64 `json:"tmdbId"`
	MediaItem
}
