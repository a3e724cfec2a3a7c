package models

import (
	"testing"
)

func TestCatalogItemKind(t *testing.T) {
	tests := []struct {
		name string
		item CatalogItem
		want MediaKind
	}{
		{name: "movie tag", item: CatalogItem{MediaType: "movie", Name: "n"}, want: Movie},
		{name: "tv tag", item: CatalogItem{MediaType: "tv", Title: "t"}, want: Show},
		{name: "title without tag", item: CatalogItem{Title: "Heat"}, want: Movie},
		{name: "name without tag", item: CatalogItem{Name: "Severance"}, want: Show},
		{name: "person tag falls back", item: CatalogItem{MediaType: "person", Name: "Someone"}, want: Show},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.item.Kind(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCapture(t *testing.T) {
	imageURL := func(path string) string {
		if path == "" {
			return ""
		}
		return "https://img.test/w300" + path
	}

	t.Run("movie", func(t *testing.T) {
		item := CatalogItem{
			ID:          42,
			Title:       "X",
			Overview:    "about x",
			ReleaseDate: "1999-03-31",
			GenreIDs:    []int{28, 878},
			PosterPath:  "/x.jpg",
		}

		media := Capture(item, imageURL)

		if media.Title != "X" {
			t.Errorf("expected title X, got %q", media.Title)
		}
		if media.ReleaseYear == nil || *media.ReleaseYear != 1999 {
			t.Errorf("expected release year 1999, got %v", media.ReleaseYear)
		}
		if media.Genre != "28,878" {
			t.Errorf("expected genre 28,878, got %q", media.Genre)
		}
		if media.Director != "" {
			t.Errorf("expected empty director, got %q", media.Director)
		}
		if media.ImageURL != "https://img.test/w300/x.jpg" {
			t.Errorf("unexpected image url %q", media.ImageURL)
		}
	})

	t.Run("show uses name and first air date", func(t *testing.T) {
		media := Capture(CatalogItem{Name: "Show", FirstAirDate: "2022-02-18"}, imageURL)

		if media.Title != "Show" {
			t.Errorf("expected title Show, got %q", media.Title)
		}
		if media.Year() != "2022" {
			t.Errorf("expected year 2022, got %q", media.Year())
		}
	})

	t.Run("missing or malformed dates are null", func(t *testing.T) {
		for _, date := range []string{"", "19", "abcd-01-01"} {
			media := Capture(CatalogItem{Title: "t", ReleaseDate: date}, nil)
			if media.ReleaseYear != nil {
				t.Errorf("date %q: expected nil year, got %d", date, *media.ReleaseYear)
			}
			if media.ImageURL != "" {
				t.Errorf("expected no image url without resolver, got %q", media.ImageURL)
			}
		}
	})
}

func TestParsing(t *testing.T) {
	t.Run("list kinds", func(t *testing.T) {
		for in, want := range map[string]ListKind{"watchlist": Watchlist, "Favorites": Favourites, " watched ": Watched} {
			got, err := ParseListKind(in)
			if err != nil {
				t.Fatalf("ParseListKind(%q) failed: %v", in, err)
			}
			if got != want {
				t.Errorf("ParseListKind(%q) = %s, want %s", in, got, want)
			}
		}

		if _, err := ParseListKind("wishlist"); err == nil {
			t.Error("expected error for unknown list")
		}
	})

	t.Run("filters", func(t *testing.T) {
		for in, want := range map[string]Filter{"": FilterAll, "movies": FilterMovies, "tv": FilterShows, "TV Shows": FilterShows} {
			got, err := ParseFilter(in)
			if err != nil {
				t.Fatalf("ParseFilter(%q) failed: %v", in, err)
			}
			if got != want {
				t.Errorf("ParseFilter(%q) = %s, want %s", in, got, want)
			}
		}
	})

	t.Run("media kinds", func(t *testing.T) {
		if k, _ := ParseMediaKind("shows"); k != Show {
			t.Errorf("expected tv, got %s", k)
		}
		if _, err := ParseMediaKind("person"); err == nil {
			t.Error("expected error for person")
		}
	})

	t.Run("categories", func(t *testing.T) {
		if c, _ := ParseCategory("top-rated"); c != TopRated {
			t.Errorf("expected toprated, got %s", c)
		}
	})
}

func TestFilterCycle(t *testing.T) {
	f := FilterAll
	seen := []Filter{f}
	for range 3 {
		f = f.Next()
		seen = append(seen, f)
	}

	want := []Filter{FilterAll, FilterMovies, FilterShows, FilterAll}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], seen[i])
		}
	}

	if kinds := FilterAll.Kinds(); len(kinds) != 2 || kinds[0] != Movie || kinds[1] != Show {
		t.Errorf("All must cover movies then shows, got %v", kinds)
	}
}

func TestMediaKindPaths(t *testing.T) {
	if Movie.ListPath() != "movielist" || Show.ListPath() != "showlist" {
		t.Error("unexpected list paths")
	}
	if Movie.MirrorPath() != "movies" || Show.MirrorPath() != "shows" {
		t.Error("unexpected mirror paths")
	}
}

func TestActivityValidate(t *testing.T) {
	a := NewActivity("alice1", OpAdd, Watchlist, Movie, 42, "X")
	if err := a.Validate(); err != nil {
		t.Fatalf("expected valid activity, got %v", err)
	}

	a.SetOutcome(nil)
	if !a.OK() || a.ErrorText() != "" {
		t.Error("nil outcome must mark activity ok")
	}

	bad := NewActivity("", OpAdd, Watchlist, Movie, 42, "X")
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing username")
	}

	bad = NewActivity("alice1", "toggle", Watchlist, Movie, 42, "X")
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown op")
	}
}
