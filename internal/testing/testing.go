// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/mtx/internal/models"
)

// CatalogCall is one call received by [StubCatalog].
type CatalogCall struct {
	Op       string // fetch, search or details
	Category models.Category
	Kind     models.MediaKind
	Query    string
	Page     int
}

// StubCatalog is a test double for [services.Catalog] serving canned pages.
//
// Pages are keyed by media kind. Set Err (or ErrFor) to make calls fail, and Gate
// to block calls until the test releases them.
type StubCatalog struct {
	mu     sync.Mutex
	Pages  map[models.MediaKind]models.Page
	Items  map[int64]models.CatalogItem
	Err    error
	ErrFor map[models.MediaKind]error
	Gate   func(call CatalogCall)
	calls  []CatalogCall
}

// NewStubCatalog creates a [StubCatalog] with empty pages.
func NewStubCatalog() *StubCatalog {
	return &StubCatalog{
		Pages:  map[models.MediaKind]models.Page{},
		Items:  map[int64]models.CatalogItem{},
		ErrFor: map[models.MediaKind]error{},
	}
}

func (s *StubCatalog) Fetch(ctx context.Context, category models.Category, kind models.MediaKind, window models.Window, page int) (models.Page, error) {
	return s.serve(CatalogCall{Op: "fetch", Category: category, Kind: kind, Page: page})
}

func (s *StubCatalog) Search(ctx context.Context, kind models.MediaKind, query string, page int) (models.Page, error) {
	if strings.TrimSpace(query) == "" {
		return models.Page{Results: []models.CatalogItem{}, TotalPages: 0}, nil
	}
	return s.serve(CatalogCall{Op: "search", Kind: kind, Query: query, Page: page})
}

func (s *StubCatalog) Details(ctx context.Context, kind models.MediaKind, id int64) (models.CatalogItem, error) {
	s.record(CatalogCall{Op: "details", Kind: kind})
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.CatalogItem{}, s.Err
	}
	item, ok := s.Items[id]
	if !ok {
		return models.CatalogItem{}, errors.New("404")
	}
	return item, nil
}

func (s *StubCatalog) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://img.test/w300" + path
}

// Calls returns a copy of every recorded call.
func (s *StubCatalog) Calls() []CatalogCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]CatalogCall(nil), s.calls...)
}

func (s *StubCatalog) record(call CatalogCall) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	gate := s.Gate
	s.mu.Unlock()

	if gate != nil {
		gate(call)
	}
}

func (s *StubCatalog) serve(call CatalogCall) (models.Page, error) {
	s.record(call)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ErrFor[call.Kind]; err != nil {
		return models.Page{}, err
	}
	if s.Err != nil {
		return models.Page{}, s.Err
	}
	return s.Pages[call.Kind], nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
