package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultCatalogBaseURL = "https://api.themoviedb.org/3"
	defaultImageBaseURL   = "https://image.tmdb.org/t/p"
	defaultImageSize      = "w300"
)

// StatusError is returned when the catalog answers with a non-OK status.
//
// Its message is the numeric status code only; the body is never read.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return strconv.Itoa(e.Code) }

func (e *StatusError) Unwrap() error { return shared.ErrCatalogRequest }

// Is lets a 404 match [shared.ErrMediaNotFound].
func (e *StatusError) Is(target error) bool {
	return target == shared.ErrMediaNotFound && e.Code == http.StatusNotFound
}

// CatalogService reads movies and TV shows from the TMDB v3 API.
type CatalogService struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	imageSize    string
	language     string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       *log.Logger
}

var _ Catalog = (*CatalogService)(nil)

// CatalogOption configures a [CatalogService].
type CatalogOption func(*CatalogService)

// WithCatalogHTTPClient overrides the default HTTP client.
func WithCatalogHTTPClient(client *http.Client) CatalogOption {
	return func(c *CatalogService) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCatalogTimeout bounds every request. Zero waits forever.
func WithCatalogTimeout(d time.Duration) CatalogOption {
	return func(c *CatalogService) { c.httpClient.Timeout = d }
}

// WithRateLimit paces outbound requests. A non-positive rps disables the limiter.
func WithRateLimit(rps float64, burst int) CatalogOption {
	return func(c *CatalogService) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithImageBase sets the image CDN base and the poster width segment (e.g. "w300").
func WithImageBase(baseURL, size string) CatalogOption {
	return func(c *CatalogService) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.imageBaseURL = strings.TrimRight(baseURL, "/")
		}
		if size = strings.TrimSpace(size); size != "" {
			c.imageSize = size
		}
	}
}

// WithLanguage sets the language parameter sent with every request.
func WithLanguage(language string) CatalogOption {
	return func(c *CatalogService) { c.language = strings.TrimSpace(language) }
}

// WithCatalogLogger sets the logger used for request tracing.
func WithCatalogLogger(l *log.Logger) CatalogOption {
	return func(c *CatalogService) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCatalogService creates a TMDB client. An empty baseURL uses the public API.
func NewCatalogService(apiKey, baseURL string, opts ...CatalogOption) (*CatalogService, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: tmdb api key required", shared.ErrMissingCredentials)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultCatalogBaseURL
	}

	c := &CatalogService{
		apiKey:       apiKey,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: defaultImageBaseURL,
		imageSize:    defaultImageSize,
		httpClient:   &http.Client{},
		logger:       shared.WithLogger(shared.NewLogger(nil), "component", "catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewCatalogServiceFromConfig builds a [CatalogService] from the [catalog] config section.
func NewCatalogServiceFromConfig(cfg shared.CatalogConfig, logger *log.Logger) (*CatalogService, error) {
	return NewCatalogService(cfg.APIKey, cfg.BaseURL,
		WithImageBase(cfg.ImageBaseURL, cfg.ImageSize),
		WithLanguage(cfg.Language),
		WithRateLimit(cfg.RequestsPerSecond, cfg.Burst),
		WithCatalogTimeout(cfg.Timeout()),
		WithCatalogLogger(logger),
	)
}

// Trending returns the trending page for kind over window (day or week).
func (c *CatalogService) Trending(ctx context.Context, kind models.MediaKind, window models.Window, page int) (models.Page, error) {
	if window == "" {
		window = models.Week
	}
	return c.page(ctx, fmt.Sprintf("/trending/%s/%s", kind, window), kind, nil, page)
}

// Popular returns the popular page for kind.
func (c *CatalogService) Popular(ctx context.Context, kind models.MediaKind, page int) (models.Page, error) {
	return c.page(ctx, fmt.Sprintf("/%s/popular", kind), kind, nil, page)
}

// TopRated returns the top rated page for kind.
func (c *CatalogService) TopRated(ctx context.Context, kind models.MediaKind, page int) (models.Page, error) {
	return c.page(ctx, fmt.Sprintf("/%s/top_rated", kind), kind, nil, page)
}

// Fetch dispatches to the listing named by category.
func (c *CatalogService) Fetch(ctx context.Context, category models.Category, kind models.MediaKind, window models.Window, page int) (models.Page, error) {
	switch category {
	case models.Trending:
		return c.Trending(ctx, kind, window, page)
	case models.Popular:
		return c.Popular(ctx, kind, page)
	case models.TopRated:
		return c.TopRated(ctx, kind, page)
	default:
		return models.Page{}, fmt.Errorf("%w: unknown category %q", shared.ErrInvalidArgument, category)
	}
}

// Search looks up query among titles of kind.
//
// A blank query returns an empty page with zero total pages and makes no request.
func (c *CatalogService) Search(ctx context.Context, kind models.MediaKind, query string, page int) (models.Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.Page{Results: []models.CatalogItem{}, TotalPages: 0}, nil
	}
	return c.page(ctx, fmt.Sprintf("/search/%s", kind), kind, url.Values{"query": {query}}, page)
}

// Details fetches a single movie or show. A 404 matches [shared.ErrMediaNotFound].
func (c *CatalogService) Details(ctx context.Context, kind models.MediaKind, id int64) (models.CatalogItem, error) {
	var payload struct {
		models.CatalogItem
		Genres []struct {
			ID int `json:"id"`
		} `json:"genres"`
	}
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", kind, id), nil, &payload); err != nil {
		return models.CatalogItem{}, err
	}

	item := payload.CatalogItem
	if len(item.GenreIDs) == 0 {
		for _, g := range payload.Genres {
			item.GenreIDs = append(item.GenreIDs, g.ID)
		}
	}
	if item.MediaType == "" {
		item.MediaType = string(kind)
	}
	return item, nil
}

// ImageURL resolves a poster path against the image CDN.
//
// Empty paths give "", absolute URLs pass through unchanged.
func (c *CatalogService) ImageURL(path string) string {
	path = strings.TrimSpace(path)
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, "http://"), strings.HasPrefix(path, "https://"):
		return path
	case !strings.HasPrefix(path, "/"):
		path = "/" + path
	}
	return c.imageBaseURL + "/" + c.imageSize + path
}

func (c *CatalogService) page(ctx context.Context, path string, kind models.MediaKind, params url.Values, page int) (models.Page, error) {
	if params == nil {
		params = url.Values{}
	}
	if page < 1 {
		page = 1
	}
	params.Set("page", strconv.Itoa(page))

	var payload struct {
		Results    []models.CatalogItem `json:"results"`
		TotalPages int                  `json:"total_pages"`
	}
	if err := c.get(ctx, path, params, &payload); err != nil {
		return models.Page{}, err
	}

	result := models.Page{Results: payload.Results, TotalPages: payload.TotalPages}
	if result.Results == nil {
		result.Results = []models.CatalogItem{}
	}
	if result.TotalPages < 1 {
		result.TotalPages = 1
	}
	// kind-scoped endpoints omit media_type
	for i := range result.Results {
		if result.Results[i].MediaType == "" {
			result.Results[i].MediaType = string(kind)
		}
	}
	return result, nil
}

func (c *CatalogService) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(start)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("catalog request", "path", path, "status", resp.StatusCode, "latency", latency)

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

// IsStatus reports whether err is a catalog [StatusError] with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
