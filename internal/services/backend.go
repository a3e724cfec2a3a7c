package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
)

const defaultBackendBaseURL = "http://localhost:8080"

// APIError is returned for any non-2xx backend response. Its message is the raw body text.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if body := strings.TrimSpace(e.Body); body != "" {
		return body
	}
	return fmt.Sprintf("backend returned %d", e.StatusCode)
}

func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// BackendService talks to the tracker backend over JSON with a cookie session.
//
// There is no retry and no caching. Every call is one round trip.
type BackendService struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     *log.Logger
}

var _ Backend = (*BackendService)(nil)

// BackendOption configures a [BackendService].
type BackendOption func(*BackendService)

// WithBackendHTTPClient uses a copy of client. Its cookie jar is replaced unless already set.
func WithBackendHTTPClient(client *http.Client) BackendOption {
	return func(b *BackendService) {
		if client == nil {
			return
		}
		c := *client
		if c.Jar == nil {
			c.Jar = b.httpClient.Jar
		}
		b.httpClient = &c
	}
}

// WithTimeout bounds every request. Zero waits forever.
func WithTimeout(d time.Duration) BackendOption {
	return func(b *BackendService) { b.httpClient.Timeout = d }
}

// WithBackendLogger sets the logger used for request tracing.
func WithBackendLogger(l *log.Logger) BackendOption {
	return func(b *BackendService) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBackendService creates a client for the backend at baseURL (default http://localhost:8080).
func NewBackendService(baseURL string, opts ...BackendOption) (*BackendService, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBackendBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: backend url %q", shared.ErrInvalidConfig, baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	b := &BackendService{
		baseURL:    u,
		httpClient: &http.Client{Jar: jar},
		logger:     shared.WithLogger(shared.NewLogger(nil), "component", "backend"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// NewBackendServiceFromConfig builds a [BackendService] from the [backend] config section.
func NewBackendServiceFromConfig(cfg shared.BackendConfig, logger *log.Logger) (*BackendService, error) {
	return NewBackendService(cfg.BaseURL, WithTimeout(cfg.Timeout()), WithBackendLogger(logger))
}

// BaseURL returns the backend root URL.
func (b *BackendService) BaseURL() string { return b.baseURL.String() }

// HTTPClient exposes the session-carrying client for raw calls (see [APIService]).
func (b *BackendService) HTTPClient() *http.Client { return b.httpClient }

// Cookies returns the session cookies held for the backend.
func (b *BackendService) Cookies() []*http.Cookie {
	return b.httpClient.Jar.Cookies(b.baseURL)
}

// SetCookies restores previously exported session cookies.
func (b *BackendService) SetCookies(cookies []*http.Cookie) {
	b.httpClient.Jar.SetCookies(b.baseURL, cookies)
}

// Register creates an account. 409 maps to [ReasonUsernameTaken].
func (b *BackendService) Register(ctx context.Context, username, password string) (AuthResult, error) {
	return b.authenticate(ctx, "/api/user/register", username, password, "Registration failed.")
}

// Login starts a session. 401 maps to [ReasonInvalidCredentials].
func (b *BackendService) Login(ctx context.Context, username, password string) (AuthResult, error) {
	return b.authenticate(ctx, "/api/user/login", username, password, "Login failed.")
}

func (b *BackendService) authenticate(ctx context.Context, path, username, password, fallback string) (AuthResult, error) {
	status, body, err := b.do(ctx, http.MethodPost, path, map[string]string{"username": username, "password": password})
	if err != nil {
		return AuthResult{}, err
	}

	var payload struct {
		Message  string `json:"message"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		payload.Message = strings.TrimSpace(string(body))
	}

	if status >= 200 && status < 300 {
		result := AuthResult{OK: true, Username: payload.Username, Message: payload.Message}
		if result.Username == "" {
			result.Username = strings.TrimSpace(username)
		}
		return result, nil
	}

	result := AuthResult{Message: payload.Message}
	switch status {
	case http.StatusUnauthorized:
		result.Reason = ReasonInvalidCredentials
		fallback = "Login failed, wrong username or password"
	case http.StatusConflict:
		result.Reason = ReasonUsernameTaken
		fallback = "Registration failed, username already taken."
	default:
		result.Reason = ReasonRejected
	}
	if result.Message == "" {
		result.Message = fallback
	}
	return result, nil
}

// Logout ends the backend session and drops the local cookies.
func (b *BackendService) Logout(ctx context.Context) error {
	_, err := b.expect(ctx, http.MethodPost, "/api/user/logout", nil)
	b.clearCookies()
	return err
}

// WhoAmI reports the session's user. A 401 means "not authenticated" and is not an error.
func (b *BackendService) WhoAmI(ctx context.Context) (models.Identity, error) {
	status, body, err := b.do(ctx, http.MethodGet, "/api/user/me", nil)
	if err != nil {
		return models.Identity{}, err
	}
	if status == http.StatusUnauthorized {
		return models.Identity{}, nil
	}
	if status < 200 || status >= 300 {
		return models.Identity{}, &APIError{StatusCode: status, Body: string(body)}
	}

	var identity models.Identity
	if err := json.Unmarshal(body, &identity); err != nil {
		return models.Identity{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if identity.Username == "" {
		identity.Authenticated = false
	}
	return identity, nil
}

// AddToList posts {username, tmdbId, type, ...item} to the list's add endpoint.
func (b *BackendService) AddToList(ctx context.Context, username string, mediaID int64, list models.ListKind, kind models.MediaKind, item models.MediaItem) error {
	payload, err := mergePayload(item, map[string]any{
		"username": username,
		"tmdbId":   mediaID,
		"type":     list,
	})
	if err != nil {
		return err
	}

	_, err = b.expect(ctx, http.MethodPost, listPath(kind, list)+"/add", payload)
	return err
}

// RemoveFromList posts {username, tmdbId, type} to the list's remove endpoint.
func (b *BackendService) RemoveFromList(ctx context.Context, username string, mediaID int64, list models.ListKind, kind models.MediaKind) error {
	payload := map[string]any{"username": username, "tmdbId": mediaID, "type": list}
	_, err := b.expect(ctx, http.MethodPost, listPath(kind, list)+"/remove", payload)
	return err
}

// FetchList returns the members of (username, kind, list) in server order.
func (b *BackendService) FetchList(ctx context.Context, username string, list models.ListKind, kind models.MediaKind) ([]models.ListEntry, error) {
	path := listPath(kind, list) + "?username=" + url.QueryEscape(username)
	body, err := b.expect(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var rows []listRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	entries := make([]models.ListEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry(list, kind))
	}
	return entries, nil
}

// SearchMirror looks up the backend's copy of the catalog by title.
func (b *BackendService) SearchMirror(ctx context.Context, kind models.MediaKind, title string) ([]models.MirrorEntry, error) {
	path := "/api/" + kind.MirrorPath()
	if title = strings.TrimSpace(title); title != "" {
		path += "?title=" + url.QueryEscape(title)
	}

	body, err := b.expect(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var entries []models.MirrorEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if entries == nil {
		entries = []models.MirrorEntry{}
	}
	return entries, nil
}

// CreateMirror ingests item into the backend's copy of the catalog.
func (b *BackendService) CreateMirror(ctx context.Context, kind models.MediaKind, tmdbID int64, item models.MediaItem) (models.MirrorEntry, error) {
	body, err := b.expect(ctx, http.MethodPost, "/api/"+kind.MirrorPath(), models.MirrorEntry{TmdbID: tmdbID, MediaItem: item})
	if err != nil {
		return models.MirrorEntry{}, err
	}

	var created models.MirrorEntry
	if err := json.Unmarshal(body, &created); err != nil {
		return models.MirrorEntry{}, fmt.Errorf("failed to decode response: %w", err)
	}
	return created, nil
}

// expect performs the request and turns a non-2xx status into an [APIError].
func (b *BackendService) expect(ctx context.Context, method, path string, payload any) ([]byte, error) {
	status, body, err := b.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}
	return body, nil
}

func (b *BackendService) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL.String()+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	b.logger.Debug("backend request", "method", method, "path", req.URL.Path, "status", resp.StatusCode)
	return resp.StatusCode, body, nil
}

func (b *BackendService) clearCookies() {
	cookies := b.Cookies()
	for _, c := range cookies {
		c.MaxAge = -1
	}
	b.SetCookies(cookies)
}

func listPath(kind models.MediaKind, list models.ListKind) string {
	return fmt.Sprintf("/api/user/%s/%s", kind.ListPath(), list)
}

// mergePayload flattens item into a JSON object and overlays extra.
func mergePayload(item models.MediaItem, extra map[string]any) (map[string]any, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to encode media item: %w", err)
	}

	payload := map[string]any{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to encode media item: %w", err)
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload, nil
}

// listRow accepts either {id, user, movie|show, type} or a flattened media object.
type listRow struct {
	ID    int64     `json:"id"`
	Movie *mediaRow `json:"movie"`
	Show  *mediaRow `json:"show"`
	mediaRow
}

type mediaRow struct {
	TmdbID      int64  `json:"tmdbId"`
	Title       string `json:"title"`
	ReleaseYear *int   `json:"releaseYear"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	Director    string `json:"director"`
	ImageURL    string `json:"imageUrl"`
}

func (r listRow) entry(list models.ListKind, kind models.MediaKind) models.ListEntry {
	media := r.mediaRow
	switch {
	case r.Movie != nil:
		media = *r.Movie
	case r.Show != nil:
		media = *r.Show
	}

	return models.ListEntry{
		ID:     r.ID,
		TmdbID: media.TmdbID,
		Kind:   kind,
		List:   list,
		Media: models.MediaItem{
			Title:       media.Title,
			ReleaseYear: media.ReleaseYear,
			Genre:       media.Genre,
			Description: media.Description,
			Director:    media.Director,
			ImageURL:    media.ImageURL,
		},
	}
}
