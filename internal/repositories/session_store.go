package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/mtx/internal/models"
)

// CookieSource is a backend client whose cookie session can be exported and restored.
type CookieSource interface {
	BaseURL() string
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
}

// storedCookie is the on-disk form of a session cookie. The jar only reports name and value.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionStoreAdapter implements tasks.SessionStore using [SessionRepository].
//
// It snapshots the backend's cookie jar on sign in so the next CLI invocation
// can restore the session without asking for credentials again.
type SessionStoreAdapter struct {
	repo   *SessionRepository
	source CookieSource
}

// NewSessionStoreAdapter creates a new SessionStoreAdapter for the given backend client
func NewSessionStoreAdapter(repo *SessionRepository, source CookieSource) *SessionStoreAdapter {
	return &SessionStoreAdapter{repo: repo, source: source}
}

// SaveSession records username and the current cookies. A pending return path is kept.
func (a *SessionStoreAdapter) SaveSession(_ context.Context, username string) error {
	record, err := a.load()
	if err != nil {
		return err
	}

	cookies, err := encodeCookies(a.source.Cookies())
	if err != nil {
		return err
	}

	record.SetUsername(username)
	record.SetCookies(cookies)
	return a.repo.Upsert(record)
}

// ClearSession forgets the username and cookies for the backend.
func (a *SessionStoreAdapter) ClearSession(_ context.Context) error {
	record, err := a.load()
	if err != nil {
		return err
	}

	record.SetUsername("")
	record.SetCookies("[]")
	return a.repo.Upsert(record)
}

// Restore loads stored cookies into the backend client and returns the username they belong to.
// An unknown backend restores nothing and returns "".
func (a *SessionStoreAdapter) Restore() (string, error) {
	record, err := a.repo.GetByBackend(a.source.BaseURL())
	if err != nil || record == nil {
		return "", err
	}

	cookies, err := decodeCookies(record.Cookies())
	if err != nil {
		return "", err
	}
	if len(cookies) > 0 {
		a.source.SetCookies(cookies)
	}
	return record.Username(), nil
}

// SetReturnPath stores the view a sign-in redirect should come back to.
func (a *SessionStoreAdapter) SetReturnPath(path string) error {
	record, err := a.load()
	if err != nil {
		return err
	}

	record.SetReturnPath(path)
	return a.repo.Upsert(record)
}

// TakeReturnPath returns the pending return path and clears it.
func (a *SessionStoreAdapter) TakeReturnPath() (string, error) {
	record, err := a.repo.GetByBackend(a.source.BaseURL())
	if err != nil || record == nil || record.ReturnPath() == "" {
		return "", err
	}

	path := record.ReturnPath()
	record.SetReturnPath("")
	if err := a.repo.Update(record); err != nil {
		return "", err
	}
	return path, nil
}

func (a *SessionStoreAdapter) load() (*models.SessionRecord, error) {
	record, err := a.repo.GetByBackend(a.source.BaseURL())
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = models.NewSessionRecord(a.source.BaseURL())
	}
	return record, nil
}

func encodeCookies(cookies []*http.Cookie) (string, error) {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to encode cookies: %w", err)
	}
	return string(data), nil
}

func decodeCookies(data string) ([]*http.Cookie, error) {
	if data == "" {
		return nil, nil
	}

	var stored []storedCookie
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}
	return cookies, nil
}
