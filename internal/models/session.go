package models

import (
	"errors"
	"time"
)

// SessionRecord persists a CLI session for one backend so it survives across invocations.
//
// Cookies holds the JSON-encoded cookie jar contents for the backend URL.
type SessionRecord struct {
	id         string
	backendURL string
	username   string
	cookies    string
	returnPath string
	createdAt  time.Time
	updatedAt  time.Time
}

// NewSessionRecord creates an empty session for the backend at url.
func NewSessionRecord(backendURL string) *SessionRecord {
	now := time.Now()
	return &SessionRecord{backendURL: backendURL, createdAt: now, updatedAt: now}
}

func (s *SessionRecord) ID() string           { return s.id }
func (s *SessionRecord) CreatedAt() time.Time { return s.createdAt }
func (s *SessionRecord) UpdatedAt() time.Time { return s.updatedAt }
func (s *SessionRecord) BackendURL() string   { return s.backendURL }
func (s *SessionRecord) Username() string     { return s.username }
func (s *SessionRecord) Cookies() string      { return s.cookies }
func (s *SessionRecord) ReturnPath() string   { return s.returnPath }

func (s *SessionRecord) SetID(id string)          { s.id = id }
func (s *SessionRecord) SetUsername(u string)     { s.username = u }
func (s *SessionRecord) SetCookies(c string)      { s.cookies = c }
func (s *SessionRecord) SetReturnPath(p string)   { s.returnPath = p }
func (s *SessionRecord) SetCreatedAt(t time.Time) { s.createdAt = t }
func (s *SessionRecord) SetUpdatedAt(t time.Time) { s.updatedAt = t }

// Validate requires a backend URL; every other field may be empty (logged out).
func (s *SessionRecord) Validate() error {
	if s.backendURL == "" {
		return errors.New("session backend url is required")
	}
	return nil
}
