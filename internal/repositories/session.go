package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
)

// SessionRepository persists one [models.SessionRecord] per backend URL.
//
// Sessions are overwritten rather than soft-deleted: signing out clears the row in place.
type SessionRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.SessionRecord] = (*SessionRepository)(nil)

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, backend_url, username, cookies, return_path, created_at, updated_at`

// Create inserts a new session row with a generated ID
func (r *SessionRepository) Create(session *models.SessionRecord) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	id := shared.GenerateID()
	query := `
		INSERT INTO sessions (id, backend_url, username, cookies, return_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query, id, session.BackendURL(), session.Username(), cookiesOrEmpty(session.Cookies()),
		session.ReturnPath(), session.CreatedAt(), session.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	session.SetID(id)
	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(id string) (*models.SessionRecord, error) {
	session, err := scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// GetByBackend retrieves the session stored for backendURL.
// Returns (nil, nil) when the backend has never been signed in to.
func (r *SessionRepository) GetByBackend(backendURL string) (*models.SessionRecord, error) {
	session, err := scanSession(r.db.QueryRow(`SELECT `+sessionColumns+` FROM sessions WHERE backend_url = ?`, backendURL))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return session, nil
}

// Update modifies an existing session
func (r *SessionRepository) Update(session *models.SessionRecord) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	session.SetUpdatedAt(now)

	query := `
		UPDATE sessions
		SET username = ?, cookies = ?, return_path = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, session.Username(), cookiesOrEmpty(session.Cookies()), session.ReturnPath(), now, session.ID())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return expectOne(result, "session", session.ID())
}

// Upsert stores session under its backend URL, creating the row when it does not exist yet.
func (r *SessionRepository) Upsert(session *models.SessionRecord) error {
	existing, err := r.GetByBackend(session.BackendURL())
	if err != nil {
		return err
	}
	if existing == nil {
		return r.Create(session)
	}

	session.SetID(existing.ID())
	session.SetCreatedAt(existing.CreatedAt())
	return r.Update(session)
}

// Delete removes a session by ID
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectOne(result, "session", id)
}

// List retrieves all sessions ordered by backend URL.
//
// Supported criteria: "signed_in" (bool) keeps only sessions with a username.
func (r *SessionRepository) List(criteria map[string]any) ([]*models.SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if signedIn, ok := criteria["signed_in"].(bool); ok && signedIn {
		query += ` WHERE username != ''`
	}
	query += ` ORDER BY backend_url ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*models.SessionRecord{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return sessions, nil
}

func scanSession(s scanner) (*models.SessionRecord, error) {
	var (
		id         string
		backendURL string
		username   string
		cookies    string
		returnPath string
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := s.Scan(&id, &backendURL, &username, &cookies, &returnPath, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	session := models.NewSessionRecord(backendURL)
	session.SetID(id)
	session.SetUsername(username)
	session.SetCookies(cookies)
	session.SetReturnPath(returnPath)
	session.SetCreatedAt(createdAt)
	session.SetUpdatedAt(updatedAt)
	return session, nil
}

func cookiesOrEmpty(c string) string {
	if c == "" {
		return "[]"
	}
	return c
}
