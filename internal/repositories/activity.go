package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
)

// ActivityRepository implements [models.Repository] for [models.Activity] persistence.
//
// It also satisfies the synchronizer's recorder, so every list mutation that reaches
// the backend ends up in the activity log.
type ActivityRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Activity] = (*ActivityRepository)(nil)

// NewActivityRepository creates a new [ActivityRepository] with the given database connection
func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

const activityColumns = `id, sequence, username, op, list, kind, tmdb_id, title, ok, error, created_at, updated_at, deleted_at`

// Create inserts a new activity with generated ID and sequence
func (r *ActivityRepository) Create(activity *models.Activity) error {
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "activities")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO activities (id, sequence, username, op, list, kind, tmdb_id, title, ok, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id, sequence, activity.Username(), string(activity.Op()), string(activity.List()), string(activity.Kind()),
		activity.TmdbID(), activity.Title(), activity.OK(), activity.ErrorText(), activity.CreatedAt(), activity.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	activity.SetID(id)
	activity.SetSequence(sequence)
	return nil
}

// Get retrieves an activity by ID, excluding soft-deleted rows
func (r *ActivityRepository) Get(id string) (*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = ? AND deleted_at IS NULL`

	activity, err := scanActivity(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("activity not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	return activity, nil
}

// Update rewrites the outcome of an existing activity. The mutation it describes never changes.
func (r *ActivityRepository) Update(activity *models.Activity) error {
	if err := activity.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	activity.SetUpdatedAt(now)

	query := `
		UPDATE activities
		SET title = ?, ok = ?, error = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, activity.Title(), activity.OK(), activity.ErrorText(), now, activity.ID())
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return expectOne(result, "activity", activity.ID())
}

// Delete soft-deletes an activity by ID
func (r *ActivityRepository) Delete(id string) error {
	query := `UPDATE activities SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	return expectOne(result, "activity", id)
}

// List retrieves activities newest first.
//
// Supported criteria: "username" (string), "list" ([models.ListKind]), "ok" (bool) and "limit" (int).
func (r *ActivityRepository) List(criteria map[string]any) ([]*models.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE deleted_at IS NULL`
	args := []any{}

	if username, ok := criteria["username"].(string); ok && username != "" {
		query += " AND username = ?"
		args = append(args, username)
	}
	if list, ok := criteria["list"].(models.ListKind); ok && list != "" {
		query += " AND list = ?"
		args = append(args, string(list))
	}
	if ok, present := criteria["ok"].(bool); present {
		query += " AND ok = ?"
		args = append(args, ok)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	activities := []*models.Activity{}
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return activities, nil
}

// Recent returns the newest limit activities of username. A zero limit returns all of them.
func (r *ActivityRepository) Recent(username string, limit int) ([]*models.Activity, error) {
	return r.List(map[string]any{"username": username, "limit": limit})
}

// Prune soft-deletes every activity older than cutoff and reports how many rows it touched.
func (r *ActivityRepository) Prune(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		`UPDATE activities SET deleted_at = ? WHERE created_at < ? AND deleted_at IS NULL`,
		time.Now(), cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune activities: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (*models.Activity, error) {
	var (
		id        string
		sequence  int
		username  string
		op        string
		list      string
		kind      string
		tmdbID    int64
		title     string
		ok        bool
		errText   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &username, &op, &list, &kind, &tmdbID, &title, &ok, &errText, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	activity := models.NewActivity(username, models.Operation(op), models.ListKind(list), models.MediaKind(kind), tmdbID, title)
	activity.SetID(id)
	activity.SetSequence(sequence)
	activity.SetRecordedOutcome(ok, errText)
	activity.SetCreatedAt(createdAt)
	activity.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		activity.SetDeletedAt(&deletedAt.Time)
	}
	return activity, nil
}

func expectOne(result sql.Result, entity, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found or already deleted: %s", entity, id)
	}
	return nil
}
