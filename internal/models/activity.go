package models

import (
	"errors"
	"time"
)

// Operation is the kind of list mutation an [Activity] records.
type Operation string

const (
	OpAdd    Operation = "add"
	OpRemove Operation = "remove"
)

// Activity records one list mutation attempt that reached the backend.
type Activity struct {
	id        string
	sequence  int
	username  string
	op        Operation
	list      ListKind
	kind      MediaKind
	tmdbID    int64
	title     string
	ok        bool
	errText   string
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewActivity creates an activity for the given mutation. The outcome is set with [Activity.SetOutcome].
func NewActivity(username string, op Operation, list ListKind, kind MediaKind, tmdbID int64, title string) *Activity {
	now := time.Now()
	return &Activity{
		username:  username,
		op:        op,
		list:      list,
		kind:      kind,
		tmdbID:    tmdbID,
		title:     title,
		createdAt: now,
		updatedAt: now,
	}
}

func (a *Activity) ID() string            { return a.id }
func (a *Activity) CreatedAt() time.Time  { return a.createdAt }
func (a *Activity) UpdatedAt() time.Time  { return a.updatedAt }
func (a *Activity) Sequence() int         { return a.sequence }
func (a *Activity) Username() string      { return a.username }
func (a *Activity) Op() Operation         { return a.op }
func (a *Activity) List() ListKind        { return a.list }
func (a *Activity) Kind() MediaKind       { return a.kind }
func (a *Activity) TmdbID() int64         { return a.tmdbID }
func (a *Activity) Title() string         { return a.title }
func (a *Activity) OK() bool              { return a.ok }
func (a *Activity) ErrorText() string     { return a.errText }
func (a *Activity) DeletedAt() *time.Time { return a.deletedAt }

func (a *Activity) SetID(id string)           { a.id = id }
func (a *Activity) SetSequence(seq int)       { a.sequence = seq }
func (a *Activity) SetCreatedAt(t time.Time)  { a.createdAt = t }
func (a *Activity) SetUpdatedAt(t time.Time)  { a.updatedAt = t }
func (a *Activity) SetDeletedAt(t *time.Time) { a.deletedAt = t }

// SetOutcome stores the result of the backend call. A nil err marks the attempt successful.
func (a *Activity) SetOutcome(err error) {
	a.ok = err == nil
	a.errText = ""
	if err != nil {
		a.errText = err.Error()
	}
}

// SetRecordedOutcome restores an outcome read back from storage.
func (a *Activity) SetRecordedOutcome(ok bool, errText string) {
	a.ok = ok
	a.errText = errText
}

// Validate checks the activity refers to a known list, kind and operation.
func (a *Activity) Validate() error {
	if a.username == "" {
		return errors.New("activity username is required")
	}
	if a.tmdbID <= 0 {
		return errors.New("activity tmdb id must be positive")
	}
	if _, err := ParseListKind(string(a.list)); err != nil {
		return err
	}
	if a.kind != Movie && a.kind != Show {
		return errors.New("activity kind must be movie or tv")
	}
	if a.op != OpAdd && a.op != OpRemove {
		return errors.New("activity op must be add or remove")
	}
	return nil
}
