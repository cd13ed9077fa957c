// Package store persists analysis reports. Postgres (JSONB) is the primary
// vault; a directory of JSON files serves local runs and acts as fallback.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no report exists for an ID.
	ErrNotFound = errors.New("report not found")
	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("invalid report id")
)

// Record is one persisted analysis. Report holds the serialized pipeline
// result; the other fields are indexed metadata.
type Record struct {
	ID        string          `json:"id"`
	FileName  string          `json:"file_name"`
	Format    string          `json:"format"`
	Verdict   string          `json:"verdict"`
	Provider  string          `json:"provider,omitempty"`
	Warnings  []string        `json:"warnings,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	Report    json.RawMessage `json:"report"`
}

// ReportRepository is implemented by every backend.
type ReportRepository interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns the newest records first, without their Report body.
	List(ctx context.Context, limit int) ([]Record, error)
}

// NewRecord returns an empty record that already carries its ID and
// creation time, so callers can embed both in the report body.
func NewRecord() *Record {
	rec := &Record{}
	prepare(rec)
	return rec
}

// prepare assigns an ID and timestamp to a new record.
func prepare(rec *Record) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
}

// normalizeID validates id and returns its canonical lowercase form.
func normalizeID(id string) (string, error) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", ErrInvalidID
	}
	return u.String(), nil
}
