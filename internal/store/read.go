package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/medreport/internal/compose"
	"github.com/roach88/medreport/internal/report"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Artifact is a stored document.
type Artifact struct {
	ContentID string
	Filename  string
	Data      []byte
	CreatedAt time.Time
}

// GetArtifact returns the artifact stored under contentID.
func (s *Store) GetArtifact(ctx context.Context, contentID string) (*Artifact, error) {
	var (
		a       Artifact
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT content_id, filename, data, created_at
		FROM artifacts
		WHERE content_id = ?
	`, contentID).Scan(&a.ContentID, &a.Filename, &a.Data, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get artifact %s: %w", contentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %s: %w", contentID, err)
	}

	a.CreatedAt, err = time.Parse(timeFormat, created)
	if err != nil {
		return nil, fmt.Errorf("get artifact %s: parse created_at: %w", contentID, err)
	}
	return &a, nil
}

const recordColumns = `id, subject_id, issuer_number, issuer_name, title, description,
	report_date, urgency, input_digest, content_id, filename, composed_at`

// GetRecord returns the record for a composition ID.
func (s *Store) GetRecord(ctx context.Context, id string) (*compose.Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM reports WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get record %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return rec, nil
}

// ListRecords returns records in publication order.
// An empty subjectID lists every subject.
//
// Ordering: ORDER BY seq ASC.
func (s *Store) ListRecords(ctx context.Context, subjectID string) ([]compose.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM reports`
	var args []any
	if subjectID != "" {
		query += ` WHERE subject_id = ?`
		args = append(args, subjectID)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []compose.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*compose.Record, error) {
	var (
		rec      compose.Record
		urgency  string
		composed string
	)
	err := row.Scan(
		&rec.ID,
		&rec.SubjectID,
		&rec.IssuerNumber,
		&rec.IssuerName,
		&rec.Title,
		&rec.Description,
		&rec.ReportDate,
		&urgency,
		&rec.InputDigest,
		&rec.ContentID,
		&rec.Filename,
		&composed,
	)
	if err != nil {
		return nil, err
	}

	rec.Urgency = report.Urgency(urgency)
	rec.ComposedAt, err = time.Parse(timeFormat, composed)
	if err != nil {
		return nil, fmt.Errorf("parse composed_at: %w", err)
	}
	return &rec, nil
}
