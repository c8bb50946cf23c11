package store

import (
	"context"
	"fmt"

	"github.com/roach88/medreport/internal/cas"
	"github.com/roach88/medreport/internal/compose"
)

// Upload stores data and returns its content identifier.
// Uses ON CONFLICT(content_id) DO NOTHING: identical bytes are stored once.
func (s *Store) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	contentID := cas.ContentID(data)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (content_id, filename, size, data, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(content_id) DO NOTHING
	`,
		contentID,
		filename,
		len(data),
		data,
		s.now().UTC().Format(timeFormat),
	)
	if err != nil {
		return "", fmt.Errorf("upload artifact: %w", err)
	}

	return contentID, nil
}

// WriteRecord inserts a report record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting a record is a no-op.
func (s *Store) WriteRecord(ctx context.Context, rec compose.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports
		(id, subject_id, issuer_number, issuer_name, title, description,
		 report_date, urgency, input_digest, content_id, filename, composed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.SubjectID,
		rec.IssuerNumber,
		rec.IssuerName,
		rec.Title,
		rec.Description,
		rec.ReportDate,
		string(rec.Urgency),
		rec.InputDigest,
		rec.ContentID,
		rec.Filename,
		rec.ComposedAt.UTC().Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	return nil
}
