package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/medreport/internal/compose"
	"github.com/roach88/medreport/internal/report"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record with minimal required fields.
func createTestRecord(id, subjectID, contentID string) compose.Record {
	return compose.Record{
		ID:          id,
		SubjectID:   subjectID,
		IssuerName:  "Asha Rao",
		Title:       "Follow-up",
		ReportDate:  "2025-03-14",
		Urgency:     report.UrgencyMedium,
		InputDigest: "digest-" + id,
		ContentID:   contentID,
		Filename:    "Medical_Report_" + subjectID + ".pdf",
		ComposedAt:  time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}
