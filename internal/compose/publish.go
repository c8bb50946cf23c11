package compose

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/medreport/internal/report"
)

// Uploader stores a finished artifact and returns its content identifier.
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// RecordStore persists the metadata of a published report.
type RecordStore interface {
	WriteRecord(ctx context.Context, rec Record) error
}

// Record links a published artifact to the report it was composed from.
type Record struct {
	ID           string         `json:"id"`
	SubjectID    string         `json:"subject_id"`
	IssuerNumber string         `json:"issuer_number,omitempty"`
	IssuerName   string         `json:"issuer_name"`
	Title        string         `json:"title"`
	Description  string         `json:"description,omitempty"`
	ReportDate   string         `json:"report_date"`
	Urgency      report.Urgency `json:"urgency"`
	InputDigest  string         `json:"input_digest"`
	ContentID    string         `json:"content_id"`
	Filename     string         `json:"filename"`
	ComposedAt   time.Time      `json:"composed_at"`
}

// NewRecord builds the record for doc published under contentID.
func NewRecord(doc *Document, in report.Input, contentID string) Record {
	return Record{
		ID:           doc.ID,
		SubjectID:    in.SubjectID,
		IssuerNumber: in.Issuer.Number,
		IssuerName:   in.Issuer.Name,
		Title:        in.Title,
		Description:  in.Description,
		ReportDate:   in.Date,
		Urgency:      in.Findings.Urgency,
		InputDigest:  doc.InputDigest,
		ContentID:    contentID,
		Filename:     doc.Filename,
		ComposedAt:   doc.ComposedAt,
	}
}

// Receipt is the outcome of a successful upload.
type Receipt struct {
	DocumentID string `json:"document_id"`
	ContentID  string `json:"content_id"`
	Filename   string `json:"filename"`
	Recorded   bool   `json:"recorded"`
}

// Publisher uploads documents and records where they went.
type Publisher struct {
	Uploader Uploader
	// Records is optional; without it nothing is recorded.
	Records RecordStore
	Logger  *slog.Logger
}

// Publish uploads doc and then writes its metadata record.
//
// An upload failure returns no receipt. A record failure returns the receipt
// together with the error, since the artifact is already stored.
func (p *Publisher) Publish(ctx context.Context, doc *Document, in report.Input) (*Receipt, error) {
	log := p.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	log = log.With("id", doc.ID, "filename", doc.Filename)

	contentID, err := p.Uploader.Upload(ctx, doc.Bytes, doc.Filename)
	if err != nil {
		log.Error("upload failed", "error", err)
		return nil, &Error{Code: ErrCodeUpload, Message: "upload " + doc.Filename, Err: err}
	}
	log.Info("report uploaded", "content_id", contentID, "bytes", len(doc.Bytes))

	receipt := &Receipt{DocumentID: doc.ID, ContentID: contentID, Filename: doc.Filename}
	if p.Records == nil {
		return receipt, nil
	}

	if err := p.Records.WriteRecord(ctx, NewRecord(doc, in, contentID)); err != nil {
		log.Error("record write failed", "content_id", contentID, "error", err)
		return receipt, &Error{Code: ErrCodeRecord, Message: "record " + contentID, Err: err}
	}
	receipt.Recorded = true
	return receipt, nil
}
