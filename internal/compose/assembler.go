package compose

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/roach88/medreport/internal/layout"
	"github.com/roach88/medreport/internal/render"
	"github.com/roach88/medreport/internal/report"
)

// Defaults for the fixed report text.
const (
	DefaultKind      = "Medical_Report"
	DefaultTitle     = "Medical Report"
	DefaultBrand     = "ArogyaBridge"
	DefaultVerifyURL = "https://arogya-bridge.vercel.app"
	DefaultWatermark = "CONFIDENTIAL"

	notAvailable = "N/A"
)

// Placement of the flowing sections.
const (
	fieldX     = 60.0
	bodyX      = 70.0
	bodyWidth  = 480.0
	summaryGap = 10.0
	sectionGap = 20.0
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// Surface is a drawing target that can be serialized once drawing ends.
type Surface interface {
	layout.Canvas
	layout.Metrics
	layout.ImageEmbedder
	Finalize() ([]byte, error)
}

// SurfaceMeta describes the document a surface is created for.
type SurfaceMeta struct {
	Page      layout.Page
	Title     string
	Author    string
	CreatedAt time.Time
}

// SurfaceFactory creates a fresh surface for one composition.
type SurfaceFactory func(meta SurfaceMeta) Surface

// PDFSurfaces returns a factory producing fpdf-backed surfaces.
func PDFSurfaces(compress bool) SurfaceFactory {
	return func(meta SurfaceMeta) Surface {
		return render.New(meta.Page, render.Options{
			Compress:  compress,
			Title:     meta.Title,
			Author:    meta.Author,
			Creator:   "medreport",
			CreatedAt: meta.CreatedAt,
		})
	}
}

// LogoSource supplies the raster logo drawn in the header band.
type LogoSource interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Options configure an Assembler. Zero values select the defaults.
type Options struct {
	Page       layout.Page
	NewSurface SurfaceFactory
	// Logo is optional. Without one the brand label is always drawn.
	Logo      LogoSource
	Clock     Clock
	IDs       IDGenerator
	Logger    *slog.Logger
	Kind      string
	Title     string
	Brand     string
	VerifyURL string
	Watermark string
}

// Assembler composes report documents. It holds no per-composition state
// and is safe for concurrent use when its collaborators are.
type Assembler struct {
	opts Options
}

// NewAssembler creates an Assembler, filling unset options with defaults.
func NewAssembler(opts Options) *Assembler {
	if opts.Page == (layout.Page{}) {
		opts.Page = layout.A4
	}
	if opts.NewSurface == nil {
		opts.NewSurface = PDFSurfaces(true)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.IDs == nil {
		opts.IDs = UUIDv7Generator{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Kind == "" {
		opts.Kind = DefaultKind
	}
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Brand == "" {
		opts.Brand = DefaultBrand
	}
	if opts.VerifyURL == "" {
		opts.VerifyURL = DefaultVerifyURL
	}
	if opts.Watermark == "" {
		opts.Watermark = DefaultWatermark
	}
	return &Assembler{opts: opts}
}

// Document is a finished report.
type Document struct {
	ID          string
	Filename    string
	Bytes       []byte
	ComposedAt  time.Time
	InputDigest string

	// LogoFallback is set when the brand label replaced the logo.
	LogoFallback bool

	// Overflow is set when body content ran below the signature block.
	// The page is still produced; nothing is moved to a second page.
	Overflow bool
}

// Compose validates in and lays it out on a single page.
func (a *Assembler) Compose(ctx context.Context, in report.Input) (*Document, error) {
	if err := in.Validate(); err != nil {
		code := ErrCodeInvalidInput
		if report.HasCode(err, report.CodeUnknownUrgency) {
			code = ErrCodeUnknownUrgency
		}
		field := ""
		if fes := report.FieldErrors(err); len(fes) > 0 {
			field = fes[0].Field
		}
		return nil, &Error{Code: code, Message: "report input rejected", Field: field, Err: err}
	}

	digest, err := in.Digest()
	if err != nil {
		return nil, &Error{Code: ErrCodeInvalidInput, Message: "digest input", Err: err}
	}

	doc := &Document{
		ID:          a.opts.IDs.Generate(),
		ComposedAt:  a.opts.Clock.Now().UTC(),
		InputDigest: digest,
	}
	log := a.opts.Logger.With("id", doc.ID, "subject", in.SubjectID)

	logoBytes := a.fetchLogo(ctx, log)

	surface := a.opts.NewSurface(SurfaceMeta{
		Page:      a.opts.Page,
		Title:     in.Title,
		Author:    "Dr. " + in.Issuer.Name,
		CreatedAt: doc.ComposedAt,
	})
	c := layout.NewComposer(surface, surface, a.opts.Page)

	c.HeaderBand()
	doc.LogoFallback = !a.drawLogo(c, surface, logoBytes, log)
	c.Title(a.opts.Title)

	lowest, err := a.drawBody(c, in)
	if err != nil {
		if errors.Is(err, layout.ErrUnknownUrgency) {
			return nil, &Error{Code: ErrCodeUnknownUrgency, Message: "urgency has no style", Field: "findings.urgency", Err: err}
		}
		return nil, &Error{Code: ErrCodeLayout, Message: "lay out body", Err: err}
	}
	if lowest < layout.ContentFloor {
		doc.Overflow = true
		log.Warn("report body overflows into signature block", "lowest_baseline", lowest, "floor", layout.ContentFloor)
	}

	c.Signature("Dr. "+in.Issuer.Name, in.Issuer.Specialization, in.Issuer.Affiliation)
	c.FooterBand(
		fmt.Sprintf("This is an electronically generated medical report from %s.", a.opts.Brand),
		fmt.Sprintf("For verification, visit %s", a.opts.VerifyURL),
	)
	c.Watermark(a.opts.Watermark)

	data, err := surface.Finalize()
	if err != nil {
		return nil, &Error{Code: ErrCodeRender, Message: "finalize document", Err: err}
	}
	doc.Bytes = data
	doc.Filename = Filename(a.opts.Kind, in.SubjectID, doc.ComposedAt)

	log.Info("report composed",
		"filename", doc.Filename,
		"bytes", len(data),
		"logo_fallback", doc.LogoFallback,
		"overflow", doc.Overflow,
	)
	return doc, nil
}

func (a *Assembler) fetchLogo(ctx context.Context, log *slog.Logger) []byte {
	if a.opts.Logo == nil {
		return nil
	}
	data, err := a.opts.Logo.Fetch(ctx)
	if err != nil {
		log.Warn("logo unavailable, using text label", "error", err)
		return nil
	}
	return data
}

// drawLogo embeds and draws the logo, or the brand label when that fails.
// It reports whether the image was drawn.
func (a *Assembler) drawLogo(c *layout.Composer, surface Surface, data []byte, log *slog.Logger) bool {
	if len(data) > 0 {
		img, err := surface.EmbedImage(data)
		if err == nil {
			c.Logo(img)
			return true
		}
		log.Warn("logo could not be embedded, using text label", "error", err)
	}
	c.LogoFallback(a.opts.Brand)
	return false
}

// drawBody lays out the flowing sections and returns the lowest baseline used.
func (a *Assembler) drawBody(c *layout.Composer, in report.Input) (float64, error) {
	cur := layout.NewCursor(c.ContentTop())
	draw := func(b layout.Block) func() error {
		return func() error { return cur.Apply(b) }
	}
	skip := func(h float64) func() error {
		return func() error { return cur.Skip(h) }
	}
	header := func(title string) func() error {
		return draw(func(y float64) float64 { return c.SectionHeader(title, y) })
	}
	field := func(label, value string) func() error {
		return draw(func(y float64) float64 { return c.LabelValue(label, value, fieldX, y, 0) })
	}
	list := func(title string, items []string, style layout.ListStyle, prefix layout.ItemPrefix) func() error {
		return draw(func(y float64) float64 {
			return c.ConditionalList(title, items, fieldX, y, bodyWidth, style, prefix)
		})
	}

	steps := []func() error{
		header("Doctor Information"),
		field("Name:", "Dr. "+in.Issuer.Name),
		field("Specialization:", in.Issuer.Specialization),
		field("Hospital:", orNA(in.Issuer.Affiliation)),
		field("Email:", orNA(in.Issuer.Contact)),
		field("License No:", notAvailable),
		skip(sectionGap),

		header("Patient Information"),
		field("Patient ID:", in.SubjectID),
		field("Report Date:", in.Date),
		field("Report Title:", in.Title),
		skip(sectionGap),

		header("Diagnostic Findings"),
		draw(func(y float64) float64 { return c.Subheading("Summary:", fieldX, y, layout.ColorPrimary) }),
		draw(func(y float64) float64 { return c.Paragraph(in.Findings.Summary, bodyX, y, bodyWidth, layout.ColorText) }),
		skip(summaryGap),
		list("Critical Findings:", in.Findings.CriticalFindings,
			layout.ListStyle{Heading: layout.ColorAccent, Item: layout.ColorAccent}, layout.Bullet),
		list("Recommended Tests:", in.Findings.RecommendedTests,
			layout.ListStyle{Heading: layout.ColorPrimary, Item: layout.ColorText}, layout.Ordinal),
		list("Suggested Treatment:", in.Findings.SuggestedTreatment,
			layout.ListStyle{Heading: layout.ColorPrimary, Item: layout.ColorText}, layout.Ordinal),
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return 0, err
		}
	}

	lowest := cur.Y()
	err := cur.ApplyChecked(func(y float64) (float64, error) {
		return c.Urgency(in.Findings.Urgency, fieldX, y)
	})
	return lowest, err
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

// Filename derives the output file name from the report kind, subject and
// composition time: <kind>_<subject>_<UTC timestamp>.pdf with the
// timestamp's ':', '.' and '-' replaced by '_'.
func Filename(kind, subjectID string, at time.Time) string {
	stamp := strings.NewReplacer(":", "_", ".", "_", "-", "_").Replace(at.UTC().Format(timeLayout))
	return kind + "_" + sanitize(subjectID) + "_" + stamp + ".pdf"
}

// sanitize keeps letters, digits, '-' and '_' and replaces everything else,
// so a subject ID can never introduce a path separator.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
}
