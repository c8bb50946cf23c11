// Package render draws layouts onto a single PDF page using fpdf.
//
// Layout coordinates have their origin at the bottom-left corner of the page
// with y growing upwards. fpdf places the origin at the top-left, so every
// call flips y against the page height.
package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // formats fpdf can embed
	_ "image/jpeg"
	_ "image/png"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/roach88/medreport/internal/layout"
)

// Options configure a PDF surface.
type Options struct {
	// Compress enables stream compression. Uncompressed output keeps text
	// operators readable, which tests rely on.
	Compress bool
	Title    string
	Author   string
	Creator  string
	// CreatedAt is stamped into the document info dictionary. Zero leaves
	// fpdf's default.
	CreatedAt time.Time
}

var imageTypes = map[string]string{
	"png":  "PNG",
	"jpeg": "JPG",
	"gif":  "GIF",
}

// PDF is a one-page drawing surface. It implements layout.Canvas,
// layout.Metrics and layout.ImageEmbedder.
type PDF struct {
	pdf     *fpdf.Fpdf
	page    layout.Page
	encoder *encoding.Encoder
	images  int
	done    bool
}

// New creates a surface with a single page of the given size in points.
func New(page layout.Page, opts Options) *PDF {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(opts.Compress)
	// fonts and images live in maps; sorted catalogs keep object numbers stable
	pdf.SetCatalogSort(true)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, true)
	}
	if !opts.CreatedAt.IsZero() {
		pdf.SetCreationDate(opts.CreatedAt)
		pdf.SetModificationDate(opts.CreatedAt)
	}
	pdf.AddPage()

	return &PDF{
		pdf:     pdf,
		page:    page,
		encoder: encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
	}
}

// DrawText implements layout.Canvas.
func (p *PDF) DrawText(text string, x, y float64, opts layout.TextOptions) {
	p.setFont(opts.Font, opts.Size)
	p.pdf.SetTextColor(channels(opts.Color))

	if opts.Opacity > 0 && opts.Opacity < 1 {
		p.pdf.SetAlpha(opts.Opacity, "Normal")
		defer p.pdf.SetAlpha(1, "Normal")
	}

	fy := p.flip(y)
	if opts.Rotate != 0 {
		p.pdf.TransformBegin()
		p.pdf.TransformRotate(opts.Rotate, x, fy)
		defer p.pdf.TransformEnd()
	}

	p.pdf.Text(x, fy, p.encode(text))
}

// DrawRect implements layout.Canvas.
func (p *PDF) DrawRect(x, y, w, h float64, opts layout.RectOptions) {
	p.pdf.SetFillColor(channels(opts.Fill))
	style := "F"
	if opts.BorderWidth > 0 {
		p.pdf.SetDrawColor(channels(opts.Border))
		p.pdf.SetLineWidth(opts.BorderWidth)
		style = "FD"
	}

	top := p.flip(y + h)
	if opts.Radius > 0 {
		p.pdf.RoundedRect(x, top, w, h, opts.Radius, "1234", style)
		return
	}
	p.pdf.Rect(x, top, w, h, style)
}

// DrawLine implements layout.Canvas.
func (p *PDF) DrawLine(x1, y1, x2, y2, thickness float64, color layout.Color) {
	p.pdf.SetDrawColor(channels(color))
	p.pdf.SetLineWidth(thickness)
	p.pdf.Line(x1, p.flip(y1), x2, p.flip(y2))
}

// DrawCircle implements layout.Canvas.
func (p *PDF) DrawCircle(x, y, r float64, fill layout.Color) {
	p.pdf.SetFillColor(channels(fill))
	p.pdf.Circle(x, p.flip(y), r, "F")
}

// DrawImage implements layout.Canvas. img must come from EmbedImage on
// the same surface.
func (p *PDF) DrawImage(img layout.Image, x, y, w, h float64) {
	p.pdf.ImageOptions(img.Name, x, p.flip(y+h), w, h, false, fpdf.ImageOptions{}, 0, "")
}

// MeasureWidth implements layout.Metrics using the standard font metrics.
func (p *PDF) MeasureWidth(text string, font layout.Font, size float64) float64 {
	p.setFont(font, size)
	return p.pdf.GetStringWidth(p.encode(text))
}

// EmbedImage implements layout.ImageEmbedder. The bytes are decoded before
// they reach fpdf so that a bad payload leaves the document usable.
func (p *PDF) EmbedImage(data []byte) (layout.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return layout.Image{}, fmt.Errorf("decode image: %w", err)
	}
	imageType, ok := imageTypes[format]
	if !ok {
		return layout.Image{}, fmt.Errorf("unsupported image format %q", format)
	}

	p.images++
	name := fmt.Sprintf("img%d", p.images)
	p.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if p.pdf.Err() {
		err := p.pdf.Error()
		p.pdf.ClearError()
		return layout.Image{}, fmt.Errorf("embed image: %w", err)
	}

	return layout.Image{
		Name:   name,
		Width:  float64(cfg.Width),
		Height: float64(cfg.Height),
	}, nil
}

// Finalize serializes the document. The surface accepts no drawing afterwards.
func (p *PDF) Finalize() ([]byte, error) {
	if p.done {
		return nil, fmt.Errorf("pdf already finalized")
	}
	p.done = true

	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *PDF) flip(y float64) float64 {
	return p.page.Height - y
}

func (p *PDF) setFont(font layout.Font, size float64) {
	switch font {
	case layout.FontBold:
		p.pdf.SetFont("Helvetica", "B", size)
	case layout.FontItalic:
		p.pdf.SetFont("Helvetica", "I", size)
	case layout.FontTitle:
		p.pdf.SetFont("Times", "BI", size)
	default:
		p.pdf.SetFont("Helvetica", "", size)
	}
}

// encode converts text to the WinAnsi encoding of the standard fonts.
func (p *PDF) encode(text string) string {
	out, err := p.encoder.String(text)
	if err != nil {
		return text
	}
	return out
}

func channels(c layout.Color) (int, int, int) {
	return channel(c.R), channel(c.G), channel(c.B)
}

func channel(v float64) int {
	return int(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
