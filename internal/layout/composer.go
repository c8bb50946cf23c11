package layout

import (
	"fmt"

	"github.com/roach88/medreport/internal/report"
)

// Vertical metrics of the content blocks.
const (
	BannerHeight      = 35.0
	BannerAdvance     = 50.0 // banner height plus the gap below it
	LabelAdvance      = 16.0
	LineHeight        = 15.0
	ListTrailingGap   = 10.0
	UrgencyAdvance    = 30.0
	DefaultLabelWidth = 100.0
	ItemIndent        = 10.0
)

// Font sizes.
const (
	BodySize        = 11.0
	HeadingSize     = 12.0
	BannerTitleSize = 16.0
)

const (
	bannerMarginX   = 30.0
	bannerTextInset = 15.0
	bannerBorder    = 0.8
	bannerRadius    = 5.0

	indicatorOffsetX = 90.0
	indicatorOffsetY = 5.0
	indicatorRadius  = 4.0
	urgencyValueX    = 100.0
)

// ItemPrefix decorates the i-th list item before it is wrapped.
type ItemPrefix func(i int, item string) string

// Bullet prefixes items with a bullet.
func Bullet(_ int, item string) string {
	return "• " + item
}

// Ordinal prefixes items with their 1-based position.
func Ordinal(i int, item string) string {
	return fmt.Sprintf("%d. %s", i+1, item)
}

// ListStyle colors a conditional list.
type ListStyle struct {
	Heading Color
	Item    Color
}

// Composer draws the content blocks of a report page.
// Every block takes the current y and returns the next one; the Composer
// keeps no vertical state of its own.
type Composer struct {
	canvas  Canvas
	metrics Metrics
	page    Page
}

// NewComposer creates a Composer drawing onto canvas.
func NewComposer(canvas Canvas, metrics Metrics, page Page) *Composer {
	return &Composer{canvas: canvas, metrics: metrics, page: page}
}

// Page returns the page the composer lays out.
func (c *Composer) Page() Page {
	return c.page
}

// SectionHeader draws a rounded, bordered banner with a bold title.
func (c *Composer) SectionHeader(title string, y float64) float64 {
	c.canvas.DrawRect(bannerMarginX, y-25, c.page.Width-2*bannerMarginX, BannerHeight, RectOptions{
		Fill:        ColorSecondary,
		Border:      ColorPrimary,
		BorderWidth: bannerBorder,
		Radius:      bannerRadius,
	})
	c.canvas.DrawText(title, bannerMarginX+bannerTextInset, y-15, TextOptions{
		Font:  FontBold,
		Size:  BannerTitleSize,
		Color: ColorPrimary,
	})
	return y - BannerAdvance
}

// LabelValue draws a bold label and a plain value on one baseline.
// A non-positive labelWidth selects DefaultLabelWidth.
func (c *Composer) LabelValue(label, value string, x, y, labelWidth float64) float64 {
	if labelWidth <= 0 {
		labelWidth = DefaultLabelWidth
	}
	c.canvas.DrawText(label, x, y, TextOptions{Font: FontBold, Size: BodySize, Color: ColorPrimary})
	c.canvas.DrawText(value, x+labelWidth, y, TextOptions{Font: FontRegular, Size: BodySize, Color: ColorText})
	return y - LabelAdvance
}

// Paragraph wraps text to width and draws one line per baseline.
func (c *Composer) Paragraph(text string, x, y, width float64, color Color) float64 {
	lines := Wrap(text, width, Measure(c.metrics, FontRegular), BodySize)
	for _, line := range lines {
		c.canvas.DrawText(line, x, y, TextOptions{Font: FontRegular, Size: BodySize, Color: color})
		y -= LineHeight
	}
	return y
}

// Subheading draws a bold heading line.
func (c *Composer) Subheading(text string, x, y float64, color Color) float64 {
	c.canvas.DrawText(text, x, y, TextOptions{Font: FontBold, Size: HeadingSize, Color: color})
	return y - LineHeight
}

// ConditionalList draws a titled list, or nothing at all when items is empty.
// Items are indented by ItemIndent and wrapped like paragraphs.
func (c *Composer) ConditionalList(title string, items []string, x, y, width float64, style ListStyle, prefix ItemPrefix) float64 {
	if len(items) == 0 {
		return y
	}
	y = c.Subheading(title, x, y, style.Heading)
	for i, item := range items {
		y = c.Paragraph(prefix(i, item), x+ItemIndent, y, width, style.Item)
	}
	return y - ListTrailingGap
}

// Urgency draws the urgency label, the colored level and its indicator glyph.
// Unknown levels fail without drawing anything.
func (c *Composer) Urgency(u report.Urgency, x, y float64) (float64, error) {
	style, err := StyleForUrgency(u)
	if err != nil {
		return y, err
	}

	c.canvas.DrawText("Urgency Level:", x, y, TextOptions{Font: FontBold, Size: HeadingSize, Color: ColorPrimary})
	c.canvas.DrawText(string(u), x+urgencyValueX, y, TextOptions{Font: FontBold, Size: HeadingSize, Color: style.Color})
	switch style.Glyph {
	case GlyphFilledCircle:
		c.canvas.DrawCircle(x+indicatorOffsetX, y+indicatorOffsetY, indicatorRadius, style.Color)
	default:
		return y, fmt.Errorf("unsupported indicator glyph %q", style.Glyph)
	}
	return y - UrgencyAdvance, nil
}
