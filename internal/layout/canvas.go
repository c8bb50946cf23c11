package layout

// Font selects one of the four typefaces a report uses.
type Font int

const (
	FontRegular Font = iota // Helvetica
	FontBold                // Helvetica-Bold
	FontItalic              // Helvetica-Oblique
	FontTitle               // Times-BoldItalic
)

func (f Font) String() string {
	switch f {
	case FontRegular:
		return "regular"
	case FontBold:
		return "bold"
	case FontItalic:
		return "italic"
	case FontTitle:
		return "title"
	default:
		return "unknown"
	}
}

// TextOptions controls how a string is drawn. (x, y) is the left end of the
// baseline.
type TextOptions struct {
	Font  Font
	Size  float64
	Color Color
	// Opacity in (0, 1]; zero means fully opaque.
	Opacity float64
	// Rotate is a counter-clockwise rotation in degrees around (x, y).
	Rotate float64
}

// RectOptions controls rectangle drawing. (x, y) is the bottom-left corner.
type RectOptions struct {
	Fill        Color
	Border      Color
	BorderWidth float64 // zero draws no border
	Radius      float64 // corner radius, zero for square corners
}

// Canvas is the drawing capability the layout engine renders onto.
type Canvas interface {
	DrawText(text string, x, y float64, opts TextOptions)
	DrawRect(x, y, w, h float64, opts RectOptions)
	DrawLine(x1, y1, x2, y2, thickness float64, color Color)
	DrawCircle(x, y, r float64, fill Color)
	DrawImage(img Image, x, y, w, h float64)
}

// Metrics measures rendered string widths.
// MeasureWidth must be monotonic in string length for Wrap to stay linear.
type Metrics interface {
	MeasureWidth(text string, font Font, size float64) float64
}

// ImageEmbedder registers raster image bytes with a document.
type ImageEmbedder interface {
	EmbedImage(data []byte) (Image, error)
}

// Size is a width/height pair in points.
type Size struct {
	Width, Height float64
}

// Image is a raster image registered with a document.
type Image struct {
	Name   string
	Width  float64
	Height float64
}

// Scale returns the image dimensions multiplied by factor.
func (img Image) Scale(factor float64) Size {
	return Size{Width: img.Width * factor, Height: img.Height * factor}
}
