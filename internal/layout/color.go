package layout

import "fmt"

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

// RGB creates a Color.
func RGB(r, g, b float64) Color {
	return Color{R: r, G: g, B: b}
}

func (c Color) String() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f", c.R, c.G, c.B)
}

// Report palette.
var (
	ColorPrimary   = RGB(0.05, 0.25, 0.45) // deep blue: headings, labels, borders
	ColorSecondary = RGB(0.9, 0.95, 0.98)  // banner background
	ColorAccent    = RGB(0.85, 0.3, 0.1)   // critical findings
	ColorText      = RGB(0.2, 0.2, 0.2)    // body text
	ColorLightGray = RGB(0.65, 0.65, 0.65) // signature details
	ColorBand      = RGB(0.1, 0.4, 0.6)    // header and footer bands
	ColorWhite     = RGB(1, 1, 1)
	ColorWatermark = RGB(0.9, 0.9, 0.9)
)
