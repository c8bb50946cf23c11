package layout

import (
	"errors"
	"fmt"

	"github.com/roach88/medreport/internal/report"
)

// ErrUnknownUrgency is returned for urgency values outside the closed enum.
var ErrUnknownUrgency = errors.New("unknown urgency")

// Glyph names the indicator mark drawn beside the urgency label.
type Glyph string

const (
	GlyphFilledCircle Glyph = "filled-circle"
)

// UrgencyStyle is the visual treatment of one urgency level.
type UrgencyStyle struct {
	Color Color
	Glyph Glyph
}

// urgencyStyles must hold an entry for every value of report.Urgencies().
var urgencyStyles = map[report.Urgency]UrgencyStyle{
	report.UrgencyHigh:   {Color: RGB(0.8, 0.1, 0.1), Glyph: GlyphFilledCircle},
	report.UrgencyMedium: {Color: RGB(0.9, 0.6, 0.1), Glyph: GlyphFilledCircle},
	report.UrgencyLow:    {Color: RGB(0.2, 0.6, 0.2), Glyph: GlyphFilledCircle},
}

// StyleForUrgency returns the style for u. There is no fallback: any value
// other than Low, Medium or High is an error.
func StyleForUrgency(u report.Urgency) (UrgencyStyle, error) {
	style, ok := urgencyStyles[u]
	if !ok {
		return UrgencyStyle{}, fmt.Errorf("%w: %q", ErrUnknownUrgency, u)
	}
	return style, nil
}
