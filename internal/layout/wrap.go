package layout

import "strings"

// MeasureFunc returns the rendered width of s at the given font size.
type MeasureFunc func(s string, size float64) float64

// Measure adapts Metrics to a MeasureFunc for a single font.
func Measure(m Metrics, font Font) MeasureFunc {
	return func(s string, size float64) float64 {
		return m.MeasureWidth(s, font, size)
	}
}

// Wrap breaks text into lines narrower than maxWidth using greedy line breaking.
//
// Text is split on whitespace. Each token is appended to the current line when
// the joined candidate measures strictly less than maxWidth; otherwise the
// current line is emitted and the token starts a new one. A single token wider
// than maxWidth is emitted whole on its own line, never split. Empty input
// yields exactly one empty line.
//
// Joining the returned lines with single spaces reproduces the whitespace
// separated tokens of text in order.
func Wrap(text string, maxWidth float64, measure MeasureFunc, size float64) []string {
	var lines []string
	line := ""

	for _, word := range strings.Fields(text) {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}

		if measure(candidate, size) < maxWidth {
			line = candidate
			continue
		}

		if line != "" {
			lines = append(lines, line)
		}
		line = word
	}

	return append(lines, line)
}
