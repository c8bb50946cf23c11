package layout

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for EmbedImage
	_ "image/png"
	"strings"
	"unicode/utf8"
)

// OpKind identifies a recorded drawing call.
type OpKind string

const (
	OpText   OpKind = "text"
	OpRect   OpKind = "rect"
	OpLine   OpKind = "line"
	OpCircle OpKind = "circle"
	OpImage  OpKind = "image"
)

// Op is one recorded drawing call. Only the fields relevant to Kind are set.
type Op struct {
	Kind     OpKind
	Text     string
	X, Y     float64
	X2, Y2   float64 // line end
	W, H     float64
	R        float64 // circle radius
	TextOpts TextOptions
	Rect     RectOptions
	Color    Color
	Image    string
}

// String renders the op on one deterministic line.
func (o Op) String() string {
	switch o.Kind {
	case OpText:
		s := fmt.Sprintf("text %q at (%.2f,%.2f) %s %.1f rgb(%s)", o.Text, o.X, o.Y, o.TextOpts.Font, o.TextOpts.Size, o.TextOpts.Color)
		if o.TextOpts.Opacity > 0 {
			s += fmt.Sprintf(" opacity=%.2f", o.TextOpts.Opacity)
		}
		if o.TextOpts.Rotate != 0 {
			s += fmt.Sprintf(" rotate=%.1f", o.TextOpts.Rotate)
		}
		return s
	case OpRect:
		s := fmt.Sprintf("rect (%.2f,%.2f) %.2fx%.2f fill=rgb(%s)", o.X, o.Y, o.W, o.H, o.Rect.Fill)
		if o.Rect.BorderWidth > 0 {
			s += fmt.Sprintf(" border=rgb(%s)/%.2f", o.Rect.Border, o.Rect.BorderWidth)
		}
		if o.Rect.Radius > 0 {
			s += fmt.Sprintf(" radius=%.1f", o.Rect.Radius)
		}
		return s
	case OpLine:
		return fmt.Sprintf("line (%.2f,%.2f)-(%.2f,%.2f) width=%.2f rgb(%s)", o.X, o.Y, o.X2, o.Y2, o.W, o.Color)
	case OpCircle:
		return fmt.Sprintf("circle (%.2f,%.2f) r=%.2f fill=rgb(%s)", o.X, o.Y, o.R, o.Color)
	case OpImage:
		return fmt.Sprintf("image %s at (%.2f,%.2f) %.2fx%.2f", o.Image, o.X, o.Y, o.W, o.H)
	default:
		return "unknown op"
	}
}

// MonospaceMetrics measures every rune as Advance times the font size.
type MonospaceMetrics struct {
	Advance float64
}

// MeasureWidth implements Metrics.
func (m MonospaceMetrics) MeasureWidth(text string, _ Font, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * size * m.Advance
}

// Recorder is an in-memory surface that records drawing calls in order.
// It is used to inspect layouts without producing a PDF.
type Recorder struct {
	MonospaceMetrics
	ops       []Op
	images    int
	finalized bool
}

// NewRecorder creates a Recorder measuring each rune at half the font size.
func NewRecorder() *Recorder {
	return &Recorder{MonospaceMetrics: MonospaceMetrics{Advance: 0.5}}
}

func (r *Recorder) DrawText(text string, x, y float64, opts TextOptions) {
	r.ops = append(r.ops, Op{Kind: OpText, Text: text, X: x, Y: y, TextOpts: opts})
}

func (r *Recorder) DrawRect(x, y, w, h float64, opts RectOptions) {
	r.ops = append(r.ops, Op{Kind: OpRect, X: x, Y: y, W: w, H: h, Rect: opts})
}

func (r *Recorder) DrawLine(x1, y1, x2, y2, thickness float64, color Color) {
	r.ops = append(r.ops, Op{Kind: OpLine, X: x1, Y: y1, X2: x2, Y2: y2, W: thickness, Color: color})
}

func (r *Recorder) DrawCircle(x, y, radius float64, fill Color) {
	r.ops = append(r.ops, Op{Kind: OpCircle, X: x, Y: y, R: radius, Color: fill})
}

func (r *Recorder) DrawImage(img Image, x, y, w, h float64) {
	r.ops = append(r.ops, Op{Kind: OpImage, Image: img.Name, X: x, Y: y, W: w, H: h})
}

// EmbedImage accepts any PNG or JPEG and reports its pixel dimensions.
func (r *Recorder) EmbedImage(data []byte) (Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode image: %w", err)
	}
	r.images++
	return Image{
		Name:   fmt.Sprintf("%s-%d", format, r.images),
		Width:  float64(cfg.Width),
		Height: float64(cfg.Height),
	}, nil
}

// Finalize marks the recording complete. The returned bytes are the op listing.
func (r *Recorder) Finalize() ([]byte, error) {
	r.finalized = true
	return []byte(r.String()), nil
}

// Finalized reports whether Finalize has been called.
func (r *Recorder) Finalized() bool {
	return r.finalized
}

// Ops returns a copy of the recorded operations.
func (r *Recorder) Ops() []Op {
	out := make([]Op, len(r.ops))
	copy(out, r.ops)
	return out
}

// Texts returns the strings of every text op, in drawing order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, op := range r.ops {
		if op.Kind == OpText {
			out = append(out, op.Text)
		}
	}
	return out
}

// TextsAt returns the text ops drawn at baseline y.
func (r *Recorder) TextsAt(y float64) []Op {
	var out []Op
	for _, op := range r.ops {
		if op.Kind == OpText && op.Y == y {
			out = append(out, op)
		}
	}
	return out
}

// String lists one op per line.
func (r *Recorder) String() string {
	var b strings.Builder
	for _, op := range r.ops {
		b.WriteString(op.String())
		b.WriteByte('\n')
	}
	return b.String()
}
