package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/medreport/internal/compose"
	"github.com/roach88/medreport/internal/layout"
	"github.com/roach88/medreport/internal/report"
	"github.com/roach88/medreport/internal/store"
	"github.com/roach88/medreport/internal/testutil"
)

// Harness runs scenarios against the real assembler with a recording surface,
// a frozen clock and a fixed composition ID.
type Harness struct {
	logger   *slog.Logger
	surfaces []*layout.Recorder
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs with a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Load the report input
// 2. Compose it on a recording surface
// 3. Publish to the in-memory store, when requested
// 4. Check the expect block and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	in, err := loadInput(scenario)
	if err != nil {
		return nil, err
	}

	at := DefaultComposedAt
	if scenario.ComposedAt != "" {
		at = scenario.ComposedAt
	}
	composedAt, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return nil, fmt.Errorf("composed_at: %w", err)
	}

	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	asm := compose.NewAssembler(compose.Options{
		NewSurface: h.newSurface,
		Logo:       logoFor(scenario.Logo),
		Clock:      testutil.NewFrozenClock(composedAt),
		IDs:        testutil.NewFixedID(scenario.ReportID),
		Logger:     h.logger,
	})

	ctx := context.Background()
	result := NewResult()

	doc, composeErr := asm.Compose(ctx, in)
	result.Outcome.Surfaces = len(h.surfaces)
	if len(h.surfaces) > 0 {
		for i, op := range h.surfaces[len(h.surfaces)-1].Ops() {
			result.Trace = append(result.Trace, newTraceEvent(i+1, op))
		}
	}
	if composeErr != nil {
		code := compose.CodeOf(composeErr)
		if code == "" {
			return nil, fmt.Errorf("compose: %w", composeErr)
		}
		result.Outcome.ErrorCode = string(code)
	} else {
		result.Outcome.ID = doc.ID
		result.Outcome.Filename = doc.Filename
		result.Outcome.LogoFallback = doc.LogoFallback
		result.Outcome.Overflow = doc.Overflow
	}

	var st *store.Store
	if scenario.Publish {
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()

		if doc != nil {
			pub := &compose.Publisher{Uploader: st, Records: st, Logger: h.logger}
			receipt, err := pub.Publish(ctx, doc, in)
			if receipt != nil {
				result.Outcome.ContentID = receipt.ContentID
				result.Outcome.Recorded = receipt.Recorded
			}
			if err != nil {
				result.AddError(fmt.Sprintf("publish: %v", err))
			}
		}
	}

	for _, msg := range checkExpect(scenario.Expect, result.Outcome) {
		result.AddError(msg)
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"ops", len(result.Trace),
	)
	return result, nil
}

func (h *Harness) newSurface(compose.SurfaceMeta) compose.Surface {
	rec := layout.NewRecorder()
	h.surfaces = append(h.surfaces, rec)
	return rec
}

func loadInput(s *Scenario) (report.Input, error) {
	if s.Input != nil {
		return *s.Input, nil
	}
	var in report.Input
	data, err := os.ReadFile(s.Report)
	if err != nil {
		return in, fmt.Errorf("failed to read report file: %w", err)
	}
	if err := yaml.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("failed to parse report file: %w", err)
	}
	return in, nil
}

// checkExpect compares the outcome with the expect block.
func checkExpect(e *ExpectClause, o Outcome) []string {
	if e == nil {
		if o.ErrorCode != "" {
			return []string{fmt.Sprintf("unexpected compose error %s", o.ErrorCode)}
		}
		return nil
	}

	var errs []string
	if e.Error != o.ErrorCode {
		errs = append(errs, fmt.Sprintf("expected error %q, got %q", e.Error, o.ErrorCode))
	}
	if e.LogoFallback != nil && *e.LogoFallback != o.LogoFallback {
		errs = append(errs, fmt.Sprintf("expected logo_fallback=%t, got %t", *e.LogoFallback, o.LogoFallback))
	}
	if e.Overflow != nil && *e.Overflow != o.Overflow {
		errs = append(errs, fmt.Sprintf("expected overflow=%t, got %t", *e.Overflow, o.Overflow))
	}
	if e.Filename != "" && e.Filename != o.Filename {
		errs = append(errs, fmt.Sprintf("expected filename %q, got %q", e.Filename, o.Filename))
	}
	if e.Surfaces != nil && *e.Surfaces != o.Surfaces {
		errs = append(errs, fmt.Sprintf("expected %d surface(s), got %d", *e.Surfaces, o.Surfaces))
	}
	return errs
}

// stubLogo serves fixed bytes or a fixed error.
type stubLogo struct {
	data []byte
	err  error
}

func (s stubLogo) Fetch(context.Context) ([]byte, error) {
	return s.data, s.err
}

func logoFor(mode string) compose.LogoSource {
	switch mode {
	case LogoOK:
		return stubLogo{data: logoPNG()}
	case LogoFail:
		return stubLogo{err: errors.New("logo host unreachable")}
	case LogoGarbage:
		return stubLogo{data: []byte("not an image")}
	default:
		return nil
	}
}

// logoPNG is a 200x100 opaque PNG.
func logoPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
