package harness

import "github.com/roach88/medreport/internal/layout"

// TraceEvent is one recorded drawing call.
type TraceEvent struct {
	Seq   int     `json:"seq"`
	Kind  string  `json:"kind"`
	Text  string  `json:"text,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color,omitempty"`
	// Line is the op rendered on one deterministic line.
	Line string `json:"line"`
}

// newTraceEvent converts a recorded op.
func newTraceEvent(seq int, op layout.Op) TraceEvent {
	ev := TraceEvent{
		Seq:  seq,
		Kind: string(op.Kind),
		Text: op.Text,
		X:    op.X,
		Y:    op.Y,
		Line: op.String(),
	}
	switch op.Kind {
	case layout.OpText:
		ev.Color = op.TextOpts.Color.String()
	case layout.OpRect:
		ev.Color = op.Rect.Fill.String()
	case layout.OpLine, layout.OpCircle:
		ev.Color = op.Color.String()
	}
	return ev
}

// Outcome summarizes the composed document.
type Outcome struct {
	ID           string `json:"id,omitempty"`
	Filename     string `json:"filename,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	LogoFallback bool   `json:"logo_fallback"`
	Overflow     bool   `json:"overflow"`
	ContentID    string `json:"content_id,omitempty"`
	Recorded     bool   `json:"recorded"`
	// Surfaces counts the drawing surfaces the assembler created.
	Surfaces int `json:"surfaces"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expect block and all assertions match.
	Pass bool `json:"pass"`

	// Trace contains every drawing call in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Outcome Outcome `json:"outcome"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Snapshot renders the trace one op per line, for golden comparison.
func (r *Result) Snapshot() []byte {
	var out []byte
	for _, ev := range r.Trace {
		out = append(out, ev.Line...)
		out = append(out, '\n')
	}
	return out
}
