package harness

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/medreport/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Text ops of the trace, for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nText drawn:\n")
		for _, event := range e.Trace {
			if event.Kind == "text" {
				fmt.Fprintf(&buf, "  [%d] %q y=%.2f\n", event.Seq, event.Text, event.Y)
			}
		}
	}

	return buf.String()
}

// matchesText reports whether event is a text op containing a.Text and, when
// set, drawn at a.Y in a.Color.
func matchesText(event TraceEvent, a Assertion) bool {
	if event.Kind != "text" || !strings.Contains(event.Text, a.Text) {
		return false
	}
	if a.Y != nil && event.Y != *a.Y {
		return false
	}
	if a.Color != "" && event.Color != a.Color {
		return false
	}
	return true
}

// describeText renders the text matcher for messages.
func describeText(a Assertion) string {
	s := fmt.Sprintf("text containing %q", a.Text)
	if a.Y != nil {
		s += fmt.Sprintf(" at y=%.2f", *a.Y)
	}
	if a.Color != "" {
		s += fmt.Sprintf(" in rgb(%s)", a.Color)
	}
	return s
}

// assertTextContains checks that some text op matches.
func assertTextContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matchesText(event, assertion) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTextContains,
		Expected: describeText(assertion),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTextAbsent checks that no text op matches.
func assertTextAbsent(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matchesText(event, assertion) {
			return &AssertionError{
				Type:     AssertTextAbsent,
				Expected: "no " + describeText(assertion),
				Actual:   fmt.Sprintf("found at op %d: %q", event.Seq, event.Text),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTextOrder checks that the texts first appear in the given order.
// Texts don't need to be consecutive.
func assertTextOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)

	for _, event := range trace {
		if event.Kind != "text" {
			continue
		}
		for _, want := range assertion.Texts {
			if positions[want] == 0 && strings.Contains(event.Text, want) {
				positions[want] = event.Seq
			}
		}
	}

	for _, want := range assertion.Texts {
		if positions[want] == 0 {
			return &AssertionError{
				Type:     AssertTextOrder,
				Expected: fmt.Sprintf("all texts present: %q", assertion.Texts),
				Actual:   fmt.Sprintf("missing text: %q", want),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Texts); i++ {
		prev := assertion.Texts[i-1]
		curr := assertion.Texts[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTextOrder,
				Expected: fmt.Sprintf("texts in order: %q", assertion.Texts),
				Actual: fmt.Sprintf("%q (op %d) should be before %q (op %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertOpCount checks that exactly Count ops of Kind were drawn. For text
// ops a non-empty Text restricts the count to texts containing it.
func assertOpCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Kind != assertion.Kind {
			continue
		}
		if assertion.Text != "" && !strings.Contains(event.Text, assertion.Text) {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Kind + " ops"
		if assertion.Text != "" {
			what = fmt.Sprintf("%s containing %q", what, assertion.Text)
		}
		return &AssertionError{
			Type:     AssertOpCount,
			Expected: fmt.Sprintf("%d %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// stateTables are the store tables final_state may inspect.
var stateTables = map[string]bool{"reports": true, "artifacts": true}

// assertFinalState finds the single row of Table matching every Where column
// and checks the Expect columns against it. Both tables stay small in a
// scenario, so rows are filtered here rather than in SQL.
func assertFinalState(ctx context.Context, st *store.Store, assertion Assertion) error {
	if !stateTables[assertion.Table] {
		return fmt.Errorf("final_state: unknown table %q (want reports or artifacts)", assertion.Table)
	}

	rows, columns, err := loadTable(ctx, st, assertion.Table)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: "readable table " + assertion.Table,
			Actual:   err.Error(),
		}
	}
	for _, key := range sortedKeys(assertion.Where) {
		if !slices.Contains(columns, key) {
			return fmt.Errorf("final_state: %s has no column %q", assertion.Table, key)
		}
	}

	var matched []map[string]any
	for _, row := range rows {
		if rowMatches(row, assertion.Where) {
			matched = append(matched, row)
		}
	}

	where := describeWhere(assertion.Where)
	switch len(matched) {
	case 0:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", assertion.Table, where),
			Actual:   fmt.Sprintf("row not found among %d", len(rows)),
		}
	case 1:
	default:
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Table, where),
			Actual:   fmt.Sprintf("%d rows matched", len(matched)),
		}
	}

	row := matched[0]
	for _, key := range sortedKeys(assertion.Expect) {
		actual, ok := row[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("column %q", key),
				Actual:   fmt.Sprintf("columns are %s", strings.Join(columns, ", ")),
			}
		}
		if !cellEquals(assertion.Expect[key], actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s = %v", key, assertion.Expect[key]),
				Actual:   fmt.Sprintf("%s = %v", key, cell(actual)),
			}
		}
	}
	return nil
}

// loadTable reads every row of a known table as column -> value.
func loadTable(ctx context.Context, st *store.Store, table string) ([]map[string]any, []string, error) {
	rows, err := st.Query(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(columns))
		for i, c := range columns {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, columns, rows.Err()
}

func rowMatches(row map[string]any, where map[string]any) bool {
	for key, want := range where {
		if !cellEquals(want, row[key]) {
			return false
		}
	}
	return true
}

// cell normalizes a scanned SQLite value.
func cell(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// cellEquals compares a YAML scalar with a SQLite value. SQLite has no
// boolean type, so a bool matches any integer with the same truthiness.
func cellEquals(want, got any) bool {
	got = cell(got)
	switch w := want.(type) {
	case nil:
		return got == nil
	case string:
		g, ok := got.(string)
		return ok && g == w
	case bool:
		g, ok := got.(int64)
		return ok && (g != 0) == w
	case int:
		g, ok := got.(int64)
		return ok && g == int64(w)
	case int64:
		g, ok := got.(int64)
		return ok && g == w
	case float64:
		switch g := got.(type) {
		case float64:
			return g == w
		case int64:
			return float64(g) == w
		}
		return false
	default:
		return reflect.DeepEqual(want, got)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func describeWhere(where map[string]any) string {
	if len(where) == 0 {
		return "(any)"
	}
	parts := make([]string, 0, len(where))
	for _, k := range sortedKeys(where) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides database access for final_state assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTextContains:
			err = assertTextContains(result.Trace, assertion)
		case AssertTextAbsent:
			err = assertTextAbsent(result.Trace, assertion)
		case AssertTextOrder:
			err = assertTextOrder(result.Trace, assertion)
		case AssertOpCount:
			err = assertOpCount(result.Trace, assertion)
		case AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: final_state requires database context", i)
			} else {
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
