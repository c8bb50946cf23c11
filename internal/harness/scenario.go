package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/medreport/internal/layout"
	"github.com/roach88/medreport/internal/report"
)

// Scenario defines one composition test.
// A scenario composes a report on a recording surface, checks the outcome
// against Expect, and then evaluates the assertions on the drawing trace and,
// when Publish is set, on the records store.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Report is a YAML report file, relative to the scenario file.
	// Exactly one of Report and Input must be set.
	Report string `yaml:"report,omitempty"`

	// Input is an inline report.
	Input *report.Input `yaml:"input,omitempty"`

	// Logo selects the logo behaviour: none (default), ok, fail or garbage.
	Logo string `yaml:"logo,omitempty"`

	// ComposedAt fixes the composition clock. Defaults to DefaultComposedAt.
	ComposedAt string `yaml:"composed_at,omitempty"`

	// ReportID fixes the composition ID. Defaults to "test-report-default".
	ReportID string `yaml:"report_id,omitempty"`

	// Publish uploads the document to an in-memory store and records it.
	Publish bool `yaml:"publish,omitempty"`

	// Expect checks the composition outcome.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate the trace and the store.
	Assertions []Assertion `yaml:"assertions"`
}

// ExpectClause specifies the expected composition outcome.
// Unset fields are not checked.
type ExpectClause struct {
	// Error is the expected compose error code, e.g. UNKNOWN_URGENCY.
	Error        string `yaml:"error,omitempty"`
	LogoFallback *bool  `yaml:"logo_fallback,omitempty"`
	Overflow     *bool  `yaml:"overflow,omitempty"`
	Filename     string `yaml:"filename,omitempty"`
	// Surfaces is the expected number of surfaces created.
	Surfaces *int `yaml:"surfaces,omitempty"`
}

// Assertion validates the trace or the store.
type Assertion struct {
	// Type specifies the assertion type:
	// - "text_contains": a text op contains Text (optionally at Y, in Color)
	// - "text_absent": no text op contains Text
	// - "text_order": texts first appear in the given order
	// - "op_count": exactly Count ops of Kind (optionally containing Text)
	// - "final_state": query Table and verify expected values
	Type string `yaml:"type"`

	// Text is matched as a substring of a text op.
	Text string `yaml:"text,omitempty"`

	// Y, when set, restricts text_contains to ops drawn at that baseline.
	Y *float64 `yaml:"y,omitempty"`

	// Color, when set, is compared with the op color ("r,g,b" with two decimals).
	Color string `yaml:"color,omitempty"`

	// Texts is the expected order (used by text_order).
	Texts []string `yaml:"texts,omitempty"`

	// Kind is the op kind (used by op_count): text, rect, line, circle, image.
	Kind string `yaml:"kind,omitempty"`

	// Count is the expected number of occurrences (used by op_count).
	Count int `yaml:"count,omitempty"`

	// Table is the store table name (used by final_state).
	Table string `yaml:"table,omitempty"`

	// Where specifies query filters (used by final_state).
	// All fields must match exactly.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match - only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertTextContains = "text_contains"
	AssertTextAbsent   = "text_absent"
	AssertTextOrder    = "text_order"
	AssertOpCount      = "op_count"
	AssertFinalState   = "final_state"
)

// Logo modes.
const (
	LogoNone    = "none"
	LogoOK      = "ok"
	LogoFail    = "fail"
	LogoGarbage = "garbage"
)

// DefaultComposedAt is the composition time used when a scenario sets none.
const DefaultComposedAt = "2025-03-14T09:30:00Z"

// LoadScenario reads and parses a scenario YAML file.
// Report paths are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the report path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Report != "" && !filepath.IsAbs(scenario.Report) && basePath != "" {
		scenario.Report = filepath.Join(basePath, scenario.Report)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Report == "" && s.Input == nil:
		return fmt.Errorf("one of report or input is required")
	case s.Report != "" && s.Input != nil:
		return fmt.Errorf("report and input are mutually exclusive")
	}

	if s.Report != "" {
		if _, err := os.Stat(s.Report); os.IsNotExist(err) {
			return fmt.Errorf("report file not found: %s", s.Report)
		}
	}

	switch s.Logo {
	case "", LogoNone, LogoOK, LogoFail, LogoGarbage:
	default:
		return fmt.Errorf("logo %q must be one of none, ok, fail, garbage", s.Logo)
	}

	if s.ComposedAt != "" {
		if _, err := time.Parse(time.RFC3339, s.ComposedAt); err != nil {
			return fmt.Errorf("composed_at: %w", err)
		}
	}

	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or a non-empty assertions list is required")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, s.Publish); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, publish bool) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTextContains, AssertTextAbsent:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertTextOrder:
		if len(a.Texts) < 2 {
			return fmt.Errorf("assertions[%d]: at least two texts are required for text_order", index)
		}
	case AssertOpCount:
		switch layout.OpKind(a.Kind) {
		case layout.OpText, layout.OpRect, layout.OpLine, layout.OpCircle, layout.OpImage:
		default:
			return fmt.Errorf("assertions[%d]: kind %q is not an op kind", index, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for op_count", index)
		}
	case AssertFinalState:
		if !publish {
			return fmt.Errorf("assertions[%d]: final_state requires publish: true", index)
		}
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for final_state", index)
		}
		if !stateTables[a.Table] {
			return fmt.Errorf("assertions[%d]: final_state table %q must be reports or artifacts", index, a.Table)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
