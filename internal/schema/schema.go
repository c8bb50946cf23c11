// Package schema checks decoded report files against an embedded CUE schema
// before they are converted to report.Input.
//
// Checking the raw document catches problems the typed decoder hides: missing
// keys that would decode to zero values, wrong types, and unknown keys.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/hashicorp/go-multierror"
)

//go:embed report.cue
var schemaSrc string

// Definitions a document can be checked against.
const (
	DefReport   = "#Report"
	DefFindings = "#Findings"
	DefAnalysis = "#Analysis"
)

// Validator holds the compiled schema. It is not safe for concurrent use;
// CUE contexts are single-threaded.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSrc, cue.Filename("report.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{ctx: ctx, schema: v}, nil
}

// Report checks a whole report document.
func (v *Validator) Report(doc any) error {
	return v.Check(DefReport, doc)
}

// Analysis checks an analyzer response.
func (v *Validator) Analysis(doc any) error {
	return v.Check(DefAnalysis, doc)
}

// Check validates doc, typically a map decoded from YAML or JSON, against
// the named definition. Every violation is reported.
func (v *Validator) Check(def string, doc any) error {
	schema := v.schema.LookupPath(cue.ParsePath(def))
	if !schema.Exists() {
		return fmt.Errorf("unknown schema definition %s", def)
	}

	val := v.ctx.Encode(doc)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return flatten(err)
	}
	return nil
}

// flatten turns a CUE error list into a multierror, one entry per violation.
func flatten(err error) error {
	var result *multierror.Error
	for _, e := range errors.Errors(err) {
		result = multierror.Append(result, fmt.Errorf("%s", errors.String(e)))
	}
	if result == nil {
		return err
	}
	return result.ErrorOrNil()
}
