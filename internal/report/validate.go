package report

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Validation error codes.
const (
	CodeMissingField   = "MISSING_FIELD"
	CodeUnknownUrgency = "UNKNOWN_URGENCY"
)

// FieldError describes one input contract violation.
type FieldError struct {
	Code    string
	Field   string // dotted path, e.g. "findings.urgency"
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks the input contract and reports every violation at once.
//
// Required: issuer name and specialization, subject ID, title, date,
// findings summary, and an urgency in {Low, Medium, High}. Lists may be
// absent, and their items are drawn as given, blank ones included. Affiliation and contact are optional and drawn
// as "N/A" when empty.
//
// The returned error is a *multierror.Error of *FieldError values, or nil.
func (in Input) Validate() error {
	var result *multierror.Error

	required := []struct {
		field string
		value string
	}{
		{"issuer.name", in.Issuer.Name},
		{"issuer.specialization", in.Issuer.Specialization},
		{"subject_id", in.SubjectID},
		{"title", in.Title},
		{"date", in.Date},
		{"findings.summary", in.Findings.Summary},
	}
	for _, r := range required {
		if blank(r.value) {
			result = multierror.Append(result, &FieldError{
				Code:    CodeMissingField,
				Field:   r.field,
				Message: "is required",
			})
		}
	}

	if !in.Findings.Urgency.Valid() {
		msg := fmt.Sprintf("unknown urgency %q: must be one of Low, Medium, High", in.Findings.Urgency)
		if in.Findings.Urgency == "" {
			msg = "is required"
		}
		result = multierror.Append(result, &FieldError{
			Code:    CodeUnknownUrgency,
			Field:   "findings.urgency",
			Message: msg,
		})
	}

	return result.ErrorOrNil()
}

// FieldErrors flattens a Validate result into its individual violations.
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		var fe *FieldError
		if errors.As(err, &fe) {
			return []*FieldError{fe}
		}
		return nil
	}
	out := make([]*FieldError, 0, len(merr.Errors))
	for _, e := range merr.Errors {
		var fe *FieldError
		if errors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// HasCode reports whether any violation in err carries code.
func HasCode(err error, code string) bool {
	for _, fe := range FieldErrors(err) {
		if fe.Code == code {
			return true
		}
	}
	return false
}
