package report

import (
	"fmt"
	"strings"

	"github.com/roach88/medreport/internal/cas"
)

// Urgency is the severity classification of a diagnostic report.
// It is a closed enum: only the values returned by Urgencies are valid.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// Urgencies returns every valid urgency in ascending severity.
func Urgencies() []Urgency {
	return []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh}
}

// Valid reports whether u is one of Low, Medium or High.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// ParseUrgency converts a string to an Urgency.
// Matching is exact; analyzer output is expected to use the canonical casing.
func ParseUrgency(s string) (Urgency, error) {
	u := Urgency(s)
	if !u.Valid() {
		return "", fmt.Errorf("unknown urgency %q: must be one of Low, Medium, High", s)
	}
	return u, nil
}

// IssuerProfile identifies the clinician issuing the report.
type IssuerProfile struct {
	// Number is the issuer's registry number. Only persisted, never drawn.
	Number         string `json:"number,omitempty" yaml:"number,omitempty"`
	Name           string `json:"name" yaml:"name"`
	Specialization string `json:"specialization" yaml:"specialization"`
	Affiliation    string `json:"affiliation,omitempty" yaml:"affiliation,omitempty"`
	Contact        string `json:"contact,omitempty" yaml:"contact,omitempty"`
}

// DiagnosticFindings mirrors the analyzer output schema.
type DiagnosticFindings struct {
	Summary            string   `json:"summary" yaml:"summary"`
	CriticalFindings   []string `json:"critical_findings" yaml:"critical_findings"`
	RecommendedTests   []string `json:"recommended_tests" yaml:"recommended_tests"`
	SuggestedTreatment []string `json:"suggested_treatment" yaml:"suggested_treatment"`
	Urgency            Urgency  `json:"urgency" yaml:"urgency"`
}

// Input is everything one composition needs.
type Input struct {
	Issuer    IssuerProfile `json:"issuer" yaml:"issuer"`
	SubjectID string        `json:"subject_id" yaml:"subject_id"`
	Title     string        `json:"title" yaml:"title"`
	// Date is formatted by the caller and drawn verbatim.
	Date string `json:"date" yaml:"date"`
	// Description is free-text notes kept with the stored record.
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Findings    DiagnosticFindings `json:"findings" yaml:"findings"`
}

// Digest returns the content-addressed identity of the input.
// Two inputs with the same field values (after NFC normalization) share a digest.
func (in Input) Digest() (string, error) {
	return cas.Digest(cas.DomainInput, in.canonical())
}

func (in Input) canonical() map[string]any {
	return map[string]any{
		"issuer": map[string]any{
			"number":         in.Issuer.Number,
			"name":           in.Issuer.Name,
			"specialization": in.Issuer.Specialization,
			"affiliation":    in.Issuer.Affiliation,
			"contact":        in.Issuer.Contact,
		},
		"subject_id":  in.SubjectID,
		"title":       in.Title,
		"date":        in.Date,
		"description": in.Description,
		"findings": map[string]any{
			"summary":             in.Findings.Summary,
			"critical_findings":   nonNil(in.Findings.CriticalFindings),
			"recommended_tests":   nonNil(in.Findings.RecommendedTests),
			"suggested_treatment": nonNil(in.Findings.SuggestedTreatment),
			"urgency":             string(in.Findings.Urgency),
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// blank reports whether s has no visible content.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
