package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() Input {
	return Input{
		Issuer: IssuerProfile{
			Name:           "Asha Rao",
			Specialization: "General Medicine",
			Affiliation:    "City Hospital",
			Contact:        "asha@example.org",
		},
		SubjectID: "PAT-1001",
		Title:     "Follow-up",
		Date:      "2025-03-14",
		Findings: DiagnosticFindings{
			Summary:            "Acute viral upper respiratory infection, likely self-limiting.",
			RecommendedTests:   []string{"CBC"},
			SuggestedTreatment: []string{"Rest", "Fluids"},
			Urgency:            UrgencyLow,
		},
	}
}

func TestParseUrgency(t *testing.T) {
	for _, u := range Urgencies() {
		got, err := ParseUrgency(string(u))
		require.NoError(t, err)
		assert.Equal(t, u, got)
	}

	_, err := ParseUrgency("Unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Unknown"`)

	_, err = ParseUrgency("high")
	assert.Error(t, err, "matching is case-sensitive")
}

func TestUrgencies_AllValid(t *testing.T) {
	assert.Len(t, Urgencies(), 3)
	for _, u := range Urgencies() {
		assert.True(t, u.Valid(), "%s should be valid", u)
	}
	assert.False(t, Urgency("").Valid())
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validInput().Validate())
}

func TestValidate_BlankListItemsAllowed(t *testing.T) {
	in := validInput()
	in.Findings.SuggestedTreatment = []string{"Rest", ""}
	in.Findings.CriticalFindings = []string{"  "}

	assert.NoError(t, in.Validate())
}

func TestValidate_OptionalFields(t *testing.T) {
	in := validInput()
	in.Issuer.Affiliation = ""
	in.Issuer.Contact = ""
	in.Findings.RecommendedTests = nil
	in.Findings.SuggestedTreatment = nil
	assert.NoError(t, in.Validate())
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	in := validInput()
	in.Issuer.Name = ""
	in.SubjectID = "  "
	in.Findings.Summary = ""
	in.Findings.Urgency = "Unknown"

	err := in.Validate()
	require.Error(t, err)

	fields := make([]string, 0)
	for _, fe := range FieldErrors(err) {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{
		"issuer.name",
		"subject_id",
		"findings.summary",
		"findings.urgency",
	}, fields)
	assert.True(t, HasCode(err, CodeUnknownUrgency))
	assert.True(t, HasCode(err, CodeMissingField))
}

func TestValidate_MissingUrgency(t *testing.T) {
	in := validInput()
	in.Findings.Urgency = ""

	errs := FieldErrors(in.Validate())
	require.Len(t, errs, 1)
	assert.Equal(t, CodeUnknownUrgency, errs[0].Code)
	assert.Equal(t, "is required", errs[0].Message)
}

func TestFieldErrors_Nil(t *testing.T) {
	assert.Nil(t, FieldErrors(nil))
	assert.False(t, HasCode(nil, CodeMissingField))
}

func TestFieldErrors_Single(t *testing.T) {
	fe := &FieldError{Code: CodeMissingField, Field: "title", Message: "is required"}
	assert.Equal(t, []*FieldError{fe}, FieldErrors(fe))
	assert.Equal(t, "MISSING_FIELD: title: is required", fe.Error())
}

func TestDigest_Stable(t *testing.T) {
	a, err := validInput().Digest()
	require.NoError(t, err)
	b, err := validInput().Digest()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestDigest_NilAndEmptyListsMatch(t *testing.T) {
	in := validInput()
	in.Findings.CriticalFindings = nil
	a, err := in.Digest()
	require.NoError(t, err)

	in.Findings.CriticalFindings = []string{}
	b, err := in.Digest()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDigest_ChangesWithContent(t *testing.T) {
	in := validInput()
	a, err := in.Digest()
	require.NoError(t, err)

	in.Findings.Urgency = UrgencyHigh
	b, err := in.Digest()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
