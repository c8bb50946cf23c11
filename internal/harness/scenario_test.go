package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadScenario_ResolvesReportPath(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "minimal_low.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "minimal_low", s.Name)
	assert.Equal(t, filepath.Join("testdata", "reports", "minimal_low.yaml"), s.Report)
	require.NotNil(t, s.Expect)
	require.NotNil(t, s.Expect.LogoFallback)
	assert.True(t, *s.Expect.LogoFallback)
	require.NotNil(t, s.Expect.Surfaces)
	assert.Equal(t, 1, *s.Expect.Surfaces)
	require.Len(t, s.Assertions, 6)
	require.NotNil(t, s.Assertions[3].Y)
	assert.Equal(t, 364.0, *s.Assertions[3].Y)
}

func TestLoadScenario_InlineInput(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: inline
description: "inline report"
input:
  issuer: { name: Asha Rao, specialization: Cardiology }
  subject_id: P9
  title: T
  date: "2025-01-01"
  findings: { summary: S, urgency: High }
assertions:
  - type: text_contains
    text: "High"
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	require.NotNil(t, s.Input)
	assert.Equal(t, "P9", s.Input.SubjectID)
	assert.Equal(t, "High", string(s.Input.Findings.Urgency))
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: typo
description: "assertion instead of assertions"
input: { subject_id: P1 }
assertion:
  - type: text_contains
    text: x
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing name",
			body: "description: d\ninput: {}\nexpect: {}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			body: "name: n\ninput: {}\nexpect: {}\n",
			want: "description is required",
		},
		{
			name: "no input",
			body: "name: n\ndescription: d\nexpect: {}\n",
			want: "one of report or input is required",
		},
		{
			name: "report not found",
			body: "name: n\ndescription: d\nreport: missing.yaml\nexpect: {}\n",
			want: "report file not found",
		},
		{
			name: "bad logo mode",
			body: "name: n\ndescription: d\ninput: {}\nlogo: sometimes\nexpect: {}\n",
			want: "logo \"sometimes\"",
		},
		{
			name: "bad composed_at",
			body: "name: n\ndescription: d\ninput: {}\ncomposed_at: tomorrow\nexpect: {}\n",
			want: "composed_at",
		},
		{
			name: "nothing to check",
			body: "name: n\ndescription: d\ninput: {}\n",
			want: "expect or a non-empty assertions list is required",
		},
		{
			name: "unknown assertion type",
			body: "name: n\ndescription: d\ninput: {}\nassertions:\n  - type: trace_contains\n",
			want: "unknown assertion type",
		},
		{
			name: "text_contains without text",
			body: "name: n\ndescription: d\ninput: {}\nassertions:\n  - type: text_contains\n",
			want: "text is required",
		},
		{
			name: "text_order with one text",
			body: "name: n\ndescription: d\ninput: {}\nassertions:\n  - type: text_order\n    texts: [a]\n",
			want: "at least two texts",
		},
		{
			name: "op_count bad kind",
			body: "name: n\ndescription: d\ninput: {}\nassertions:\n  - type: op_count\n    kind: polygon\n",
			want: "is not an op kind",
		},
		{
			name: "final_state without publish",
			body: "name: n\ndescription: d\ninput: {}\nassertions:\n  - type: final_state\n    table: reports\n    expect: { urgency: High }\n",
			want: "final_state requires publish: true",
		},
		{
			name: "final_state on unknown table",
			body: "name: n\ndescription: d\ninput: {}\npublish: true\nassertions:\n  - type: final_state\n    table: sqlite_master\n    expect: { name: x }\n",
			want: `final_state table "sqlite_master" must be reports or artifacts`,
		},
		{
			name: "final_state without table",
			body: "name: n\ndescription: d\ninput: {}\npublish: true\nassertions:\n  - type: final_state\n    expect: { urgency: High }\n",
			want: "table is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.body)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ReportAndInputExclusive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "r.yaml"), []byte("subject_id: P1\n"), 0644))
	path := writeScenario(t, dir, "name: n\ndescription: d\nreport: r.yaml\ninput: {}\nexpect: {}\n")

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoadScenario_AllFixturesValid(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		_, err := LoadScenario(f)
		assert.NoError(t, err, f)
	}
}
