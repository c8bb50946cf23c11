package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	env := newTestEnv(t)
	a := env.write(t, "a.yaml", validReport)
	b := env.write(t, "b.yaml", lowReport)

	out, err := execute(NewValidateCommand(env.opts("text")), a, b)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+a)
	assert.Contains(t, out, "✓ All 2 report(s) valid")
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	env := newTestEnv(t)
	a := env.write(t, "a.yaml", validReport)

	out, err := execute(NewValidateCommand(env.opts("json")), a)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Files, 1)
	assert.True(t, resp.Data.Files[0].Valid)
}

func TestValidateCommand_ReportsEveryFile(t *testing.T) {
	env := newTestEnv(t)
	good := env.write(t, "good.yaml", validReport)
	missing := env.write(t, "missing.yaml", missingFieldsReport)
	urgency := env.write(t, "urgency.yaml", unknownUrgencyReport)

	out, err := execute(NewValidateCommand(env.opts("text")), good, missing, urgency)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "validation failed for 2 file(s)")

	assert.Contains(t, out, "✓ "+good)
	assert.Contains(t, out, "✗ "+missing+" [E101]")
	assert.Contains(t, out, "✗ "+urgency+" [E102]")
}

func TestValidateCommand_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	urgency := env.write(t, "urgency.yaml", unknownUrgencyReport)

	out, err := execute(NewValidateCommand(env.opts("json")), urgency)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeUnknownUrgency, resp.Error.Code)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Files, 1)
	assert.NotEmpty(t, resp.Data.Files[0].Errors)
}

func TestValidateCommand_MissingFileIsCommandError(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(NewValidateCommand(env.opts("text")), env.dir+"/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "[E005]")
	assert.Contains(t, out, "file not found")
}

func TestValidateCommand_NoArgs(t *testing.T) {
	_, err := execute(NewValidateCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
