package cli

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishResponse struct {
	Status string        `json:"status"`
	Data   PublishResult `json:"data"`
	Error  *CLIError     `json:"error"`
}

type recordsResponse struct {
	Status string        `json:"status"`
	Data   RecordsResult `json:"data"`
	Error  *CLIError     `json:"error"`
}

func publish(t *testing.T, env *testEnv, args ...string) PublishResult {
	t.Helper()
	out, err := execute(NewPublishCommand(env.opts("json")), args...)
	require.NoError(t, err, out)

	var resp publishResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	return resp.Data
}

func TestPublishCommand_Local(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "r.yaml", validReport)
	keep := filepath.Join(env.dir, "kept")

	res := publish(t, env, path, "--keep", keep)

	assert.Equal(t, "local", res.Backend)
	assert.NotEmpty(t, res.ContentID)
	assert.True(t, res.Recorded)
	assert.Equal(t, filepath.Join(keep, res.Filename), res.Path)
	_, err := os.Stat(res.Path)
	assert.NoError(t, err)

	out, err := execute(NewRecordsCommand(env.opts("json")))
	require.NoError(t, err)
	var recs recordsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Equal(t, 1, recs.Data.Count)
	rec := recs.Data.Records[0]
	assert.Equal(t, res.ID, rec.ID)
	assert.Equal(t, "P001", rec.SubjectID)
	assert.Equal(t, "REG-4411", rec.IssuerNumber)
	assert.Equal(t, res.ContentID, rec.ContentID)
	assert.Equal(t, res.Filename, rec.Filename)
	assert.Equal(t, "High", string(rec.Urgency))
}

func TestPublishCommand_Pinata(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"IpfsHash":"QmTestHash","PinSize":10,"Timestamp":"2025-03-14T09:30:00Z"}`))
	}))
	defer srv.Close()

	env := newTestEnv(t)
	path := env.write(t, "r.yaml", validReport)
	cfg := "logo:\n  disabled: true\nstorage:\n  backend: local\n  database: " + env.db +
		"\n  pinata:\n    endpoint: " + srv.URL + "\n    jwt: test-jwt\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0644))

	res := publish(t, env, path, "--backend", "pinata")

	assert.Equal(t, "pinata", res.Backend)
	assert.Equal(t, "QmTestHash", res.ContentID)
	assert.True(t, res.Recorded)
	assert.Equal(t, "Bearer test-jwt", auth)

	out, err := execute(NewRecordsCommand(env.opts("text")), "--id", res.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "QmTestHash")
	assert.Contains(t, out, res.Filename)
}

func TestPublishCommand_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	env := newTestEnv(t)
	path := env.write(t, "r.yaml", validReport)
	cfg := "logo:\n  disabled: true\nstorage:\n  backend: pinata\n  database: " + env.db +
		"\n  pinata:\n    endpoint: " + srv.URL + "\n    jwt: bad\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0644))

	out, err := execute(NewPublishCommand(env.opts("text")), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E009]")

	out, err = execute(NewRecordsCommand(env.opts("text")))
	require.NoError(t, err)
	assert.Contains(t, out, "No records")
}

func TestPublishCommand_PinataWithoutJWT(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "r.yaml", validReport)

	out, err := execute(NewPublishCommand(env.opts("text")), path, "--backend", "pinata")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E008]")
	assert.Contains(t, out, "storage.pinata.jwt is required")
}

func TestPublishCommand_RejectedReport(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "r.yaml", missingFieldsReport)

	out, err := execute(NewPublishCommand(env.opts("text")), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E101]")
}

func TestRecordsCommand_SubjectFilterAndMissingID(t *testing.T) {
	env := newTestEnv(t)
	publish(t, env, env.write(t, "a.yaml", validReport))
	publish(t, env, env.write(t, "b.yaml", lowReport))

	out, err := execute(NewRecordsCommand(env.opts("json")), "--subject", "P010")
	require.NoError(t, err)
	var recs recordsResponse
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Equal(t, 1, recs.Data.Count)
	assert.Equal(t, "P010", recs.Data.Records[0].SubjectID)

	out, err = execute(NewRecordsCommand(env.opts("text")))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	out, err = execute(NewRecordsCommand(env.opts("text")), "--id", "no-such-id")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestRecordsCommand_EmptyJSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(NewRecordsCommand(env.opts("json")))
	require.NoError(t, err)
	assert.Contains(t, out, `"records":[]`)
	assert.Contains(t, out, `"count":0`)
}

func TestFetchCommand(t *testing.T) {
	env := newTestEnv(t)
	res := publish(t, env, env.write(t, "r.yaml", validReport))
	outDir := filepath.Join(env.dir, "fetched")

	out, err := execute(NewFetchCommand(env.opts("text")), res.ContentID, "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote "+filepath.Join(outDir, res.Filename))

	data, err := os.ReadFile(filepath.Join(outDir, res.Filename))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF-"))

	out, err = execute(NewFetchCommand(env.opts("text")), "unknown-content-id", "-o", outDir)
	require.Error(t, err)
	assert.Contains(t, out, "Error [E005]")
}
