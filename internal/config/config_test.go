package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "medreport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
report:
  brand: CityCare
logo:
  timeout: 3s
storage:
  backend: pinata
  pinata:
    jwt: token
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "CityCare", cfg.Report.Brand)
	assert.Equal(t, "Medical Report", cfg.Report.Title, "unset keys keep defaults")
	assert.Equal(t, 3*time.Second, cfg.Logo.Timeout)
	assert.Equal(t, BackendPinata, cfg.Storage.Backend)
	assert.Equal(t, "token", cfg.Storage.Pinata.JWT)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storage:\n  database: from-file.db\n")
	t.Setenv("MEDREPORT_DATABASE", "from-env.db")
	t.Setenv("MEDREPORT_S3_BUCKET", "reports")
	t.Setenv("MEDREPORT_LOGO_TIMEOUT", "250ms")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Storage.Database)
	assert.Equal(t, "reports", cfg.Storage.S3.Bucket)
	assert.Equal(t, 250*time.Millisecond, cfg.Logo.Timeout)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "report: [unclosed")

	_, err := Load(path)

	assert.ErrorContains(t, err, "failed to parse config")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOrDefault_EmptyPathStillReadsEnv(t *testing.T) {
	t.Setenv("MEDREPORT_STORAGE_BACKEND", "s3")

	cfg, err := LoadOrDefault("")

	require.NoError(t, err)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = BackendS3
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"

	err := cfg.Validate()

	require.Error(t, err)
	merr, ok := err.(*multierror.Error)
	require.True(t, ok)
	assert.Len(t, merr.Errors, 4)
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "ftp"

	assert.ErrorContains(t, cfg.Validate(), `"ftp"`)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Report.Brand = "Saved"

	require.NoError(t, cfg.Save(path))
	loaded, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestNewLogger_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := NewLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNewLogger_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "medreport.log")
	logger, closer, err := NewLogger(LogConfig{Level: "info", Format: "text", File: path, MaxSizeMB: 1}, os.Stderr)
	require.NoError(t, err)

	logger.Info("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "msg=\"to file\"")
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "INFO", " warn ", "error"} {
		_, err := ParseLevel(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}
