package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const validReport = `issuer:
  number: "REG-4411"
  name: Asha Rao
  specialization: Cardiology
  affiliation: City Hospital
subject_id: P001
title: Chest pain follow-up
date: 2025-03-14
findings:
  summary: Elevated troponin.
  critical_findings:
    - Possible NSTEMI
  recommended_tests: []
  suggested_treatment:
    - Dual antiplatelet therapy
  urgency: High
`

const unknownUrgencyReport = `issuer:
  name: Asha Rao
  specialization: Cardiology
subject_id: P002
title: Routine
date: "2025-03-14"
findings:
  summary: Unremarkable.
  urgency: Critical
`

const missingFieldsReport = `issuer:
  name: Asha Rao
subject_id: P003
date: "2025-03-14"
findings:
  summary: Unremarkable.
  urgency: Low
`

// testEnv is a workspace with a config that disables the logo and keeps the
// database inside the test directory.
type testEnv struct {
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:    dir,
		config: filepath.Join(dir, "medreport.yaml"),
		db:     filepath.Join(dir, "reports.db"),
	}
	cfg := "logo:\n  disabled: true\nstorage:\n  backend: local\n  database: " + env.db + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(env.config, []byte(cfg), 0644))
	return env
}

func (e *testEnv) opts(format string) *RootOptions {
	return &RootOptions{Format: format, ConfigPath: e.config}
}

// write creates a file under the workspace and returns its path.
func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs cmd with args and returns stdout.
func execute(cmd *cobra.Command, args ...string) (string, error) {
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
