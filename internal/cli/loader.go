package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kaptinlin/jsonrepair"
	"gopkg.in/yaml.v3"

	"github.com/roach88/medreport/internal/report"
	"github.com/roach88/medreport/internal/schema"
)

// ReportExtensions are the file extensions treated as report files.
var ReportExtensions = []string{".yaml", ".yml", ".json"}

// LoadError represents a report file that could not be turned into an input.
type LoadError struct {
	Code    string
	Path    string
	Message string
	// Details lists individual schema or field violations.
	Details []string
	Err     error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	if len(e.Details) > 0 {
		msg += " (" + strings.Join(e.Details, "; ") + ")"
	}
	return msg
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader reads report files and checks them against the report schema.
// It is safe for concurrent use.
type Loader struct {
	mu     sync.Mutex
	schema *schema.Validator
}

// NewLoader compiles the report schema.
func NewLoader() (*Loader, error) {
	v, err := schema.New()
	if err != nil {
		return nil, err
	}
	return &Loader{schema: v}, nil
}

// Load reads the report at path. When findingsPath is set, the findings are
// taken from that analyzer response instead of the report file.
func (l *Loader) Load(path, findingsPath string) (report.Input, error) {
	var in report.Input

	doc, err := l.readDocument(path)
	if err != nil {
		return in, err
	}

	if findingsPath != "" {
		findings, err := l.readAnalysis(findingsPath)
		if err != nil {
			return in, err
		}
		doc["findings"] = findings
	}

	if err := l.check(schema.DefReport, doc); err != nil {
		return in, &LoadError{
			Code:    rejectionCode(doc),
			Path:    path,
			Message: "report does not match schema",
			Details: violations(err),
			Err:     err,
		}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return in, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "re-encode report", Err: err}
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "decode report", Err: err}
	}
	return in, nil
}

func (l *Loader) check(def string, doc any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.schema.Check(def, doc)
}

func (l *Loader) readDocument(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	var raw any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	case ".json":
		raw, err = decodeJSON(data)
	default:
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: fmt.Sprintf("unsupported file type %q", filepath.Ext(path))}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "parse report", Err: err}
	}

	doc, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "report must be a mapping"}
	}
	return doc, nil
}

// readAnalysis reads an analyzer response and returns only the findings keys.
func (l *Loader) readAnalysis(path string) (map[string]any, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	raw, err := decodeJSON(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "parse analyzer response", Err: err}
	}
	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "analyzer response must be an object"}
	}

	if err := l.check(schema.DefAnalysis, doc); err != nil {
		return nil, &LoadError{
			Code:    rejectionCode(map[string]any{"findings": doc}),
			Path:    path,
			Message: "incomplete analyzer response",
			Details: violations(err),
			Err:     err,
		}
	}

	findings := make(map[string]any, 5)
	for _, key := range []string{"summary", "critical_findings", "recommended_tests", "suggested_treatment", "urgency"} {
		findings[key] = doc[key]
	}
	return findings, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: path, Message: "file not found", Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Path: path, Message: "read file", Err: err}
	}
	return data, nil
}

// decodeJSON parses data as JSON. Analyzer output often arrives wrapped in a
// markdown code fence or with small syntax faults, so a failed parse is
// retried on the unfenced, repaired text.
func decodeJSON(data []byte) (any, error) {
	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return v, nil
	}
	originalErr := err

	repaired, err := jsonrepair.JSONRepair(stripFence(string(data)))
	if err != nil {
		return nil, originalErr
	}
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, originalErr
	}
	return v, nil
}

// stripFence removes a surrounding ``` or ```json fence.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, "```")
}

// normalize converts YAML timestamps to strings so dates are kept as
// written rather than turned into time values.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	case time.Time:
		if t.Equal(t.Truncate(24*time.Hour)) && t.Location() == time.UTC {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	default:
		return v
	}
}

// rejectionCode picks E102 when the urgency is missing or outside the enum.
func rejectionCode(doc map[string]any) string {
	findings, ok := doc["findings"].(map[string]any)
	if !ok {
		return ErrCodeInvalidInput
	}
	u, _ := findings["urgency"].(string)
	if !report.Urgency(u).Valid() {
		return ErrCodeUnknownUrgency
	}
	return ErrCodeInvalidInput
}

func violations(err error) []string {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		out := make([]string, 0, len(merr.Errors))
		for _, e := range merr.Errors {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}

// FindReportFiles returns the report files in dir, sorted by name.
// Subdirectories are not searched.
func FindReportFiles(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: dir, Message: "directory not found", Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Path: dir, Message: "access directory", Err: err}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: dir, Message: "not a directory"}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Path: dir, Message: "scan directory", Err: err}
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && isReportFile(e.Name()) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Path: dir, Message: "no report files found"}
	}
	sort.Strings(files)
	return files, nil
}

func isReportFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range ReportExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// loadErrorCode returns the CLI error code carried by err.
func loadErrorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}
