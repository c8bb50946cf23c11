package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/medreport/internal/compose"
	"github.com/roach88/medreport/internal/report"
)

// ComposeOptions holds compose command flags.
type ComposeOptions struct {
	Findings  string
	OutputDir string
}

// ComposeResult describes one composed file.
type ComposeResult struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Path         string `json:"path"`
	Bytes        int    `json:"bytes"`
	InputDigest  string `json:"input_digest"`
	LogoFallback bool   `json:"logo_fallback,omitempty"`
	Overflow     bool   `json:"overflow,omitempty"`
}

// NewComposeCommand creates the compose command.
func NewComposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ComposeOptions{}

	cmd := &cobra.Command{
		Use:   "compose <report-file>",
		Short: "Compose a report PDF",
		Long: `Compose a single-page report PDF from a YAML or JSON report file.

The findings may come from a separate analyzer response (--findings), which
may be wrapped in a markdown code fence. The PDF is written to the output
directory under its generated filename.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompose(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Findings, "findings", "", "analyzer response (JSON) providing the findings")
	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", ".", "directory for the PDF")

	return cmd
}

func runCompose(rootOpts *RootOptions, opts *ComposeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	a, err := newApp(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	defer a.Close()

	in, err := a.loader.Load(path, opts.Findings)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("Loaded %s for subject %s", path, in.SubjectID)

	res, err := composeToFile(cmd.Context(), a.assembler(), in, opts.OutputDir)
	if err != nil {
		return failCompose(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	formatter.Done("Composed %s (%d bytes)", res.Path, res.Bytes)
	warnDocument(formatter, res.LogoFallback, res.Overflow)
	return nil
}

// composeToFile composes in and writes the PDF into dir.
func composeToFile(ctx context.Context, asm *compose.Assembler, in report.Input, dir string) (*ComposeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, err := asm.Compose(ctx, in)
	if err != nil {
		return nil, err
	}
	out, err := writeDocument(doc, dir)
	if err != nil {
		return nil, err
	}
	return &ComposeResult{
		ID:           doc.ID,
		Filename:     doc.Filename,
		Path:         out,
		Bytes:        len(doc.Bytes),
		InputDigest:  doc.InputDigest,
		LogoFallback: doc.LogoFallback,
		Overflow:     doc.Overflow,
	}, nil
}

// writeError marks a failure to write the composed file.
type writeError struct {
	err error
}

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

func writeDocument(doc *compose.Document, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &writeError{fmt.Errorf("create output directory: %w", err)}
	}
	out := filepath.Join(dir, doc.Filename)
	if err := os.WriteFile(out, doc.Bytes, 0o644); err != nil {
		return "", &writeError{fmt.Errorf("write %s: %w", out, err)}
	}
	return out, nil
}

func warnDocument(formatter *OutputFormatter, logoFallback, overflow bool) {
	if logoFallback {
		formatter.Warn("Logo unavailable; brand label drawn instead")
	}
	if overflow {
		formatter.Warn("Report body runs into the signature block")
	}
}

// failLoad reports a loader error. Rejected reports exit with ExitFailure,
// unreadable ones with ExitCommandError.
func failLoad(formatter *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	exit := ExitCommandError
	if isRejection(le.Code) {
		exit = ExitFailure
	}
	var details any
	if len(le.Details) > 0 {
		details = le.Details
	}
	return formatter.fail(exit, le.Code, le.Path+": "+le.Message, details)
}

// failCompose reports a composition, write or publish error.
func failCompose(formatter *OutputFormatter, err error) error {
	code, exit := classify(err)
	var details any
	if fes := report.FieldErrors(err); len(fes) > 0 {
		msgs := make([]string, len(fes))
		for i, fe := range fes {
			msgs[i] = fe.Field + ": " + fe.Message
		}
		details = msgs
	}
	return formatter.fail(exit, code, err.Error(), details)
}

// classify maps an error to a CLI error code and exit code.
func classify(err error) (string, int) {
	var we *writeError
	if errors.As(err, &we) {
		return ErrCodeWriteFailed, ExitCommandError
	}
	var le *LoadError
	if errors.As(err, &le) {
		if isRejection(le.Code) {
			return le.Code, ExitFailure
		}
		return le.Code, ExitCommandError
	}
	switch compose.CodeOf(err) {
	case compose.ErrCodeInvalidInput:
		return ErrCodeInvalidInput, ExitFailure
	case compose.ErrCodeUnknownUrgency:
		return ErrCodeUnknownUrgency, ExitFailure
	case compose.ErrCodeLayout, compose.ErrCodeRender:
		return ErrCodeComposeFailed, ExitCommandError
	case compose.ErrCodeUpload:
		return ErrCodeUploadFailed, ExitCommandError
	case compose.ErrCodeRecord:
		return ErrCodeRecordFailed, ExitCommandError
	default:
		return ErrCodeGeneric, ExitCommandError
	}
}
