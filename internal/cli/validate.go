package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/medreport/internal/report"
)

// FileValidation holds the validation outcome for one report file.
type FileValidation struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Code   string   `json:"code,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var findings string

	cmd := &cobra.Command{
		Use:   "validate <report-file>...",
		Short: "Validate report files without composing",
		Long: `Validate report files against the report schema and the input rules
without composing anything. Every violation in every file is reported.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, findings, args, cmd)
		},
	}

	cmd.Flags().StringVar(&findings, "findings", "", "analyzer response (JSON) providing the findings")

	return cmd
}

func runValidate(opts *RootOptions, findings string, files []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loader, err := NewLoader()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	result := ValidationResult{Valid: true}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)
		fv := validateFile(loader, file, findings)
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if result.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidationErrors(formatter, result)
}

// validateFile runs the schema check and then the input rules.
func validateFile(loader *Loader, file, findings string) FileValidation {
	fv := FileValidation{File: file}

	in, err := loader.Load(file, findings)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			fv.Code = le.Code
			fv.Errors = le.Details
			if len(fv.Errors) == 0 {
				fv.Errors = []string{le.Message}
			}
			return fv
		}
		fv.Code = ErrCodeGeneric
		fv.Errors = []string{err.Error()}
		return fv
	}

	if err := in.Validate(); err != nil {
		fv.Code = ErrCodeInvalidInput
		if report.HasCode(err, report.CodeUnknownUrgency) {
			fv.Code = ErrCodeUnknownUrgency
		}
		for _, fe := range report.FieldErrors(err) {
			fv.Errors = append(fv.Errors, fe.Field+": "+fe.Message)
		}
		return fv
	}

	fv.Valid = true
	return fv
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, f := range result.Files {
		formatter.Done("%s", f.File)
	}
	formatter.Done("All %d report(s) valid", len(result.Files))
	return nil
}

// outputValidationErrors outputs every failing file with its violations.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	first, failed := firstInvalid(result.Files)
	exit := ExitFailure
	if !isRejection(first.Code) {
		exit = ExitCommandError
	}

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    first.Code,
				Message: fmt.Sprintf("%s: %s", first.File, firstOf(first.Errors)),
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(exit, fmt.Sprintf("validation failed for %d file(s)", failed))
	}

	for _, f := range result.Files {
		if f.Valid {
			formatter.Done("%s", f.File)
			continue
		}
		formatter.Failed("%s [%s]", f.File, f.Code)
		for _, e := range f.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", e)
		}
	}

	return NewExitError(exit, fmt.Sprintf("validation failed for %d file(s)", failed))
}

func firstInvalid(files []FileValidation) (FileValidation, int) {
	var (
		first  FileValidation
		failed int
	)
	for _, f := range files {
		if f.Valid {
			continue
		}
		if failed == 0 {
			first = f
		}
		failed++
	}
	return first, failed
}

func firstOf(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

// isRejection reports whether code rejects the report content rather than
// signalling a missing or unreadable file.
func isRejection(code string) bool {
	return code == ErrCodeInvalidInput || code == ErrCodeUnknownUrgency
}
