package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/medreport/internal/compose"
	"github.com/roach88/medreport/internal/config"
	"github.com/roach88/medreport/internal/report"
)

// PublishOptions holds publish command flags.
type PublishOptions struct {
	Findings string
	Backend  string
	// KeepDir, when set, also writes the PDF locally.
	KeepDir string
}

// PublishResult describes one published report.
type PublishResult struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Backend   string `json:"backend"`
	ContentID string `json:"content_id"`
	Recorded  bool   `json:"recorded"`
	Path      string `json:"path,omitempty"`
	Overflow  bool   `json:"overflow,omitempty"`
}

// NewPublishCommand creates the publish command.
func NewPublishCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PublishOptions{}

	cmd := &cobra.Command{
		Use:   "publish <report-file>",
		Short: "Compose a report and publish it",
		Long: `Compose a report, upload the PDF to the configured storage backend
(local, pinata or s3) and record its metadata in the report database.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Findings, "findings", "", "analyzer response (JSON) providing the findings")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "storage backend override (local|pinata|s3)")
	cmd.Flags().StringVar(&opts.KeepDir, "keep", "", "also write the PDF to this directory")

	return cmd
}

func runPublish(rootOpts *RootOptions, opts *PublishOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	a, err := newApp(rootOpts, cmd.ErrOrStderr(), backendOverride(opts.Backend))
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	defer a.Close()

	in, err := a.loader.Load(path, opts.Findings)
	if err != nil {
		return failLoad(formatter, err)
	}

	st, err := a.openStore()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
	}
	defer st.Close()

	pub, err := a.publisher(st)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	res, err := publishOne(cmd.Context(), a.assembler(), pub, in, opts.KeepDir)
	if res != nil {
		res.Backend = a.cfg.Storage.Backend
	}
	if err != nil {
		if res != nil && formatter.Format != "json" {
			formatter.Warn("Uploaded %s as %s but the record was not written", res.Filename, res.ContentID)
		}
		return failCompose(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(res)
	}
	formatter.Done("Published %s to %s as %s", res.Filename, res.Backend, res.ContentID)
	warnDocument(formatter, false, res.Overflow)
	return nil
}

// publishOne composes in, optionally keeps a local copy, and publishes it.
// A record failure returns the result together with the error.
func publishOne(ctx context.Context, asm *compose.Assembler, pub *compose.Publisher, in report.Input, keepDir string) (*PublishResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	doc, err := asm.Compose(ctx, in)
	if err != nil {
		return nil, err
	}

	res := &PublishResult{ID: doc.ID, Filename: doc.Filename, Overflow: doc.Overflow}
	if keepDir != "" {
		out, err := writeDocument(doc, keepDir)
		if err != nil {
			return nil, err
		}
		res.Path = out
	}

	receipt, err := pub.Publish(ctx, doc, in)
	if receipt == nil {
		return nil, err
	}
	res.ContentID = receipt.ContentID
	res.Recorded = receipt.Recorded
	return res, err
}

func backendOverride(backend string) func(*config.Config) {
	return func(cfg *config.Config) {
		if backend != "" {
			cfg.Storage.Backend = backend
		}
	}
}
