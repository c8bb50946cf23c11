package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/medreport/internal/compose"
	"github.com/roach88/medreport/internal/store"
)

// RecordsResult is the records command payload.
type RecordsResult struct {
	Count   int              `json:"count"`
	Records []compose.Record `json:"records"`
}

// NewRecordsCommand creates the records command.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	var subject, id string

	cmd := &cobra.Command{
		Use:   "records",
		Short: "List published report records",
		Long: `List the metadata records of published reports in publication order.
Use --subject to restrict the list to one subject, or --id to show one record.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(rootOpts, subject, id, cmd)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "only records for this subject ID")
	cmd.Flags().StringVar(&id, "id", "", "show the record with this composition ID")

	return cmd
}

func runRecords(rootOpts *RootOptions, subject, id string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	a, err := newApp(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	defer a.Close()

	st, err := a.openStore()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
	}
	defer st.Close()

	var records []compose.Record
	if id != "" {
		rec, err := st.GetRecord(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no record with id %s", id), nil)
		}
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
		}
		records = []compose.Record{*rec}
	} else {
		records, err = st.ListRecords(cmd.Context(), subject)
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
		}
	}

	if formatter.Format == "json" {
		if records == nil {
			records = []compose.Record{}
		}
		return formatter.Success(RecordsResult{Count: len(records), Records: records})
	}

	if len(records) == 0 {
		fmt.Fprintln(formatter.Writer, "No records")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(formatter.Writer, "%s  %-8s %-6s %s  %s\n",
			r.ComposedAt.Format("2006-01-02 15:04:05"), r.SubjectID, r.Urgency, r.ContentID, r.Filename)
	}
	return nil
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "fetch <content-id>",
		Short: "Write a locally stored report PDF to disk",
		Long: `Write an artifact held by the local storage backend back to disk under
the filename it was published with.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(rootOpts, args[0], outDir, cmd)
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "directory for the PDF")

	return cmd
}

func runFetch(rootOpts *RootOptions, contentID, outDir string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	a, err := newApp(rootOpts, cmd.ErrOrStderr())
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	defer a.Close()

	st, err := a.openStore()
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
	}
	defer st.Close()

	art, err := st.GetArtifact(cmd.Context(), contentID)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no artifact %s", contentID), nil)
	}
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}
	out := filepath.Join(outDir, art.Filename)
	if err := os.WriteFile(out, art.Data, 0o644); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"content_id": art.ContentID, "path": out, "bytes": len(art.Data)})
	}
	formatter.Done("Wrote %s (%d bytes)", out, len(art.Data))
	return nil
}
