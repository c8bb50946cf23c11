package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/medreport/internal/compose"
)

// BatchOptions holds batch command flags.
type BatchOptions struct {
	OutputDir string
	Jobs      int
	Publish   bool
	Backend   string
}

// BatchItem is the outcome for one report file.
type BatchItem struct {
	File      string `json:"file"`
	OK        bool   `json:"ok"`
	Filename  string `json:"filename,omitempty"`
	Path      string `json:"path,omitempty"`
	ContentID string `json:"content_id,omitempty"`
	Overflow  bool   `json:"overflow,omitempty"`
	Code      string `json:"code,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchResult summarizes a batch run. Items keep the input order.
type BatchResult struct {
	Total     int         `json:"total"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []BatchItem `json:"items"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <dir-or-file>...",
		Short: "Compose many reports concurrently",
		Long: `Compose every report file in the given directories (and any files named
directly), several at a time. One bad report does not stop the others; the
command exits with 1 when any report failed.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", ".", "directory for the PDFs")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "concurrent compositions (default GOMAXPROCS)")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "publish each report instead of only writing it")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "storage backend override when publishing")

	return cmd
}

func runBatch(rootOpts *RootOptions, opts *BatchOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	files, err := expandInputs(args)
	if err != nil {
		return failLoad(formatter, err)
	}
	formatter.VerboseLog("Found %d report file(s)", len(files))

	a, err := newApp(rootOpts, cmd.ErrOrStderr(), backendOverride(opts.Backend))
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	defer a.Close()

	proc := &processor{loader: a.loader, asm: a.assembler(), outDir: opts.OutputDir}
	if opts.Publish {
		st, err := a.openStore()
		if err != nil {
			return formatter.fail(ExitCommandError, ErrCodeRecordFailed, err.Error(), nil)
		}
		defer st.Close()
		if proc.pub, err = a.publisher(st); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	items, err := proc.all(ctx, files, opts.Jobs)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	result := BatchResult{Total: len(items), Items: items}
	for _, it := range items {
		if it.OK {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, it := range items {
			printItem(formatter, it)
		}
		fmt.Fprintf(formatter.Writer, "%d composed, %d failed\n", result.Succeeded, result.Failed)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d report(s) failed", result.Failed, result.Total))
	}
	return nil
}

// expandInputs turns directory arguments into their report files.
func expandInputs(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			found, err := FindReportFiles(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, found...)
			continue
		}
		files = append(files, arg)
	}
	return files, nil
}

// processor turns report files into written or published documents.
// It is shared by the batch and watch commands.
type processor struct {
	loader *Loader
	asm    *compose.Assembler
	// pub is nil when documents are only written to outDir.
	pub    *compose.Publisher
	outDir string
}

// all processes files with at most jobs running at once. Per-file failures
// are reported in the items; only cancellation returns an error.
func (p *processor) all(ctx context.Context, files []string, jobs int) ([]BatchItem, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each goroutine writes only its own index.
	items := make([]BatchItem, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(files), 1)))

	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			items[i] = p.process(gctx, file)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// process handles one file and never fails; errors are recorded in the item.
func (p *processor) process(ctx context.Context, file string) BatchItem {
	item := BatchItem{File: file}

	in, err := p.loader.Load(file, "")
	if err != nil {
		item.Code, _ = classify(err)
		item.Error = err.Error()
		return item
	}

	if p.pub == nil {
		res, err := composeToFile(ctx, p.asm, in, p.outDir)
		if err != nil {
			item.Code, _ = classify(err)
			item.Error = err.Error()
			return item
		}
		item.OK = true
		item.Filename, item.Path, item.Overflow = res.Filename, res.Path, res.Overflow
		return item
	}

	res, err := publishOne(ctx, p.asm, p.pub, in, "")
	if res != nil {
		item.Filename, item.ContentID, item.Overflow = res.Filename, res.ContentID, res.Overflow
	}
	if err != nil {
		item.Code, _ = classify(err)
		item.Error = err.Error()
		return item
	}
	item.OK = true
	return item
}

func printItem(formatter *OutputFormatter, it BatchItem) {
	switch {
	case !it.OK:
		formatter.Failed("%s [%s] %s", it.File, it.Code, it.Error)
	case it.ContentID != "":
		formatter.Done("%s -> %s (%s)", it.File, it.Filename, it.ContentID)
	default:
		formatter.Done("%s -> %s", it.File, it.Path)
	}
	if it.OK && it.Overflow {
		formatter.Warn("%s: report body runs into the signature block", it.File)
	}
}
