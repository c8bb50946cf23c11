package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// DefaultSettle is how long a file must stay quiet before it is processed.
const DefaultSettle = 300 * time.Millisecond

// WatchOptions holds watch command flags.
type WatchOptions struct {
	OutputDir string
	Publish   bool
	Backend   string
	Existing  bool
	Settle    time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <inbox-dir>",
		Short: "Compose reports as they arrive in a directory",
		Long: `Watch an inbox directory and compose (or publish) every report file that
is created or rewritten there. Runs until interrupted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "output", "o", ".", "directory for the PDFs")
	cmd.Flags().BoolVar(&opts.Publish, "publish", false, "publish each report instead of only writing it")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "storage backend override when publishing")
	cmd.Flags().BoolVar(&opts.Existing, "existing", false, "process files already in the inbox first")
	cmd.Flags().DurationVar(&opts.Settle, "settle", DefaultSettle, "quiet period before a changed file is processed")

	return cmd
}

func runWatch(rootOpts *RootOptions, opts *WatchOptions, inbox string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

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

	w, err := NewInboxWatcher(opts.Settle, a.logger)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	defer w.Stop()

	paths, err := w.Watch(ctx, inbox)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("watch %s: %v", inbox, err), nil)
	}

	if opts.Existing {
		if files, err := FindReportFiles(inbox); err == nil {
			for _, f := range files {
				emitItem(formatter, proc.process(ctx, f))
			}
		}
	}

	formatter.VerboseLog("Watching %s", inbox)
	for path := range paths {
		emitItem(formatter, proc.process(ctx, path))
	}
	return nil
}

// emitItem writes one item as a text line or a JSON line.
func emitItem(formatter *OutputFormatter, it BatchItem) {
	if formatter.Format == "json" {
		_ = formatter.Success(it)
		return
	}
	printItem(formatter, it)
}

// InboxWatcher reports report files that were created or rewritten in a
// directory, once each file has been quiet for the settle period.
type InboxWatcher struct {
	watcher *fsnotify.Watcher
	settle  time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewInboxWatcher creates a watcher. A zero settle selects DefaultSettle.
func NewInboxWatcher(settle time.Duration, logger *slog.Logger) (*InboxWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &InboxWatcher{
		watcher: w,
		settle:  settle,
		logger:  logger,
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Watch starts monitoring dir. The returned channel is closed when ctx is
// done or the watcher is stopped.
func (w *InboxWatcher) Watch(ctx context.Context, dir string) (<-chan string, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	ready := make(chan string, 16)
	done := make(chan struct{})
	out := make(chan string)

	go func() {
		defer close(out)
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				w.cancelTimers()
				return
			case path := <-ready:
				select {
				case out <- path:
				case <-ctx.Done():
					w.cancelTimers()
					return
				}
			case event, ok := <-w.watcher.Events:
				if !ok {
					w.cancelTimers()
					return
				}
				if !isReportFile(filepath.Base(event.Name)) {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				w.schedule(event.Name, ready, done)
			case err, ok := <-w.watcher.Errors:
				if !ok {
					w.cancelTimers()
					return
				}
				w.logger.Warn("inbox watch error", "dir", dir, "error", err)
			}
		}
	}()

	return out, nil
}

// schedule (re)starts the settle timer for path.
func (w *InboxWatcher) schedule(path string, ready chan<- string, done <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		if w.timers[path] == t {
			delete(w.timers, path)
		}
		w.mu.Unlock()
		select {
		case ready <- path:
		case <-done:
		}
	})
	w.timers[path] = t
}

func (w *InboxWatcher) cancelTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// Stop stops the watcher.
func (w *InboxWatcher) Stop() error {
	return w.watcher.Close()
}
