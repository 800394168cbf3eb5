package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// resultInfix marks files written by watch so they are not picked up again.
const resultInfix = ".consolidated."

type watchOptions struct {
	requestFlags
	outDir   string
	debounce time.Duration
	initial  bool
}

// NewWatchCmd creates the watch command.
func NewWatchCmd() *cobra.Command {
	var opts watchOptions
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Consolidate every JSON file written to a directory",
		Long: "Watches DIR and consolidates each *.json file once it stops changing.\n" +
			"Results are written next to the input (or to --out-dir) as\n" +
			"NAME.consolidated.EXT, with EXT following -o.  Runs until interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runWatch(cmd, cliCtx, args[0], &opts)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.outDir, "out-dir", "", "directory for results (default: DIR)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "quiet period before a changed file is read")
	cmd.Flags().BoolVar(&opts.initial, "initial", false, "also consolidate the JSON files already in DIR")
	return cmd
}

func runWatch(cmd *cobra.Command, cliCtx *CLIContext, dir string, opts *watchOptions) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return errors.Newf(errors.ErrCodeValidation, "%s is not a directory", dir)
	}
	outDir := opts.outDir
	if outDir == "" {
		outDir = dir
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrCodeInternal, "cannot create %s", outDir)
	}
	ext := resultExtension(cliCtx.OutputFormat)
	log := cliCtx.Logger.Named("watch")

	// --timeout bounds each file, not the whole watch.
	ctx := cmd.Context()
	return cliCtx.withBackend(ctx, func(b backend) error {
		process := func(ctx context.Context, path string) error {
			f, err := readFile(path, nil)
			if err != nil {
				return err
			}
			req := f.request()
			if err := opts.apply(req); err != nil {
				return err
			}
			fctx, cancel := cliCtx.commandContext(ctx)
			defer cancel()
			out, err := b.Consolidate(fctx, req)
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := writeOutput(fctx, &buf, cliCtx, out); err != nil {
				return err
			}
			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			dst := filepath.Join(outDir, base+resultInfix+ext)
			if err := writeFileAtomic(dst, buf.Bytes()); err != nil {
				return err
			}
			log.Info("input consolidated",
				logging.String("file", path),
				logging.String("result", dst),
				logging.Int("wo_entries", out.Statistics.TotalWOPatents),
				logging.String(logging.FieldRunID, out.Metadata.RunID))
			return nil
		}

		w := newDirWatcher(dir, opts.debounce, process, log)
		if opts.initial {
			w.processExisting(ctx)
		}
		return w.Run(ctx)
	})
}

func resultExtension(format string) string {
	switch format {
	case OutputYAML:
		return "yaml"
	case OutputMarkdown:
		return "md"
	case OutputHTML:
		return "html"
	case OutputTable:
		return "txt"
	default:
		return "json"
	}
}

// isInput accepts visible *.json files that are not watch results.
func isInput(path string) bool {
	base := filepath.Base(path)
	return strings.EqualFold(filepath.Ext(base), ".json") &&
		!strings.HasPrefix(base, ".") &&
		!strings.Contains(base, resultInfix)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".patentcliff-*")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "cannot create result file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, errors.ErrCodeInternal, "cannot write result file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "cannot write result file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "cannot move result file into place")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// dirWatcher
// ─────────────────────────────────────────────────────────────────────────────

// dirWatcher debounces fsnotify events per file and hands settled paths to
// process one at a time.
type dirWatcher struct {
	dir      string
	debounce time.Duration
	process  func(ctx context.Context, path string) error
	logger   logging.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	ready   chan string
	done    chan struct{}
}

func newDirWatcher(dir string, debounce time.Duration, process func(context.Context, string) error, logger logging.Logger) *dirWatcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &dirWatcher{
		dir:      dir,
		debounce: debounce,
		process:  process,
		logger:   logger,
		pending:  make(map[string]*time.Timer),
		ready:    make(chan string),
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled.
func (w *dirWatcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "cannot start file watcher")
	}
	defer fw.Close()
	if err := fw.Add(w.dir); err != nil {
		return errors.Wrapf(err, errors.ErrCodeInternal, "cannot watch %s", w.dir)
	}
	defer w.stop()

	w.logger.Info("watching directory", logging.String("dir", w.dir), logging.Duration("debounce", w.debounce))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) && isInput(ev.Name) {
				w.schedule(ev.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", logging.Err(err))
		case path := <-w.ready:
			w.handle(ctx, path)
		}
	}
}

func (w *dirWatcher) handle(ctx context.Context, path string) {
	if err := w.process(ctx, path); err != nil {
		w.logger.Warn("input skipped", logging.String("file", path), logging.Err(err))
	}
}

// processExisting handles the inputs already present, in name order.
func (w *dirWatcher) processExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("cannot list directory", logging.String("dir", w.dir), logging.Err(err))
		return
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && isInput(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, n := range names {
		if ctx.Err() != nil {
			return
		}
		w.handle(ctx, filepath.Join(w.dir, n))
	}
}

// schedule (re)starts the quiet-period timer of path.
func (w *dirWatcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *dirWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for p, t := range w.pending {
		t.Stop()
		delete(w.pending, p)
	}
	close(w.done)
}

//Personal.AI order the ending
