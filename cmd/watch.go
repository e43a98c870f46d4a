package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-tab/logging"
	"github.com/RyanBlaney/sonido-tab/tablature"
)

var (
	watchOutDir string
	watchDelay  time.Duration
)

func init() {
	watchCmd.Flags().StringVar(&watchOutDir, "out", "", "directory for <name>.tab.json results (default: next to the input)")
	watchCmd.Flags().DurationVar(&watchDelay, "settle", 500*time.Millisecond, "wait this long after the last write before processing a file")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Transcribes WAV files as they appear in a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := newDirWatcher(tablature.NewPipeline(cfg), watchOutDir, watchDelay)
		return w.run(cmd.Context(), args[0])
	},
}

func isWAV(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".wav" || ext == ".wave"
}

// dirWatcher queues new or rewritten WAV files once their writes settle
// and processes them one at a time
type dirWatcher struct {
	pipeline *tablature.Pipeline
	outDir   string
	delay    time.Duration
	logger   logging.Logger

	mu         sync.Mutex
	debouncers map[string]func(func())

	jobs chan string
}

func newDirWatcher(pipeline *tablature.Pipeline, outDir string, delay time.Duration) *dirWatcher {
	return &dirWatcher{
		pipeline:   pipeline,
		outDir:     outDir,
		delay:      delay,
		debouncers: make(map[string]func(func())),
		jobs:       make(chan string, 64),
		logger: logging.WithFields(logging.Fields{
			"component": "dir_watcher",
		}),
	}
}

func (w *dirWatcher) run(ctx context.Context, dir string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info("Watching directory", logging.Fields{"dir": dir})

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.processQueue(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if (event.Has(fsnotify.Create) || event.Has(fsnotify.Write)) && isWAV(event.Name) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err, "Watcher error")
		}
	}
}

// schedule queues path once no event for it has arrived for w.delay
func (w *dirWatcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	debounced, ok := w.debouncers[path]
	if !ok {
		debounced = debounce.New(w.delay)
		w.debouncers[path] = debounced
	}
	w.mu.Unlock()

	debounced(func() {
		w.mu.Lock()
		delete(w.debouncers, path)
		w.mu.Unlock()

		select {
		case w.jobs <- path:
		case <-ctx.Done():
		default:
			w.logger.Warn("Queue full, dropping file", logging.Fields{"path": path})
		}
	})
}

func (w *dirWatcher) processQueue(ctx context.Context) {
	for {
		select {
		case path := <-w.jobs:
			if _, err := w.process(ctx, path); err != nil {
				w.logger.Error(err, "Failed to write result", logging.Fields{"path": path})
			}
		case <-ctx.Done():
			return
		}
	}
}

// process runs the pipeline on path and writes the JSON result, returning
// where it was written. Pipeline failures are written as error documents.
func (w *dirWatcher) process(ctx context.Context, path string) (string, error) {
	res, err := w.pipeline.Run(ctx, path)
	if err != nil {
		w.logger.Warn("Transcription failed", logging.Fields{
			"path":   path,
			"status": tablature.Classify(err).String(),
			"reason": err.Error(),
		})
		res = tablature.ErrorResult(err)
	}

	dir := w.outDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	outPath := filepath.Join(dir, base+".tab.json")

	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if err := writeJSON(f, res, true); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	w.logger.Info("Transcription written", logging.Fields{
		"path":   path,
		"output": outPath,
		"events": len(res.Timing),
	})
	return outPath, nil
}
