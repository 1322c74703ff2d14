// Package watcher reports changes to a single file.
//
// The parent directory is watched rather than the file itself, so editors
// that save by renaming a temporary file are still seen. Bursts of events
// are debounced into one [Change]: a change is delivered once the file has
// been quiet for the quiet period, or after maxWait at the latest.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// Defaults for [New].
const (
	DefaultQuietPeriod = 200 * time.Millisecond
	DefaultMaxWait     = 2 * time.Second
)

// Change is one debounced batch of events on the watched file.
type Change struct {
	Path   string
	Events int
	Time   time.Time
}

// Options configures a FileWatcher. Zero values use the defaults.
type Options struct {
	QuietPeriod time.Duration
	MaxWait     time.Duration
	Logger      *log.Logger
}

// FileWatcher watches one file for writes, creates and renames.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	quiet   time.Duration
	maxWait time.Duration
	logger  *log.Logger
	changes chan Change
}

// New starts watching path. The file itself need not exist yet.
func New(path string, opts Options) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	if opts.QuietPeriod <= 0 {
		opts.QuietPeriod = DefaultQuietPeriod
	}
	if opts.MaxWait < opts.QuietPeriod {
		opts.MaxWait = max(DefaultMaxWait, opts.QuietPeriod)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &FileWatcher{
		watcher: w,
		path:    abs,
		quiet:   opts.QuietPeriod,
		maxWait: opts.MaxWait,
		logger:  opts.Logger,
		changes: make(chan Change, 1),
	}, nil
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string { return fw.path }

// Changes returns the debounced change stream. It is closed when Run
// returns.
func (fw *FileWatcher) Changes() <-chan Change { return fw.changes }

// Run processes events until ctx ends, then closes the watcher.
func (fw *FileWatcher) Run(ctx context.Context) {
	defer close(fw.changes)
	defer fw.watcher.Close()

	quiet := time.NewTimer(fw.quiet)
	quiet.Stop()
	var deadline <-chan time.Time
	var pending int
	var first time.Time

	flush := func() {
		if pending == 0 {
			return
		}
		ch := Change{Path: fw.path, Events: pending, Time: time.Now()}
		fw.logger.Debug("file changed", "path", fw.path, "events", pending, "waited", time.Since(first).Round(time.Millisecond))
		pending, deadline = 0, nil
		quiet.Stop()
		select {
		case fw.changes <- ch:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(ev) {
				continue
			}
			if pending == 0 {
				first = time.Now()
				deadline = time.After(fw.maxWait)
			}
			pending++
			quiet.Reset(fw.quiet)

		case <-quiet.C:
			flush()

		case <-deadline:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("watcher error", "err", err)
		}
	}
}

func (fw *FileWatcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != fw.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
