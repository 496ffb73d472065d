package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/sybil-ranker/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeNetwork ChangeType = iota
	ChangeTypeLabels
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeNetwork:
		return "network"
	case ChangeTypeLabels:
		return "labels"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchDelay groups bursts of raw events, e.g. truncate followed by write
const batchDelay = 100 * time.Millisecond

// FileWatcher watches the input files of a ranking run. It watches the
// parent directories so that editors replacing a file by rename are seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType // cleaned absolute path -> type
	events  chan ChangeEvent
	done    chan struct{}
	once    sync.Once
}

// NewFileWatcher creates a watcher for the network and label files
func NewFileWatcher(network, labels string) (*FileWatcher, error) {
	files := make(map[string]ChangeType, 2)
	for path, t := range map[string]ChangeType{network: ChangeTypeNetwork, labels: ChangeTypeLabels} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		files[abs] = t
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		files:   files,
		events:  make(chan ChangeEvent, 100),
		done:    make(chan struct{}),
	}

	return fw, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for path := range fw.files {
		dirs[filepath.Dir(path)] = true
	}
	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			fw.watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	logging.Info("started watching input files", "files", len(fw.files), "directories", len(dirs))

	// Process events
	go fw.processEvents(ctx)

	return nil
}

// classify maps a raw event to the watched file it touches
func (fw *FileWatcher) classify(event fsnotify.Event) (ChangeType, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return 0, false
	}
	t, ok := fw.files[filepath.Clean(event.Name)]
	return t, ok
}

// processEvents processes file system events and batches them by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	// Batch events to avoid sending one event per write
	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchDelay)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeNetwork, ChangeTypeLabels} {
			if paths := pending[t]; len(paths) > 0 {
				fw.events <- ChangeEvent{
					Type:      t,
					Paths:     paths,
					Timestamp: time.Now(),
				}
			}
		}
		clear(pending)
	}

	defer func() {
		fw.watcher.Close()
		close(fw.events)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			t, relevant := fw.classify(event)
			if !relevant {
				continue
			}
			logging.Trace("input file event", "path", event.Name, "op", event.Op.String())
			pending[t] = append(pending[t], event.Name)
			flushTimer.Reset(batchDelay)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop stops the file watcher
func (fw *FileWatcher) Stop() {
	fw.once.Do(func() { close(fw.done) })
}
