package pipeline

import (
	"context"
	"time"

	"github.com/ritzau/sybil-ranker/pkg/logging"
	"github.com/ritzau/sybil-ranker/pkg/watcher"
)

const (
	// quietPeriod waits for an editor or generator to finish writing
	quietPeriod = 500 * time.Millisecond
	maxWait     = 5 * time.Second
)

// Watch reruns whenever the network or label file changes, until ctx is
// cancelled. A failed rerun is logged and the previous scores stay in place.
// onResult, if set, is called after every successful rerun.
func (r *Runner) Watch(ctx context.Context, onResult func(*Result)) error {
	fw, err := watcher.NewFileWatcher(r.cfg.Network, r.cfg.Labels)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}
	defer fw.Stop()

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	for event := range debouncer.Output() {
		batch := []watcher.ChangeEvent{event}
		// Drain what the debouncer flushed together
	drain:
		for {
			select {
			case more, ok := <-debouncer.Output():
				if !ok {
					break drain
				}
				batch = append(batch, more)
			default:
				break drain
			}
		}

		logging.TraceContext(ctx, "change batch", "events", len(batch))
		analysis := watcher.AnalyzeChanges(batch...)
		if !analysis.NeedRerun() {
			continue
		}
		logging.InfoContext(ctx, "input changed", "reason", analysis.Reason(), "files", analysis.ChangedFiles)

		result, err := r.Run(ctx, analysis.Reason())
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logging.ErrorContext(ctx, "rerun failed, keeping previous scores", "error", err)
			continue
		}
		if onResult != nil {
			onResult(result)
		}
	}

	return ctx.Err()
}
