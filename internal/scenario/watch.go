package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/doccontent/internal/content/mirror"
	"github.com/dshills/doccontent/internal/logging"
)

// DefaultDebounce coalesces the bursts of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Watch replays path once, then again every time the file changes, until
// ctx is done. Scenarios run on documents built from base. Each replay's
// results, or its load error, go to fn.
//
// The parent directory is watched rather than the file so that editors
// which save by renaming a temp file over it are noticed.
func Watch(ctx context.Context, path string, debounce time.Duration, base mirror.Options, fn func([]Result, error)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	logger := logging.FromContext(ctx).With(logging.FieldPath, abs)
	replay := func() {
		scs, err := LoadFile(abs)
		if err != nil {
			fn(nil, err)
			return
		}
		fn(RunAll(ctx, scs, base), nil)
	}
	replay()

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			logger.Debug("scenario file changed", "op", ev.Op.String())
			timer.Reset(debounce)

		case <-timer.C:
			replay()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", logging.FieldError, err)
		}
	}
}
