// Package watch regenerates a project's artifacts whenever its export
// file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fedorabakumets/telegram-bot-builder/compiler/gen"
	"github.com/fedorabakumets/telegram-bot-builder/compiler/load"
)

// DefaultDebounce coalesces the burst of write events editors emit on
// save into a single regeneration.
const DefaultDebounce = 250 * time.Millisecond

// Watcher regenerates artifacts on change. Path is the project export
// to watch; Dir is the output directory.
type Watcher struct {
	Path     string
	Dir      string
	Debounce time.Duration
	Options  []gen.Option

	// OnResult is called after each successful regeneration. Optional.
	OnResult func(*gen.Result)
	// OnError is called when a regeneration fails. The watch keeps
	// running; a broken intermediate save should not stop it. Optional.
	OnError func(error)
}

func (w *Watcher) debounce() time.Duration {
	if w.Debounce > 0 {
		return w.Debounce
	}
	return DefaultDebounce
}

// generate runs one compile-and-write cycle.
func (w *Watcher) generate(ctx context.Context) error {
	p, err := load.ReadFile(w.Path)
	if err != nil {
		return err
	}
	res, err := gen.Generate(p, w.Options...)
	if err != nil {
		return err
	}
	if _, err := gen.WriteResult(ctx, w.Dir, res); err != nil {
		return err
	}
	if w.OnResult != nil {
		w.OnResult(res)
	}
	return nil
}

// Run generates once, then blocks regenerating on every change until
// the context is canceled. The parent directory is watched rather than
// the file itself; editors that replace the file on save would
// otherwise detach the watch.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.generate(ctx); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: creating watcher: %w", err)
	}
	defer fw.Close()
	dir := filepath.Dir(w.Path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch: watching %s: %w", dir, err)
	}
	target := filepath.Clean(w.Path)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce())
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce())
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError(err)
			}
		case <-fire:
			timer = nil
			fire = nil
			if err := w.generate(ctx); err != nil && w.OnError != nil {
				w.OnError(err)
			}
		}
	}
}
