package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/debounce"
	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// watchFile calls onChange once immediately and again after every burst of changes to path, until ctx is done.
// The parent directory is watched because most editors replace files instead of writing them in place.
func watchFile(ctx context.Context, path string, onChange func()) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve %q: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("cannot watch %q: %w", path, err)
	}

	onChange()
	debouncer := debounce.New(watchDebounce)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name == path && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				debouncer(onChange)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			color.Red("watcher error: %v", err)
		case <-ctx.Done():
			return nil
		}
	}
}
