// Package watch monitors log roots for changes and delivers debounced
// batches of touched .jsonl paths, driving incremental re-indexing.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces the bursts of writes agents produce while
// streaming a response.
const debounceDelay = 500 * time.Millisecond

// Watcher wraps fsnotify over a set of log roots.
type Watcher struct {
	fsw   *fsnotify.Watcher
	done  chan struct{}
	Batch chan []string
	Errs  chan error
}

// New starts watching the given roots and all their subdirectories.
// Roots that do not exist yet are skipped.
func New(roots []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:   fsw,
		done:  make(chan struct{}),
		Batch: make(chan []string, 16),
		Errs:  make(chan error, 4),
	}

	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				_ = fsw.Add(path)
			}
			return nil
		})
	}

	go w.loop()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]string, 0, len(pending))
		for path := range pending {
			batch = append(batch, path)
		}
		pending = make(map[string]struct{})
		select {
		case w.Batch <- batch:
		case <-w.done:
		}
	}

	for {
		select {
		case <-w.done:
			return

		case ev, open := <-w.fsw.Events:
			if !open {
				return
			}
			// New project directories appear after startup; watch them too.
			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.fsw.Add(ev.Name)
				}
			}
			if !strings.HasSuffix(ev.Name, ".jsonl") {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
				ev.Op.Has(fsnotify.Rename) || ev.Op.Has(fsnotify.Remove) {
				pending[ev.Name] = struct{}{}
				if timer == nil {
					timer = time.NewTimer(debounceDelay)
				} else {
					timer.Reset(debounceDelay)
				}
				fire = timer.C
			}

		case <-fire:
			flush()
			fire = nil

		case err, open := <-w.fsw.Errors:
			if !open {
				return
			}
			select {
			case w.Errs <- err:
			default:
			}
		}
	}
}
