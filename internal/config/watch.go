package config

import (
	"context"
	"os"
	"time"
)

// Watcher polls the config file and reports reloads to a subscriber.
// The subscriber receives the freshly loaded config; load errors are
// reported separately and do not replace the last good config.
type Watcher struct {
	path     string
	interval time.Duration

	onChange func(Loaded)
	onError  func(error)

	lastModTime time.Time
	lastSize    int64
}

// NewWatcher builds a polling watcher for the resolved config path.
func NewWatcher(path string, interval time.Duration, onChange func(Loaded), onError func(error)) *Watcher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Watcher{
		path:     path,
		interval: interval,
		onChange: onChange,
		onError:  onError,
	}
}

// Run polls until context cancellation. The initial stat seeds the baseline
// so only subsequent edits trigger notifications.
func (w *Watcher) Run(ctx context.Context) {
	if info, err := os.Stat(w.path); err == nil {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	info, err := os.Stat(w.path)
	if err != nil {
		// Missing file is not a change event; defaults stay in effect.
		return
	}

	if info.ModTime().Equal(w.lastModTime) && info.Size() == w.lastSize {
		return
	}
	w.lastModTime = info.ModTime()
	w.lastSize = info.Size()

	loaded, err := Load(w.path)
	if err != nil {
		if w.onError != nil {
			w.onError(err)
		}
		return
	}
	if w.onChange != nil {
		w.onChange(loaded)
	}
}
