package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reports changes to one outline file. It watches the file's
// directory, so editors that save by renaming a temp file over the original
// are seen too.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	log     zerolog.Logger

	mu          sync.Mutex
	subscribers map[chan struct{}]struct{}

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started bool

	// A change is reported once the file has been quiet this long.
	debounce time.Duration
}

// NewWatcher creates a watcher for path. Call Start to begin.
func NewWatcher(path string, log zerolog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:        abs,
		watcher:     fw,
		log:         log,
		subscribers: make(map[chan struct{}]struct{}),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		debounce:    200 * time.Millisecond,
	}, nil
}

// SetDebounce sets how long the file must stay quiet before a change is
// reported. A burst of writes yields one signal after the last of them.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching the file's directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch outline directory: %w", err)
	}
	w.started = true
	go w.watchLoop()
	return nil
}

// Stop shuts the watcher down and closes every subscription.
func (w *Watcher) Stop() {
	w.cancel()
	w.watcher.Close()
	if w.started {
		<-w.done
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subscribers {
		close(ch)
	}
	w.subscribers = make(map[chan struct{}]struct{})
}

// Subscribe returns a channel that receives a value after each change.
// Signals coalesce: a slow reader sees at most one pending change.
func (w *Watcher) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	w.subscribers[ch] = struct{}{}
	w.mu.Unlock()
	return ch
}

func (w *Watcher) watchLoop() {
	defer close(w.done)
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.log.Debug().Str("path", w.path).Str("op", event.Op.String()).Msg("outline event")
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.log.Debug().Str("path", w.path).Msg("outline changed")
			w.notify()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("outline watcher error")
		}
	}
}

func (w *Watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for ch := range w.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
