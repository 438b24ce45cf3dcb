package app

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
)

// watchDebounce coalesces the bursts of events editors produce when saving
const watchDebounce = 200 * time.Millisecond

// Refresher re-syncs a store from its remote document on a schedule
// and/or whenever a file-based document changes
type Refresher struct {
	store *Store
	cron  *cron.Cron

	watchPath string
	watcher   *fsnotify.Watcher
	wg        sync.WaitGroup
}

// NewRefresher creates a refresher. An empty schedule and watchPath make Start a no-op.
// watchPath may carry a file:// prefix.
func NewRefresher(store *Store, schedule, watchPath string, loc *time.Location) (*Refresher, error) {
	r := &Refresher{store: store, watchPath: LocalPath(watchPath)}

	if schedule != "" {
		r.cron = cron.New(cron.WithLocation(loc))
		if _, err := r.cron.AddFunc(schedule, r.refresh); err != nil {
			return nil, fmt.Errorf("add refresh schedule %q: %w", schedule, err)
		}
	}
	return r, nil
}

func (r *Refresher) refresh() {
	if err := r.store.FetchRemote(context.Background()); err != nil {
		log.Printf("There was a problem with the fetch operation: %v", err)
	}
}

// Start begins scheduled refreshes and file watching
func (r *Refresher) Start(ctx context.Context) error {
	if r.cron != nil {
		r.cron.Start()
		log.Printf("Remote refresh scheduled (%d entries)", len(r.cron.Entries()))
	}

	if r.watchPath == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Watch the directory: editors often replace the file instead of writing it
	if err := watcher.Add(filepath.Dir(r.watchPath)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", r.watchPath, err)
	}
	r.watcher = watcher

	r.wg.Add(1)
	go r.watchLoop(ctx)
	log.Printf("Watching remote document %s", r.watchPath)
	return nil
}

func (r *Refresher) watchLoop(ctx context.Context) {
	defer r.wg.Done()

	target := filepath.Clean(r.watchPath)
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			debounce = time.After(watchDebounce)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		case <-debounce:
			debounce = nil
			log.Printf("Remote document %s changed, refreshing", r.watchPath)
			r.refresh()
		}
	}
}

// Stop ends scheduled refreshes and file watching
func (r *Refresher) Stop() {
	if r.cron != nil {
		<-r.cron.Stop().Done()
	}
	if r.watcher != nil {
		r.watcher.Close()
		r.wg.Wait()
	}
}
