// Package watcher reports changes below the local targets so their documents can be
// regenerated.
package watcher

import (
	iofs "io/fs"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/CageChen/repodoc/internal/config"
	"github.com/CageChen/repodoc/internal/logger"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

var eventNames = map[EventType]string{
	EventCreate: "create",
	EventWrite:  "update",
	EventRemove: "remove",
	EventRename: "rename",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is one change below a watched root.
type Event struct {
	Type EventType
	Path string
}

// Callback receives every reported change.
type Callback func(Event)

// Watcher watches every directory of the local targets, recursively.
type Watcher struct {
	fsw *fsnotify.Watcher
	cfg *config.Config
	log logger.Logger

	mu        sync.RWMutex
	callbacks []Callback

	done     chan struct{}
	stopOnce sync.Once
}

// New creates a watcher for cfg's targets. Nothing is watched until Start.
func New(cfg *config.Config, log logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:  fsw,
		cfg:  cfg,
		log:  log,
		done: make(chan struct{}),
	}, nil
}

// OnChange registers cb for every reported change.
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start adds the directories of every local target and starts delivering events.
// Targets read from a git ref are skipped: their content comes from the object database.
func (w *Watcher) Start() error {
	for _, t := range w.cfg.Targets() {
		if t.Local() {
			w.addTree(t.AbsDir())
		}
	}
	go w.loop()
	return nil
}

// addTree watches root and every non-excluded directory below it.
func (w *Watcher) addTree(root string) {
	err := filepath.WalkDir(root, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.cfg.IsExcluded(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("cannot watch %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		w.log.Warn("failed to walk %s: %v", root, err)
	}
}

// Stop stops delivering events. It is safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error: %v", err)
		}
	}
}

func eventType(op fsnotify.Op) (EventType, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return EventCreate, true
	case op.Has(fsnotify.Write):
		return EventWrite, true
	case op.Has(fsnotify.Remove):
		return EventRemove, true
	case op.Has(fsnotify.Rename):
		return EventRename, true
	}
	return 0, false
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Generated documents would otherwise trigger another generation
	if w.cfg.IsExcluded(event.Name) || w.cfg.IsOutputFile(event.Name) {
		return
	}
	typ, ok := eventType(event.Op)
	if !ok {
		return
	}
	if typ == EventCreate {
		// mkdir -p creates whole subtrees before the first event arrives
		w.addTree(event.Name)
	}

	e := Event{Type: typ, Path: event.Name}
	w.mu.RLock()
	callbacks := append([]Callback(nil), w.callbacks...)
	w.mu.RUnlock()
	for _, cb := range callbacks {
		cb(e)
	}
}
