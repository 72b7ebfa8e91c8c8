package reload

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/forgecrew/promptengine/internal/pkg/logger"
	"github.com/forgecrew/promptengine/internal/registry/common"
)

// Decoder parses one resource file's bytes into a domain entry. dir is the
// resource's own directory (e.g. resources/prompts/<id>/), passed through
// so a prompt loader can stash PromptDir and resolve companion files.
type Decoder[T common.Entry] func(data []byte, dir string) (T, error)

// EventKind classifies a filesystem change for logging (spec.md §4.10:
// added, modified, removed).
type EventKind string

const (
	EventAdded    EventKind = "added"
	EventModified EventKind = "modified"
	EventRemoved  EventKind = "removed"
)

// Coordinator watches one registry's root directory tree for YAML changes
// and hot-swaps entries into the associated Store. On a change event it
// invalidates the affected ID, re-parses the file, re-validates (decode
// failure counts as invalid), and on success swaps the entry atomically; on
// failure it retains the previous entry and logs (spec.md §4.10).
type Coordinator[T common.Entry] struct {
	mu       sync.Mutex
	root     string
	fileName string // e.g. "prompt.yaml", "gate.yaml"
	store    *common.Store[T]
	tracker  *ResourceChangeTracker
	decode   Decoder[T]
	watcher  *fsnotify.Watcher
	pathToID map[string]string // resource dir -> registered id, for removal
	closeCh  chan struct{}
}

// NewCoordinator builds a Coordinator for one registry. root is the
// registry's resource root (e.g. resources/prompts); fileName is the
// per-directory primary file name (e.g. "prompt.yaml").
func NewCoordinator[T common.Entry](root, fileName string, store *common.Store[T], tracker *ResourceChangeTracker, decode Decoder[T]) *Coordinator[T] {
	return &Coordinator[T]{
		root:     root,
		fileName: fileName,
		store:    store,
		tracker:  tracker,
		decode:   decode,
		pathToID: make(map[string]string),
		closeCh:  make(chan struct{}),
	}
}

// LoadAll performs the initial synchronous scan of root, loading every
// <root>/<id>/<fileName>.
func (c *Coordinator[T]) LoadAll() error {
	entries, err := listResourceDirs(c.root)
	if err != nil {
		return err
	}
	for _, dir := range entries {
		c.loadOne(filepath.Join(dir, c.fileName), dir, EventAdded)
	}
	return nil
}

// Start begins watching root (and its immediate children, where each
// resource's files live) for changes.
func (c *Coordinator[T]) Start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	c.watcher = w

	if err := w.Add(c.root); err != nil {
		return err
	}
	dirs, _ := listResourceDirs(c.root)
	for _, d := range dirs {
		_ = w.Add(d)
	}

	go c.watchLoop()
	return nil
}

// Stop releases the fsnotify watcher.
func (c *Coordinator[T]) Stop() {
	close(c.closeCh)
	if c.watcher != nil {
		_ = c.watcher.Close()
	}
}

func (c *Coordinator[T]) watchLoop() {
	for {
		select {
		case <-c.closeCh:
			return
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.handleEvent(ev)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("[HotReload] watcher error on %q: %v", c.root, err)
		}
	}
}

func (c *Coordinator[T]) handleEvent(ev fsnotify.Event) {
	if filepath.Base(ev.Name) != c.fileName && filepath.Ext(ev.Name) == "" {
		// A new resource subdirectory appeared; watch it too.
		if ev.Op&fsnotify.Create != 0 {
			_ = c.watcher.Add(ev.Name)
		}
		return
	}
	if filepath.Base(ev.Name) != c.fileName {
		return
	}

	dir := filepath.Dir(ev.Name)
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		c.removeOne(dir)
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		c.loadOne(ev.Name, dir, EventModified)
	}
}

func (c *Coordinator[T]) loadOne(path, dir string, kind EventKind) {
	data, err := readFile(path)
	if err != nil {
		logger.Warn("[HotReload] read %q failed: %v", path, err)
		return
	}

	value, err := c.decode(data, dir)
	if err != nil {
		// Re-validation failed: retain the previous entry, just log.
		logger.Warn("[HotReload] decode %q failed, keeping previous entry: %v", path, err)
		return
	}

	c.store.Put(value)

	c.mu.Lock()
	c.pathToID[dir] = strings.ToLower(value.EntryID())
	c.mu.Unlock()

	if c.tracker != nil {
		origin := OriginFilesystem
		_ = c.tracker.RecordChange(path, origin)
	}
	logger.Info("[HotReload] %s %q (id=%s)", kind, path, value.EntryID())
}

func (c *Coordinator[T]) removeOne(dir string) {
	c.mu.Lock()
	id, ok := c.pathToID[dir]
	delete(c.pathToID, dir)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.store.Delete(id)
	if c.tracker != nil {
		c.tracker.RecordRemoval(filepath.Join(dir, c.fileName))
	}
	logger.Info("[HotReload] %s id=%s (dir=%s)", EventRemoved, id, dir)
}

// ResourcePaths returns every primary resource file path under root, for
// ResourceChangeTracker.StartupReport.
func (c *Coordinator[T]) ResourcePaths() []string {
	dirs, _ := listResourceDirs(c.root)
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, filepath.Join(d, c.fileName))
	}
	return out
}
