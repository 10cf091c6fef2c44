package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"bindery/internal/logging"
	"bindery/internal/services"
)

// Store persists the catalog as a single JSON document keyed by item id.
// There is no in-process caching: every call re-reads or re-writes the whole
// document.
type Store struct {
	path   string
	logger *slog.Logger

	mu    sync.Mutex
	items map[string]*sync.Mutex // per-item update locks
}

// NewStore creates a store persisting to path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "catalog"),
		items:  make(map[string]*sync.Mutex),
	}
}

// Path returns the document location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the whole document under a shared lock. A missing or unparsable
// file fails soft: the condition is logged and an empty map returned, which
// callers must treat as "nothing known yet".
func (s *Store) Load() map[string]*Item {
	lock := flock.New(s.lockPath())
	if err := lock.RLock(); err != nil {
		s.logger.Warn("library lock unavailable, loading without it", logging.Error(err))
	} else {
		defer func() { _ = lock.Unlock() }()
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("library unreadable, starting empty", logging.Error(err))
		}
		return map[string]*Item{}
	}

	items := map[string]*Item{}
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Warn("library unparsable, starting empty",
			logging.String("path", s.path),
			logging.Error(err))
		return map[string]*Item{}
	}
	return items
}

// Save writes the whole document atomically under an exclusive lock: the data
// is marshalled to a temp file in the same directory and renamed over the
// target, so a failed save leaves the prior file untouched.
func (s *Store) Save(items map[string]*Item) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrIO, "catalog", "save", "marshal library", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrIO, "catalog", "save", "create library directory", err)
	}

	lock := flock.New(s.lockPath())
	if err := lock.Lock(); err != nil {
		return services.Wrap(services.ErrIO, "catalog", "save", "acquire library lock", err)
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return services.Wrap(services.ErrIO, "catalog", "save", "create temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrIO, "catalog", "save", "write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrIO, "catalog", "save", "close temp file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrIO, "catalog", "save", "replace library file", err)
	}
	return nil
}

// Update runs fn against one item under the full load-mutate-save span,
// serialized per item id within this process. This is the single-writer
// discipline concurrent mutations of the same item must use. Returns
// ErrNotFound when the id is absent.
func (s *Store) Update(id string, fn func(*Item) error) error {
	itemLock := s.itemLock(id)
	itemLock.Lock()
	defer itemLock.Unlock()

	items := s.Load()
	item, ok := items[id]
	if !ok {
		return services.Wrap(services.ErrNotFound, "catalog", "update", fmt.Sprintf("item %s", id), nil)
	}
	if err := fn(item); err != nil {
		return err
	}
	return s.Save(items)
}

// Upsert inserts or replaces an item, serialized the same way as Update.
func (s *Store) Upsert(id string, item *Item) error {
	itemLock := s.itemLock(id)
	itemLock.Lock()
	defer itemLock.Unlock()

	items := s.Load()
	items[id] = item
	return s.Save(items)
}

// Remove deletes an item from the document and returns it. The caller owns
// deletion of the underlying files (see Item.RemoveFiles).
func (s *Store) Remove(id string) (*Item, error) {
	itemLock := s.itemLock(id)
	itemLock.Lock()
	defer itemLock.Unlock()

	items := s.Load()
	item, ok := items[id]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "remove", fmt.Sprintf("item %s", id), nil)
	}
	delete(items, id)
	if err := s.Save(items); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) lockPath() string {
	return s.path + ".lock"
}

func (s *Store) itemLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.items[id]
	if !ok {
		lock = &sync.Mutex{}
		s.items[id] = lock
	}
	return lock
}
