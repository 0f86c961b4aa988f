// Package filedoc stores one JSON envelope per user in a directory and watches
// that directory with fsnotify, so edits made by another process (or by hand)
// reach subscribers without polling.
package filedoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"hotelcare/internal/infra/document/feed"
	"hotelcare/pkg/domain"
)

var _ domain.DocumentStore = (*Store)(nil)

const (
	fileSuffix = ".json"
	tmpSuffix  = ".tmp"
	// DefaultDebounce is used when Options.Debounce is zero.
	DefaultDebounce = 50 * time.Millisecond
)

// Options tunes a Store.
type Options struct {
	Debounce time.Duration
	Now      func() time.Time
	// OnWatchError receives fsnotify errors; they are dropped when nil.
	OnWatchError func(error)
}

type envelope struct {
	Version   uint64          `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Data      json.RawMessage `json:"data"`
}

// Store implements domain.DocumentStore on a local directory.
type Store struct {
	dir      string
	hub      *feed.Hub
	versions feed.Versions
	watcher  *fsnotify.Watcher
	debounce time.Duration
	now      func() time.Time
	onErr    func(error)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	done    chan struct{}
	closeMu sync.Once
	wg      sync.WaitGroup
}

// Open prepares dir and starts watching it.
func Open(dir string, opts Options) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	s := &Store{
		dir:      dir,
		hub:      feed.NewHub(),
		watcher:  w,
		debounce: opts.Debounce,
		now:      opts.Now,
		onErr:    opts.OnWatchError,
		timers:   map[string]*time.Timer{},
		done:     make(chan struct{}),
	}
	if s.debounce <= 0 {
		s.debounce = DefaultDebounce
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.wg.Add(1)
	go s.watch()
	return s, nil
}

// Dir returns the watched directory.
func (s *Store) Dir() string { return s.dir }

// Close stops the watcher. Open subscriptions receive nothing further.
func (s *Store) Close() error {
	var err error
	s.closeMu.Do(func() {
		close(s.done)
		err = s.watcher.Close()
		s.wg.Wait()
		s.mu.Lock()
		for _, t := range s.timers {
			t.Stop()
		}
		s.mu.Unlock()
	})
	return err
}

// Path returns the file holding userID's document.
func (s *Store) Path(userID string) string {
	return filepath.Join(s.dir, url.PathEscape(userID)+fileSuffix)
}

// Subscribe delivers the current document and every later change.
func (s *Store) Subscribe(ctx context.Context, userID string, fn domain.SnapshotHandler) (domain.Unsubscribe, error) {
	current, err := s.load(userID)
	if err != nil {
		return nil, err
	}
	return s.hub.Subscribe(ctx, userID, fn, &current), nil
}

// Replace writes payload as the next version of userID's document.
func (s *Store) Replace(_ context.Context, userID string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, err := s.read(userID)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	env := envelope{Version: s.versions.Next(userID, prev.Version), UpdatedAt: s.now().UTC(), Data: append(json.RawMessage(nil), payload...)}
	b, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	path := s.Path(userID)
	tmp := path + tmpSuffix
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	s.hub.Publish(env.snapshot(userID))
	return nil
}

func (e envelope) snapshot(userID string) domain.DocumentSnapshot {
	return domain.DocumentSnapshot{UserID: userID, Exists: true, Payload: e.Data, Version: e.Version, UpdatedAt: e.UpdatedAt}
}

func (s *Store) read(userID string) (envelope, error) {
	b, err := os.ReadFile(s.Path(userID))
	if err != nil {
		return envelope{}, err
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return envelope{}, fmt.Errorf("decode %s: %w", s.Path(userID), err)
	}
	return env, nil
}

func (s *Store) load(userID string) (domain.DocumentSnapshot, error) {
	env, err := s.read(userID)
	if errors.Is(err, fs.ErrNotExist) {
		return s.versions.Missing(userID), nil
	}
	if err != nil {
		return domain.DocumentSnapshot{}, err
	}
	s.versions.Seen(userID, env.Version)
	return env.snapshot(userID), nil
}

func (s *Store) watch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			if userID, ok := userFromPath(ev.Name); ok {
				s.schedule(userID)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			if s.onErr != nil {
				s.onErr(err)
			}
		}
	}
}

// schedule reloads userID once events for it have been quiet for the
// debounce window.
func (s *Store) schedule(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[userID]; ok {
		t.Reset(s.debounce)
		return
	}
	s.timers[userID] = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		delete(s.timers, userID)
		s.mu.Unlock()
		select {
		case <-s.done:
			return
		default:
		}
		snap, err := s.load(userID)
		if err != nil {
			s.hub.PublishError(userID, err)
			return
		}
		s.hub.Publish(snap)
	})
}

func userFromPath(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, fileSuffix) {
		return "", false
	}
	id, err := url.PathUnescape(strings.TrimSuffix(base, fileSuffix))
	if err != nil || id == "" {
		return "", false
	}
	return id, true
}
