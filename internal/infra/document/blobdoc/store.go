// Package blobdoc keeps each user's document as a JSON object in a blob
// store (filesystem, S3 or memory). The document version travels in the
// object's metadata so a cheap Head is enough to detect remote changes.
package blobdoc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"hotelcare/internal/blob"
	"hotelcare/internal/infra/document/feed"
	"hotelcare/pkg/domain"
)

var _ domain.DocumentStore = (*Store)(nil)

const (
	metaVersion   = "version"
	metaUpdatedAt = "updated-at"
	contentType   = "application/json"
	// DefaultPollInterval is used when Options.PollInterval is zero.
	DefaultPollInterval = 5 * time.Second
)

// Options tunes a Store.
type Options struct {
	Prefix       string
	PollInterval time.Duration
	Now          func() time.Time
}

// Store implements domain.DocumentStore on top of a blob.Store.
type Store struct {
	blobs    blob.Store
	prefix   string
	hub      *feed.Hub
	versions feed.Versions
	interval time.Duration
	now      func() time.Time
	mu       sync.Mutex

	foreignMu sync.Mutex
	foreign   map[string]foreignObject
}

// foreignObject is the version assigned to an object written without version
// metadata, keyed to its ETag so each new upload gets a new version.
type foreignObject struct {
	etag    string
	version uint64
}

// New wraps blobs. Keys are "<prefix>users/<uid>/appdata.json".
func New(blobs blob.Store, opts Options) *Store {
	s := &Store{blobs: blobs, prefix: opts.Prefix, hub: feed.NewHub(), interval: opts.PollInterval, now: opts.Now}
	if s.interval <= 0 {
		s.interval = DefaultPollInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Key returns the object key holding userID's document.
func (s *Store) Key(userID string) string {
	return s.prefix + "users/" + userID + "/appdata.json"
}

// Subscribe delivers the current document and then polls object metadata for
// newer versions.
func (s *Store) Subscribe(ctx context.Context, userID string, fn domain.SnapshotHandler) (domain.Unsubscribe, error) {
	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	unsub := s.hub.Subscribe(subCtx, userID, fn, &current)
	go func() {
		select {
		case <-subCtx.Done():
			return
		case <-time.After(s.interval):
		}
		feed.Poll(subCtx, s.interval, func(ctx context.Context) (domain.DocumentSnapshot, error) {
			info, err := s.blobs.Head(ctx, s.Key(userID))
			if errors.Is(err, blob.ErrNotFound) {
				return s.versions.Missing(userID), nil
			}
			if err != nil {
				return domain.DocumentSnapshot{}, err
			}
			if current.Exists && s.versionOf(userID, info) == current.Version {
				return current, nil
			}
			snap, err := s.load(ctx, userID)
			if err == nil {
				current = snap
			}
			return snap, err
		}, func(snap domain.DocumentSnapshot, err error) {
			if err != nil {
				s.hub.PublishError(userID, err)
				return
			}
			s.hub.Publish(snap)
		})
	}()
	return func() {
		cancel()
		unsub()
	}, nil
}

// Replace overwrites the user's object with payload at the next version.
func (s *Store) Replace(ctx context.Context, userID string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.Key(userID)
	var stored uint64
	info, err := s.blobs.Head(ctx, key)
	switch {
	case err == nil:
		stored = s.versionOf(userID, info)
	case errors.Is(err, blob.ErrNotFound):
	default:
		return fmt.Errorf("head %s: %w", key, err)
	}
	version := s.versions.Next(userID, stored)
	updated := s.now().UTC()
	body := append(json.RawMessage(nil), payload...)
	_, err = s.blobs.Put(ctx, key, bytes.NewReader(body), blob.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			metaVersion:   strconv.FormatUint(version, 10),
			metaUpdatedAt: updated.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.hub.Publish(domain.DocumentSnapshot{UserID: userID, Exists: true, Payload: body, Version: version, UpdatedAt: updated})
	return nil
}

func (s *Store) load(ctx context.Context, userID string) (domain.DocumentSnapshot, error) {
	key := s.Key(userID)
	info, rc, err := s.blobs.Get(ctx, key)
	if errors.Is(err, blob.ErrNotFound) {
		return s.versions.Missing(userID), nil
	}
	if err != nil {
		return domain.DocumentSnapshot{}, fmt.Errorf("get %s: %w", key, err)
	}
	defer rc.Close()
	payload, err := io.ReadAll(rc)
	if err != nil {
		return domain.DocumentSnapshot{}, fmt.Errorf("read %s: %w", key, err)
	}
	updated := info.LastModified
	if raw := info.Metadata[metaUpdatedAt]; raw != "" {
		if t, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			updated = t
		}
	}
	return domain.DocumentSnapshot{
		UserID:    userID,
		Exists:    true,
		Payload:   payload,
		Version:   s.versionOf(userID, info),
		UpdatedAt: updated,
	}, nil
}

// versionOf reads the version metadata. An object written by another tool
// has none; it gets the version after the highest seen, and keeps it for as
// long as its ETag is unchanged.
func (s *Store) versionOf(userID string, info blob.Info) uint64 {
	if v, err := strconv.ParseUint(info.Metadata[metaVersion], 10, 64); err == nil && v > 0 {
		return s.versions.Seen(userID, v)
	}
	etag := info.ETag
	if etag == "" {
		etag = info.LastModified.UTC().Format(time.RFC3339Nano)
	}
	s.foreignMu.Lock()
	defer s.foreignMu.Unlock()
	if f, ok := s.foreign[userID]; ok && f.etag == etag {
		return f.version
	}
	if s.foreign == nil {
		s.foreign = map[string]foreignObject{}
	}
	f := foreignObject{etag: etag, version: s.versions.Next(userID, 0)}
	s.foreign[userID] = f
	return f.version
}
