// Package memory implements domain.DocumentStore in process memory. Several
// sessions sharing one Store observe each other's writes, which makes it the
// reference backend for multi-device tests.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"hotelcare/internal/infra/document/feed"
	"hotelcare/pkg/domain"
)

var _ domain.DocumentStore = (*Store)(nil)

type document struct {
	deleted   bool
	payload   json.RawMessage
	version   uint64
	updatedAt time.Time
}

// Store keeps one document per user.
type Store struct {
	mu   sync.Mutex
	docs map[string]document
	hub  *feed.Hub
	now  func() time.Time
	fail func(op, userID string) error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{docs: map[string]document{}, hub: feed.NewHub(), now: time.Now}
}

// FailWith installs a hook consulted before every Replace and Subscribe; a
// non-nil result is returned as the operation's error.
func (s *Store) FailWith(fn func(op, userID string) error) {
	s.mu.Lock()
	s.fail = fn
	s.mu.Unlock()
}

// Subscribe delivers the current document, then every later replacement.
func (s *Store) Subscribe(ctx context.Context, userID string, fn domain.SnapshotHandler) (domain.Unsubscribe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail("subscribe", userID); err != nil {
			return nil, err
		}
	}
	current := s.snapshotLocked(userID)
	return s.hub.Subscribe(ctx, userID, fn, &current), nil
}

// Replace stores payload as the user's whole document.
func (s *Store) Replace(ctx context.Context, userID string, payload json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.fail != nil {
		if err := s.fail("replace", userID); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	prev := s.docs[userID]
	s.docs[userID] = document{
		payload:   append(json.RawMessage(nil), payload...),
		version:   prev.version + 1,
		updatedAt: s.now().UTC(),
	}
	snap := s.snapshotLocked(userID)
	// Publishing under the lock keeps versions ordered across writers.
	s.hub.Publish(snap)
	s.mu.Unlock()
	return nil
}

// Get returns the user's current document.
func (s *Store) Get(userID string) domain.DocumentSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(userID)
}

// Delete removes a user's document and tells subscribers. The version
// counter is kept so later writes still move forward.
func (s *Store) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[userID]
	if !ok || doc.deleted {
		return
	}
	s.docs[userID] = document{deleted: true, version: doc.version}
	s.hub.Publish(s.snapshotLocked(userID))
}

func (s *Store) snapshotLocked(userID string) domain.DocumentSnapshot {
	doc, ok := s.docs[userID]
	if !ok || doc.deleted {
		return domain.DocumentSnapshot{UserID: userID, Version: doc.version}
	}
	return domain.DocumentSnapshot{
		UserID:    userID,
		Exists:    true,
		Payload:   append(json.RawMessage(nil), doc.payload...),
		Version:   doc.version,
		UpdatedAt: doc.updatedAt,
	}
}
