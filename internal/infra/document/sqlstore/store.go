// Package sqlstore persists user documents in a SQL table, one row per user,
// and turns row changes into snapshots. Writes made through the same Store are
// published immediately; writes from other processes are picked up by polling
// the row version.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hotelcare/internal/infra/document/feed"
	"hotelcare/pkg/domain"
)

var _ domain.DocumentStore = (*Store)(nil)

// DefaultPollInterval is used when Options.PollInterval is zero.
const DefaultPollInterval = 2 * time.Second

// Options tunes a Store.
type Options struct {
	PollInterval time.Duration
	Now          func() time.Time
}

type dialect struct {
	name    string
	ddl     string
	upsert  string
	selectQ string
}

// Store implements domain.DocumentStore over database/sql.
type Store struct {
	db       *sql.DB
	dialect  dialect
	hub      *feed.Hub
	versions feed.Versions
	interval time.Duration
	now      func() time.Time
	mu       sync.Mutex
}

func newStore(ctx context.Context, db *sql.DB, d dialect, opts Options) (*Store, error) {
	if _, err := db.ExecContext(ctx, d.ddl); err != nil {
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	s := &Store{db: db, dialect: d, hub: feed.NewHub(), interval: opts.PollInterval, now: opts.Now}
	if s.interval <= 0 {
		s.interval = DefaultPollInterval
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Subscribe loads the current row, delivers it, and keeps polling for newer
// versions until ctx is done or the subscription is cancelled.
func (s *Store) Subscribe(ctx context.Context, userID string, fn domain.SnapshotHandler) (domain.Unsubscribe, error) {
	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	unsub := s.hub.Subscribe(subCtx, userID, fn, &current)
	go func() {
		// Give the initial delivery a head start before the first poll.
		select {
		case <-subCtx.Done():
			return
		case <-time.After(s.interval):
		}
		feed.Poll(subCtx, s.interval, func(ctx context.Context) (domain.DocumentSnapshot, error) {
			return s.load(ctx, userID)
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

// Replace upserts the user's row, bumping its version.
func (s *Store) Replace(ctx context.Context, userID string, payload json.RawMessage) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	updated := s.now().UTC()
	// A row inserted after a deletion continues from the last version seen.
	seed := s.versions.Seen(userID, 0) + 1
	var version uint64
	if err := tx.QueryRowContext(ctx, s.dialect.upsert, userID, string(payload), seed, updated.UnixNano()).Scan(&version); err != nil {
		return fmt.Errorf("upsert %s: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.versions.Seen(userID, version)
	s.hub.Publish(domain.DocumentSnapshot{
		UserID:    userID,
		Exists:    true,
		Payload:   append(json.RawMessage(nil), payload...),
		Version:   version,
		UpdatedAt: updated,
	})
	return nil
}

func (s *Store) load(ctx context.Context, userID string) (domain.DocumentSnapshot, error) {
	var (
		payload []byte
		version uint64
		updated int64
	)
	err := s.db.QueryRowContext(ctx, s.dialect.selectQ, userID).Scan(&payload, &version, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return s.versions.Missing(userID), nil
	}
	if err != nil {
		return domain.DocumentSnapshot{}, fmt.Errorf("select %s: %w", userID, err)
	}
	s.versions.Seen(userID, version)
	return domain.DocumentSnapshot{
		UserID:    userID,
		Exists:    true,
		Payload:   payload,
		Version:   version,
		UpdatedAt: time.Unix(0, updated).UTC(),
	}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect names the SQL dialect in use.
func (s *Store) Dialect() string { return s.dialect.name }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
