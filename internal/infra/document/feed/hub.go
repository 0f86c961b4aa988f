// Package feed fans document snapshots out to subscribers. Each subscriber
// has its own delivery goroutine and a single-slot mailbox: a newer snapshot
// replaces an undelivered older one, and versions never go backwards.
//
// A missing-document snapshot carries the version of the document it
// replaced and orders just after it, so a deletion is delivered and a
// document recreated at the next version is delivered after that.
package feed

import (
	"context"
	"sync"
	"time"

	"hotelcare/pkg/domain"
)

// Hub routes snapshots by user id.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[uint64]*subscriber
	next uint64
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[string]map[uint64]*subscriber{}}
}

// Subscribe registers fn for userID and queues initial, when given, as the
// first delivery. The subscription ends when the returned function is called
// or ctx is done.
func (h *Hub) Subscribe(ctx context.Context, userID string, fn domain.SnapshotHandler, initial *domain.DocumentSnapshot) domain.Unsubscribe {
	sub := &subscriber{fn: fn, wake: make(chan struct{}, 1), done: make(chan struct{})}
	h.mu.Lock()
	h.next++
	id := h.next
	if h.subs[userID] == nil {
		h.subs[userID] = map[uint64]*subscriber{}
	}
	h.subs[userID][id] = sub
	h.mu.Unlock()

	if initial != nil {
		sub.offer(*initial)
	}
	go sub.run()

	unsubscribe := func() {
		sub.once.Do(func() {
			close(sub.done)
			h.mu.Lock()
			delete(h.subs[userID], id)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-sub.done:
		}
	}()
	return unsubscribe
}

// Publish offers snap to every subscriber of snap.UserID.
func (h *Hub) Publish(snap domain.DocumentSnapshot) {
	for _, sub := range h.subscribers(snap.UserID) {
		sub.offer(snap)
	}
}

// PublishError reports err to every subscriber of userID.
func (h *Hub) PublishError(userID string, err error) {
	for _, sub := range h.subscribers(userID) {
		sub.fail(err)
	}
}

// Subscribers reports how many subscriptions are open for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}

func (h *Hub) subscribers(userID string) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*subscriber, 0, len(h.subs[userID]))
	for _, s := range h.subs[userID] {
		out = append(out, s)
	}
	return out
}

type subscriber struct {
	fn   domain.SnapshotHandler
	wake chan struct{}
	done chan struct{}
	once sync.Once

	mu         sync.Mutex
	pending    *domain.DocumentSnapshot
	pendingErr error
	delivered  bool
	last       uint64
}

// Rank orders snapshots of one document: versions ascend, and the deletion of
// version v sits between v and v+1.
func Rank(snap domain.DocumentSnapshot) uint64 {
	r := snap.Version * 2
	if !snap.Exists {
		r++
	}
	return r
}

func (s *subscriber) offer(snap domain.DocumentSnapshot) {
	s.mu.Lock()
	if s.pending == nil || Rank(snap) >= Rank(*s.pending) {
		s.pending = &snap
	}
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) fail(err error) {
	s.mu.Lock()
	s.pendingErr = err
	s.mu.Unlock()
	s.signal()
}

func (s *subscriber) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}
		s.drain()
	}
}

func (s *subscriber) drain() {
	for {
		select {
		case <-s.done:
			return
		default:
		}
		s.mu.Lock()
		snap, err := s.pending, s.pendingErr
		s.pending, s.pendingErr = nil, nil
		deliver := snap != nil && (!s.delivered || Rank(*snap) > s.last)
		if deliver {
			s.delivered = true
			s.last = Rank(*snap)
		}
		s.mu.Unlock()
		if snap == nil && err == nil {
			return
		}
		if err != nil {
			s.fn(domain.DocumentSnapshot{}, err)
		}
		if deliver {
			s.fn(*snap, nil)
		}
	}
}

// Poll calls fetch every interval until ctx is done and hands each result to
// emit. The first fetch happens immediately.
func Poll(ctx context.Context, interval time.Duration, fetch func(context.Context) (domain.DocumentSnapshot, error), emit func(domain.DocumentSnapshot, error)) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		snap, err := fetch(ctx)
		if ctx.Err() != nil {
			return
		}
		emit(snap, err)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Versions remembers the highest version seen per user so a document that was
// deleted and written again continues from the old counter.
type Versions struct {
	mu   sync.Mutex
	high map[string]uint64
}

// Seen records v for userID and returns the highest version recorded so far.
func (v *Versions) Seen(userID string, version uint64) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.high == nil {
		v.high = map[string]uint64{}
	}
	if version > v.high[userID] {
		v.high[userID] = version
	}
	return v.high[userID]
}

// Next returns the version for a write over a document stored at current.
func (v *Versions) Next(userID string, current uint64) uint64 {
	next := v.Seen(userID, current) + 1
	v.Seen(userID, next)
	return next
}

// Missing returns the snapshot for a document that does not exist, carrying
// the last version seen for it.
func (v *Versions) Missing(userID string) domain.DocumentSnapshot {
	return domain.DocumentSnapshot{UserID: userID, Version: v.Seen(userID, 0)}
}
