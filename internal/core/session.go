package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hotelcare/pkg/domain"
)

// SessionState is the attachment state of a Session.
type SessionState string

const (
	// StateUnattached means no user is signed in; the tree is local only.
	StateUnattached SessionState = "unattached"
	// StateAttaching means a subscription is open but no snapshot has arrived.
	StateAttaching SessionState = "attaching"
	// StateLive means the tree mirrors the remote document.
	StateLive SessionState = "live"
)

// ErrNoUser is returned by Attach when called without a user.
var ErrNoUser = errors.New("no user")

// Session owns the in-memory document for the signed-in user and keeps it
// converged with the remote copy. Remote snapshots replace the tree wholesale
// after sanitizing; each committed local mutation writes the whole tree back,
// except while the first snapshot of an attachment is still outstanding.
type Session struct {
	store     domain.DocumentStore
	sanitizer Sanitizer
	opts      options

	mu          sync.RWMutex
	data        domain.AppData
	state       SessionState
	user        *domain.User
	epoch       uint64
	initialLoad bool
	generation  uint64
	cancel      context.CancelFunc
	unsubscribe domain.Unsubscribe
	ctx         context.Context
	lastErr     error
	listeners   map[int]func(domain.AppData)
	nextID      int

	// writeMu serialises write-backs; writtenEpoch/writtenGen identify the
	// newest tree already stored.
	writeMu      sync.Mutex
	writtenEpoch uint64
	writtenGen   uint64

	errs chan error
}

// NewSession constructs an unattached session over store.
func NewSession(store domain.DocumentStore, opts ...Option) *Session {
	o := applyOptions(opts)
	return &Session{
		store:     store,
		sanitizer: o.sanitizer(),
		opts:      o,
		data:      domain.NewAppData(),
		state:     StateUnattached,
		listeners: map[int]func(domain.AppData){},
		errs:      make(chan error, 16),
	}
}

// State reports the current attachment state.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the attached user, or nil.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Snapshot returns a deep copy of the current tree.
func (s *Session) Snapshot() domain.AppData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// LastError returns the most recent subscription or write failure, or nil
// once a later write-back has succeeded.
func (s *Session) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Errors delivers subscription and write failures. Failures are dropped when
// nobody drains the channel.
func (s *Session) Errors() <-chan error { return s.errs }

// OnChange registers fn to receive a copy of the tree after each local commit
// or applied snapshot. The returned function removes the listener.
func (s *Session) OnChange(fn func(domain.AppData)) (remove func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Attach subscribes to user's document, replacing any previous attachment.
// The tree is reset to the default and local writes are held back until the
// first snapshot arrives.
func (s *Session) Attach(ctx context.Context, user *domain.User) error {
	if user == nil || user.ID == "" {
		return ErrNoUser
	}
	s.Detach()

	attachCtx, cancel := context.WithCancel(ctx)
	u := *user
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.user = &u
	s.data = domain.NewAppData()
	s.state = StateAttaching
	s.initialLoad = true
	s.cancel = cancel
	s.ctx = attachCtx
	s.mu.Unlock()

	started := s.opts.clock.Now()
	unsub, err := s.store.Subscribe(attachCtx, u.ID, func(snap domain.DocumentSnapshot, err error) {
		s.handleSnapshot(epoch, snap, err)
	})
	s.opts.metrics.Observe(ctx, "sync.subscribe", err == nil, s.opts.clock.Now().Sub(started))
	if err != nil {
		cancel()
		s.mu.Lock()
		if s.epoch == epoch {
			s.resetLocked()
		}
		s.mu.Unlock()
		err = fmt.Errorf("subscribe %s: %w", u.ID, err)
		s.fail(err)
		return err
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		unsub()
		return nil
	}
	s.unsubscribe = unsub
	s.mu.Unlock()
	s.opts.logger.Info("session attached", "user", u.ID)
	return nil
}

// Detach cancels the subscription and returns to the unattached default tree.
func (s *Session) Detach() {
	s.mu.Lock()
	if s.state == StateUnattached && s.unsubscribe == nil && s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.epoch++
	unsub, cancel := s.unsubscribe, s.cancel
	userID := ""
	if s.user != nil {
		userID = s.user.ID
	}
	s.resetLocked()
	data, listeners := s.data.Clone(), s.listenersLocked()
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
	s.opts.logger.Info("session detached", "user", userID)
	notify(listeners, data)
}

func (s *Session) resetLocked() {
	s.user = nil
	s.data = domain.NewAppData()
	s.state = StateUnattached
	s.initialLoad = false
	s.unsubscribe = nil
	s.cancel = nil
	s.ctx = nil
}

// Follow attaches and detaches as the user source reports sign-in changes.
func (s *Session) Follow(ctx context.Context, source domain.UserSource) (stop func()) {
	return source.Observe(func(u *domain.User) {
		if u == nil {
			s.Detach()
			return
		}
		if current := s.User(); current != nil && current.ID == u.ID {
			return
		}
		if err := s.Attach(ctx, u); err != nil {
			s.opts.logger.Error("attach failed", "user", u.ID, "error", err)
		}
	})
}

// Mutate applies fn to the tree under the session lock and commits the
// result. When live, the whole tree is then written back. A write failure is
// reported through LastError and Errors; the committed tree is kept.
func (s *Session) Mutate(ctx context.Context, fn Mutation) error {
	s.mu.Lock()
	next, err := fn(s.data)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.data = next
	s.generation++
	gen, epoch := s.generation, s.epoch
	shouldWrite := s.user != nil && !s.initialLoad && s.state == StateLive
	var userID string
	var payload []byte
	if shouldWrite {
		userID = s.user.ID
		payload, err = json.Marshal(s.data)
	}
	data, listeners := s.data.Clone(), s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, data)
	if !shouldWrite {
		return nil
	}
	if err != nil {
		s.fail(fmt.Errorf("encode document: %w", err))
		return nil
	}
	s.write(ctx, epoch, gen, userID, payload)
	return nil
}

func (s *Session) handleSnapshot(epoch uint64, snap domain.DocumentSnapshot, err error) {
	if err != nil {
		s.mu.RLock()
		stale := s.epoch != epoch
		s.mu.RUnlock()
		if !stale {
			s.opts.metrics.Observe(context.Background(), "sync.snapshot", false, 0)
			s.fail(fmt.Errorf("subscription: %w", err))
		}
		return
	}
	started := s.opts.clock.Now()
	s.mu.Lock()
	if s.epoch != epoch || s.user == nil {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	if !snap.Exists {
		// Seed the remote document from the local tree.
		payload, encErr := json.Marshal(s.data)
		s.generation++
		gen, userID := s.generation, s.user.ID
		s.initialLoad = false
		s.state = StateLive
		s.mu.Unlock()
		if encErr != nil {
			s.fail(fmt.Errorf("encode document: %w", encErr))
			return
		}
		s.opts.logger.Info("remote document missing, writing local tree", "user", userID)
		s.write(ctx, epoch, gen, userID, payload)
		return
	}
	s.data = s.sanitizer.SanitizeJSON(snap.Payload)
	s.initialLoad = false
	s.state = StateLive
	data, listeners := s.data.Clone(), s.listenersLocked()
	s.mu.Unlock()

	s.opts.metrics.Observe(ctx, "sync.snapshot", true, s.opts.clock.Now().Sub(started))
	s.opts.logger.Debug("snapshot applied", "user", snap.UserID, "version", snap.Version)
	notify(listeners, data)
}

func (s *Session) write(ctx context.Context, epoch, gen uint64, userID string, payload []byte) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	stale := s.epoch != epoch
	s.mu.RUnlock()
	if stale || (s.writtenEpoch == epoch && gen <= s.writtenGen) {
		s.opts.logger.Debug("write-back skipped", "user", userID, "generation", gen)
		return
	}
	started := s.opts.clock.Now()
	err := s.store.Replace(ctx, userID, payload)
	s.opts.metrics.Observe(ctx, "sync.write", err == nil, s.opts.clock.Now().Sub(started))
	if err != nil {
		s.fail(fmt.Errorf("write document %s: %w", userID, err))
		return
	}
	s.writtenEpoch, s.writtenGen = epoch, gen
	// The stored document now holds every committed change.
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
}

func (s *Session) fail(err error) {
	s.opts.logger.Error("sync failure", "error", err)
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	select {
	case s.errs <- err:
	default:
	}
}

func (s *Session) listenersLocked() []func(domain.AppData) {
	out := make([]func(domain.AppData), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(domain.AppData), data domain.AppData) {
	for _, fn := range listeners {
		fn(data.Clone())
	}
}

// WaitLive blocks until the session has applied its first snapshot or ctx ends.
func (s *Session) WaitLive(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		switch s.State() {
		case StateLive:
			return nil
		case StateUnattached:
			return ErrNoUser
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
