// Package doctest holds the behavioural checks every document backend must pass.
package doctest

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotelcare/pkg/domain"
)

// Collector records snapshots delivered to a subscription.
type Collector struct {
	mu    sync.Mutex
	snaps []domain.DocumentSnapshot
	errs  []error
}

// Handle is a domain.SnapshotHandler.
func (c *Collector) Handle(snap domain.DocumentSnapshot, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errs = append(c.errs, err)
		return
	}
	c.snaps = append(c.snaps, snap)
}

// Snapshots returns a copy of the delivered snapshots.
func (c *Collector) Snapshots() []domain.DocumentSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.DocumentSnapshot(nil), c.snaps...)
}

// Last returns the newest delivered snapshot.
func (c *Collector) Last() (domain.DocumentSnapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.snaps) == 0 {
		return domain.DocumentSnapshot{}, false
	}
	return c.snaps[len(c.snaps)-1], true
}

// RunContract checks first-snapshot, replace, ordering and isolation rules.
// wait bounds how long a backend may take to surface a write.
func RunContract(t *testing.T, store domain.DocumentStore, wait time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &Collector{}
	unsub, err := store.Subscribe(ctx, "alice", first.Handle)
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool { return len(first.Snapshots()) == 1 }, wait, 5*time.Millisecond)
	initial := first.Snapshots()[0]
	assert.False(t, initial.Exists, "new user has no document")
	assert.Equal(t, "alice", initial.UserID)

	require.NoError(t, store.Replace(ctx, "alice", json.RawMessage(`{"userName":"Alice","hotels":[],"scheduledTasks":[]}`)))
	require.Eventually(t, func() bool {
		last, ok := first.Last()
		return ok && last.Exists
	}, wait, 5*time.Millisecond)
	last, _ := first.Last()
	assert.JSONEq(t, `{"userName":"Alice","hotels":[],"scheduledTasks":[]}`, string(last.Payload))
	assert.Greater(t, last.Version, initial.Version)

	for i := 0; i < 5; i++ {
		payload, _ := json.Marshal(map[string]any{"userName": "Alice", "n": i})
		require.NoError(t, store.Replace(ctx, "alice", payload))
	}
	require.Eventually(t, func() bool {
		last, ok := first.Last()
		if !ok {
			return false
		}
		var body map[string]any
		_ = json.Unmarshal(last.Payload, &body)
		return body["n"] == float64(4)
	}, wait, 5*time.Millisecond)
	snaps := first.Snapshots()
	for i := 1; i < len(snaps); i++ {
		assert.Greater(t, snaps[i].Version, snaps[i-1].Version, "versions must increase")
	}

	late := &Collector{}
	unsubLate, err := store.Subscribe(ctx, "alice", late.Handle)
	require.NoError(t, err)
	defer unsubLate()
	require.Eventually(t, func() bool { return len(late.Snapshots()) >= 1 }, wait, 5*time.Millisecond)
	got := late.Snapshots()[0]
	assert.True(t, got.Exists, "late subscriber sees the current document")

	other := &Collector{}
	unsubOther, err := store.Subscribe(ctx, "bob", other.Handle)
	require.NoError(t, err)
	defer unsubOther()
	require.Eventually(t, func() bool { return len(other.Snapshots()) == 1 }, wait, 5*time.Millisecond)
	assert.False(t, other.Snapshots()[0].Exists, "documents are isolated per user")

	unsub()
	before := len(first.Snapshots())
	require.NoError(t, store.Replace(ctx, "alice", json.RawMessage(`{"userName":"after"}`)))
	require.Eventually(t, func() bool {
		last, ok := late.Last()
		var body map[string]any
		_ = json.Unmarshal(last.Payload, &body)
		return ok && body["userName"] == "after"
	}, wait, 5*time.Millisecond)
	assert.Len(t, first.Snapshots(), before, "no deliveries after unsubscribe")
}

// RunDeletionContract checks that removing a document reaches subscribers as
// a missing snapshot and that the next write after it is delivered too.
// remove deletes the stored document behind the backend's back.
func RunDeletionContract(t *testing.T, store domain.DocumentStore, remove func(userID string), wait time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Collector{}
	unsub, err := store.Subscribe(ctx, "carol", c.Handle)
	require.NoError(t, err)
	defer unsub()

	for i := 0; i < 3; i++ {
		payload, _ := json.Marshal(map[string]any{"userName": "Carol", "n": i})
		require.NoError(t, store.Replace(ctx, "carol", payload))
	}
	require.Eventually(t, func() bool {
		last, ok := c.Last()
		var body map[string]any
		_ = json.Unmarshal(last.Payload, &body)
		return ok && body["n"] == float64(2)
	}, wait, 5*time.Millisecond)
	before, _ := c.Last()

	remove("carol")
	require.Eventually(t, func() bool {
		last, ok := c.Last()
		return ok && !last.Exists
	}, wait, 5*time.Millisecond, "deletion is delivered")

	require.NoError(t, store.Replace(ctx, "carol", json.RawMessage(`{"userName":"after-delete"}`)))
	require.Eventually(t, func() bool {
		last, ok := c.Last()
		var body map[string]any
		_ = json.Unmarshal(last.Payload, &body)
		return ok && last.Exists && body["userName"] == "after-delete"
	}, wait, 5*time.Millisecond, "write after deletion is delivered")
	last, _ := c.Last()
	assert.Greater(t, last.Version, before.Version, "versions continue after deletion")

	late := &Collector{}
	unsubLate, err := store.Subscribe(ctx, "carol", late.Handle)
	require.NoError(t, err)
	defer unsubLate()
	require.Eventually(t, func() bool { return len(late.Snapshots()) >= 1 }, wait, 5*time.Millisecond)
	assert.JSONEq(t, `{"userName":"after-delete"}`, string(late.Snapshots()[0].Payload))
}
