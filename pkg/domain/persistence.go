package domain

import (
	"context"
	"encoding/json"
	"time"
)

// DocumentSnapshot is one observation of a user's remote document.
type DocumentSnapshot struct {
	UserID    string
	Exists    bool
	Payload   json.RawMessage
	Version   uint64
	UpdatedAt time.Time
}

// SnapshotHandler receives snapshots, or a subscription error, for one
// subscription. Calls for a subscription never overlap and arrive in version
// order; a backend may skip intermediate versions.
type SnapshotHandler func(DocumentSnapshot, error)

// Unsubscribe cancels a subscription. It is safe to call more than once.
type Unsubscribe func()

// DocumentStore is the remote document capability: one JSON document per user,
// replaced whole on every write, observable through a subscription.
type DocumentStore interface {
	Subscribe(ctx context.Context, userID string, fn SnapshotHandler) (Unsubscribe, error)
	Replace(ctx context.Context, userID string, payload json.RawMessage) error
}

// User is the opaque identity supplied by the authentication provider.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// UserSource publishes authentication state changes. Observe invokes fn with
// the current user immediately, then on each change; nil means signed out.
type UserSource interface {
	Observe(fn func(*User)) (stop func())
}
