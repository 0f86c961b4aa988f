package core

import (
	"context"
	"errors"
	"sync"
)

// ErrNoPendingConfirmation is returned by Confirm when nothing is awaiting an answer.
var ErrNoPendingConfirmation = errors.New("no pending confirmation")

// Pending describes a destructive action awaiting the user's answer.
type Pending struct {
	Title        string
	Message      string
	ConfirmLabel string
	Action       func(context.Context) error
}

// Confirmations holds at most one pending action. A new request replaces the
// previous one; the action runs only when confirmed, and at most once.
type Confirmations struct {
	mu      sync.Mutex
	pending *Pending
}

// Request stores p as the pending action.
func (c *Confirmations) Request(p Pending) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &p
}

// Current returns the pending descriptor, if any.
func (c *Confirmations) Current() (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return Pending{}, false
	}
	return *c.pending, true
}

// Confirm clears the pending action and runs it.
func (c *Confirmations) Confirm(ctx context.Context) error {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()
	if p == nil {
		return ErrNoPendingConfirmation
	}
	if p.Action == nil {
		return nil
	}
	return p.Action(ctx)
}

// Cancel discards the pending action without running it.
func (c *Confirmations) Cancel() {
	c.mu.Lock()
	c.pending = nil
	c.mu.Unlock()
}
