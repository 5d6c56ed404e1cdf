package http

import (
	"sync"

	"github.com/aretw0/pipeforge/pkg/ports"
)

// inbox parks confirmation requests and notifications of one session until
// a client collects them. It implements ports.Confirmer and ports.Notifier.
type inbox struct {
	mu      sync.Mutex
	pending *ports.ConfirmationRequest
	notes   []ports.Notification
}

func (b *inbox) Request(req ports.ConfirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = &req
}

func (b *inbox) Notify(n ports.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notes = append(b.notes, n)
}

// Pending returns the open request, if any.
func (b *inbox) Pending() (ports.ConfirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return ports.ConfirmationRequest{}, false
	}
	return *b.pending, true
}

// Take removes and returns the open request.
func (b *inbox) Take() (ports.ConfirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return ports.ConfirmationRequest{}, false
	}
	req := *b.pending
	b.pending = nil
	return req, true
}

// Drain returns and clears the queued notifications.
func (b *inbox) Drain() []ports.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.notes
	b.notes = nil
	return out
}
