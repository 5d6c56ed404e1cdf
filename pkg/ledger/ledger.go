// Package ledger records which orb entities the user referenced during an
// editing session, so that an external collaborator can materialize them.
package ledger

import (
	"github.com/aretw0/pipeforge/pkg/domain"
)

// Ledger is an append-only set of subscriptions keyed by (name, type).
// Entries are never removed for the lifetime of a session.
type Ledger struct {
	seen    map[domain.Subscription]struct{}
	entries []domain.Subscription
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{seen: make(map[domain.Subscription]struct{})}
}

// Record appends a subscription. It is a no-op if the pair is already present
// and reports whether the entry was new.
func (l *Ledger) Record(name string, kind domain.Kind) bool {
	sub := domain.Subscription{Name: name, Type: kind}
	if _, ok := l.seen[sub]; ok {
		return false
	}
	l.seen[sub] = struct{}{}
	l.entries = append(l.entries, sub)
	return true
}

// Drain returns a snapshot of every recorded subscription in recording order.
// It does not clear the ledger.
func (l *Ledger) Drain() []domain.Subscription {
	out := make([]domain.Subscription, len(l.entries))
	copy(out, l.entries)
	return out
}

// Pending returns the subscriptions for which resolved reports false.
func (l *Ledger) Pending(resolved func(domain.Subscription) bool) []domain.Subscription {
	var out []domain.Subscription
	for _, s := range l.entries {
		if !resolved(s) {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of recorded subscriptions.
func (l *Ledger) Len() int {
	return len(l.entries)
}
