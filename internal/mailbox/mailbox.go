// Package mailbox provides the per-rank inbox both transports deliver into.
package mailbox

import (
	"context"
	"slices"
	"sync"

	"gitlab.com/nqueens.net/internal/domain"
	"gitlab.com/nqueens.net/internal/static/errs"
)

// Mailbox is an unbounded inbox with receive-side matching: Take returns the
// oldest message that satisfies its source/tag filter and leaves every other
// message queued in arrival order. Messages from one sender are therefore
// taken in the order they were put.
type Mailbox struct {
	mu      sync.Mutex
	pending []domain.Message
	notify  chan struct{} // closed and replaced on every state change
	err     error
}

// New creates an empty mailbox.
func New() *Mailbox {
	return &Mailbox{notify: make(chan struct{})}
}

// Put queues msg. It never blocks and returns false once the mailbox is closed.
func (m *Mailbox) Put(msg domain.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false
	}
	m.pending = append(m.pending, msg)
	m.wakeLocked()
	return true
}

// Take blocks until a message from `from` with one of tags is available, the
// mailbox is closed, or ctx is done. Queued matches are still returned after
// Close.
func (m *Mailbox) Take(ctx context.Context, from domain.Rank, tags ...domain.Tag) (domain.Message, error) {
	for {
		m.mu.Lock()
		for i, msg := range m.pending {
			if msg.Matches(from, tags) {
				m.pending = slices.Delete(m.pending, i, i+1)
				m.mu.Unlock()
				return msg, nil
			}
		}
		if m.err != nil {
			err := m.err
			m.mu.Unlock()
			return domain.Message{}, err
		}
		wait := m.notify
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.Message{}, ctx.Err()
		case <-wait:
		}
	}
}

// Close fails every current and future Take that has no queued match. A nil
// err closes with errs.TransportClosed. Only the first call has an effect.
func (m *Mailbox) Close(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return
	}
	if err == nil {
		err = errs.TransportClosed
	}
	m.err = err
	m.wakeLocked()
}

// Len returns the number of queued messages.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *Mailbox) wakeLocked() {
	close(m.notify)
	m.notify = make(chan struct{})
}
