package session

import "sync"

// Subscription delivers session changes over a channel that only ever holds the latest value.
//
// A slow reader skips intermediate states and sees the most recent one.
type Subscription struct {
	ch     chan Session
	cancel func()

	mu     sync.Mutex
	closed bool
}

// Subscribe returns a [Subscription] whose channel already holds the current session.
func (s *Store) Subscribe() *Subscription {
	sub := &Subscription{ch: make(chan Session, 1)}
	sub.cancel = s.Observe(sub.push)
	return sub
}

func (sub *Subscription) push(next Session) {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed {
		return
	}

	select {
	case <-sub.ch:
	default:
	}
	sub.ch <- next
}

// C returns the receive channel. It is closed by [Subscription.Close].
func (sub *Subscription) C() <-chan Session {
	return sub.ch
}

// Close detaches the subscription and closes its channel.
func (sub *Subscription) Close() {
	sub.mu.Lock()
	if sub.closed {
		sub.mu.Unlock()
		return
	}
	sub.closed = true
	close(sub.ch)
	sub.mu.Unlock()

	sub.cancel()
}
