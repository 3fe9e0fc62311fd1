package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/flix/internal/models"
	"github.com/desertthunder/flix/internal/session"
)

// DefaultToastDuration is how long a toast stays visible when none is configured.
const DefaultToastDuration = 3 * time.Second

// ToastChannel delivers toasts from the controllers to the TUI. It implements [models.Notifier].
//
// Notify never blocks; toasts sent while the buffer is full are dropped.
type ToastChannel chan models.Toast

func NewToastChannel(size int) ToastChannel {
	return make(ToastChannel, size)
}

func (c ToastChannel) Notify(t models.Toast) {
	select {
	case c <- t:
	default:
	}
}

// waitForToast blocks until the next toast arrives.
func waitForToast(c ToastChannel) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		t, ok := <-c
		if !ok {
			return nil
		}
		return toastMsg(t)
	}
}

// expireToast fires once the toast with seq has been shown for d.
func expireToast(seq int, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg(seq)
	})
}

// waitForSession blocks until the session changes. The subscription holds only the latest value, so
// a burst of changes arrives as one message.
func waitForSession(sub *session.Subscription) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-sub.C()
		if !ok {
			return nil
		}
		return sessionChangedMsg(s)
	}
}
