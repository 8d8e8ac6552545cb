package events

import (
	"sync"
)

// Identity is the authenticated principal carried by auth events.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// AuthEvent is published on every sign-in and sign-out. User is nil on
// sign-out, mirroring the "current user changed" contract.
type AuthEvent struct {
	User *Identity `json:"user"`
}

// View names for the console shell.
type View string

const (
	ViewLanding   View = "landing"
	ViewAuth      View = "auth"
	ViewDashboard View = "dashboard"
	ViewProfile   View = "profile"
)

// NextView computes the view transition for an auth event. Signing in while
// on a pre-auth view moves to the dashboard; signing out of the dashboard
// returns to the landing view. Everything else stays put.
func NextView(event AuthEvent, current View) View {
	if event.User != nil {
		if current == ViewLanding || current == ViewAuth {
			return ViewDashboard
		}
		return current
	}
	if current == ViewDashboard {
		return ViewLanding
	}
	return current
}

// Hub fans auth events out to subscribers. Slow subscribers drop events
// rather than block publishers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan AuthEvent]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan AuthEvent]struct{})}
}

func (h *Hub) Subscribe() chan AuthEvent {
	ch := make(chan AuthEvent, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan AuthEvent) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(event AuthEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// SignedIn publishes a sign-in event.
func (h *Hub) SignedIn(uid, email string) {
	h.Publish(AuthEvent{User: &Identity{UID: uid, Email: email}})
}

// SignedOut publishes a sign-out event.
func (h *Hub) SignedOut() {
	h.Publish(AuthEvent{})
}
