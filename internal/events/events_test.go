package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextView(t *testing.T) {
	signedIn := AuthEvent{User: &Identity{UID: "u1", Email: "a@b.c"}}
	signedOut := AuthEvent{}

	tests := []struct {
		name    string
		event   AuthEvent
		current View
		want    View
	}{
		{"sign-in on landing", signedIn, ViewLanding, ViewDashboard},
		{"sign-in on auth", signedIn, ViewAuth, ViewDashboard},
		{"sign-in on dashboard stays", signedIn, ViewDashboard, ViewDashboard},
		{"sign-in on profile stays", signedIn, ViewProfile, ViewProfile},
		{"sign-out on dashboard", signedOut, ViewDashboard, ViewLanding},
		{"sign-out on landing stays", signedOut, ViewLanding, ViewLanding},
		{"sign-out on profile stays", signedOut, ViewProfile, ViewProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextView(tt.event, tt.current))
		})
	}
}

func TestHubPublishesToSubscribers(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	hub.SignedIn("u1", "a@b.c")

	select {
	case event := <-ch:
		require.NotNil(t, event.User)
		assert.Equal(t, "u1", event.User.UID)
		assert.Equal(t, "a@b.c", event.User.Email)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	hub.SignedOut()
	select {
	case event := <-ch:
		assert.Nil(t, event.User)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// Fill the buffer and keep going; Publish must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.SignedOut()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is a no-op
	hub.Unsubscribe(ch)
}
