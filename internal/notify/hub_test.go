package notify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesOwnOrderOnly(t *testing.T) {
	h := NewHub()
	ch7, cancel7 := h.Subscribe(7)
	defer cancel7()
	ch8, cancel8 := h.Subscribe(8)
	defer cancel8()

	h.Publish(StatusChange{OrderID: 7, OldEstado: "pendiente", NewEstado: "confirmado"})

	select {
	case ev := <-ch7:
		require.Equal(t, "confirmado", ev.NewEstado)
	default:
		t.Fatal("subscriber of order 7 got nothing")
	}
	select {
	case <-ch8:
		t.Fatal("subscriber of order 8 received a foreign event")
	default:
	}
}

func TestUnsubscribeReleasesRegistration(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe(7)
	require.Equal(t, 1, h.Subscribers(7))

	cancel()
	require.Equal(t, 0, h.Subscribers(7))
	// The channel is closed so a waiting reader unblocks.
	_, open := <-ch
	require.False(t, open)
	// Idempotent.
	cancel()
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe(7)
	defer cancel()
	for i := 0; i < 20; i++ {
		h.Publish(StatusChange{OrderID: 7, NewEstado: "confirmado"})
	}
	// Reaching here without deadlock is the assertion.
}
