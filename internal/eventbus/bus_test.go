package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Publish(Event{Type: TypeResult, Data: ResultEvent{Endpoint: "http://a", Value: "v"}})

	select {
	case ev := <-ch:
		if ev.Type != TypeResult {
			t.Fatalf("type: %q", ev.Type)
		}
		if ev.Time.IsZero() {
			t.Fatal("publish should stamp a time")
		}
		d, ok := ev.Data.(ResultEvent)
		if !ok || d.Endpoint != "http://a" {
			t.Fatalf("data: %+v", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: TypePollError})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish must never block on a full subscriber")
	}
	if got := len(ch); got > 1 {
		t.Fatalf("buffer cap exceeded: %d", got)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe(1)
	unsub()
	unsub()
	// Publishing after unsubscribe must not panic.
	b.Publish(Event{Type: TypeResult})
}
