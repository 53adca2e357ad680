package events

import (
	"testing"
	"time"
)

func drainOne(t *testing.T, q *Queue) Event {
	t.Helper()
	select {
	case ev := <-q.Events():
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for an event")
		return Event{}
	}
}

func TestFanoutReplicatesEventsToEverySubscriber(t *testing.T) {
	source := New(4)
	a := New(4)
	b := NewLossy(4, 8)

	fan := NewFanout(source)
	fan.Subscribe(a)
	fan.Subscribe(b)
	go fan.Run()

	source.Push(Event{Type: Line, Payload: []byte("hello")})

	gotA := drainOne(t, a)
	gotB := drainOne(t, b)
	if gotA.Type != Line || gotA.Text() != "hello" {
		t.Fatalf("subscriber a: want Line %q, got %v", "hello", gotA)
	}
	if gotB.Type != Line || gotB.Text() != "hello" {
		t.Fatalf("subscriber b: want Line %q, got %v", "hello", gotB)
	}
}

func TestFanoutPropagatesShutdownToEverySubscriberAndStops(t *testing.T) {
	source := New(4)
	a := New(4)
	b := New(4)

	fan := NewFanout(source)
	fan.Subscribe(a)
	fan.Subscribe(b)

	done := make(chan struct{})
	go func() {
		fan.Run()
		close(done)
	}()

	source.Push(Event{Type: Shutdown})

	if got := drainOne(t, a); got.Type != Shutdown {
		t.Fatalf("subscriber a: want Shutdown, got %v", got)
	}
	if got := drainOne(t, b); got.Type != Shutdown {
		t.Fatalf("subscriber b: want Shutdown, got %v", got)
	}
	<-done
}
