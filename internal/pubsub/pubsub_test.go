package pubsub

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fennih/fantahustler/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

func TestSubscribeAndPublish(t *testing.T) {
	b := New()
	ch := b.Subscribe()

	b.Publish(Event{
		Type:    EventPlayerAcquired,
		Payload: map[string]any{"playerId": 7.0, "price": 42.0},
	})

	select {
	case got := <-ch:
		if got.Type != EventPlayerAcquired {
			t.Errorf("type = %s, want %s", got.Type, EventPlayerAcquired)
		}
		if got.Payload["price"] != 42.0 {
			t.Error("payload mismatch")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestPublishFansOut(t *testing.T) {
	b := New()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()

	b.Publish(Event{Type: EventBudgetChanged})

	for i, ch := range []chan Event{ch1, ch2} {
		select {
		case got := <-ch:
			if got.Type != EventBudgetChanged {
				t.Errorf("subscriber %d: type = %s", i, got.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("subscriber %d: timeout", i)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("channel should be closed after unsubscribe")
		}
	default:
		t.Error("channel should be closed and readable")
	}

	// Remaining subscribers keep working after one leaves.
	ch2 := b.Subscribe()
	b.Publish(Event{Type: EventStateReset})
	select {
	case <-ch2:
	case <-time.After(100 * time.Millisecond):
		t.Error("surviving subscriber did not receive event")
	}
}

func TestUnsubscribeForeignChannel(t *testing.T) {
	b := New()
	ch := make(chan Event, 1)
	// A channel the broker never handed out must not be closed.
	b.Unsubscribe(ch)
	ch <- Event{Type: "still-open"}
}

func TestPublishDropsWhenChannelFull(t *testing.T) {
	b := New()
	ch := b.Subscribe()

	for i := 0; i < 32; i++ {
		b.Publish(Event{Type: EventNoteChanged})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
		default:
			if count != cap(ch) {
				t.Errorf("received %d events, want buffer size %d", count, cap(ch))
			}
			return
		}
	}
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	b := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch := b.Subscribe()
			time.Sleep(time.Millisecond)
			b.Unsubscribe(ch)
		}()
		go func() {
			defer wg.Done()
			b.Publish(Event{Type: EventPlayerRepriced})
		}()
	}
	wg.Wait()

	b.mu.RLock()
	remaining := len(b.subscribers)
	b.mu.RUnlock()
	if remaining != 0 {
		t.Errorf("%d subscribers left after all unsubscribed", remaining)
	}
}

// fakeUpstream records published events and echoes them to subscribers the
// way NATS would.
type fakeUpstream struct {
	mu          sync.Mutex
	published   []Event
	subscribers []chan Event
}

func (f *fakeUpstream) Publish(event Event) {
	f.mu.Lock()
	f.published = append(f.published, event)
	subs := make([]chan Event, len(f.subscribers))
	copy(subs, f.subscribers)
	f.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

func (f *fakeUpstream) Subscribe() chan Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan Event, 64)
	f.subscribers = append(f.subscribers, ch)
	return ch
}

func (f *fakeUpstream) Unsubscribe(ch chan Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subscribers {
		if sub == ch {
			close(ch)
			f.subscribers = append(f.subscribers[:i], f.subscribers[i+1:]...)
			break
		}
	}
}

func (f *fakeUpstream) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func TestPublishRoutesThroughUpstream(t *testing.T) {
	up := &fakeUpstream{}
	b := NewWithUpstream(up)
	time.Sleep(10 * time.Millisecond)

	ch := b.Subscribe()
	b.Publish(Event{Type: EventTargetsChanged})

	if up.count() != 1 {
		t.Errorf("upstream saw %d events, want 1", up.count())
	}

	// Local delivery happens on the upstream echo.
	select {
	case got := <-ch:
		if got.Type != EventTargetsChanged {
			t.Errorf("type = %s", got.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for echoed event")
	}
}

func TestUpstreamEventsReachLocalSubscribers(t *testing.T) {
	up := &fakeUpstream{}
	b := NewWithUpstream(up)
	time.Sleep(10 * time.Millisecond)

	ch := b.Subscribe()

	// Another instance publishing shows up here too.
	up.Publish(Event{Type: EventCatalogReplaced})

	select {
	case got := <-ch:
		if got.Type != EventCatalogReplaced {
			t.Errorf("type = %s", got.Type)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for cross-instance event")
	}
}
