package stream

import (
	"testing"
	"time"
)

func receiveEvent(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		if !ok {
			t.Fatal("channel closed while waiting for event")
		}
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return ChangeEvent{}
}

func TestPublishReachesTopicSubscriber(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch := h.Subscribe(TopicTrades)
	h.Publish(TopicTrades)

	event := receiveEvent(t, ch)
	if event.Topic != TopicTrades {
		t.Errorf("expected topic %s, got %s", TopicTrades, event.Topic)
	}
}

func TestPublishSkipsOtherTopics(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch := h.Subscribe(TopicStops)
	h.Publish(TopicTrades, TopicExecutions)

	select {
	case event := <-ch:
		t.Fatalf("unexpected event %+v", event)
	default:
	}
}

func TestPublishCoalescesPerCall(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch := h.Subscribe(TopicTrades, TopicExecutions)
	h.Publish(TopicTrades, TopicExecutions)

	receiveEvent(t, ch)
	select {
	case event := <-ch:
		t.Fatalf("expected a single coalesced event, got extra %+v", event)
	default:
	}
}

func TestPublishDoesNotBlockOnFullBuffer(t *testing.T) {
	h := NewHubWithConfig(HubConfig{SubscriberBufferSize: 1})
	defer h.Close()

	ch := h.Subscribe(TopicTrades)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			h.Publish(TopicTrades)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber buffer")
	}

	// The buffered event is still deliverable.
	receiveEvent(t, ch)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch := h.Subscribe(TopicTrades)
	h.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed")
	}
	if count := h.SubscriberCount(TopicTrades); count != 0 {
		t.Errorf("expected 0 subscribers, got %d", count)
	}

	// Publishing after unsubscribe must not panic.
	h.Publish(TopicTrades)
}

func TestCloseClosesAllSubscribers(t *testing.T) {
	h := NewHub()

	a := h.Subscribe(TopicTrades)
	b := h.Subscribe(TopicTrades, TopicExecutions)
	h.Close()

	if _, ok := <-a; ok {
		t.Error("expected first channel to be closed")
	}
	if _, ok := <-b; ok {
		t.Error("expected second channel to be closed")
	}

	// Subscribing after close yields an already-closed channel.
	late := h.Subscribe(TopicTrades)
	if _, ok := <-late; ok {
		t.Error("expected post-close subscription to be closed")
	}
}
