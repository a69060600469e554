package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "rules.updated", Data: map[string]string{"category": "team"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: rules.updated") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"category":"team"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishHookEventTypes(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishHookEvent("op-1", "team", "beforeCreate", true, true, 12)
	b.PublishHookEvent("op-2", "team", "beforeCreate", false, true, 110)

	time.Sleep(50 * time.Millisecond)
	var completed, failed int
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			switch {
			case strings.Contains(s, "hook.completed"):
				completed++
				if !strings.Contains(s, `"operation_id":"op-1"`) {
					t.Errorf("completed event payload = %q", s)
				}
			case strings.Contains(s, "hook.failed"):
				failed++
			}
		default:
			break loop
		}
	}
	if completed != 1 || failed != 1 {
		t.Errorf("completed = %d, failed = %d, want 1 each", completed, failed)
	}
}

func TestStatsThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event should trigger stats.updated, second inside the throttle
	// window should not.
	b.PublishHookEvent("op-1", "team", "beforeCreate", true, true, 1)
	b.PublishHookEvent("op-2", "team", "beforeCreate", true, true, 1)

	time.Sleep(50 * time.Millisecond)
	statsCount := 0
	hookCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			if strings.Contains(string(msg), "stats.updated") {
				statsCount++
			} else {
				hookCount++
			}
		default:
			break loop
		}
	}

	if hookCount != 2 {
		t.Errorf("hook events = %d, want 2", hookCount)
	}
	if statsCount != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", statsCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishHookEvent("op-9", "season", "beforeUpdate", true, true, 4)
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: hook.completed") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: "hook.completed", Data: map[string]string{}})
	b.PublishHookEvent("op", "team", "beforeCreate", true, true, 1)
}
