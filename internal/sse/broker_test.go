package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// messages returns what is queued on sub. Call ClientCount first so every
// earlier publish has been applied.
func messages(sub *Subscription) []string {
	var out []string
	for {
		select {
		case msg, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

// drain returns the event names queued on sub.
func drain(sub *Subscription) []string {
	var kinds []string
	for _, msg := range messages(sub) {
		for _, line := range strings.Split(msg, "\n") {
			if name, found := strings.CutPrefix(line, "event: "); found {
				kinds = append(kinds, name)
			}
		}
	}
	return kinds
}

func TestSubscriptionCount(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	work := b.Subscribe("Work")
	all := b.Subscribe("")
	if n := b.ClientCount(); n != 2 {
		t.Fatalf("ClientCount = %d, want 2", n)
	}
	b.Unsubscribe(work)
	b.Unsubscribe(work)
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("ClientCount after unsubscribe = %d, want 1", n)
	}
	if _, ok := <-work.Events(); ok {
		t.Error("unsubscribed stream should be closed")
	}
	b.Unsubscribe(all)
}

func TestPageFilter(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	work := b.Subscribe("Work")
	all := b.Subscribe("")

	b.Publish(Event{Type: PageCreated, Data: PageRef{Page: "Home"}})
	b.Publish(Event{Type: NotesChanged, Data: PageRef{Page: "Work"}})
	b.Publish(Event{Type: ThemeChanged, Data: map[string]bool{"is_dark_mode": true}})
	b.ClientCount()

	if diff := cmp.Diff([]string{NotesChanged, ThemeChanged}, drain(work)); diff != "" {
		t.Errorf("filtered stream (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{PageCreated, NotesChanged, ThemeChanged}, drain(all)); diff != "" {
		t.Errorf("unfiltered stream (-want +got):\n%s", diff)
	}
}

func TestSummaryCoalescesChanges(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	sub := b.Subscribe("")

	b.PublishChange(NotesChanged, PageRef{Page: "a"})
	b.PublishChange(NotesChanged, PageRef{Page: "b"})
	b.PublishChange(PageDeleted, PageRef{Page: "b"})
	b.ClientCount()

	want := []string{NotesChanged, LibraryUpdated, NotesChanged, PageDeleted}
	if diff := cmp.Diff(want, drain(sub)); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestSummaryCountsPendingChanges(t *testing.T) {
	b := NewBroker(20 * time.Millisecond)
	defer b.Close()
	sub := b.Subscribe("")

	b.PublishChange(NotesChanged, PageRef{Page: "a"})
	b.PublishChange(NotesChanged, PageRef{Page: "a"})
	b.ClientCount()
	drain(sub)

	time.Sleep(30 * time.Millisecond)
	b.PublishChange(NotesChanged, PageRef{Page: "a"})
	b.ClientCount()

	var summary string
	for _, msg := range messages(sub) {
		if strings.Contains(msg, "event: "+LibraryUpdated) {
			summary = msg
		}
	}
	if !strings.Contains(summary, `data: {"changes":2}`) {
		t.Errorf("summary = %q, want two coalesced changes", summary)
	}
}

func TestMessageFormat(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	sub := b.Subscribe("")

	b.Publish(Event{Type: PageCreated, Data: PageRef{Page: "Work"}})
	b.Publish(Event{Type: Saved, Data: map[string]string{}})
	b.ClientCount()

	first, second := string(<-sub.Events()), string(<-sub.Events())
	if want := "id: 1\nevent: page.created\ndata: {\"page\":\"Work\"}\n\n"; first != want {
		t.Errorf("first = %q, want %q", first, want)
	}
	if !strings.HasPrefix(second, "id: 2\n") {
		t.Errorf("second = %q, want id 2", second)
	}
}

func TestServeHTTPPageQuery(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events?page=Work", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	b.Publish(Event{Type: PageCreated, Data: PageRef{Page: "Home"}})
	b.Publish(Event{Type: PageSelected, Data: PageRef{Page: "Work"}})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("missing retry hint: %q", body)
	}
	if !strings.Contains(body, "event: page.selected") || strings.Contains(body, "Home") {
		t.Errorf("body = %q, want only the Work event", body)
	}
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after disconnect = %d", n)
	}
}

func TestFullBufferDoesNotStall(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	slow := b.Subscribe("")

	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: NotesChanged, Data: PageRef{Page: "a"}})
	}
	b.ClientCount()
	if got := len(drain(slow)); got != cap(slow.ch) {
		t.Errorf("delivered %d, want buffer size %d", got, cap(slow.ch))
	}
}

func TestCloseEndsStreams(t *testing.T) {
	b := NewBroker(time.Minute)
	sub := b.Subscribe("")
	b.Close()
	b.Close()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("stream should be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for close")
	}

	late := b.Subscribe("Work")
	if _, ok := <-late.Events(); ok {
		t.Error("subscription after Close should be closed")
	}
	if n := b.ClientCount(); n != 0 {
		t.Errorf("ClientCount after Close = %d", n)
	}
	b.Publish(Event{Type: Saved, Data: map[string]string{}})
	b.PublishChange(PageDeleted, PageRef{Page: "x"})
	b.Unsubscribe(sub)
}
