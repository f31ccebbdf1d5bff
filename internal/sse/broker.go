// Package sse implements a Server-Sent Events broker that streams library
// changes to connected clients.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Change kinds published by the API layer.
const (
	PageCreated  = "page.created"
	PageDeleted  = "page.deleted"
	PageSelected = "page.selected"
	NotesChanged = "notes.changed"
	LibraryReset = "library.reset"
	ThemeChanged = "theme.changed"
	Saved        = "library.saved"

	// LibraryUpdated is a throttled summary event that follows changes.
	LibraryUpdated = "library.updated"
)

// Event is one message for connected clients.
type Event struct {
	Type string
	Data any
}

// PageRef is the payload of events about a single page. Subscriptions
// filtered to another page skip them.
type PageRef struct {
	Page string `json:"page"`
}

// Summary is the payload of LibraryUpdated: how many changes happened
// since the previous summary.
type Summary struct {
	Changes int `json:"changes"`
}

// Subscription is one client's event stream.
type Subscription struct {
	page string
	ch   chan []byte
}

// Events yields encoded SSE messages. It is closed by Unsubscribe or Close.
func (s *Subscription) Events() <-chan []byte { return s.ch }

// wants reports whether an event about page belongs on this stream.
// Library-wide events carry no page and reach every subscription.
func (s *Subscription) wants(page string) bool {
	return s.page == "" || page == "" || page == s.page
}

// hub is the broker state. Only the loop goroutine touches it.
type hub struct {
	subs     map[*Subscription]struct{}
	seq      uint64
	throttle time.Duration
	last     time.Time
	pending  int
}

func (h *hub) send(ev Event) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	h.seq++
	msg := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, ev.Type, payload))

	var page string
	if ref, ok := ev.Data.(PageRef); ok {
		page = ref.Page
	}
	for s := range h.subs {
		if !s.wants(page) {
			continue
		}
		select {
		case s.ch <- msg:
		default:
			// full buffer: the client misses this message
		}
	}
}

func (h *hub) change(ev Event) {
	h.send(ev)
	h.pending++
	if now := time.Now(); now.Sub(h.last) >= h.throttle {
		h.last = now
		h.send(Event{Type: LibraryUpdated, Data: Summary{Changes: h.pending}})
		h.pending = 0
	}
}

// Broker fans events out to subscriptions. Every operation is queued to a
// single loop goroutine and applied in order.
type Broker struct {
	ops  chan func(*hub)
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewBroker creates a broker that emits at most one library.updated event
// per throttle interval.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}
	b := &Broker{
		ops:  make(chan func(*hub), 256),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go b.run(&hub{subs: map[*Subscription]struct{}{}, throttle: throttle})
	return b
}

func (b *Broker) run(h *hub) {
	defer close(b.done)
	for {
		select {
		case <-b.stop:
			for s := range h.subs {
				close(s.ch)
			}
			return
		case op := <-b.ops:
			op(h)
		}
	}
}

// do queues op. It reports false once the broker has stopped.
func (b *Broker) do(op func(*hub)) bool {
	select {
	case <-b.done:
		return false
	default:
	}
	select {
	case b.ops <- op:
		return true
	case <-b.done:
		return false
	}
}

// Close stops the loop and closes every subscription. It is idempotent.
func (b *Broker) Close() {
	b.once.Do(func() { close(b.stop) })
	<-b.done
}

// Subscribe registers a client. A non-empty page limits page events to that
// title. After Close the returned stream is already closed.
func (b *Broker) Subscribe(page string) *Subscription {
	sub := &Subscription{page: page, ch: make(chan []byte, 64)}
	added := make(chan struct{})
	if b.do(func(h *hub) {
		h.subs[sub] = struct{}{}
		close(added)
	}) {
		select {
		case <-added:
			return sub
		case <-b.done:
		}
	}
	select {
	case <-added:
		// registered before stop; the loop closed it
	default:
		close(sub.ch)
	}
	return sub
}

// Unsubscribe removes sub and closes its stream.
func (b *Broker) Unsubscribe(sub *Subscription) {
	b.do(func(h *hub) {
		if _, ok := h.subs[sub]; ok {
			delete(h.subs, sub)
			close(sub.ch)
		}
	})
}

// ClientCount returns the number of subscriptions. Every operation queued
// before the call has been applied when it returns.
func (b *Broker) ClientCount() int {
	n := make(chan int, 1)
	if !b.do(func(h *hub) { n <- len(h.subs) }) {
		return 0
	}
	select {
	case v := <-n:
		return v
	case <-b.done:
		return 0
	}
}

// Publish sends event without counting it toward the summary.
func (b *Broker) Publish(event Event) {
	b.do(func(h *hub) { h.send(event) })
}

// PublishChange sends a change of kind, then a library.updated summary
// unless one went out within the throttle interval.
func (b *Broker) PublishChange(kind string, data any) {
	b.do(func(h *hub) { h.change(Event{Type: kind, Data: data}) })
}

// ServeHTTP streams events (GET /api/events). The optional "page" query
// parameter filters page events to one title.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "retry: 3000\n\n")
	flusher.Flush()

	sub := b.Subscribe(r.URL.Query().Get("page"))
	defer b.Unsubscribe(sub)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-sub.Events():
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
