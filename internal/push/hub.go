// Package push delivers server-pushed change events to in-process
// subscribers.
package push

import (
	"encoding/json"
	"sync"
)

// EventReceiveNotification is the hub method the server invokes whenever
// something relevant to the signed-in user changed.
const EventReceiveNotification = "ReceiveNotification"

// Event is a single server-pushed invocation.
type Event struct {
	Name string
	Args []json.RawMessage
}

// Handler is invoked for each event a subscriber registered for.
type Handler func(Event)

// Token identifies a subscription so it can be removed.
type Token uint64

// Bridge is the subscription surface consumers depend on.
type Bridge interface {
	Subscribe(event string, h Handler) Token
	Unsubscribe(tok Token)
}

// Hub is an in-process fan-out of events to subscribers. It is safe for
// concurrent use.
type Hub struct {
	mu     sync.Mutex
	next   Token
	events map[Token]string
	subs   map[string]map[Token]Handler
}

var _ Bridge = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		events: make(map[Token]string),
		subs:   make(map[string]map[Token]Handler),
	}
}

// Subscribe registers h for event and returns a token for Unsubscribe.
func (h *Hub) Subscribe(event string, fn Handler) Token {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.next++
	tok := h.next
	if h.subs[event] == nil {
		h.subs[event] = make(map[Token]Handler)
	}
	h.subs[event][tok] = fn
	h.events[tok] = event
	return tok
}

// Unsubscribe removes a subscription. Once it returns, the handler is
// never invoked again. Unknown tokens are ignored.
func (h *Hub) Unsubscribe(tok Token) {
	h.mu.Lock()
	defer h.mu.Unlock()

	event, ok := h.events[tok]
	if !ok {
		return
	}
	delete(h.events, tok)
	delete(h.subs[event], tok)
	if len(h.subs[event]) == 0 {
		delete(h.subs, event)
	}
}

// Dispatch invokes every handler subscribed to ev.Name on the calling
// goroutine.
func (h *Hub) Dispatch(ev Event) {
	h.mu.Lock()
	toks := make([]Token, 0, len(h.subs[ev.Name]))
	for tok := range h.subs[ev.Name] {
		toks = append(toks, tok)
	}
	h.mu.Unlock()

	for _, tok := range toks {
		// Re-check so a handler removed mid-dispatch is skipped.
		h.mu.Lock()
		fn, ok := h.subs[ev.Name][tok]
		h.mu.Unlock()
		if ok {
			fn(ev)
		}
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}
