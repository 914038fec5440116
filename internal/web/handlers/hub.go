package handlers

import (
	"sync"

	"github.com/google/uuid"

	"github.com/midday-ai/canvas/internal/tools"
)

// toolEvent is one tool lifecycle notification fanned out to the session's
// open streams.
type toolEvent struct {
	Kind   string `json:"kind"` // start | complete | error
	Tool   string `json:"tool"`
	CallID string `json:"callId"`
}

// toolEventHub routes tool lifecycle events from the turn goroutine to the
// SSE streams of the same session. Channels are buffered and dropping: a
// slow stream loses events rather than blocking a running tool; the
// transcript re-render on the next store update catches it up.
type toolEventHub struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]map[int]chan toolEvent
	nextSub int
}

func newToolEventHub() *toolEventHub {
	return &toolEventHub{subs: make(map[uuid.UUID]map[int]chan toolEvent)}
}

// subscribe attaches a stream to the session's events. The cancel func must
// be called to release the subscription.
func (h *toolEventHub) subscribe(sessionID uuid.UUID) (<-chan toolEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[int]chan toolEvent)
	}
	id := h.nextSub
	h.nextSub++
	ch := make(chan toolEvent, 16)
	h.subs[sessionID][id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[sessionID], id)
		if len(h.subs[sessionID]) == 0 {
			delete(h.subs, sessionID)
		}
	}
}

func (h *toolEventHub) publish(sessionID uuid.UUID, ev toolEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[sessionID] {
		select {
		case ch <- ev:
		default: // stream too slow, drop
		}
	}
}

// emitter binds the hub to one session as a tools.EventEmitter for the
// duration of a turn.
func (h *toolEventHub) emitter(sessionID uuid.UUID) tools.EventEmitter {
	return &hubEmitter{hub: h, sessionID: sessionID}
}

type hubEmitter struct {
	hub       *toolEventHub
	sessionID uuid.UUID
}

func (e *hubEmitter) OnToolStart(name, callID string) {
	e.hub.publish(e.sessionID, toolEvent{Kind: "start", Tool: name, CallID: callID})
}

func (e *hubEmitter) OnToolComplete(name, callID string) {
	e.hub.publish(e.sessionID, toolEvent{Kind: "complete", Tool: name, CallID: callID})
}

func (e *hubEmitter) OnToolError(name, callID string) {
	e.hub.publish(e.sessionID, toolEvent{Kind: "error", Tool: name, CallID: callID})
}

var _ tools.EventEmitter = (*hubEmitter)(nil)
