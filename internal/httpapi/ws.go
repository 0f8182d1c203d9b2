package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"settingsd/pkg/types"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsSendBuffer   = 64
)

// wsSubscriber is one connected event-stream client. Slow clients are
// disconnected rather than allowed to block the broadcaster.
type wsSubscriber struct {
	ch   chan types.Event
	path string
}

// EventHub fans settings events out to websocket subscribers. One hub
// per server; construct with NewEventHub and install its Broadcast
// side through Fanout.
type EventHub struct {
	mu   sync.Mutex
	subs map[*wsSubscriber]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[*wsSubscriber]struct{})}
}

// Broadcast delivers e to every subscriber whose path filter accepts
// it. Non-blocking: a subscriber with a full buffer is dropped.
func (h *EventHub) Broadcast(e types.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if sub.path != "" && sub.path != e.Path {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			close(sub.ch)
			delete(h.subs, sub)
		}
	}
}

func (h *EventHub) subscribe(path string) *wsSubscriber {
	sub := &wsSubscriber{ch: make(chan types.Event, wsSendBuffer), path: path}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *EventHub) unsubscribe(sub *wsSubscriber) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		close(sub.ch)
		delete(h.subs, sub)
	}
	h.mu.Unlock()
}

// Subscribers returns the current subscriber count.
func (h *EventHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is handled by the CORS layer; the stream
		// carries no credentials beyond what CORS already gates.
		return true
	},
}

// handleEvents upgrades the connection and streams events as JSON
// frames until the client goes away. An optional ?path= query filters
// to one subscription path.
func (h *EventHub) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an error response.
		return
	}
	sub := h.subscribe(r.URL.Query().Get("path"))
	wsClients.Inc()
	defer func() {
		h.unsubscribe(sub)
		wsClients.Dec()
		_ = conn.Close()
	}()

	// Read pump: discard client frames, unblock on close.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case e, ok := <-sub.ch:
			if !ok {
				// dropped by the broadcaster for falling behind
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		case <-serverBaseCtx.Done():
			return
		}
	}
}
