// Package websocket notifies connected renderer clients when the packed
// buffers change, so they can re-fetch them over HTTP.
package websocket

import (
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// An Event is what watchers receive. Type is currently always
// "buffers-updated".
type Event struct {
	Type      string    `json:"type"`
	Scenes    int       `json:"scenes"`
	Timestamp time.Time `json:"timestamp"`
}

// A Hub tracks watcher connections and broadcasts events to them. The zero
// value is ready to use.
type Hub struct {
	mutex sync.RWMutex
	conns map[*websocket.Conn]struct{}
}

// Handler returns the handler for watcher connections. It blocks until the
// client goes away, discarding anything the client sends.
func (h *Hub) Handler() websocket.Handler {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		h.add(conn)
		defer h.remove(conn)

		for {
			var discard []byte
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.conns == nil {
		h.conns = make(map[*websocket.Conn]struct{})
	}
	h.conns[conn] = struct{}{}
	instrumentConnect()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	delete(h.conns, conn)
	instrumentDisconnect()
}

// Len returns the number of connected watchers.
func (h *Hub) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.conns)
}

// Broadcast sends the event to every connected watcher. Send failures are
// logged and the connection is left to its reader to tear down.
func (h *Hub) Broadcast(e Event) {
	b, err := json.Marshal(e)
	if err != nil {
		logs.Error(errors.New("encoding watch event failed").Wrap(err))
		return
	}

	h.mutex.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mutex.RUnlock()

	for _, conn := range conns {
		if err := websocket.Message.Send(conn, string(b)); err != nil {
			logs.Warn(errors.New("sending watch event failed").Wrap(err))
			continue
		}
		instrumentEventSent(len(b))
	}
}
