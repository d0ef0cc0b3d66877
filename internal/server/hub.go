package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nse-dashboard/internal/download"
	"nse-dashboard/internal/logger"
)

const (
	clientBuffer = 32
	pingPeriod   = 45 * time.Second
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
)

// downloadEvent is pushed to websocket clients on every tracker change.
type downloadEvent struct {
	Type string `json:"type"`
	download.Snapshot
}

type client struct {
	conn *websocket.Conn
	out  chan any
	done chan struct{}
}

// hub fans tracker snapshots out to websocket clients. Slow clients drop
// snapshots instead of blocking the tracker.
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

func newHub(allowOrigin func(origin string) bool) *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(origin)
			},
			EnableCompression: true,
		},
		clients: make(map[*client]struct{}),
	}
}

func (h *hub) broadcast(v any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.out <- v:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// serve upgrades the request and streams events until the peer goes away.
// initial is sent first so a new client never waits for the next change.
func (h *hub) serve(w http.ResponseWriter, r *http.Request, initial any) {
	ctx := r.Context()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(ctx, "Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	cl := &client{conn: conn, out: make(chan any, clientBuffer), done: make(chan struct{})}
	cl.out <- initial

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	logger.Debug(ctx, "Websocket client connected", "clients", h.count())

	go cl.writeLoop(ctx)
	cl.readLoop()

	close(cl.done)
	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	logger.Debug(ctx, "Websocket client disconnected", "clients", h.count())
}

func (cl *client) writeLoop(ctx context.Context) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case v := <-cl.out:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := cl.conn.WriteJSON(v); err != nil {
				logger.Debug(ctx, "Websocket write failed", "error", err)
				_ = cl.conn.Close()
				return
			}
		case <-ping.C:
			_ = cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
		case <-cl.done:
			return
		}
	}
}

// readLoop only keeps the connection alive; clients send nothing useful.
func (cl *client) readLoop() {
	_ = cl.conn.SetReadDeadline(time.Now().Add(readTimeout))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			return
		}
	}
}
