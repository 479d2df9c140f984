// Package stream fans completed analyses out to websocket subscribers.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"TechPulse/internal/domain/models"
	applogger "TechPulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// Config tunes per-connection buffering and keepalive.
type Config struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	AllowOrigins   []string // empty allows any origin
}

func (c Config) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

// ClientGauge receives the connected client count.
type ClientGauge interface {
	SetStreamClients(n int)
}

// Hub tracks websocket clients and broadcasts analysis_complete envelopes.
type Hub struct {
	cfg      Config
	log      *applogger.Logger
	gauge    ClientGauge
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub. gauge may be nil.
func NewHub(cfg Config, log *applogger.Logger, gauge ClientGauge) *Hub {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = 10 * time.Second
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 4096
	}

	h := &Hub{
		cfg:     cfg,
		log:     log,
		gauge:   gauge,
		clients: make(map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, o := range h.cfg.AllowOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// ServeWS upgrades the request and registers the client. The optional
// "symbol" query parameter restricts delivery to that symbol.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return err
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, h.cfg.SendBuffer),
		symbol: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("symbol"))),
	}
	if !h.add(c) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return nil
	}

	go c.writePump()
	go c.readPump()
	return nil
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	h.log.Info("stream client connected", applogger.String("symbol", c.symbol), applogger.Int("clients", n))
	h.reportCount(n)
	return true
}

// remove unregisters c and closes its send channel once.
func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	n := len(h.clients)
	h.mu.Unlock()

	h.reportCount(n)
}

func (h *Hub) reportCount(n int) {
	if h.gauge != nil {
		h.gauge.SetStreamClients(n)
	}
}

// PublishAnalysis broadcasts an analysis_complete envelope. Clients whose
// buffer is full are disconnected rather than slowing the broadcast.
func (h *Hub) PublishAnalysis(_ context.Context, a *models.Analysis) error {
	msg, err := json.Marshal(models.AnalysisEvent{Type: models.EventAnalysisComplete, Data: a})
	if err != nil {
		return err
	}
	symbol := strings.ToUpper(a.Symbol)

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		if c.symbol != "" && c.symbol != symbol {
			continue
		}
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Warn("stream client too slow, dropping", applogger.String("symbol", c.symbol))
		h.remove(c)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
	return nil
}
