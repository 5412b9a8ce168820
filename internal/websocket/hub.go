// Package websocket fans analysis run progress out to connected browser
// clients. The pipeline publishes envelope-framed snapshots to the Hub,
// which delivers them to every registered Client.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"darahcli/internal/config"
	"darahcli/internal/infrastructure"
	"darahcli/pkg/contracts/events"
)

const statsInterval = 30 * time.Second

// Hub maintains the set of connected clients and broadcasts messages to
// them. Slow clients whose send buffers fill are disconnected rather than
// allowed to stall the fan-out.
type Hub struct {
	cfg config.WebSocketConfig

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger

	totalConnections int64
	messagesSent     int64
	droppedClients   int64

	quit    chan struct{}
	running bool
}

// NewHub creates a hub using the websocket section of the server config.
// Zero timing values fall back to sane keepalive defaults.
func NewHub(cfg config.WebSocketConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = logger.With(slog.String("component", "websocket.hub"))

	if cfg.PongWait <= 0 {
		cfg.PongWait = 60 * time.Second
	}
	if cfg.PingPeriod <= 0 || cfg.PingPeriod >= cfg.PongWait {
		cfg.PingPeriod = cfg.PongWait * 9 / 10
	}

	return &Hub{
		cfg:        cfg,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		quit:       make(chan struct{}),
	}
}

// Start launches the hub loop. Safe to call more than once.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
	go h.reportStats()
}

// Stop shuts down the hub and closes every client send channel.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("websocket hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.totalConnections++
			h.mu.Unlock()

			ctx := client.traceContext()
			h.logger.InfoContext(ctx, "client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))

			h.sendWelcome(ctx, client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				count := len(h.clients)
				h.mu.Unlock()

				h.logger.InfoContext(client.traceContext(), "client unregistered",
					slog.Int("total_clients", count),
					slog.String("client_id", client.id),
					slog.Duration("connection_duration", time.Since(client.connectedAt)))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		select {
		case client.send <- message:
			delivered++
		default:
			// Buffer full, the client is not keeping up
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				close(client.send)
				delete(h.clients, client)
				h.droppedClients++
			}
			h.mu.Unlock()

			h.logger.WarnContext(client.traceContext(), "client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	h.mu.Lock()
	h.messagesSent += int64(delivered)
	h.mu.Unlock()

	h.logger.Debug("broadcast delivered",
		slog.Int("client_count", len(targets)),
		slog.Int("delivered", delivered),
		slog.Int("message_size", len(message)))
}

func (h *Hub) sendWelcome(ctx context.Context, client *Client) {
	welcome := events.Envelope{
		Type:      events.MessageTypeConnect,
		Timestamp: time.Now().UTC(),
		TraceID:   client.traceID,
		Data: map[string]string{
			"status":    "connected",
			"client_id": client.id,
		},
	}

	payload, err := json.Marshal(welcome)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to marshal welcome message",
			slog.String("error", err.Error()))
		return
	}

	select {
	case client.send <- payload:
		h.logger.DebugContext(ctx, "welcome sent", slog.String("client_id", client.id))
	default:
		h.logger.WarnContext(ctx, "client buffer full, welcome dropped",
			slog.String("client_id", client.id))
	}
}

// BroadcastSnapshot publishes the full state of an analysis run to every
// connected client.
func (h *Hub) BroadcastSnapshot(snapshot *events.RunSnapshot) {
	h.BroadcastEventWithTrace(events.MessageTypeRunSnapshot, snapshot, "")
}

// BroadcastEvent wraps data in the shared envelope and queues it for
// delivery to all clients.
func (h *Hub) BroadcastEvent(msgType events.MessageType, data interface{}) {
	h.BroadcastEventWithTrace(msgType, data, "")
}

// BroadcastEventWithTrace is BroadcastEvent with a trace ID stamped on the
// envelope so clients can correlate messages with server logs.
func (h *Hub) BroadcastEventWithTrace(msgType events.MessageType, data interface{}, traceID string) {
	envelope := events.Envelope{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
		Data:      data,
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		ctx := context.Background()
		if traceID != "" {
			ctx = infrastructure.WithTraceID(ctx, traceID)
		}
		h.logger.ErrorContext(ctx, "failed to marshal broadcast envelope",
			slog.String("error", err.Error()),
			slog.String("message_type", string(msgType)))
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
	}
}

// BroadcastError reports a run failure to all clients.
func (h *Hub) BroadcastError(message, traceID string) {
	h.BroadcastEventWithTrace(events.MessageTypeRunError, map[string]string{
		"message": message,
	}, traceID)
}

// Register queues a client for registration with the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

// Unregister queues a client for removal from the hub.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stats reports hub counters for the health endpoint.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]interface{}{
		"active_clients":    len(h.clients),
		"total_connections": h.totalConnections,
		"messages_sent":     h.messagesSent,
		"dropped_clients":   h.droppedClients,
	}
}

func (h *Hub) reportStats() {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.quit:
			return
		case <-ticker.C:
			h.mu.RLock()
			active := len(h.clients)
			total := h.totalConnections
			sent := h.messagesSent
			h.mu.RUnlock()

			h.logger.Info("websocket hub stats",
				slog.Int("active_clients", active),
				slog.Int64("total_connections", total),
				slog.Int64("messages_sent", sent))
		}
	}
}
