package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"contestlens/internal/infrastructure"
	"contestlens/pkg/contracts/events"
)

// ErrHubStopped is returned when publishing to a hub that is not running.
var ErrHubStopped = errors.New("websocket hub is not running")

const broadcastBuffer = 64

// Hub maintains the set of active clients and fans dataset events out to them
type Hub struct {
	clients map[*Client]struct{}

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	// mu guards clients for readers outside Run, and running
	mu sync.RWMutex

	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics

	// datasetLoaded feeds the greeting sent to new clients
	datasetLoaded func() bool

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithMetrics records client and event counts
func WithMetrics(metrics *infrastructure.BusinessMetrics) HubOption {
	return func(h *Hub) { h.metrics = metrics }
}

// WithDatasetState reports whether a dataset is loaded in connect greetings
func WithDatasetState(loaded func() bool) HubOption {
	return func(h *Hub) { h.datasetLoaded = loaded }
}

// NewHub creates a new Hub
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		clients:       make(map[*Client]struct{}),
		broadcast:     make(chan []byte, broadcastBuffer),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		logger:        infrastructure.WithComponent(logger, "websocket.hub"),
		datasetLoaded: func() bool { return false },
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start runs the hub loop in its own goroutine. Calling it twice is a no-op.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.Run()
}

// Run is the hub's main loop. It owns client registration and every close of
// a client's send channel.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.closeAll()
			h.logger.Info("Hub shut down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			count := len(h.clients)
			h.mu.Unlock()

			ctx := client.context()
			if h.metrics != nil {
				h.metrics.WebSocketClients.Add(ctx, 1)
			}
			h.logger.InfoContext(ctx, "Client registered",
				slog.Int("total_clients", count),
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr))
			h.greet(ctx, client)

		case client := <-h.unregister:
			h.drop(client, "disconnected")

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) greet(ctx context.Context, client *Client) {
	payload, err := encode(ctx, events.MessageTypeConnect, events.ConnectMessage{
		ClientID:      client.id,
		Protocol:      events.ProtocolVersion,
		DatasetLoaded: h.datasetLoaded(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to encode connect message", slog.String("error", err.Error()))
		return
	}

	select {
	case client.send <- payload:
	default:
		h.logger.WarnContext(ctx, "Client buffer full, connect message dropped",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	failed := 0
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			failed++
			h.drop(client, "send buffer full")
		}
	}

	h.logger.Debug("Broadcast delivered",
		slog.Int("clients", len(clients)),
		slog.Int("dropped", failed),
		slog.Int("message_size", len(message)))
}

// drop removes client from the hub. Only Run may call it.
func (h *Hub) drop(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := client.context()
	if h.metrics != nil {
		h.metrics.WebSocketClients.Add(ctx, -1)
	}
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Int("total_clients", count),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Publish broadcasts an event to every connected client. The trace ID of
// ctx, if any, is carried in the message.
func (h *Hub) Publish(ctx context.Context, msgType events.MessageType, data interface{}) error {
	if !h.Running() {
		return ErrHubStopped
	}

	payload, err := encode(ctx, msgType, data)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- payload:
	case <-h.quit:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	if h.metrics != nil {
		h.metrics.EventsPublished.Add(ctx, 1)
	}
	return nil
}

func encode(ctx context.Context, msgType events.MessageType, data interface{}) ([]byte, error) {
	msg := events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      msgType,
			Timestamp: time.Now().UTC(),
			TraceID:   infrastructure.GetTraceID(ctx),
		},
		Data: data,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s message: %w", msgType, err)
	}
	return payload, nil
}

// Register adds a client to the hub. It fails with ErrHubStopped when the hub
// loop is not running.
func (h *Hub) Register(client *Client) error {
	if !h.Running() {
		return ErrHubStopped
	}
	select {
	case h.register <- client:
		return nil
	case <-h.quit:
		return ErrHubStopped
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	if !h.Running() {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Running reports whether Start has been called and Stop has not.
func (h *Hub) Running() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.running
}

// Stop closes every client and waits for the hub loop to exit.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}
