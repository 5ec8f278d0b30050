package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	apierrors "contestlens/internal/errors"
	"contestlens/internal/infrastructure"
	ws "contestlens/internal/websocket"
)

// WebSocketHandler upgrades dashboard connections and hands them to the hub
type WebSocketHandler struct {
	hub          *ws.Hub
	upgrader     *websocket.Upgrader
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewWebSocketHandler creates a websocket handler accepting the given origins
func NewWebSocketHandler(hub *ws.Hub, allowedOrigins []string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:          hub,
		upgrader:     ws.NewUpgrader(allowedOrigins),
		errorHandler: errorHandler,
		logger:       infrastructure.WithComponent(logger, "websocket_handler"),
	}
	h.upgrader.Error = h.upgradeError
	return h
}

// ServeHTTP handles GET /ws
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.hub.Running() {
		h.errorHandler.HandleError(w, r, apierrors.ErrServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader has already answered through upgradeError
		h.logger.WarnContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	client, err := ws.Serve(h.hub, ws.Wrap(conn), infrastructure.GetTraceID(ctx), h.logger)
	if err != nil {
		h.logger.WarnContext(ctx, "WebSocket client rejected",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}
	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}

func (h *WebSocketHandler) upgradeError(w http.ResponseWriter, r *http.Request, status int, reason error) {
	h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(status, apierrors.CodeInvalidRequest,
		"WebSocket upgrade failed", reason.Error()))
}
