package ws

import (
	"chat-relay/contract"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

type Config struct {
	// SendBufferSize bounds the per-session outbound queue; a recipient
	// that overflows it is dropped and disconnected instead of stalling
	// the broadcast.
	SendBufferSize int
	ProbeInterval  time.Duration
	WriteTimeout   time.Duration
	MaxFrameBytes  int64
}

// Handler upgrades HTTP requests to WebSocket connections and hands each
// one to a fresh Session.
type Handler struct {
	log         *slog.Logger
	registry    contract.IRegistry
	coordinator contract.ICoordinator
	verifier    contract.Verifier
	config      Config
	upgrader    websocket.Upgrader
}

func NewHandler(
	log *slog.Logger,
	registry contract.IRegistry,
	coordinator contract.ICoordinator,
	verifier contract.Verifier,
	config Config,
) *Handler {
	return &Handler{
		log:         log,
		registry:    registry,
		coordinator: coordinator,
		verifier:    verifier,
		config:      config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Transport encryption and origin policy belong to the
			// hosting environment in front of this service.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	session := NewSession(h.log, conn, h.registry, h.coordinator, h.verifier, h.config)

	// Best-effort history replay, sent once before authentication.
	if frame, err := h.coordinator.ReplayFrame(); err == nil {
		_ = session.writeFrame(frame)
	} else {
		h.log.Error("History replay failed", "session_id", session.ID(), "error", err)
	}

	h.registry.Add(session)
	h.log.Info("Session connected", "session_id", session.ID(), "remote", r.RemoteAddr)

	go session.WriteLoop()
	go session.ReadLoop()
}
