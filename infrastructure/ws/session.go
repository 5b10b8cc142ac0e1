package ws

import (
	"chat-relay/contract"
	"chat-relay/domain"
	errs "chat-relay/errors"
	"chat-relay/protocol"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session owns the state machine of one WebSocket connection:
// Unauthenticated until a valid auth frame arrives, Authenticated for the
// rest of its productive life, Closed exactly once on any exit path.
//
// Each session runs two goroutines. ReadLoop decodes inbound frames and
// drives the state machine; it is the only place the session suspends on
// the wire. WriteLoop drains the outbound buffer and runs the liveness
// probe. Direct replies to the sender (auth results, gate errors) bypass
// the buffer and are written under writeMu, which also serializes them
// against WriteLoop; gorilla allows a single concurrent writer.
type Session struct {
	id          string
	conn        *websocket.Conn
	log         *slog.Logger
	verifier    contract.Verifier
	registry    contract.IRegistry
	coordinator contract.ICoordinator
	config      Config

	send chan []byte
	done chan struct{}
	once sync.Once

	writeMu sync.Mutex

	mu       sync.Mutex
	state    domain.SessionState
	identity string
	alive    bool
}

func NewSession(
	log *slog.Logger,
	conn *websocket.Conn,
	registry contract.IRegistry,
	coordinator contract.ICoordinator,
	verifier contract.Verifier,
	config Config,
) *Session {
	return &Session{
		id:          uuid.NewString(),
		conn:        conn,
		log:         log,
		verifier:    verifier,
		registry:    registry,
		coordinator: coordinator,
		config:      config,
		send:        make(chan []byte, config.SendBufferSize),
		done:        make(chan struct{}),
		state:       domain.Unauthenticated,
		alive:       true,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Identity() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.Authenticated
}

// Enqueue offers a broadcast frame to the outbound buffer without
// blocking. Frames offered to a closed session are dropped silently;
// false strictly means the recipient cannot keep up.
func (s *Session) Enqueue(frame []byte) bool {
	select {
	case <-s.done:
		return true
	default:
	}

	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

func (s *Session) Teardown() { s.Close() }

// Close is idempotent: duplicate close events (transport error racing a
// liveness reap, registry teardown racing a client close) are no-ops.
func (s *Session) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.state = domain.Closed
		identity := s.identity
		s.mu.Unlock()

		close(s.done)
		s.registry.Remove(s.id)
		_ = s.conn.Close()
		s.log.Info("Session closed", "session_id", s.id, "identity", identity)
	})
}

// ReadLoop consumes inbound frames until the transport fails or the
// session is closed. Every exit path releases the session's resources.
func (s *Session) ReadLoop() {
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxFrameBytes)

	// The read deadline covers two probe intervals: a peer that missed
	// two consecutive probes is unreachable either way.
	deadline := 2*s.config.ProbeInterval + s.config.WriteTimeout
	_ = s.conn.SetReadDeadline(time.Now().Add(deadline))
	s.conn.SetPongHandler(func(string) error {
		s.markAlive()
		return s.conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("Read loop ended", "session_id", s.id, "error", err)
			}
			return
		}

		frame, err := protocol.DecodeInbound(raw)
		if err != nil {
			// Permissive policy: malformed frames are logged and ignored
			// so a buggy client does not get flooded with protocol errors.
			s.log.Debug("Ignoring malformed frame", "session_id", s.id, "error", err)
			continue
		}

		switch frame.Type {
		case protocol.TypeAuth:
			if !s.handleAuth(frame.Token) {
				return
			}
		case protocol.TypeMessage:
			s.handleMessage(frame.Message)
		default:
			s.log.Debug("Ignoring unknown frame type", "session_id", s.id, "type", frame.Type)
		}
	}
}

// handleAuth drives the Unauthenticated -> Authenticated transition.
// A false return tells ReadLoop to close the session: failed
// authentication is terminal.
func (s *Session) handleAuth(token string) bool {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()
	if state != domain.Unauthenticated {
		// Identity is set exactly once; a second auth frame is noise.
		s.log.Debug("Ignoring auth frame", "session_id", s.id, "state", state.String())
		return true
	}

	// Verification may block on an external credential check; only this
	// session's read loop waits on it.
	identity, err := s.verifier.Verify(token)
	if err != nil {
		s.log.Warn("Authentication failed", "session_id", s.id, "error", err)
		s.reply(protocol.NewAuthError("invalid credentials"))
		return false
	}

	s.mu.Lock()
	s.state = domain.Authenticated
	s.identity = identity
	s.mu.Unlock()

	s.log.Info("Session authenticated", "session_id", s.id, "identity", identity)
	s.reply(protocol.NewAuthSuccess(identity))
	return true
}

func (s *Session) handleMessage(content string) {
	err := s.coordinator.Submit(s, content)
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrNotAuthenticated):
		s.reply(protocol.NewError("Authentication required"))
	case errors.Is(err, errs.ErrRateLimited):
		s.reply(protocol.NewError("sending too fast"))
	default:
		s.log.Error("Message submission failed", "session_id", s.id, "error", err)
	}
}

// WriteLoop owns outbound traffic: buffered broadcast frames and the
// periodic liveness probe. One goroutine per session, so a slow peer
// never delays probes or delivery for anyone else.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.ProbeInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			return
		case frame := <-s.send:
			if err := s.writeFrame(frame); err != nil {
				return
			}
		case <-ticker.C:
			if !s.probe() {
				return
			}
		}
	}
}

// probe implements the two-strike liveness protocol. If the previous
// probe was never acknowledged the peer is presumed unreachable and the
// session is reaped without notification; otherwise the alive flag is
// cleared and a new ping goes out.
func (s *Session) probe() bool {
	s.mu.Lock()
	alive := s.alive
	s.alive = false
	s.mu.Unlock()

	if !alive {
		s.log.Warn("Liveness timeout, reaping session",
			"session_id", s.id, "identity", s.Identity())
		return false
	}

	// WriteControl is safe concurrently with WriteMessage, no writeMu here.
	err := s.conn.WriteControl(websocket.PingMessage, nil,
		time.Now().Add(s.config.WriteTimeout))
	return err == nil
}

func (s *Session) markAlive() {
	s.mu.Lock()
	s.alive = true
	s.mu.Unlock()
}

func (s *Session) reply(frame any) {
	raw, err := json.Marshal(frame)
	if err != nil {
		s.log.Error("Frame encoding failed", "session_id", s.id, "error", err)
		return
	}
	if err := s.writeFrame(raw); err != nil {
		s.log.Debug("Reply write failed", "session_id", s.id, "error", err)
	}
}

func (s *Session) writeFrame(frame []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}
