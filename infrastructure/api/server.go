// Package api is the HTTP front door: account registration, credential
// issuance and the WebSocket upgrade endpoint. The broadcast core never
// sees a password; it only consumes tokens issued here.
package api

import (
	"chat-relay/auth"
	errs "chat-relay/errors"
	"chat-relay/services"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

type Server struct {
	log         *slog.Logger
	authService services.IAuthService
	throttle    *loginThrottle
	wsHandler   http.Handler
}

func NewServer(
	log *slog.Logger,
	authService services.IAuthService,
	wsHandler http.Handler,
	loginRate rate.Limit,
	loginBurst int,
) *Server {
	return &Server{
		log:         log,
		authService: authService,
		throttle:    newLoginThrottle(loginRate, loginBurst),
		wsHandler:   wsHandler,
	}
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.Handle("GET /ws", s.wsHandler)
	return mux
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := s.authService.Register(creds.Username, creds.Password)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusCreated)
	case errors.Is(err, errs.ErrUserAlreadyExists),
		errors.Is(err, errs.ErrInvalidPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("Registration failed", "username", creds.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "registration failed")
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	// Attempts are throttled per remote origin before any credential
	// check, so a brute force does not buy Argon2 work either.
	if !s.throttle.allow(remoteOrigin(r)) {
		writeError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := s.authService.Login(creds.Username, creds.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"token": string(token)})
	case errors.Is(err, errs.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid username or password")
	default:
		s.log.Error("Login failed", "username", creds.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "login failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// remoteOrigin strips the ephemeral port so every connection from one
// host shares a throttle entry.
func remoteOrigin(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// loginThrottle keeps one token bucket per remote origin. Entries are
// never evicted; bounded by the number of distinct origins seen, same
// trade-off as the per-identity message limiter.
type loginThrottle struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	perOrigin map[string]*rate.Limiter
}

func newLoginThrottle(limit rate.Limit, burst int) *loginThrottle {
	return &loginThrottle{
		limit:     limit,
		burst:     burst,
		perOrigin: make(map[string]*rate.Limiter),
	}
}

func (t *loginThrottle) allow(origin string) bool {
	t.mu.Lock()
	limiter, ok := t.perOrigin[origin]
	if !ok {
		limiter = rate.NewLimiter(t.limit, t.burst)
		t.perOrigin[origin] = limiter
	}
	t.mu.Unlock()

	return limiter.Allow()
}
