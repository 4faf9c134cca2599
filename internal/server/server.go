// Package server exposes detection status over HTTP and WebSocket for local
// clients, standing in for the tray icon's live status surface.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/ritsu/mindustry-notifier/internal/detect"
)

const (
	// Default window for /api/history when no "seconds" query is given.
	DefaultHistorySeconds = 300

	// Per-connection write deadline for broadcasts.
	writeTimeout = 5 * time.Second
)

// StatusProvider supplies detection state to the server.
type StatusProvider interface {
	Status() detect.Status
	History(seconds int) []detect.Entry
	Events() <-chan detect.Entry
}

// TransitionMessage is pushed to WebSocket clients on each state transition.
type TransitionMessage struct {
	Type      string    `json:"type"`
	State     string    `json:"state"`
	Timestamp time.Time `json:"timestamp"`
	Notified  bool      `json:"notified"`
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	mon   StatusProvider
	mu    sync.RWMutex
	conns map[uuid.UUID]*websocket.Conn
}

// New creates a server and starts its broadcast loop.
func New(mon StatusProvider) *Server {
	s := &Server{
		mon:   mon,
		conns: make(map[uuid.UUID]*websocket.Conn),
	}
	go s.broadcast()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.mon.Status()); err != nil {
		slog.Debug("status encode error", "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	seconds := DefaultHistorySeconds
	if q := r.URL.Query().Get("seconds"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			http.Error(w, "invalid seconds", http.StatusBadRequest)
			return
		}
		seconds = n
	}

	entries := s.mon.History(seconds)
	if entries == nil {
		entries = []detect.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(entries); err != nil {
		slog.Debug("history encode error", "error", err)
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("websocket accept error", "error", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	id := uuid.New()
	s.mu.Lock()
	s.conns[id] = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, id)
		s.mu.Unlock()
	}()

	slog.Info("status client connected", "client", id.String(), "remote", r.RemoteAddr)

	// Clients only listen; CloseRead surfaces disconnects.
	ctx := conn.CloseRead(r.Context())
	<-ctx.Done()
	slog.Debug("status client disconnected", "client", id.String())
}

// broadcast fans transition events out to all connected clients.
func (s *Server) broadcast() {
	for e := range s.mon.Events() {
		msg := TransitionMessage{
			Type:      "transition",
			State:     e.State,
			Timestamp: e.Timestamp,
			Notified:  e.Notified,
		}

		s.mu.RLock()
		conns := make([]*websocket.Conn, 0, len(s.conns))
		for _, c := range s.conns {
			conns = append(conns, c)
		}
		s.mu.RUnlock()

		for _, c := range conns {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			if err := wsjson.Write(ctx, c, msg); err != nil {
				slog.Debug("broadcast write error", "error", err)
			}
			cancel()
		}
	}
}
