// Package testserver provides a target with predictable HTTP and WebSocket
// behavior for exercising load runs locally and in tests.
//
// Routes:
//
//	/                  200 with a small JSON body
//	/status/{code}     responds with the given status code
//	/delay?ms=N        waits N milliseconds (or until the client goes away)
//	/echo              echoes method, headers and body as JSON
//	/ws                WebSocket echo
//	/ws/drop           WebSocket that closes abnormally right after the handshake
package testserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Server is an http.Handler that counts what it serves.
type Server struct {
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	requests atomic.Int64
	sessions atomic.Int64
}

func New() *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
	s.mux.HandleFunc("/status/{code}", s.handleStatus)
	s.mux.HandleFunc("/delay", s.handleDelay)
	s.mux.HandleFunc("/echo", s.handleEcho)
	s.mux.HandleFunc("/ws", s.handleWebSocketEcho)
	s.mux.HandleFunc("/ws/drop", s.handleWebSocketDrop)
	s.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"ok": true, "path": r.URL.Path})
	})
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		s.requests.Add(1)
	}
	s.mux.ServeHTTP(w, r)
}

// Requests returns the number of plain HTTP requests served.
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

// Sessions returns the number of WebSocket handshakes accepted.
func (s *Server) Sessions() int64 {
	return s.sessions.Load()
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(r.PathValue("code"))
	if err != nil || code < 100 || code > 599 {
		respondJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid status code"})
		return
	}
	w.WriteHeader(code)
}

func (s *Server) handleDelay(w http.ResponseWriter, r *http.Request) {
	ms, _ := strconv.Atoi(r.URL.Query().Get("ms"))
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-timer.C:
		respondJSON(w, http.StatusOK, map[string]any{"delayed_ms": ms})
	case <-r.Context().Done():
	}
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	respondJSON(w, http.StatusOK, map[string]any{
		"method":  r.Method,
		"path":    r.URL.Path,
		"headers": r.Header,
		"body":    string(body),
	})
}

func (s *Server) handleWebSocketEcho(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.sessions.Add(1)
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if err := conn.WriteMessage(mt, data); err != nil {
			return
		}
	}
}

func (s *Server) handleWebSocketDrop(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.sessions.Add(1)
	_ = conn.Close()
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
