// Package web is the chat UI collaborator: a local page over a WebSocket hub
// that renders session events and sends user actions back.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"markestedt/snipai/config"
	"markestedt/snipai/inject"
	"markestedt/snipai/session"
	"markestedt/snipai/storage"
)

//go:embed static/*
var staticFiles embed.FS

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Local-only server
	},
}

// Controls is the slice of the session the UI may drive
type Controls interface {
	SubmitPrompt(text string)
	RequestPaste()
	RequestUndo()
	Close()
	State() session.State
}

// Server serves the chat page, the WebSocket hub, and the JSON API
type Server struct {
	db      *storage.DB
	session Controls
	undo    *inject.UndoStore
	port    int
	hub     *Hub

	mu     sync.RWMutex
	config *config.Config
}

// NewServer creates a new web server
func NewServer(db *storage.DB, cfg *config.Config, sess Controls, undo *inject.UndoStore, port int) *Server {
	hub := NewHub()
	go hub.Run()

	return &Server{
		db:      db,
		config:  cfg,
		session: sess,
		undo:    undo,
		port:    port,
		hub:     hub,
	}
}

// Start starts the web server (blocking)
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/ws", s.handleWebSocket)

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to load static files: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(staticFS)))

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	slog.Info("Starting chat UI server", "url", s.URL())

	return http.ListenAndServe(addr, mux)
}

// URL returns the chat page address
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// Emit implements session.Sink: every session event goes to all clients.
func (s *Server) Emit(ev session.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to encode session event", "error", err)
		return
	}
	s.hub.Broadcast(data)
}

// handleWebSocket upgrades a client and syncs it with the current state
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return
	}

	client := &Client{
		hub:     s.hub,
		conn:    conn,
		send:    make(chan []byte, 256),
		actions: s.onAction,
	}

	client.hub.register <- client

	// A client connecting mid-cycle needs the state it missed.
	client.sendEvent(session.Event{Type: session.EventState, State: s.session.State()})
	client.sendEvent(session.Event{Type: session.EventUndoState, UndoAvailable: s.undo.Has()})

	go client.writePump()
	go client.readPump()
}

// userAction is what the chat page sends over the socket
type userAction struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`
}

func (s *Server) onAction(raw []byte) {
	var act userAction
	if err := json.Unmarshal(raw, &act); err != nil {
		slog.Warn("Malformed user action", "error", err)
		return
	}

	switch act.Action {
	case "submitPrompt":
		s.session.SubmitPrompt(act.Text)
	case "requestPaste":
		s.session.RequestPaste()
	case "requestUndo":
		s.session.RequestUndo()
	case "closeSession":
		s.session.Close()
	default:
		slog.Warn("Unknown user action", "action", act.Action)
	}
}

// GetConfig returns the current configuration (thread-safe)
func (s *Server) GetConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// UpdateConfig updates the configuration (thread-safe)
func (s *Server) UpdateConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = cfg
}
