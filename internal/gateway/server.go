// Package gateway serves the task store over HTTP and WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dohr-michael/todoglass/internal/events"
	"github.com/dohr-michael/todoglass/internal/gateway/ws"
	"github.com/dohr-michael/todoglass/internal/todos"
)

// Server is the todoglass gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	store      *todos.Store
	todos      *TodoHandler
	started    time.Time

	mu   sync.Mutex
	addr string
}

// NewServer creates a new gateway server.
func NewServer(store *todos.Store, bus *events.Bus, host string, port int) *Server {
	handler := NewTodoHandler(store)
	hub := ws.NewHub(bus, handler)

	s := &Server{
		hub:     hub,
		bus:     bus,
		store:   store,
		todos:   handler,
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", hub.ServeWS)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/counts", s.handleCounts)

	r.Route("/api/todos", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/", s.handleAdd)
		r.Route("/{id}", func(r chi.Router) {
			r.Patch("/", s.handleEdit)
			r.Delete("/", s.handleDelete)
			r.Post("/toggle", s.handleToggle)
			r.Post("/important", s.handleToggleImportant)
		})
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Listen binds the listening socket and returns the resolved address.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()
	return ln, nil
}

// Addr returns the bound address once Listen has succeeded, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addr != "" {
		return s.addr
	}
	return s.httpServer.Addr
}

// Serve accepts connections on ln until Shutdown. It returns nil on a clean shutdown.
func (s *Server) Serve(ln net.Listener) error {
	slog.Info("todoglass gateway listening", "addr", ln.Addr().String())
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, httpStatus(err), map[string]string{
		"error": err.Error(),
		"code":  errorCode(err),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"state":     s.store.State().String(),
		"read_only": errors.Is(s.store.Writable(), todos.ErrUnreadable),
		"clients":   s.hub.ClientCount(),
		"uptime":    time.Since(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer", errBadParams))
			return
		}
		limit = n
	}

	history := s.bus.History(limit)

	type eventJSON struct {
		ID        string             `json:"id"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.todos.Counts()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.todos.List(q.Get("filter"), q.Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

type textBody struct {
	Text string `json:"text"`
}

func decodeBody(w http.ResponseWriter, r *http.Request) (textBody, error) {
	var body textBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&body); err != nil {
		return body, fmt.Errorf("%w: %v", errBadParams, err)
	}
	return body, nil
}

func pathID(r *http.Request) (todos.ID, error) {
	id, err := todos.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errBadParams, err)
	}
	return id, nil
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := s.todos.Add(r.Context(), body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := decodeBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := s.todos.Edit(r.Context(), id, body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	s.handleUpdate(w, r, s.todos.Toggle)
}

func (s *Server) handleToggleImportant(w http.ResponseWriter, r *http.Request) {
	s.handleUpdate(w, r, s.todos.ToggleImportant)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, fn func(context.Context, todos.ID) (todos.Task, error)) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.todos.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
