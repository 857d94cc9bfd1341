package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/world-in-progress/hermes/client"
	"github.com/world-in-progress/hermes/core/logger"
	"github.com/world-in-progress/hermes/core/threading"
	"github.com/world-in-progress/hermes/uri"
)

// dispatchTask hands one relayed message to HandlePath on a worker.
type dispatchTask struct {
	threading.BaseTask
	server  *Server
	message string
}

func (t *dispatchTask) Process() error {
	return t.server.HandlePath(t.message)
}

// Handler serves the loopback API used by the helper.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+client.DispatchPath, s.handleDispatch)
	mux.HandleFunc("GET "+client.HealthPath, s.handleHealth)
	mux.HandleFunc("GET "+client.URIPath, s.handleURI)
	return mux
}

func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, uri.MaxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "message too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "unable to read message", http.StatusBadRequest)
		return
	}
	message := strings.TrimSpace(string(body))
	if message == "" {
		http.Error(w, "empty message", http.StatusBadRequest)
		return
	}

	id := r.Header.Get(client.RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
	}
	logger.Debug("request %s: received %q", id, message)

	task := &dispatchTask{
		BaseTask: threading.BaseTask{ID: id},
		server:   s,
		message:  message,
	}
	if _, err := s.pool.SubmitTimeout(s.submitTimeout, task); err != nil {
		logger.Error("request %s: unable to queue %q: %v", id, message, err)
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set(client.RequestIDHeader, id)
	w.WriteHeader(http.StatusAccepted)
	_, _ = io.WriteString(w, "accepted\n")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "OK")
}

func (s *Server) handleURI(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		http.Error(w, "missing endpoint", http.StatusBadRequest)
		return
	}
	link := s.URI(endpoint, r.URL.Query().Get("path"))
	if link == "" {
		http.Error(w, "no scheme registered", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, link)
}
