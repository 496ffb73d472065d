package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/ritzau/sybil-ranker/pkg/logging"
	"github.com/ritzau/sybil-ranker/pkg/pipeline"
	"github.com/ritzau/sybil-ranker/pkg/pubsub"
	"github.com/ritzau/sybil-ranker/pkg/scores"
)

// StatusResponse is returned by /api/status
type StatusResponse struct {
	Status pubsub.RunStatus `json:"status"`
	Result *pipeline.Result `json:"result,omitempty"`
}

// ScoresResponse is returned by /api/scores
type ScoresResponse struct {
	RunID     string          `json:"run_id"`
	Algorithm string          `json:"algorithm"`
	Order     string          `json:"order"`
	Scores    []scores.Ranked `json:"scores"`
}

// NodeResponse is returned by /api/scores/{id}
type NodeResponse struct {
	RunID string  `json:"run_id"`
	ID    int     `json:"id"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"` // 1-based, ascending score
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher pubsub.Publisher
	top       int

	mu     sync.RWMutex
	status pubsub.RunStatus
	result *pipeline.Result
}

// NewServer creates a new web server. top is the default number of
// nodes returned by /api/scores.
func NewServer(top int) *Server {
	ssePublisher := pubsub.NewSSEPublisher()

	// Configure topic buffering
	// run_status: buffer last 10 events, replay only last event to new subscribers
	ssePublisher.ConfigureTopic(pubsub.TopicRunStatus, pubsub.TopicConfig{
		BufferSize: 10,
		ReplayAll:  false, // Only send current state
	})

	// scores: only the latest vector matters
	ssePublisher.ConfigureTopic(pubsub.TopicScores, pubsub.TopicConfig{
		BufferSize: 1,
		ReplayAll:  false,
	})

	s := &Server{
		router:    mux.NewRouter(),
		publisher: ssePublisher,
		top:       top,
		status:    pubsub.RunStatus{State: "initializing", Message: "Waiting for first run"},
	}
	s.setupRoutes()
	return s
}

// PublishRunStatus publishes a run status event
func (s *Server) PublishRunStatus(state, message string, step, total int) error {
	status := pubsub.RunStatus{
		State:   state,
		Message: message,
		Step:    step,
		Total:   total,
	}

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	return s.publisher.Publish(pubsub.TopicRunStatus, state, status)
}

// SetResult stores the latest scores and announces them to subscribers
func (s *Server) SetResult(result *pipeline.Result) {
	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	update := pubsub.ScoresUpdate{
		RunID:      result.RunID,
		Algorithm:  result.Algorithm,
		Nodes:      result.Nodes,
		Iterations: result.Iterations,
		Mean:       result.Summary.Mean,
	}
	if err := s.publisher.Publish(pubsub.TopicScores, "updated", update); err != nil {
		logging.Warn("failed to publish scores update", "error", err)
	}
}

func (s *Server) latest() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// Handler returns the routes wrapped in request logging
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/run_status", s.handleSubscribe(pubsub.TopicRunStatus)).Methods("GET")
	s.router.HandleFunc("/api/subscribe/scores", s.handleSubscribe(pubsub.TopicScores)).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	s.router.HandleFunc("/api/scores/{id:[0-9]+}", s.handleNode).Methods("GET")
	s.router.HandleFunc("/api/scores", s.handleScores).Methods("GET")
}

func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Set SSE headers
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

		// Create subscription
		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		// Send initial comment to establish connection (Safari compatibility)
		fmt.Fprintf(w, ": connected\n\n")
		flusher, _ := w.(http.Flusher)
		if flusher != nil {
			flusher.Flush()
		}

		// Stream events
		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				if err := pubsub.WriteSSE(w, event); err != nil {
					logging.WarnContext(r.Context(), "error writing SSE event", "topic", topic, "error", err)
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	response := StatusResponse{Status: s.status, Result: s.result}
	s.mu.RUnlock()

	writeJSON(w, response)
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	result := s.latest()
	if result == nil {
		http.Error(w, "Scores not available", http.StatusServiceUnavailable)
		return
	}

	top := s.top
	if v := r.URL.Query().Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, fmt.Sprintf("Invalid top: %s", v), http.StatusBadRequest)
			return
		}
		top = n
	}

	order := r.URL.Query().Get("order")
	switch order {
	case "", "asc":
		order = "asc"
	case "desc":
	default:
		http.Error(w, fmt.Sprintf("Invalid order: %s", order), http.StatusBadRequest)
		return
	}

	writeJSON(w, ScoresResponse{
		RunID:     result.RunID,
		Algorithm: result.Algorithm,
		Order:     order,
		Scores:    scores.Top(result.Scores, top, order == "asc"),
	})
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	result := s.latest()
	if result == nil {
		http.Error(w, "Scores not available", http.StatusServiceUnavailable)
		return
	}

	// Route pattern guarantees digits, only overflow can fail
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id >= len(result.Scores) {
		http.Error(w, fmt.Sprintf("Node not found: %s", mux.Vars(r)["id"]), http.StatusNotFound)
		return
	}

	score := result.Scores[id]
	rank := 1
	for other, v := range result.Scores {
		if v < score || (v == score && other < id) {
			rank++
		}
	}

	writeJSON(w, NodeResponse{
		RunID: result.RunID,
		ID:    id,
		Score: score,
		Rank:  rank,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

// Start serves on the given port until ctx is cancelled
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.publisher.Close()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("web server shutdown", "error", err)
		}
	}()

	logging.Info("starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
