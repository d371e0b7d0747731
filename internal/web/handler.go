// Package web serves a read-only JSON view of recent cycles and attempt
// counters. It never changes markers.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cexll/prbot/internal/attempt"
	"github.com/cexll/prbot/internal/runstore"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AttemptReader reads the attempt counter of a pull request
type AttemptReader interface {
	State(ctx context.Context, number int) (attempt.State, error)
}

// Handler handles status requests
type Handler struct {
	store    *runstore.Store
	attempts AttemptReader
	repo     string
	logger   *zap.Logger
}

// NewHandler creates a new status handler
func NewHandler(store *runstore.Store, attempts AttemptReader, repo string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, attempts: attempts, repo: repo, logger: logger}
}

// RegisterRoutes registers status routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/cycles", h.handleCycleList).Methods(http.MethodGet)
	r.HandleFunc("/cycles/{id}", h.handleCycleDetail).Methods(http.MethodGet)
	r.HandleFunc("/attempts/{number:[0-9]+}", h.handleAttempts).Methods(http.MethodGet)
}

// Router returns a router with all status routes
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	return r
}

// AttemptsView is the JSON body of GET /attempts/{number}
type AttemptsView struct {
	Repo       string               `json:"repo"`
	Number     int                  `json:"number"`
	State      string               `json:"state"`
	Attempts   int                  `json:"attempts"`
	Max        int                  `json:"max_attempts"`
	Exhausted  bool                 `json:"exhausted"`
	LastResult *runstore.ItemResult `json:"last_result,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (h *Handler) handleCycleList(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.store.List())
}

func (h *Handler) handleCycleDetail(w http.ResponseWriter, r *http.Request) {
	cycle, ok := h.store.Get(mux.Vars(r)["id"])
	if !ok {
		h.writeError(w, http.StatusNotFound, "cycle not found")
		return
	}
	h.writeJSON(w, http.StatusOK, cycle)
}

func (h *Handler) handleAttempts(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(mux.Vars(r)["number"])
	if err != nil || number <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid pull request number")
		return
	}

	state, err := h.attempts.State(r.Context(), number)
	if err != nil {
		h.logger.Warn("Failed to read attempt markers", zap.Int("pr", number), zap.Error(err))
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	view := AttemptsView{
		Repo:      h.repo,
		Number:    number,
		State:     state.String(),
		Attempts:  state.Attempts(),
		Max:       attempt.MaxAttempts,
		Exhausted: state.Exhausted(),
	}
	if last, ok := h.store.LastResult(number); ok {
		view.LastResult = &last
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Debug("Failed to write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
