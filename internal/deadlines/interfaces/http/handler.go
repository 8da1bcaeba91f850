package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"franchise-interfacing/internal/audit"
	deadlineapp "franchise-interfacing/internal/deadlines/application"
	deadlines "franchise-interfacing/internal/deadlines/domain"
)

const basePath = "/api/v1/deadlines/"

// DeadlineTracker updates deadlines and reads their history.
type DeadlineTracker interface {
	UpdateDeadline(ctx context.Context, entityID string, newDate *time.Time) (deadlineapp.UpdateResult, error)
	GetHistory(ctx context.Context, entityID string) ([]deadlines.DeadlineChangeRecord, error)
}

// Handler provides deadline HTTP endpoints.
type Handler struct {
	tracker     DeadlineTracker
	auditLogger audit.Logger
	logger      *log.Logger
}

// NewHandler constructs a handler.
func NewHandler(tracker DeadlineTracker, auditLogger audit.Logger, logger *log.Logger) (*Handler, error) {
	if tracker == nil {
		return nil, errors.New("deadlines handler: nil tracker")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{tracker: tracker, auditLogger: auditLogger, logger: logger}, nil
}

// ServeHTTP handles PUT /api/v1/deadlines/{id} and GET /api/v1/deadlines/{id}/history.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, basePath) {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, basePath), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		if r.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleUpdate(w, r, parts[0])
	case len(parts) == 2 && parts[0] != "" && parts[1] == "history":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleHistory(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// decodeDeadline reads deadline_date from the body. The field must be present; null clears the deadline.
func decodeDeadline(r *http.Request) (*time.Time, error) {
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, errors.New("invalid json")
	}
	raw, ok := body["deadline_date"]
	if !ok {
		return nil, errors.New("deadline_date is required")
	}
	if string(raw) == "null" {
		return nil, nil
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errors.New("deadline_date must be a YYYY-MM-DD string or null")
	}
	return deadlines.ParseDeadline(value)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, entityID string) {
	newDate, err := decodeDeadline(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.tracker.UpdateDeadline(r.Context(), entityID, newDate)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if result.HistoryAppended {
		h.logChange(r, result)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request, entityID string) {
	history, err := h.tracker.GetHistory(r.Context(), entityID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(history)
}

func (h *Handler) logChange(r *http.Request, result deadlineapp.UpdateResult) {
	if h.auditLogger == nil || len(result.Entity.History) == 0 {
		return
	}
	payload, _ := json.Marshal(result.Entity.History[len(result.Entity.History)-1])
	entry := audit.FromRequest(r, audit.Entry{
		Action:       "deadline.changed",
		ResourceType: "deadline_entity",
		ResourceID:   result.Entity.ID,
		Metadata:     payload,
	})
	if err := h.auditLogger.Log(r.Context(), entry); err != nil {
		h.logger.Printf("deadlines audit: entity=%s err=%v", result.Entity.ID, err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, deadlines.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, deadlines.ErrEmptyEntityID), errors.Is(err, deadlines.ErrInvalidDeadline):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Printf("deadlines handler: err=%v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
